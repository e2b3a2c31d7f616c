package xpath

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/midbel/xpath/xml"
)

const document = `<?xml version="1.0" encoding="UTF-8"?>

<root>
	<item id="first">element-1</item>
	<item id="second">element-2</item>
	<group>
		<item lang="en">sub-element-1</item>
		<item lang="en">sub-element-2</item>
		<test ignore="true"/>
	</group>
</root>
`

func TestEval(t *testing.T) {
	tests := []struct {
		Expr     string
		Expected []string
	}{
		{
			Expr:     "/root/item",
			Expected: []string{"element-1", "element-2"},
		},
		{
			Expr:     "/root/item[1]",
			Expected: []string{"element-1"},
		},
		{
			Expr:     "/root/item[last()]",
			Expected: []string{"element-2"},
		},
		{
			Expr:     "/root/item[position()>=1]",
			Expected: []string{"element-1", "element-2"},
		},
		{
			Expr:     "/root/item[position()>1]",
			Expected: []string{"element-2"},
		},
		{
			Expr:     "count(//item)",
			Expected: []string{"4"},
		},
		{
			Expr:     "//item",
			Expected: []string{"element-1", "element-2", "sub-element-1", "sub-element-2"},
		},
		{
			Expr:     "//group/item[1]",
			Expected: []string{"sub-element-1"},
		},
		{
			Expr:     "(//item)[1]",
			Expected: []string{"element-1"},
		},
		{
			Expr:     "/root/item[1] | /root/item[2]",
			Expected: []string{"element-1", "element-2"},
		},
		{
			Expr:     "//item[text()=\"element-1\"]",
			Expected: []string{"element-1"},
		},
		{
			Expr:     "//item[@id='second']",
			Expected: []string{"element-2"},
		},
		{
			Expr:     "//@ignore",
			Expected: []string{"true"},
		},
		{
			Expr:     "//test/@ignore/..",
			Expected: []string{""},
		},
		{
			Expr:     "/root/group/item/@lang",
			Expected: []string{"en", "en"},
		},
		{
			Expr:     "name(/root/group)",
			Expected: []string{"group"},
		},
		{
			Expr:     "string(/root/item[1])",
			Expected: []string{"element-1"},
		},
	}
	doc := parseDocument(t)
	for _, c := range tests {
		runQuery(t, doc, c.Expr, c.Expected)
	}
}

func TestEvalOperators(t *testing.T) {
	tests := []struct {
		Expr     string
		Expected []string
	}{
		{Expr: "1 + 2", Expected: []string{"3"}},
		{Expr: "2 - 3", Expected: []string{"-1"}},
		{Expr: "2 * 3.5", Expected: []string{"7"}},
		{Expr: "7 mod 3", Expected: []string{"1"}},
		{Expr: "7 idiv 2", Expected: []string{"3"}},
		{Expr: "-7 idiv 2", Expected: []string{"-3"}},
		{Expr: "1 div 2", Expected: []string{"0.5"}},
		{Expr: "1.0e0 div 0", Expected: []string{"INF"}},
		{Expr: "-1.0e0 div 0", Expected: []string{"-INF"}},
		{Expr: "0e0 div 0e0", Expected: []string{"NaN"}},
		{Expr: "1 = 1", Expected: []string{"true"}},
		{Expr: "1 != 1", Expected: []string{"false"}},
		{Expr: "(1, 2) = (2, 3)", Expected: []string{"true"}},
		{Expr: "(1, 2) = (3, 4)", Expected: []string{"false"}},
		{Expr: "2 eq 2", Expected: []string{"true"}},
		{Expr: "2 lt 3", Expected: []string{"true"}},
		{Expr: "'b' gt 'a'", Expected: []string{"true"}},
		{Expr: "true() and false()", Expected: []string{"false"}},
		{Expr: "true() or false()", Expected: []string{"true"}},
		{Expr: "not(false())", Expected: []string{"true"}},
		{Expr: "1 to 3", Expected: []string{"1", "2", "3"}},
		{Expr: "3 to 1", Expected: nil},
		{Expr: "(1, 2, 3)[last()]", Expected: []string{"3"}},
		{Expr: "(1, 2, 3)[position() = last() - 1]", Expected: []string{"2"}},
		{Expr: "(1 to 5)[. mod 2 = 1]", Expected: []string{"1", "3", "5"}},
		{Expr: "'foo' || 'bar'", Expected: []string{"foobar"}},
		{Expr: "'abc' ! upper-case(.)", Expected: []string{"ABC"}},
		{Expr: "(1, 2) ! (. * 10)", Expected: []string{"10", "20"}},
		{Expr: "-(2 + 3)", Expected: []string{"-5"}},
		{Expr: "2 + 3 * 4", Expected: []string{"14"}},
		{Expr: "(2 + 3) * 4", Expected: []string{"20"}},
		{Expr: "'ab' = 'ab'", Expected: []string{"true"}},
	}
	doc := parseDocument(t)
	for _, c := range tests {
		runQuery(t, doc, c.Expr, c.Expected)
	}
}

func TestEvalControl(t *testing.T) {
	tests := []struct {
		Expr     string
		Expected []string
	}{
		{Expr: "if (1) then 'a' else 'b'", Expected: []string{"a"}},
		{Expr: "if (()) then 'a' else 'b'", Expected: []string{"b"}},
		{Expr: "for $i in 1 to 3 return $i * 10", Expected: []string{"10", "20", "30"}},
		{Expr: "for $i in (1, 2), $j in (10, 20) return $i + $j", Expected: []string{"11", "21", "12", "22"}},
		{Expr: "let $x := 2 return $x * $x", Expected: []string{"4"}},
		{Expr: "let $x := 2, $y := $x + 1 return $y", Expected: []string{"3"}},
		{Expr: "some $x in (1, 2, 3) satisfies $x = 2", Expected: []string{"true"}},
		{Expr: "some $x in (1, 2, 3) satisfies $x = 5", Expected: []string{"false"}},
		{Expr: "every $x in (1, 2, 3) satisfies $x > 0", Expected: []string{"true"}},
		{Expr: "every $x in (1, 2, 3) satisfies $x > 1", Expected: []string{"false"}},
		{Expr: "some $x in (1, 2), $y in (2, 3) satisfies $x = $y", Expected: []string{"true"}},
	}
	doc := parseDocument(t)
	for _, c := range tests {
		runQuery(t, doc, c.Expr, c.Expected)
	}
}

func TestEvalTypes(t *testing.T) {
	tests := []struct {
		Expr     string
		Expected []string
	}{
		{Expr: "5 instance of xs:integer", Expected: []string{"true"}},
		{Expr: "5 instance of xs:decimal", Expected: []string{"true"}},
		{Expr: "5.0 instance of xs:integer", Expected: []string{"false"}},
		{Expr: "(1, 2) instance of xs:integer", Expected: []string{"false"}},
		{Expr: "(1, 2) instance of xs:integer+", Expected: []string{"true"}},
		{Expr: "() instance of xs:integer?", Expected: []string{"true"}},
		{Expr: "'x' instance of xs:string", Expected: []string{"true"}},
		{Expr: "'42' cast as xs:integer", Expected: []string{"42"}},
		{Expr: "42 cast as xs:string", Expected: []string{"42"}},
		{Expr: "'42' castable as xs:integer", Expected: []string{"true"}},
		{Expr: "'abc' castable as xs:integer", Expected: []string{"false"}},
		{Expr: "'2024-02-30' castable as xs:date", Expected: []string{"false"}},
		{Expr: "(1, 2) treat as xs:integer+", Expected: []string{"1", "2"}},
		{Expr: "xs:integer('7') + 1", Expected: []string{"8"}},
		{Expr: "xs:double('1.5') * 2", Expected: []string{"3"}},
		{Expr: "string(xs:anyURI('http://example.com'))", Expected: []string{"http://example.com"}},
		{Expr: "xs:hexBinary('0fb7') cast as xs:string", Expected: []string{"0FB7"}},
		{Expr: ". instance of document-node()", Expected: []string{"true"}},
		{Expr: "/root instance of element()", Expected: []string{"true"}},
	}
	doc := parseDocument(t)
	for _, c := range tests {
		runQuery(t, doc, c.Expr, c.Expected)
	}
}

func TestEvalHigherOrder(t *testing.T) {
	tests := []struct {
		Expr     string
		Expected []string
	}{
		{Expr: "for-each((1, 2, 3), function($x) { $x * 2 })", Expected: []string{"2", "4", "6"}},
		{Expr: "filter(1 to 6, function($x) { $x mod 2 = 0 })", Expected: []string{"2", "4", "6"}},
		{Expr: "fold-left(1 to 4, 0, function($a, $b) { $a + $b })", Expected: []string{"10"}},
		{Expr: "fold-right(1 to 3, (), function($a, $b) { ($b, $a) })", Expected: []string{"3", "2", "1"}},
		{Expr: "for-each-pair((1, 2), (10, 20), function($a, $b) { $a + $b })", Expected: []string{"11", "22"}},
		{Expr: "for-each((-1, 2), abs#1)", Expected: []string{"1", "2"}},
		{Expr: "let $f := function($x) { $x + 1 } return $f(41)", Expected: []string{"42"}},
		{Expr: "(1, 2, 3) => count()", Expected: []string{"3"}},
		{Expr: "'abc' => upper-case() => substring(1, 2)", Expected: []string{"AB"}},
		{Expr: "function-arity(abs#1)", Expected: []string{"1"}},
		{Expr: "head(1 to 5)", Expected: []string{"1"}},
		{Expr: "tail(1 to 3)", Expected: []string{"2", "3"}},
		{Expr: "sort((3, 1, 2))", Expected: []string{"1", "2", "3"}},
	}
	doc := parseDocument(t)
	for _, c := range tests {
		runQuery(t, doc, c.Expr, c.Expected)
	}
}

func TestEvalMapArray(t *testing.T) {
	tests := []struct {
		Expr     string
		Expected []string
	}{
		{Expr: `map { "a": 1, "b": 2 }("b")`, Expected: []string{"2"}},
		{Expr: `map { "a": 1 }?a`, Expected: []string{"1"}},
		{Expr: `map:get(map { "a": 1 }, "a")`, Expected: []string{"1"}},
		{Expr: `map:size(map { "a": 1, "b": 2 })`, Expected: []string{"2"}},
		{Expr: `map:contains(map { "a": 1 }, "b")`, Expected: []string{"false"}},
		{Expr: `map:get(map:put(map { "a": 1 }, "b", 2), "b")`, Expected: []string{"2"}},
		{Expr: `map:keys(map { "a": 1 })`, Expected: []string{"a"}},
		{Expr: `map { 1: "one" }(1.0)`, Expected: []string{"one"}},
		{Expr: `map:get(map:merge((map { "a": 1 }, map { "a": 2 })), "a")`, Expected: []string{"1"}},
		{Expr: `map:get(map:merge((map { "a": 1 }, map { "a": 2 }), map { "duplicates": "use-last" }), "a")`, Expected: []string{"2"}},
		{Expr: `[1, 2, 3](2)`, Expected: []string{"2"}},
		{Expr: `[1, 2, 3]?3`, Expected: []string{"3"}},
		{Expr: `array:size([1, 2, 3])`, Expected: []string{"3"}},
		{Expr: `array:get(["a", "b"], 1)`, Expected: []string{"a"}},
		{Expr: `array:flatten([1, [2, 3]])`, Expected: []string{"1", "2", "3"}},
		{Expr: `array:size(array { 1 to 3 })`, Expected: []string{"3"}},
		{Expr: `array:fold-left([1, 2, 3], 0, function($a, $b) { $a + $b })`, Expected: []string{"6"}},
		{Expr: `array:size(array:reverse([1, 2]))`, Expected: []string{"2"}},
		{Expr: `[1, 2, 3]?*`, Expected: []string{"1", "2", "3"}},
	}
	doc := parseDocument(t)
	for _, c := range tests {
		runQuery(t, doc, c.Expr, c.Expected)
	}
}

func TestEvalErrors(t *testing.T) {
	tests := []struct {
		Expr string
		Code string
	}{
		{Expr: "1 div 0", Code: CodeDivZero},
		{Expr: "1 idiv 0", Code: CodeDivZero},
		{Expr: "5 mod 0", Code: CodeDivZero},
		{Expr: "'a' cast as xs:integer", Code: CodeBadArgument},
		{Expr: "() cast as xs:integer", Code: CodeOperandType},
		{Expr: "(1, 2) treat as xs:integer", Code: CodeTreatAs},
		{Expr: "1 + 'a'", Code: CodeOperandType},
		{Expr: "error()", Code: CodeUserError},
		{Expr: "(1, 2) eq 2", Code: CodeOperandType},
	}
	doc := parseDocument(t)
	for _, c := range tests {
		q, err := Build(c.Expr)
		if err != nil {
			if code := ErrorCode(err); code != c.Code {
				t.Errorf("%s: want error %s at compile time, got %s", c.Expr, c.Code, code)
			}
			continue
		}
		_, err = q.Find(doc)
		if err == nil {
			t.Errorf("%s: expected evaluation to fail with %s", c.Expr, c.Code)
			continue
		}
		if code := ErrorCode(err); code != c.Code {
			t.Errorf("%s: want error %s, got %s (%s)", c.Expr, c.Code, code, err)
		}
	}
}

func TestEvalVariables(t *testing.T) {
	doc := parseDocument(t)
	q, err := BuildWith("$base + 1", WithVariable("base", int64(41)))
	if err != nil {
		t.Fatalf("fail to compile: %s", err)
	}
	seq, err := q.Find(doc)
	if err != nil {
		t.Fatalf("fail to evaluate: %s", err)
	}
	if got := values(t, seq); !cmp.Equal(got, []string{"42"}) {
		t.Errorf("unexpected result: %s", cmp.Diff([]string{"42"}, got))
	}
}

func TestEvalCompat(t *testing.T) {
	tests := []struct {
		Expr     string
		Expected []string
	}{
		{Expr: "'5' + 2", Expected: []string{"7"}},
		{Expr: "concat('a', 'b')", Expected: []string{"ab"}},
		{Expr: "/root/item[1]", Expected: []string{"element-1"}},
		{Expr: "count(//item)", Expected: []string{"4"}},
	}
	doc := parseDocument(t)
	for _, c := range tests {
		q, err := BuildWith(c.Expr, WithCompat())
		if err != nil {
			t.Errorf("%s: fail to compile: %s", c.Expr, err)
			continue
		}
		seq, err := q.Find(doc)
		if err != nil {
			t.Errorf("%s: fail to evaluate: %s", c.Expr, err)
			continue
		}
		if got := values(t, seq); !cmp.Equal(got, c.Expected) {
			t.Errorf("%s: unexpected result: %s", c.Expr, cmp.Diff(c.Expected, got))
		}
	}
}

func TestEvalBoundary(t *testing.T) {
	const tree = `<A><B1/><B2><C1/><C2/><C3/></B2></A>`
	doc, err := xml.ParseString(tree)
	if err != nil {
		t.Fatalf("fail to parse document: %s", err)
	}
	names := func(seq Sequence) []string {
		var out []string
		for i := range seq {
			out = append(out, seq[i].Node().LocalName())
		}
		return out
	}
	seq, err := Find(doc, "/A/B2/*")
	if err != nil {
		t.Fatalf("fail to evaluate: %s", err)
	}
	if got := names(seq); !cmp.Equal(got, []string{"C1", "C2", "C3"}) {
		t.Errorf("unexpected nodes: %s", cmp.Diff([]string{"C1", "C2", "C3"}, got))
	}
	seq, err = Find(doc, "count(//C2 | //C2)")
	if err != nil {
		t.Fatalf("fail to evaluate: %s", err)
	}
	if got := values(t, seq); !cmp.Equal(got, []string{"1"}) {
		t.Errorf("union should remove duplicates, got %v", got)
	}
	seq, err = Find(doc, "//C1/following-sibling::*")
	if err != nil {
		t.Fatalf("fail to evaluate: %s", err)
	}
	if got := names(seq); !cmp.Equal(got, []string{"C2", "C3"}) {
		t.Errorf("unexpected siblings: %v", got)
	}
	seq, err = Find(doc, "//C3/preceding-sibling::*[1]")
	if err != nil {
		t.Fatalf("fail to evaluate: %s", err)
	}
	if got := names(seq); !cmp.Equal(got, []string{"C2"}) {
		t.Errorf("nearest preceding sibling expected, got %v", got)
	}
	seq, err = Find(doc, "//C2/ancestor::*")
	if err != nil {
		t.Fatalf("fail to evaluate: %s", err)
	}
	if got := names(seq); !cmp.Equal(got, []string{"A", "B2"}) {
		t.Errorf("ancestors must come back in document order, got %v", got)
	}
	seq, err = Find(doc, "//C2 << //C3")
	if err != nil {
		t.Fatalf("fail to evaluate: %s", err)
	}
	if got := values(t, seq); !cmp.Equal(got, []string{"true"}) {
		t.Errorf("C2 should come before C3")
	}
}

func TestEvalTextNodes(t *testing.T) {
	const tree = `<doc><a>keep</a><b>  </b><c>also keep</c></doc>`
	doc, err := xml.ParseString(tree)
	if err != nil {
		t.Fatalf("fail to parse document: %s", err)
	}
	seq, err := Find(doc, "//text()[normalize-space()]")
	if err != nil {
		t.Fatalf("fail to evaluate: %s", err)
	}
	want := []string{"keep", "also keep"}
	if got := values(t, seq); !cmp.Equal(got, want) {
		t.Errorf("unexpected text nodes: %s", cmp.Diff(want, got))
	}
}

func TestEvalNamespaces(t *testing.T) {
	const tree = `<root xmlns:a="urn:a"><a:item>one</a:item><item>two</item></root>`
	doc, err := xml.ParseString(tree)
	if err != nil {
		t.Fatalf("fail to parse document: %s", err)
	}
	seq, err := FindWith(doc, "//p:item", WithNamespace("p", "urn:a"))
	if err != nil {
		t.Fatalf("fail to evaluate: %s", err)
	}
	if got := values(t, seq); !cmp.Equal(got, []string{"one"}) {
		t.Errorf("prefix should bind by uri, got %v", got)
	}
	seq, err = Find(doc, "//item")
	if err != nil {
		t.Fatalf("fail to evaluate: %s", err)
	}
	if got := values(t, seq); !cmp.Equal(got, []string{"two"}) {
		t.Errorf("unprefixed test should only match no namespace, got %v", got)
	}
	seq, err = Find(doc, "count(/root/namespace::*)")
	if err != nil {
		t.Fatalf("fail to evaluate: %s", err)
	}
	if got := values(t, seq); !cmp.Equal(got, []string{"2"}) {
		t.Errorf("expected the declared and the xml namespace, got %v", got)
	}
	seq, err = Find(doc, "//*:item")
	if err != nil {
		t.Fatalf("fail to evaluate: %s", err)
	}
	if seq.Len() != 2 {
		t.Errorf("*:item should match both items, got %d", seq.Len())
	}
}

func TestQuerySelect(t *testing.T) {
	doc := parseDocument(t)
	q, err := Build("string-length(/root/item[1])")
	if err != nil {
		t.Fatalf("fail to compile: %s", err)
	}
	res, err := q.Select(doc)
	if err != nil {
		t.Fatalf("fail to evaluate: %s", err)
	}
	if v, ok := res.(int64); !ok || v != 9 {
		t.Errorf("single atomic should come back bare, got %T %v", res, res)
	}
}

func TestQueryIter(t *testing.T) {
	doc := parseDocument(t)
	q, err := Build("1 to 1000000")
	if err != nil {
		t.Fatalf("fail to compile: %s", err)
	}
	var count int
	for item, err := range q.Iter(doc) {
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		_ = item
		count++
		if count >= 10 {
			break
		}
	}
	if count != 10 {
		t.Errorf("iteration should stop on demand, got %d", count)
	}
	q, err = Build("(1 to 1000000)[3]")
	if err != nil {
		t.Fatalf("fail to compile: %s", err)
	}
	seq, err := q.Find(doc)
	if err != nil {
		t.Fatalf("fail to evaluate: %s", err)
	}
	if got := values(t, seq); !cmp.Equal(got, []string{"3"}) {
		t.Errorf("positional predicate should short circuit, got %v", got)
	}
}

func runQuery(t *testing.T, doc *xml.Document, expr string, expected []string) {
	t.Helper()
	q, err := Build(expr)
	if err != nil {
		t.Errorf("%s: fail to compile expression: %s", expr, err)
		return
	}
	seq, err := q.Find(doc)
	if err != nil {
		t.Errorf("%s: error evaluating expression: %s", expr, err)
		return
	}
	got := values(t, seq)
	if !cmp.Equal(got, expected) {
		t.Errorf("%s: unexpected result: %s", expr, cmp.Diff(expected, got))
	}
}

func values(t *testing.T, seq Sequence) []string {
	t.Helper()
	var out []string
	for i := range seq {
		str, err := itemString(seq[i])
		if err != nil {
			t.Errorf("item has no string value: %s", err)
			continue
		}
		out = append(out, str)
	}
	return out
}

func parseDocument(t *testing.T) *xml.Document {
	t.Helper()
	doc, err := xml.NewParser(strings.NewReader(document)).Parse()
	if err != nil {
		t.Fatalf("fail to parse document: %s", err)
	}
	return doc
}
