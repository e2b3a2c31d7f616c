package xpath

import (
	"testing"
)

func TestCompile(t *testing.T) {
	tests := []string{
		"/root",
		"/root/item",
		"//item",
		"/root/item[1]",
		"/root/item[last()]",
		"//item[@id='x']",
		"child::item/attribute::id",
		"ancestor-or-self::*",
		"preceding-sibling::item[2]",
		"..",
		".",
		"/",
		"@id",
		"@*",
		"*",
		"*:item",
		"xs:*",
		"Q{urn:example}item",
		"text()",
		"comment()",
		"processing-instruction('style')",
		"document-node()",
		"element(item)",
		"attribute(id)",
		"namespace-node()",
		"1 + 2 * 3",
		"-1",
		"1 to 10",
		"(1, 2, 3)",
		"()",
		"1 = 2 or 3 < 4 and 5 >= 6",
		"let $x := 1, $y := 2 return $x + $y",
		"a union b",
		"a | b | c",
		"a intersect b",
		"a except b",
		"a is b",
		"a << b",
		"a >> b",
		"x eq y",
		"x ne y",
		"if (a) then b else c",
		"for $i in 1 to 3 return $i",
		"for $i in a, $j in b return $i + $j",
		"let $x := 1 return $x",
		"some $x in a satisfies $x = 1",
		"every $x in a satisfies $x = 1",
		"1 cast as xs:integer",
		"1 castable as xs:double?",
		". treat as item()+",
		"5 instance of xs:decimal",
		"() instance of empty-sequence()",
		"a ! b",
		"'a' || 'b'",
		"abs#1",
		"function($x) { $x }",
		"function($x as xs:integer, $y) as xs:integer { $x }",
		"map { 'a': 1, 'b': 2 }",
		"map { }",
		"array { 1, 2 }",
		"[1, 2, [3, 4]]",
		"let $m := map { } return $m?key",
		"let $m := map { } return $m?*",
		"let $a := [1] return $a?1",
		"?name",
		"let $f := function($x, $y) { $x } return $f(1, 2)",
		"(a, b)[2]",
		"2 => abs() => string()",
		"(: leading comment :) 1 + (: nested (: comment :) here :) 2",
		"//div/div",
		"a-b - a",
	}
	for _, str := range tests {
		if _, err := Build(str); err != nil {
			t.Errorf("%s: fail to compile expression: %s", str, err)
		}
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		Expr string
		Code string
	}{
		{Expr: "1 +", Code: CodeSyntax},
		{Expr: "(1, 2", Code: CodeSyntax},
		{Expr: "a[", Code: CodeSyntax},
		{Expr: "a[]", Code: CodeSyntax},
		{Expr: "if (a) then b", Code: CodeSyntax},
		{Expr: "for $i in a", Code: CodeSyntax},
		{Expr: "'unterminated", Code: CodeSyntax},
		{Expr: "1 2", Code: CodeSyntax},
		{Expr: "map { 'a' }", Code: CodeSyntax},
		{Expr: "unknown-function()", Code: CodeUnknownFunc},
		{Expr: "count()", Code: CodeUnknownFunc},
		{Expr: "count(1, 2)", Code: CodeUnknownFunc},
		{Expr: "$undeclared", Code: CodeUndefinedVar},
		{Expr: "zz:item", Code: CodeUnboundPrefix},
		{Expr: "zz:func()", Code: CodeUnboundPrefix},
		{Expr: "1 cast as xs:nosuch", Code: CodeUnknownType},
		{Expr: "1 + 'a'", Code: CodeOperandType},
	}
	for _, c := range tests {
		_, err := Build(c.Expr)
		if err == nil {
			t.Errorf("%s: compilation should have failed", c.Expr)
			continue
		}
		if code := ErrorCode(err); code != c.Code {
			t.Errorf("%s: want %s, got %s (%s)", c.Expr, c.Code, code, err)
		}
	}
}

func TestCompileVersions(t *testing.T) {
	tests := []struct {
		Expr    string
		Version Version
		Ok      bool
	}{
		{Expr: "/a/b[1]", Version: Version10, Ok: true},
		{Expr: "a | b", Version: Version10, Ok: true},
		{Expr: "if (a) then b else c", Version: Version10, Ok: false},
		{Expr: "for $i in a return $i", Version: Version10, Ok: false},
		{Expr: "a intersect b", Version: Version10, Ok: false},
		{Expr: "1 to 3", Version: Version10, Ok: false},
		{Expr: "for $i in a return $i", Version: Version20, Ok: true},
		{Expr: "'a' || 'b'", Version: Version20, Ok: false},
		{Expr: "a ! b", Version: Version20, Ok: false},
		{Expr: "let $x := 1 return $x", Version: Version20, Ok: false},
		{Expr: "let $x := 1 return $x", Version: Version30, Ok: true},
		{Expr: "'a' || 'b'", Version: Version30, Ok: true},
		{Expr: "abs#1", Version: Version30, Ok: true},
		{Expr: "map { 'a': 1 }", Version: Version30, Ok: false},
		{Expr: "[1, 2]", Version: Version30, Ok: false},
		{Expr: "map { 'a': 1 }", Version: Version31, Ok: true},
		{Expr: "2 => abs()", Version: Version31, Ok: true},
	}
	for _, c := range tests {
		_, err := BuildWith(c.Expr, WithVersion(c.Version))
		if c.Ok && err != nil {
			t.Errorf("%s (%s): fail to compile expression: %s", c.Expr, c.Version, err)
		}
		if !c.Ok && err == nil {
			t.Errorf("%s (%s): expression should be rejected", c.Expr, c.Version)
		}
	}
}

func TestDebug(t *testing.T) {
	q, err := Build("/a/b[1]")
	if err != nil {
		t.Fatalf("fail to compile expression: %s", err)
	}
	if str := Debug(q); str == "" {
		t.Errorf("empty debug dump")
	}
}
