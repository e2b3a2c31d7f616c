package xml

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	const input = `<?xml version="1.0"?>
<catalog>
	<book id="1">first</book>
	<book id="2">second</book>
	<!-- marker -->
	<?style css?>
</catalog>`

	doc, err := ParseString(input)
	if err != nil {
		t.Fatalf("fail to parse document: %s", err)
	}
	root := doc.Root()
	if root == nil {
		t.Fatal("document has no root")
	}
	el, ok := root.(*Element)
	if !ok || el.LocalName() != "catalog" {
		t.Fatalf("unexpected root: %v", root)
	}
	books := el.FindAll("book")
	if len(books) != 2 {
		t.Fatalf("want 2 book elements, got %d", len(books))
	}
	first := books[0].(*Element)
	attr, ok := first.GetAttribute("id")
	if !ok || attr.Value() != "1" {
		t.Errorf("unexpected id attribute: %v", attr)
	}
	if v := first.Value(); v != "first" {
		t.Errorf("unexpected string value: %q", v)
	}
	var (
		comments int
		pis      int
	)
	for _, n := range el.Nodes {
		switch n.Type() {
		case TypeComment:
			comments++
		case TypeInstruction:
			pis++
		}
	}
	if comments != 1 || pis != 1 {
		t.Errorf("want 1 comment and 1 pi, got %d and %d", comments, pis)
	}
}

func TestParseNamespaces(t *testing.T) {
	const input = `<root xmlns="urn:default" xmlns:a="urn:a"><a:x/><y/></root>`
	doc, err := ParseString(input)
	if err != nil {
		t.Fatalf("fail to parse document: %s", err)
	}
	root := doc.Root().(*Element)
	if root.Namespace() != "urn:default" {
		t.Errorf("root should be in the default namespace, got %q", root.Namespace())
	}
	var x, y *Element
	for _, n := range root.Nodes {
		el, ok := n.(*Element)
		if !ok {
			continue
		}
		switch el.LocalName() {
		case "x":
			x = el
		case "y":
			y = el
		}
	}
	if x == nil || y == nil {
		t.Fatal("children not found")
	}
	if x.Namespace() != "urn:a" || x.Space != "a" {
		t.Errorf("prefixed element: uri %q prefix %q", x.Namespace(), x.Space)
	}
	if x.QualifiedName() != "a:x" {
		t.Errorf("qualified name should keep the prefix, got %q", x.QualifiedName())
	}
	if y.Namespace() != "urn:default" {
		t.Errorf("default namespace should apply, got %q", y.Namespace())
	}
	ns := root.InScopeNamespaces()
	var prefixes []string
	for _, n := range ns {
		prefixes = append(prefixes, n.Prefix)
	}
	if len(prefixes) != 3 {
		t.Errorf("want default, a and xml in scope, got %v", prefixes)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		"",
		"just text",
		"<a><b></a></b>",
		"<a>",
	}
	for _, input := range tests {
		if _, err := ParseString(input); err == nil {
			t.Errorf("%q: parse should have failed", input)
		}
	}
}

func TestDocumentOrder(t *testing.T) {
	const input = `<a><b><c/></b><d attr="v"/></a>`
	doc, err := ParseString(input)
	if err != nil {
		t.Fatalf("fail to parse document: %s", err)
	}
	var (
		root = doc.Root().(*Element)
		b    = root.Nodes[0].(*Element)
		c    = b.Nodes[0].(*Element)
		d    = root.Nodes[1].(*Element)
	)
	if !Before(root, b) || !Before(b, c) || !Before(c, d) {
		t.Errorf("document order broken")
	}
	if !After(d, b) {
		t.Errorf("After disagrees with Before")
	}
	attr := d.Attrs[0]
	if !Before(d, attr) {
		t.Errorf("attributes come after their element")
	}
	if !After(attr, c) {
		t.Errorf("attribute should follow nodes of earlier subtrees")
	}
	nodes := []Node{d, c, b, root, c}
	sorted := SortInDocumentOrder(nodes)
	if len(sorted) != 4 {
		t.Fatalf("duplicates should be removed, got %d", len(sorted))
	}
	want := []Node{root, b, c, d}
	for i := range want {
		if sorted[i].Identity() != want[i].Identity() {
			t.Errorf("position %d: unexpected node", i)
		}
	}
}

func TestWriter(t *testing.T) {
	const input = `<a><b id="1">text</b><c/></a>`
	doc, err := ParseString(input)
	if err != nil {
		t.Fatalf("fail to parse document: %s", err)
	}
	var buf strings.Builder
	if err := NewWriter(&buf).Write(doc); err != nil {
		t.Fatalf("fail to serialize: %s", err)
	}
	out := buf.String()
	for _, want := range []string{`<a>`, `<b id="1">text</b>`, `<c/>`, `</a>`} {
		if !strings.Contains(out, want) {
			t.Errorf("serialized output misses %q:\n%s", want, out)
		}
	}
	doc2, err := ParseString(out)
	if err != nil {
		t.Fatalf("serialized output does not parse: %s", err)
	}
	if doc2.Root().LocalName() != "a" {
		t.Errorf("round trip changed the root")
	}
}

func TestQName(t *testing.T) {
	qn, err := ParseName("a:b")
	if err != nil || qn.Space != "a" || qn.Name != "b" {
		t.Errorf("unexpected qname: %+v (%s)", qn, err)
	}
	if _, err := ParseName(":b"); err == nil {
		t.Errorf("empty prefix should be rejected")
	}
	qn = ExpandedName("local", "p", "urn:x")
	if qn.QualifiedName() != "p:local" {
		t.Errorf("unexpected qualified name: %s", qn.QualifiedName())
	}
	if qn.ExpandedName() != "Q{urn:x}local" {
		t.Errorf("unexpected expanded name: %s", qn.ExpandedName())
	}
	if !qn.Equal(ExpandedName("local", "other", "urn:x")) {
		t.Errorf("equality must ignore the prefix")
	}
}
