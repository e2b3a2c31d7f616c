package xpath

import (
	"testing"
)

func TestScan(t *testing.T) {
	tests := []struct {
		Input string
		Types []rune
	}{
		{
			Input: "/root/item",
			Types: []rune{currLevel, Name, currLevel, Name},
		},
		{
			Input: "//item[@id]",
			Types: []rune{anyLevel, Name, begPred, attrNode, Name, endPred},
		},
		{
			Input: "1 + 2.5 - 3e1",
			Types: []rune{Digit, opAdd, Digit, opSub, Digit},
		},
		{
			Input: "$var := 'str'",
			Types: []rune{Variable, opAssign, Literal},
		},
		{
			Input: "a and b or c",
			Types: []rune{Name, opAnd, Name, opOr, Name},
		},
		{
			Input: "and",
			Types: []rune{Name},
		},
		{
			Input: "div div div",
			Types: []rune{Name, opDiv, Name},
		},
		{
			Input: "a idiv b mod c",
			Types: []rune{Name, opIdiv, Name, opMod, Name},
		},
		{
			Input: "self::node()",
			Types: []rune{Name, opAxis, Name, begGrp, endGrp},
		},
		{
			Input: "a << b >> c",
			Types: []rune{Name, opBefore, Name, opAfter, Name},
		},
		{
			Input: "x eq y ne z",
			Types: []rune{Name, opValEq, Name, opValNe, Name},
		},
		{
			Input: "'don''t'",
			Types: []rune{Literal},
		},
		{
			Input: `"say ""hi"""`,
			Types: []rune{Literal},
		},
		{
			Input: "1 to 5",
			Types: []rune{Digit, opRange, Digit},
		},
		{
			Input: "x cast as xs:integer",
			Types: []rune{Name, opCastAs, Name, Namespace, Name},
		},
		{
			Input: "x instance of xs:integer",
			Types: []rune{Name, opInstanceOf, Name, Namespace, Name},
		},
		{
			Input: "'a' || 'b'",
			Types: []rune{Literal, opConcat, Literal},
		},
		{
			Input: "a ! b ? c",
			Types: []rune{Name, opBang, Name, opQuestion, Name},
		},
		{
			Input: "fn#2",
			Types: []rune{Name, opHash, Digit},
		},
		{
			Input: "e => f()",
			Types: []rune{Name, opArrow, Name, begGrp, endGrp},
		},
		{
			Input: "Q{urn:ns}local",
			Types: []rune{BraceUri, Name},
		},
		{
			Input: "(: comment :) a",
			Types: []rune{Name},
		},
		{
			Input: "(: outer (: inner :) outer :) b",
			Types: []rune{Name},
		},
		{
			Input: ".5 + 5.",
			Types: []rune{Digit, opAdd, Digit},
		},
		{
			Input: "map { 'k': 1 }",
			Types: []rune{Name, begCurl, Literal, Namespace, Digit, endCurl},
		},
	}
	for _, c := range tests {
		var (
			scan = Scan(c.Input)
			got  []rune
		)
		for {
			tok := scan.Scan()
			if tok.Type == EOF {
				break
			}
			if tok.Type == Invalid {
				t.Errorf("%s: invalid token: %s", c.Input, tok.Literal)
				break
			}
			got = append(got, tok.Type)
			if len(got) > 32 {
				t.Errorf("%s: scanner does not terminate", c.Input)
				break
			}
		}
		if len(got) != len(c.Types) {
			t.Errorf("%s: number of tokens mismatched! want %d, got %d", c.Input, len(c.Types), len(got))
			continue
		}
		for i := range got {
			if got[i] != c.Types[i] {
				t.Errorf("%s: token %d mismatched! want %s, got %s",
					c.Input, i, Token{Type: c.Types[i]}, Token{Type: got[i]})
			}
		}
	}
}

func TestScanLiterals(t *testing.T) {
	tests := []struct {
		Input   string
		Literal string
	}{
		{Input: "'simple'", Literal: "simple"},
		{Input: "'don''t'", Literal: "don't"},
		{Input: `"say ""hi"""`, Literal: `say "hi"`},
		{Input: `""`, Literal: ""},
	}
	for _, c := range tests {
		scan := Scan(c.Input)
		tok := scan.Scan()
		if tok.Type != Literal {
			t.Errorf("%s: literal expected, got %s", c.Input, tok)
			continue
		}
		if tok.Literal != c.Literal {
			t.Errorf("%s: want %q, got %q", c.Input, c.Literal, tok.Literal)
		}
	}
}

func TestScanSpans(t *testing.T) {
	scan := Scan("abc + 10")
	tok := scan.Scan()
	if tok.Offset != 0 || tok.End != 3 {
		t.Errorf("unexpected span for name: %d-%d", tok.Offset, tok.End)
	}
	tok = scan.Scan()
	if tok.Offset != 4 || tok.End != 5 {
		t.Errorf("unexpected span for operator: %d-%d", tok.Offset, tok.End)
	}
	tok = scan.Scan()
	if tok.Offset != 6 || tok.End != 8 {
		t.Errorf("unexpected span for number: %d-%d", tok.Offset, tok.End)
	}
	if tok.Line != 1 {
		t.Errorf("line tracking broken: %d", tok.Line)
	}
}

func TestScanVersioned(t *testing.T) {
	scan := ScanVersion("a intersect b", Version10)
	var types []rune
	for {
		tok := scan.Scan()
		if tok.Type == EOF {
			break
		}
		types = append(types, tok.Type)
	}
	want := []rune{Name, Name, Name}
	if len(types) != len(want) {
		t.Fatalf("number of tokens mismatched! want %d, got %d", len(want), len(types))
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("token %d: 1.0 must not know intersect, got %s", i, Token{Type: types[i]})
		}
	}
}
