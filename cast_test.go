package xpath

import (
	"testing"
)

func TestCastRoundTrip(t *testing.T) {
	tests := []struct {
		Type    string
		Lexical string
	}{
		{Type: "string", Lexical: "hello"},
		{Type: "boolean", Lexical: "true"},
		{Type: "boolean", Lexical: "false"},
		{Type: "integer", Lexical: "42"},
		{Type: "integer", Lexical: "-7"},
		{Type: "decimal", Lexical: "3.14"},
		{Type: "double", Lexical: "1.5"},
		{Type: "double", Lexical: "INF"},
		{Type: "double", Lexical: "-INF"},
		{Type: "date", Lexical: "2024-02-29"},
		{Type: "time", Lexical: "13:20:00"},
		{Type: "dateTime", Lexical: "2024-02-29T13:20:00"},
		{Type: "dateTime", Lexical: "2024-02-29T13:20:00Z"},
		{Type: "dateTime", Lexical: "2024-02-29T13:20:00+05:30"},
		{Type: "gYear", Lexical: "2024"},
		{Type: "gYearMonth", Lexical: "2024-02"},
		{Type: "gMonthDay", Lexical: "--02-29"},
		{Type: "duration", Lexical: "P1Y2M3DT4H5M6S"},
		{Type: "yearMonthDuration", Lexical: "P1Y2M"},
		{Type: "dayTimeDuration", Lexical: "P3DT4H"},
		{Type: "hexBinary", Lexical: "0FB7"},
		{Type: "base64Binary", Lexical: "aGVsbG8="},
		{Type: "anyURI", Lexical: "http://example.com/a"},
		{Type: "QName", Lexical: "xs:integer"},
		{Type: "NCName", Lexical: "local-name"},
		{Type: "token", Lexical: "a b c"},
	}
	for _, c := range tests {
		kind, ok := atomicTypes[c.Type]
		if !ok {
			t.Errorf("%s: unknown type", c.Type)
			continue
		}
		item, err := castItem(stringItem(c.Lexical), kind)
		if err != nil {
			t.Errorf("xs:%s(%q): cast failed: %s", c.Type, c.Lexical, err)
			continue
		}
		str, err := itemString(item)
		if err != nil {
			t.Errorf("xs:%s(%q): no string value: %s", c.Type, c.Lexical, err)
			continue
		}
		if str != c.Lexical {
			t.Errorf("xs:%s(%q): round trip gives %q", c.Type, c.Lexical, str)
			continue
		}
		// casting the canonical form again must give an equal value
		again, err := castItem(stringItem(str), kind)
		if err != nil {
			t.Errorf("xs:%s(%q): second cast failed: %s", c.Type, str, err)
			continue
		}
		eq, err := compareValues(opValEq, item, again, Context{rt: newRuntime(VersionDefault)})
		if err == nil && !eq {
			t.Errorf("xs:%s(%q): values differ after round trip", c.Type, c.Lexical)
		}
	}
}

func TestCastErrors(t *testing.T) {
	tests := []struct {
		Type    string
		Lexical string
	}{
		{Type: "integer", Lexical: "abc"},
		{Type: "integer", Lexical: "1.5"},
		{Type: "decimal", Lexical: "1e3"},
		{Type: "boolean", Lexical: "yes"},
		{Type: "date", Lexical: "2024-13-01"},
		{Type: "date", Lexical: "2024-02-30"},
		{Type: "dateTime", Lexical: "2024-02-29"},
		{Type: "duration", Lexical: "P"},
		{Type: "duration", Lexical: "1Y"},
		{Type: "yearMonthDuration", Lexical: "P1D"},
		{Type: "dayTimeDuration", Lexical: "P1Y"},
		{Type: "hexBinary", Lexical: "XYZ"},
		{Type: "byte", Lexical: "300"},
		{Type: "unsignedInt", Lexical: "-1"},
		{Type: "positiveInteger", Lexical: "0"},
		{Type: "NCName", Lexical: "a:b"},
	}
	for _, c := range tests {
		kind, ok := atomicTypes[c.Type]
		if !ok {
			t.Errorf("%s: unknown type", c.Type)
			continue
		}
		if _, err := castItem(stringItem(c.Lexical), kind); err == nil {
			t.Errorf("xs:%s(%q): cast should have failed", c.Type, c.Lexical)
		}
	}
}

func TestTypeLattice(t *testing.T) {
	tests := []struct {
		Sub, Sup string
		Derives  bool
	}{
		{Sub: "integer", Sup: "decimal", Derives: true},
		{Sub: "integer", Sup: "anyAtomicType", Derives: true},
		{Sub: "decimal", Sup: "integer", Derives: false},
		{Sub: "long", Sup: "integer", Derives: true},
		{Sub: "unsignedByte", Sup: "nonNegativeInteger", Derives: true},
		{Sub: "NCName", Sup: "string", Derives: true},
		{Sub: "ID", Sup: "NCName", Derives: true},
		{Sub: "yearMonthDuration", Sup: "duration", Derives: true},
		{Sub: "dateTimeStamp", Sup: "dateTime", Derives: true},
		{Sub: "double", Sup: "decimal", Derives: false},
		{Sub: "token", Sup: "normalizedString", Derives: true},
	}
	for _, c := range tests {
		var (
			sub = atomicTypes[c.Sub]
			sup = atomicTypes[c.Sup]
		)
		if sub == nil || sup == nil {
			t.Errorf("%s/%s: unknown type", c.Sub, c.Sup)
			continue
		}
		if got := sub.Derives(sup); got != c.Derives {
			t.Errorf("%s derives %s: want %t, got %t", c.Sub, c.Sup, c.Derives, got)
		}
	}
}

func TestPromotion(t *testing.T) {
	tests := []struct {
		From, To string
		Promotes bool
	}{
		{From: "integer", To: "decimal", Promotes: true},
		{From: "integer", To: "double", Promotes: true},
		{From: "decimal", To: "float", Promotes: true},
		{From: "float", To: "double", Promotes: true},
		{From: "double", To: "float", Promotes: false},
		{From: "double", To: "decimal", Promotes: false},
		{From: "anyURI", To: "string", Promotes: true},
		{From: "string", To: "anyURI", Promotes: false},
		{From: "yearMonthDuration", To: "duration", Promotes: true},
		{From: "duration", To: "yearMonthDuration", Promotes: false},
	}
	for _, c := range tests {
		var (
			from = atomicTypes[c.From]
			to   = atomicTypes[c.To]
		)
		if from == nil || to == nil {
			t.Errorf("%s/%s: unknown type", c.From, c.To)
			continue
		}
		if got := from.Promotes(to); got != c.Promotes {
			t.Errorf("%s promotes to %s: want %t, got %t", c.From, c.To, c.Promotes, got)
		}
	}
}

func TestDateArithmetic(t *testing.T) {
	tests := []struct {
		Expr     string
		Expected string
	}{
		{
			Expr:     `xs:date("2024-02-29") + xs:yearMonthDuration("P1Y")`,
			Expected: "2025-02-28",
		},
		{
			Expr:     `xs:date("2024-01-31") + xs:yearMonthDuration("P1M")`,
			Expected: "2024-02-29",
		},
		{
			Expr:     `xs:date("2024-03-01") - xs:dayTimeDuration("P1D")`,
			Expected: "2024-02-29",
		},
		{
			Expr:     `xs:dateTime("2024-01-01T10:00:00") + xs:dayTimeDuration("PT90M")`,
			Expected: "2024-01-01T11:30:00",
		},
		{
			Expr:     `xs:dateTime("2024-01-01T10:00:00Z") - xs:dateTime("2024-01-01T06:00:00Z")`,
			Expected: "PT4H",
		},
		{
			Expr:     `xs:dayTimeDuration("PT2H") * 3`,
			Expected: "PT6H",
		},
		{
			Expr:     `xs:dayTimeDuration("PT6H") div xs:dayTimeDuration("PT2H")`,
			Expected: "3",
		},
		{
			Expr:     `xs:yearMonthDuration("P2Y") + xs:yearMonthDuration("P6M")`,
			Expected: "P2Y6M",
		},
		{
			Expr:     `xs:date("2024-03-01") < xs:date("2024-03-02")`,
			Expected: "true",
		},
		{
			Expr:     `xs:dateTime("2024-01-01T10:00:00+02:00") eq xs:dateTime("2024-01-01T08:00:00Z")`,
			Expected: "true",
		},
	}
	for _, c := range tests {
		q, err := Build(c.Expr)
		if err != nil {
			t.Errorf("%s: fail to compile expression: %s", c.Expr, err)
			continue
		}
		seq, err := q.Find(nil)
		if err != nil {
			t.Errorf("%s: error evaluating expression: %s", c.Expr, err)
			continue
		}
		if !seq.Singleton() {
			t.Errorf("%s: single value expected, got %d", c.Expr, seq.Len())
			continue
		}
		str, err := itemString(seq[0])
		if err != nil {
			t.Errorf("%s: no string value: %s", c.Expr, err)
			continue
		}
		if str != c.Expected {
			t.Errorf("%s: want %s, got %s", c.Expr, c.Expected, str)
		}
	}
}
