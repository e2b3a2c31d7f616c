package xpath

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func runExpr(t *testing.T, expr string, expected []string) {
	t.Helper()
	q, err := Build(expr)
	if err != nil {
		t.Errorf("%s: fail to compile expression: %s", expr, err)
		return
	}
	seq, err := q.Find(nil)
	if err != nil {
		t.Errorf("%s: error evaluating expression: %s", expr, err)
		return
	}
	got := values(t, seq)
	if !cmp.Equal(got, expected) {
		t.Errorf("%s: unexpected result: %s", expr, cmp.Diff(expected, got))
	}
}

func TestStringFunctions(t *testing.T) {
	tests := []struct {
		Expr     string
		Expected []string
	}{
		{Expr: `concat('a', 'b', 'c')`, Expected: []string{"abc"}},
		{Expr: `string-length('hello')`, Expected: []string{"5"}},
		{Expr: `string-length('')`, Expected: []string{"0"}},
		{Expr: `upper-case('mixed')`, Expected: []string{"MIXED"}},
		{Expr: `lower-case('MiXeD')`, Expected: []string{"mixed"}},
		{Expr: `contains('banana', 'nan')`, Expected: []string{"true"}},
		{Expr: `starts-with('banana', 'ban')`, Expected: []string{"true"}},
		{Expr: `ends-with('banana', 'ana')`, Expected: []string{"true"}},
		{Expr: `substring('motor car', 6)`, Expected: []string{" car"}},
		{Expr: `substring('metadata', 4, 3)`, Expected: []string{"ada"}},
		{Expr: `substring('12345', 1.5, 2.6)`, Expected: []string{"234"}},
		{Expr: `substring('12345', 0, 3)`, Expected: []string{"12"}},
		{Expr: `substring-before('tattoo', 'attoo')`, Expected: []string{"t"}},
		{Expr: `substring-after('tattoo', 'tat')`, Expected: []string{"too"}},
		{Expr: `normalize-space('  a   b  ')`, Expected: []string{"a b"}},
		{Expr: `translate('bar', 'abc', 'ABC')`, Expected: []string{"BAr"}},
		{Expr: `translate('--aaa--', '-', '')`, Expected: []string{"aaa"}},
		{Expr: `string-join(('a', 'b', 'c'), '-')`, Expected: []string{"a-b-c"}},
		{Expr: `string-join(('a', 'b'))`, Expected: []string{"ab"}},
		{Expr: `string-to-codepoints('ab')`, Expected: []string{"97", "98"}},
		{Expr: `codepoints-to-string((97, 98))`, Expected: []string{"ab"}},
		{Expr: `compare('a', 'b')`, Expected: []string{"-1"}},
		{Expr: `codepoint-equal('a', 'a')`, Expected: []string{"true"}},
		{Expr: `string(3.5)`, Expected: []string{"3.5"}},
		{Expr: `string(())`, Expected: []string{""}},
	}
	for _, c := range tests {
		runExpr(t, c.Expr, c.Expected)
	}
}

func TestRegexFunctions(t *testing.T) {
	tests := []struct {
		Expr     string
		Expected []string
	}{
		{Expr: `matches('abracadabra', 'bra')`, Expected: []string{"true"}},
		{Expr: `matches('abracadabra', '^a.*a$')`, Expected: []string{"true"}},
		{Expr: `matches('abracadabra', '^bra')`, Expected: []string{"false"}},
		{Expr: `matches('ABC', 'abc', 'i')`, Expected: []string{"true"}},
		{Expr: `matches('a.c', 'a.c', 'q')`, Expected: []string{"true"}},
		{Expr: `matches('abc', 'a.c', 'q')`, Expected: []string{"false"}},
		{Expr: `matches('a b', 'a b', 'x')`, Expected: []string{"false"}},
		{Expr: `matches('ab', 'a b', 'x')`, Expected: []string{"true"}},
		{Expr: `replace('banana', 'a', 'o')`, Expected: []string{"bonono"}},
		{Expr: `replace('abracadabra', 'a(.)', 'a$1$1')`, Expected: []string{"abbraccaddabbra"}},
		{Expr: `replace('darted', '^(.*?)d(.*)$', '$1c$2')`, Expected: []string{"carted"}},
		{Expr: `tokenize('a,b,,c', ',')`, Expected: []string{"a", "b", "", "c"}},
		{Expr: `tokenize(' red green blue ')`, Expected: []string{"red", "green", "blue"}},
		{Expr: `count(analyze-string('abc123', '[0-9]+')//*:match)`, Expected: []string{"1"}},
	}
	for _, c := range tests {
		runExpr(t, c.Expr, c.Expected)
	}
	bad := []struct {
		Expr string
		Code string
	}{
		{Expr: `matches('a', '(unclosed')`, Code: CodeRegex},
		{Expr: `matches('a', 'a', 'z')`, Code: CodeRegexFlags},
		{Expr: `matches('aa', '(a)\1')`, Code: CodeRegex},
		{Expr: `tokenize('abc', 'x?')`, Code: CodeRegexMatch},
		{Expr: `replace('abc', 'b', '$x')`, Code: CodeRegexGroup},
	}
	for _, c := range bad {
		q, err := Build(c.Expr)
		if err != nil {
			t.Errorf("%s: fail to compile expression: %s", c.Expr, err)
			continue
		}
		_, err = q.Find(nil)
		if err == nil {
			t.Errorf("%s: evaluation should have failed", c.Expr)
			continue
		}
		if code := ErrorCode(err); code != c.Code {
			t.Errorf("%s: want %s, got %s (%s)", c.Expr, c.Code, code, err)
		}
	}
}

func TestNumericFunctions(t *testing.T) {
	tests := []struct {
		Expr     string
		Expected []string
	}{
		{Expr: `abs(-2)`, Expected: []string{"2"}},
		{Expr: `abs(-2.5)`, Expected: []string{"2.5"}},
		{Expr: `floor(2.7)`, Expected: []string{"2"}},
		{Expr: `floor(-2.1)`, Expected: []string{"-3"}},
		{Expr: `ceiling(2.1)`, Expected: []string{"3"}},
		{Expr: `ceiling(-2.7)`, Expected: []string{"-2"}},
		{Expr: `round(2.5)`, Expected: []string{"3"}},
		{Expr: `round(-2.5)`, Expected: []string{"-2"}},
		{Expr: `round(2.4999)`, Expected: []string{"2"}},
		{Expr: `round-half-to-even(0.5)`, Expected: []string{"0"}},
		{Expr: `round-half-to-even(1.5)`, Expected: []string{"2"}},
		{Expr: `round-half-to-even(2.5)`, Expected: []string{"2"}},
		{Expr: `round-half-to-even(3.567812e+3, 2)`, Expected: []string{"3567.81"}},
		{Expr: `number('42')`, Expected: []string{"42"}},
		{Expr: `number('abc')`, Expected: []string{"NaN"}},
		{Expr: `sum((1, 2, 3))`, Expected: []string{"6"}},
		{Expr: `sum(())`, Expected: []string{"0"}},
		{Expr: `sum((), ())`, Expected: nil},
		{Expr: `avg((1, 2, 3))`, Expected: []string{"2"}},
		{Expr: `avg(())`, Expected: nil},
		{Expr: `min((3, 1, 2))`, Expected: []string{"1"}},
		{Expr: `max((3, 1, 2))`, Expected: []string{"3"}},
		{Expr: `min(())`, Expected: nil},
		{Expr: `min(('b', 'a'))`, Expected: []string{"a"}},
		{Expr: `count((1, 2, 3))`, Expected: []string{"3"}},
		{Expr: `abs(-1.0e0)`, Expected: []string{"1"}},
	}
	for _, c := range tests {
		runExpr(t, c.Expr, c.Expected)
	}
}

func TestMathFunctions(t *testing.T) {
	tests := []struct {
		Expr     string
		Expected []string
	}{
		{Expr: `math:atan(1.0e0)`, Expected: []string{"0.7853981633974483"}},
		{Expr: `math:sqrt(9.0e0)`, Expected: []string{"3"}},
		{Expr: `math:pow(2, 10)`, Expected: []string{"1024"}},
		{Expr: `math:log(1.0e0)`, Expected: []string{"0"}},
		{Expr: `math:exp10(3)`, Expected: []string{"1000"}},
		{Expr: `round(math:pi() * 10000) div 10000`, Expected: []string{"3.1416"}},
	}
	for _, c := range tests {
		runExpr(t, c.Expr, c.Expected)
	}
}

func TestSequenceFunctions(t *testing.T) {
	tests := []struct {
		Expr     string
		Expected []string
	}{
		{Expr: `empty(())`, Expected: []string{"true"}},
		{Expr: `exists((1))`, Expected: []string{"true"}},
		{Expr: `reverse((1, 2, 3))`, Expected: []string{"3", "2", "1"}},
		{Expr: `reverse(reverse((1, 2, 3)))`, Expected: []string{"1", "2", "3"}},
		{Expr: `distinct-values((1, 2, 1, 3))`, Expected: []string{"1", "2", "3"}},
		{Expr: `distinct-values(('a', 'a'))`, Expected: []string{"a"}},
		{Expr: `index-of((10, 20, 30, 20), 20)`, Expected: []string{"2", "4"}},
		{Expr: `subsequence((1, 2, 3, 4, 5), 2, 3)`, Expected: []string{"2", "3", "4"}},
		{Expr: `subsequence((1, 2, 3), 2)`, Expected: []string{"2", "3"}},
		{Expr: `insert-before((1, 2), 2, (9))`, Expected: []string{"1", "9", "2"}},
		{Expr: `remove((1, 2, 3), 2)`, Expected: []string{"1", "3"}},
		{Expr: `exactly-one((5))`, Expected: []string{"5"}},
		{Expr: `zero-or-one(())`, Expected: nil},
		{Expr: `deep-equal((1, 2), (1, 2))`, Expected: []string{"true"}},
		{Expr: `deep-equal((1, 2), (2, 1))`, Expected: []string{"false"}},
		{Expr: `data((1, 'a'))`, Expected: []string{"1", "a"}},
	}
	for _, c := range tests {
		runExpr(t, c.Expr, c.Expected)
	}
}

func TestDateTimeFunctions(t *testing.T) {
	tests := []struct {
		Expr     string
		Expected []string
	}{
		{Expr: `year-from-date(xs:date('2024-02-29'))`, Expected: []string{"2024"}},
		{Expr: `month-from-date(xs:date('2024-02-29'))`, Expected: []string{"2"}},
		{Expr: `day-from-date(xs:date('2024-02-29'))`, Expected: []string{"29"}},
		{Expr: `hours-from-dateTime(xs:dateTime('2024-02-29T13:20:10'))`, Expected: []string{"13"}},
		{Expr: `minutes-from-dateTime(xs:dateTime('2024-02-29T13:20:10'))`, Expected: []string{"20"}},
		{Expr: `seconds-from-dateTime(xs:dateTime('2024-02-29T13:20:10.5'))`, Expected: []string{"10.5"}},
		{Expr: `years-from-duration(xs:yearMonthDuration('P2Y6M'))`, Expected: []string{"2"}},
		{Expr: `months-from-duration(xs:yearMonthDuration('P2Y6M'))`, Expected: []string{"6"}},
		{Expr: `days-from-duration(xs:dayTimeDuration('P3DT26H'))`, Expected: []string{"4"}},
		{Expr: `hours-from-duration(xs:dayTimeDuration('PT26H'))`, Expected: []string{"2"}},
		{Expr: `timezone-from-dateTime(xs:dateTime('2024-01-01T00:00:00+05:00'))`, Expected: []string{"PT5H"}},
		{Expr: `empty(timezone-from-dateTime(xs:dateTime('2024-01-01T00:00:00')))`, Expected: []string{"true"}},
		{Expr: `current-dateTime() eq current-dateTime()`, Expected: []string{"true"}},
		{Expr: `exists(current-date())`, Expected: []string{"true"}},
		{Expr: `string(adjust-date-to-timezone(xs:date('2024-01-01'), ()))`, Expected: []string{"2024-01-01"}},
	}
	for _, c := range tests {
		runExpr(t, c.Expr, c.Expected)
	}
}

func TestFormatInteger(t *testing.T) {
	tests := []struct {
		Expr     string
		Expected []string
	}{
		{Expr: `format-integer(123, '0')`, Expected: []string{"123"}},
		{Expr: `format-integer(7, '000')`, Expected: []string{"007"}},
		{Expr: `format-integer(1234567, '#,##0')`, Expected: []string{"1,234,567"}},
		{Expr: `format-integer(3, 'a')`, Expected: []string{"c"}},
		{Expr: `format-integer(3, 'A')`, Expected: []string{"C"}},
		{Expr: `format-integer(27, 'a')`, Expected: []string{"aa"}},
		{Expr: `format-integer(4, 'i')`, Expected: []string{"iv"}},
		{Expr: `format-integer(1999, 'I')`, Expected: []string{"MCMXCIX"}},
		{Expr: `format-integer(42, 'w')`, Expected: []string{"forty-two"}},
		{Expr: `format-integer(42, 'Ww')`, Expected: []string{"Forty-two"}},
	}
	for _, c := range tests {
		runExpr(t, c.Expr, c.Expected)
	}
}
