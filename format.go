package xpath

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// formatInteger renders value according to a fn:format-integer picture
// string: decimal digit patterns with optional grouping, plus the "a",
// "A", "i", "I" and "w" spelling forms.
func formatInteger(value int64, picture string) (string, error) {
	switch picture {
	case "a", "A":
		return formatAlpha(value, picture == "A")
	case "i", "I":
		return formatRoman(value, picture == "I")
	case "w", "W", "Ww":
		return formatWords(value, picture)
	case "":
		return "", fmt.Errorf("empty picture string")
	}
	var (
		neg = value < 0
	)
	if neg {
		value = -value
	}
	var (
		str   = strconv.FormatInt(value, 10)
		chars = []byte(str)
		out   bytes.Buffer
		ptr   int
		grp   byte
		prev  byte
	)
	slices.Reverse(chars)
	for i := len(picture) - 1; i >= 0; i-- {
		switch picture[i] {
		case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '#':
			if ptr >= len(chars) {
				if picture[i] != '#' {
					out.WriteByte('0')
				}
			} else {
				out.WriteByte(chars[ptr])
			}
			ptr++
		case ',', '.':
			if grp != 0 && picture[i] != grp {
				return "", fmt.Errorf("inconsistent use of grouping separator")
			}
			grp = picture[i]
			if prev == picture[i] {
				return "", fmt.Errorf("two consecutive grouping separators")
			}
			out.WriteByte(picture[i])
		default:
			return "", fmt.Errorf("unexpected character in picture string")
		}
		prev = picture[i]
	}
	if ptr < len(chars) {
		for _, c := range chars[ptr:] {
			if grp != 0 && ptr%3 == 0 {
				out.WriteByte(grp)
			}
			out.WriteByte(c)
			ptr++
		}
	}
	if neg {
		out.WriteByte('-')
	}
	chars = out.Bytes()
	slices.Reverse(chars)
	return string(chars), nil
}

func formatAlpha(value int64, upper bool) (string, error) {
	if value < 1 {
		return strconv.FormatInt(value, 10), nil
	}
	var out []byte
	for value > 0 {
		value--
		c := byte('a' + value%26)
		if upper {
			c = byte('A' + value%26)
		}
		out = append([]byte{c}, out...)
		value /= 26
	}
	return string(out), nil
}

var romanDigits = []struct {
	value int64
	text  string
}{
	{1000, "m"},
	{900, "cm"},
	{500, "d"},
	{400, "cd"},
	{100, "c"},
	{90, "xc"},
	{50, "l"},
	{40, "xl"},
	{10, "x"},
	{9, "ix"},
	{5, "v"},
	{4, "iv"},
	{1, "i"},
}

func formatRoman(value int64, upper bool) (string, error) {
	if value < 1 || value > 3999 {
		return strconv.FormatInt(value, 10), nil
	}
	var out strings.Builder
	for _, d := range romanDigits {
		for value >= d.value {
			out.WriteString(d.text)
			value -= d.value
		}
	}
	str := out.String()
	if upper {
		str = strings.ToUpper(str)
	}
	return str, nil
}

var (
	onesWords = []string{"zero", "one", "two", "three", "four", "five",
		"six", "seven", "eight", "nine", "ten", "eleven", "twelve",
		"thirteen", "fourteen", "fifteen", "sixteen", "seventeen",
		"eighteen", "nineteen"}
	tensWords = []string{"", "", "twenty", "thirty", "forty", "fifty",
		"sixty", "seventy", "eighty", "ninety"}
)

func formatWords(value int64, picture string) (string, error) {
	str := spellNumber(value)
	switch picture {
	case "W":
		str = strings.ToUpper(str)
	case "Ww":
		var parts []string
		for _, w := range strings.Split(str, " ") {
			if w != "" {
				w = strings.ToUpper(w[:1]) + w[1:]
			}
			parts = append(parts, w)
		}
		str = strings.Join(parts, " ")
	}
	return str, nil
}

func spellNumber(value int64) string {
	switch {
	case value < 0:
		return "minus " + spellNumber(-value)
	case value < 20:
		return onesWords[value]
	case value < 100:
		str := tensWords[value/10]
		if value%10 != 0 {
			str += "-" + onesWords[value%10]
		}
		return str
	case value < 1000:
		str := onesWords[value/100] + " hundred"
		if value%100 != 0 {
			str += " " + spellNumber(value%100)
		}
		return str
	case value < 1000000:
		str := spellNumber(value/1000) + " thousand"
		if value%1000 != 0 {
			str += " " + spellNumber(value%1000)
		}
		return str
	default:
		str := spellNumber(value/1000000) + " million"
		if value%1000000 != 0 {
			str += " " + spellNumber(value%1000000)
		}
		return str
	}
}
