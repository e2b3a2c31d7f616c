package xpath

import (
	"strconv"
	"strings"

	"github.com/midbel/xpath/xml"
)

func registerRegex(lib *FuncLib) {
	lib.add(fnNS, "matches", 2, 3, []SequenceType{stStringOpt, stString, stString}, stBool, fnMatches)
	lib.add(fnNS, "replace", 3, 4, []SequenceType{stStringOpt, stString, stString, stString}, stString, fnReplace)
	lib.add(fnNS, "tokenize", 1, 3, []SequenceType{stStringOpt, stString, stString}, stStrings, fnTokenize)
}

func fnMatches(_ Context, args []Sequence) (Sequence, error) {
	var flags string
	if len(args) > 2 {
		flags = argString(args, 2)
	}
	re, err := translateRegex(argString(args, 1), flags)
	if err != nil {
		return nil, err
	}
	return Singleton(re.MatchString(argString(args, 0))), nil
}

func fnReplace(_ Context, args []Sequence) (Sequence, error) {
	var flags string
	if len(args) > 3 {
		flags = argString(args, 3)
	}
	re, err := translateRegex(argString(args, 1), flags)
	if err != nil {
		return nil, err
	}
	if re.MatchString("") {
		return nil, Errorf(CodeRegexMatch, "pattern matches the empty string")
	}
	repl, err := expandReplacement(argString(args, 2))
	if err != nil {
		return nil, err
	}
	return Singleton(re.ReplaceAllString(argString(args, 0), repl)), nil
}

func fnTokenize(_ Context, args []Sequence) (Sequence, error) {
	input := argString(args, 0)
	if len(args) == 1 {
		// the single argument form splits on whitespace
		var out Sequence
		for _, f := range strings.Fields(input) {
			out.Append(stringItem(f))
		}
		return out, nil
	}
	var flags string
	if len(args) > 2 {
		flags = argString(args, 2)
	}
	re, err := translateRegex(argString(args, 1), flags)
	if err != nil {
		return nil, err
	}
	if re.MatchString("") {
		return nil, Errorf(CodeRegexMatch, "pattern matches the empty string")
	}
	if input == "" {
		return nil, nil
	}
	var out Sequence
	for _, part := range re.Split(input, -1) {
		out.Append(stringItem(part))
	}
	return out, nil
}

// fnAnalyzeString builds the fn:analyze-string-result element
// describing matching and non matching substrings.
func fnAnalyzeString(_ Context, args []Sequence) (Sequence, error) {
	var flags string
	if len(args) > 2 {
		flags = argString(args, 2)
	}
	re, err := translateRegex(argString(args, 1), flags)
	if err != nil {
		return nil, err
	}
	if re.MatchString("") {
		return nil, Errorf(CodeRegexMatch, "pattern matches the empty string")
	}
	var (
		input = argString(args, 0)
		root  = xml.NewElement(xml.ExpandedName("analyze-string-result", "fn", fnNS))
		last  int
	)
	for _, loc := range re.FindAllSubmatchIndex([]byte(input), -1) {
		if loc[0] > last {
			non := xml.NewElement(xml.ExpandedName("non-match", "fn", fnNS))
			non.Append(xml.NewText(input[last:loc[0]]))
			root.Append(non)
		}
		match := xml.NewElement(xml.ExpandedName("match", "fn", fnNS))
		if len(loc) > 2 {
			appendGroups(match, input, loc)
		} else {
			match.Append(xml.NewText(input[loc[0]:loc[1]]))
		}
		root.Append(match)
		last = loc[1]
	}
	if last < len(input) {
		non := xml.NewElement(xml.ExpandedName("non-match", "fn", fnNS))
		non.Append(xml.NewText(input[last:]))
		root.Append(non)
	}
	return SingletonNode(root), nil
}

func appendGroups(match *xml.Element, input string, loc []int) {
	at := loc[0]
	for g := 1; g*2 < len(loc); g++ {
		var (
			beg = loc[g*2]
			end = loc[g*2+1]
		)
		if beg < 0 {
			continue
		}
		if beg > at {
			match.Append(xml.NewText(input[at:beg]))
		}
		group := xml.NewElement(xml.ExpandedName("group", "fn", fnNS))
		group.SetAttribute(xml.NewAttribute(xml.LocalName("nr"), strconv.Itoa(g)))
		group.Append(xml.NewText(input[beg:end]))
		match.Append(group)
		at = end
	}
	if at < loc[1] {
		match.Append(xml.NewText(input[at:loc[1]]))
	}
}
