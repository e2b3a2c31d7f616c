package xpath

import (
	"math"
	"net/url"
	"strings"

	"github.com/midbel/xpath/xml"
	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

func registerCore10(lib *FuncLib) {
	lib.add(fnNS, "last", 0, 0, nil, stInteger, fnLast)
	lib.add(fnNS, "position", 0, 0, nil, stInteger, fnPosition)
	lib.add(fnNS, "count", 1, 1, []SequenceType{stAny}, stInteger, fnCount)

	str := lib.add(fnNS, "string", 0, 1, []SequenceType{stItemOpt}, stString, fnString)
	str.CtxItem = true
	lib.add(fnNS, "concat", 2, -1, []SequenceType{stAtomOpt}, stString, fnConcat)
	lib.add(fnNS, "starts-with", 2, 3, []SequenceType{stStringOpt, stStringOpt, stString}, stBool, fnStartsWith)
	lib.add(fnNS, "contains", 2, 3, []SequenceType{stStringOpt, stStringOpt, stString}, stBool, fnContains)
	lib.add(fnNS, "substring-before", 2, 3, []SequenceType{stStringOpt, stStringOpt, stString}, stString, fnSubstringBefore)
	lib.add(fnNS, "substring-after", 2, 3, []SequenceType{stStringOpt, stStringOpt, stString}, stString, fnSubstringAfter)
	lib.add(fnNS, "substring", 2, 3, []SequenceType{stStringOpt, stDouble, stDouble}, stString, fnSubstring)
	length := lib.add(fnNS, "string-length", 0, 1, []SequenceType{stStringOpt}, stInteger, fnStringLength)
	length.CtxItem = true
	norm := lib.add(fnNS, "normalize-space", 0, 1, []SequenceType{stStringOpt}, stString, fnNormalizeSpace)
	norm.CtxItem = true
	lib.add(fnNS, "translate", 3, 3, []SequenceType{stStringOpt, stString, stString}, stString, fnTranslate)

	lib.add(fnNS, "boolean", 1, 1, []SequenceType{stAny}, stBool, fnBoolean)
	lib.add(fnNS, "not", 1, 1, []SequenceType{stAny}, stBool, fnNot)
	lib.add(fnNS, "true", 0, 0, nil, stBool, fnTrue)
	lib.add(fnNS, "false", 0, 0, nil, stBool, fnFalse)
	lib.add(fnNS, "lang", 1, 2, []SequenceType{stStringOpt, stItem}, stBool, fnLang)

	num := lib.add(fnNS, "number", 0, 1, []SequenceType{stAtomOpt}, stDouble, fnNumber)
	num.CtxItem = true
	lib.add(fnNS, "sum", 1, 2, []SequenceType{stAtoms, stAtomOpt}, stAtomOpt, fnSum)
	lib.add(fnNS, "floor", 1, 1, []SequenceType{stNumericOpt}, stNumericOpt, fnFloor)
	lib.add(fnNS, "ceiling", 1, 1, []SequenceType{stNumericOpt}, stNumericOpt, fnCeiling)
	lib.add(fnNS, "round", 1, 2, []SequenceType{stNumericOpt, stInteger}, stNumericOpt, fnRound)

	name := lib.add(fnNS, "name", 0, 1, []SequenceType{stNodeOpt}, stString, fnName)
	name.CtxItem = true
	local := lib.add(fnNS, "local-name", 0, 1, []SequenceType{stNodeOpt}, stString, fnLocalName)
	local.CtxItem = true
	uri := lib.add(fnNS, "namespace-uri", 0, 1, []SequenceType{stNodeOpt}, stString, fnNamespaceUri)
	uri.CtxItem = true
}

func registerCore20(lib *FuncLib) {
	lib.add(fnNS, "abs", 1, 1, []SequenceType{stNumericOpt}, stNumericOpt, fnAbs)
	lib.add(fnNS, "round-half-to-even", 1, 2, []SequenceType{stNumericOpt, stInteger}, stNumericOpt, fnRoundHalfToEven)
	lib.add(fnNS, "avg", 1, 1, []SequenceType{stAtoms}, stAtomOpt, fnAvg)
	lib.add(fnNS, "min", 1, 2, []SequenceType{stAtoms, stString}, stAtomOpt, fnMin)
	lib.add(fnNS, "max", 1, 2, []SequenceType{stAtoms, stString}, stAtomOpt, fnMax)

	lib.add(fnNS, "empty", 1, 1, []SequenceType{stAny}, stBool, fnEmpty)
	lib.add(fnNS, "exists", 1, 1, []SequenceType{stAny}, stBool, fnExists)
	lib.add(fnNS, "reverse", 1, 1, []SequenceType{stAny}, stAny, fnReverse)
	lib.add(fnNS, "distinct-values", 1, 2, []SequenceType{stAtoms, stString}, stAtoms, fnDistinctValues)
	lib.add(fnNS, "index-of", 2, 3, []SequenceType{stAtoms, stAtom, stString}, stIntegers, fnIndexOf)
	lib.add(fnNS, "subsequence", 2, 3, []SequenceType{stAny, stDouble, stDouble}, stAny, fnSubsequence)
	lib.add(fnNS, "insert-before", 3, 3, []SequenceType{stAny, stInteger, stAny}, stAny, fnInsertBefore)
	lib.add(fnNS, "remove", 2, 2, []SequenceType{stAny, stInteger}, stAny, fnRemove)
	lib.add(fnNS, "string-join", 1, 2, []SequenceType{stAtoms, stString}, stString, fnStringJoin)
	lib.add(fnNS, "exactly-one", 1, 1, []SequenceType{stAny}, stItem, fnExactlyOne)
	lib.add(fnNS, "zero-or-one", 1, 1, []SequenceType{stAny}, stItemOpt, fnZeroOrOne)
	lib.add(fnNS, "one-or-more", 1, 1, []SequenceType{stAny}, stAny, fnOneOrMore)
	lib.add(fnNS, "deep-equal", 2, 3, []SequenceType{stAny, stAny, stString}, stBool, fnDeepEqual)
	lib.add(fnNS, "data", 1, 1, []SequenceType{stAny}, stAtoms, fnData)

	lib.add(fnNS, "upper-case", 1, 1, []SequenceType{stStringOpt}, stString, fnUpperCase)
	lib.add(fnNS, "lower-case", 1, 1, []SequenceType{stStringOpt}, stString, fnLowerCase)
	lib.add(fnNS, "ends-with", 2, 3, []SequenceType{stStringOpt, stStringOpt, stString}, stBool, fnEndsWith)
	lib.add(fnNS, "compare", 2, 3, []SequenceType{stStringOpt, stStringOpt, stString}, stIntegerOpt, fnCompare)
	lib.add(fnNS, "codepoint-equal", 2, 2, []SequenceType{stStringOpt, stStringOpt}, atomicArg(typeBoolean, OccOptional), fnCodepointEqual)
	lib.add(fnNS, "string-to-codepoints", 1, 1, []SequenceType{stStringOpt}, stIntegers, fnStringToCodepoints)
	lib.add(fnNS, "codepoints-to-string", 1, 1, []SequenceType{stIntegers}, stString, fnCodepointsToString)
	lib.add(fnNS, "normalize-unicode", 1, 2, []SequenceType{stStringOpt, stString}, stString, fnNormalizeUnicode)

	root := lib.add(fnNS, "root", 0, 1, []SequenceType{stNodeOpt}, stNodeOpt, fnRoot)
	root.CtxItem = true
	base := lib.add(fnNS, "base-uri", 0, 1, []SequenceType{stNodeOpt}, stStringOpt, fnBaseUri)
	base.CtxItem = true
	lib.add(fnNS, "document-uri", 1, 1, []SequenceType{stNodeOpt}, stStringOpt, fnDocumentUri)
	lib.add(fnNS, "doc", 1, 1, []SequenceType{stStringOpt}, stNodeOpt, fnDoc)
	lib.add(fnNS, "doc-available", 1, 1, []SequenceType{stStringOpt}, stBool, fnDocAvailable)
	nodeName := lib.add(fnNS, "node-name", 0, 1, []SequenceType{stNodeOpt}, stAtomOpt, fnNodeName)
	nodeName.CtxItem = true

	lib.add(fnNS, "error", 0, 3, []SequenceType{stAtomOpt, stString, stAny}, stAny, fnError)
	lib.add(fnNS, "trace", 1, 2, []SequenceType{stAny, stString}, stAny, fnTrace)
	lib.add(fnNS, "resolve-uri", 1, 2, []SequenceType{stStringOpt, stString}, stStringOpt, fnResolveUri)
	lib.add(fnNS, "default-collation", 0, 0, nil, stString, fnDefaultCollation)
	lib.add(fnNS, "static-base-uri", 0, 0, nil, stStringOpt, fnStaticBaseUri)
}

func fnLast(ctx Context, _ []Sequence) (Sequence, error) {
	return Singleton(int64(ctx.Size)), nil
}

func fnPosition(ctx Context, _ []Sequence) (Sequence, error) {
	return Singleton(int64(ctx.Index)), nil
}

func fnCount(_ Context, args []Sequence) (Sequence, error) {
	return Singleton(int64(args[0].Len())), nil
}

func fnString(ctx Context, args []Sequence) (Sequence, error) {
	if args[0].Empty() {
		return Singleton(""), nil
	}
	str, err := itemString(args[0][0])
	if err != nil {
		return nil, err
	}
	return Singleton(str), nil
}

func fnConcat(_ Context, args []Sequence) (Sequence, error) {
	var str strings.Builder
	for i := range args {
		str.WriteString(argString(args, i))
	}
	return Singleton(str.String()), nil
}

func fnStartsWith(_ Context, args []Sequence) (Sequence, error) {
	return Singleton(strings.HasPrefix(argString(args, 0), argString(args, 1))), nil
}

func fnContains(_ Context, args []Sequence) (Sequence, error) {
	return Singleton(strings.Contains(argString(args, 0), argString(args, 1))), nil
}

func fnEndsWith(_ Context, args []Sequence) (Sequence, error) {
	return Singleton(strings.HasSuffix(argString(args, 0), argString(args, 1))), nil
}

func fnSubstringBefore(_ Context, args []Sequence) (Sequence, error) {
	before, _, ok := strings.Cut(argString(args, 0), argString(args, 1))
	if !ok {
		return Singleton(""), nil
	}
	return Singleton(before), nil
}

func fnSubstringAfter(_ Context, args []Sequence) (Sequence, error) {
	_, after, ok := strings.Cut(argString(args, 0), argString(args, 1))
	if !ok {
		return Singleton(""), nil
	}
	return Singleton(after), nil
}

// fnSubstring is 1-indexed over codepoints; fractional positions round
// half to even and the range clips to the string.
func fnSubstring(_ Context, args []Sequence) (Sequence, error) {
	runes := []rune(argString(args, 0))
	if args[1].Empty() {
		return Singleton(""), nil
	}
	start, err := roundHalfEven(args[1][0])
	if err != nil {
		return nil, err
	}
	end := math.Inf(1)
	if len(args) > 2 {
		if args[2].Empty() {
			return Singleton(""), nil
		}
		count, err := roundHalfEven(args[2][0])
		if err != nil {
			return nil, err
		}
		end = start + count
	}
	var out []rune
	for i := range runes {
		pos := float64(i + 1)
		if pos >= start && pos < end {
			out = append(out, runes[i])
		}
	}
	return Singleton(string(out)), nil
}

func roundHalfEven(item Item) (float64, error) {
	v, err := asFloat(item)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v, nil
	}
	return decimal.NewFromFloat(v).RoundBank(0).InexactFloat64(), nil
}

func fnStringLength(_ Context, args []Sequence) (Sequence, error) {
	count := len([]rune(argString(args, 0)))
	return Singleton(int64(count)), nil
}

func fnNormalizeSpace(_ Context, args []Sequence) (Sequence, error) {
	fields := strings.Fields(argString(args, 0))
	return Singleton(strings.Join(fields, " ")), nil
}

func fnTranslate(_ Context, args []Sequence) (Sequence, error) {
	var (
		src  = []rune(argString(args, 1))
		dst  = []rune(argString(args, 2))
		out  strings.Builder
	)
	for _, r := range argString(args, 0) {
		at := -1
		for i := range src {
			if src[i] == r {
				at = i
				break
			}
		}
		switch {
		case at < 0:
			out.WriteRune(r)
		case at < len(dst):
			out.WriteRune(dst[at])
		}
	}
	return Singleton(out.String()), nil
}

func fnBoolean(_ Context, args []Sequence) (Sequence, error) {
	ok, err := EffectiveBooleanValue(args[0])
	if err != nil {
		return nil, err
	}
	return Singleton(ok), nil
}

func fnNot(_ Context, args []Sequence) (Sequence, error) {
	ok, err := EffectiveBooleanValue(args[0])
	if err != nil {
		return nil, err
	}
	return Singleton(!ok), nil
}

func fnTrue(_ Context, _ []Sequence) (Sequence, error) {
	return Singleton(true), nil
}

func fnFalse(_ Context, _ []Sequence) (Sequence, error) {
	return Singleton(false), nil
}

func fnLang(ctx Context, args []Sequence) (Sequence, error) {
	var node xml.Node
	if len(args) > 1 && !args[1].Empty() {
		node = args[1][0].Node()
	} else {
		n, err := ctx.Node()
		if err != nil {
			return nil, err
		}
		node = n
	}
	want := strings.ToLower(argString(args, 0))
	for n := node; n != nil; n = n.Parent() {
		el, ok := n.(*xml.Element)
		if !ok {
			continue
		}
		attr, ok := el.GetAttribute("xml:lang")
		if !ok {
			continue
		}
		lang := strings.ToLower(attr.Datum)
		return Singleton(lang == want || strings.HasPrefix(lang, want+"-")), nil
	}
	return Singleton(false), nil
}

func fnNumber(_ Context, args []Sequence) (Sequence, error) {
	if args[0].Empty() {
		return Singleton(nan()), nil
	}
	item, err := castItem(args[0][0], typeDouble)
	if err != nil {
		return Singleton(nan()), nil
	}
	return Sequence{item}, nil
}

func fnSum(ctx Context, args []Sequence) (Sequence, error) {
	if args[0].Empty() {
		if len(args) > 1 {
			return args[1], nil
		}
		return Singleton(int64(0)), nil
	}
	acc := args[0][0]
	if itemType(acc) == typeUntypedAtomic {
		var err error
		if acc, err = castItem(acc, typeDouble); err != nil {
			return nil, err
		}
	}
	for _, item := range args[0][1:] {
		res, err := arithmetic(opAdd, acc, item, ctx)
		if err != nil {
			return nil, err
		}
		acc = res
	}
	return Sequence{acc}, nil
}

func fnAvg(ctx Context, args []Sequence) (Sequence, error) {
	if args[0].Empty() {
		return nil, nil
	}
	sum, err := fnSum(ctx, args[:1])
	if err != nil {
		return nil, err
	}
	res, err := arithmetic(opDiv, sum[0], integerItem(int64(args[0].Len())), ctx)
	if err != nil {
		return nil, err
	}
	return Sequence{res}, nil
}

func extreme(args []Sequence, ctx Context, largest bool) (Sequence, error) {
	if args[0].Empty() {
		return nil, nil
	}
	var best Item
	for _, item := range args[0] {
		kind := itemType(item)
		if kind == typeUntypedAtomic {
			var err error
			if item, err = castItem(item, typeDouble); err != nil {
				return nil, err
			}
			kind = typeDouble
		}
		if isNumeric(kind) {
			if v, err := asFloat(item); err == nil && math.IsNaN(v) {
				return Sequence{doubleItem(nan())}, nil
			}
		}
		if best == nil {
			best = item
			continue
		}
		op := opValLt
		if largest {
			op = opValGt
		}
		ok, err := compareValues(op, item, best, ctx)
		if err != nil {
			return nil, err
		}
		if ok {
			best = item
		}
	}
	return Sequence{best}, nil
}

func fnMin(ctx Context, args []Sequence) (Sequence, error) {
	return extreme(args, ctx, false)
}

func fnMax(ctx Context, args []Sequence) (Sequence, error) {
	return extreme(args, ctx, true)
}

// numericApply runs a numeric function preserving the narrowest type
// of its input.
func numericApply(args []Sequence, dec func(decimal.Decimal) decimal.Decimal, flt func(float64) float64) (Sequence, error) {
	if args[0].Empty() {
		return nil, nil
	}
	var (
		item = args[0][0]
		kind = itemType(item)
	)
	switch numericRank(kind) {
	case rankInteger:
		v, err := asDecimal(item)
		if err != nil {
			return nil, err
		}
		return Sequence{integerItem(dec(v).IntPart())}, nil
	case rankDecimal:
		v, err := asDecimal(item)
		if err != nil {
			return nil, err
		}
		return Sequence{decimalItem(dec(v))}, nil
	case rankFloat:
		v, err := asFloat(item)
		if err != nil {
			return nil, err
		}
		return Sequence{createTyped(float32(flt(v)), typeFloat)}, nil
	case rankDouble:
		v, err := asFloat(item)
		if err != nil {
			return nil, err
		}
		return Sequence{doubleItem(flt(v))}, nil
	default:
		return nil, Errorf(CodeOperandType, "%s: numeric value expected", kind)
	}
}

func fnFloor(_ Context, args []Sequence) (Sequence, error) {
	return numericApply(args,
		func(d decimal.Decimal) decimal.Decimal { return d.Floor() },
		math.Floor,
	)
}

func fnCeiling(_ Context, args []Sequence) (Sequence, error) {
	return numericApply(args,
		func(d decimal.Decimal) decimal.Decimal { return d.Ceil() },
		math.Ceil,
	)
}

func fnAbs(_ Context, args []Sequence) (Sequence, error) {
	return numericApply(args,
		func(d decimal.Decimal) decimal.Decimal { return d.Abs() },
		math.Abs,
	)
}

func fnRound(_ Context, args []Sequence) (Sequence, error) {
	var prec int32
	if v, ok := argInt(args, 1); ok {
		prec = int32(v)
	}
	return numericApply(args,
		func(d decimal.Decimal) decimal.Decimal { return roundHalfUp(d, prec) },
		func(v float64) float64 {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return v
			}
			shift := math.Pow(10, float64(prec))
			// round half toward positive infinity
			return math.Floor(v*shift+0.5) / shift
		},
	)
}

// roundHalfUp rounds half toward positive infinity, the fn:round rule.
func roundHalfUp(d decimal.Decimal, prec int32) decimal.Decimal {
	var (
		shift = decimal.New(1, prec)
		half  = decimal.RequireFromString("0.5")
	)
	return d.Mul(shift).Add(half).Floor().Div(shift)
}

func fnRoundHalfToEven(_ Context, args []Sequence) (Sequence, error) {
	var prec int32
	if v, ok := argInt(args, 1); ok {
		prec = int32(v)
	}
	return numericApply(args,
		func(d decimal.Decimal) decimal.Decimal { return d.RoundBank(prec) },
		func(v float64) float64 {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return v
			}
			shift := math.Pow(10, float64(prec))
			return roundEven(v*shift) / shift
		},
	)
}

func roundEven(v float64) float64 {
	r := math.Round(v)
	if math.Abs(v-math.Trunc(v)) == 0.5 && math.Mod(r, 2) != 0 {
		r -= math.Copysign(1, v)
	}
	return r
}

func fnName(_ Context, args []Sequence) (Sequence, error) {
	if args[0].Empty() {
		return Singleton(""), nil
	}
	node := args[0][0].Node()
	return Singleton(node.QualifiedName()), nil
}

func fnLocalName(_ Context, args []Sequence) (Sequence, error) {
	if args[0].Empty() {
		return Singleton(""), nil
	}
	node := args[0][0].Node()
	return Singleton(node.LocalName()), nil
}

func fnNamespaceUri(_ Context, args []Sequence) (Sequence, error) {
	if args[0].Empty() {
		return Singleton(""), nil
	}
	node := args[0][0].Node()
	return Singleton(node.Namespace()), nil
}

func fnNodeName(_ Context, args []Sequence) (Sequence, error) {
	if args[0].Empty() {
		return nil, nil
	}
	node := args[0][0].Node()
	if node.QualifiedName() == "" {
		return nil, nil
	}
	qn, err := xml.ParseName(node.QualifiedName())
	if err != nil {
		return nil, nil
	}
	qn.Uri = node.Namespace()
	return Sequence{createTyped(qn, typeQName)}, nil
}

func fnEmpty(_ Context, args []Sequence) (Sequence, error) {
	return Singleton(args[0].Empty()), nil
}

func fnExists(_ Context, args []Sequence) (Sequence, error) {
	return Singleton(!args[0].Empty()), nil
}

func fnReverse(_ Context, args []Sequence) (Sequence, error) {
	return args[0].Reverse(), nil
}

func fnDistinctValues(ctx Context, args []Sequence) (Sequence, error) {
	var out Sequence
	for _, item := range args[0] {
		dup := false
		for _, seen := range out {
			if deepEqualItem(item, seen, ctx) {
				dup = true
				break
			}
		}
		if !dup {
			out.Append(item)
		}
	}
	return out, nil
}

func fnIndexOf(ctx Context, args []Sequence) (Sequence, error) {
	if args[1].Empty() {
		return nil, nil
	}
	var out Sequence
	for i, item := range args[0] {
		ok, err := compareValues(opValEq, item, args[1][0], ctx)
		if err != nil {
			continue
		}
		if ok {
			out.Append(integerItem(int64(i + 1)))
		}
	}
	return out, nil
}

func fnSubsequence(_ Context, args []Sequence) (Sequence, error) {
	if args[1].Empty() {
		return nil, nil
	}
	start, err := roundHalfEven(args[1][0])
	if err != nil {
		return nil, err
	}
	end := math.Inf(1)
	if len(args) > 2 && !args[2].Empty() {
		count, err := roundHalfEven(args[2][0])
		if err != nil {
			return nil, err
		}
		end = start + count
	}
	var out Sequence
	for i := range args[0] {
		pos := float64(i + 1)
		if pos >= start && pos < end {
			out.Append(args[0][i])
		}
	}
	return out, nil
}

func fnInsertBefore(_ Context, args []Sequence) (Sequence, error) {
	at, _ := argInt(args, 1)
	if at < 1 {
		at = 1
	}
	if at > int64(args[0].Len()) {
		at = int64(args[0].Len()) + 1
	}
	var out Sequence
	out.Concat(args[0][:at-1])
	out.Concat(args[2])
	out.Concat(args[0][at-1:])
	return out, nil
}

func fnRemove(_ Context, args []Sequence) (Sequence, error) {
	at, _ := argInt(args, 1)
	if at < 1 || at > int64(args[0].Len()) {
		return args[0], nil
	}
	var out Sequence
	out.Concat(args[0][:at-1])
	out.Concat(args[0][at:])
	return out, nil
}

func fnStringJoin(_ Context, args []Sequence) (Sequence, error) {
	var sep string
	if len(args) > 1 {
		sep = argString(args, 1)
	}
	return Singleton(joinItems(args[0], sep)), nil
}

func fnExactlyOne(_ Context, args []Sequence) (Sequence, error) {
	if !args[0].Singleton() {
		return nil, Errorf(CodeSingleArg, "exactly one item expected, got %d", args[0].Len())
	}
	return args[0], nil
}

func fnZeroOrOne(_ Context, args []Sequence) (Sequence, error) {
	if args[0].Len() > 1 {
		return nil, Errorf(CodeEmptyArg, "at most one item expected, got %d", args[0].Len())
	}
	return args[0], nil
}

func fnOneOrMore(_ Context, args []Sequence) (Sequence, error) {
	if args[0].Empty() {
		return nil, Errorf(CodeEmptyArg, "at least one item expected")
	}
	return args[0], nil
}

func fnDeepEqual(ctx Context, args []Sequence) (Sequence, error) {
	return Singleton(deepEqual(args[0], args[1], ctx)), nil
}

func fnData(_ Context, args []Sequence) (Sequence, error) {
	return atomize(args[0])
}

func fnUpperCase(_ Context, args []Sequence) (Sequence, error) {
	return Singleton(strings.ToUpper(argString(args, 0))), nil
}

func fnLowerCase(_ Context, args []Sequence) (Sequence, error) {
	return Singleton(strings.ToLower(argString(args, 0))), nil
}

func fnCompare(ctx Context, args []Sequence) (Sequence, error) {
	if args[0].Empty() || args[1].Empty() {
		return nil, nil
	}
	name := ""
	if len(args) > 2 {
		name = argString(args, 2)
	}
	col, err := ctx.Collation(name)
	if err != nil {
		return nil, err
	}
	return Singleton(int64(col.Compare(argString(args, 0), argString(args, 1)))), nil
}

func fnCodepointEqual(_ Context, args []Sequence) (Sequence, error) {
	if args[0].Empty() || args[1].Empty() {
		return nil, nil
	}
	return Singleton(argString(args, 0) == argString(args, 1)), nil
}

func fnStringToCodepoints(_ Context, args []Sequence) (Sequence, error) {
	var out Sequence
	for _, r := range argString(args, 0) {
		out.Append(integerItem(int64(r)))
	}
	return out, nil
}

func fnCodepointsToString(_ Context, args []Sequence) (Sequence, error) {
	var str strings.Builder
	for _, item := range args[0] {
		v, err := asInt(item)
		if err != nil {
			return nil, err
		}
		str.WriteRune(rune(v))
	}
	return Singleton(str.String()), nil
}

func fnRoot(_ Context, args []Sequence) (Sequence, error) {
	if args[0].Empty() {
		return nil, nil
	}
	node := args[0][0].Node()
	for node.Parent() != nil {
		node = node.Parent()
	}
	return SingletonNode(node), nil
}

func fnBaseUri(ctx Context, args []Sequence) (Sequence, error) {
	if args[0].Empty() {
		return nil, nil
	}
	node := args[0][0].Node()
	for n := node; n != nil; n = n.Parent() {
		if doc, ok := n.(*xml.Document); ok && doc.BaseURI != "" {
			return Singleton(doc.BaseURI), nil
		}
	}
	if ctx.BaseURI() != "" {
		return Singleton(ctx.BaseURI()), nil
	}
	return nil, nil
}

func fnDocumentUri(_ Context, args []Sequence) (Sequence, error) {
	if args[0].Empty() {
		return nil, nil
	}
	if doc, ok := args[0][0].Node().(*xml.Document); ok && doc.BaseURI != "" {
		return Singleton(doc.BaseURI), nil
	}
	return nil, nil
}

func fnDoc(ctx Context, args []Sequence) (Sequence, error) {
	if args[0].Empty() {
		return nil, nil
	}
	doc, err := ctx.Document(argString(args, 0))
	if err != nil {
		return nil, err
	}
	return SingletonNode(doc), nil
}

func fnDocAvailable(ctx Context, args []Sequence) (Sequence, error) {
	if args[0].Empty() {
		return Singleton(false), nil
	}
	_, err := ctx.Document(argString(args, 0))
	return Singleton(err == nil), nil
}

func fnError(_ Context, args []Sequence) (Sequence, error) {
	code := CodeUserError
	if len(args) > 0 && !args[0].Empty() {
		if qn, ok := args[0][0].Value().(xml.QName); ok {
			code = qn.Name
		} else {
			str, _ := itemString(args[0][0])
			if str != "" {
				code = str
			}
		}
	}
	msg := "error raised by fn:error"
	if len(args) > 1 {
		msg = argString(args, 1)
	}
	return nil, Errorf(code, "%s", msg)
}

func fnTrace(ctx Context, args []Sequence) (Sequence, error) {
	label := argString(args, 1)
	ctx.rt.tracer.Enter("trace", Token{Literal: label})
	return args[0], nil
}

func fnResolveUri(ctx Context, args []Sequence) (Sequence, error) {
	if args[0].Empty() {
		return nil, nil
	}
	var (
		rel  = argString(args, 0)
		base = ctx.BaseURI()
	)
	if len(args) > 1 {
		base = argString(args, 1)
	}
	res, err := resolveURI(base, rel)
	if err != nil {
		return nil, err
	}
	return Singleton(createTyped(res, typeAnyURI)), nil
}

func fnDefaultCollation(ctx Context, _ []Sequence) (Sequence, error) {
	return Singleton(ctx.DefaultCollation()), nil
}

func fnStaticBaseUri(ctx Context, _ []Sequence) (Sequence, error) {
	if ctx.BaseURI() == "" {
		return nil, nil
	}
	return Singleton(createTyped(ctx.BaseURI(), typeAnyURI)), nil
}

func fnNormalizeUnicode(_ Context, args []Sequence) (Sequence, error) {
	var (
		str  = argString(args, 0)
		form = "NFC"
	)
	if len(args) > 1 {
		form = strings.ToUpper(strings.TrimSpace(argString(args, 1)))
	}
	switch form {
	case "":
		return Singleton(str), nil
	case "NFC":
		return Singleton(norm.NFC.String(str)), nil
	case "NFD":
		return Singleton(norm.NFD.String(str)), nil
	case "NFKC":
		return Singleton(norm.NFKC.String(str)), nil
	case "NFKD":
		return Singleton(norm.NFKD.String(str)), nil
	default:
		return nil, Errorf(CodeBadArgument, "%s: unsupported normalization form", form)
	}
}

func resolveURI(base, rel string) (string, error) {
	r, err := url.Parse(rel)
	if err != nil {
		return "", Errorf(CodeBadArgument, "%s: invalid uri", rel)
	}
	if r.IsAbs() || base == "" {
		return rel, nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", Errorf(CodeBadArgument, "%s: invalid base uri", base)
	}
	return b.ResolveReference(r).String(), nil
}
