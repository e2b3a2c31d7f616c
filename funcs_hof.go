package xpath

import (
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	"github.com/midbel/xpath/xml"
)

func registerCore30(lib *FuncLib) {
	lib.add(fnNS, "head", 1, 1, []SequenceType{stAny}, stItemOpt, fnHead)
	lib.add(fnNS, "tail", 1, 1, []SequenceType{stAny}, stAny, fnTail)
	lib.add(fnNS, "for-each", 2, 2, []SequenceType{stAny, stFunc}, stAny, fnForEach)
	lib.add(fnNS, "filter", 2, 2, []SequenceType{stAny, stFunc}, stAny, fnFilter)
	lib.add(fnNS, "fold-left", 3, 3, []SequenceType{stAny, stAny, stFunc}, stAny, fnFoldLeft)
	lib.add(fnNS, "fold-right", 3, 3, []SequenceType{stAny, stAny, stFunc}, stAny, fnFoldRight)
	lib.add(fnNS, "for-each-pair", 3, 3, []SequenceType{stAny, stAny, stFunc}, stAny, fnForEachPair)
	lib.add(fnNS, "function-lookup", 2, 2, []SequenceType{atomicArg(typeQName, OccOne), stInteger}, stItemOpt, fnFunctionLookup)
	lib.add(fnNS, "function-name", 1, 1, []SequenceType{stFunc}, stAtomOpt, fnFunctionName)
	lib.add(fnNS, "function-arity", 1, 1, []SequenceType{stFunc}, stInteger, fnFunctionArity)
	lib.add(fnNS, "format-integer", 2, 3, []SequenceType{stIntegerOpt, stString, stStringOpt}, stString, fnFormatInteger)
	lib.add(fnNS, "analyze-string", 2, 3, []SequenceType{stStringOpt, stString, stString}, stItem, fnAnalyzeString)
	gen := lib.add(fnNS, "generate-id", 0, 1, []SequenceType{stNodeOpt}, stString, fnGenerateId)
	gen.CtxItem = true
}

func registerMath(lib *FuncLib) {
	lib.add(mathNS, "pi", 0, 0, nil, stDouble, func(_ Context, _ []Sequence) (Sequence, error) {
		return Singleton(math.Pi), nil
	})
	for _, spec := range []struct {
		name string
		call func(float64) float64
	}{
		{"sqrt", math.Sqrt},
		{"exp", math.Exp},
		{"exp10", func(v float64) float64 { return math.Pow(10, v) }},
		{"log", math.Log},
		{"log10", math.Log10},
		{"sin", math.Sin},
		{"cos", math.Cos},
		{"tan", math.Tan},
		{"asin", math.Asin},
		{"acos", math.Acos},
		{"atan", math.Atan},
	} {
		call := spec.call
		lib.add(mathNS, spec.name, 1, 1,
			[]SequenceType{stDoubleOpt}, stDoubleOpt,
			func(_ Context, args []Sequence) (Sequence, error) {
				if args[0].Empty() {
					return nil, nil
				}
				v, err := asFloat(args[0][0])
				if err != nil {
					return nil, err
				}
				return Singleton(call(v)), nil
			})
	}
	lib.add(mathNS, "pow", 2, 2, []SequenceType{stDoubleOpt, stDouble}, stDoubleOpt, fnPow)
	lib.add(mathNS, "atan2", 2, 2, []SequenceType{stDouble, stDouble}, stDouble, fnAtan2)
}

func fnHead(_ Context, args []Sequence) (Sequence, error) {
	if args[0].Empty() {
		return nil, nil
	}
	return args[0][:1], nil
}

func fnTail(_ Context, args []Sequence) (Sequence, error) {
	if args[0].Len() < 2 {
		return nil, nil
	}
	return args[0][1:], nil
}

func fnForEach(ctx Context, args []Sequence) (Sequence, error) {
	var out Sequence
	for _, item := range args[0] {
		res, err := applyFunction(args[1][0], []Sequence{{item}}, ctx)
		if err != nil {
			return nil, err
		}
		out.Concat(res)
	}
	return out, nil
}

func fnFilter(ctx Context, args []Sequence) (Sequence, error) {
	var out Sequence
	for _, item := range args[0] {
		res, err := applyFunction(args[1][0], []Sequence{{item}}, ctx)
		if err != nil {
			return nil, err
		}
		if !res.Singleton() || itemType(res[0]) != typeBoolean {
			return nil, Errorf(CodeOperandType, "filter predicate must return a single boolean")
		}
		if keep, _ := res[0].Value().(bool); keep {
			out.Append(item)
		}
	}
	return out, nil
}

func fnFoldLeft(ctx Context, args []Sequence) (Sequence, error) {
	acc := args[1]
	for _, item := range args[0] {
		res, err := applyFunction(args[2][0], []Sequence{acc, {item}}, ctx)
		if err != nil {
			return nil, err
		}
		acc = res
	}
	return acc, nil
}

func fnFoldRight(ctx Context, args []Sequence) (Sequence, error) {
	acc := args[1]
	for i := args[0].Len() - 1; i >= 0; i-- {
		res, err := applyFunction(args[2][0], []Sequence{{args[0][i]}, acc}, ctx)
		if err != nil {
			return nil, err
		}
		acc = res
	}
	return acc, nil
}

func fnForEachPair(ctx Context, args []Sequence) (Sequence, error) {
	var out Sequence
	for i := 0; i < args[0].Len() && i < args[1].Len(); i++ {
		res, err := applyFunction(args[2][0], []Sequence{{args[0][i]}, {args[1][i]}}, ctx)
		if err != nil {
			return nil, err
		}
		out.Concat(res)
	}
	return out, nil
}

func fnFunctionLookup(ctx Context, args []Sequence) (Sequence, error) {
	name, ok := args[0][0].Value().(xml.QName)
	if !ok {
		return nil, Errorf(CodeOperandType, "function name expected")
	}
	arity, _ := argInt(args, 1)
	fn, err := ctx.rt.builtins.lookup(name, int(arity))
	if err != nil {
		return nil, nil
	}
	item := funcItem{
		name:  fn.Name,
		arity: int(arity),
		call: func(callCtx Context, callArgs []Sequence) (Sequence, error) {
			return fn.invoke(callCtx, callArgs)
		},
	}
	return Sequence{item}, nil
}

func fnFunctionName(_ Context, args []Sequence) (Sequence, error) {
	fn, ok := args[0][0].(funcItem)
	if !ok {
		return nil, Errorf(CodeOperandType, "function item expected")
	}
	if fn.name.Zero() {
		return nil, nil
	}
	return Sequence{createTyped(fn.name, typeQName)}, nil
}

func fnFunctionArity(_ Context, args []Sequence) (Sequence, error) {
	fn, ok := args[0][0].(funcItem)
	if !ok {
		return nil, Errorf(CodeOperandType, "function item expected")
	}
	return Singleton(int64(fn.arity)), nil
}

func fnFormatInteger(_ Context, args []Sequence) (Sequence, error) {
	if args[0].Empty() {
		return Singleton(""), nil
	}
	v, err := asInt(args[0][0])
	if err != nil {
		return nil, err
	}
	str, err := formatInteger(v, argString(args, 1))
	if err != nil {
		return nil, err
	}
	return Singleton(str), nil
}

func fnGenerateId(_ Context, args []Sequence) (Sequence, error) {
	if args[0].Empty() {
		return Singleton(""), nil
	}
	node := args[0][0].Node()
	id := "N" + shortHash(node.Identity())
	return Singleton(id), nil
}

func fnPow(_ Context, args []Sequence) (Sequence, error) {
	if args[0].Empty() {
		return nil, nil
	}
	x, err := asFloat(args[0][0])
	if err != nil {
		return nil, err
	}
	y, err := asFloat(args[1][0])
	if err != nil {
		return nil, err
	}
	return Singleton(math.Pow(x, y)), nil
}

func fnAtan2(_ Context, args []Sequence) (Sequence, error) {
	y, err := asFloat(args[0][0])
	if err != nil {
		return nil, err
	}
	x, err := asFloat(args[1][0])
	if err != nil {
		return nil, err
	}
	return Singleton(math.Atan2(y, x)), nil
}

func fnSort(ctx Context, args []Sequence) (Sequence, error) {
	var (
		out  = make(Sequence, args[0].Len())
		keys = make([]Sequence, args[0].Len())
	)
	copy(out, args[0])
	for i, item := range out {
		if len(args) > 2 {
			res, err := applyFunction(args[2][0], []Sequence{{item}}, ctx)
			if err != nil {
				return nil, err
			}
			keys[i] = res
		} else {
			atoms, err := atomize(Sequence{item})
			if err != nil {
				return nil, err
			}
			keys[i] = atoms
		}
	}
	var sortErr error
	order := make([]int, len(out))
	for i := range order {
		order[i] = i
	}
	lessSeq := func(a, b Sequence) bool {
		for i := 0; i < a.Len() && i < b.Len(); i++ {
			lt, err := compareValues(opValLt, a[i], b[i], ctx)
			if err != nil {
				sortErr = err
				return false
			}
			gt, _ := compareValues(opValGt, a[i], b[i], ctx)
			if lt {
				return true
			}
			if gt {
				return false
			}
		}
		return a.Len() < b.Len()
	}
	insertionSort(order, func(x, y int) bool {
		return lessSeq(keys[x], keys[y])
	})
	if sortErr != nil {
		return nil, sortErr
	}
	sorted := make(Sequence, len(out))
	for i, at := range order {
		sorted[i] = out[at]
	}
	return sorted, nil
}

// insertionSort keeps the sort stable without pulling the whole sort
// package machinery into the hot path for the tiny sequences fn:sort
// usually sees.
func insertionSort(order []int, less func(a, b int) bool) {
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && less(order[j], order[j-1]); j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
}

func fnContainsToken(_ Context, args []Sequence) (Sequence, error) {
	want := argString(args, 1)
	for _, item := range args[0] {
		str, err := itemString(item)
		if err != nil {
			return nil, err
		}
		for _, tok := range strings.Fields(str) {
			if tok == want {
				return Singleton(true), nil
			}
		}
	}
	return Singleton(false), nil
}

func shortHash(str string) string {
	h := fnv.New64a()
	h.Write([]byte(str))
	return fmt.Sprintf("%x", h.Sum64())
}
