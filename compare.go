package xpath

import (
	"bytes"
	"math"

	"github.com/midbel/xpath/xml"
	"github.com/shopspring/decimal"
)

func valueOp(op rune) rune {
	switch op {
	case opEq:
		return opValEq
	case opNe:
		return opValNe
	case opLt:
		return opValLt
	case opLe:
		return opValLe
	case opGt:
		return opValGt
	case opGe:
		return opValGe
	default:
		return op
	}
}

func applyOrder(op rune, cmp int) bool {
	switch op {
	case opValEq:
		return cmp == 0
	case opValNe:
		return cmp != 0
	case opValLt:
		return cmp < 0
	case opValLe:
		return cmp <= 0
	case opValGt:
		return cmp > 0
	case opValGe:
		return cmp >= 0
	default:
		return false
	}
}

// compareValues implements the value comparison of two atomic items.
// Untyped values compare as strings, numerics along the promotion
// lattice, strings under the collation of the context.
func compareValues(op rune, left, right Item, ctx Context) (bool, error) {
	var (
		lt = itemType(left)
		rt = itemType(right)
	)
	if lt == nil || rt == nil {
		return false, Errorf(CodeOperandType, "comparison on non atomic operand")
	}
	if lt == typeUntypedAtomic {
		left = createTyped(left.Value(), typeString)
		lt = typeString
	}
	if rt == typeUntypedAtomic {
		right = createTyped(right.Value(), typeString)
		rt = typeString
	}
	switch {
	case isNumeric(lt) && isNumeric(rt):
		cmp, err := compareNumbers(left, right)
		if err != nil {
			return false, err
		}
		if cmp == cmpNaN {
			return op == opValNe, nil
		}
		return applyOrder(op, cmp), nil
	case lt.Promotes(typeString) && rt.Promotes(typeString):
		x, _ := itemString(left)
		y, _ := itemString(right)
		col, err := ctx.Collation("")
		if err != nil {
			return false, err
		}
		return applyOrder(op, col.Compare(x, y)), nil
	case lt == typeBoolean && rt == typeBoolean:
		x, _ := left.Value().(bool)
		y, _ := right.Value().(bool)
		var cmp int
		if x != y {
			cmp = 1
			if !x {
				cmp = -1
			}
		}
		return applyOrder(op, cmp), nil
	case isTemporal(lt) && isTemporal(rt):
		if !lt.Derives(rt) && !rt.Derives(lt) {
			return false, Errorf(CodeOperandType, "%s and %s can not be compared", lt, rt)
		}
		x, _ := left.Value().(Moment)
		y, _ := right.Value().(Moment)
		return applyOrder(op, x.Compare(y, ctx.Location())), nil
	case isDuration(lt) && isDuration(rt):
		x, _ := left.Value().(Duration)
		y, _ := right.Value().(Duration)
		switch op {
		case opValEq, opValNe:
			return applyOrder(op, compareDurations(x, y)), nil
		default:
			// ordering only within the two subtypes
			if lt == rt && lt != typeDuration {
				return applyOrder(op, compareDurations(x, y)), nil
			}
			return false, Errorf(CodeOperandType, "%s and %s are not ordered", lt, rt)
		}
	case lt == typeQName && rt == typeQName:
		if op != opValEq && op != opValNe {
			return false, Errorf(CodeOperandType, "xs:QName values are not ordered")
		}
		x, _ := left.Value().(xml.QName)
		y, _ := right.Value().(xml.QName)
		if x.Equal(y) {
			return op == opValEq, nil
		}
		return op == opValNe, nil
	case (lt == typeHexBinary || lt == typeBase64Binary) && lt == rt:
		x, _ := left.Value().([]byte)
		y, _ := right.Value().([]byte)
		return applyOrder(op, bytes.Compare(x, y)), nil
	default:
		return false, Errorf(CodeOperandType, "%s and %s can not be compared", lt, rt)
	}
}

const cmpNaN = math.MinInt32

func compareNumbers(left, right Item) (int, error) {
	rank := max(numericRank(itemType(left)), numericRank(itemType(right)))
	if rank >= rankFloat {
		x, err := asFloat(left)
		if err != nil {
			return 0, err
		}
		y, err := asFloat(right)
		if err != nil {
			return 0, err
		}
		if math.IsNaN(x) || math.IsNaN(y) {
			return cmpNaN, nil
		}
		switch {
		case x < y:
			return -1, nil
		case x > y:
			return 1, nil
		default:
			return 0, nil
		}
	}
	x, err := asDecimal(left)
	if err != nil {
		return 0, err
	}
	y, err := asDecimal(right)
	if err != nil {
		return 0, err
	}
	return x.Cmp(y), nil
}

func compareDurations(x, y Duration) int {
	var (
		a = float64(x.Months)*30*secsPerDay + x.Secs
		b = float64(y.Months)*30*secsPerDay + y.Secs
	)
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// compareGeneral is the existentially quantified comparison: true when
// any pair drawn from the two atomized sequences satisfies op. In 1.0
// compatibility mode operands coerce to numbers or strings instead of
// raising type errors.
func compareGeneral(op rune, left, right Sequence, ctx Context) (bool, error) {
	left, err := atomize(left)
	if err != nil {
		return false, err
	}
	right, err = atomize(right)
	if err != nil {
		return false, err
	}
	if ctx.Compat() {
		return compareCompat(op, left, right, ctx)
	}
	vop := valueOp(op)
	for i := range left {
		for j := range right {
			x, y, err := adjustPair(left[i], right[j])
			if err != nil {
				return false, err
			}
			ok, err := compareValues(vop, x, y, ctx)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
	}
	return false, nil
}

// adjustPair applies the untyped conversion rules of general
// comparison: untyped against numeric becomes double, untyped against
// untyped or string stays string, untyped against anything else takes
// the other side's type.
func adjustPair(left, right Item) (Item, Item, error) {
	var (
		lt  = itemType(left)
		rt  = itemType(right)
		err error
	)
	if lt == typeUntypedAtomic && rt != typeUntypedAtomic {
		left, err = convertUntyped(left, rt)
		if err != nil {
			return nil, nil, err
		}
	}
	if rt == typeUntypedAtomic && lt != typeUntypedAtomic {
		right, err = convertUntyped(right, lt)
		if err != nil {
			return nil, nil, err
		}
	}
	return left, right, nil
}

func convertUntyped(item Item, target *AtomicType) (Item, error) {
	switch {
	case isNumeric(target):
		return castItem(item, typeDouble)
	case target.Promotes(typeString):
		return createTyped(item.Value(), typeString), nil
	default:
		return castItem(item, target)
	}
}

func compareCompat(op rune, left, right Sequence, ctx Context) (bool, error) {
	numeric := func(seq Sequence) bool {
		for i := range seq {
			if isNumeric(itemType(seq[i])) {
				return true
			}
		}
		return false
	}
	boolean := func(seq Sequence) (bool, bool) {
		if seq.Singleton() && itemType(seq[0]) == typeBoolean {
			v, _ := seq[0].Value().(bool)
			return v, true
		}
		return false, false
	}
	vop := valueOp(op)
	if v, ok := boolean(left); ok {
		w := isTrue(right)
		return applyOrder(vop, compareBools(v, w)), nil
	}
	if v, ok := boolean(right); ok {
		w := isTrue(left)
		return applyOrder(vop, compareBools(w, v)), nil
	}
	asNumbers := numeric(left) || numeric(right) || vop != opValEq && vop != opValNe
	for i := range left {
		for j := range right {
			var ok bool
			if asNumbers {
				x, err1 := castItem(left[i], typeDouble)
				y, err2 := castItem(right[j], typeDouble)
				if err1 != nil || err2 != nil {
					continue
				}
				cmp, err := compareNumbers(x, y)
				if err != nil || cmp == cmpNaN {
					continue
				}
				ok = applyOrder(vop, cmp)
			} else {
				x, _ := itemString(left[i])
				y, _ := itemString(right[j])
				col, err := ctx.Collation("")
				if err != nil {
					return false, err
				}
				ok = applyOrder(vop, col.Compare(x, y))
			}
			if ok {
				return true, nil
			}
		}
	}
	return false, nil
}

func compareBools(x, y bool) int {
	switch {
	case x == y:
		return 0
	case !x:
		return -1
	default:
		return 1
	}
}

// deepEqual implements the equality used by fn:deep-equal; its item
// level form deepEqualItem also drives fn:distinct-values.
func deepEqual(left, right Sequence, ctx Context) bool {
	if left.Len() != right.Len() {
		return false
	}
	for i := range left {
		if !deepEqualItem(left[i], right[i], ctx) {
			return false
		}
	}
	return true
}

func deepEqualItem(left, right Item, ctx Context) bool {
	switch l := left.(type) {
	case atomicItem:
		r, ok := right.(atomicItem)
		if !ok {
			return false
		}
		if isNumeric(l.kind) && isNumeric(r.kind) {
			x, err1 := asFloat(left)
			y, err2 := asFloat(right)
			if err1 != nil || err2 != nil {
				return false
			}
			if math.IsNaN(x) && math.IsNaN(y) {
				return true
			}
			if numericRank(l.kind) <= rankDecimal && numericRank(r.kind) <= rankDecimal {
				a, _ := asDecimal(left)
				b, _ := asDecimal(right)
				return a.Equal(b)
			}
			return x == y
		}
		ok, err := compareValues(opValEq, left, right, ctx)
		return err == nil && ok
	case nodeItem:
		r, ok := right.(nodeItem)
		if !ok {
			return false
		}
		return equalNodes(l.node, r.node, ctx)
	case mapItem:
		r, ok := right.(mapItem)
		if !ok || len(l.pairs) != len(r.pairs) {
			return false
		}
		for _, p := range l.pairs {
			other, ok := r.get(p.key)
			if !ok || !deepEqual(p.value, other, ctx) {
				return false
			}
		}
		return true
	case arrayItem:
		r, ok := right.(arrayItem)
		if !ok || len(l.members) != len(r.members) {
			return false
		}
		for i := range l.members {
			if !deepEqual(l.members[i], r.members[i], ctx) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func equalNodes(left, right xml.Node, ctx Context) bool {
	if left.Type() != right.Type() {
		return false
	}
	switch l := left.(type) {
	case *xml.Element:
		r := right.(*xml.Element)
		if !l.QName.Equal(r.QName) {
			return false
		}
		la, ra := l.Attributes(), r.Attributes()
		if len(la) != len(ra) {
			return false
		}
		for _, a := range la {
			b, ok := r.GetAttribute(a.QualifiedName())
			if !ok || a.Datum != b.Datum {
				return false
			}
		}
		lc := contentNodes(l.Nodes)
		rc := contentNodes(r.Nodes)
		if len(lc) != len(rc) {
			return false
		}
		for i := range lc {
			if !equalNodes(lc[i], rc[i], ctx) {
				return false
			}
		}
		return true
	case *xml.Attribute:
		r := right.(*xml.Attribute)
		return l.QName.Equal(r.QName) && l.Datum == r.Datum
	case *xml.Document:
		r := right.(*xml.Document)
		lc := contentNodes(l.Nodes)
		rc := contentNodes(r.Nodes)
		if len(lc) != len(rc) {
			return false
		}
		for i := range lc {
			if !equalNodes(lc[i], rc[i], ctx) {
				return false
			}
		}
		return true
	default:
		return left.Value() == right.Value()
	}
}

func contentNodes(nodes []xml.Node) []xml.Node {
	var out []xml.Node
	for _, n := range nodes {
		switch n.Type() {
		case xml.TypeComment, xml.TypeInstruction:
			continue
		}
		out = append(out, n)
	}
	return out
}

// numeric helpers shared by functions and operators

func decimalItem(d decimal.Decimal) Item {
	return createTyped(d, typeDecimal)
}

func integerItem(v int64) Item {
	return createTyped(v, typeInteger)
}

func doubleItem(v float64) Item {
	return createTyped(v, typeDouble)
}

func stringItem(v string) Item {
	return createTyped(v, typeString)
}

func booleanItem(v bool) Item {
	return createTyped(v, typeBoolean)
}
