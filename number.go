package xpath

import (
	"math"

	"github.com/shopspring/decimal"
)

// numeric ranks along the promotion chain
const (
	rankInteger = iota + 1
	rankDecimal
	rankFloat
	rankDouble
)

func numericRank(t *AtomicType) int {
	switch {
	case t.Derives(typeInteger):
		return rankInteger
	case t.Derives(typeDecimal):
		return rankDecimal
	case t.Derives(typeFloat):
		return rankFloat
	case t.Derives(typeDouble):
		return rankDouble
	default:
		return 0
	}
}

func rankType(rank int) *AtomicType {
	switch rank {
	case rankInteger:
		return typeInteger
	case rankDecimal:
		return typeDecimal
	case rankFloat:
		return typeFloat
	default:
		return typeDouble
	}
}

func asInt(item Item) (int64, error) {
	a, ok := item.(atomicItem)
	if !ok {
		return 0, Errorf(CodeOperandType, "integer expected")
	}
	switch v := a.value.(type) {
	case int64:
		return v, nil
	case decimal.Decimal:
		return v.IntPart(), nil
	case float32:
		return int64(v), nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, Errorf(CodeIntRange, "%v: not a valid integer", v)
		}
		return int64(v), nil
	default:
		return 0, Errorf(CodeOperandType, "%s: integer expected", a.kind)
	}
}

func asDecimal(item Item) (decimal.Decimal, error) {
	a, ok := item.(atomicItem)
	if !ok {
		return decimal.Zero, Errorf(CodeOperandType, "numeric value expected")
	}
	switch v := a.value.(type) {
	case int64:
		return decimal.NewFromInt(v), nil
	case decimal.Decimal:
		return v, nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero, Errorf(CodeCast, "%v: not a valid decimal", v)
		}
		return decimal.NewFromFloat(v), nil
	default:
		return decimal.Zero, Errorf(CodeOperandType, "%s: numeric value expected", a.kind)
	}
}

func asFloat(item Item) (float64, error) {
	a, ok := item.(atomicItem)
	if !ok {
		return 0, Errorf(CodeOperandType, "numeric value expected")
	}
	switch v := a.value.(type) {
	case int64:
		return float64(v), nil
	case decimal.Decimal:
		return v.InexactFloat64(), nil
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	default:
		return 0, Errorf(CodeOperandType, "%s: numeric value expected", a.kind)
	}
}

// arithmetic applies op to two atomized singleton operands following
// the promotion lattice: numerics keep the narrowest common type,
// durations and date/times dispatch on their own table.
func arithmetic(op rune, left, right Item, ctx Context) (Item, error) {
	var (
		lt = itemType(left)
		rt = itemType(right)
	)
	if lt == nil || rt == nil {
		return nil, Errorf(CodeOperandType, "arithmetic on non atomic operand")
	}
	var err error
	if lt == typeUntypedAtomic {
		if left, err = castItem(left, typeDouble); err != nil {
			return nil, err
		}
		lt = typeDouble
	}
	if rt == typeUntypedAtomic {
		if right, err = castItem(right, typeDouble); err != nil {
			return nil, err
		}
		rt = typeDouble
	}
	switch {
	case isNumeric(lt) && isNumeric(rt):
		return numericOp(op, left, right)
	case isDuration(lt) || isDuration(rt) || isTemporal(lt) || isTemporal(rt):
		return temporalOp(op, left, lt, right, rt, ctx)
	default:
		return nil, Errorf(CodeOperandType, "%s and %s: invalid operand types for arithmetic", lt, rt)
	}
}

func numericOp(op rune, left, right Item) (Item, error) {
	rank := max(numericRank(itemType(left)), numericRank(itemType(right)))
	if op == opDiv && rank == rankInteger {
		// integer division yields a decimal
		rank = rankDecimal
	}
	switch rank {
	case rankInteger:
		x, err := asInt(left)
		if err != nil {
			return nil, err
		}
		y, err := asInt(right)
		if err != nil {
			return nil, err
		}
		return integerOp(op, x, y)
	case rankDecimal:
		x, err := asDecimal(left)
		if err != nil {
			return nil, err
		}
		y, err := asDecimal(right)
		if err != nil {
			return nil, err
		}
		return decimalOp(op, x, y)
	default:
		x, err := asFloat(left)
		if err != nil {
			return nil, err
		}
		y, err := asFloat(right)
		if err != nil {
			return nil, err
		}
		return floatOp(op, x, y, rank)
	}
}

func integerOp(op rune, x, y int64) (Item, error) {
	switch op {
	case opAdd:
		return createTyped(x+y, typeInteger), nil
	case opSub:
		return createTyped(x-y, typeInteger), nil
	case opMul:
		return createTyped(x*y, typeInteger), nil
	case opIdiv:
		if y == 0 {
			return nil, Errorf(CodeDivZero, "integer division by zero")
		}
		return createTyped(x/y, typeInteger), nil
	case opMod:
		if y == 0 {
			return nil, Errorf(CodeDivZero, "modulo by zero")
		}
		return createTyped(x%y, typeInteger), nil
	default:
		return nil, Errorf(CodeNumericOp, "unsupported integer operation")
	}
}

func decimalOp(op rune, x, y decimal.Decimal) (Item, error) {
	switch op {
	case opAdd:
		return createTyped(x.Add(y), typeDecimal), nil
	case opSub:
		return createTyped(x.Sub(y), typeDecimal), nil
	case opMul:
		return createTyped(x.Mul(y), typeDecimal), nil
	case opDiv:
		if y.IsZero() {
			return nil, Errorf(CodeDivZero, "decimal division by zero")
		}
		return createTyped(x.DivRound(y, 18), typeDecimal), nil
	case opIdiv:
		if y.IsZero() {
			return nil, Errorf(CodeDivZero, "integer division by zero")
		}
		q := x.Div(y).Truncate(0)
		return createTyped(q.IntPart(), typeInteger), nil
	case opMod:
		if y.IsZero() {
			return nil, Errorf(CodeDivZero, "modulo by zero")
		}
		return createTyped(x.Mod(y), typeDecimal), nil
	default:
		return nil, Errorf(CodeNumericOp, "unsupported decimal operation")
	}
}

func floatOp(op rune, x, y float64, rank int) (Item, error) {
	var res float64
	switch op {
	case opAdd:
		res = x + y
	case opSub:
		res = x - y
	case opMul:
		res = x * y
	case opDiv:
		res = x / y
	case opIdiv:
		if y == 0 {
			return nil, Errorf(CodeDivZero, "integer division by zero")
		}
		q := x / y
		if math.IsNaN(q) || math.IsInf(q, 0) {
			return nil, Errorf(CodeIntRange, "integer division overflow")
		}
		return createTyped(int64(math.Trunc(q)), typeInteger), nil
	case opMod:
		res = math.Mod(x, y)
	default:
		return nil, Errorf(CodeNumericOp, "unsupported float operation")
	}
	if rank == rankFloat {
		return createTyped(float32(res), typeFloat), nil
	}
	return createTyped(res, typeDouble), nil
}

func temporalOp(op rune, left Item, lt *AtomicType, right Item, rt *AtomicType, ctx Context) (Item, error) {
	bad := func() (Item, error) {
		return nil, Errorf(CodeOperandType, "%s and %s: invalid operand types for arithmetic", lt, rt)
	}
	switch {
	case isDuration(lt) && isDuration(rt):
		x, _ := left.Value().(Duration)
		y, _ := right.Value().(Duration)
		switch op {
		case opAdd:
			return createTyped(x.Add(y), commonDuration(lt, rt)), nil
		case opSub:
			return createTyped(x.Add(y.Neg()), commonDuration(lt, rt)), nil
		case opDiv:
			// only within the same duration subtype
			if lt != rt || lt == typeDuration {
				return bad()
			}
			var a, b float64
			if lt == typeYearMonth {
				a, b = float64(x.Months), float64(y.Months)
			} else {
				a, b = x.Secs, y.Secs
			}
			if b == 0 {
				return nil, Errorf(CodeDivZero, "duration division by zero")
			}
			return createTyped(decimal.NewFromFloat(a/b), typeDecimal), nil
		default:
			return bad()
		}
	case isDuration(lt) && isNumeric(rt):
		if op != opMul && op != opDiv {
			return bad()
		}
		x, _ := left.Value().(Duration)
		by, err := asFloat(right)
		if err != nil {
			return nil, err
		}
		if op == opDiv {
			if by == 0 {
				return nil, Errorf(CodeDivZero, "duration division by zero")
			}
			by = 1 / by
		}
		scaled, err := x.Scale(by)
		if err != nil {
			return nil, err
		}
		return createTyped(scaled, lt), nil
	case isNumeric(lt) && isDuration(rt):
		if op != opMul {
			return bad()
		}
		return temporalOp(op, right, rt, left, lt, ctx)
	case isTemporal(lt) && isDuration(rt):
		m, _ := left.Value().(Moment)
		d, _ := right.Value().(Duration)
		switch op {
		case opSub:
			d = d.Neg()
		case opAdd:
		default:
			return bad()
		}
		m = addMonths(m, d.Months)
		m = addSeconds(m, d.Secs)
		return createTyped(m, lt), nil
	case isDuration(lt) && isTemporal(rt):
		if op != opAdd {
			return bad()
		}
		return temporalOp(op, right, rt, left, lt, ctx)
	case isTemporal(lt) && isTemporal(rt):
		if op != opSub || !lt.Derives(rt) && !rt.Derives(lt) {
			return bad()
		}
		x, _ := left.Value().(Moment)
		y, _ := right.Value().(Moment)
		diff := momentDiff(x, y, ctx.Location())
		return createTyped(diff, typeDayTime), nil
	default:
		return bad()
	}
}

func commonDuration(lt, rt *AtomicType) *AtomicType {
	if lt == rt {
		return lt
	}
	return typeDuration
}
