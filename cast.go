package xpath

import (
	"encoding/base64"
	"encoding/hex"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/midbel/xpath/xml"
	"github.com/shopspring/decimal"
)

// atomicString renders the canonical lexical form of an atomic value.
func atomicString(a atomicItem) (string, error) {
	switch v := a.value.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case decimal.Decimal:
		return v.String(), nil
	case float32:
		return formatDouble(float64(v)), nil
	case float64:
		return formatDouble(v), nil
	case Moment:
		kind := a.kind
		if _, ok := momentLayouts[kind]; !ok {
			kind = typeDateTime
		}
		return formatMoment(v, kind), nil
	case Duration:
		if v.Zero() && a.kind == typeYearMonth {
			return "P0M", nil
		}
		return formatDuration(v), nil
	case xml.QName:
		return v.QualifiedName(), nil
	case []byte:
		if a.kind == typeBase64Binary {
			return base64.StdEncoding.EncodeToString(v), nil
		}
		return strings.ToUpper(hex.EncodeToString(v)), nil
	default:
		return "", Errorf(CodeCast, "%s: value has no string form", a.kind)
	}
}

func formatDouble(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "INF"
	case math.IsInf(v, -1):
		return "-INF"
	}
	abs := math.Abs(v)
	if v == math.Trunc(v) && abs < 1e15 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	if abs >= 1e-6 && abs < 1e15 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	str := strconv.FormatFloat(v, 'E', -1, 64)
	mantissa, exp, _ := strings.Cut(str, "E")
	if !strings.Contains(mantissa, ".") {
		mantissa += ".0"
	}
	exp = strings.TrimPrefix(exp, "+")
	if strings.HasPrefix(exp, "-") {
		exp = "-" + strings.TrimLeft(exp[1:], "0")
	} else {
		exp = strings.TrimLeft(exp, "0")
	}
	return mantissa + "E" + exp
}

func toString(item Item) (string, error) {
	return itemString(item)
}

// castItem converts one atomic value to the target type, dispatching
// on the (source family, target family) pair. Node items are atomized
// by the caller.
func castItem(item Item, target *AtomicType) (Item, error) {
	a, ok := item.(atomicItem)
	if !ok {
		return nil, Errorf(CodeOperandType, "%T: atomic value expected in cast", item)
	}
	if a.kind == target {
		return a, nil
	}
	switch {
	case target == typeUntypedAtomic:
		str, err := atomicString(a)
		if err != nil {
			return nil, err
		}
		return untypedItem(str), nil
	case target.Derives(typeString):
		return castToString(a, target)
	case target == typeAnyURI:
		str, err := atomicString(a)
		if err != nil {
			return nil, err
		}
		return createTyped(strings.TrimSpace(str), typeAnyURI), nil
	case target == typeBoolean:
		return castToBoolean(a)
	case target.Derives(typeInteger):
		return castToInteger(a, target)
	case target.Derives(typeDecimal):
		return castToDecimal(a)
	case target == typeFloat || target == typeDouble:
		return castToDouble(a, target)
	case target.Derives(typeDuration):
		return castToDuration(a, target)
	case isTemporal(target) || target.Derives(typeDateTime):
		return castToMoment(a, target)
	case target == typeQName:
		return castToQName(a)
	case target == typeBase64Binary || target == typeHexBinary:
		return castToBinary(a, target)
	case target == typeNotation:
		return nil, Errorf(CodeCast, "cast to xs:NOTATION is not allowed")
	default:
		return nil, Errorf(CodeCast, "cast to %s is not supported", target)
	}
}

func castable(item Item, target *AtomicType) bool {
	_, err := castItem(item, target)
	return err == nil
}

var (
	reLanguage = regexp.MustCompile(`^[a-zA-Z]{1,8}(-[a-zA-Z0-9]{1,8})*$`)
	reNmtoken  = regexp.MustCompile(`^[\pL\pN._:-]+$`)
	reName     = regexp.MustCompile(`^[\pL_:][\pL\pN._:-]*$`)
	reNCName   = regexp.MustCompile(`^[\pL_][\pL\pN._-]*$`)
)

func castToString(a atomicItem, target *AtomicType) (Item, error) {
	str, err := atomicString(a)
	if err != nil {
		return nil, err
	}
	switch target {
	case typeString:
	case typeNormalized:
		str = strings.Map(func(r rune) rune {
			if r == '\t' || r == '\n' || r == '\r' {
				return ' '
			}
			return r
		}, str)
	default:
		// token and below collapse whitespace
		str = strings.Join(strings.Fields(str), " ")
		var re *regexp.Regexp
		switch target {
		case typeToken:
		case typeLanguage:
			re = reLanguage
		case typeNMTOKEN:
			re = reNmtoken
		case typeName:
			re = reName
		default:
			re = reNCName
		}
		if re != nil && !re.MatchString(str) {
			return nil, Errorf(CodeBadArgument, "%q: invalid %s", str, target)
		}
	}
	return createTyped(str, target), nil
}

func castToBoolean(a atomicItem) (Item, error) {
	switch v := a.value.(type) {
	case bool:
		return createTyped(v, typeBoolean), nil
	case string:
		switch strings.TrimSpace(v) {
		case "true", "1":
			return createTyped(true, typeBoolean), nil
		case "false", "0":
			return createTyped(false, typeBoolean), nil
		default:
			return nil, Errorf(CodeBadArgument, "%q: invalid boolean", v)
		}
	case int64:
		return createTyped(v != 0, typeBoolean), nil
	case decimal.Decimal:
		return createTyped(!v.IsZero(), typeBoolean), nil
	case float32:
		return createTyped(v != 0 && v == v, typeBoolean), nil
	case float64:
		return createTyped(v != 0 && !math.IsNaN(v), typeBoolean), nil
	default:
		return nil, Errorf(CodeOperandType, "%s can not be cast to xs:boolean", a.kind)
	}
}

type intBounds struct {
	min, max int64
}

var integerBounds = map[*AtomicType]intBounds{
	typeLong:          {math.MinInt64, math.MaxInt64},
	typeInt:           {math.MinInt32, math.MaxInt32},
	typeShort:         {math.MinInt16, math.MaxInt16},
	typeByte:          {math.MinInt8, math.MaxInt8},
	typeNonNegative:   {0, math.MaxInt64},
	typeUnsignedLong:  {0, math.MaxInt64},
	typeUnsignedInt:   {0, math.MaxUint32},
	typeUnsignedShort: {0, math.MaxUint16},
	typeUnsignedByte:  {0, math.MaxUint8},
	typePositive:      {1, math.MaxInt64},
	typeNonPositive:   {math.MinInt64, 0},
	typeNegative:      {math.MinInt64, -1},
}

func castToInteger(a atomicItem, target *AtomicType) (Item, error) {
	var res int64
	switch v := a.value.(type) {
	case int64:
		res = v
	case decimal.Decimal:
		res = v.Truncate(0).IntPart()
	case float32:
		return castToInteger(atomicItem{value: float64(v), kind: typeDouble}, target)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, Errorf(CodeIntRange, "%s: can not be cast to %s", formatDouble(v), target)
		}
		res = int64(math.Trunc(v))
	case bool:
		if v {
			res = 1
		}
	case string:
		d, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, Errorf(CodeBadArgument, "%q: invalid integer", v)
		}
		res = d
	default:
		return nil, Errorf(CodeOperandType, "%s can not be cast to %s", a.kind, target)
	}
	if b, ok := integerBounds[target]; ok {
		if res < b.min || res > b.max {
			return nil, Errorf(CodeIntRange, "%d out of range for %s", res, target)
		}
	}
	return createTyped(res, target), nil
}

func castToDecimal(a atomicItem) (Item, error) {
	var res decimal.Decimal
	switch v := a.value.(type) {
	case int64:
		res = decimal.NewFromInt(v)
	case decimal.Decimal:
		res = v
	case float32:
		res = decimal.NewFromFloat32(v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, Errorf(CodeCast, "%s: can not be cast to xs:decimal", formatDouble(v))
		}
		res = decimal.NewFromFloat(v)
	case bool:
		if v {
			res = decimal.NewFromInt(1)
		}
	case string:
		str := strings.TrimSpace(v)
		if strings.ContainsAny(str, "eE") {
			return nil, Errorf(CodeBadArgument, "%q: invalid decimal", v)
		}
		d, err := decimal.NewFromString(str)
		if err != nil {
			return nil, Errorf(CodeBadArgument, "%q: invalid decimal", v)
		}
		res = d
	default:
		return nil, Errorf(CodeOperandType, "%s can not be cast to xs:decimal", a.kind)
	}
	return createTyped(res, typeDecimal), nil
}

func castToDouble(a atomicItem, target *AtomicType) (Item, error) {
	var res float64
	switch v := a.value.(type) {
	case int64:
		res = float64(v)
	case decimal.Decimal:
		res = v.InexactFloat64()
	case float32:
		res = float64(v)
	case float64:
		res = v
	case bool:
		if v {
			res = 1
		}
	case string:
		switch str := strings.TrimSpace(v); str {
		case "INF", "+INF":
			res = math.Inf(1)
		case "-INF":
			res = math.Inf(-1)
		case "NaN":
			res = math.NaN()
		default:
			d, err := strconv.ParseFloat(str, 64)
			if err != nil {
				return nil, Errorf(CodeBadArgument, "%q: invalid %s", v, target)
			}
			res = d
		}
	default:
		return nil, Errorf(CodeOperandType, "%s can not be cast to %s", a.kind, target)
	}
	if target == typeFloat {
		return createTyped(float32(res), typeFloat), nil
	}
	return createTyped(res, typeDouble), nil
}

func castToDuration(a atomicItem, target *AtomicType) (Item, error) {
	var d Duration
	switch v := a.value.(type) {
	case Duration:
		d = v
	case string:
		x, err := parseDuration(strings.TrimSpace(v))
		if err != nil {
			return nil, err
		}
		d = x
	default:
		return nil, Errorf(CodeOperandType, "%s can not be cast to %s", a.kind, target)
	}
	switch target {
	case typeYearMonth:
		d.Secs = 0
	case typeDayTime:
		d.Months = 0
	}
	if str, ok := a.value.(string); ok && (a.kind == typeString || a.kind == typeUntypedAtomic) {
		// the lexical form must fit the subtype
		str = strings.TrimSpace(str)
		date, _, _ := strings.Cut(str, "T")
		if target == typeYearMonth && strings.ContainsAny(str, "DT") {
			return nil, Errorf(CodeBadArgument, "%s: invalid yearMonthDuration", str)
		}
		if target == typeDayTime && strings.ContainsAny(date, "YM") {
			return nil, Errorf(CodeBadArgument, "%s: invalid dayTimeDuration", str)
		}
	}
	return createTyped(d, target), nil
}

func castToMoment(a atomicItem, target *AtomicType) (Item, error) {
	switch v := a.value.(type) {
	case string:
		m, err := parseMoment(strings.TrimSpace(v), target)
		if err != nil {
			return nil, err
		}
		return createTyped(m, target), nil
	case Moment:
		if !a.kind.Derives(typeDateTime) && a.kind != typeDate && !(a.kind == typeTime && target == typeTime) {
			return nil, Errorf(CodeOperandType, "%s can not be cast to %s", a.kind, target)
		}
		switch target {
		case typeDate:
			t := Moment{
				Time:  truncateClock(v.Time),
				Zoned: v.Zoned,
			}
			return createTyped(t, typeDate), nil
		case typeTime:
			return createTyped(v, typeTime), nil
		case typeDateTime, typeStamp:
			if target == typeStamp && !v.Zoned {
				return nil, Errorf(CodeCast, "dateTimeStamp requires a timezone")
			}
			return createTyped(v, target), nil
		case typeGYear, typeGYearMonth, typeGMonth, typeGDay, typeGMonthDay:
			return createTyped(v, target), nil
		default:
			return nil, Errorf(CodeOperandType, "%s can not be cast to %s", a.kind, target)
		}
	default:
		return nil, Errorf(CodeOperandType, "%s can not be cast to %s", a.kind, target)
	}
}

func castToQName(a atomicItem) (Item, error) {
	switch v := a.value.(type) {
	case xml.QName:
		return createTyped(v, typeQName), nil
	case string:
		qn, err := xml.ParseName(strings.TrimSpace(v))
		if err != nil {
			return nil, Errorf(CodeBadArgument, "%q: invalid QName", v)
		}
		return createTyped(qn, typeQName), nil
	default:
		return nil, Errorf(CodeOperandType, "%s can not be cast to xs:QName", a.kind)
	}
}

func castToBinary(a atomicItem, target *AtomicType) (Item, error) {
	switch v := a.value.(type) {
	case []byte:
		return createTyped(v, target), nil
	case string:
		str := strings.TrimSpace(v)
		var (
			raw []byte
			err error
		)
		if target == typeHexBinary {
			raw, err = hex.DecodeString(str)
		} else {
			raw, err = base64.StdEncoding.DecodeString(str)
		}
		if err != nil {
			return nil, Errorf(CodeBadArgument, "%q: invalid %s", v, target)
		}
		return createTyped(raw, target), nil
	default:
		return nil, Errorf(CodeOperandType, "%s can not be cast to %s", a.kind, target)
	}
}

func truncateClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
