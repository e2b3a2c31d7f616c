package xpath

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

func registerDateTime(lib *FuncLib) {
	lib.add(fnNS, "current-dateTime", 0, 0, nil, stAtom, fnCurrentDateTime)
	lib.add(fnNS, "current-date", 0, 0, nil, stAtom, fnCurrentDate)
	lib.add(fnNS, "current-time", 0, 0, nil, stAtom, fnCurrentTime)
	lib.add(fnNS, "implicit-timezone", 0, 0, nil, stAtom, fnImplicitTimezone)
	lib.add(fnNS, "dateTime", 2, 2, []SequenceType{atomicArg(typeDate, OccOptional), atomicArg(typeTime, OccOptional)}, stAtomOpt, fnDateTime)

	for _, spec := range []struct {
		name string
		kind *AtomicType
		get  func(Moment) Item
	}{
		{"year-from-dateTime", typeDateTime, momentYear},
		{"year-from-date", typeDate, momentYear},
		{"month-from-dateTime", typeDateTime, momentMonth},
		{"month-from-date", typeDate, momentMonth},
		{"day-from-dateTime", typeDateTime, momentDay},
		{"day-from-date", typeDate, momentDay},
		{"hours-from-dateTime", typeDateTime, momentHours},
		{"hours-from-time", typeTime, momentHours},
		{"minutes-from-dateTime", typeDateTime, momentMinutes},
		{"minutes-from-time", typeTime, momentMinutes},
		{"seconds-from-dateTime", typeDateTime, momentSeconds},
		{"seconds-from-time", typeTime, momentSeconds},
	} {
		get := spec.get
		lib.add(fnNS, spec.name, 1, 1,
			[]SequenceType{atomicArg(spec.kind, OccOptional)}, stAtomOpt,
			func(_ Context, args []Sequence) (Sequence, error) {
				if args[0].Empty() {
					return nil, nil
				}
				m, ok := args[0][0].Value().(Moment)
				if !ok {
					return nil, Errorf(CodeOperandType, "date/time value expected")
				}
				return Sequence{get(m)}, nil
			})
	}
	for _, spec := range []struct {
		name string
		get  func(Duration) Item
	}{
		{"years-from-duration", durationYears},
		{"months-from-duration", durationMonths},
		{"days-from-duration", durationDays},
		{"hours-from-duration", durationHours},
		{"minutes-from-duration", durationMinutes},
		{"seconds-from-duration", durationSeconds},
	} {
		get := spec.get
		lib.add(fnNS, spec.name, 1, 1,
			[]SequenceType{atomicArg(typeDuration, OccOptional)}, stAtomOpt,
			func(_ Context, args []Sequence) (Sequence, error) {
				if args[0].Empty() {
					return nil, nil
				}
				d, ok := args[0][0].Value().(Duration)
				if !ok {
					return nil, Errorf(CodeOperandType, "duration value expected")
				}
				return Sequence{get(d)}, nil
			})
	}
	for _, spec := range []struct {
		name string
		kind *AtomicType
	}{
		{"timezone-from-dateTime", typeDateTime},
		{"timezone-from-date", typeDate},
		{"timezone-from-time", typeTime},
	} {
		lib.add(fnNS, spec.name, 1, 1,
			[]SequenceType{atomicArg(spec.kind, OccOptional)}, stAtomOpt,
			fnTimezoneFrom)
	}
	for _, spec := range []struct {
		name string
		kind *AtomicType
	}{
		{"adjust-dateTime-to-timezone", typeDateTime},
		{"adjust-date-to-timezone", typeDate},
		{"adjust-time-to-timezone", typeTime},
	} {
		kind := spec.kind
		lib.add(fnNS, spec.name, 1, 2,
			[]SequenceType{atomicArg(kind, OccOptional), atomicArg(typeDayTime, OccOptional)}, stAtomOpt,
			func(ctx Context, args []Sequence) (Sequence, error) {
				return adjustTimezone(ctx, args, kind)
			})
	}
}

func fnCurrentDateTime(ctx Context, _ []Sequence) (Sequence, error) {
	return Sequence{createTyped(ctx.Now(), typeDateTime)}, nil
}

func fnCurrentDate(ctx Context, _ []Sequence) (Sequence, error) {
	now := ctx.Now()
	now.Time = truncateClock(now.Time)
	return Sequence{createTyped(now, typeDate)}, nil
}

func fnCurrentTime(ctx Context, _ []Sequence) (Sequence, error) {
	return Sequence{createTyped(ctx.Now(), typeTime)}, nil
}

func fnImplicitTimezone(ctx Context, _ []Sequence) (Sequence, error) {
	_, offset := time.Now().In(ctx.Location()).Zone()
	d := Duration{
		Secs: float64(offset),
	}
	return Sequence{createTyped(d, typeDayTime)}, nil
}

func fnDateTime(_ Context, args []Sequence) (Sequence, error) {
	if args[0].Empty() || args[1].Empty() {
		return nil, nil
	}
	d, ok1 := args[0][0].Value().(Moment)
	t, ok2 := args[1][0].Value().(Moment)
	if !ok1 || !ok2 {
		return nil, Errorf(CodeOperandType, "date and time values expected")
	}
	if d.Zoned && t.Zoned {
		_, od := d.Zone()
		_, ot := t.Zone()
		if od != ot {
			return nil, Errorf(CodeTimezone, "date and time have different timezones")
		}
	}
	var (
		loc   = d.Location()
		zoned = d.Zoned
	)
	if t.Zoned && !d.Zoned {
		loc = t.Location()
		zoned = true
	}
	m := Moment{
		Time: time.Date(d.Year(), d.Month(), d.Day(),
			t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc),
		Zoned: zoned,
	}
	return Sequence{createTyped(m, typeDateTime)}, nil
}

func momentYear(m Moment) Item    { return integerItem(int64(m.Year())) }
func momentMonth(m Moment) Item   { return integerItem(int64(m.Month())) }
func momentDay(m Moment) Item     { return integerItem(int64(m.Day())) }
func momentHours(m Moment) Item   { return integerItem(int64(m.Hour())) }
func momentMinutes(m Moment) Item { return integerItem(int64(m.Minute())) }

func momentSeconds(m Moment) Item {
	secs := decimal.NewFromInt(int64(m.Second()))
	if ns := m.Nanosecond(); ns != 0 {
		secs = secs.Add(decimal.New(int64(ns), -9))
	}
	return decimalItem(secs)
}

func durationYears(d Duration) Item  { return integerItem(d.Months / 12) }
func durationMonths(d Duration) Item { return integerItem(d.Months % 12) }

func durationDays(d Duration) Item {
	return integerItem(int64(d.Secs) / secsPerDay)
}

func durationHours(d Duration) Item {
	rem := math.Mod(d.Secs, secsPerDay)
	return integerItem(int64(rem) / secsPerHour)
}

func durationMinutes(d Duration) Item {
	rem := math.Mod(d.Secs, secsPerHour)
	return integerItem(int64(rem) / secsPerMinute)
}

func durationSeconds(d Duration) Item {
	rem := math.Mod(d.Secs, secsPerMinute)
	return decimalItem(decimal.NewFromFloat(rem))
}

func fnTimezoneFrom(_ Context, args []Sequence) (Sequence, error) {
	if args[0].Empty() {
		return nil, nil
	}
	m, ok := args[0][0].Value().(Moment)
	if !ok {
		return nil, Errorf(CodeOperandType, "date/time value expected")
	}
	if !m.Zoned {
		return nil, nil
	}
	_, offset := m.Zone()
	d := Duration{
		Secs: float64(offset),
	}
	return Sequence{createTyped(d, typeDayTime)}, nil
}

func adjustTimezone(ctx Context, args []Sequence, kind *AtomicType) (Sequence, error) {
	if args[0].Empty() {
		return nil, nil
	}
	m, ok := args[0][0].Value().(Moment)
	if !ok {
		return nil, Errorf(CodeOperandType, "date/time value expected")
	}
	var loc *time.Location
	if len(args) > 1 {
		if args[1].Empty() {
			// remove the timezone
			m.Zoned = false
			return Sequence{createTyped(m, kind)}, nil
		}
		d, ok := args[1][0].Value().(Duration)
		if !ok || d.Months != 0 {
			return nil, Errorf(CodeOperandType, "dayTimeDuration expected")
		}
		if math.Abs(d.Secs) > 14*secsPerHour {
			return nil, Errorf(CodeTimezone, "timezone out of range")
		}
		loc = time.FixedZone("", int(d.Secs))
	} else {
		loc = ctx.Location()
	}
	if m.Zoned {
		m.Time = m.Time.In(loc)
	} else {
		m = Moment{Time: m.Time, Zoned: false}.In(loc)
	}
	return Sequence{createTyped(m, kind)}, nil
}
