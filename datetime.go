package xpath

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Moment is the value of the date/time family of types. Zoned records
// whether the lexical form carried a timezone; comparisons of unzoned
// values apply the implicit timezone of the evaluation context.
type Moment struct {
	time.Time
	Zoned bool
}

func (m Moment) In(loc *time.Location) Moment {
	if m.Zoned {
		return m
	}
	_, offset := m.Time.Zone()
	if offset == 0 {
		m.Time = time.Date(m.Year(), m.Month(), m.Day(), m.Hour(), m.Minute(), m.Second(), m.Nanosecond(), loc)
	}
	m.Zoned = true
	return m
}

func (m Moment) Compare(other Moment, loc *time.Location) int {
	var (
		a = m.In(loc).Time
		b = other.In(loc).Time
	)
	return a.Compare(b)
}

// Duration is the value of xs:duration and its two subtypes: a month
// part and a seconds part, each signed.
type Duration struct {
	Months int64
	Secs   float64
}

func (d Duration) Add(other Duration) Duration {
	return Duration{
		Months: d.Months + other.Months,
		Secs:   d.Secs + other.Secs,
	}
}

func (d Duration) Neg() Duration {
	return Duration{
		Months: -d.Months,
		Secs:   -d.Secs,
	}
}

func (d Duration) Scale(by float64) (Duration, error) {
	if math.IsNaN(by) {
		return d, Errorf(CodeDuration, "duration can not be multiplied by NaN")
	}
	if math.IsInf(by, 0) {
		return d, Errorf(CodeDuration, "duration overflow")
	}
	return Duration{
		Months: int64(math.Round(float64(d.Months) * by)),
		Secs:   d.Secs * by,
	}, nil
}

func (d Duration) Zero() bool {
	return d.Months == 0 && d.Secs == 0
}

func (d Duration) Negative() bool {
	return d.Months < 0 || (d.Months == 0 && d.Secs < 0)
}

const (
	secsPerMinute = 60
	secsPerHour   = 3600
	secsPerDay    = 86400
)

func parseDuration(str string) (Duration, error) {
	var (
		d    Duration
		neg  bool
		rest = str
	)
	if strings.HasPrefix(rest, "-") {
		neg = true
		rest = rest[1:]
	}
	if !strings.HasPrefix(rest, "P") {
		return d, Errorf(CodeCast, "%s: invalid duration", str)
	}
	rest = rest[1:]
	date, clock, hasTime := strings.Cut(rest, "T")
	if hasTime && clock == "" {
		return d, Errorf(CodeCast, "%s: invalid duration", str)
	}
	if date == "" && !hasTime {
		return d, Errorf(CodeCast, "%s: invalid duration", str)
	}
	var seen bool
	take := func(part *string, unit byte) (float64, bool, error) {
		i := strings.IndexByte(*part, unit)
		if i < 0 {
			return 0, false, nil
		}
		lit := (*part)[:i]
		*part = (*part)[i+1:]
		v, err := strconv.ParseFloat(lit, 64)
		if err != nil || lit == "" {
			return 0, false, Errorf(CodeCast, "%s: invalid duration", str)
		}
		return v, true, nil
	}
	for _, u := range []struct {
		unit byte
		mult float64
		ym   bool
	}{
		{'Y', 12, true},
		{'M', 1, true},
		{'D', secsPerDay, false},
	} {
		v, ok, err := take(&date, u.unit)
		if err != nil {
			return d, err
		}
		if !ok {
			continue
		}
		seen = true
		if v != math.Trunc(v) {
			return d, Errorf(CodeCast, "%s: invalid duration", str)
		}
		if u.ym {
			d.Months += int64(v * u.mult)
		} else {
			d.Secs += v * u.mult
		}
	}
	if date != "" {
		return d, Errorf(CodeCast, "%s: invalid duration", str)
	}
	for _, u := range []struct {
		unit byte
		mult float64
	}{
		{'H', secsPerHour},
		{'M', secsPerMinute},
		{'S', 1},
	} {
		v, ok, err := take(&clock, u.unit)
		if err != nil {
			return d, err
		}
		if !ok {
			continue
		}
		seen = true
		if u.unit != 'S' && v != math.Trunc(v) {
			return d, Errorf(CodeCast, "%s: invalid duration", str)
		}
		d.Secs += v * u.mult
	}
	if clock != "" || !seen {
		return d, Errorf(CodeCast, "%s: invalid duration", str)
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

func formatDuration(d Duration) string {
	if d.Zero() {
		return "PT0S"
	}
	var str strings.Builder
	if d.Negative() {
		str.WriteByte('-')
		d = d.Neg()
	}
	str.WriteByte('P')
	if y := d.Months / 12; y > 0 {
		fmt.Fprintf(&str, "%dY", y)
	}
	if m := d.Months % 12; m > 0 {
		fmt.Fprintf(&str, "%dM", m)
	}
	secs := d.Secs
	if days := math.Floor(secs / secsPerDay); days > 0 {
		fmt.Fprintf(&str, "%dD", int64(days))
		secs -= days * secsPerDay
	}
	if secs > 0 {
		str.WriteByte('T')
		if h := math.Floor(secs / secsPerHour); h > 0 {
			fmt.Fprintf(&str, "%dH", int64(h))
			secs -= h * secsPerHour
		}
		if m := math.Floor(secs / secsPerMinute); m > 0 {
			fmt.Fprintf(&str, "%dM", int64(m))
			secs -= m * secsPerMinute
		}
		if secs > 0 {
			str.WriteString(formatSeconds(secs))
			str.WriteByte('S')
		}
	}
	return str.String()
}

func formatSeconds(secs float64) string {
	str := strconv.FormatFloat(secs, 'f', -1, 64)
	return str
}

// lexical layouts per temporal type
var momentLayouts = map[*AtomicType][]string{
	typeDateTime:   {"2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05"},
	typeStamp:      {"2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05"},
	typeDate:       {"2006-01-02"},
	typeTime:       {"15:04:05.999999999", "15:04:05"},
	typeGYear:      {"2006"},
	typeGYearMonth: {"2006-01"},
	typeGMonth:     {"--01"},
	typeGDay:       {"---02"},
	typeGMonthDay:  {"--01-02"},
}

func parseMoment(str string, kind *AtomicType) (Moment, error) {
	var m Moment
	layouts, ok := momentLayouts[kind]
	if !ok {
		return m, Errorf(CodeCast, "%s: not a date/time type", kind)
	}
	rest, zone, zoned, err := splitTimezone(str)
	if err != nil {
		return m, err
	}
	if kind == typeStamp && !zoned {
		return m, Errorf(CodeCast, "%s: dateTimeStamp requires a timezone", str)
	}
	for _, layout := range layouts {
		t, err := time.ParseInLocation(layout, rest, zone)
		if err != nil {
			continue
		}
		m.Time = t
		m.Zoned = zoned
		return m, nil
	}
	return m, Errorf(CodeCast, "%s: invalid %s", str, kind)
}

func splitTimezone(str string) (string, *time.Location, bool, error) {
	if strings.HasSuffix(str, "Z") {
		return strings.TrimSuffix(str, "Z"), time.UTC, true, nil
	}
	// a timezone is exactly the 6 final bytes, sign hour colon minute;
	// the colon distinguishes it from a date component
	if i := len(str) - 6; i > 0 && (str[i] == '+' || str[i] == '-') && str[i+3] == ':' {
		h, err1 := strconv.Atoi(str[i+1 : i+3])
		m, err2 := strconv.Atoi(str[i+4 : i+6])
		if err1 != nil || err2 != nil || h > 14 || m > 59 {
			return "", nil, false, Errorf(CodeTimezone, "%s: invalid timezone", str)
		}
		offset := h*secsPerHour + m*secsPerMinute
		if str[i] == '-' {
			offset = -offset
		}
		return str[:i], time.FixedZone("", offset), true, nil
	}
	return str, time.UTC, false, nil
}

func formatMoment(m Moment, kind *AtomicType) string {
	layout := momentLayouts[kind][0]
	str := m.Format(layout)
	if m.Zoned {
		_, offset := m.Zone()
		if offset == 0 {
			str += "Z"
		} else {
			str += m.Format("-07:00")
		}
	}
	return str
}

// addMonths shifts a moment by whole months, clamping the day to the
// end of the target month: 2024-02-29 plus one year is 2025-02-28.
func addMonths(m Moment, months int64) Moment {
	var (
		y     = m.Year()
		mo    = int64(m.Month()) - 1 + months
		day   = m.Day()
	)
	y += int(mo / 12)
	mo = mo % 12
	if mo < 0 {
		mo += 12
		y--
	}
	if last := daysIn(y, time.Month(mo+1)); day > last {
		day = last
	}
	t := time.Date(y, time.Month(mo+1), day, m.Hour(), m.Minute(), m.Second(), m.Nanosecond(), m.Location())
	return Moment{Time: t, Zoned: m.Zoned}
}

func addSeconds(m Moment, secs float64) Moment {
	d := time.Duration(secs * float64(time.Second))
	return Moment{Time: m.Time.Add(d), Zoned: m.Zoned}
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// momentDiff gives the dayTimeDuration between two moments.
func momentDiff(left, right Moment, loc *time.Location) Duration {
	var (
		a = left.In(loc).Time
		b = right.In(loc).Time
	)
	return Duration{
		Secs: a.Sub(b).Seconds(),
	}
}
