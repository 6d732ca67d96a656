package virkning

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	negativeInfinityLiteral = "-infinity"
	positiveInfinityLiteral = "infinity"
)

var ErrSentinelArithmetic = errors.New("virkning: infinity sentinels have no arithmetic or calendar value")

type kind int8

const (
	kindNegativeInfinity kind = -1
	kindFinite           kind = 0
	kindPositiveInfinity kind = 1
)

// TimePoint is a bound of a validity interval: a concrete instant or one of
// the two infinity sentinels. The zero value is the zero instant.
type TimePoint struct {
	kind kind
	t    time.Time
}

var (
	NegativeInfinity = TimePoint{kind: kindNegativeInfinity}
	PositiveInfinity = TimePoint{kind: kindPositiveInfinity}
)

func At(t time.Time) TimePoint {
	return TimePoint{kind: kindFinite, t: t}
}

// Date is a shorthand for midnight UTC on the given day.
func Date(year int, month time.Month, day int) TimePoint {
	return At(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

func (p TimePoint) IsNegativeInfinity() bool { return p.kind == kindNegativeInfinity }
func (p TimePoint) IsPositiveInfinity() bool { return p.kind == kindPositiveInfinity }
func (p TimePoint) IsFinite() bool           { return p.kind == kindFinite }

// Time returns the instant and true, or the zero time and false for sentinels.
func (p TimePoint) Time() (time.Time, bool) {
	if p.kind != kindFinite {
		return time.Time{}, false
	}
	return p.t, true
}

// Compare orders -infinity < every instant < infinity.
func (p TimePoint) Compare(o TimePoint) int {
	if p.kind != o.kind {
		if p.kind < o.kind {
			return -1
		}
		return 1
	}
	if p.kind != kindFinite {
		return 0
	}
	return p.t.Compare(o.t)
}

func (p TimePoint) Before(o TimePoint) bool { return p.Compare(o) < 0 }
func (p TimePoint) After(o TimePoint) bool  { return p.Compare(o) > 0 }
func (p TimePoint) Equal(o TimePoint) bool  { return p.Compare(o) == 0 }

func Min(a, b TimePoint) TimePoint {
	if b.Before(a) {
		return b
	}
	return a
}

func Max(a, b TimePoint) TimePoint {
	if b.After(a) {
		return b
	}
	return a
}

// Sub returns p-o. Both points must be finite.
func (p TimePoint) Sub(o TimePoint) (time.Duration, error) {
	if p.kind != kindFinite || o.kind != kindFinite {
		return 0, ErrSentinelArithmetic
	}
	return p.t.Sub(o.t), nil
}

// AddDate shifts a finite point by the given calendar offset.
func (p TimePoint) AddDate(years, months, days int) (TimePoint, error) {
	if p.kind != kindFinite {
		return p, ErrSentinelArithmetic
	}
	return At(p.t.AddDate(years, months, days)), nil
}

// Format renders a finite point with layout.
func (p TimePoint) Format(layout string) (string, error) {
	if p.kind != kindFinite {
		return "", ErrSentinelArithmetic
	}
	return p.t.Format(layout), nil
}

// String renders the wire form: "-infinity", "infinity" or RFC 3339.
func (p TimePoint) String() string {
	switch p.kind {
	case kindNegativeInfinity:
		return negativeInfinityLiteral
	case kindPositiveInfinity:
		return positiveInfinityLiteral
	default:
		return p.t.Format(time.RFC3339Nano)
	}
}

var parseLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05-07",
	"2006-01-02T15:04:05.999999999-07",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Parse accepts the sentinels, RFC 3339, LoRa's "2006-01-02 15:04:05-07"
// family and bare dates (UTC midnight).
func Parse(s string) (TimePoint, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "":
		return TimePoint{}, fmt.Errorf("virkning: missing time value")
	case negativeInfinityLiteral:
		return NegativeInfinity, nil
	case positiveInfinityLiteral, "+infinity":
		return PositiveInfinity, nil
	}
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return At(t), nil
		}
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, time.UTC); err == nil {
		return At(t), nil
	}
	return TimePoint{}, fmt.Errorf("virkning: invalid time %q", s)
}

func MustParse(s string) TimePoint {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p TimePoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *TimePoint) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("virkning: time point must be a string: %w", err)
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func (p TimePoint) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *TimePoint) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
