package virkning

import (
	"errors"
	"fmt"
)

var ErrMalformedInterval = errors.New("virkning: interval start must be before its end")

// Interval is a validity range. Unless built otherwise it is half open,
// [From, To).
type Interval struct {
	From         TimePoint
	To           TimePoint
	FromIncluded bool
	ToIncluded   bool
}

// New returns the half open interval [from, to).
func New(from, to TimePoint) Interval {
	return Interval{From: from, To: to, FromIncluded: true, ToIncluded: false}
}

// Always is (-infinity, infinity).
func Always() Interval {
	return New(NegativeInfinity, PositiveInfinity)
}

func (i Interval) IsEmpty() bool {
	return !i.From.Before(i.To)
}

// Validate rejects empty and inverted intervals; neither may be persisted.
func (i Interval) Validate() error {
	if i.IsEmpty() {
		return fmt.Errorf("%w: from=%s to=%s", ErrMalformedInterval, i.From, i.To)
	}
	return nil
}

func (i Interval) Overlaps(o Interval) bool {
	return i.From.Before(o.To) && o.From.Before(i.To)
}

// Intersect returns the common part of i and o, false when they do not overlap.
func (i Interval) Intersect(o Interval) (Interval, bool) {
	if !i.Overlaps(o) {
		return Interval{}, false
	}
	out := Interval{
		From:         i.From,
		FromIncluded: i.FromIncluded,
		To:           i.To,
		ToIncluded:   i.ToIncluded,
	}
	switch c := o.From.Compare(i.From); {
	case c > 0:
		out.From, out.FromIncluded = o.From, o.FromIncluded
	case c == 0:
		out.FromIncluded = i.FromIncluded && o.FromIncluded
	}
	switch c := o.To.Compare(i.To); {
	case c < 0:
		out.To, out.ToIncluded = o.To, o.ToIncluded
	case c == 0:
		out.ToIncluded = i.ToIncluded && o.ToIncluded
	}
	return out, true
}

// Contains reports whether t lies in [From, To).
func (i Interval) Contains(t TimePoint) bool {
	return !t.Before(i.From) && t.Before(i.To)
}

// Covers reports whether o lies completely within i.
func (i Interval) Covers(o Interval) bool {
	return !o.From.Before(i.From) && !o.To.After(i.To)
}

func (i Interval) String() string {
	left, right := "(", ")"
	if i.FromIncluded {
		left = "["
	}
	if i.ToIncluded {
		right = "]"
	}
	return left + i.From.String() + ", " + i.To.String() + right
}
