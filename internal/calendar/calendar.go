// Package calendar models inclusive ranges of calendar days. A day is
// represented by midnight UTC of its date, whatever zone it was observed in.
package calendar

import (
	"errors"
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

var ErrInvalidRange = errors.New("range start is after range end")

// DateOf drops the clock of t and keeps t's own calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Day returns the calendar date that the instant t falls on in loc.
func Day(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(t.In(loc))
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return DateOf(t).Format(DateLayout)
}

// Range is an inclusive span of days. Start and End are both claimed.
type Range struct {
	Start time.Time
	End   time.Time
}

func NewRange(start, end time.Time) (Range, error) {
	start, end = DateOf(start), DateOf(end)
	if start.After(end) {
		return Range{}, fmt.Errorf("%w: %s > %s", ErrInvalidRange, FormatDate(start), FormatDate(end))
	}
	return Range{Start: start, End: end}, nil
}

// Overlaps reports whether the two ranges share at least one day. Ranges that
// only touch at a boundary day overlap.
func Overlaps(a, b Range) bool {
	return !a.Start.After(b.End) && !a.End.Before(b.Start)
}

func (r Range) Overlaps(other Range) bool {
	return Overlaps(r, other)
}

func (r Range) Contains(day time.Time) bool {
	day = DateOf(day)
	return !day.Before(r.Start) && !day.After(r.End)
}

// Days returns the number of days in the range, counting both ends.
func (r Range) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

func (r Range) String() string {
	return FormatDate(r.Start) + ".." + FormatDate(r.End)
}
