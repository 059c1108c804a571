package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DefaultDayLayout renders day buckets as "Jun 3".
const DefaultDayLayout = "Jan 2"

// TimeRange is an inclusive [Start, End] window.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies within the inclusive range.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Calendar maps timestamps onto day buckets.
//
// Every day label in the system (history fetches, live events, day-scoped
// deletes) comes from the same Calendar instance, which is built from the
// server's configured zone. Clients never compute labels themselves.
type Calendar struct {
	loc    *time.Location
	layout string
}

// NewCalendar returns a calendar in loc (time.Local when nil) rendering
// labels with layout (DefaultDayLayout when empty).
func NewCalendar(loc *time.Location, layout string) Calendar {
	if loc == nil {
		loc = time.Local
	}
	if layout == "" {
		layout = DefaultDayLayout
	}
	return Calendar{loc: loc, layout: layout}
}

// Location returns the calendar's zone.
func (c Calendar) Location() *time.Location {
	if c.loc == nil {
		return time.Local
	}
	return c.loc
}

// Label returns the day bucket key for t.
func (c Calendar) Label(t time.Time) string {
	layout := c.layout
	if layout == "" {
		layout = DefaultDayLayout
	}
	return t.In(c.Location()).Format(layout)
}

// StartOfDay returns local midnight of t's day.
func (c Calendar) StartOfDay(t time.Time) time.Time {
	local := t.In(c.Location())
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.Location())
}

// EndOfDay returns the last millisecond of t's day. AddDate keeps this
// correct across DST transitions where a day is not 24h long.
func (c Calendar) EndOfDay(t time.Time) time.Time {
	return c.StartOfDay(t).AddDate(0, 0, 1).Add(-time.Millisecond)
}

// Bounds returns the inclusive window of t's day.
func (c Calendar) Bounds(t time.Time) TimeRange {
	return TimeRange{Start: c.StartOfDay(t), End: c.EndOfDay(t)}
}

// jsDateSuffix matches the "(Central European Summer Time)" tail that
// JavaScript appends to Date.prototype.toString().
var jsDateSuffix = regexp.MustCompile(`\s*\([^)]*\)\s*$`)

// ParseDay parses the `date` parameter of a day-scoped delete. It accepts
// a plain date (interpreted in the calendar's zone), RFC 3339 timestamps
// and the output of JavaScript's Date.toString().
func (c Calendar) ParseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty date", ErrInvalidInput)
	}

	if t, err := time.ParseInLocation("2006-01-02", s, c.Location()); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}

	js := jsDateSuffix.ReplaceAllString(s, "")
	js = strings.Replace(js, "GMT", "", 1)
	if t, err := time.Parse("Mon Jan 02 2006 15:04:05 -0700", js); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("%w: unrecognized date %q", ErrInvalidInput, s)
}
