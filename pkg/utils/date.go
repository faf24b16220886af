package utils

import (
	"log"
	"time"
)

const DateLayout = "2006-01-02"

// MustLoadLocation loads an IANA zone, falling back to UTC when the name is unknown.
func MustLoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("Failed to load location %q, using UTC: %v", name, err)
		return time.UTC
	}
	return loc
}

// NowIn returns a clock that reports the current time in loc.
func NowIn(loc *time.Location) func() time.Time {
	return func() time.Time {
		return time.Now().In(loc)
	}
}

// DateOf returns midnight UTC of t's calendar date in t's own location.
// Stored dates always go through DateOf so comparisons do not depend on the zone.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBefore returns the calendar date n days before t.
func DaysBefore(t time.Time, n int) time.Time {
	return DateOf(t).AddDate(0, 0, -n)
}

// ParseDate accepts "2006-01-02" optionally followed by a time part.
func ParseDate(s string) (time.Time, bool) {
	if len(s) < len(DateLayout) {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, s[:len(DateLayout)])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
