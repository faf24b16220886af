package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDateOf_UsesCalendarOfLocation(t *testing.T) {
	ny := MustLoadLocation("America/New_York")
	// 22:30 in New York is already the next day in UTC.
	ts := time.Date(2026, 10, 17, 22, 30, 0, 0, ny)

	got := DateOf(ts)

	assert.Equal(t, time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC), got)
}

func TestDaysBefore(t *testing.T) {
	ts := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-10-15", DaysBefore(ts, 3).Format(DateLayout))
	assert.Equal(t, "2026-10-11", DaysBefore(ts, 7).Format(DateLayout))
}

func TestParseDate(t *testing.T) {
	d, ok := ParseDate("2026-10-14")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC), d)

	d, ok = ParseDate("2026-10-14T00:00:00-04:00")
	assert.True(t, ok)
	assert.Equal(t, 14, d.Day())

	_, ok = ParseDate("")
	assert.False(t, ok)
	_, ok = ParseDate("14/10/2026")
	assert.False(t, ok)
}

func TestMustLoadLocation_Unknown(t *testing.T) {
	assert.Equal(t, time.UTC, MustLoadLocation("Mars/Olympus"))
	assert.Equal(t, time.UTC, MustLoadLocation(""))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab...", Truncate("abcdefgh", 5))
}

func TestIsPlaceholderTicker(t *testing.T) {
	for _, v := range []string{"", "  ", "NONE", "None", "none", "N.A.", "n.a."} {
		assert.True(t, IsPlaceholderTicker(v), v)
	}
	for _, v := range []string{"ACME", "NA", "N/A"} {
		assert.False(t, IsPlaceholderTicker(v), v)
	}
}
