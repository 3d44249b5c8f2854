package holiday

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEasterSunday(t *testing.T) {
	// Known Easter dates.
	cases := []struct {
		year  int
		month time.Month
		day   int
	}{
		{2024, time.March, 31},
		{2025, time.April, 20},
		{2026, time.April, 5},
		{2027, time.March, 28},
		{2038, time.April, 25}, // latest possible in the cycle for this era
	}

	for _, tc := range cases {
		got := EasterSunday(tc.year)
		assert.Equal(t, tc.year, got.Year())
		assert.Equal(t, tc.month, got.Month(), "year %d", tc.year)
		assert.Equal(t, tc.day, got.Day(), "year %d", tc.year)
	}
}

func TestForYearDeterministic(t *testing.T) {
	first := ForYear(2025)
	second := ForYear(2025)
	require.Len(t, first, 11)
	assert.Equal(t, first, second)
}

func TestForYearMovableFeasts(t *testing.T) {
	dates := ForYear(2025)
	set := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		set[d] = struct{}{}
	}

	// Easter Sunday 2025 is April 20.
	assert.Contains(t, set, "2025-04-21") // Easter Monday, +1
	assert.Contains(t, set, "2025-05-29") // Ascension, +39
	assert.Contains(t, set, "2025-06-09") // Pentecost Monday, +50

	for _, fixed := range []string{
		"2025-01-01", "2025-05-01", "2025-05-08", "2025-07-14",
		"2025-08-15", "2025-11-01", "2025-11-11", "2025-12-25",
	} {
		assert.Contains(t, set, fixed)
	}
}

func TestSetForRangeCoversAdjacentYears(t *testing.T) {
	from := time.Date(2025, time.December, 28, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.January, 4, 0, 0, 0, 0, time.UTC)

	set := SetForRange(from, to)

	// Both years plus one on each side.
	assert.Contains(t, set, "2024-12-25")
	assert.Contains(t, set, "2025-12-25")
	assert.Contains(t, set, "2026-01-01")
	assert.Contains(t, set, "2027-07-14")
}
