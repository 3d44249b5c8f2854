package holiday

import (
	"time"

	"radiantbloom/internal/models"
)

// EasterSunday computes the Gregorian Easter Sunday for a year using the
// anonymous computus: Metonic cycle, century corrections, epact
// adjustment. Closed form, no iteration.
func EasterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// ForYear returns the closed calendar dates for the French public
// holiday list for one year, keyed as YYYY-MM-DD. Eleven dates: eight
// fixed plus Easter Monday, Ascension and Pentecost Monday.
func ForYear(year int) []string {
	easter := EasterSunday(year)

	dates := []time.Time{
		time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		easter.AddDate(0, 0, 1),  // Easter Monday
		time.Date(year, time.May, 1, 0, 0, 0, 0, time.UTC),
		time.Date(year, time.May, 8, 0, 0, 0, 0, time.UTC),
		easter.AddDate(0, 0, 39), // Ascension
		easter.AddDate(0, 0, 50), // Pentecost Monday
		time.Date(year, time.July, 14, 0, 0, 0, 0, time.UTC),
		time.Date(year, time.August, 15, 0, 0, 0, 0, time.UTC),
		time.Date(year, time.November, 1, 0, 0, 0, 0, time.UTC),
		time.Date(year, time.November, 11, 0, 0, 0, 0, time.UTC),
		time.Date(year, time.December, 25, 0, 0, 0, 0, time.UTC),
	}

	keys := make([]string, 0, len(dates))
	for _, d := range dates {
		keys = append(keys, d.Format(models.DateLayout))
	}
	return keys
}

// SetForRange returns the holiday date set covering [from, to]. Years
// [minYear-1, maxYear+1] are computed so movable feasts near year
// boundaries are never missed.
func SetForRange(from, to time.Time) map[string]struct{} {
	set := make(map[string]struct{})
	for year := from.Year() - 1; year <= to.Year()+1; year++ {
		for _, key := range ForYear(year) {
			set[key] = struct{}{}
		}
	}
	return set
}
