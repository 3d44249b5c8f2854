package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"radiantbloom/internal/models"
)

// ErrInvalidSchedule signals a broken operating-hours configuration.
// The calendar never masks this as an empty day: callers must surface it.
var ErrInvalidSchedule = errors.New("operating hours misconfigured: open_time must be before close_time")

// Window is the absolute business window of one open day.
type Window struct {
	Open  time.Time
	Close time.Time
}

// Calendar decides open/closed per calendar date and resolves the
// absolute opening and closing instants in the venue timezone.
type Calendar struct {
	settings models.OperatingSettings
	location *time.Location
	holidays map[string]struct{}
	closures map[string]string // date key -> reason
}

// New builds a calendar from operating settings, a precomputed holiday
// set and the ad-hoc closures covering the query range. Empty settings
// fields fall back to the venue defaults.
func New(settings models.OperatingSettings, holidays map[string]struct{}, closures []models.ClosedDay) (*Calendar, error) {
	defaults := models.DefaultOperatingSettings()
	if strings.TrimSpace(settings.OpenTime) == "" {
		settings.OpenTime = defaults.OpenTime
	}
	if strings.TrimSpace(settings.CloseTime) == "" {
		settings.CloseTime = defaults.CloseTime
	}
	if strings.TrimSpace(settings.Timezone) == "" {
		settings.Timezone = defaults.Timezone
	}

	openH, openM, err := parseClock(settings.OpenTime)
	if err != nil {
		return nil, fmt.Errorf("parse open_time: %w", err)
	}
	closeH, closeM, err := parseClock(settings.CloseTime)
	if err != nil {
		return nil, fmt.Errorf("parse close_time: %w", err)
	}
	if openH*60+openM >= closeH*60+closeM {
		return nil, ErrInvalidSchedule
	}

	loc, err := time.LoadLocation(settings.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load venue timezone %q: %w", settings.Timezone, err)
	}

	closureLookup := make(map[string]string, len(closures))
	for _, c := range closures {
		closureLookup[c.ClosedOn] = c.Reason
	}

	if holidays == nil {
		holidays = map[string]struct{}{}
	}

	return &Calendar{
		settings: settings,
		location: loc,
		holidays: holidays,
		closures: closureLookup,
	}, nil
}

// Location returns the venue timezone.
func (c *Calendar) Location() *time.Location {
	return c.location
}

// Settings returns the resolved operating settings.
func (c *Calendar) Settings() models.OperatingSettings {
	return c.settings
}

// IsOpen reports whether the venue is open on the given calendar date.
// Weekends, public holidays and ad-hoc closures are closed.
func (c *Calendar) IsOpen(date time.Time) bool {
	weekday := date.In(c.location).Weekday()
	if weekday == time.Saturday || weekday == time.Sunday {
		return false
	}
	key := date.In(c.location).Format(models.DateLayout)
	if _, ok := c.holidays[key]; ok {
		return false
	}
	if _, ok := c.closures[key]; ok {
		return false
	}
	return true
}

// DayWindow resolves the absolute business window for one date. The
// second return value is false when the venue is closed that day.
func (c *Calendar) DayWindow(date time.Time) (Window, bool) {
	if !c.IsOpen(date) {
		return Window{}, false
	}

	local := date.In(c.location)
	openH, openM, _ := parseClock(c.settings.OpenTime)
	closeH, closeM, _ := parseClock(c.settings.CloseTime)

	open := time.Date(local.Year(), local.Month(), local.Day(), openH, openM, 0, 0, c.location)
	close := time.Date(local.Year(), local.Month(), local.Day(), closeH, closeM, 0, 0, c.location)
	return Window{Open: open, Close: close}, true
}

// At combines a calendar date key and a wall-clock label into an
// absolute instant in the venue timezone.
func (c *Calendar) At(dateKey, clock string) (time.Time, error) {
	day, err := time.ParseInLocation(models.DateLayout, dateKey, c.location)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", dateKey, err)
	}
	h, m, err := parseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, c.location), nil
}

// StartOfToday returns the current date at midnight venue time.
func (c *Calendar) StartOfToday(now time.Time) time.Time {
	local := now.In(c.location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.location)
}

func parseClock(value string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q: expected HH:MM", value)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", value)
	}
	return hour, minute, nil
}
