package availability

import (
	"context"
	"fmt"
	"sort"
	"time"

	"radiantbloom/internal/domain"
	"radiantbloom/internal/holiday"
	"radiantbloom/internal/models"
	"radiantbloom/internal/schedule"

	"github.com/rs/zerolog"
)

// Matrix maps a date key to a time label to the staff ids free at that
// exact slot. A slot is published when at least one staff member is
// free; the ids are kept so confirmation can pick one deterministically.
type Matrix map[string]map[string][]int64

// Result is the full availability answer for a service over a range.
type Result struct {
	Service *models.Service
	Matrix  Matrix
	From    time.Time
	To      time.Time
}

// StaffAt returns the eligible staff ids for an exact date/time key,
// in ascending id order.
func (r *Result) StaffAt(dateKey, timeLabel string) []int64 {
	day, ok := r.Matrix[dateKey]
	if !ok {
		return nil
	}
	return day[timeLabel]
}

// Builder orchestrates the calendar, busy-interval index and slot
// generator into the date -> time -> staff matrix.
type Builder struct {
	store  domain.Store
	logger zerolog.Logger
	now    func() time.Time
}

func NewBuilder(store domain.Store, logger *zerolog.Logger) *Builder {
	return &Builder{
		store:  store,
		logger: logger.With().Str("component", "availability").Logger(),
		now:    time.Now,
	}
}

// Build computes availability for a service over [from, to]. Zero from
// defaults to today start-of-day venue time; zero to defaults to from
// plus the standard horizon. Non-zero bounds are pinned to midnight of
// their calendar date in the venue timezone. The range is clamped to
// MaxRangeDays.
func (b *Builder) Build(ctx context.Context, service *models.Service, from, to time.Time) (*Result, error) {
	if service.DurationMinutes <= 0 {
		return nil, fmt.Errorf("service %q has non-positive duration", service.Slug)
	}

	staff, err := b.resolveStaff(ctx, service)
	if err != nil {
		return nil, err
	}

	cal, err := b.loadCalendar(ctx, from, to)
	if err != nil {
		return nil, err
	}

	from, to = normalizeRange(cal, b.now(), from, to)

	holidays := holiday.SetForRange(from, to)
	closures, err := b.store.ListClosedDays(ctx,
		from.In(cal.Location()).Format(models.DateLayout),
		to.In(cal.Location()).Format(models.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("load closed days: %w", err)
	}

	// Rebuild with the range-scoped holiday and closure sets.
	cal, err = schedule.New(cal.Settings(), holidays, closures)
	if err != nil {
		return nil, err
	}

	result := &Result{Service: service, Matrix: make(Matrix), From: from, To: to}
	if len(staff) == 0 {
		// No active staff at all: empty matrix means no capacity.
		return result, nil
	}

	staffIDs := make([]int64, 0, len(staff))
	for _, s := range staff {
		staffIDs = append(staffIDs, s.ID)
	}
	sort.Slice(staffIDs, func(i, j int) bool { return staffIDs[i] < staffIDs[j] })

	bookings, err := b.store.ListBusyBookings(ctx, staffIDs, from, to.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("load busy bookings: %w", err)
	}
	blocks, err := b.store.ListBusyBlocks(ctx, staffIDs, from, to.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("load busy blocks: %w", err)
	}
	busy := BuildBusyIndex(bookings, blocks)

	step := service.Duration()
	loc := cal.Location()

	for day := from.In(loc); !day.After(to.In(loc)); day = day.AddDate(0, 0, 1) {
		window, open := cal.DayWindow(day)
		if !open {
			continue
		}

		dateKey := day.Format(models.DateLayout)
		for _, staffID := range staffIDs {
			for _, slot := range GenerateSlots(window, step, busy[staffID]) {
				label := slot.Start.In(loc).Format(models.ClockLayout)
				if result.Matrix[dateKey] == nil {
					result.Matrix[dateKey] = make(map[string][]int64)
				}
				result.Matrix[dateKey][label] = append(result.Matrix[dateKey][label], staffID)
			}
		}
	}

	b.logger.Debug().
		Str("service", service.Slug).
		Time("from", from).
		Time("to", to).
		Int("staff", len(staffIDs)).
		Int("open_days", len(result.Matrix)).
		Msg("availability matrix built")

	return result, nil
}

// resolveStaff returns the eligible staff for a service. A service with
// no assignments yet bootstraps to all active staff, persisting the
// links so the next call reads them back identically.
func (b *Builder) resolveStaff(ctx context.Context, service *models.Service) ([]*models.Staff, error) {
	assigned, err := b.store.ListStaffForService(ctx, service.ID)
	if err != nil {
		return nil, fmt.Errorf("load staff roster: %w", err)
	}
	if len(assigned) > 0 {
		return assigned, nil
	}

	active, err := b.store.ListActiveStaff(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active staff: %w", err)
	}
	if len(active) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(active))
	for _, s := range active {
		ids = append(ids, s.ID)
	}
	if err := b.store.LinkStaffToService(ctx, service.ID, ids); err != nil {
		return nil, fmt.Errorf("bootstrap staff assignments: %w", err)
	}

	b.logger.Info().
		Str("service", service.Slug).
		Int("staff", len(ids)).
		Msg("bootstrap-assigned all active staff to service")

	return active, nil
}

// loadCalendar resolves operating settings once per request. A missing
// record falls back to venue defaults; a broken record is a
// configuration error and is never masked as an empty schedule.
func (b *Builder) loadCalendar(ctx context.Context, from, to time.Time) (*schedule.Calendar, error) {
	settings, err := b.store.GetOperatingSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load operating settings: %w", err)
	}
	if settings == nil {
		defaults := models.DefaultOperatingSettings()
		settings = &defaults
	}
	return schedule.New(*settings, nil, nil)
}

func normalizeRange(cal *schedule.Calendar, now, from, to time.Time) (time.Time, time.Time) {
	loc := cal.Location()
	if from.IsZero() {
		from = cal.StartOfToday(now)
	} else {
		from = rebaseDay(from, loc)
	}
	if to.IsZero() {
		to = from.AddDate(0, 0, models.DefaultRangeDays)
	} else {
		to = rebaseDay(to, loc)
	}
	if to.Before(from) {
		to = from
	}
	if ceiling := from.AddDate(0, 0, models.MaxRangeDays); to.After(ceiling) {
		to = ceiling
	}
	return from, to
}

// rebaseDay pins a bare date to midnight of the same calendar date in
// the venue timezone. Date params arrive parsed as UTC midnight, so for
// venues west of UTC the raw instant falls on the previous local day.
func rebaseDay(t time.Time, loc *time.Location) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}
