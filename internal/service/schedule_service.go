package service

import (
	"context"
	"fmt"
	"time"

	"radiantbloom/internal/domain"
	"radiantbloom/internal/models"
	"radiantbloom/internal/schedule"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ScheduleService manages the venue-wide operating window, ad-hoc
// closures and manual staff blocks.
type ScheduleService struct {
	store  domain.Store
	logger *zerolog.Logger
}

func NewScheduleService(store domain.Store, logger *zerolog.Logger) *ScheduleService {
	return &ScheduleService{store: store, logger: logger}
}

// GetOperatingSettings returns the stored schedule, or the venue
// defaults when nothing was configured yet.
func (s *ScheduleService) GetOperatingSettings(ctx context.Context) (*models.OperatingSettings, error) {
	settings, err := s.store.GetOperatingSettings(ctx)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		defaults := models.DefaultOperatingSettings()
		return &defaults, nil
	}
	return settings, nil
}

// UpdateOperatingSettings validates and persists the singleton schedule
// record. An inverted or unparseable window never reaches storage.
func (s *ScheduleService) UpdateOperatingSettings(ctx context.Context, settings models.OperatingSettings) (*models.OperatingSettings, error) {
	if _, err := schedule.New(settings, nil, nil); err != nil {
		return nil, err
	}

	saved, err := s.store.UpsertOperatingSettings(ctx, settings)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("open", saved.OpenTime).
		Str("close", saved.CloseTime).
		Str("timezone", saved.Timezone).
		Msg("operating settings updated")
	return saved, nil
}

func (s *ScheduleService) ListClosedDays(ctx context.Context, from, to string) ([]models.ClosedDay, error) {
	return s.store.ListClosedDays(ctx, from, to)
}

// AddClosedDay registers a full-day closure for one calendar date.
func (s *ScheduleService) AddClosedDay(ctx context.Context, closedOn, reason string) (*models.ClosedDay, error) {
	if _, err := time.Parse(models.DateLayout, closedOn); err != nil {
		return nil, fmt.Errorf("%w: closed_on must be YYYY-MM-DD", ErrInvalidRequest)
	}

	day := &models.ClosedDay{
		ID:       uuid.NewString(),
		ClosedOn: closedOn,
		Reason:   reason,
	}
	if err := s.store.AddClosedDay(ctx, day); err != nil {
		return nil, err
	}

	s.logger.Info().Str("closed_on", closedOn).Msg("closed day added")
	return day, nil
}

func (s *ScheduleService) RemoveClosedDay(ctx context.Context, id string) error {
	return s.store.RemoveClosedDay(ctx, id)
}

// AddAvailabilityBlock records a manual staff time block.
func (s *ScheduleService) AddAvailabilityBlock(ctx context.Context, block *models.AvailabilityBlock) error {
	switch block.Kind {
	case models.BlockKindShift, models.BlockKindBreak, models.BlockKindAway:
	default:
		return fmt.Errorf("%w: unknown block kind %q", ErrInvalidRequest, block.Kind)
	}
	if !block.EndsAt.After(block.StartsAt) {
		return fmt.Errorf("%w: block must end after it starts", ErrInvalidRequest)
	}
	return s.store.CreateAvailabilityBlock(ctx, block)
}
