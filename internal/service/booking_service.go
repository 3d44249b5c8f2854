package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"radiantbloom/internal/availability"
	"radiantbloom/internal/database"
	"radiantbloom/internal/domain"
	"radiantbloom/internal/events"
	"radiantbloom/internal/models"
	"radiantbloom/internal/schedule"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrInvalidRequest covers malformed customer input.
	ErrInvalidRequest = errors.New("invalid booking request")
	// ErrPastSlot rejects bookings for instants already behind us.
	ErrPastSlot = errors.New("requested slot is in the past")
	// ErrSlotUnavailable means the requested slot is not on the published grid.
	ErrSlotUnavailable = errors.New("requested slot is not available")
)

// slotLockTTL caps how long a confirmation may hold the advisory lock.
const slotLockTTL = 15 * time.Second

// CreateBookingRequest is the public reservation payload.
type CreateBookingRequest struct {
	ServiceSlug   string `json:"service_slug"`
	Date          string `json:"date"` // YYYY-MM-DD
	Time          string `json:"time"` // HH:MM
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone,omitempty"`
	CustomerNotes string `json:"customer_notes,omitempty"`
}

type BookingService struct {
	store      domain.Store
	builder    *availability.Builder
	locker     domain.SlotLocker
	eventBus   domain.EventPublisher
	syncWorker domain.SyncWorker
	logger     *zerolog.Logger
	now        func() time.Time
}

func NewBookingService(store domain.Store, builder *availability.Builder, locker domain.SlotLocker, eventBus domain.EventPublisher, syncWorker domain.SyncWorker, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		store:      store,
		builder:    builder,
		locker:     locker,
		eventBus:   eventBus,
		syncWorker: syncWorker,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateBooking confirms a public reservation. The requested slot is
// re-validated against a freshly built single-day matrix, then inserted
// under the advisory slot lock. The first eligible staff id (ascending)
// takes the appointment.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*models.Booking, error) {
	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}

	svc, err := s.store.GetServiceBySlug(ctx, strings.TrimSpace(req.ServiceSlug))
	if err != nil {
		return nil, err
	}

	cal, err := s.loadCalendar(ctx)
	if err != nil {
		return nil, err
	}

	start, err := cal.At(req.Date, req.Time)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if start.Before(s.now()) {
		return nil, ErrPastSlot
	}
	end := start.Add(svc.Duration())

	dayStart, err := cal.At(req.Date, "00:00")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	result, err := s.builder.Build(ctx, svc, dayStart, dayStart)
	if err != nil {
		return nil, err
	}
	staffIDs := result.StaffAt(req.Date, req.Time)
	if len(staffIDs) == 0 {
		return nil, ErrSlotUnavailable
	}
	staffID := staffIDs[0]

	code, err := generateConfirmationCode()
	if err != nil {
		return nil, fmt.Errorf("generate confirmation code: %w", err)
	}

	booking := &models.Booking{
		ConfirmationCode: code,
		PublicToken:      uuid.NewString(),
		ServiceID:        svc.ID,
		ServiceName:      svc.Name,
		StaffID:          staffID,
		Status:           models.StatusPending,
		StartTime:        start,
		EndTime:          end,
		CustomerName:     strings.TrimSpace(req.CustomerName),
		CustomerEmail:    strings.ToLower(strings.TrimSpace(req.CustomerEmail)),
		CustomerPhone:    strings.TrimSpace(req.CustomerPhone),
		CustomerNotes:    strings.TrimSpace(req.CustomerNotes),
	}

	lockKey := slotLockKey(staffID, start)
	acquired, err := s.locker.TryLock(ctx, lockKey, slotLockTTL)
	if err != nil {
		// Деградация блокировки не должна останавливать запись:
		// транзакция и уникальный индекс всё равно защищают слот.
		s.logger.Warn().Err(err).Str("key", lockKey).Msg("slot lock unavailable, relying on db constraints")
	} else if !acquired {
		return nil, ErrSlotUnavailable
	} else {
		defer func() {
			if err := s.locker.Unlock(context.WithoutCancel(ctx), lockKey); err != nil {
				s.logger.Warn().Err(err).Str("key", lockKey).Msg("failed to release slot lock")
			}
		}()
	}

	if err := s.store.CreateBookingWithLock(ctx, booking); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("booking_id", booking.ID).
		Str("code", booking.ConfirmationCode).
		Str("service", svc.Slug).
		Int64("staff_id", staffID).
		Time("start", start).
		Msg("booking created")

	s.publishEvent(events.EventBookingCreated, booking, "customer")
	s.enqueueSync(ctx, booking, "upsert")

	return booking, nil
}

// UpdateBookingStatus applies a staff-initiated status transition with
// an optimistic version check.
func (s *BookingService) UpdateBookingStatus(ctx context.Context, id, version int64, status, internalNote string) (*models.Booking, error) {
	booking, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(booking.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", database.ErrInvalidTransition, booking.Status, status)
	}

	booking.Status = status
	if internalNote != "" {
		booking.InternalNote = internalNote
	}
	booking.Version = version
	if err := s.store.UpdateBooking(ctx, booking); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("booking_id", booking.ID).
		Str("status", status).
		Msg("booking status updated")

	s.publishEvent(statusEvent(status), booking, "staff")
	s.enqueueSync(ctx, booking, "update_status")

	return booking, nil
}

// RescheduleBooking moves an active booking to a new start instant
// and, optionally, another staff member. The end time is recomputed
// from the booked duration.
func (s *BookingService) RescheduleBooking(ctx context.Context, id, version int64, staffID int64, start time.Time) (*models.Booking, error) {
	booking, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !booking.IsActive() {
		return nil, fmt.Errorf("%w: cannot reschedule a %s booking", database.ErrInvalidTransition, booking.Status)
	}

	duration := booking.EndTime.Sub(booking.StartTime)
	booking.StartTime = start
	booking.EndTime = start.Add(duration)
	if staffID != 0 {
		booking.StaffID = staffID
	}
	booking.Version = version
	if err := s.store.UpdateBooking(ctx, booking); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("staff_id", booking.StaffID).
		Time("start", booking.StartTime).
		Msg("booking rescheduled")

	s.enqueueSync(ctx, booking, "upsert")

	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return s.store.GetBooking(ctx, id)
}

func (s *BookingService) ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error) {
	return s.store.ListBookings(ctx, filter)
}

// GetAvailability exposes the matrix builder for the public API.
func (s *BookingService) GetAvailability(ctx context.Context, slug string, from, to time.Time) (*availability.Result, error) {
	svc, err := s.store.GetServiceBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.builder.Build(ctx, svc, from, to)
}

func (s *BookingService) loadCalendar(ctx context.Context) (*schedule.Calendar, error) {
	settings, err := s.store.GetOperatingSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load operating settings: %w", err)
	}
	if settings == nil {
		defaults := models.DefaultOperatingSettings()
		settings = &defaults
	}
	return schedule.New(*settings, nil, nil)
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, changedBy string) {
	if s.eventBus == nil {
		return
	}
	payload := events.BookingEventPayload{
		BookingID:        booking.ID,
		ConfirmationCode: booking.ConfirmationCode,
		ServiceID:        booking.ServiceID,
		ServiceName:      booking.ServiceName,
		StaffID:          booking.StaffID,
		Status:           booking.Status,
		StartTime:        booking.StartTime,
		EndTime:          booking.EndTime,
		CustomerName:     booking.CustomerName,
		CustomerEmail:    booking.CustomerEmail,
		ChangedBy:        changedBy,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("failed to publish event")
	}
}

func (s *BookingService) enqueueSync(ctx context.Context, booking *models.Booking, taskType string) {
	if s.syncWorker == nil {
		return
	}
	if err := s.syncWorker.EnqueueTask(ctx, taskType, booking.ID, booking, booking.Status); err != nil {
		s.logger.Warn().Err(err).Int64("booking_id", booking.ID).Msg("failed to enqueue sync task")
	}
}

func validateCreateRequest(req CreateBookingRequest) error {
	if strings.TrimSpace(req.ServiceSlug) == "" {
		return fmt.Errorf("%w: service_slug is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(req.CustomerName) == "" {
		return fmt.Errorf("%w: customer_name is required", ErrInvalidRequest)
	}
	email := strings.TrimSpace(req.CustomerEmail)
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: customer_email is required", ErrInvalidRequest)
	}
	if _, err := time.Parse(models.DateLayout, req.Date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidRequest)
	}
	if _, err := time.Parse(models.ClockLayout, req.Time); err != nil {
		return fmt.Errorf("%w: time must be HH:MM", ErrInvalidRequest)
	}
	return nil
}

// generateConfirmationCode returns a short human-readable reference,
// "RB-" plus six uppercase hex characters.
func generateConfirmationCode() (string, error) {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "RB-" + strings.ToUpper(hex.EncodeToString(buf)), nil
}

func slotLockKey(staffID int64, start time.Time) string {
	return fmt.Sprintf("slot:%d:%s", staffID, start.UTC().Format(time.RFC3339))
}

func statusEvent(status string) string {
	switch status {
	case models.StatusConfirmed:
		return events.EventBookingConfirmed
	case models.StatusCompleted:
		return events.EventBookingCompleted
	case models.StatusCancelled:
		return events.EventBookingCancelled
	default:
		return events.EventBookingCreated
	}
}
