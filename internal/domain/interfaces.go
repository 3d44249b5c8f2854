package domain

import (
	"context"
	"time"

	"radiantbloom/internal/models"
)

// Store is the narrow data-access capability the engine depends on.
// The core never touches storage technology directly; it reads
// Service/Staff/AvailabilityBlock/OperatingSettings/ClosedDay and
// reads+writes Booking through this contract.
type Store interface {
	// Catalog.
	GetServiceBySlug(ctx context.Context, slug string) (*models.Service, error)
	ListActiveServices(ctx context.Context) ([]*models.Service, error)
	CreateService(ctx context.Context, service *models.Service) error

	// Roster.
	ListActiveStaff(ctx context.Context) ([]*models.Staff, error)
	ListStaffForService(ctx context.Context, serviceID int64) ([]*models.Staff, error)
	LinkStaffToService(ctx context.Context, serviceID int64, staffIDs []int64) error

	// Schedule.
	GetOperatingSettings(ctx context.Context) (*models.OperatingSettings, error)
	UpsertOperatingSettings(ctx context.Context, settings models.OperatingSettings) (*models.OperatingSettings, error)
	ListClosedDays(ctx context.Context, from, to string) ([]models.ClosedDay, error)
	AddClosedDay(ctx context.Context, day *models.ClosedDay) error
	RemoveClosedDay(ctx context.Context, id string) error

	// Busy intervals.
	ListBusyBookings(ctx context.Context, staffIDs []int64, from, to time.Time) ([]*models.Booking, error)
	ListBusyBlocks(ctx context.Context, staffIDs []int64, from, to time.Time) ([]models.AvailabilityBlock, error)
	CreateAvailabilityBlock(ctx context.Context, block *models.AvailabilityBlock) error

	// Bookings.
	CreateBookingWithLock(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error)
	UpdateBooking(ctx context.Context, booking *models.Booking) error

	// Notification audit log.
	LogNotification(ctx context.Context, entry *models.NotificationLog) error

	// Sheet-sync queue.
	CreateSyncTask(ctx context.Context, task *models.SyncTask) error
	GetPendingSyncTasks(ctx context.Context, limit int) ([]models.SyncTask, error)
	MarkSyncTaskProcessed(ctx context.Context, id int64) error
	MarkSyncTaskFailed(ctx context.Context, id int64, nextRetryAt time.Time, lastError string) error

	// Newsletter.
	SubscribeNewsletter(ctx context.Context, email string) error
}

// SlotLocker serializes concurrent confirmations of the identical
// staff+slot pair. TryLock returns false when another confirmation
// currently holds the slot.
type SlotLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// RateLimiter throttles anonymous public traffic per caller key.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// SlotRateLimiter is the combined shape the lock backends implement.
type SlotRateLimiter interface {
	SlotLocker
	RateLimiter
}

// Mailer delivers outbound customer and admin e-mail.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// AdminNotifier pushes short out-of-band alerts to the staff channel.
type AdminNotifier interface {
	Notify(ctx context.Context, text string) error
}

// SheetsWriter mirrors bookings into the back-office spreadsheet.
type SheetsWriter interface {
	UpsertBooking(ctx context.Context, booking *models.Booking) error
	UpdateBookingStatus(ctx context.Context, bookingID int64, status string) error
}

// SyncWorker accepts asynchronous spreadsheet-mirror tasks.
type SyncWorker interface {
	EnqueueTask(ctx context.Context, taskType string, bookingID int64, booking *models.Booking, status string) error
}

// EventPublisher fans out domain events to in-process subscribers.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}
