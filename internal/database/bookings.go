package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"radiantbloom/internal/models"
)

const bookingColumns = `id, confirmation_code, COALESCE(public_token, ''), service_id, service_name,
    COALESCE(staff_id, 0), status, start_time, end_time, customer_name, customer_email,
    COALESCE(customer_phone, ''), COALESCE(customer_notes, ''), COALESCE(internal_note, ''),
    created_at, updated_at, version`

func scanBooking(row interface{ Scan(...interface{}) error }) (*models.Booking, error) {
	var b models.Booking
	err := row.Scan(
		&b.ID, &b.ConfirmationCode, &b.PublicToken, &b.ServiceID, &b.ServiceName,
		&b.StaffID, &b.Status, &b.StartTime, &b.EndTime, &b.CustomerName, &b.CustomerEmail,
		&b.CustomerPhone, &b.CustomerNotes, &b.InternalNote,
		&b.CreatedAt, &b.UpdatedAt, &b.Version,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateBookingWithLock re-checks the requested slot and inserts the
// booking inside one transaction: no other connection can slip a
// conflicting row between the check and the insert.
func (db *DB) CreateBookingWithLock(ctx context.Context, booking *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// 1. Проверяем пересечения внутри транзакции
	queryCount := `SELECT COUNT(*) FROM bookings
        WHERE staff_id = ? AND status != ?
        AND start_time < ? AND end_time > ?`
	var conflicts int
	err = tx.QueryRowContext(ctx, queryCount,
		booking.StaffID, models.StatusCancelled,
		booking.EndTime.UTC(), booking.StartTime.UTC()).Scan(&conflicts)
	if err != nil {
		return fmt.Errorf("failed to check slot in tx: %w", err)
	}
	if conflicts > 0 {
		return ErrSlotTaken
	}

	// 2. Создаем бронирование
	queryInsert := `INSERT INTO bookings (
            confirmation_code, public_token, service_id, service_name, staff_id, status,
            start_time, end_time, customer_name, customer_email, customer_phone,
            customer_notes, internal_note, created_at, updated_at, version
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx, queryInsert,
		booking.ConfirmationCode,
		booking.PublicToken,
		booking.ServiceID,
		booking.ServiceName,
		booking.StaffID,
		booking.Status,
		booking.StartTime.UTC(),
		booking.EndTime.UTC(),
		booking.CustomerName,
		booking.CustomerEmail,
		booking.CustomerPhone,
		booking.CustomerNotes,
		booking.InternalNote,
		now,
		now,
		1,
	)
	if err != nil {
		// The partial unique index on (staff_id, start_time) is the
		// last-resort guard when two transactions race.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrSlotTaken
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", err)
	}

	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

func (db *DB) ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings`
	var clauses []string
	var args []interface{}

	if len(filter.Statuses) > 0 {
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", placeholders(len(filter.Statuses))))
		for _, s := range filter.Statuses {
			args = append(args, s)
		}
	}
	if !filter.From.IsZero() {
		clauses = append(clauses, "start_time >= ?")
		args = append(args, filter.From.UTC())
	}
	if !filter.To.IsZero() {
		clauses = append(clauses, "start_time <= ?")
		args = append(args, filter.To.UTC())
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY start_time"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// ListBusyBookings returns non-cancelled bookings of the given staff
// members overlapping [from, to).
func (db *DB) ListBusyBookings(ctx context.Context, staffIDs []int64, from, to time.Time) ([]*models.Booking, error) {
	if len(staffIDs) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT `+bookingColumns+` FROM bookings
        WHERE staff_id IN (%s)
        AND status != ?
        AND start_time < ? AND end_time > ?`, placeholders(len(staffIDs)))

	args := make([]interface{}, 0, len(staffIDs)+3)
	for _, id := range staffIDs {
		args = append(args, id)
	}
	args = append(args, models.StatusCancelled, to.UTC(), from.UTC())

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list busy bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// UpdateBooking persists mutable booking fields with an optimistic
// version check: a stale version means a concurrent update won.
func (db *DB) UpdateBooking(ctx context.Context, booking *models.Booking) error {
	query := `UPDATE bookings SET
            staff_id = ?, status = ?, start_time = ?, end_time = ?,
            internal_note = ?, updated_at = ?, version = version + 1
        WHERE id = ? AND version = ?`
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, query,
		booking.StaffID,
		booking.Status,
		booking.StartTime.UTC(),
		booking.EndTime.UTC(),
		booking.InternalNote,
		now,
		booking.ID,
		booking.Version,
	)
	if err != nil {
		// Reschedule can land on a staff/start pair another booking
		// already holds; the partial unique index rejects it.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrSlotTaken
		}
		return fmt.Errorf("failed to update booking: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrVersionConflict
	}

	booking.UpdatedAt = now
	booking.Version++
	return nil
}

func (db *DB) LogNotification(ctx context.Context, entry *models.NotificationLog) error {
	query := `INSERT INTO notification_log (booking_id, event_type, recipient, status, detail, created_at)
              VALUES (?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, query,
		entry.BookingID, entry.EventType, entry.Recipient, entry.Status, entry.Detail, now)
	if err != nil {
		return fmt.Errorf("failed to log notification: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	entry.ID = id
	entry.CreatedAt = now
	return nil
}

func (db *DB) SubscribeNewsletter(ctx context.Context, email string) error {
	query := `INSERT OR IGNORE INTO newsletter_subscribers (email, created_at) VALUES (?, ?)`
	if _, err := db.ExecContext(ctx, query, email, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to subscribe newsletter: %w", err)
	}
	return nil
}
