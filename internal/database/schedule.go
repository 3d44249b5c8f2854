package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"radiantbloom/internal/models"
)

// GetOperatingSettings returns the singleton schedule record, or nil
// when it was never saved (callers fall back to venue defaults).
func (db *DB) GetOperatingSettings(ctx context.Context) (*models.OperatingSettings, error) {
	query := `SELECT open_time, close_time, timezone, updated_at FROM operating_settings WHERE id = 1`
	var s models.OperatingSettings
	err := db.QueryRowContext(ctx, query).Scan(&s.OpenTime, &s.CloseTime, &s.Timezone, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get operating settings: %w", err)
	}
	return &s, nil
}

// UpsertOperatingSettings saves the singleton schedule record.
// Last write wins; the change is visible to the next request.
func (db *DB) UpsertOperatingSettings(ctx context.Context, settings models.OperatingSettings) (*models.OperatingSettings, error) {
	query := `INSERT INTO operating_settings (id, open_time, close_time, timezone, updated_at)
              VALUES (1, ?, ?, ?, ?)
              ON CONFLICT(id) DO UPDATE SET
                  open_time = excluded.open_time,
                  close_time = excluded.close_time,
                  timezone = excluded.timezone,
                  updated_at = excluded.updated_at`
	now := time.Now().UTC()
	if settings.Timezone == "" {
		settings.Timezone = models.DefaultTimezone
	}
	if _, err := db.ExecContext(ctx, query, settings.OpenTime, settings.CloseTime, settings.Timezone, now); err != nil {
		return nil, fmt.Errorf("failed to upsert operating settings: %w", err)
	}
	settings.UpdatedAt = now
	return &settings, nil
}

func (db *DB) ListClosedDays(ctx context.Context, from, to string) ([]models.ClosedDay, error) {
	query := `SELECT id, closed_on, COALESCE(reason, ''), created_at FROM closed_days`
	var args []interface{}
	switch {
	case from != "" && to != "":
		query += ` WHERE closed_on >= ? AND closed_on <= ?`
		args = append(args, from, to)
	case from != "":
		query += ` WHERE closed_on >= ?`
		args = append(args, from)
	case to != "":
		query += ` WHERE closed_on <= ?`
		args = append(args, to)
	}
	query += ` ORDER BY closed_on`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list closed days: %w", err)
	}
	defer rows.Close()

	var days []models.ClosedDay
	for rows.Next() {
		var d models.ClosedDay
		if err := rows.Scan(&d.ID, &d.ClosedOn, &d.Reason, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan closed day: %w", err)
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

func (db *DB) AddClosedDay(ctx context.Context, day *models.ClosedDay) error {
	query := `INSERT INTO closed_days (id, closed_on, reason, created_at) VALUES (?, ?, ?, ?)
              ON CONFLICT(closed_on) DO UPDATE SET reason = excluded.reason`
	now := time.Now().UTC()
	if _, err := db.ExecContext(ctx, query, day.ID, day.ClosedOn, day.Reason, now); err != nil {
		return fmt.Errorf("failed to add closed day: %w", err)
	}
	day.CreatedAt = now
	return nil
}

func (db *DB) RemoveClosedDay(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM closed_days WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to remove closed day: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
