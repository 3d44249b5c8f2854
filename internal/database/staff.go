package database

import (
	"context"
	"fmt"
	"time"

	"radiantbloom/internal/models"
)

func (db *DB) CreateStaff(ctx context.Context, staff *models.Staff) error {
	query := `INSERT INTO staff (display_name, active, created_at, updated_at) VALUES (?, ?, ?, ?)`
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, query, staff.DisplayName, staff.Active, now, now)
	if err != nil {
		return fmt.Errorf("failed to create staff: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	staff.ID = id
	staff.CreatedAt = now
	staff.UpdatedAt = now
	return nil
}

func (db *DB) ListActiveStaff(ctx context.Context) ([]*models.Staff, error) {
	query := `SELECT id, display_name, active, created_at, updated_at FROM staff WHERE active = 1 ORDER BY id`
	return db.queryStaff(ctx, query)
}

func (db *DB) ListStaffForService(ctx context.Context, serviceID int64) ([]*models.Staff, error) {
	query := `SELECT s.id, s.display_name, s.active, s.created_at, s.updated_at
              FROM staff s
              JOIN staff_services ss ON ss.staff_id = s.id
              WHERE ss.service_id = ? AND s.active = 1
              ORDER BY s.id`
	return db.queryStaff(ctx, query, serviceID)
}

// LinkStaffToService создает связки мастер-услуга; существующие пары
// пропускаются, поэтому bootstrap идемпотентен.
func (db *DB) LinkStaffToService(ctx context.Context, serviceID int64, staffIDs []int64) error {
	if len(staffIDs) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `INSERT OR IGNORE INTO staff_services (staff_id, service_id) VALUES (?, ?)`
	for _, staffID := range staffIDs {
		if _, err := tx.ExecContext(ctx, query, staffID, serviceID); err != nil {
			return fmt.Errorf("failed to link staff %d to service %d: %w", staffID, serviceID, err)
		}
	}

	return tx.Commit()
}

func (db *DB) queryStaff(ctx context.Context, query string, args ...interface{}) ([]*models.Staff, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query staff: %w", err)
	}
	defer rows.Close()

	var staff []*models.Staff
	for rows.Next() {
		var s models.Staff
		if err := rows.Scan(&s.ID, &s.DisplayName, &s.Active, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan staff: %w", err)
		}
		staff = append(staff, &s)
	}
	return staff, rows.Err()
}
