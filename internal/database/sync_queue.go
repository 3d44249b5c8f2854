package database

import (
	"context"
	"fmt"
	"time"

	"radiantbloom/internal/models"
)

func (db *DB) CreateSyncTask(ctx context.Context, task *models.SyncTask) error {
	query := `INSERT INTO sync_queue (task_type, booking_id, payload, status, retry_count, last_error, created_at, next_retry_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, query,
		task.TaskType,
		task.BookingID,
		task.Payload,
		task.Status,
		task.RetryCount,
		task.LastError,
		now,
		task.NextRetryAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create sync task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	task.ID = id
	task.CreatedAt = now
	return nil
}

func (db *DB) GetPendingSyncTasks(ctx context.Context, limit int) ([]models.SyncTask, error) {
	query := `SELECT id, task_type, booking_id, payload, status, retry_count, last_error, created_at, processed_at, next_retry_at
              FROM sync_queue
              WHERE status IN ('pending', 'retry') AND (next_retry_at IS NULL OR next_retry_at <= ?)
              ORDER BY created_at ASC LIMIT ?`
	rows, err := db.QueryContext(ctx, query, time.Now().UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending sync tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.SyncTask
	for rows.Next() {
		var t models.SyncTask
		err := rows.Scan(
			&t.ID, &t.TaskType, &t.BookingID, &t.Payload, &t.Status,
			&t.RetryCount, &t.LastError, &t.CreatedAt, &t.ProcessedAt, &t.NextRetryAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (db *DB) MarkSyncTaskProcessed(ctx context.Context, id int64) error {
	query := `UPDATE sync_queue SET status = 'done', processed_at = ? WHERE id = ?`
	if _, err := db.ExecContext(ctx, query, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("failed to mark sync task processed: %w", err)
	}
	return nil
}

func (db *DB) MarkSyncTaskFailed(ctx context.Context, id int64, nextRetryAt time.Time, lastError string) error {
	query := `UPDATE sync_queue SET status = 'retry', retry_count = retry_count + 1,
              last_error = ?, next_retry_at = ? WHERE id = ?`
	if _, err := db.ExecContext(ctx, query, lastError, nextRetryAt.UTC(), id); err != nil {
		return fmt.Errorf("failed to mark sync task failed: %w", err)
	}
	return nil
}

// MarkSyncTaskDead retires a task permanently after retries are exhausted.
func (db *DB) MarkSyncTaskDead(ctx context.Context, id int64, lastError string) error {
	query := `UPDATE sync_queue SET status = 'failed', last_error = ?, processed_at = ? WHERE id = ?`
	if _, err := db.ExecContext(ctx, query, lastError, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("failed to mark sync task dead: %w", err)
	}
	return nil
}
