package worker

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"radiantbloom/internal/database"
	"radiantbloom/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSheets struct {
	mu       sync.Mutex
	upserts  []int64
	statuses map[int64]string
	err      error
}

func newFakeSheets() *fakeSheets {
	return &fakeSheets{statuses: make(map[int64]string)}
}

func (f *fakeSheets) UpsertBooking(ctx context.Context, booking *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.upserts = append(f.upserts, booking.ID)
	return nil
}

func (f *fakeSheets) UpdateBookingStatus(ctx context.Context, bookingID int64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.statuses[bookingID] = status
	return nil
}

func setupWorker(t *testing.T, sheets *fakeSheets, retry RetryPolicy) (*SheetsWorker, *database.DB) {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewSheetsWorker(db, sheets, nil, retry, &logger), db
}

func sampleBooking() *models.Booking {
	return &models.Booking{
		ID:               42,
		ConfirmationCode: "RB-A1B2C3",
		ServiceName:      "Glow Facial",
		Status:           models.StatusPending,
		StartTime:        time.Date(2030, 6, 17, 10, 0, 0, 0, time.UTC),
		EndTime:          time.Date(2030, 6, 17, 11, 0, 0, 0, time.UTC),
	}
}

func TestEnqueueTaskPersists(t *testing.T) {
	w, db := setupWorker(t, newFakeSheets(), RetryPolicy{})
	ctx := context.Background()

	require.NoError(t, w.EnqueueTask(ctx, TaskUpsert, 0, sampleBooking(), ""))

	tasks, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, TaskUpsert, tasks[0].TaskType)
	assert.Equal(t, int64(42), tasks[0].BookingID)
}

func TestEnqueueTaskValidation(t *testing.T) {
	w, _ := setupWorker(t, newFakeSheets(), RetryPolicy{})
	ctx := context.Background()

	assert.Error(t, w.EnqueueTask(ctx, "", 1, nil, ""))
	assert.Error(t, w.EnqueueTask(ctx, TaskUpsert, 0, nil, ""))
}

func TestProcessTaskUpsert(t *testing.T) {
	sheets := newFakeSheets()
	w, db := setupWorker(t, sheets, RetryPolicy{})
	ctx := context.Background()

	require.NoError(t, w.EnqueueTask(ctx, TaskUpsert, 0, sampleBooking(), ""))
	tasks, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	w.processTask(ctx, &tasks[0])

	assert.Equal(t, []int64{42}, sheets.upserts)

	remaining, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestProcessTaskUpdateStatus(t *testing.T) {
	sheets := newFakeSheets()
	w, db := setupWorker(t, sheets, RetryPolicy{})
	ctx := context.Background()

	require.NoError(t, w.EnqueueTask(ctx, TaskUpdateStatus, 42, nil, models.StatusConfirmed))
	tasks, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	w.processTask(ctx, &tasks[0])

	assert.Equal(t, models.StatusConfirmed, sheets.statuses[42])
}

func TestProcessTaskRetriesOnFailure(t *testing.T) {
	sheets := newFakeSheets()
	sheets.err = errors.New("sheets api down")
	w, db := setupWorker(t, sheets, RetryPolicy{MaxRetries: 3})
	ctx := context.Background()

	require.NoError(t, w.EnqueueTask(ctx, TaskUpsert, 0, sampleBooking(), ""))
	tasks, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	w.processTask(ctx, &tasks[0])

	// Retry scheduled in the future, so not pending right now.
	pending, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	var status string
	var retryCount int
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT status, retry_count FROM sync_queue WHERE id = ?`, tasks[0].ID).Scan(&status, &retryCount))
	assert.Equal(t, "retry", status)
	assert.Equal(t, 1, retryCount)
}

func TestProcessTaskDeadAfterMaxRetries(t *testing.T) {
	sheets := newFakeSheets()
	sheets.err = errors.New("sheets api down")
	w, db := setupWorker(t, sheets, RetryPolicy{MaxRetries: 2})
	ctx := context.Background()

	require.NoError(t, w.EnqueueTask(ctx, TaskUpsert, 0, sampleBooking(), ""))
	tasks, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	task := tasks[0]
	task.RetryCount = 1 // one attempt already burned

	w.processTask(ctx, &task)

	var status string
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT status FROM sync_queue WHERE id = ?`, task.ID).Scan(&status))
	assert.Equal(t, "failed", status)
}

func TestRetryPolicyBackoff(t *testing.T) {
	policy := RetryPolicy{
		MaxRetries:    5,
		InitialDelay:  time.Second,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2,
	}

	assert.Equal(t, time.Second, policy.NextDelay(1))
	assert.Equal(t, 2*time.Second, policy.NextDelay(2))
	assert.Equal(t, 4*time.Second, policy.NextDelay(3))
	assert.Equal(t, 10*time.Second, policy.NextDelay(10)) // clamped
	assert.Equal(t, time.Second, policy.NextDelay(0))     // floor
}
