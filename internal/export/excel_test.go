package export

import (
	"context"
	"io"
	"testing"
	"time"

	"radiantbloom/internal/database"
	"radiantbloom/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestBookingsToExcel(t *testing.T) {
	logger := zerolog.New(io.Discard)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	svc := &models.Service{Slug: "facial", Name: "Facial", DurationMinutes: 60, Active: true}
	require.NoError(t, db.CreateService(ctx, svc))
	staff := &models.Staff{DisplayName: "Amelie", Active: true}
	require.NoError(t, db.CreateStaff(ctx, staff))

	start := time.Date(2030, 6, 17, 10, 0, 0, 0, time.UTC)
	booking := &models.Booking{
		ConfirmationCode: "RB-A1B2C3",
		ServiceID:        svc.ID,
		ServiceName:      svc.Name,
		StaffID:          staff.ID,
		Status:           models.StatusConfirmed,
		StartTime:        start,
		EndTime:          start.Add(time.Hour),
		CustomerName:     "Chloe",
		CustomerEmail:    "chloe@example.com",
	}
	require.NoError(t, db.CreateBookingWithLock(ctx, booking))

	exporter := NewExporter(db, t.TempDir(), &logger)
	path, err := exporter.BookingsToExcel(ctx, start.AddDate(0, 0, -1), start.AddDate(0, 0, 1))
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	code, err := f.GetCellValue(sheetName, "A3")
	require.NoError(t, err)
	assert.Equal(t, "RB-A1B2C3", code)

	customer, err := f.GetCellValue(sheetName, "G3")
	require.NoError(t, err)
	assert.Equal(t, "Chloe", customer)
}
