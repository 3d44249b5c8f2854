package google

import (
	"testing"
	"time"

	"radiantbloom/internal/models"
)

func TestBookingRowValues(t *testing.T) {
	start := time.Date(2030, 6, 17, 10, 0, 0, 0, time.UTC)
	createdAt := time.Date(2030, 6, 1, 9, 30, 0, 0, time.UTC)

	booking := &models.Booking{
		ID:               123,
		ConfirmationCode: "RB-A1B2C3",
		ServiceName:      "Glow Facial",
		StaffID:          2,
		Status:           "confirmed",
		StartTime:        start,
		EndTime:          start.Add(75 * time.Minute),
		CustomerName:     "Chloe",
		CustomerEmail:    "chloe@example.com",
		CustomerPhone:    "+33612345678",
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
	}

	values := bookingRowValues(booking)

	expected := []interface{}{
		int64(123),
		"RB-A1B2C3",
		"Glow Facial",
		int64(2),
		"confirmed",
		"2030-06-17 10:00",
		"2030-06-17 11:15",
		"Chloe",
		"chloe@example.com",
		"+33612345678",
		"2030-06-01 09:30:00",
		"2030-06-01 09:30:00",
	}

	if len(values) != len(expected) {
		t.Fatalf("Expected %d values, got %d", len(expected), len(values))
	}

	for i, v := range values {
		if v != expected[i] {
			t.Errorf("At index %d: expected %v, got %v", i, expected[i], v)
		}
	}
}

func TestCacheOperations(t *testing.T) {
	s := &SheetsService{
		rowCache: make(map[int64]int),
	}

	if _, ok := s.getCachedRow(42); ok {
		t.Errorf("Expected cache miss for fresh cache")
	}

	s.setCachedRow(42, 7)

	row, ok := s.getCachedRow(42)
	if !ok || row != 7 {
		t.Errorf("Expected cached row 7, got %d (ok=%v)", row, ok)
	}
}
