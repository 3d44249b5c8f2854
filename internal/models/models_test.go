package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.ok, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestBookingCountsAsBusy(t *testing.T) {
	b := &Booking{Status: StatusPending}
	assert.True(t, b.CountsAsBusy())

	b.Status = StatusConfirmed
	assert.True(t, b.CountsAsBusy())

	b.Status = StatusCancelled
	assert.False(t, b.CountsAsBusy())
}

func TestServiceDuration(t *testing.T) {
	svc := &Service{DurationMinutes: 75}
	assert.Equal(t, 75*time.Minute, svc.Duration())
}

func TestDefaultOperatingSettings(t *testing.T) {
	s := DefaultOperatingSettings()
	assert.Equal(t, "09:00", s.OpenTime)
	assert.Equal(t, "19:00", s.CloseTime)
	assert.Equal(t, "Europe/Paris", s.Timezone)
}
