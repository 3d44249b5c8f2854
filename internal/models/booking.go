package models

import "time"

type Booking struct {
	ID               int64     `json:"id"`
	ConfirmationCode string    `json:"confirmation_code"`
	PublicToken      string    `json:"public_token,omitempty"`
	ServiceID        int64     `json:"service_id"`
	ServiceName      string    `json:"service_name"`
	StaffID          int64     `json:"staff_id,omitempty"` // 0 = unassigned
	Status           string    `json:"status"`             // pending, confirmed, completed, cancelled
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	CustomerName     string    `json:"customer_name"`
	CustomerEmail    string    `json:"customer_email"`
	CustomerPhone    string    `json:"customer_phone,omitempty"`
	CustomerNotes    string    `json:"customer_notes,omitempty"`
	InternalNote     string    `json:"internal_note,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	Version          int64     `json:"version"`
}

// CanTransition reports whether a staff-initiated status change is legal.
// pending -> confirmed -> completed, cancelled reachable from pending
// and confirmed. Nothing leaves completed or cancelled.
func CanTransition(from, to string) bool {
	switch from {
	case StatusPending:
		return to == StatusConfirmed || to == StatusCancelled
	case StatusConfirmed:
		return to == StatusCompleted || to == StatusCancelled
	default:
		return false
	}
}

// CountsAsBusy reports whether the booking blocks its time range.
// Cancelled bookings never count as busy intervals.
func (b *Booking) CountsAsBusy() bool {
	return b.Status != StatusCancelled
}

// IsActive reports whether the booking can still be edited.
func (b *Booking) IsActive() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}
