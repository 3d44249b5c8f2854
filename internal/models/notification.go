package models

import "time"

const (
	NotificationSent   = "sent"
	NotificationFailed = "failed"
)

const (
	EventBookingReceivedCustomer = "booking_received_customer"
	EventBookingReceivedAdmin    = "booking_received_admin"
	EventBookingStatusUpdate     = "booking_status_update"
	EventNewsletterSignup        = "newsletter_signup"
)

// NotificationLog records one outbound delivery attempt. Delivery
// failures are logged, never surfaced to the booking flow.
type NotificationLog struct {
	ID        int64     `json:"id"`
	BookingID int64     `json:"booking_id,omitempty"`
	EventType string    `json:"event_type"`
	Recipient string    `json:"recipient"`
	Status    string    `json:"status"` // sent, failed
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// BookingFilter narrows the admin bookings feed.
type BookingFilter struct {
	Statuses []string
	From     time.Time
	To       time.Time
	Limit    int
}
