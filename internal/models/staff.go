package models

import "time"

type Staff struct {
	ID          int64     `json:"id"`
	DisplayName string    `json:"display_name"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AvailabilityBlock is a manually entered time block for one staff member.
// Kind "break" and "away" subtract from availability; "shift" is stored
// but the generator works from the global business window only.
type AvailabilityBlock struct {
	ID       int64     `json:"id"`
	StaffID  int64     `json:"staff_id"`
	Kind     string    `json:"kind"` // shift, break, away
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
	Notes    string    `json:"notes,omitempty"`
}
