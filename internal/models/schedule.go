package models

import "time"

// OperatingSettings is the venue-wide singleton schedule record.
// Open and close are wall-clock "HH:MM" strings, uniform for every
// working weekday, interpreted in the venue timezone.
type OperatingSettings struct {
	OpenTime  string    `json:"open_time"`
	CloseTime string    `json:"close_time"`
	Timezone  string    `json:"timezone"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// DefaultOperatingSettings возвращает расписание салона по умолчанию.
func DefaultOperatingSettings() OperatingSettings {
	return OperatingSettings{
		OpenTime:  DefaultOpenTime,
		CloseTime: DefaultCloseTime,
		Timezone:  DefaultTimezone,
	}
}

// ClosedDay is an ad-hoc full-day closure, distinct from computed holidays.
type ClosedDay struct {
	ID        string    `json:"id"`
	ClosedOn  string    `json:"closed_on"` // YYYY-MM-DD
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
