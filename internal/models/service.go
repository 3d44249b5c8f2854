package models

import "time"

type Service struct {
	ID              int64     `yaml:"id" json:"id"`
	Slug            string    `yaml:"slug" json:"slug"`
	Name            string    `yaml:"name" json:"name"`
	Description     string    `yaml:"description" json:"description"`
	DurationMinutes int       `yaml:"duration_minutes" json:"duration_minutes"`
	PriceCents      int64     `yaml:"price_cents" json:"price_cents"`
	Active          bool      `yaml:"active" json:"active"`
	CreatedAt       time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt       time.Time `yaml:"updated_at" json:"updated_at"`
}

// Duration returns the atomic scheduling step of the service.
func (s *Service) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}
