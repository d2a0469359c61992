package services

import "time"

// Service is a bookable offering at one salon. Duration drives the computed
// booking end time; inactive services cannot be booked.
type Service struct {
	ID              string    `json:"id"`
	SalonID         string    `json:"salon_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	DurationMinutes int       `json:"duration_minutes"`
	PriceCents      int64     `json:"price_cents"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
