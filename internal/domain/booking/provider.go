package booking

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Provider is the transport company or independent driver fulfilling a booking.
type Provider struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	IsActive   bool      `json:"is_active"`
	IsVerified bool      `json:"is_verified"`
}

// Vehicle belongs to a provider.
type Vehicle struct {
	ID          uuid.UUID `json:"id"`
	ProviderID  uuid.UUID `json:"provider_id"`
	Make        string    `json:"make"`
	Model       string    `json:"model"`
	Color       string    `json:"color"`
	PlateNumber string    `json:"plate_number"`
	Seats       int       `json:"seats"`
	IsActive    bool      `json:"is_active"`
}

// Descriptor renders the vehicle for messages, e.g. "Toyota Prado (white) 12345-A-6".
func (v Vehicle) Descriptor() string {
	name := strings.TrimSpace(v.Make + " " + v.Model)
	if v.Color != "" {
		name = fmt.Sprintf("%s (%s)", name, v.Color)
	}
	if v.PlateNumber != "" {
		name = strings.TrimSpace(name + " " + v.PlateNumber)
	}
	return name
}
