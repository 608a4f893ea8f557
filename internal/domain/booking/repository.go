package booking

import (
	"context"

	"github.com/google/uuid"
)

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// CreateAndLoad inserts a new booking and returns it read back with its
	// provider, vehicle and waypoints, all within one transaction. Missing or
	// inactive references abort the whole operation.
	CreateAndLoad(ctx context.Context, booking *Booking) (*Booking, error)

	// FindByID retrieves a booking with its joined entities.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// ListAll retrieves all bookings with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Booking, int64, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// Update persists a status change with optimistic locking.
	Update(ctx context.Context, booking *Booking) error
}
