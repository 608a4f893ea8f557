package route

import (
	"context"

	"github.com/google/uuid"
)

// Waypoint is a named pickup, stop or dropoff location offered to customers.
// Coordinates are optional; a waypoint without them still prices, but only
// approximately.
type Waypoint struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	Priority    int       `json:"priority"`
	IsActive    bool      `json:"is_active"`
}

// HasCoordinates reports whether both latitude and longitude are present and in range.
func (w Waypoint) HasCoordinates() bool {
	if w.Latitude == nil || w.Longitude == nil {
		return false
	}
	lat, lng := *w.Latitude, *w.Longitude
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// Point returns the waypoint coordinates; ok is false when they are missing.
func (w Waypoint) Point() (LatLng, bool) {
	if !w.HasCoordinates() {
		return LatLng{}, false
	}
	return LatLng{Lat: *w.Latitude, Lng: *w.Longitude}, true
}

// LatLng is a coordinate pair in decimal degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// WaypointRepository reads waypoint reference data.
type WaypointRepository interface {
	// FindByIDs returns the waypoints for ids in the same order; a missing id is a NotFoundError.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Waypoint, error)

	// ListActive returns active waypoints ordered by priority, then name.
	ListActive(ctx context.Context) ([]Waypoint, error)
}
