package application

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/route"
)

// WaypointDTO is the API response representation of a waypoint.
type WaypointDTO struct {
	ID             string   `json:"id"`
	DisplayName    string   `json:"display_name"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	Priority       int      `json:"priority"`
	HasCoordinates bool     `json:"has_coordinates"`
}

// WaypointService serves waypoint reference data.
type WaypointService struct {
	repo   route.WaypointRepository
	logger *zap.Logger
}

// NewWaypointService creates a new WaypointService.
func NewWaypointService(repo route.WaypointRepository, logger *zap.Logger) *WaypointService {
	return &WaypointService{repo: repo, logger: logger}
}

// ListActive returns the active waypoints, highest priority first.
func (s *WaypointService) ListActive(ctx context.Context) ([]WaypointDTO, error) {
	waypoints, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list waypoints: %w", err)
	}
	dtos := make([]WaypointDTO, len(waypoints))
	for i, w := range waypoints {
		dtos[i] = toWaypointDTO(w)
	}
	return dtos, nil
}

func toWaypointDTO(w route.Waypoint) WaypointDTO {
	return WaypointDTO{
		ID:             w.ID.String(),
		DisplayName:    w.DisplayName,
		Latitude:       w.Latitude,
		Longitude:      w.Longitude,
		Priority:       w.Priority,
		HasCoordinates: w.HasCoordinates(),
	}
}
