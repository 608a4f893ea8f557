package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Kilat-Pet-Delivery/service-transfer/internal/common/domain"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/route"
)

// GormWaypointRepository implements route.WaypointRepository using GORM.
type GormWaypointRepository struct {
	db *gorm.DB
}

func NewGormWaypointRepository(db *gorm.DB) *GormWaypointRepository {
	return &GormWaypointRepository{db: db}
}

// FindByIDs loads the waypoints for ids, keeping the order (and repeats) of ids.
func (r *GormWaypointRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]route.Waypoint, error) {
	return findWaypoints(r.db.WithContext(ctx), ids)
}

func (r *GormWaypointRepository) ListActive(ctx context.Context) ([]route.Waypoint, error) {
	var models []WaypointModel
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("priority DESC").
		Order("display_name ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list waypoints: %w", err)
	}
	waypoints := make([]route.Waypoint, len(models))
	for i := range models {
		waypoints[i] = toWaypointDomain(&models[i])
	}
	return waypoints, nil
}

func findWaypoints(db *gorm.DB, ids []uuid.UUID) ([]route.Waypoint, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var models []WaypointModel
	if err := db.Where("id IN ?", distinct(ids)).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find waypoints: %w", err)
	}
	byID := make(map[uuid.UUID]*WaypointModel, len(models))
	for i := range models {
		byID[models[i].ID] = &models[i]
	}

	waypoints := make([]route.Waypoint, len(ids))
	for i, id := range ids {
		m, ok := byID[id]
		if !ok {
			return nil, domain.NewNotFoundError("Waypoint", id.String())
		}
		waypoints[i] = toWaypointDomain(m)
	}
	return waypoints, nil
}

func distinct(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
