package repository

import (
	"time"

	"github.com/google/uuid"

	bookingDomain "github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/booking"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/route"
)

// WaypointModel is the GORM model for the waypoints table.
type WaypointModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	DisplayName string    `gorm:"type:varchar(200);not null"`
	Latitude    *float64  `gorm:"type:double precision"`
	Longitude   *float64  `gorm:"type:double precision"`
	Priority    int       `gorm:"not null;default:0"`
	IsActive    bool      `gorm:"not null;default:true"`
	CreatedAt   time.Time `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt   time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

func (WaypointModel) TableName() string { return "waypoints" }

// ProviderModel is the GORM model for the providers table.
type ProviderModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name       string    `gorm:"type:varchar(200);not null"`
	Phone      string    `gorm:"type:varchar(30)"`
	IsActive   bool      `gorm:"not null;default:true"`
	IsVerified bool      `gorm:"not null;default:false"`
	CreatedAt  time.Time `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt  time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

func (ProviderModel) TableName() string { return "providers" }

// VehicleModel is the GORM model for the vehicles table.
type VehicleModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProviderID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Make        string    `gorm:"type:varchar(100)"`
	Model       string    `gorm:"type:varchar(100)"`
	Color       string    `gorm:"type:varchar(50)"`
	PlateNumber string    `gorm:"type:varchar(30)"`
	Seats       int       `gorm:"not null;default:4"`
	IsActive    bool      `gorm:"not null;default:true"`
	CreatedAt   time.Time `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt   time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

func (VehicleModel) TableName() string { return "vehicles" }

// --- Conversions ---

func toWaypointDomain(m *WaypointModel) route.Waypoint {
	return route.Waypoint{
		ID:          m.ID,
		DisplayName: m.DisplayName,
		Latitude:    m.Latitude,
		Longitude:   m.Longitude,
		Priority:    m.Priority,
		IsActive:    m.IsActive,
	}
}

func toProviderDomain(m *ProviderModel) *bookingDomain.Provider {
	if m == nil {
		return nil
	}
	return &bookingDomain.Provider{
		ID:         m.ID,
		Name:       m.Name,
		Phone:      m.Phone,
		IsActive:   m.IsActive,
		IsVerified: m.IsVerified,
	}
}

func toVehicleDomain(m *VehicleModel) *bookingDomain.Vehicle {
	if m == nil {
		return nil
	}
	return &bookingDomain.Vehicle{
		ID:          m.ID,
		ProviderID:  m.ProviderID,
		Make:        m.Make,
		Model:       m.Model,
		Color:       m.Color,
		PlateNumber: m.PlateNumber,
		Seats:       m.Seats,
		IsActive:    m.IsActive,
	}
}
