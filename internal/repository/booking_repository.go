package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Kilat-Pet-Delivery/service-transfer/internal/common/domain"
	bookingDomain "github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/booking"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/route"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BookingNumber   string          `gorm:"uniqueIndex;not null;size:20"`
	Status          string          `gorm:"not null;size:30;index"`
	Customer        json.RawMessage `gorm:"type:jsonb;not null"`
	StartWaypointID uuid.UUID       `gorm:"type:uuid;not null"`
	EndWaypointID   uuid.UUID       `gorm:"type:uuid;not null"`
	Coordinates     json.RawMessage `gorm:"type:jsonb;not null"`
	ScheduledDate   string          `gorm:"not null;size:10"`
	ScheduledTime   string          `gorm:"not null;size:5"`
	ProviderID      uuid.UUID       `gorm:"type:uuid;index;not null"`
	VehicleID       uuid.UUID       `gorm:"type:uuid;not null"`
	DistanceKm      float64         `gorm:"not null"`
	TotalPrice      int64           `gorm:"not null"`
	DecisionNote    string          `gorm:"size:500"`
	Version         int64           `gorm:"not null;default:1"`
	CreatedAt       time.Time       `gorm:"not null"`
	UpdatedAt       time.Time       `gorm:"not null"`

	Provider      *ProviderModel     `gorm:"foreignKey:ProviderID"`
	Vehicle       *VehicleModel      `gorm:"foreignKey:VehicleID"`
	StartWaypoint *WaypointModel     `gorm:"foreignKey:StartWaypointID"`
	EndWaypoint   *WaypointModel     `gorm:"foreignKey:EndWaypointID"`
	Stops         []BookingStopModel `gorm:"foreignKey:BookingID"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// BookingStopModel is one intermediate stop of a booking, ordered by Position.
type BookingStopModel struct {
	BookingID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Position   int       `gorm:"primaryKey"`
	WaypointID uuid.UUID `gorm:"type:uuid;not null"`
}

func (BookingStopModel) TableName() string { return "booking_stops" }

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// CreateAndLoad checks every reference, inserts the booking with its stops and
// reads it back joined, all in one transaction. Nothing is persisted on error.
//
// There is no idempotency key and no vehicle/time-slot lock here: a repeated
// submission creates a second booking, and one vehicle can be booked twice
// for the same slot.
func (r *GormBookingRepository) CreateAndLoad(ctx context.Context, bk *bookingDomain.Booking) (*bookingDomain.Booking, error) {
	var created *bookingDomain.Booking
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findWaypoints(tx, bk.WaypointIDs()); err != nil {
			return err
		}
		if err := checkVehicleAndProvider(tx, bk.VehicleID(), bk.ProviderID()); err != nil {
			return err
		}

		model, err := toBookingModel(bk)
		if err != nil {
			return fmt.Errorf("failed to convert booking to model: %w", err)
		}
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return fmt.Errorf("failed to save booking: %w", err)
		}
		if len(model.Stops) > 0 {
			if err := tx.Create(&model.Stops).Error; err != nil {
				return fmt.Errorf("failed to save booking stops: %w", err)
			}
		}

		created, err = loadBooking(tx, bk.ID())
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func checkVehicleAndProvider(tx *gorm.DB, vehicleID, providerID uuid.UUID) error {
	var vehicle VehicleModel
	if err := tx.Where("id = ?", vehicleID).First(&vehicle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NewNotFoundError("Vehicle", vehicleID.String())
		}
		return fmt.Errorf("failed to find vehicle: %w", err)
	}
	if !vehicle.IsActive {
		return domain.NewValidationError("vehicle is not active")
	}
	if vehicle.ProviderID != providerID {
		return domain.NewValidationError("vehicle does not belong to provider")
	}

	var provider ProviderModel
	if err := tx.Where("id = ?", providerID).First(&provider).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NewNotFoundError("Provider", providerID.String())
		}
		return fmt.Errorf("failed to find provider: %w", err)
	}
	if !provider.IsActive || !provider.IsVerified {
		return domain.NewValidationError("provider is not active or not verified")
	}
	return nil
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	return loadBooking(r.db.WithContext(ctx), id)
}

func loadBooking(db *gorm.DB, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := preloadBooking(db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

func preloadBooking(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Provider").
		Preload("Vehicle").
		Preload("StartWaypoint").
		Preload("EndWaypoint").
		Preload("Stops", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
}

// Update persists a status change with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	// IncrementVersion was called before Update, so the stored row carries version-1.
	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", bk.ID(), expectedVersion).
		Updates(map[string]interface{}{
			"status":        string(bk.Status()),
			"decision_note": bk.DecisionNote(),
			"version":       bk.Version(),
			"updated_at":    bk.UpdatedAt(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}

	return nil
}

// ListAll retrieves all bookings with pagination (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := preloadBooking(r.db.WithContext(ctx)).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, 0, err
		}
		bookings[i] = bk
	}

	return bookings, total, nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) (*BookingModel, error) {
	customerJSON, err := json.Marshal(bk.Customer())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal customer: %w", err)
	}

	coordinatesJSON, err := json.Marshal(bk.Coordinates())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal coordinates: %w", err)
	}

	stops := make([]BookingStopModel, len(bk.StopWaypointIDs()))
	for i, id := range bk.StopWaypointIDs() {
		stops[i] = BookingStopModel{BookingID: bk.ID(), Position: i, WaypointID: id}
	}

	return &BookingModel{
		ID:              bk.ID(),
		BookingNumber:   bk.BookingNumber(),
		Status:          string(bk.Status()),
		Customer:        customerJSON,
		StartWaypointID: bk.StartWaypointID(),
		EndWaypointID:   bk.EndWaypointID(),
		Coordinates:     coordinatesJSON,
		ScheduledDate:   bk.ScheduledDate(),
		ScheduledTime:   bk.ScheduledTime(),
		ProviderID:      bk.ProviderID(),
		VehicleID:       bk.VehicleID(),
		DistanceKm:      bk.DistanceKm(),
		TotalPrice:      bk.TotalPrice(),
		DecisionNote:    bk.DecisionNote(),
		Version:         bk.Version(),
		CreatedAt:       bk.CreatedAt(),
		UpdatedAt:       bk.UpdatedAt(),
		Stops:           stops,
	}, nil
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	var customer bookingDomain.CustomerInfo
	if err := json.Unmarshal(m.Customer, &customer); err != nil {
		return nil, fmt.Errorf("failed to unmarshal customer: %w", err)
	}

	var coordinates bookingDomain.CoordinateSnapshot
	if len(m.Coordinates) > 0 {
		if err := json.Unmarshal(m.Coordinates, &coordinates); err != nil {
			return nil, fmt.Errorf("failed to unmarshal coordinates: %w", err)
		}
	}

	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	stopIDs := make([]uuid.UUID, len(m.Stops))
	for i, s := range m.Stops {
		stopIDs[i] = s.WaypointID
	}

	var start, end *route.Waypoint
	if m.StartWaypoint != nil {
		w := toWaypointDomain(m.StartWaypoint)
		start = &w
	}
	if m.EndWaypoint != nil {
		w := toWaypointDomain(m.EndWaypoint)
		end = &w
	}

	return bookingDomain.ReconstructBooking(bookingDomain.Snapshot{
		ID:              m.ID,
		BookingNumber:   m.BookingNumber,
		Status:          status,
		Customer:        customer,
		StartWaypointID: m.StartWaypointID,
		EndWaypointID:   m.EndWaypointID,
		StopWaypointIDs: stopIDs,
		Coordinates:     coordinates,
		ScheduledDate:   m.ScheduledDate,
		ScheduledTime:   m.ScheduledTime,
		ProviderID:      m.ProviderID,
		VehicleID:       m.VehicleID,
		DistanceKm:      m.DistanceKm,
		TotalPrice:      m.TotalPrice,
		DecisionNote:    m.DecisionNote,
		Provider:        toProviderDomain(m.Provider),
		Vehicle:         toVehicleDomain(m.Vehicle),
		StartWaypoint:   start,
		EndWaypoint:     end,
		Version:         m.Version,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}), nil
}
