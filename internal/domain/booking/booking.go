package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Kilat-Pet-Delivery/service-transfer/internal/common/domain"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/route"
)

const bookingNumberChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Layouts for the scheduled date and time.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// CustomerInfo identifies the passenger who requested the trip.
type CustomerInfo struct {
	FirstName string `json:"first_name"`
	Phone     string `json:"phone"`
	Email     string `json:"email,omitempty"`
	Comment   string `json:"comment,omitempty"`
}

// CoordinateSnapshot freezes the coordinates the customer was quoted for, so
// later edits to waypoint reference data do not change the booking. Pickup
// and Dropoff are nil when neither the client nor the waypoint supplied them.
type CoordinateSnapshot struct {
	Pickup  *route.LatLng  `json:"pickup,omitempty"`
	Dropoff *route.LatLng  `json:"dropoff,omitempty"`
	Stops   []route.LatLng `json:"stops,omitempty"`
}

// Details are the inputs of a new booking.
type Details struct {
	Customer        CustomerInfo
	StartWaypointID uuid.UUID
	EndWaypointID   uuid.UUID
	StopWaypointIDs []uuid.UUID
	Coordinates     CoordinateSnapshot
	ScheduledDate   string
	ScheduledTime   string
	ProviderID      uuid.UUID
	VehicleID       uuid.UUID
	DistanceKm      float64
	TotalPrice      int64
}

// Booking is the aggregate root for the booking domain.
type Booking struct {
	id              uuid.UUID
	bookingNumber   string
	status          BookingStatus
	customer        CustomerInfo
	startWaypointID uuid.UUID
	endWaypointID   uuid.UUID
	stopWaypointIDs []uuid.UUID
	coordinates     CoordinateSnapshot
	scheduledDate   string
	scheduledTime   string
	providerID      uuid.UUID
	vehicleID       uuid.UUID
	distanceKm      float64
	totalPrice      int64
	decisionNote    string

	// Joined on read; nil on a booking that has not been persisted yet.
	provider      *Provider
	vehicle       *Vehicle
	startWaypoint *route.Waypoint
	endWaypoint   *route.Waypoint

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// generateBookingNumber creates a booking number in the format "TR-XXXXXX".
func generateBookingNumber() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(bookingNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking number: %w", err)
		}
		result[i] = bookingNumberChars[n.Int64()]
	}
	return "TR-" + string(result), nil
}

// NewBooking validates d and creates a pending booking.
func NewBooking(d Details) (*Booking, error) {
	if strings.TrimSpace(d.Customer.FirstName) == "" {
		return nil, domain.NewValidationError("customer first name is required")
	}
	if strings.TrimSpace(d.Customer.Phone) == "" {
		return nil, domain.NewValidationError("customer phone is required")
	}
	if d.StartWaypointID == uuid.Nil {
		return nil, domain.NewValidationError("start waypoint is required")
	}
	if d.EndWaypointID == uuid.Nil {
		return nil, domain.NewValidationError("end waypoint is required")
	}
	for _, id := range d.StopWaypointIDs {
		if id == uuid.Nil {
			return nil, domain.NewValidationError("stop waypoint id is invalid")
		}
	}
	if d.ProviderID == uuid.Nil {
		return nil, domain.NewValidationError("provider is required")
	}
	if d.VehicleID == uuid.Nil {
		return nil, domain.NewValidationError("vehicle is required")
	}
	if d.DistanceKm < 0 {
		return nil, domain.NewValidationError("distance cannot be negative")
	}
	if d.TotalPrice < 0 {
		return nil, domain.NewValidationError("total price cannot be negative")
	}
	if _, err := time.Parse(DateLayout, d.ScheduledDate); err != nil {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", d.ScheduledDate))
	}
	if _, err := time.Parse(TimeLayout, d.ScheduledTime); err != nil {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid time %q, expected HH:MM", d.ScheduledTime))
	}
	if err := validateSnapshot(d.Coordinates, len(d.StopWaypointIDs)); err != nil {
		return nil, err
	}

	bookingNumber, err := generateBookingNumber()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Booking{
		id:              uuid.New(),
		bookingNumber:   bookingNumber,
		status:          StatusPending,
		customer:        d.Customer,
		startWaypointID: d.StartWaypointID,
		endWaypointID:   d.EndWaypointID,
		stopWaypointIDs: d.StopWaypointIDs,
		coordinates:     d.Coordinates,
		scheduledDate:   d.ScheduledDate,
		scheduledTime:   d.ScheduledTime,
		providerID:      d.ProviderID,
		vehicleID:       d.VehicleID,
		distanceKm:      d.DistanceKm,
		totalPrice:      d.TotalPrice,
		version:         1,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

func validateSnapshot(s CoordinateSnapshot, stops int) error {
	points := append([]route.LatLng(nil), s.Stops...)
	for _, p := range []*route.LatLng{s.Pickup, s.Dropoff} {
		if p != nil {
			points = append(points, *p)
		}
	}
	for _, p := range points {
		if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
			return domain.NewValidationError(fmt.Sprintf("coordinate out of range: %v,%v", p.Lat, p.Lng))
		}
	}
	if len(s.Stops) != 0 && len(s.Stops) != stops {
		return domain.NewValidationError("stop coordinates do not match stop waypoints")
	}
	return nil
}

// Snapshot is the full persisted state used to rebuild a Booking.
type Snapshot struct {
	ID              uuid.UUID
	BookingNumber   string
	Status          BookingStatus
	Customer        CustomerInfo
	StartWaypointID uuid.UUID
	EndWaypointID   uuid.UUID
	StopWaypointIDs []uuid.UUID
	Coordinates     CoordinateSnapshot
	ScheduledDate   string
	ScheduledTime   string
	ProviderID      uuid.UUID
	VehicleID       uuid.UUID
	DistanceKm      float64
	TotalPrice      int64
	DecisionNote    string
	Provider        *Provider
	Vehicle         *Vehicle
	StartWaypoint   *route.Waypoint
	EndWaypoint     *route.Waypoint
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(s Snapshot) *Booking {
	return &Booking{
		id:              s.ID,
		bookingNumber:   s.BookingNumber,
		status:          s.Status,
		customer:        s.Customer,
		startWaypointID: s.StartWaypointID,
		endWaypointID:   s.EndWaypointID,
		stopWaypointIDs: s.StopWaypointIDs,
		coordinates:     s.Coordinates,
		scheduledDate:   s.ScheduledDate,
		scheduledTime:   s.ScheduledTime,
		providerID:      s.ProviderID,
		vehicleID:       s.VehicleID,
		distanceKm:      s.DistanceKm,
		totalPrice:      s.TotalPrice,
		decisionNote:    s.DecisionNote,
		provider:        s.Provider,
		vehicle:         s.Vehicle,
		startWaypoint:   s.StartWaypoint,
		endWaypoint:     s.EndWaypoint,
		version:         s.Version,
		createdAt:       s.CreatedAt,
		updatedAt:       s.UpdatedAt,
	}
}

// --- Getters ---

func (b *Booking) ID() uuid.UUID                   { return b.id }
func (b *Booking) BookingNumber() string           { return b.bookingNumber }
func (b *Booking) Status() BookingStatus           { return b.status }
func (b *Booking) Customer() CustomerInfo          { return b.customer }
func (b *Booking) StartWaypointID() uuid.UUID      { return b.startWaypointID }
func (b *Booking) EndWaypointID() uuid.UUID        { return b.endWaypointID }
func (b *Booking) StopWaypointIDs() []uuid.UUID    { return b.stopWaypointIDs }
func (b *Booking) Coordinates() CoordinateSnapshot { return b.coordinates }
func (b *Booking) ScheduledDate() string           { return b.scheduledDate }
func (b *Booking) ScheduledTime() string           { return b.scheduledTime }
func (b *Booking) ProviderID() uuid.UUID           { return b.providerID }
func (b *Booking) VehicleID() uuid.UUID            { return b.vehicleID }
func (b *Booking) DistanceKm() float64             { return b.distanceKm }
func (b *Booking) TotalPrice() int64               { return b.totalPrice }
func (b *Booking) DecisionNote() string            { return b.decisionNote }
func (b *Booking) Provider() *Provider             { return b.provider }
func (b *Booking) Vehicle() *Vehicle               { return b.vehicle }
func (b *Booking) StartWaypoint() *route.Waypoint  { return b.startWaypoint }
func (b *Booking) EndWaypoint() *route.Waypoint    { return b.endWaypoint }
func (b *Booking) Version() int64                  { return b.version }
func (b *Booking) CreatedAt() time.Time            { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time            { return b.updatedAt }

// WaypointIDs returns start, stops and end in travel order.
func (b *Booking) WaypointIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(b.stopWaypointIDs)+2)
	ids = append(ids, b.startWaypointID)
	ids = append(ids, b.stopWaypointIDs...)
	return append(ids, b.endWaypointID)
}

// --- Behavior ---

// Confirm accepts a pending booking.
func (b *Booking) Confirm() error {
	return b.transition(StatusConfirmed, "")
}

// Reject declines a pending booking.
func (b *Booking) Reject(reason string) error {
	return b.transition(StatusRejected, reason)
}

// Complete marks a confirmed trip as done.
func (b *Booking) Complete() error {
	return b.transition(StatusCompleted, "")
}

// Cancel calls off a confirmed trip.
func (b *Booking) Cancel(reason string) error {
	return b.transition(StatusCancelled, reason)
}

// TransitionTo applies the command that leads to target.
func (b *Booking) TransitionTo(target BookingStatus, note string) error {
	switch target {
	case StatusConfirmed:
		return b.Confirm()
	case StatusRejected:
		return b.Reject(note)
	case StatusCompleted:
		return b.Complete()
	case StatusCancelled:
		return b.Cancel(note)
	default:
		return domain.NewInvalidStateError(string(b.status), string(target))
	}
}

func (b *Booking) transition(target BookingStatus, note string) error {
	if !b.status.CanTransitionTo(target) {
		return domain.NewInvalidStateError(string(b.status), string(target))
	}
	b.status = target
	if note != "" {
		b.decisionNote = note
	}
	b.updatedAt = time.Now().UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
