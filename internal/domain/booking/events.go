package booking

import (
	"time"

	"github.com/google/uuid"
)

// Kafka topics.
const (
	TopicBookingEvents    = "transfer.booking.events"
	TopicProviderCommands = "transfer.provider.commands"
)

// Event types published on TopicBookingEvents.
const (
	EventBookingCreated   = "booking.created"
	EventBookingConfirmed = "booking.confirmed"
	EventBookingRejected  = "booking.rejected"
	EventBookingCompleted = "booking.completed"
	EventBookingCancelled = "booking.cancelled"
)

// Command types consumed from TopicProviderCommands.
const (
	CommandConfirm  = "provider.booking.confirm"
	CommandReject   = "provider.booking.reject"
	CommandComplete = "provider.booking.complete"
	CommandCancel   = "provider.booking.cancel"
)

// StatusEventType returns the event published when a booking enters status.
func StatusEventType(status BookingStatus) string {
	switch status {
	case StatusConfirmed:
		return EventBookingConfirmed
	case StatusRejected:
		return EventBookingRejected
	case StatusCompleted:
		return EventBookingCompleted
	case StatusCancelled:
		return EventBookingCancelled
	default:
		return EventBookingCreated
	}
}

// CommandTarget maps a provider command to the status it requests.
func CommandTarget(commandType string) (BookingStatus, bool) {
	switch commandType {
	case CommandConfirm:
		return StatusConfirmed, true
	case CommandReject:
		return StatusRejected, true
	case CommandComplete:
		return StatusCompleted, true
	case CommandCancel:
		return StatusCancelled, true
	default:
		return "", false
	}
}

// BookingCreatedEvent is published after a booking is persisted.
type BookingCreatedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	ProviderID    uuid.UUID `json:"provider_id"`
	VehicleID     uuid.UUID `json:"vehicle_id"`
	ScheduledDate string    `json:"scheduled_date"`
	ScheduledTime string    `json:"scheduled_time"`
	DistanceKm    float64   `json:"distance_km"`
	TotalPrice    int64     `json:"total_price"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// BookingStatusChangedEvent is published after a provider decision.
type BookingStatusChangedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	ProviderID    uuid.UUID `json:"provider_id"`
	Status        string    `json:"status"`
	Note          string    `json:"note,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// ProviderCommand is the payload of a provider command message.
type ProviderCommand struct {
	BookingID  uuid.UUID `json:"booking_id"`
	ProviderID uuid.UUID `json:"provider_id"`
	Reason     string    `json:"reason,omitempty"`
}
