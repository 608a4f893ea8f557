package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RecipientType identifies who a message is addressed to.
type RecipientType string

const (
	RecipientDriver    RecipientType = "driver"
	RecipientOperator  RecipientType = "operator"
	RecipientPassenger RecipientType = "passenger"
)

// Status is the outcome of one send attempt.
type Status string

const (
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
)

// LogEntry records a single send attempt. Entries are append-only.
type LogEntry struct {
	ID                uuid.UUID     `json:"id"`
	BookingID         uuid.UUID     `json:"booking_id"`
	RecipientPhone    string        `json:"recipient_phone"`
	RecipientType     RecipientType `json:"recipient_type"`
	Message           string        `json:"message"`
	Status            Status        `json:"status"`
	ErrorMessage      string        `json:"error_message,omitempty"`
	ProviderMessageID string        `json:"provider_message_id,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
}

// OperatorContact is a back-office phone number that receives booking alerts.
type OperatorContact struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	IsPrimary bool      `json:"is_primary"`
	IsActive  bool      `json:"is_active"`
}

// LogRepository stores notification attempts.
type LogRepository interface {
	// SaveBatch appends all entries in a single insert.
	SaveBatch(ctx context.Context, entries []LogEntry) error

	// FindByBookingID lists the attempts for a booking, oldest first.
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]LogEntry, error)
}

// ContactRepository reads operator contacts.
type ContactRepository interface {
	// ListPrimaryOperators returns active contacts flagged as primary.
	ListPrimaryOperators(ctx context.Context) ([]OperatorContact, error)
}

// SendRequest is one outgoing message.
type SendRequest struct {
	Phone   string
	Message string
	// Credential identifies the sending account to the gateway (sender ID or
	// from-number); empty means the gateway default.
	Credential string
}

// SendResult is the gateway's answer for one message.
type SendResult struct {
	Success   bool
	MessageID string
	Error     string
}

// MessageSender delivers text messages through an external gateway.
type MessageSender interface {
	SendMessage(ctx context.Context, req SendRequest) (*SendResult, error)
}
