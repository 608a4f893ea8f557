package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/notification"
)

// NotificationLogModel is the GORM model for the notification_logs table.
type NotificationLogModel struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	BookingID         uuid.UUID `gorm:"type:uuid;not null;index"`
	RecipientPhone    string    `gorm:"type:varchar(30)"`
	RecipientType     string    `gorm:"type:varchar(20);not null"`
	Message           string    `gorm:"type:text;not null"`
	Status            string    `gorm:"type:varchar(20);not null"`
	ErrorMessage      string    `gorm:"type:text"`
	ProviderMessageID string    `gorm:"type:varchar(100)"`
	CreatedAt         time.Time `gorm:"type:timestamptz;not null"`
}

func (NotificationLogModel) TableName() string { return "notification_logs" }

// OperatorContactModel is the GORM model for the operator_contacts table.
type OperatorContactModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"type:varchar(100);not null"`
	Phone     string    `gorm:"type:varchar(30);not null"`
	IsPrimary bool      `gorm:"not null;default:false"`
	IsActive  bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

func (OperatorContactModel) TableName() string { return "operator_contacts" }

// GormNotificationLogRepository implements notification.LogRepository.
type GormNotificationLogRepository struct {
	db *gorm.DB
}

func NewGormNotificationLogRepository(db *gorm.DB) *GormNotificationLogRepository {
	return &GormNotificationLogRepository{db: db}
}

// SaveBatch inserts all entries with a single statement.
func (r *GormNotificationLogRepository) SaveBatch(ctx context.Context, entries []notification.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	models := make([]NotificationLogModel, len(entries))
	for i, e := range entries {
		id := e.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		createdAt := e.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		models[i] = NotificationLogModel{
			ID:                id,
			BookingID:         e.BookingID,
			RecipientPhone:    e.RecipientPhone,
			RecipientType:     string(e.RecipientType),
			Message:           e.Message,
			Status:            string(e.Status),
			ErrorMessage:      e.ErrorMessage,
			ProviderMessageID: e.ProviderMessageID,
			CreatedAt:         createdAt,
		}
	}
	if err := r.db.WithContext(ctx).Create(&models).Error; err != nil {
		return fmt.Errorf("failed to save notification logs: %w", err)
	}
	return nil
}

func (r *GormNotificationLogRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]notification.LogEntry, error) {
	var models []NotificationLogModel
	if err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find notification logs: %w", err)
	}
	entries := make([]notification.LogEntry, len(models))
	for i, m := range models {
		entries[i] = notification.LogEntry{
			ID:                m.ID,
			BookingID:         m.BookingID,
			RecipientPhone:    m.RecipientPhone,
			RecipientType:     notification.RecipientType(m.RecipientType),
			Message:           m.Message,
			Status:            notification.Status(m.Status),
			ErrorMessage:      m.ErrorMessage,
			ProviderMessageID: m.ProviderMessageID,
			CreatedAt:         m.CreatedAt,
		}
	}
	return entries, nil
}

// GormContactRepository implements notification.ContactRepository.
type GormContactRepository struct {
	db *gorm.DB
}

func NewGormContactRepository(db *gorm.DB) *GormContactRepository {
	return &GormContactRepository{db: db}
}

func (r *GormContactRepository) ListPrimaryOperators(ctx context.Context) ([]notification.OperatorContact, error) {
	var models []OperatorContactModel
	if err := r.db.WithContext(ctx).
		Where("is_primary = ? AND is_active = ?", true, true).
		Order("name ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list operator contacts: %w", err)
	}
	contacts := make([]notification.OperatorContact, len(models))
	for i, m := range models {
		contacts[i] = notification.OperatorContact{
			ID:        m.ID,
			Name:      m.Name,
			Phone:     m.Phone,
			IsPrimary: m.IsPrimary,
			IsActive:  m.IsActive,
		}
	}
	return contacts, nil
}
