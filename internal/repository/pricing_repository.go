package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/pricing"
)

// PricingSettingsModel is the GORM model for the pricing_settings table.
// Only the most recently updated active row is used.
type PricingSettingsModel struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	BaseRatePerKm      float64   `gorm:"not null;default:0"`
	Multiplier0To50    float64   `gorm:"column:multiplier_0_50;not null;default:0"`
	Multiplier50To100  float64   `gorm:"column:multiplier_50_100;not null;default:0"`
	Multiplier100To200 float64   `gorm:"column:multiplier_100_200;not null;default:0"`
	Multiplier200Plus  float64   `gorm:"column:multiplier_200plus;not null;default:0"`
	MinFare            int64     `gorm:"not null;default:0"`
	MaxPricePerKm      float64   `gorm:"not null;default:0"`
	OverrideEnabled    bool      `gorm:"not null;default:false"`
	IsActive           bool      `gorm:"not null;default:true"`
	CreatedAt          time.Time `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt          time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

func (PricingSettingsModel) TableName() string { return "pricing_settings" }

// ProviderPricingOverrideModel is the GORM model for provider_pricing_overrides.
type ProviderPricingOverrideModel struct {
	ProviderID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	BaseRatePerKm     *float64
	Multiplier200Plus *float64 `gorm:"column:multiplier_200plus"`
	UpdatedAt         time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

func (ProviderPricingOverrideModel) TableName() string { return "provider_pricing_overrides" }

// GormPricingRepository implements pricing.SettingsStore using GORM.
type GormPricingRepository struct {
	db *gorm.DB
}

func NewGormPricingRepository(db *gorm.DB) *GormPricingRepository {
	return &GormPricingRepository{db: db}
}

// GetSettings returns the active settings, or nil when none are stored.
func (r *GormPricingRepository) GetSettings(ctx context.Context) (*pricing.GlobalPricingSettings, error) {
	var model PricingSettingsModel
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("updated_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load pricing settings: %w", err)
	}
	s := toSettingsDomain(&model)
	return &s, nil
}

// FindOverride returns the provider's override, or nil when it has none.
func (r *GormPricingRepository) FindOverride(ctx context.Context, providerID uuid.UUID) (*pricing.ProviderPricingOverride, error) {
	var model ProviderPricingOverrideModel
	if err := r.db.WithContext(ctx).Where("provider_id = ?", providerID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load pricing override: %w", err)
	}
	return &pricing.ProviderPricingOverride{
		ProviderID:        model.ProviderID,
		BaseRatePerKm:     model.BaseRatePerKm,
		Multiplier200Plus: model.Multiplier200Plus,
	}, nil
}

// SaveSettings deactivates the current row and inserts settings as the new active one.
func (r *GormPricingRepository) SaveSettings(ctx context.Context, settings pricing.GlobalPricingSettings) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&PricingSettingsModel{}).
			Where("is_active = ?", true).
			Update("is_active", false).Error; err != nil {
			return fmt.Errorf("failed to deactivate pricing settings: %w", err)
		}
		now := time.Now().UTC()
		model := toSettingsModel(settings)
		model.ID = uuid.New()
		model.IsActive = true
		model.CreatedAt = now
		model.UpdatedAt = now
		if err := tx.Create(&model).Error; err != nil {
			return fmt.Errorf("failed to save pricing settings: %w", err)
		}
		return nil
	})
}

func toSettingsDomain(m *PricingSettingsModel) pricing.GlobalPricingSettings {
	return pricing.GlobalPricingSettings{
		BaseRatePerKm:      m.BaseRatePerKm,
		Multiplier0To50:    m.Multiplier0To50,
		Multiplier50To100:  m.Multiplier50To100,
		Multiplier100To200: m.Multiplier100To200,
		Multiplier200Plus:  m.Multiplier200Plus,
		MinFare:            m.MinFare,
		MaxPricePerKm:      m.MaxPricePerKm,
		OverrideEnabled:    m.OverrideEnabled,
	}
}

func toSettingsModel(s pricing.GlobalPricingSettings) PricingSettingsModel {
	return PricingSettingsModel{
		BaseRatePerKm:      s.BaseRatePerKm,
		Multiplier0To50:    s.Multiplier0To50,
		Multiplier50To100:  s.Multiplier50To100,
		Multiplier100To200: s.Multiplier100To200,
		Multiplier200Plus:  s.Multiplier200Plus,
		MinFare:            s.MinFare,
		MaxPricePerKm:      s.MaxPricePerKm,
		OverrideEnabled:    s.OverrideEnabled,
	}
}
