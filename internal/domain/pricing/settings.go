package pricing

import (
	"context"

	"github.com/google/uuid"
)

// GlobalPricingSettings are the process-wide tariff parameters. Numeric
// fields that are zero or negative are treated as unset.
type GlobalPricingSettings struct {
	BaseRatePerKm      float64 `json:"base_rate_per_km"`
	Multiplier0To50    float64 `json:"multiplier_0_50"`
	Multiplier50To100  float64 `json:"multiplier_50_100"`
	Multiplier100To200 float64 `json:"multiplier_100_200"`
	Multiplier200Plus  float64 `json:"multiplier_200plus"`
	MinFare            int64   `json:"min_fare"`
	MaxPricePerKm      float64 `json:"max_price_per_km"`
	OverrideEnabled    bool    `json:"override_enabled"`
}

// DefaultSettings returns the tariff used when none is configured:
//
//	base rate 1.5/km
//	multipliers 1.5 (0-50 km), 1.3 (50-100), 1.2 (100-200), 1.1 (200+)
//	minimum fare 50, no per-km cap, provider overrides disabled
func DefaultSettings() GlobalPricingSettings {
	return GlobalPricingSettings{
		BaseRatePerKm:      1.5,
		Multiplier0To50:    1.5,
		Multiplier50To100:  1.3,
		Multiplier100To200: 1.2,
		Multiplier200Plus:  1.1,
		MinFare:            50,
		MaxPricePerKm:      0,
		OverrideEnabled:    false,
	}
}

// WithDefaults fills every unset rate and multiplier from defaults. MinFare
// and MaxPricePerKm stay unset when unset, since "no floor" and "no cap" are
// valid policies.
func (s GlobalPricingSettings) WithDefaults(defaults GlobalPricingSettings) GlobalPricingSettings {
	if s.BaseRatePerKm <= 0 {
		s.BaseRatePerKm = defaults.BaseRatePerKm
	}
	if s.Multiplier0To50 <= 0 {
		s.Multiplier0To50 = defaults.Multiplier0To50
	}
	if s.Multiplier50To100 <= 0 {
		s.Multiplier50To100 = defaults.Multiplier50To100
	}
	if s.Multiplier100To200 <= 0 {
		s.Multiplier100To200 = defaults.Multiplier100To200
	}
	if s.Multiplier200Plus <= 0 {
		s.Multiplier200Plus = defaults.Multiplier200Plus
	}
	if s.MinFare < 0 {
		s.MinFare = 0
	}
	if s.MaxPricePerKm < 0 {
		s.MaxPricePerKm = 0
	}
	return s
}

// ProviderPricingOverride adjusts the tariff for a single provider.
type ProviderPricingOverride struct {
	ProviderID        uuid.UUID `json:"provider_id"`
	BaseRatePerKm     *float64  `json:"base_rate_per_km,omitempty"`
	Multiplier200Plus *float64  `json:"multiplier_200plus,omitempty"`
}

// SettingsRepository loads the current tariff and provider overrides.
type SettingsRepository interface {
	// GetSettings returns the active global settings.
	GetSettings(ctx context.Context) (*GlobalPricingSettings, error)

	// FindOverride returns the override for providerID, or nil when none exists.
	FindOverride(ctx context.Context, providerID uuid.UUID) (*ProviderPricingOverride, error)
}

// SettingsStore is a SettingsRepository that can also replace the active
// settings (admin).
type SettingsStore interface {
	SettingsRepository
	SaveSettings(ctx context.Context, settings GlobalPricingSettings) error
}
