package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-transfer/internal/common/domain"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/pricing"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/route"
)

// QuoteRequest asks for a price on an ordered list of waypoints.
type QuoteRequest struct {
	WaypointIDs []string `json:"waypoint_ids" validate:"required,min=2,dive,uuid"`
	ProviderID  string   `json:"provider_id" validate:"omitempty,uuid"`
}

// QuoteDTO is the priced route returned to the customer.
type QuoteDTO struct {
	Route      route.RouteQuote            `json:"route"`
	Price      pricing.TripQuote           `json:"price"`
	Commission pricing.CommissionBreakdown `json:"commission"`
}

// PricingSettingsDTO is the admin view of the tariff.
type PricingSettingsDTO struct {
	Stored    *pricing.GlobalPricingSettings `json:"stored"`
	Effective pricing.GlobalPricingSettings  `json:"effective"`
}

// PricingService computes quotes from waypoint reference data and the
// current tariff.
type PricingService struct {
	waypoints       route.WaypointRepository
	settings        pricing.SettingsRepository
	calculator      *route.Calculator
	engine          *pricing.Engine
	providerPercent float64
	logger          *zap.Logger
}

// NewPricingService creates a new PricingService.
func NewPricingService(
	waypoints route.WaypointRepository,
	settings pricing.SettingsRepository,
	calculator *route.Calculator,
	engine *pricing.Engine,
	providerPercent float64,
	logger *zap.Logger,
) *PricingService {
	return &PricingService{
		waypoints:       waypoints,
		settings:        settings,
		calculator:      calculator,
		engine:          engine,
		providerPercent: providerPercent,
		logger:          logger,
	}
}

// Quote prices the route through req.WaypointIDs in order.
func (s *PricingService) Quote(ctx context.Context, req QuoteRequest) (*QuoteDTO, error) {
	if err := validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	ids, err := parseUUIDs(req.WaypointIDs)
	if err != nil {
		return nil, err
	}
	providerID := uuid.Nil
	if req.ProviderID != "" {
		providerID = uuid.MustParse(req.ProviderID)
	}

	return s.quoteWaypoints(ctx, ids, providerID)
}

func (s *PricingService) quoteWaypoints(ctx context.Context, ids []uuid.UUID, providerID uuid.UUID) (*QuoteDTO, error) {
	waypoints, err := s.waypoints.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return s.quoteRoute(ctx, waypoints, providerID), nil
}

func (s *PricingService) quoteRoute(ctx context.Context, waypoints []route.Waypoint, providerID uuid.UUID) *QuoteDTO {
	rq := s.calculator.ComputeRoute(waypoints)
	settings, override := s.loadTariff(ctx, providerID)
	trip := s.engine.QuoteRoute(rq, settings, override)
	return &QuoteDTO{
		Route:      rq,
		Price:      trip,
		Commission: pricing.Split(float64(trip.Price), s.providerPercent),
	}
}

// loadTariff returns the stored settings and the provider's override. Load
// failures degrade to nil, which the engine replaces with its defaults.
func (s *PricingService) loadTariff(ctx context.Context, providerID uuid.UUID) (*pricing.GlobalPricingSettings, *pricing.ProviderPricingOverride) {
	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		s.logger.Warn("failed to load pricing settings, using defaults", zap.Error(err))
		settings = nil
	}
	if providerID == uuid.Nil {
		return settings, nil
	}
	override, err := s.settings.FindOverride(ctx, providerID)
	if err != nil {
		s.logger.Warn("failed to load provider pricing override",
			zap.String("provider_id", providerID.String()),
			zap.Error(err),
		)
		return settings, nil
	}
	return settings, override
}

// Commission splits gross with the configured provider share.
func (s *PricingService) Commission(gross int64) pricing.CommissionBreakdown {
	return pricing.Split(float64(gross), s.providerPercent)
}

// GetSettings returns the stored tariff and the one actually applied (admin).
func (s *PricingService) GetSettings(ctx context.Context) (*PricingSettingsDTO, error) {
	stored, err := s.settings.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load pricing settings: %w", err)
	}
	effective := s.engine.Defaults()
	if stored != nil {
		effective = stored.WithDefaults(s.engine.Defaults())
	}
	return &PricingSettingsDTO{Stored: stored, Effective: effective}, nil
}

func hasNegativePricing(s pricing.GlobalPricingSettings) bool {
	for _, v := range []float64{
		s.BaseRatePerKm,
		s.Multiplier0To50,
		s.Multiplier50To100,
		s.Multiplier100To200,
		s.Multiplier200Plus,
		s.MaxPricePerKm,
	} {
		if v < 0 {
			return true
		}
	}
	return s.MinFare < 0
}

// UpdateSettings replaces the active tariff (admin). Requires a writable store.
func (s *PricingService) UpdateSettings(ctx context.Context, settings pricing.GlobalPricingSettings) (*PricingSettingsDTO, error) {
	store, ok := s.settings.(pricing.SettingsStore)
	if !ok {
		return nil, domain.NewForbiddenError("pricing settings are read-only")
	}
	if hasNegativePricing(settings) {
		return nil, domain.NewValidationError("pricing values cannot be negative")
	}
	if err := store.SaveSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to save pricing settings: %w", err)
	}
	return s.GetSettings(ctx)
}
