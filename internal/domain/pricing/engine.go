package pricing

import (
	"math"

	"github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/route"
)

// Distance bracket upper bounds, inclusive.
const (
	bracketShortKm  = 50.0
	bracketMediumKm = 100.0
	bracketLongKm   = 200.0
)

// TripQuote is the priced result for a route.
type TripQuote struct {
	DistanceKm      float64 `json:"distance_km"`
	DurationMinutes int     `json:"duration_minutes"`
	Price           int64   `json:"price"`
	RatePerKm       float64 `json:"rate_per_km"`
	Multiplier      float64 `json:"multiplier"`
	Approximate     bool    `json:"approximate"`
}

// Engine computes trip prices. The defaults it was built with replace missing
// settings; the engine holds no other state and is safe for concurrent use.
type Engine struct {
	defaults GlobalPricingSettings
}

// NewEngine creates an Engine. Unset fields of defaults are taken from DefaultSettings.
func NewEngine(defaults GlobalPricingSettings) *Engine {
	return &Engine{defaults: defaults.WithDefaults(DefaultSettings())}
}

// Defaults returns the settings used when none are supplied.
func (e *Engine) Defaults() GlobalPricingSettings {
	return e.defaults
}

// Quote prices distanceKm under settings, applying override only when
// settings.OverrideEnabled is true. A nil settings uses the engine defaults.
// Distances at or below zero price at the minimum fare.
func (e *Engine) Quote(distanceKm float64, settings *GlobalPricingSettings, override *ProviderPricingOverride) TripQuote {
	s := e.defaults
	if settings != nil {
		s = settings.WithDefaults(e.defaults)
	}

	if distanceKm < 0 || math.IsNaN(distanceKm) {
		distanceKm = 0
	}

	multiplier := bracketMultiplier(distanceKm, s)
	rate := s.BaseRatePerKm

	if s.OverrideEnabled && override != nil {
		if override.BaseRatePerKm != nil && *override.BaseRatePerKm > 0 {
			rate = *override.BaseRatePerKm
		}
		if distanceKm > bracketLongKm && override.Multiplier200Plus != nil && *override.Multiplier200Plus > 0 {
			multiplier = *override.Multiplier200Plus
		}
	}

	if s.MaxPricePerKm > 0 && rate > s.MaxPricePerKm {
		rate = s.MaxPricePerKm
	}

	price := int64(math.Round(distanceKm * rate * multiplier))
	if s.MinFare > 0 && price < s.MinFare {
		price = s.MinFare
	}

	return TripQuote{
		DistanceKm: distanceKm,
		Price:      price,
		RatePerKm:  rate,
		Multiplier: multiplier,
	}
}

func bracketMultiplier(distanceKm float64, s GlobalPricingSettings) float64 {
	switch {
	case distanceKm <= bracketShortKm:
		return s.Multiplier0To50
	case distanceKm <= bracketMediumKm:
		return s.Multiplier50To100
	case distanceKm <= bracketLongKm:
		return s.Multiplier100To200
	default:
		return s.Multiplier200Plus
	}
}

// QuoteRoute prices an estimated route and carries its duration and
// approximation flag into the quote.
func (e *Engine) QuoteRoute(r route.RouteQuote, settings *GlobalPricingSettings, override *ProviderPricingOverride) TripQuote {
	q := e.Quote(r.DistanceKm, settings, override)
	q.DurationMinutes = r.DurationMinutes
	q.Approximate = r.Approximate
	return q
}
