package route

import "math"

const earthRadiusKm = 6371.0

// Default estimation parameters.
const (
	DefaultAverageSpeedKmh      = 80.0
	DefaultFixedBufferMinutes   = 15
	DefaultPerStopBufferMinutes = 10
	DefaultFallbackDistanceKm   = 100.0
)

// RouteQuote is the estimated distance and duration of an ordered route.
type RouteQuote struct {
	Waypoints       []Waypoint `json:"waypoints"`
	DistanceKm      float64    `json:"distance_km"`
	DurationMinutes int        `json:"duration_minutes"`
	// Approximate is set when the fallback distance replaced a real measurement.
	Approximate bool `json:"approximate"`
}

// CalculatorConfig holds the estimation parameters.
type CalculatorConfig struct {
	AverageSpeedKmh      float64
	FixedBufferMinutes   int
	PerStopBufferMinutes int
	FallbackDistanceKm   float64
}

// DefaultCalculatorConfig returns the documented defaults.
func DefaultCalculatorConfig() CalculatorConfig {
	return CalculatorConfig{
		AverageSpeedKmh:      DefaultAverageSpeedKmh,
		FixedBufferMinutes:   DefaultFixedBufferMinutes,
		PerStopBufferMinutes: DefaultPerStopBufferMinutes,
		FallbackDistanceKm:   DefaultFallbackDistanceKm,
	}
}

// Calculator estimates route distance and duration. It is stateless and safe
// for concurrent use.
type Calculator struct {
	cfg CalculatorConfig
}

// NewCalculator creates a Calculator; non-positive values fall back to defaults.
func NewCalculator(cfg CalculatorConfig) *Calculator {
	def := DefaultCalculatorConfig()
	if cfg.AverageSpeedKmh <= 0 {
		cfg.AverageSpeedKmh = def.AverageSpeedKmh
	}
	if cfg.FixedBufferMinutes < 0 {
		cfg.FixedBufferMinutes = def.FixedBufferMinutes
	}
	if cfg.PerStopBufferMinutes < 0 {
		cfg.PerStopBufferMinutes = def.PerStopBufferMinutes
	}
	if cfg.FallbackDistanceKm <= 0 {
		cfg.FallbackDistanceKm = def.FallbackDistanceKm
	}
	return &Calculator{cfg: cfg}
}

// ComputeRoute sums the great-circle legs start→stop1→…→end in the given
// order. It never fails: fewer than two waypoints or any waypoint without
// coordinates yields the fallback distance with Approximate set.
func (c *Calculator) ComputeRoute(waypoints []Waypoint) RouteQuote {
	quote := RouteQuote{Waypoints: waypoints}

	distance, ok := c.measure(waypoints)
	if !ok {
		distance = c.cfg.FallbackDistanceKm
		quote.Approximate = true
	}

	quote.DistanceKm = distance
	quote.DurationMinutes = c.duration(distance, stopCount(len(waypoints)))
	return quote
}

func (c *Calculator) measure(waypoints []Waypoint) (float64, bool) {
	if len(waypoints) < 2 {
		return 0, false
	}

	points := make([]LatLng, len(waypoints))
	for i, w := range waypoints {
		p, ok := w.Point()
		if !ok {
			return 0, false
		}
		points[i] = p
	}

	var total float64
	for i := 1; i < len(points); i++ {
		total += HaversineKm(points[i-1], points[i])
	}
	return total, true
}

func (c *Calculator) duration(distanceKm float64, stops int) int {
	driving := int(math.Round(distanceKm / c.cfg.AverageSpeedKmh * 60))
	return driving + c.cfg.FixedBufferMinutes + stops*c.cfg.PerStopBufferMinutes
}

func stopCount(waypoints int) int {
	if waypoints <= 2 {
		return 0
	}
	return waypoints - 2
}

// HaversineKm returns the great-circle distance in kilometres between a and b.
func HaversineKm(a, b LatLng) float64 {
	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	rLat1 := degreesToRadians(a.Lat)
	rLat2 := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
