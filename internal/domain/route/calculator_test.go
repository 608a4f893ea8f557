package route

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func wp(lat, lng float64) Waypoint {
	return Waypoint{ID: uuid.New(), Latitude: &lat, Longitude: &lng, IsActive: true}
}

// One degree of longitude on the equator.
const oneDegreeKm = 111.19492664455873

func TestHaversineKm(t *testing.T) {
	assert.InDelta(t, oneDegreeKm, HaversineKm(LatLng{0, 0}, LatLng{0, 1}), 1e-6)
	assert.InDelta(t, 0, HaversineKm(LatLng{33.57, -7.58}, LatLng{33.57, -7.58}), 1e-9)
	// Symmetric.
	a, b := LatLng{33.5731, -7.5898}, LatLng{34.0209, -6.8416}
	assert.InDelta(t, HaversineKm(a, b), HaversineKm(b, a), 1e-9)
}

func TestComputeRoute_TwoPoints(t *testing.T) {
	calc := NewCalculator(DefaultCalculatorConfig())

	q := calc.ComputeRoute([]Waypoint{wp(0, 0), wp(0, 1)})

	assert.False(t, q.Approximate)
	assert.InDelta(t, oneDegreeKm, q.DistanceKm, 1e-6)
	// round(111.19/80*60)=83, +15 fixed buffer, no stops.
	assert.Equal(t, 98, q.DurationMinutes)
}

func TestComputeRoute_IsOrderSensitiveSumOfLegs(t *testing.T) {
	calc := NewCalculator(DefaultCalculatorConfig())
	a, b, c := wp(0, 0), wp(1, 1), wp(0, 2)

	withStop := calc.ComputeRoute([]Waypoint{a, b, c})
	direct := calc.ComputeRoute([]Waypoint{a, c})
	reordered := calc.ComputeRoute([]Waypoint{a, c, b})

	ab := HaversineKm(LatLng{0, 0}, LatLng{1, 1})
	bc := HaversineKm(LatLng{1, 1}, LatLng{0, 2})
	assert.InDelta(t, ab+bc, withStop.DistanceKm, 1e-9)
	assert.NotEqual(t, direct.DistanceKm, withStop.DistanceKm)
	assert.NotEqual(t, withStop.DistanceKm, reordered.DistanceKm)
}

func TestComputeRoute_StopBufferAddsPerIntermediateWaypoint(t *testing.T) {
	calc := NewCalculator(CalculatorConfig{
		AverageSpeedKmh:      60,
		FixedBufferMinutes:   0,
		PerStopBufferMinutes: 10,
		FallbackDistanceKm:   100,
	})
	same := wp(10, 10)

	q := calc.ComputeRoute([]Waypoint{same, same, same, same})

	assert.InDelta(t, 0, q.DistanceKm, 1e-9)
	assert.Equal(t, 20, q.DurationMinutes)
}

func TestComputeRoute_FallbackWhenCoordinatesMissing(t *testing.T) {
	calc := NewCalculator(DefaultCalculatorConfig())
	missing := Waypoint{ID: uuid.New(), DisplayName: "Old Medina"}

	q := calc.ComputeRoute([]Waypoint{wp(0, 0), missing})

	assert.True(t, q.Approximate)
	assert.Equal(t, DefaultFallbackDistanceKm, q.DistanceKm)
	// round(100/80*60)=75, +15.
	assert.Equal(t, 90, q.DurationMinutes)
}

func TestComputeRoute_FallbackForOutOfRangeOrTooFewPoints(t *testing.T) {
	calc := NewCalculator(DefaultCalculatorConfig())

	assert.True(t, calc.ComputeRoute(nil).Approximate)
	assert.True(t, calc.ComputeRoute([]Waypoint{wp(0, 0)}).Approximate)
	assert.True(t, calc.ComputeRoute([]Waypoint{wp(0, 0), wp(95, 0)}).Approximate)
}

func TestNewCalculator_InvalidConfigUsesDefaults(t *testing.T) {
	calc := NewCalculator(CalculatorConfig{AverageSpeedKmh: -1, FixedBufferMinutes: -1, PerStopBufferMinutes: -1})
	assert.Equal(t, DefaultCalculatorConfig(), calc.cfg)
}
