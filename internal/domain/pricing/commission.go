package pricing

import "math"

// DefaultProviderPercent is the provider's share when none is configured.
const DefaultProviderPercent = 70.0

// CommissionBreakdown splits a gross price between provider and operator.
// ProviderEarnings + OperatorCommission always equals Gross.
type CommissionBreakdown struct {
	Gross              float64 `json:"gross"`
	ProviderEarnings   float64 `json:"provider_earnings"`
	OperatorCommission float64 `json:"operator_commission"`
	ProviderPercent    float64 `json:"provider_percent"`
}

// Split divides gross, giving providerPercent (clamped to [0,100]) to the
// provider. The operator share is rounded to cents and the provider receives
// the remainder.
func Split(gross, providerPercent float64) CommissionBreakdown {
	if math.IsNaN(providerPercent) {
		providerPercent = DefaultProviderPercent
	}
	providerPercent = math.Max(0, math.Min(100, providerPercent))

	operatorCommission := round2(gross * (100 - providerPercent) / 100)
	return CommissionBreakdown{
		Gross:              gross,
		ProviderEarnings:   gross - operatorCommission,
		OperatorCommission: operatorCommission,
		ProviderPercent:    providerPercent,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
