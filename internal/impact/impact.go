// Package impact converts a waste fraction into weight, cost, emissions and
// meal-equivalent figures for a single served portion.
package impact

import "math"

const (
	DefaultPortionOz = 8.0
	MealCostUSD      = 3.50
	CO2KgPerLb       = 2.0
	LbsPerMeal       = 0.33

	ozPerLb = 16.0
)

// Estimate is the impact of the uneaten part of one portion.
// Values are kept at full precision; call Rounded at output boundaries.
type Estimate struct {
	WeightLbs       float64 `json:"weight_lbs"`
	CostUSD         float64 `json:"cost_usd"`
	CO2Kg           float64 `json:"co2_kg"`
	MealsEquivalent float64 `json:"meals_equivalent"`
}

// Calculate returns the impact of leaving fraction of a portionOz serving.
// A non-positive portion falls back to DefaultPortionOz.
func Calculate(fraction, portionOz float64) Estimate {
	if portionOz <= 0 {
		portionOz = DefaultPortionOz
	}
	fraction = math.Max(0, math.Min(1, fraction))

	portionLbs := portionOz / ozPerLb
	weight := fraction * portionLbs
	costPerLb := MealCostUSD / portionLbs

	return Estimate{
		WeightLbs:       weight,
		CostUSD:         weight * costPerLb,
		CO2Kg:           weight * CO2KgPerLb,
		MealsEquivalent: weight / LbsPerMeal,
	}
}

// Add sums two estimates field by field.
func (e Estimate) Add(o Estimate) Estimate {
	return Estimate{
		WeightLbs:       e.WeightLbs + o.WeightLbs,
		CostUSD:         e.CostUSD + o.CostUSD,
		CO2Kg:           e.CO2Kg + o.CO2Kg,
		MealsEquivalent: e.MealsEquivalent + o.MealsEquivalent,
	}
}

// Rounded applies display precision: 3 decimals for weight, 2 for the rest.
func (e Estimate) Rounded() Estimate {
	return Estimate{
		WeightLbs:       Round(e.WeightLbs, 3),
		CostUSD:         Round(e.CostUSD, 2),
		CO2Kg:           Round(e.CO2Kg, 2),
		MealsEquivalent: Round(e.MealsEquivalent, 2),
	}
}

// Round rounds v to the given number of decimal places, halves away from zero.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
