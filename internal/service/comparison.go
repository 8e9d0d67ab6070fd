package service

import (
	"fmt"

	"fairrent/internal/model"
	"fairrent/internal/utils"
)

// Heuristic pricing constants. Only one city is priced in the high tier.
const (
	HighTierCity     = "Mumbai"
	HighTierBaseRate = 25000.0
	StandardBaseRate = 15000.0
	AreaRatePerSqFt  = 2.0
)

// BaseRate is the per-bedroom base rent of a city
func BaseRate(city string) float64 {
	if city == HighTierCity {
		return HighTierBaseRate
	}
	return StandardBaseRate
}

// FurnishingMultiplier scales the base rent by furnishing state
func FurnishingMultiplier(f model.Furnishing) float64 {
	switch f {
	case model.Furnished:
		return 1.2
	case model.SemiFurnished:
		return 1.1
	default:
		return 1.0
	}
}

// EstimatedRent is the heuristic monthly rent of q
func EstimatedRent(q model.PropertyQuery) float64 {
	area := model.NormalizeArea(q.AreaSqFt)
	return BaseRate(q.City)*float64(q.BedroomCount)*FurnishingMultiplier(q.Furnishing) + area*AreaRatePerSqFt
}

// UnitPrice is the estimated rent per square foot of q
func UnitPrice(q model.PropertyQuery) float64 {
	return EstimatedRent(q) / model.NormalizeArea(q.AreaSqFt)
}

// Compare ranks two properties by unit price without any network call.
// The lower unit price wins; equal unit prices go to a.
func Compare(a, b model.PropertyQuery) model.ComparisonResult {
	res := model.ComparisonResult{
		EstimatedRentA: EstimatedRent(a),
		EstimatedRentB: EstimatedRent(b),
		UnitPriceA:     UnitPrice(a),
		UnitPriceB:     UnitPrice(b),
		Winner:         model.SideB,
	}
	if res.UnitPriceA <= res.UnitPriceB {
		res.Winner = model.SideA
	}
	return res
}

// ComparisonView formats a result as two cards and a verdict in markdown
func ComparisonView(res model.ComparisonResult) model.CompareResponse {
	cards := []model.ComparisonCard{
		{
			Side:          model.SideA,
			EstimatedRent: utils.FormatINR(res.EstimatedRentA),
			UnitPrice:     utils.FormatINR(res.UnitPriceA) + " / sqft",
			Highlighted:   res.Winner == model.SideA,
		},
		{
			Side:          model.SideB,
			EstimatedRent: utils.FormatINR(res.EstimatedRentB),
			UnitPrice:     utils.FormatINR(res.UnitPriceB) + " / sqft",
			Highlighted:   res.Winner == model.SideB,
		},
	}
	return model.CompareResponse{Result: res, Cards: cards, Verdict: Verdict(res)}
}

// Verdict explains the winner of a comparison
func Verdict(res model.ComparisonResult) string {
	if res.Winner == model.SideA {
		direction := "lower"
		if res.EstimatedRentA > res.EstimatedRentB {
			direction = "higher"
		}
		return fmt.Sprintf("🔥 **Property A is the better deal!** Even if the total rent is %s, you are getting a better rate per square foot.", direction)
	}
	return fmt.Sprintf("💎 **Property B wins on value!** It offers more space for your money at %s per sqft.", utils.FormatINR(res.UnitPriceB))
}
