package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultAreaSqFt is substituted whenever an area is missing or unusable
const DefaultAreaSqFt = 1000.0

// Furnishing is the closed set of furnishing states a property can be in
type Furnishing string

const (
	Unfurnished   Furnishing = "Unfurnished"
	SemiFurnished Furnishing = "Semi-Furnished"
	Furnished     Furnishing = "Furnished"
)

// DefaultFurnishing is what the valuation path sends when the caller did not pick one
const DefaultFurnishing = SemiFurnished

// Valid reports whether f is one of the three known furnishing states
func (f Furnishing) Valid() bool {
	switch f {
	case Unfurnished, SemiFurnished, Furnished:
		return true
	}
	return false
}

// ParseFurnishing maps user input onto a Furnishing, ignoring case and separators.
// Empty input returns "" so callers can apply their own default.
func ParseFurnishing(raw string) (Furnishing, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s)
	switch s {
	case "":
		return "", true
	case "unfurnished":
		return Unfurnished, true
	case "semifurnished", "semi":
		return SemiFurnished, true
	case "furnished", "full", "fullyfurnished":
		return Furnished, true
	}
	return "", false
}

// PropertyQuery describes one property for valuation or comparison
type PropertyQuery struct {
	City         string     `json:"city"`
	Locality     string     `json:"locality"`
	BedroomCount int        `json:"bhk"`
	AreaSqFt     float64    `json:"area"`
	Furnishing   Furnishing `json:"furnishing,omitempty"`
}

// NormalizeArea returns area unless it is non-positive or not a finite number,
// in which case DefaultAreaSqFt is returned.
func NormalizeArea(area float64) float64 {
	if math.IsNaN(area) || math.IsInf(area, 0) || area <= 0 {
		return DefaultAreaSqFt
	}
	return area
}

// ParseArea converts raw form input into an area, defaulting empty,
// zero, negative or non-numeric input to DefaultAreaSqFt.
func ParseArea(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return DefaultAreaSqFt
	}
	return NormalizeArea(v)
}

// ParseBedrooms converts raw form input into a bedroom count.
// Only positive integers are accepted.
func ParseBedrooms(raw string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// ValuationEstimate is the fair-rent bracket returned by the valuation service.
// Context keeps the complete response object so extra fields travel with it.
type ValuationEstimate struct {
	FairRentLow  float64         `json:"fair_rent_low"`
	FairRentHigh float64         `json:"fair_rent_high"`
	Context      json.RawMessage `json:"-"`
}

// Midpoint is the headline figure shown to the user
func (e ValuationEstimate) Midpoint() float64 {
	return (e.FairRentLow + e.FairRentHigh) / 2
}

// MarshalJSON emits the raw response object when it is available
func (e ValuationEstimate) MarshalJSON() ([]byte, error) {
	if len(e.Context) > 0 {
		return e.Context, nil
	}
	type plain struct {
		FairRentLow  float64 `json:"fair_rent_low"`
		FairRentHigh float64 `json:"fair_rent_high"`
	}
	return json.Marshal(plain{FairRentLow: e.FairRentLow, FairRentHigh: e.FairRentHigh})
}

// Side identifies one operand of a comparison
type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
)

// ComparisonResult is the outcome of comparing two properties by unit price
type ComparisonResult struct {
	EstimatedRentA float64 `json:"estimated_rent_a"`
	EstimatedRentB float64 `json:"estimated_rent_b"`
	UnitPriceA     float64 `json:"unit_price_a"`
	UnitPriceB     float64 `json:"unit_price_b"`
	Winner         Side    `json:"winner"`
}

// Validate is the upstream guard applied before a query reaches valuation or
// comparison. Area is not checked here because it is defaulted, not rejected.
func (q PropertyQuery) Validate() error {
	if strings.TrimSpace(q.City) == "" {
		return ErrMissingCity
	}
	if q.BedroomCount <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBedrooms, q.BedroomCount)
	}
	if q.Furnishing != "" && !q.Furnishing.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidFurnishing, q.Furnishing)
	}
	return nil
}

// WithDefaults returns a copy with the documented defaults applied: area falls
// back to DefaultAreaSqFt and an unset furnishing to DefaultFurnishing.
func (q PropertyQuery) WithDefaults() PropertyQuery {
	q.AreaSqFt = NormalizeArea(q.AreaSqFt)
	if q.Furnishing == "" {
		q.Furnishing = DefaultFurnishing
	}
	return q
}

// OverpricedRatio is the multiple of fair rent above which an asking rent is overpriced
const OverpricedRatio = 1.15

// AskingBand grades an owner's asking rent against the fair rent
type AskingBand string

const (
	AskingFair       AskingBand = "fair"       // at or below fair rent
	AskingNegotiable AskingBand = "negotiable" // up to OverpricedRatio times fair rent
	AskingOverpriced AskingBand = "overpriced"
)

// AskingCheck compares an asking rent with the estimate's midpoint.
// Difference is positive when the asking rent is above fair rent.
type AskingCheck struct {
	AskingRent float64    `json:"asking_rent"`
	FairRent   float64    `json:"fair_rent"`
	Difference float64    `json:"difference"`
	Band       AskingBand `json:"band"`
	Summary    string     `json:"summary"`
}

// ParseAskingRent converts raw form input into an asking rent. Empty input
// means no asking rent was given and returns 0.
func ParseAskingRent(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	return v, true
}
