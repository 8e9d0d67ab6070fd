package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// FormValue accepts either a JSON string or a JSON number and keeps its text,
// so form fields can be defaulted the same way regardless of how they were sent.
type FormValue string

// UnmarshalJSON implements json.Unmarshaler
func (v *FormValue) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*v = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*v = FormValue(str)
		return nil
	}
	*v = FormValue(s)
	return nil
}

// PropertyInput is a property description as submitted by a form or CLI flags
type PropertyInput struct {
	City       string    `json:"city" binding:"required"`
	Locality   string    `json:"locality"`
	BHK        FormValue `json:"bhk"`
	Area       FormValue `json:"area"`
	Furnishing string    `json:"furnishing,omitempty"`
	AskingRent FormValue `json:"asking_rent,omitempty"`
}

// Input validation errors
var (
	ErrInvalidBedrooms   = errors.New("bhk must be a positive integer")
	ErrInvalidFurnishing = errors.New("furnishing must be one of Unfurnished, Semi-Furnished, Furnished")
	ErrMissingCity       = errors.New("city is required")
	ErrInvalidAskingRent = errors.New("asking_rent must be a positive amount")
)

// ToQuery converts the raw input into a PropertyQuery. The area is defaulted
// rather than rejected; bedrooms and furnishing are rejected when invalid.
func (in PropertyInput) ToQuery() (PropertyQuery, error) {
	city := strings.TrimSpace(in.City)
	if city == "" {
		return PropertyQuery{}, ErrMissingCity
	}
	bhk, ok := ParseBedrooms(string(in.BHK))
	if !ok {
		return PropertyQuery{}, fmt.Errorf("%w: %q", ErrInvalidBedrooms, string(in.BHK))
	}
	furn, ok := ParseFurnishing(in.Furnishing)
	if !ok {
		return PropertyQuery{}, fmt.Errorf("%w: %q", ErrInvalidFurnishing, in.Furnishing)
	}
	return PropertyQuery{
		City:         city,
		Locality:     strings.TrimSpace(in.Locality),
		BedroomCount: bhk,
		AreaSqFt:     ParseArea(string(in.Area)),
		Furnishing:   furn,
	}, nil
}

// Asking returns the owner's asking rent, 0 when none was given
func (in PropertyInput) Asking() (float64, error) {
	v, ok := ParseAskingRent(string(in.AskingRent))
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAskingRent, string(in.AskingRent))
	}
	return v, nil
}

// BootPayload is the location catalog delivered once at startup
type BootPayload struct {
	Cities     []string            `json:"cities,omitempty"`
	Localities map[string][]string `json:"localities"`
}

// ValuationState is the lifecycle state of the valuation request
type ValuationState string

const (
	ValuationIdle      ValuationState = "idle"
	ValuationPending   ValuationState = "pending"
	ValuationSucceeded ValuationState = "succeeded"
	ValuationFailed    ValuationState = "failed"
)

// ValuationView is what the result panel shows
type ValuationView struct {
	State         ValuationState     `json:"state"`
	SubmitEnabled bool               `json:"submit_enabled"`
	ResultVisible bool               `json:"result_visible"`
	Headline      string             `json:"headline,omitempty"`
	Range         string             `json:"range,omitempty"`
	Estimate      *ValuationEstimate `json:"estimate,omitempty"`
	Asking        *AskingCheck       `json:"asking,omitempty"`
}

// SessionResponse is returned when a session is opened
type SessionResponse struct {
	SessionID string `json:"session_id"`
}

// CompareRequest holds the two properties to compare
type CompareRequest struct {
	A PropertyInput `json:"a" binding:"required"`
	B PropertyInput `json:"b" binding:"required"`
}

// ComparisonCard is the formatted view of one side of a comparison
type ComparisonCard struct {
	Side          Side   `json:"side"`
	EstimatedRent string `json:"estimated_rent"`
	UnitPrice     string `json:"unit_price"`
	Highlighted   bool   `json:"highlighted"`
}

// CompareResponse represents a comparison with its formatted cards
type CompareResponse struct {
	Result  ComparisonResult `json:"result"`
	Cards   []ComparisonCard `json:"cards"`
	Verdict string           `json:"verdict"`
}

// ChatSubmitRequest represents a user turn submission
type ChatSubmitRequest struct {
	Message string `json:"message"`
}

// ChatViewResponse is the rendered chat view plus the raw transcript
type ChatViewResponse struct {
	Entries    []DisplayEntry `json:"entries"`
	Transcript []Turn         `json:"transcript"`
}
