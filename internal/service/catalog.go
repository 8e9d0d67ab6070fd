package service

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"fairrent/internal/model"
	"fairrent/internal/utils"
)

// bootPayloadSchema accepts {"cities": [...], "localities": {...}}
var bootPayloadSchema = utils.MustCompileSchema(`{
	"type": "object",
	"required": ["localities"],
	"properties": {
		"cities": {"type": "array", "items": {"type": "string"}},
		"localities": {
			"type": "object",
			"additionalProperties": {"type": "array", "items": {"type": "string"}}
		}
	}
}`)

// flatMappingSchema accepts the bare {"<city>": ["<locality>", ...]} mapping
var flatMappingSchema = utils.MustCompileSchema(`{
	"type": "object",
	"additionalProperties": {"type": "array", "items": {"type": "string"}}
}`)

// LocationCatalog holds the city to localities mapping. It is immutable after
// construction and safe for concurrent use.
type LocationCatalog struct {
	cities     []string
	localities map[string][]string
}

// NewLocationCatalog builds a catalog from a boot payload. When the payload
// carries no city list the cities are the sorted mapping keys.
func NewLocationCatalog(payload model.BootPayload) *LocationCatalog {
	localities := make(map[string][]string, len(payload.Localities))
	for city, locs := range payload.Localities {
		localities[city] = append([]string(nil), locs...)
	}

	cities := append([]string(nil), payload.Cities...)
	if len(cities) == 0 {
		for city := range localities {
			cities = append(cities, city)
		}
		sort.Strings(cities)
	}

	return &LocationCatalog{cities: cities, localities: localities}
}

// ParseBootPayload decodes either the full boot payload or a bare city mapping
func ParseBootPayload(data []byte) (model.BootPayload, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return model.BootPayload{}, fmt.Errorf("failed to decode boot payload: %w", err)
	}

	var payload model.BootPayload
	if _, ok := fields["localities"]; ok {
		if err := utils.DecodeJSON(data, bootPayloadSchema, &payload); err != nil {
			return model.BootPayload{}, fmt.Errorf("invalid boot payload: %w", err)
		}
		return payload, nil
	}

	if err := utils.DecodeJSON(data, flatMappingSchema, &payload.Localities); err != nil {
		return model.BootPayload{}, fmt.Errorf("invalid locality mapping: %w", err)
	}
	return payload, nil
}

// LoadLocationCatalog reads the boot payload file at path
func LoadLocationCatalog(path string) (*LocationCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	payload, err := ParseBootPayload(data)
	if err != nil {
		return nil, err
	}
	return NewLocationCatalog(payload), nil
}

// Cities returns the cities in selection order
func (c *LocationCatalog) Cities() []string {
	return append([]string(nil), c.cities...)
}

// LocalitiesFor returns the localities of city in server order.
// Unknown or empty cities yield an empty slice, never an error.
func (c *LocationCatalog) LocalitiesFor(city string) []string {
	return append([]string{}, c.localities[city]...)
}

// ResolveCity maps user input onto a catalog city, tolerating case, spacing
// and common aliases.
func (c *LocationCatalog) ResolveCity(input string) (string, bool) {
	return utils.BestMatch(input, c.cities)
}

// ResolveLocality maps user input onto one of city's localities
func (c *LocationCatalog) ResolveLocality(city, input string) (string, bool) {
	return utils.BestMatch(input, c.localities[city])
}

// Resolve applies ResolveCity and ResolveLocality to a query. An empty
// locality is kept empty.
func (c *LocationCatalog) Resolve(q model.PropertyQuery) (model.PropertyQuery, error) {
	city, ok := c.ResolveCity(q.City)
	if !ok {
		return q, fmt.Errorf("%w: unknown city %q", ErrInvalidQuery, q.City)
	}
	q.City = city
	if q.Locality == "" {
		return q, nil
	}
	loc, ok := c.ResolveLocality(city, q.Locality)
	if !ok {
		return q, fmt.Errorf("%w: unknown locality %q in %s", ErrInvalidQuery, q.Locality, city)
	}
	q.Locality = loc
	return q, nil
}

// ResolveInput is the upstream validation guard shared by every surface: it
// parses submitted form values and maps city and locality onto catalog names.
func (c *LocationCatalog) ResolveInput(in model.PropertyInput, requireLocality bool) (model.PropertyQuery, error) {
	q, err := in.ToQuery()
	if err != nil {
		return model.PropertyQuery{}, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	if requireLocality && q.Locality == "" {
		return model.PropertyQuery{}, fmt.Errorf("%w: locality is required", ErrInvalidQuery)
	}
	return c.Resolve(q)
}
