package utils

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is a compiled JSON schema used to check response shapes before decoding
type Schema struct {
	schema *gojsonschema.Schema
}

// CompileSchema compiles a JSON schema document
func CompileSchema(src string) (*Schema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return &Schema{schema: s}, nil
}

// MustCompileSchema is CompileSchema for package-level schemas
func MustCompileSchema(src string) *Schema {
	s, err := CompileSchema(src)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks body against the schema and reports every violation in one error
func (s *Schema) Validate(body []byte) error {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("schema violation: %s", strings.Join(msgs, "; "))
}

// DecodeJSON validates body against schema (when non-nil) and unmarshals it into target
func DecodeJSON(body []byte, schema *Schema, target interface{}) error {
	if len(strings.TrimSpace(string(body))) == 0 {
		return fmt.Errorf("empty input")
	}
	if schema != nil {
		if err := schema.Validate(body); err != nil {
			return fmt.Errorf("%w (body: %s)", err, TruncateString(string(body), 100))
		}
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("failed to decode JSON: %w (body: %s)", err, TruncateString(string(body), 100))
	}
	return nil
}

// TruncateString truncates a string to at most maxLen bytes without
// splitting a multi-byte character
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
