package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rentSchema = `{
	"type": "object",
	"required": ["low", "high"],
	"properties": {
		"low": {"type": "number"},
		"high": {"type": "number"}
	}
}`

func TestDecodeJSON(t *testing.T) {
	schema := MustCompileSchema(rentSchema)

	type rent struct {
		Low  float64 `json:"low"`
		High float64 `json:"high"`
	}

	tests := []struct {
		name    string
		input   string
		want    rent
		wantErr bool
	}{
		{
			name:  "Valid object",
			input: `{"low": 100, "high": 120}`,
			want:  rent{Low: 100, High: 120},
		},
		{
			name:  "Extra fields are allowed",
			input: `{"low": 1, "high": 2, "city": "Pune"}`,
			want:  rent{Low: 1, High: 2},
		},
		{
			name:    "Missing field",
			input:   `{"low": 100}`,
			wantErr: true,
		},
		{
			name:    "Wrong type",
			input:   `{"low": "100", "high": 120}`,
			wantErr: true,
		},
		{
			name:    "Not JSON",
			input:   `<html>502 Bad Gateway</html>`,
			wantErr: true,
		},
		{
			name:    "Empty string",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got rent
			err := DecodeJSON([]byte(tt.input), schema, &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeJSON_WithoutSchema(t *testing.T) {
	var got map[string]interface{}
	require.NoError(t, DecodeJSON([]byte(`{"a": 1}`), nil, &got))
	assert.Equal(t, float64(1), got["a"])
}

func TestCompileSchema_Invalid(t *testing.T) {
	_, err := CompileSchema(`{"type": "object"`)
	assert.Error(t, err)
}

func TestSchemaValidate_ReportsAllViolations(t *testing.T) {
	schema := MustCompileSchema(rentSchema)
	err := schema.Validate([]byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "low")
	assert.Contains(t, err.Error(), "high")
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "abc", TruncateString("abc", 5))
	assert.Equal(t, "ab...", TruncateString("abcdef", 2))
	assert.True(t, strings.HasSuffix(TruncateString(strings.Repeat("x", 200), 100), "..."))
}

func TestTruncateString_KeepsRunesWhole(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		// ₹ is three bytes
		{name: "Cut inside rupee sign", input: "rent ₹61,600", maxLen: 6, want: "rent ..."},
		{name: "Cut after rupee sign", input: "rent ₹61,600", maxLen: 8, want: "rent ₹..."},
		{name: "Devanagari", input: "किराया", maxLen: 4, want: "क..."},
		{name: "Nothing fits", input: "₹₹", maxLen: 2, want: "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateString(tt.input, tt.maxLen)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}
