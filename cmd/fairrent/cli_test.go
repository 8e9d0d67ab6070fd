package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fairrent/internal/config"
	"fairrent/internal/model"
)

const testCatalog = `{"Mumbai":["Powai","Bandra West"],"Pune":["Baner","Kothrud"]}`

func writeCatalog(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "locality_mapping.json")
	require.NoError(t, os.WriteFile(path, []byte(testCatalog), 0o644))
	return path
}

// execute runs the CLI with args, feeding stdin and returning stdout
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	cfg := &config.Config{}
	cfg.Catalog.Path = writeCatalog(t)
	cmd := newRootCmd(cfg)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--style", "notty"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

type recordedRequests struct {
	mu     sync.Mutex
	bodies []map[string]any
}

func (r *recordedRequests) add(t *testing.T, req *http.Request) {
	var body map[string]any
	require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bodies = append(r.bodies, body)
}

func (r *recordedRequests) all() []map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]map[string]any(nil), r.bodies...)
}

func createValuationServer(t *testing.T, status int) (*httptest.Server, *recordedRequests) {
	rec := &recordedRequests{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.add(t, r)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"fair_rent_low":58520,"fair_rent_high":64680}`))
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func createAssistantServer(t *testing.T, status int) (*httptest.Server, *recordedRequests) {
	rec := &recordedRequests{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.add(t, r)
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(model.ChatResponse{LLMResponse: "Counter at **58,000**."})
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestCitiesCmd(t *testing.T) {
	out, err := execute(t, "", "cities")
	require.NoError(t, err)
	assert.Equal(t, "Mumbai\nPune\n", out)
}

func TestLocalitiesCmd(t *testing.T) {
	out, err := execute(t, "", "localities", "bombay")
	require.NoError(t, err)
	assert.Contains(t, out, "Mumbai")
	assert.Contains(t, out, "  Powai\n  Bandra West\n")

	_, err = execute(t, "", "localities", "Atlantis")
	assert.ErrorContains(t, err, "unknown city")
}

func TestEstimateCmd(t *testing.T) {
	srv, rec := createValuationServer(t, http.StatusOK)

	out, err := execute(t, "", "--valuation-url", srv.URL,
		"estimate", "--city", "mumbai", "--locality", "powai", "--bhk", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "₹61,600 / month")
	assert.Contains(t, out, "Confidence Range: ₹58,520 - ₹64,680")
	assert.Contains(t, out, "2 BHK · Powai, Mumbai · 1000 sqft · Semi-Furnished")

	bodies := rec.all()
	require.Len(t, bodies, 1)
	assert.Equal(t, map[string]any{
		"city": "Mumbai", "locality": "Powai", "bhk": 2.0, "area": 1000.0, "furnishing": "Semi-Furnished",
	}, bodies[0])
}

func TestEstimateCmd_Errors(t *testing.T) {
	failing, _ := createValuationServer(t, http.StatusInternalServerError)
	unused, rec := createValuationServer(t, http.StatusOK)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "Service failure",
			args:    []string{"--valuation-url", failing.URL, "estimate", "--city", "Pune", "--locality", "Baner", "--bhk", "1"},
			wantErr: "transport failure",
		},
		{
			name:    "Locality required",
			args:    []string{"--valuation-url", unused.URL, "estimate", "--city", "Pune", "--bhk", "1"},
			wantErr: "locality is required",
		},
		{
			name:    "Invalid bedrooms",
			args:    []string{"--valuation-url", unused.URL, "estimate", "--city", "Pune", "--locality", "Baner", "--bhk", "none"},
			wantErr: "bhk must be a positive integer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "", tt.args...)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
	assert.Empty(t, rec.all(), "rejected input never reaches the service")
}

func TestCompareCmd(t *testing.T) {
	out, err := execute(t, "", "compare",
		"--a-city", "Mumbai", "--a-bhk", "2", "--a-area", "800", "--a-furnishing", "Furnished",
		"--b-city", "Pune", "--b-bhk", "1", "--b-area", "1000", "--b-furnishing", "Unfurnished")
	require.NoError(t, err)

	assert.Contains(t, out, "₹61,600")
	assert.Contains(t, out, "₹77 / sqft")
	assert.Contains(t, out, "₹17,000")
	assert.Contains(t, out, "Property B ★")
	assert.Contains(t, out, "Property B wins on value!")
}

func TestCompareCmd_RejectsInvalidProperty(t *testing.T) {
	_, err := execute(t, "", "compare",
		"--a-city", "Mumbai", "--a-bhk", "0",
		"--b-city", "Pune", "--b-bhk", "1")
	assert.ErrorContains(t, err, "property A")
}

func TestChatCmd(t *testing.T) {
	assistant, rec := createAssistantServer(t, http.StatusOK)

	out, err := execute(t, "\nis 60k fair?\nquit\nnever sent\n", "--assistant-url", assistant.URL, "--persona", "owner", "chat")
	require.NoError(t, err)
	assert.Contains(t, out, "STRATEGIST COMPILING RESPONSE...")
	assert.Contains(t, out, "58,000")

	bodies := rec.all()
	require.Len(t, bodies, 1, "blank lines are ignored and quit stops the loop")
	assert.Equal(t, "is 60k fair?", bodies[0]["user_question"])
	assert.Equal(t, "user: is 60k fair?", bodies[0]["chat_history"])
	assert.Equal(t, "owner", bodies[0]["persona"])
	assert.Nil(t, bodies[0]["ml_data"])
}

func TestChatCmd_WithEstimate(t *testing.T) {
	valuation, _ := createValuationServer(t, http.StatusOK)
	assistant, rec := createAssistantServer(t, http.StatusOK)

	out, err := execute(t, "what should I offer?\n",
		"--valuation-url", valuation.URL, "--assistant-url", assistant.URL,
		"chat", "--city", "Mumbai", "--locality", "Powai", "--bhk", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "₹61,600 / month")

	bodies := rec.all()
	require.Len(t, bodies, 1)
	assert.Equal(t, map[string]any{"fair_rent_low": 58520.0, "fair_rent_high": 64680.0}, bodies[0]["ml_data"])
}

func TestChatCmd_Severed(t *testing.T) {
	assistant, _ := createAssistantServer(t, http.StatusBadGateway)

	out, err := execute(t, "hello\nagain\n", "--assistant-url", assistant.URL, "chat")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "Communication Link Severed."))
}

func TestRootCmd_TimeoutsFollowConfig(t *testing.T) {
	tests := []struct {
		name          string
		valuation     int
		assistant     int
		wantValuation string
		wantAssistant string
	}{
		{name: "Unset means transport default", wantValuation: "0s", wantAssistant: "0s"},
		{name: "Configured seconds", valuation: 5, assistant: 30, wantValuation: "5s", wantAssistant: "30s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{}
			cfg.Valuation.Timeout = tt.valuation
			cfg.Assistant.Timeout = tt.assistant
			flags := newRootCmd(cfg).PersistentFlags()

			assert.Equal(t, tt.wantValuation, flags.Lookup("valuation-timeout").DefValue)
			assert.Equal(t, tt.wantAssistant, flags.Lookup("assistant-timeout").DefValue)
		})
	}
}

func TestChatCmd_ContinuesAfterFailedEstimate(t *testing.T) {
	valuation, _ := createValuationServer(t, http.StatusInternalServerError)
	assistant, rec := createAssistantServer(t, http.StatusOK)

	out, err := execute(t, "what should I offer?\n",
		"--valuation-url", valuation.URL, "--assistant-url", assistant.URL,
		"chat", "--city", "Mumbai", "--locality", "Powai", "--bhk", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "transport failure")
	assert.NotContains(t, out, "/ month")
	assert.Contains(t, out, "58,000")

	bodies := rec.all()
	require.Len(t, bodies, 1)
	assert.Nil(t, bodies[0]["ml_data"])
}

func TestEstimateCmd_AskingRent(t *testing.T) {
	srv, _ := createValuationServer(t, http.StatusOK)

	tests := []struct {
		asking string
		want   string
	}{
		{asking: "60000", want: "Fair deal: the asking rent is ₹1,600 below the fair estimate."},
		{asking: "70000", want: "Slightly above fair rent by ₹8,400 (13.6%)."},
		{asking: "80000", want: "Overpriced by ₹18,400 (29.9%) against the fair estimate."},
	}

	for _, tt := range tests {
		t.Run(tt.asking, func(t *testing.T) {
			out, err := execute(t, "", "--valuation-url", srv.URL,
				"estimate", "--city", "Mumbai", "--locality", "Powai", "--bhk", "2", "--asking", tt.asking)
			require.NoError(t, err)
			assert.Contains(t, out, "vs fair ₹61,600")
			assert.Contains(t, out, tt.want)
		})
	}

	_, err := execute(t, "", "--valuation-url", srv.URL,
		"estimate", "--city", "Mumbai", "--locality", "Powai", "--bhk", "2", "--asking", "0")
	assert.ErrorContains(t, err, "asking_rent must be a positive amount")
}
