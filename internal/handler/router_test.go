package handler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fairrent/internal/model"
	"fairrent/internal/render"
	"fairrent/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubValuation struct {
	mu    sync.Mutex
	est   model.ValuationEstimate
	err   error
	calls []model.PropertyQuery
}

func (s *stubValuation) Predict(ctx context.Context, q model.PropertyQuery) (model.ValuationEstimate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, q)
	return s.est, s.err
}

type stubAssistant struct {
	mu       sync.Mutex
	err      error
	requests []model.ChatRequest
}

func (s *stubAssistant) Reply(ctx context.Context, req model.ChatRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.err != nil {
		return "", s.err
	}
	return "**Offer** less for " + req.UserQuestion, nil
}

func (s *stubAssistant) ReplyStream(ctx context.Context, req model.ChatRequest, onDelta func(string) error) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	for _, d := range []string{"Fair ", "enough."} {
		if err := onDelta(d); err != nil {
			return "", err
		}
	}
	return "Fair enough.", nil
}

type testServer struct {
	router    *gin.Engine
	sessions  *service.SessionManager
	valuation *stubValuation
	assistant *stubAssistant
}

func createTestServer(t *testing.T) *testServer {
	valuation := &stubValuation{est: model.ValuationEstimate{FairRentLow: 58520, FairRentHigh: 64680}}
	assistant := &stubAssistant{}
	sessions := service.NewSessionManager(service.Dependencies{Valuation: valuation, Assistant: assistant}, time.Hour)
	catalog := service.NewLocationCatalog(model.BootPayload{
		Cities: []string{"Mumbai", "Pune"},
		Localities: map[string][]string{
			"Mumbai": {"Powai", "Bandra West"},
			"Pune":   {"Baner"},
		},
	})
	router := NewRouter(RouterConfig{
		Sessions:  sessions,
		Catalog:   catalog,
		Renderer:  render.NewHTMLRenderer(),
		Assistant: assistant,
		Build:     BuildInfo{Version: "test"},
	})
	return &testServer{router: router, sessions: sessions, valuation: valuation, assistant: assistant}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) openSession(t *testing.T) string {
	w := s.do(t, http.MethodPost, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var resp model.SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.SessionID
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthAndVersion(t *testing.T) {
	s := createTestServer(t)

	w := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode[map[string]any](t, w)["status"])

	w = s.do(t, http.MethodGet, "/version", nil)
	assert.Equal(t, "test", decode[map[string]any](t, w)["version"])

	w = s.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "fairrent_active_sessions")
}

func TestSessionLifecycle(t *testing.T) {
	s := createTestServer(t)
	id := s.openSession(t)
	assert.Equal(t, 1, s.sessions.Len())

	w := s.do(t, http.MethodDelete, "/api/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodDelete, "/api/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/valuation", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCatalogRoutes(t *testing.T) {
	s := createTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/catalog/cities", nil)
	assert.Equal(t, []any{"Mumbai", "Pune"}, decode[map[string]any](t, w)["cities"])

	w = s.do(t, http.MethodGet, "/api/v1/catalog/cities/bombay/localities", nil)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "Mumbai", body["city"])
	assert.Equal(t, []any{"Powai", "Bandra West"}, body["localities"])

	w = s.do(t, http.MethodGet, "/api/v1/catalog/cities/Chennai/localities", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{}, decode[map[string]any](t, w)["localities"])

	w = s.do(t, http.MethodGet, "/api/v1/catalog", nil)
	boot := decode[model.BootPayload](t, w)
	assert.Equal(t, []string{"Mumbai", "Pune"}, boot.Cities)
	assert.Equal(t, []string{"Baner"}, boot.Localities["Pune"])
}

func TestValuationRoutes(t *testing.T) {
	s := createTestServer(t)
	id := s.openSession(t)

	w := s.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/valuation", nil)
	view := decode[model.ValuationView](t, w)
	assert.Equal(t, model.ValuationIdle, view.State)
	assert.False(t, view.ResultVisible)

	w = s.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/valuation", map[string]any{
		"city": "mumbai", "locality": "powai", "bhk": "2", "area": "",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view = decode[model.ValuationView](t, w)
	assert.Equal(t, model.ValuationSucceeded, view.State)
	assert.Equal(t, "₹61,600", view.Headline)
	assert.Equal(t, "Confidence Range: ₹58,520 - ₹64,680", view.Range)

	require.Len(t, s.valuation.calls, 1)
	assert.Equal(t, model.PropertyQuery{
		City: "Mumbai", Locality: "Powai", BedroomCount: 2, AreaSqFt: 1000, Furnishing: model.SemiFurnished,
	}, s.valuation.calls[0])

	s.valuation.err = service.ErrTransport
	w = s.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/valuation", map[string]any{
		"city": "Mumbai", "locality": "Powai", "bhk": 3,
	})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	failed := decode[struct {
		Error string              `json:"error"`
		View  model.ValuationView `json:"view"`
	}](t, w)
	assert.Contains(t, failed.Error, "transport failure")
	assert.Equal(t, "₹61,600", failed.View.Headline, "previous estimate is still shown")
	assert.True(t, failed.View.SubmitEnabled)
}

func TestValuationRejectsInvalidInput(t *testing.T) {
	s := createTestServer(t)
	id := s.openSession(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{name: "Missing city", body: map[string]any{"locality": "Powai", "bhk": 2}},
		{name: "Unknown city", body: map[string]any{"city": "Atlantis", "locality": "Powai", "bhk": 2}},
		{name: "Unknown locality", body: map[string]any{"city": "Mumbai", "locality": "Baner", "bhk": 2}},
		{name: "Missing locality", body: map[string]any{"city": "Mumbai", "bhk": 2}},
		{name: "Bad bhk", body: map[string]any{"city": "Mumbai", "locality": "Powai", "bhk": "two"}},
		{name: "Bad furnishing", body: map[string]any{"city": "Mumbai", "locality": "Powai", "bhk": 2, "furnishing": "Palatial"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/valuation", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
	assert.Empty(t, s.valuation.calls)
}

func TestCompareRoute(t *testing.T) {
	s := createTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/compare", map[string]any{
		"a": map[string]any{"city": "Mumbai", "locality": "Powai", "bhk": 2, "area": 800, "furnishing": "Furnished"},
		"b": map[string]any{"city": "pune", "locality": "Baner", "bhk": "1", "area": "1000", "furnishing": "Unfurnished"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[model.CompareResponse](t, w)
	assert.Equal(t, 61600.0, resp.Result.EstimatedRentA)
	assert.Equal(t, 17000.0, resp.Result.EstimatedRentB)
	assert.Equal(t, model.SideB, resp.Result.Winner)
	require.Len(t, resp.Cards, 2)
	assert.Equal(t, "₹77 / sqft", resp.Cards[0].UnitPrice)
	assert.True(t, resp.Cards[1].Highlighted)
	assert.Contains(t, resp.Verdict, "Property B wins on value!")

	w = s.do(t, http.MethodPost, "/api/v1/compare", map[string]any{
		"a": map[string]any{"city": "Mumbai", "bhk": 0},
		"b": map[string]any{"city": "Pune", "bhk": 1},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Property A")
}

func TestChatSubmitAndView(t *testing.T) {
	s := createTestServer(t)
	id := s.openSession(t)

	w := s.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/chat", model.ChatSubmitRequest{Message: "   "})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[model.ChatViewResponse](t, w).Transcript)

	w = s.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/chat", model.ChatSubmitRequest{Message: "<i>rent?</i>"})
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[model.ChatViewResponse](t, w)
	require.Len(t, view.Transcript, 2)
	assert.Equal(t, model.RoleAssistant, view.Transcript[1].Role)
	require.Len(t, view.Entries, 2)
	assert.Equal(t, "&lt;i&gt;rent?&lt;/i&gt;", view.Entries[0].Display)
	assert.Contains(t, view.Entries[1].Display, "<strong>Offer</strong>")

	s.assistant.err = service.ErrTransport
	w = s.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/chat", model.ChatSubmitRequest{Message: "again"})
	require.Equal(t, http.StatusOK, w.Code)
	view = decode[model.ChatViewResponse](t, w)
	assert.Len(t, view.Transcript, 3, "failed exchange adds no assistant turn")
	last := view.Entries[len(view.Entries)-1]
	assert.Equal(t, model.EntryDiagnostic, last.Kind)
	assert.Equal(t, service.SeveredText, last.Text)

	w = s.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/chat", nil)
	assert.Len(t, decode[model.ChatViewResponse](t, w).Entries, 4)
}

// readEvents collects the event names of an SSE body
func readEvents(t *testing.T, body string) []string {
	var events []string
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		if name, ok := strings.CutPrefix(sc.Text(), "event: "); ok {
			events = append(events, name)
		}
	}
	require.NoError(t, sc.Err())
	return events
}

func TestChatStream(t *testing.T) {
	s := createTestServer(t)
	id := s.openSession(t)

	w := s.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/chat/stream", model.ChatSubmitRequest{Message: "hello"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"accepted", "reply", "done"}, readEvents(t, w.Body.String()))
	assert.Contains(t, w.Body.String(), service.PlaceholderText)

	s.assistant.err = errors.New("boom")
	w = s.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/chat/stream", model.ChatSubmitRequest{Message: "again"})
	assert.Equal(t, []string{"accepted", "severed", "done"}, readEvents(t, w.Body.String()))

	w = s.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/chat/stream", model.ChatSubmitRequest{Message: ""})
	assert.Equal(t, []string{"done"}, readEvents(t, w.Body.String()))
}

func TestBuiltInAssistant(t *testing.T) {
	s := createTestServer(t)

	w := s.do(t, http.MethodPost, "/chat", map[string]any{
		"user_question": "is it fair?",
		"ml_data":       nil,
		"chat_history":  "user: is it fair?",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "**Offer** less for is it fair?", decode[model.ChatResponse](t, w).LLMResponse)
	require.Len(t, s.assistant.requests, 1)
	assert.Equal(t, "null", string(s.assistant.requests[0].MLData))

	w = s.do(t, http.MethodPost, "/chat", map[string]any{"user_question": " "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/chat/stream", map[string]any{"user_question": "q"})
	assert.Equal(t, []string{"delta", "delta", "done"}, readEvents(t, w.Body.String()))
	assert.Contains(t, w.Body.String(), `"llm_response":"Fair enough."`)

	s.assistant.err = service.ErrTransport
	w = s.do(t, http.MethodPost, "/chat", map[string]any{"user_question": "q"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestValuationAskingRent(t *testing.T) {
	s := createTestServer(t)
	id := s.openSession(t)
	path := "/api/v1/sessions/" + id + "/valuation"

	w := s.do(t, http.MethodPost, path, map[string]any{
		"city": "Mumbai", "locality": "Powai", "bhk": 2, "asking_rent": "75000",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view := decode[model.ValuationView](t, w)
	require.NotNil(t, view.Asking)
	assert.Equal(t, model.AskingOverpriced, view.Asking.Band)
	assert.Equal(t, 61600.0, view.Asking.FairRent)
	assert.Equal(t, 13400.0, view.Asking.Difference)

	tests := []struct {
		query    string
		wantBand model.AskingBand
	}{
		{query: "?asking_rent=60000", wantBand: model.AskingFair},
		{query: "?asking_rent=70000", wantBand: model.AskingNegotiable},
		{query: "?asking_rent=80000", wantBand: model.AskingOverpriced},
	}
	for _, tt := range tests {
		t.Run(string(tt.wantBand), func(t *testing.T) {
			w := s.do(t, http.MethodGet, path+tt.query, nil)
			require.Equal(t, http.StatusOK, w.Code)
			view := decode[model.ValuationView](t, w)
			require.NotNil(t, view.Asking)
			assert.Equal(t, tt.wantBand, view.Asking.Band)
		})
	}

	w = s.do(t, http.MethodGet, path, nil)
	assert.Nil(t, decode[model.ValuationView](t, w).Asking)

	w = s.do(t, http.MethodGet, path+"?asking_rent=-5", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	calls := len(s.valuation.calls)
	w = s.do(t, http.MethodPost, path, map[string]any{
		"city": "Mumbai", "locality": "Powai", "bhk": 2, "asking_rent": "lots",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "asking_rent")
	assert.Len(t, s.valuation.calls, calls, "invalid asking rent never reaches the service")
}
