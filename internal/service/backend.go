package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"fairrent/internal/model"
	"fairrent/internal/utils"
)

// ValuationBackend obtains a fair-rent estimate for a property
type ValuationBackend interface {
	Predict(ctx context.Context, q model.PropertyQuery) (model.ValuationEstimate, error)
}

// AssistantBackend answers one conversational request with markdown text
type AssistantBackend interface {
	Reply(ctx context.Context, req model.ChatRequest) (string, error)
}

var valuationResponseSchema = utils.MustCompileSchema(`{
	"type": "object",
	"required": ["fair_rent_low", "fair_rent_high"],
	"properties": {
		"fair_rent_low": {"type": "number"},
		"fair_rent_high": {"type": "number"}
	}
}`)

var chatResponseSchema = utils.MustCompileSchema(`{
	"type": "object",
	"required": ["llm_response"],
	"properties": {
		"llm_response": {"type": "string"}
	}
}`)

// valuationRequest is the wire body of a /predict call
type valuationRequest struct {
	City       string           `json:"city"`
	Locality   string           `json:"locality"`
	BHK        int              `json:"bhk"`
	Area       float64          `json:"area"`
	Furnishing model.Furnishing `json:"furnishing"`
}

// HTTPValuationBackend calls a remote /predict endpoint
type HTTPValuationBackend struct {
	url        string
	httpClient *http.Client
}

// NewHTTPValuationBackend creates a valuation backend. A zero timeout keeps
// the transport default.
func NewHTTPValuationBackend(url string, timeout time.Duration) *HTTPValuationBackend {
	return &HTTPValuationBackend{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Predict implements ValuationBackend. The complete response object is kept
// as the estimate's context.
func (b *HTTPValuationBackend) Predict(ctx context.Context, q model.PropertyQuery) (model.ValuationEstimate, error) {
	body, err := postJSON(ctx, b.httpClient, b.url, valuationRequest{
		City:       q.City,
		Locality:   q.Locality,
		BHK:        q.BedroomCount,
		Area:       q.AreaSqFt,
		Furnishing: q.Furnishing,
	})
	if err != nil {
		return model.ValuationEstimate{}, err
	}

	var est model.ValuationEstimate
	if err := utils.DecodeJSON(body, valuationResponseSchema, &est); err != nil {
		return model.ValuationEstimate{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if est.FairRentLow > est.FairRentHigh {
		return model.ValuationEstimate{}, fmt.Errorf("%w: fair_rent_low %.0f exceeds fair_rent_high %.0f",
			ErrMalformedResponse, est.FairRentLow, est.FairRentHigh)
	}
	est.Context = json.RawMessage(body)
	return est, nil
}

// HTTPAssistantBackend calls a remote /chat endpoint
type HTTPAssistantBackend struct {
	url        string
	httpClient *http.Client
}

// NewHTTPAssistantBackend creates an assistant backend
func NewHTTPAssistantBackend(url string, timeout time.Duration) *HTTPAssistantBackend {
	return &HTTPAssistantBackend{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Reply implements AssistantBackend
func (b *HTTPAssistantBackend) Reply(ctx context.Context, req model.ChatRequest) (string, error) {
	if len(req.MLData) == 0 {
		req.MLData = json.RawMessage("null")
	}
	body, err := postJSON(ctx, b.httpClient, b.url, req)
	if err != nil {
		return "", err
	}

	var resp model.ChatResponse
	if err := utils.DecodeJSON(body, chatResponseSchema, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return resp.LLMResponse, nil
}

// postJSON sends payload and returns the response body of a 2xx answer.
// Network errors and other statuses are reported as ErrTransport.
func postJSON(ctx context.Context, client *http.Client, url string, payload any) ([]byte, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrTransport, resp.StatusCode, utils.TruncateString(string(body), 200))
	}
	return body, nil
}
