package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"fairrent/internal/metrics"
	"fairrent/internal/model"
	"fairrent/internal/utils"
)

// EstimateStore holds the session's current valuation estimate.
// Writes are last-write-wins.
type EstimateStore struct {
	mu      sync.RWMutex
	current *model.ValuationEstimate
}

// Current returns the stored estimate and whether one exists
func (s *EstimateStore) Current() (model.ValuationEstimate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return model.ValuationEstimate{}, false
	}
	return *s.current, true
}

// Set replaces the stored estimate
func (s *EstimateStore) Set(e model.ValuationEstimate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &e
}

// ContextJSON returns the estimate as sent to the assistant, or the literal
// null when no estimate exists yet.
func (s *EstimateStore) ContextJSON() json.RawMessage {
	e, ok := s.Current()
	if !ok {
		return json.RawMessage("null")
	}
	b, err := json.Marshal(e)
	if err != nil {
		return json.RawMessage("null")
	}
	return b
}

// ValuationClient runs the single in-flight valuation request of a session
// and owns the submit control state.
type ValuationClient struct {
	backend   ValuationBackend
	store     *EstimateStore
	events    EventLog
	sessionID string
	logger    *zap.Logger

	mu         sync.Mutex
	state      model.ValuationState
	submitting bool
}

// NewValuationClient creates a client writing successful estimates to store
func NewValuationClient(backend ValuationBackend, store *EstimateStore, logger *zap.Logger) *ValuationClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ValuationClient{
		backend: backend,
		store:   store,
		logger:  logger,
		state:   model.ValuationIdle,
	}
}

// WithEventLog attaches an event log; entries are tagged with sessionID
func (c *ValuationClient) WithEventLog(sessionID string, events EventLog) *ValuationClient {
	c.sessionID = sessionID
	c.events = events
	return c
}

// RequestEstimate sends q to the valuation backend. While a request is in
// flight further submissions fail with ErrSubmitDisabled. On failure the
// stored estimate is left untouched. The submit control is re-enabled on
// every exit path.
func (c *ValuationClient) RequestEstimate(ctx context.Context, q model.PropertyQuery) (model.ValuationEstimate, error) {
	if err := q.Validate(); err != nil {
		metrics.ValuationRequests.WithLabelValues(metrics.OutcomeRejected).Inc()
		return model.ValuationEstimate{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	q = q.WithDefaults()

	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		metrics.ValuationRequests.WithLabelValues(metrics.OutcomeRejected).Inc()
		return model.ValuationEstimate{}, ErrSubmitDisabled
	}
	c.submitting = true
	c.state = model.ValuationPending
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
	}()

	start := time.Now()
	est, err := c.backend.Predict(ctx, q)
	elapsed := time.Since(start)
	metrics.ValuationDuration.Observe(elapsed.Seconds())

	entry := &model.ValuationLog{
		SessionID:      c.sessionID,
		City:           q.City,
		Locality:       q.Locality,
		BHK:            q.BedroomCount,
		Area:           q.AreaSqFt,
		Furnishing:     q.Furnishing,
		ResponseTimeMs: int(elapsed.Milliseconds()),
	}

	if err != nil {
		c.setState(model.ValuationFailed)
		metrics.ValuationRequests.WithLabelValues(metrics.OutcomeFailure).Inc()
		c.logger.Warn("valuation request failed",
			zap.String("city", q.City),
			zap.String("locality", q.Locality),
			zap.Int("bhk", q.BedroomCount),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))

		entry.Outcome = metrics.OutcomeFailure
		entry.Error = errorText(err)
		recordAsync(c.events, c.logger, func(ctx context.Context, events EventLog) error {
			return events.LogValuation(ctx, entry)
		})
		return model.ValuationEstimate{}, err
	}

	c.store.Set(est)
	c.setState(model.ValuationSucceeded)
	metrics.ValuationRequests.WithLabelValues(metrics.OutcomeSuccess).Inc()
	c.logger.Debug("valuation received",
		zap.String("city", q.City),
		zap.Float64("fair_rent_low", est.FairRentLow),
		zap.Float64("fair_rent_high", est.FairRentHigh),
		zap.Duration("elapsed", elapsed))

	entry.Outcome = metrics.OutcomeSuccess
	entry.FairRentLow = &est.FairRentLow
	entry.FairRentHigh = &est.FairRentHigh
	recordAsync(c.events, c.logger, func(ctx context.Context, events EventLog) error {
		return events.LogValuation(ctx, entry)
	})
	return est, nil
}

func (c *ValuationClient) setState(s model.ValuationState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// SubmitEnabled reports whether a new request may be submitted
func (c *ValuationClient) SubmitEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.submitting
}

// State returns the lifecycle state of the latest request
func (c *ValuationClient) State() model.ValuationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// View describes the result panel. The last successful estimate stays
// visible while a new request is pending and after a failed one.
func (c *ValuationClient) View() model.ValuationView {
	c.mu.Lock()
	view := model.ValuationView{State: c.state, SubmitEnabled: !c.submitting}
	c.mu.Unlock()

	if est, ok := c.store.Current(); ok {
		view.ResultVisible = true
		view.Headline = utils.FormatINR(est.Midpoint())
		view.Range = FormatConfidenceRange(est)
		view.Estimate = &est
	}
	return view
}

// ViewWithAsking is View plus the asking rent check against the current
// estimate. asking <= 0 or a missing estimate leaves Asking unset.
func (c *ValuationClient) ViewWithAsking(asking float64) model.ValuationView {
	view := c.View()
	if asking > 0 && view.Estimate != nil {
		check := CheckAskingRent(*view.Estimate, asking)
		view.Asking = &check
	}
	return view
}

// CheckAskingRent grades asking against the estimate's midpoint: at or below
// it is fair, up to model.OverpricedRatio times it is negotiable, anything
// above is overpriced.
func CheckAskingRent(e model.ValuationEstimate, asking float64) model.AskingCheck {
	fair := e.Midpoint()
	check := model.AskingCheck{
		AskingRent: asking,
		FairRent:   fair,
		Difference: asking - fair,
	}

	percent := 0.0
	if fair > 0 {
		percent = check.Difference / fair * 100
	}
	over := utils.FormatINR(math.Abs(check.Difference))

	switch {
	case asking <= fair:
		check.Band = model.AskingFair
		if check.Difference == 0 {
			check.Summary = "✅ Fair deal: the asking rent matches the fair estimate."
		} else {
			check.Summary = fmt.Sprintf("✅ Fair deal: the asking rent is %s below the fair estimate.", over)
		}
	case asking <= fair*model.OverpricedRatio:
		check.Band = model.AskingNegotiable
		check.Summary = fmt.Sprintf("⚠️ Slightly above fair rent by %s (%.1f%%). There is room to negotiate.", over, percent)
	default:
		check.Band = model.AskingOverpriced
		check.Summary = fmt.Sprintf("🚩 Overpriced by %s (%.1f%%) against the fair estimate.", over, percent)
	}
	return check
}

// FormatConfidenceRange renders the low/high pair shown under the headline
func FormatConfidenceRange(e model.ValuationEstimate) string {
	return fmt.Sprintf("Confidence Range: %s - %s", utils.FormatINR(e.FairRentLow), utils.FormatINR(e.FairRentHigh))
}
