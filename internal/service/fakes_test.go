package service

import (
	"context"
	"sync"

	"fairrent/internal/model"
)

// fakeValuation returns a fixed estimate or error. When block is set every
// call announces itself on started and waits for block to be closed.
type fakeValuation struct {
	mu      sync.Mutex
	calls   []model.PropertyQuery
	est     model.ValuationEstimate
	err     error
	started chan struct{}
	block   chan struct{}
}

func (f *fakeValuation) Predict(ctx context.Context, q model.PropertyQuery) (model.ValuationEstimate, error) {
	f.mu.Lock()
	f.calls = append(f.calls, q)
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	return f.est, f.err
}

func (f *fakeValuation) Calls() []model.PropertyQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.PropertyQuery(nil), f.calls...)
}

type assistantResult struct {
	text string
	err  error
}

// gatedAssistant answers "echo: <question>" unless a gate is registered for
// the question, in which case it reports arrival and waits for the gate.
type gatedAssistant struct {
	mu       sync.Mutex
	requests []model.ChatRequest
	gates    map[string]chan assistantResult
	arrived  chan string
}

func newGatedAssistant() *gatedAssistant {
	return &gatedAssistant{
		gates:   make(map[string]chan assistantResult),
		arrived: make(chan string, 16),
	}
}

func (g *gatedAssistant) gate(question string) chan assistantResult {
	ch := make(chan assistantResult, 1)
	g.mu.Lock()
	g.gates[question] = ch
	g.mu.Unlock()
	return ch
}

func (g *gatedAssistant) Reply(ctx context.Context, req model.ChatRequest) (string, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	gate := g.gates[req.UserQuestion]
	g.mu.Unlock()

	if gate == nil {
		return "echo: " + req.UserQuestion, nil
	}
	g.arrived <- req.UserQuestion
	r := <-gate
	return r.text, r.err
}

func (g *gatedAssistant) Requests() []model.ChatRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]model.ChatRequest(nil), g.requests...)
}

// recordingEventLog collects event log entries
type recordingEventLog struct {
	mu         sync.Mutex
	valuations []*model.ValuationLog
	exchanges  []*model.ChatLog
	done       chan struct{}
}

func newRecordingEventLog() *recordingEventLog {
	return &recordingEventLog{done: make(chan struct{}, 16)}
}

func (r *recordingEventLog) LogValuation(ctx context.Context, entry *model.ValuationLog) error {
	r.mu.Lock()
	r.valuations = append(r.valuations, entry)
	r.mu.Unlock()
	r.done <- struct{}{}
	return nil
}

func (r *recordingEventLog) LogExchange(ctx context.Context, entry *model.ChatLog) error {
	r.mu.Lock()
	r.exchanges = append(r.exchanges, entry)
	r.mu.Unlock()
	r.done <- struct{}{}
	return nil
}
