package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fairrent/internal/metrics"
	"fairrent/internal/model"
	"fairrent/internal/render"
)

// Texts shown in place of an assistant reply
const (
	PlaceholderText = "STRATEGIST COMPILING RESPONSE..."
	SeveredText     = "Communication Link Severed."
)

// Exchange is one user question awaiting its assistant reply. The request is
// fixed when the user turn is submitted.
type Exchange struct {
	ID      string
	Request model.ChatRequest
}

type slotState int

const (
	slotComposing slotState = iota // created, request not sent yet
	slotAwaiting
	slotFailed
)

// slot is the display-only marker of an exchange, placed after its user turn
type slot struct {
	id        string
	afterTurn int
	state     slotState
}

// ConversationSession is an append-only transcript plus the display markers
// of exchanges that have not resolved into an assistant turn.
type ConversationSession struct {
	backend   AssistantBackend
	estimates *EstimateStore
	persona   string
	events    EventLog
	sessionID string
	logger    *zap.Logger

	mu    sync.Mutex
	turns []model.Turn
	slots []slot
}

// NewConversationSession creates an empty conversation. Assistant requests
// carry the current estimate of estimates as context.
func NewConversationSession(backend AssistantBackend, estimates *EstimateStore, logger *zap.Logger) *ConversationSession {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConversationSession{
		backend:   backend,
		estimates: estimates,
		logger:    logger,
	}
}

// WithPersona sets the persona forwarded to the assistant (tenant or owner)
func (s *ConversationSession) WithPersona(persona string) *ConversationSession {
	s.persona = persona
	return s
}

// WithEventLog attaches an event log; entries are tagged with sessionID
func (s *ConversationSession) WithEventLog(sessionID string, events EventLog) *ConversationSession {
	s.sessionID = sessionID
	s.events = events
	return s
}

// SubmitUserTurn appends a user turn and opens an exchange for it. Blank
// text is ignored and reports false.
func (s *ConversationSession) SubmitUserTurn(text string) (*Exchange, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = append(s.turns, model.Turn{Role: model.RoleUser, Text: text})
	ex := &Exchange{
		ID: uuid.NewString(),
		Request: model.ChatRequest{
			UserQuestion: text,
			MLData:       s.estimates.ContextJSON(),
			ChatHistory:  model.FormatHistory(s.turns),
			Persona:      s.persona,
		},
	}
	s.slots = append(s.slots, slot{id: ex.ID, afterTurn: len(s.turns) - 1, state: slotComposing})
	return ex, true
}

// RequestAssistantReply sends the exchange to the assistant backend. On
// success the reply is appended as an assistant turn and the exchange's
// placeholder is removed; on failure the placeholder turns into a diagnostic
// and the transcript is left as it was.
func (s *ConversationSession) RequestAssistantReply(ctx context.Context, ex *Exchange) (string, error) {
	s.mu.Lock()
	i := s.slotIndex(ex.ID)
	if i < 0 || s.slots[i].state != slotComposing {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrUnknownExchange, ex.ID)
	}
	s.slots[i].state = slotAwaiting
	s.mu.Unlock()

	start := time.Now()
	reply, err := s.backend.Reply(ctx, ex.Request)
	elapsed := time.Since(start)
	metrics.ChatDuration.Observe(elapsed.Seconds())

	s.resolve(ex.ID, reply, err)

	entry := &model.ChatLog{
		SessionID:      s.sessionID,
		ExchangeID:     ex.ID,
		Outcome:        metrics.OutcomeSuccess,
		ResponseTimeMs: int(elapsed.Milliseconds()),
	}
	if err != nil {
		metrics.ChatExchanges.WithLabelValues(metrics.OutcomeFailure).Inc()
		s.logger.Warn("assistant request failed",
			zap.String("exchange_id", ex.ID),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		entry.Outcome = metrics.OutcomeFailure
		entry.Error = errorText(err)
	} else {
		metrics.ChatExchanges.WithLabelValues(metrics.OutcomeSuccess).Inc()
	}
	recordAsync(s.events, s.logger, func(ctx context.Context, events EventLog) error {
		return events.LogExchange(ctx, entry)
	})

	if err != nil {
		return "", err
	}
	return reply, nil
}

// resolve applies the outcome to the exchange's own slot, found by id
func (s *ConversationSession) resolve(id, reply string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.slotIndex(id)
	if i < 0 {
		return
	}
	if err != nil {
		s.slots[i].state = slotFailed
		return
	}
	s.turns = append(s.turns, model.Turn{Role: model.RoleAssistant, Text: reply})
	s.slots = append(s.slots[:i], s.slots[i+1:]...)
}

func (s *ConversationSession) slotIndex(id string) int {
	for i, sl := range s.slots {
		if sl.id == id {
			return i
		}
	}
	return -1
}

// Transcript returns a copy of the turns in chronological order
func (s *ConversationSession) Transcript() []model.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Turn(nil), s.turns...)
}

// Pending returns the number of exchanges still waiting for a reply
func (s *ConversationSession) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sl := range s.slots {
		if sl.state != slotFailed {
			n++
		}
	}
	return n
}

// Display renders the transcript with each exchange marker placed right
// after the user turn that opened it. Assistant text goes through the
// markdown renderer, everything else is shown literally.
func (s *ConversationSession) Display(r render.Renderer) []model.DisplayEntry {
	s.mu.Lock()
	turns := append([]model.Turn(nil), s.turns...)
	slots := append([]slot(nil), s.slots...)
	s.mu.Unlock()

	entries := make([]model.DisplayEntry, 0, len(turns)+len(slots))
	for i, t := range turns {
		entries = append(entries, s.turnEntry(r, t))
		for _, sl := range slots {
			if sl.afterTurn != i {
				continue
			}
			if sl.state == slotFailed {
				entries = append(entries, model.DisplayEntry{
					ID:      sl.id,
					Kind:    model.EntryDiagnostic,
					Role:    model.RoleAssistant,
					Text:    SeveredText,
					Display: r.Literal(SeveredText),
				})
				continue
			}
			entries = append(entries, model.DisplayEntry{
				ID:      sl.id,
				Kind:    model.EntryPlaceholder,
				Role:    model.RoleAssistant,
				Text:    PlaceholderText,
				Display: r.Literal(PlaceholderText),
			})
		}
	}
	return entries
}

func (s *ConversationSession) turnEntry(r render.Renderer, t model.Turn) model.DisplayEntry {
	entry := model.DisplayEntry{Kind: model.EntryTurn, Role: t.Role, Text: t.Text}
	if t.Role != model.RoleAssistant {
		entry.Display = r.Literal(t.Text)
		return entry
	}
	out, err := r.Markdown(t.Text)
	if err != nil {
		s.logger.Warn("failed to render assistant markdown, showing literal text", zap.Error(err))
		out = r.Literal(t.Text)
	}
	entry.Display = out
	return entry
}
