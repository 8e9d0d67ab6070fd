package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fairrent/internal/metrics"
)

// Dependencies are the collaborators shared by every session
type Dependencies struct {
	Valuation ValuationBackend
	Assistant AssistantBackend
	Events    EventLog // optional
	Persona   string
	Logger    *zap.Logger
}

// Session owns the state of one advisor session: the current estimate, the
// valuation lifecycle and the conversation.
type Session struct {
	ID           string
	CreatedAt    time.Time
	Estimates    *EstimateStore
	Valuation    *ValuationClient
	Conversation *ConversationSession

	mu       sync.Mutex
	lastSeen time.Time
}

// NewSession wires the session components around a shared estimate store
func NewSession(id string, deps Dependencies) *Session {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("session_id", id))

	store := &EstimateStore{}
	valuation := NewValuationClient(deps.Valuation, store, logger)
	conversation := NewConversationSession(deps.Assistant, store, logger).WithPersona(deps.Persona)
	if deps.Events != nil {
		valuation.WithEventLog(id, deps.Events)
		conversation.WithEventLog(id, deps.Events)
	}

	now := time.Now()
	return &Session{
		ID:           id,
		CreatedAt:    now,
		Estimates:    store,
		Valuation:    valuation,
		Conversation: conversation,
		lastSeen:     now,
	}
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// idleSince reports whether the session was last used before cutoff and has
// no exchange in flight
func (s *Session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	seen := s.lastSeen
	s.mu.Unlock()
	return seen.Before(cutoff) && s.Conversation.Pending() == 0 && s.Valuation.SubmitEnabled()
}

// SessionManager keeps the in-memory sessions of the advisor API
type SessionManager struct {
	deps    Dependencies
	idleTTL time.Duration
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionManager creates a manager. Sessions unused for idleTTL are
// removed by Reap; a zero idleTTL disables reaping.
func NewSessionManager(deps Dependencies, idleTTL time.Duration) *SessionManager {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionManager{
		deps:     deps,
		idleTTL:  idleTTL,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Open starts a new session
func (m *SessionManager) Open() *Session {
	s := NewSession(uuid.NewString(), m.deps)
	s.touch(m.now())

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	metrics.ActiveSessions.Inc()
	m.logger.Debug("session opened", zap.String("session_id", s.ID))
	return s
}

// Get returns the session with id and marks it as used
func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.touch(m.now())
	return s, nil
}

// Close ends the session with id. Its state is discarded.
func (m *SessionManager) Close(id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	metrics.ActiveSessions.Dec()
	m.logger.Debug("session closed", zap.String("session_id", id))
	return nil
}

// Len returns the number of open sessions
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Reap removes idle sessions and returns how many were removed
func (m *SessionManager) Reap() int {
	if m.idleTTL <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.idleTTL)

	m.mu.Lock()
	removed := 0
	for id, s := range m.sessions {
		if s.idleSince(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	m.mu.Unlock()

	if removed > 0 {
		metrics.ActiveSessions.Sub(float64(removed))
		m.logger.Info("reaped idle sessions", zap.Int("count", removed))
	}
	return removed
}

// Run reaps idle sessions periodically until ctx is done
func (m *SessionManager) Run(ctx context.Context) error {
	if m.idleTTL <= 0 {
		<-ctx.Done()
		return nil
	}
	interval := m.idleTTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Reap()
		}
	}
}
