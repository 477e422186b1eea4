package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/CatGallery/internal/domain"
	"github.com/CatGallery/internal/infra/metrics"
	"github.com/google/uuid"
)

// ErrSessionNotFound is returned for unknown or already closed session IDs.
var ErrSessionNotFound = errors.New("session not found")

// SessionManager keeps the gallery sessions opened through the HTTP surface.
// Sessions share the gateway but nothing else.
type SessionManager struct {
	gateway  domain.Gateway
	pageSize int
	relay    *SnapshotRelay

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionManager creates a manager. relay may be nil.
func NewSessionManager(gateway domain.Gateway, pageSize int, relay *SnapshotRelay) *SessionManager {
	return &SessionManager{
		gateway:  gateway,
		pageSize: pageSize,
		relay:    relay,
		sessions: make(map[string]*Session),
	}
}

// Create opens a session and starts loading its first page.
func (m *SessionManager) Create() *Session {
	s := NewSession(uuid.NewString(), m.gateway, m.pageSize)

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	metrics.ActiveSessions.Inc()

	if m.relay != nil {
		m.relay.Attach(s)
	}
	slog.Info("Session opened", "session", s.ID())

	s.Dispatch(domain.LoadImages)
	return s
}

// Get looks up an open session.
func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Len returns the number of open sessions.
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close tears down one session.
func (m *SessionManager) Close(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	metrics.ActiveSessions.Dec()
	slog.Info("Session closed", "session", id)
	return s.Close(ctx)
}

// CloseAll tears down every session, then waits for the relay to drain.
func (m *SessionManager) CloseAll(ctx context.Context) error {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	var errs []error
	for id, s := range sessions {
		metrics.ActiveSessions.Dec()
		if err := s.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close session %s: %w", id, err))
		}
	}
	if m.relay != nil {
		m.relay.Wait()
	}
	slog.Info("All sessions closed", "count", len(sessions))
	return errors.Join(errs...)
}
