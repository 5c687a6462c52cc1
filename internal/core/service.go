package core

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxSessions bounds the number of live sessions.
const DefaultMaxSessions = 100

// ServiceConfig configures a Service. Zero values get defaults.
type ServiceConfig struct {
	MaxSessions int
	// Templates is a store shared by every session. When nil each session
	// gets its own in-memory store.
	Templates TemplateStore
}

// Service owns the live sessions. Each session is only ever used by one
// caller at a time.
type Service struct {
	templates   TemplateStore
	maxSessions int
	now         func() time.Time

	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

type sessionEntry struct {
	mu       sync.Mutex
	session  *Session
	lastUsed time.Time
	removed  bool
}

// NewService creates a Service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	return &Service{
		templates:   cfg.Templates,
		maxSessions: cfg.MaxSessions,
		now:         time.Now,
		sessions:    make(map[string]*sessionEntry),
	}
}

// Create starts a new empty session and returns its ID.
func (s *Service) Create(ctx context.Context) (string, error) {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.sessions) >= s.maxSessions {
		return "", ErrTooManySessions
	}
	sess := NewSession(id, s.templates)
	sess.now = s.now
	s.sessions[id] = &sessionEntry{session: sess, lastUsed: s.now()}

	slog.Info("session created", "session_id", id, "active_sessions", len(s.sessions))
	return id, nil
}

// Do runs fn with exclusive access to the session.
func (s *Service) Do(ctx context.Context, id string, fn func(*Session) error) error {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.removed {
		return ErrSessionNotFound
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	e.lastUsed = s.now()
	return fn(e.session)
}

// Delete ends a session.
func (s *Service) Delete(id string) error {
	s.mu.Lock()
	e, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	e.mu.Lock()
	e.removed = true
	e.mu.Unlock()

	slog.Info("session deleted", "session_id", id)
	return nil
}

// Count returns the number of live sessions.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// ReapIdle removes sessions unused for longer than maxIdle. Sessions busy
// at the time are left alone. It returns the number removed.
func (s *Service) ReapIdle(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()

	reaped := 0
	for id, e := range s.sessions {
		if !e.mu.TryLock() {
			continue
		}
		if e.lastUsed.Before(cutoff) {
			e.removed = true
			delete(s.sessions, id)
			reaped++
		}
		e.mu.Unlock()
	}
	return reaped
}
