package httpapi

import (
	"errors"
	"sync"
	"time"

	"github.com/bastiangx/hposerve/internal/metrics"
	"github.com/bastiangx/hposerve/pkg/selection"
	"github.com/google/uuid"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("session not found")

type session struct {
	sel      *selection.Selection
	lastSeen time.Time
}

// SessionStore holds one Selection per browser session. Selections live in
// memory only and are dropped after sitting idle for the store's TTL.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore creates a store expiring sessions idle for longer than ttl.
// A ttl <= 0 keeps sessions until deleted.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create opens a session with an empty selection and returns its id.
func (s *SessionStore) Create() string {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &session{sel: selection.New(), lastSeen: s.now()}
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	return id
}

// With runs fn on the session's selection while holding the store lock.
func (s *SessionStore) With(id string, fn func(sel *selection.Selection) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || s.expired(sess) {
		return ErrSessionNotFound
	}
	sess.lastSeen = s.now()
	return fn(sess.sel)
}

// Delete drops a session. It reports whether it existed.
func (s *SessionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	return true
}

// Prune drops expired sessions and returns how many were removed.
func (s *SessionStore) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, id)
			removed++
		}
	}
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	return removed
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionStore) expired(sess *session) bool {
	return s.ttl > 0 && s.now().Sub(sess.lastSeen) > s.ttl
}
