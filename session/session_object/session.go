package session_object

import (
	"fmt"
	"sync"
	"time"

	"github.com/mohammad-safakhou/careerdesk/internal/agent/core"
)

type Session struct {
	id    string
	owner string

	turn sync.Mutex

	mu         sync.RWMutex
	expiresAt  time.Time
	transcript core.Transcript
	updatedAt  time.Time
}

func NewSession(id, owner string, ttl time.Duration) (*Session, error) {
	if id == "" {
		return nil, fmt.Errorf("session id is required")
	}
	now := time.Now()
	return &Session{
		id:         id,
		owner:      owner,
		expiresAt:  now.Add(ttl),
		transcript: core.NewTranscript(),
		updatedAt:  now,
	}, nil
}

func (s *Session) ID() string    { return s.id }
func (s *Session) Owner() string { return s.owner }

func (s *Session) Expire(ttl time.Duration) {
	s.mu.Lock()
	s.expiresAt = time.Now().Add(ttl)
	s.mu.Unlock()
}

func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

func (s *Session) Lock()   { s.turn.Lock() }
func (s *Session) Unlock() { s.turn.Unlock() }

func (s *Session) Transcript() core.Transcript {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transcript
}

// SetTranscript stores the post-turn transcript.
func (s *Session) SetTranscript(t core.Transcript) {
	s.mu.Lock()
	s.transcript = t
	s.updatedAt = time.Now()
	s.mu.Unlock()
}

func (s *Session) Clear() {
	s.SetTranscript(core.NewTranscript())
}

func (s *Session) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}
