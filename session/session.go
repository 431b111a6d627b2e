package session

import (
	"errors"
	"time"

	"github.com/mohammad-safakhou/careerdesk/internal/agent/core"
)

var ErrNotFound = errors.New("session not found")

// Store keeps conversations between turns. Sessions live in process memory
// only and expire after their TTL.
type Store interface {
	EnsureSession(id, owner string, ttl time.Duration) (Session, error)
	GetSession(id string) (Session, error)
	DeleteSession(id string) bool
	Sweep(now time.Time) int
}

// Session is one conversation. Callers hold Lock for the whole turn so two
// turns on the same session never interleave.
type Session interface {
	ID() string
	Owner() string
	Expire(ttl time.Duration)
	ExpiresAt() time.Time
	Lock()
	Unlock()
	Transcript() core.Transcript
	SetTranscript(t core.Transcript)
	Clear()
}
