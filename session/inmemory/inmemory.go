package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mohammad-safakhou/careerdesk/session"
	"github.com/mohammad-safakhou/careerdesk/session/session_object"
)

type Store struct {
	sessions map[string]*session_object.Session
	mu       sync.RWMutex
}

func NewInMemorySessionStore() *Store {
	return &Store{sessions: make(map[string]*session_object.Session)}
}

// EnsureSession returns the live session id owned by owner, refreshing its
// TTL, or creates a new one with a fresh id.
func (store *Store) EnsureSession(id, owner string, ttl time.Duration) (session.Session, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if id != "" {
		if sess, ok := store.sessions[id]; ok && sess.Owner() == owner && time.Now().Before(sess.ExpiresAt()) {
			sess.Expire(ttl)
			return sess, nil
		}
	}

	sess, err := session_object.NewSession(uuid.NewString(), owner, ttl)
	if err != nil {
		return nil, err
	}
	store.sessions[sess.ID()] = sess
	return sess, nil
}

func (store *Store) GetSession(id string) (session.Session, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	sess, ok := store.sessions[id]
	if !ok || !time.Now().Before(sess.ExpiresAt()) {
		return nil, session.ErrNotFound
	}
	return sess, nil
}

func (store *Store) DeleteSession(id string) bool {
	store.mu.Lock()
	defer store.mu.Unlock()
	_, ok := store.sessions[id]
	delete(store.sessions, id)
	return ok
}

// Sweep drops sessions expired at now and returns how many were removed.
func (store *Store) Sweep(now time.Time) int {
	store.mu.Lock()
	defer store.mu.Unlock()
	n := 0
	for id, sess := range store.sessions {
		if !now.Before(sess.ExpiresAt()) {
			delete(store.sessions, id)
			n++
		}
	}
	return n
}

// Janitor sweeps every interval until ctx is done.
func (store *Store) Janitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			store.Sweep(now)
		}
	}
}
