package sessions

import (
	"context"
	"errors"
	"sync"
	"time"

	autherrors "github.com/timmelander/oidc-session-gateway/internal/errors"
)

// InMemoryRepo is a thread-safe in-memory session repository for tests and
// single-process development runs.
type InMemoryRepo struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
}

type memoryEntry struct {
	envelope  []byte
	expiresAt time.Time
}

var _ Repo = (*InMemoryRepo)(nil)

// NewInMemoryRepo creates a new in-memory session repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{sessions: make(map[string]memoryEntry)}
}

func (r *InMemoryRepo) Put(_ context.Context, sessionID string, envelope []byte, ttl time.Duration) error {
	if sessionID == "" {
		return errors.New("sessionID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := make([]byte, len(envelope))
	copy(stored, envelope)
	r.sessions[sessionID] = memoryEntry{envelope: stored, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (r *InMemoryRepo) Get(_ context.Context, sessionID string) ([]byte, error) {
	if sessionID == "" {
		return nil, errors.New("sessionID cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.sessions[sessionID]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, autherrors.ErrSessionNotFound
	}

	envelope := make([]byte, len(entry.envelope))
	copy(envelope, entry.envelope)
	return envelope, nil
}

func (r *InMemoryRepo) Delete(_ context.Context, sessionID string) error {
	if sessionID == "" {
		return errors.New("sessionID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, sessionID)
	return nil
}
