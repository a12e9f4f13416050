package authstate

import (
	"context"
	"errors"
	"sync"
	"time"

	autherrors "github.com/timmelander/oidc-session-gateway/internal/errors"
)

// InMemoryRepo is a thread-safe in-memory implementation of Repo. Consume is
// atomic under the repo mutex, preserving the consume-once contract.
type InMemoryRepo struct {
	mu     sync.Mutex
	states map[string]memoryState
}

type memoryState struct {
	state     State
	expiresAt time.Time
}

var _ Repo = (*InMemoryRepo)(nil)

// NewInMemoryRepo creates a new in-memory exchange-state repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{states: make(map[string]memoryState)}
}

func (r *InMemoryRepo) Create(_ context.Context, stateToken string, state *State, ttl time.Duration) error {
	if stateToken == "" {
		return errors.New("state token cannot be empty")
	}
	if state == nil {
		return errors.New("state cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.states[stateToken] = memoryState{state: *state, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (r *InMemoryRepo) Consume(_ context.Context, stateToken string) (*State, error) {
	if stateToken == "" {
		return nil, errors.New("state token cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.states[stateToken]
	delete(r.states, stateToken)
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, autherrors.ErrStateNotFound
	}

	state := entry.state
	return &state, nil
}
