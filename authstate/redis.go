package authstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	autherrors "github.com/timmelander/oidc-session-gateway/internal/errors"
)

const stateKeyPrefix = "state:"

// RedisRepo stores exchange-state records as JSON under "state:{token}".
// Consume maps to a single GETDEL, so concurrent consumes of the same token
// resolve in the cache: exactly one caller gets the record.
type RedisRepo struct {
	client redis.UniversalClient
}

var _ Repo = (*RedisRepo)(nil)

// NewRedisRepo creates an exchange-state repository on an existing client.
func NewRedisRepo(client redis.UniversalClient) *RedisRepo {
	return &RedisRepo{client: client}
}

// Create writes the record unconditionally. On collision the last write
// wins, which is acceptable because tokens are drawn from a 256-bit random
// space.
func (r *RedisRepo) Create(ctx context.Context, stateToken string, state *State, ttl time.Duration) error {
	if stateToken == "" {
		return errors.New("state token cannot be empty")
	}
	if state == nil {
		return errors.New("state cannot be nil")
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("[RedisRepo Create] failed to encode state: %w", err)
	}
	if err := r.client.Set(ctx, stateKeyPrefix+stateToken, data, ttl).Err(); err != nil {
		return fmt.Errorf("[RedisRepo Create] failed to store state: %w", err)
	}
	return nil
}

func (r *RedisRepo) Consume(ctx context.Context, stateToken string) (*State, error) {
	if stateToken == "" {
		return nil, errors.New("state token cannot be empty")
	}

	data, err := r.client.GetDel(ctx, stateKeyPrefix+stateToken).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, autherrors.ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("[RedisRepo Consume] failed to consume state: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("[RedisRepo Consume] failed to decode state: %w", err)
	}
	return &state, nil
}
