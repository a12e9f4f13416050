package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	autherrors "github.com/timmelander/oidc-session-gateway/internal/errors"
)

const sessionKeyPrefix = "session:"

// RedisRepo stores sealed envelopes as raw bytes under "session:{id}".
type RedisRepo struct {
	client redis.UniversalClient
}

var _ Repo = (*RedisRepo)(nil)

// NewRedisRepo creates a session repository on an existing client. The
// client may be any go-redis implementation, which keeps tests on miniredis.
func NewRedisRepo(client redis.UniversalClient) *RedisRepo {
	return &RedisRepo{client: client}
}

func (r *RedisRepo) Put(ctx context.Context, sessionID string, envelope []byte, ttl time.Duration) error {
	if sessionID == "" {
		return errors.New("sessionID cannot be empty")
	}
	if err := r.client.Set(ctx, sessionKeyPrefix+sessionID, envelope, ttl).Err(); err != nil {
		return fmt.Errorf("[RedisRepo Put] failed to store session: %w", err)
	}
	return nil
}

func (r *RedisRepo) Get(ctx context.Context, sessionID string) ([]byte, error) {
	if sessionID == "" {
		return nil, errors.New("sessionID cannot be empty")
	}
	envelope, err := r.client.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, autherrors.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("[RedisRepo Get] failed to fetch session: %w", err)
	}
	return envelope, nil
}

func (r *RedisRepo) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return errors.New("sessionID cannot be empty")
	}
	if err := r.client.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("[RedisRepo Delete] failed to delete session: %w", err)
	}
	return nil
}
