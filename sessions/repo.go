package sessions

import (
	"context"
	"time"
)

// Repo persists sealed session envelopes keyed by session id. The TTL given
// to Put matches the record's Exp so the cache expires sessions on its own.
type Repo interface {
	Put(ctx context.Context, sessionID string, envelope []byte, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) ([]byte, error)
	Delete(ctx context.Context, sessionID string) error
}
