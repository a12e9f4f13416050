// Package cache constructs the client for the external key-value cache that
// holds exchange-state and session records.
package cache

import (
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/timmelander/oidc-session-gateway/internal/config"
)

// Conservative operation timeouts. A hung cache call must not hang the
// invocation indefinitely.
const (
	dialTimeout  = 5 * time.Second
	readTimeout  = 3 * time.Second
	writeTimeout = 3 * time.Second
)

// New creates a redis client for the configured cache endpoint. Managed
// cache services require TLS with certificate verification.
func New(cfg config.CacheConfig) *redis.Client {
	opts := &redis.Options{
		Addr:         cfg.GetCacheAddr(),
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
	if cfg.GetCacheTLSEnabled() {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return redis.NewClient(opts)
}
