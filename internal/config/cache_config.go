package config

type CacheConfig interface {
	GetCacheAddr() string
	GetCacheTLSEnabled() bool
}

type Cache struct{}

var _ CacheConfig = Cache{}

func (Cache) GetCacheAddr() string {
	return GetEnv("CACHE_ADDR", "localhost:6379")
}

// GetCacheTLSEnabled reports whether the cache connection requires TLS.
// Managed cache services only accept TLS; plaintext is for local development.
func (Cache) GetCacheTLSEnabled() bool {
	return GetEnv("CACHE_TLS", "true") == "true"
}
