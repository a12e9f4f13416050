package secrets

import (
	"context"
	"sync"
)

// CachingProvider memoizes resolved secrets for the lifetime of the process.
// These secrets do not rotate while a process is running; rotating one
// externally requires a restart to pick up the new value.
type CachingProvider struct {
	inner Provider

	mu     sync.Mutex
	values map[string]string
}

var _ Provider = (*CachingProvider)(nil)

// NewCachingProvider wraps a Provider with a process-local memoizing cache.
func NewCachingProvider(inner Provider) *CachingProvider {
	return &CachingProvider{
		inner:  inner,
		values: make(map[string]string),
	}
}

func (p *CachingProvider) GetSecret(ctx context.Context, ref string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if value, ok := p.values[ref]; ok {
		return value, nil
	}

	value, err := p.inner.GetSecret(ctx, ref)
	if err != nil {
		return "", err
	}
	p.values[ref] = value
	return value, nil
}
