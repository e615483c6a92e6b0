// Package secrets resolves named credentials at run time. Values are looked
// up through an ordered chain of sources and cached for the life of the
// process, so a secret fetched once is never fetched again.
package secrets

import (
	"context"
	"fmt"
	"sync"
)

// Well-known secret names used by the pipeline.
const (
	SerpAPIKey = "SERPAPI_API_KEY"
	GeminiKey  = "GEMINI_API_KEY"
)

// ErrSecretUnavailable indicates no source could produce a value for the name.
type ErrSecretUnavailable struct {
	Name string
}

func (e *ErrSecretUnavailable) Error() string {
	return fmt.Sprintf("secret %s is not available from any source", e.Name)
}

// Source produces secret values by name. The boolean reports whether the
// source knows the name at all; an error means the lookup itself failed.
type Source interface {
	Lookup(ctx context.Context, name string) (string, bool, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, name string) (string, bool, error)

func (f SourceFunc) Lookup(ctx context.Context, name string) (string, bool, error) {
	return f(ctx, name)
}

// Resolver resolves secrets through an ordered list of sources, caching
// successful lookups. It is safe for concurrent use.
type Resolver struct {
	sources []Source

	mu    sync.Mutex
	cache map[string]string
}

// NewResolver creates a resolver that consults sources in order.
func NewResolver(sources ...Source) *Resolver {
	return &Resolver{
		sources: sources,
		cache:   make(map[string]string),
	}
}

// Resolve returns the value for name, consulting the cache first and then
// each source in order. Empty values are treated as absent.
func (r *Resolver) Resolve(ctx context.Context, name string) (string, error) {
	r.mu.Lock()
	if value, ok := r.cache[name]; ok {
		r.mu.Unlock()
		return value, nil
	}
	r.mu.Unlock()

	var lastErr error
	for _, source := range r.sources {
		value, ok, err := source.Lookup(ctx, name)
		if err != nil {
			lastErr = err
			continue
		}
		if !ok || value == "" {
			continue
		}

		r.mu.Lock()
		r.cache[name] = value
		r.mu.Unlock()
		return value, nil
	}

	if lastErr != nil {
		return "", fmt.Errorf("resolving secret %s: %w", name, lastErr)
	}
	return "", &ErrSecretUnavailable{Name: name}
}
