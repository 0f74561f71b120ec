package core

import (
	"context"

	"github.com/pkg/errors"
)

var ErrCacheMiss = errors.New("cache miss")

// Cache stores JSON-serializable values for a limited time.
// Get returns ErrCacheMiss when the key is absent or expired.
type Cache interface {
	Get(ctx context.Context, key string, dst interface{}) error
	Set(ctx context.Context, key string, val interface{}) error
	// Invalidate drops every key starting with prefix.
	Invalidate(ctx context.Context, prefix string) error
}
