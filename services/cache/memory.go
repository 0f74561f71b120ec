package cachesvc

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

var NowFunc = time.Now // mockable

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// MemoryCache is a process-local Cache, used when redis is disabled.
// Values go through JSON like in redis so callers never share mutable state.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

var _ core.Cache = (*MemoryCache)(nil)

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), ttl: ttl}
}

func (c *MemoryCache) Get(_ context.Context, key string, dst interface{}) error {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || !NowFunc().Before(entry.expires) {
		return core.ErrCacheMiss
	}
	return errors.Wrap(json.Unmarshal(entry.data, dst), "json.Unmarshal()")
}

func (c *MemoryCache) Set(_ context.Context, key string, val interface{}) error {
	data, err := json.Marshal(val)
	if err != nil {
		return errors.Wrap(err, "json.Marshal()")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{data: data, expires: NowFunc().Add(c.ttl)}
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}

// NoopCache never stores anything.
type NoopCache struct{}

var _ core.Cache = NoopCache{}

func (NoopCache) Get(context.Context, string, interface{}) error { return core.ErrCacheMiss }
func (NoopCache) Set(context.Context, string, interface{}) error { return nil }
func (NoopCache) Invalidate(context.Context, string) error       { return nil }
