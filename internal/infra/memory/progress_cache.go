package memory

import (
	"context"
	"sync"
)

// ProgressCache is a process-local implementation of app.LocalCache.
type ProgressCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewProgressCache() *ProgressCache {
	return &ProgressCache{entries: make(map[string][]byte)}
}

func (c *ProgressCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (c *ProgressCache) Set(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = append([]byte(nil), value...)
	return nil
}

func (c *ProgressCache) Remove(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}
