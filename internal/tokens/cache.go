package tokens

import (
	"errors"
	"sync"
)

var (
	// ErrInvalidAPIKey signals that the provided API key is not known.
	ErrInvalidAPIKey = errors.New("invalid api key")
	// ErrTokenStoreNotReady signals that tokens have not been loaded yet,
	// typically because the database was unavailable at startup.
	ErrTokenStoreNotReady = errors.New("token store not ready")
)

// Entry is the per-token configuration.
type Entry struct {
	RateLimit int
	Comment   string
}

// Cache is the in-memory view of the API token table.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewCache() *Cache {
	return &Cache{}
}

// Replace swaps the whole token set. The map is copied.
func (c *Cache) Replace(m map[string]Entry) {
	entries := make(map[string]Entry, len(m))
	for k, v := range m {
		entries[k] = v
	}
	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()
}

// Ready reports whether the cache has been loaded at least once.
func (c *Cache) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries != nil
}

// Validate checks key against the cache.
func (c *Cache) Validate(key string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.entries == nil {
		return ErrTokenStoreNotReady
	}
	if _, ok := c.entries[key]; !ok {
		return ErrInvalidAPIKey
	}
	return nil
}

// RateLimit returns the configured limit for token, or 0 (unlimited) when unknown.
func (c *Cache) RateLimit(token string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[token].RateLimit
}
