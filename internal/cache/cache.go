package cache

import (
	"context"
	"sync"
	"time"
)

// Cache stores opaque values under string keys for a bounded time.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Ping(ctx context.Context) error
}

const defaultTTL = 5 * time.Second

type Memory struct {
	mu  sync.RWMutex
	ttl time.Duration
	m   map[string]entry
	now func() time.Time
}
type entry struct {
	val []byte
	exp time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = defaultTTL
	}

	return &Memory{
		ttl: ttl,
		m:   make(map[string]entry),
		now: time.Now,
	}
}

func (c *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	if !now.Before(e.exp) {
		c.evictExpired(key, now)
		return nil, false, nil
	}

	return e.val, true, nil
}

// evictExpired deletes key only if it is still expired at now; a Set may
// have refreshed it since the caller's read.
func (c *Memory) evictExpired(key string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cur, ok := c.m[key]; ok && !now.Before(cur.exp) {
		delete(c.m, key)
	}
}

// Set stores val; a non-positive ttl uses the cache default.
func (c *Memory) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}

	cp := append([]byte(nil), val...)

	c.mu.Lock()
	c.m[key] = entry{val: cp, exp: c.now().Add(ttl)}
	c.mu.Unlock()

	return nil
}

// Clear drops every entry.
func (c *Memory) Clear() {
	c.mu.Lock()
	c.m = make(map[string]entry)
	c.mu.Unlock()
}

func (c *Memory) Ping(context.Context) error {
	return nil
}
