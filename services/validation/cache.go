// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package validation

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Backend is an optional remote key-value accelerator behind the in-memory
// cache. Implementations must return a nil slice on miss. Any backend error
// is treated by the cache as a miss on read and a no-op on write.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// cacheEntry couples an outcome with its expiry bookkeeping.
type cacheEntry struct {
	key     string
	outcome *Outcome
	created time.Time
	ttl     time.Duration
}

// Cache is the bounded, TTL'd store of validation outcomes keyed by a
// content digest of (response, context, agent name).
//
// Eviction is oldest-inserted, not true LRU: a Get does not refresh an
// entry's position. Expired entries are deleted on the lookup that finds
// them. Two concurrent misses for the same key may both compute and store;
// last write wins, which is harmless because outcomes are deterministic.
//
// Thread Safety: safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List
	maxSize int

	backend Backend
	logger  *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64

	// now is swappable for expiry tests.
	now func() time.Time
}

// NewCache creates a cache bounded to maxSize entries. backend may be nil
// for in-memory-only operation; logger nil falls back to slog.Default().
func NewCache(maxSize int, backend Backend, logger *slog.Logger) *Cache {
	if maxSize <= 0 {
		maxSize = 1000
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		entries: make(map[string]*list.Element),
		order:   list.New(),
		maxSize: maxSize,
		backend: backend,
		logger:  logger,
		now:     time.Now,
	}
}

// Key derives the deterministic content digest. Changing any of the three
// inputs changes the key; field separators prevent boundary collisions.
func Key(response, context, agentName string) string {
	h := sha256.New()
	h.Write([]byte(response))
	h.Write([]byte{0})
	h.Write([]byte(context))
	h.Write([]byte{0})
	h.Write([]byte(agentName))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached outcome for the triple, or nil on miss. Expired
// entries are removed by the probe that discovers them.
func (c *Cache) Get(ctx context.Context, response, context_, agentName string) *Outcome {
	key := Key(response, context_, agentName)

	c.mu.Lock()
	if el, ok := c.entries[key]; ok {
		entry := el.Value.(*cacheEntry)
		if c.now().Sub(entry.created) < entry.ttl {
			c.mu.Unlock()
			c.hits.Add(1)
			return entry.outcome
		}
		c.order.Remove(el)
		delete(c.entries, key)
	}
	c.mu.Unlock()

	if out := c.backendGet(ctx, key); out != nil {
		c.hits.Add(1)
		return out
	}
	c.misses.Add(1)
	return nil
}

// Set stores an outcome under the triple's digest, evicting the oldest
// entry when at capacity. ttl must be positive; zero stores nothing.
func (c *Cache) Set(ctx context.Context, response, context_, agentName string, outcome *Outcome, ttl time.Duration) {
	if ttl <= 0 || outcome == nil {
		return
	}
	key := Key(response, context_, agentName)

	c.mu.Lock()
	if el, ok := c.entries[key]; ok {
		c.order.Remove(el)
		delete(c.entries, key)
	}
	if len(c.entries) >= c.maxSize {
		if oldest := c.order.Front(); oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).key)
		}
	}
	c.entries[key] = c.order.PushBack(&cacheEntry{
		key:     key,
		outcome: outcome,
		created: c.now(),
		ttl:     ttl,
	})
	c.mu.Unlock()

	c.backendSet(ctx, key, outcome, ttl)
}

// Sweep removes every expired entry and returns how many were dropped.
// Lookups already delete expired entries lazily; Sweep exists so a bounded
// cache under low traffic does not sit full of dead entries.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for el := c.order.Front(); el != nil; {
		next := el.Next()
		entry := el.Value.(*cacheEntry)
		if c.now().Sub(entry.created) >= entry.ttl {
			c.order.Remove(el)
			delete(c.entries, entry.key)
			removed++
		}
		el = next
	}
	return removed
}

// Clear drops every entry and resets counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.order.Init()
	c.hits.Store(0)
	c.misses.Store(0)
}

// Len returns the live entry count, including not-yet-probed expired entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns the hit and miss counters.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// backendGet consults the remote backend after a local miss. Errors are
// logged at debug and reported as a miss.
func (c *Cache) backendGet(ctx context.Context, key string) *Outcome {
	if c.backend == nil {
		return nil
	}
	raw, err := c.backend.Get(ctx, key)
	if err != nil {
		c.logger.Debug("cache backend get failed", "key", key, "error", err)
		return nil
	}
	if raw == nil {
		return nil
	}
	var out Outcome
	if err := json.Unmarshal(raw, &out); err != nil {
		c.logger.Debug("cache backend entry undecodable", "key", key, "error", err)
		return nil
	}
	return &out
}

// backendSet writes through to the remote backend. Errors are logged at
// debug and otherwise ignored.
func (c *Cache) backendSet(ctx context.Context, key string, outcome *Outcome, ttl time.Duration) {
	if c.backend == nil {
		return
	}
	raw, err := json.Marshal(outcome)
	if err != nil {
		c.logger.Debug("cache backend encode failed", "key", key, "error", err)
		return
	}
	if err := c.backend.Set(ctx, key, raw, ttl); err != nil {
		c.logger.Debug("cache backend set failed", "key", key, "error", err)
	}
}
