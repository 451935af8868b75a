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
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func testOutcome(agent string) *Outcome {
	return &Outcome{
		IsValid:    true,
		Confidence: 0.9,
		Timestamp:  time.Now(),
		AgentName:  agent,
	}
}

func TestCache_SetGet(t *testing.T) {
	c := NewCache(10, nil, nil)
	ctx := context.Background()

	c.Set(ctx, "resp", "ctx", "ChefAgent", testOutcome("ChefAgent"), time.Minute)
	got := c.Get(ctx, "resp", "ctx", "ChefAgent")
	if got == nil {
		t.Fatal("expected hit")
	}
	if got.AgentName != "ChefAgent" {
		t.Errorf("wrong outcome returned: %+v", got)
	}

	hits, misses := c.Stats()
	if hits != 1 || misses != 0 {
		t.Errorf("expected 1 hit 0 misses, got %d/%d", hits, misses)
	}
}

func TestCache_KeySensitivity(t *testing.T) {
	base := Key("resp", "ctx", "agent")
	for name, k := range map[string]string{
		"response": Key("resp2", "ctx", "agent"),
		"context":  Key("resp", "ctx2", "agent"),
		"agent":    Key("resp", "ctx", "agent2"),
	} {
		if k == base {
			t.Errorf("changing %s did not change the key", name)
		}
	}
	// Separator prevents boundary shifting between fields.
	if Key("ab", "c", "x") == Key("a", "bc", "x") {
		t.Error("field boundary collision")
	}
}

func TestCache_Expiry(t *testing.T) {
	c := NewCache(10, nil, nil)
	now := time.Now()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	c.Set(ctx, "resp", "ctx", "agent", testOutcome("agent"), time.Minute)
	now = now.Add(2 * time.Minute)

	if got := c.Get(ctx, "resp", "ctx", "agent"); got != nil {
		t.Fatal("expired entry returned")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry not removed eagerly, len=%d", c.Len())
	}
}

func TestCache_BoundedSize(t *testing.T) {
	c := NewCache(3, nil, nil)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		c.Set(ctx, fmt.Sprintf("resp-%d", i), "ctx", "agent", testOutcome("agent"), time.Minute)
	}
	if c.Len() > 3 {
		t.Fatalf("cache exceeded max size: %d", c.Len())
	}
	// Oldest-inserted entries were evicted; the newest survives.
	if got := c.Get(ctx, "resp-9", "ctx", "agent"); got == nil {
		t.Error("newest entry evicted")
	}
	if got := c.Get(ctx, "resp-0", "ctx", "agent"); got != nil {
		t.Error("oldest entry survived eviction")
	}
}

func TestCache_ZeroTTLStoresNothing(t *testing.T) {
	c := NewCache(10, nil, nil)
	ctx := context.Background()

	c.Set(ctx, "resp", "ctx", "agent", testOutcome("agent"), 0)
	if c.Len() != 0 {
		t.Error("zero TTL must not store")
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := NewCache(100, nil, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("resp-%d-%d", n, j%10)
				c.Set(ctx, key, "ctx", "agent", testOutcome("agent"), time.Minute)
				c.Get(ctx, key, "ctx", "agent")
			}
		}(i)
	}
	wg.Wait()

	if c.Len() > 100 {
		t.Errorf("cache exceeded max size under concurrency: %d", c.Len())
	}
}

// fakeBackend is an in-memory stand-in for the remote cache.
type fakeBackend struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error

	gets, sets int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{data: make(map[string][]byte)}
}

func (f *fakeBackend) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.err != nil {
		return nil, f.err
	}
	return f.data[key], nil
}

func (f *fakeBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	if f.err != nil {
		return f.err
	}
	f.data[key] = value
	return nil
}

func TestCache_BackendWriteThroughAndReadBack(t *testing.T) {
	backend := newFakeBackend()
	c := NewCache(10, backend, nil)
	ctx := context.Background()

	c.Set(ctx, "resp", "ctx", "agent", testOutcome("agent"), time.Minute)
	if backend.sets != 1 {
		t.Fatalf("expected write-through, sets=%d", backend.sets)
	}

	// Fresh local cache, same backend: the outcome comes back remote.
	c2 := NewCache(10, backend, nil)
	got := c2.Get(ctx, "resp", "ctx", "agent")
	if got == nil {
		t.Fatal("expected backend hit")
	}
	if got.AgentName != "agent" {
		t.Errorf("backend round-trip corrupted outcome: %+v", got)
	}
}

func TestCache_BackendErrorsAreMisses(t *testing.T) {
	backend := newFakeBackend()
	backend.err = errors.New("connection refused")
	c := NewCache(10, backend, nil)
	ctx := context.Background()

	// Errors on write are no-ops, errors on read are misses; neither panics.
	c.Set(ctx, "resp", "ctx", "agent", testOutcome("agent"), time.Minute)
	if got := c.Get(ctx, "resp2", "ctx", "agent"); got != nil {
		t.Error("backend error must read as miss")
	}
	// The local entry still works despite the failing backend.
	if got := c.Get(ctx, "resp", "ctx", "agent"); got == nil {
		t.Error("local entry lost when backend errored")
	}
}
