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
	"log/slog"
	"sync"
	"time"
)

// defaultSweepInterval balances sweep responsiveness against wasted wakeups
// for a cache whose lookups already expire lazily.
const defaultSweepInterval = 10 * time.Minute

// Sweeper periodically drops expired cache entries in the background.
// It uses the ticker plus done-channel pattern for graceful shutdown.
//
// Thread Safety: Start and Stop are safe to call from any goroutine;
// repeated calls are no-ops.
type Sweeper struct {
	cache    *Cache
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	done    chan struct{}
	running bool
}

// NewSweeper creates a sweeper over the cache. interval <= 0 uses the
// default; logger nil falls back to slog.Default().
func NewSweeper(cache *Cache, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		cache:    cache,
		interval: interval,
		logger:   logger,
	}
}

// Start launches the background sweep loop.
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.done = make(chan struct{})

	go s.run(s.done)
	s.logger.Info("cache sweeper started", "interval", s.interval)
}

// Stop signals the loop to exit. It does not wait for an in-flight sweep.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	close(s.done)
	s.logger.Info("cache sweeper stopped")
}

func (s *Sweeper) run(done chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if removed := s.cache.Sweep(); removed > 0 {
				s.logger.Debug("swept expired validation outcomes",
					"removed", removed, "remaining", s.cache.Len())
			}
		}
	}
}
