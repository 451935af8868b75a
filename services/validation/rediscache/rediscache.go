// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package rediscache provides a Redis-backed remote cache backend for the
// validation cache. It is purely an accelerator: every error surfaces as a
// cache miss upstream and never fails a validation.
package rediscache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces validation entries within a shared Redis.
const keyPrefix = "validation:outcome:"

// Backend implements the validation cache's remote backend contract on
// top of a Redis client.
type Backend struct {
	client *redis.Client
}

// New creates a backend over an existing client.
func New(client *redis.Client) *Backend {
	return &Backend{client: client}
}

// NewFromAddr dials Redis and verifies connectivity before returning.
func NewFromAddr(ctx context.Context, addr string) (*Backend, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return &Backend{client: client}, nil
}

// Get returns the stored bytes for key, or nil on miss.
func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := b.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return raw, nil
}

// Set stores value under key with the given TTL.
func (b *Backend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := b.client.Set(ctx, keyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (b *Backend) Close() error {
	return b.client.Close()
}
