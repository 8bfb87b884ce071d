// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package inmemory

import (
	"context"

	"github.com/luxfi/lazycache"
)

var _ lazycache.Cache[struct{}, struct{}] = (*Simple[struct{}, struct{}])(nil)

// Simple is a cache whose entries never expire on their own.
type Simple[K comparable, V any] struct {
	*cache[K, V]
}

// NewSimple creates an empty Simple cache. A nil clock reads the system
// clock.
func NewSimple[K comparable, V any](clock lazycache.Clock, opts ...Option[K, V]) *Simple[K, V] {
	return &Simple[K, V]{cache: newCache(clock, opts)}
}

// Set inserts or replaces the value stored under key.
func (c *Simple[K, V]) Set(key K, value V) {
	c.put(key, c.newEntry(value, nil, nil))
}

// Get returns the value stored under key. It never returns an error.
func (c *Simple[K, V]) Get(_ context.Context, key K) (V, bool, error) {
	e, ok := c.entries.Load(key)
	if !ok {
		var zero V
		return zero, false, nil
	}
	return e.value, true, nil
}

// InvalidateEntries removes every entry invalidate reports as stale.
func (c *Simple[K, V]) InvalidateEntries(ctx context.Context, invalidate lazycache.InvalidationFunc[V]) error {
	return c.sweep(ctx, invalidate, c.evict)
}
