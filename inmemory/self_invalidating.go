// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package inmemory

import (
	"context"

	"github.com/luxfi/lazycache"
)

var _ lazycache.SelfInvalidatingCache[struct{}, struct{}] = (*SelfInvalidating[struct{}, struct{}])(nil)

// SelfInvalidating is a cache that drops an entry once the entry's own
// invalidation reports it as stale.
type SelfInvalidating[K comparable, V any] struct {
	*cache[K, V]
}

// NewSelfInvalidating creates an empty SelfInvalidating cache. A nil clock
// reads the system clock.
func NewSelfInvalidating[K comparable, V any](clock lazycache.Clock, opts ...Option[K, V]) *SelfInvalidating[K, V] {
	return &SelfInvalidating[K, V]{cache: newCache(clock, opts)}
}

// Set inserts or replaces the value stored under key. The entry never
// becomes stale.
func (c *SelfInvalidating[K, V]) Set(key K, value V) {
	c.SetWithInvalidation(key, value, nil)
}

// SetWithInvalidation inserts or replaces the value stored under key. A nil
// invalidation never reports the entry as stale.
func (c *SelfInvalidating[K, V]) SetWithInvalidation(key K, value V, invalidation lazycache.InvalidationFunc[V]) {
	if invalidation == nil {
		invalidation = lazycache.NeverInvalid[V]()
	}
	c.put(key, c.newEntry(value, invalidation, nil))
}

// Get returns the value stored under key, unless its invalidation reports it
// as stale. Stale entries are removed.
func (c *SelfInvalidating[K, V]) Get(ctx context.Context, key K) (V, bool, error) {
	var zero V
	e, stale, err := c.lookup(ctx, key)
	switch {
	case err != nil, e == nil:
		return zero, false, err
	case !stale:
		return e.value, true, nil
	}
	return zero, false, c.evict(ctx, key, e)
}

// InvalidateEntries removes every entry invalidate reports as stale,
// regardless of the entry's own invalidation.
func (c *SelfInvalidating[K, V]) InvalidateEntries(ctx context.Context, invalidate lazycache.InvalidationFunc[V]) error {
	return c.sweep(ctx, invalidate, c.evict)
}
