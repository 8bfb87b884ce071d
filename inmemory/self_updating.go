// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package inmemory

import (
	"context"

	"github.com/luxfi/lazycache"
)

var _ lazycache.SelfUpdatingCache[struct{}, struct{}] = (*SelfUpdating[struct{}, struct{}])(nil)

// SelfUpdating is a cache that replaces an entry with the result of the
// entry's own update once its invalidation reports it as stale.
//
// Concurrent reads of the same stale key may each run the update. Only the
// first replacement is kept.
type SelfUpdating[K comparable, V any] struct {
	*cache[K, V]
}

// NewSelfUpdating creates an empty SelfUpdating cache. A nil clock reads the
// system clock.
func NewSelfUpdating[K comparable, V any](clock lazycache.Clock, opts ...Option[K, V]) *SelfUpdating[K, V] {
	return &SelfUpdating[K, V]{cache: newCache(clock, opts)}
}

// Set inserts or replaces the value stored under key. The entry never
// becomes stale.
func (c *SelfUpdating[K, V]) Set(key K, value V) {
	c.SetWithRefresh(key, value, nil, nil)
}

// SetWithRefresh inserts or replaces the value stored under key. A nil
// invalidation never reports the entry as stale and a nil update keeps the
// current value.
func (c *SelfUpdating[K, V]) SetWithRefresh(
	key K,
	value V,
	invalidation lazycache.InvalidationFunc[V],
	update lazycache.UpdateFunc[V],
) {
	if invalidation == nil {
		invalidation = lazycache.NeverInvalid[V]()
	}
	if update == nil {
		update = lazycache.Identity[V]()
	}
	c.put(key, c.newEntry(value, invalidation, update))
}

// Get returns the value stored under key. If the entry is stale it is
// refreshed first and the refreshed value is returned. If another writer
// replaces the entry while the update runs, the refresh is dropped and that
// writer's value is returned instead.
func (c *SelfUpdating[K, V]) Get(ctx context.Context, key K) (V, bool, error) {
	var zero V
	e, stale, err := c.lookup(ctx, key)
	switch {
	case err != nil, e == nil:
		return zero, false, err
	case !stale:
		return e.value, true, nil
	}
	return c.refresh(ctx, key, e)
}

// InvalidateEntries refreshes every entry invalidate reports as stale,
// regardless of the entry's own invalidation.
func (c *SelfUpdating[K, V]) InvalidateEntries(ctx context.Context, invalidate lazycache.InvalidationFunc[V]) error {
	return c.sweep(ctx, invalidate, func(ctx context.Context, key K, e *entry[V]) error {
		_, _, err := c.refresh(ctx, key, e)
		return err
	})
}
