// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package inmemory provides in-process caches whose entries carry their own
// invalidation and update policies.
//
// No cache method holds a lock while it runs a policy function. After a
// policy decides an entry is stale, the resulting removal or refresh only
// happens if the key still holds the entry that was evaluated, so a stale
// decision never overwrites a newer Set.
//
// Every mutation of a key and the publication of its event happen under the
// same per-key lock, so subscribers observe the events of one key in the
// order the mutations took effect. Handlers run under that lock and must not
// call back into the cache synchronously.
package inmemory

import (
	"context"
	"hash/maphash"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/luxfi/lazycache"
	"github.com/luxfi/lazycache/events"
	"github.com/luxfi/lazycache/store"
)

// lockStripes must be a power of two.
const lockStripes = 64

// cache holds the state and the mutation protocol shared by every variant.
type cache[K comparable, V any] struct {
	entries store.Store[K, *entry[V]]
	bus     events.Bus[K, V]
	clock   lazycache.Clock
	log     *zap.Logger

	seed  maphash.Seed
	locks [lockStripes]sync.Mutex
}

func newCache[K comparable, V any](clock lazycache.Clock, opts []Option[K, V]) *cache[K, V] {
	if clock == nil {
		clock = lazycache.SystemClock{}
	}
	cfg := defaultConfig[K, V]()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &cache[K, V]{
		entries: cfg.newStore(),
		clock:   clock,
		log:     cfg.log,
		seed:    maphash.MakeSeed(),
	}
}

// lock returns the mutex guarding mutations of key.
func (c *cache[K, V]) lock(key K) *sync.Mutex {
	return &c.locks[maphash.Comparable(c.seed, key)&(lockStripes-1)]
}

// Peek returns the entry stored under key without evaluating its policy.
func (c *cache[K, V]) Peek(key K) (lazycache.Entry[V], bool) {
	e, ok := c.entries.Load(key)
	if !ok {
		return nil, false
	}
	return e, true
}

// Remove removes the entry stored under key.
func (c *cache[K, V]) Remove(key K) bool {
	mu := c.lock(key)
	mu.Lock()
	defer mu.Unlock()

	e, ok := c.entries.LoadAndDelete(key)
	if !ok {
		return false
	}
	c.bus.Removed.Publish(key, e.value)
	return true
}

// Len returns the number of entries, including stale ones not yet evaluated.
func (c *cache[K, V]) Len() int {
	return c.entries.Len()
}

func (c *cache[K, V]) AddedEntries() *events.Stream[K, V] {
	return &c.bus.Added
}

func (c *cache[K, V]) UpdatedEntries() *events.Stream[K, V] {
	return &c.bus.Updated
}

func (c *cache[K, V]) RemovedEntries() *events.Stream[K, V] {
	return &c.bus.Removed
}

func (c *cache[K, V]) newEntry(
	value V,
	invalidation lazycache.InvalidationFunc[V],
	update lazycache.UpdateFunc[V],
) *entry[V] {
	return &entry[V]{
		value:        value,
		addedAt:      c.clock.Now(),
		invalidation: invalidation,
		update:       update,
	}
}

// put inserts or replaces the entry under key in a single step.
func (c *cache[K, V]) put(key K, e *entry[V]) {
	mu := c.lock(key)
	mu.Lock()
	defer mu.Unlock()

	if _, replaced := c.entries.Swap(key, e); replaced {
		c.bus.Updated.Publish(key, e.value)
		return
	}
	c.bus.Added.Publish(key, e.value)
}

// evict removes e if it is still the entry stored under key.
func (c *cache[K, V]) evict(_ context.Context, key K, e *entry[V]) error {
	mu := c.lock(key)
	mu.Lock()
	defer mu.Unlock()

	if !c.entries.CompareAndDelete(key, e) {
		c.log.Debug("skipped removal of replaced entry",
			zap.Any("key", key),
		)
		return nil
	}
	c.log.Debug("removed invalid entry",
		zap.Any("key", key),
	)
	c.bus.Removed.Publish(key, e.value)
	return nil
}

// refresh replaces e with the result of its update, unless another writer
// replaced e first. It returns the value now stored under key.
func (c *cache[K, V]) refresh(ctx context.Context, key K, e *entry[V]) (V, bool, error) {
	fresh, err := e.refreshed(ctx, c.clock)
	if err != nil {
		var zero V
		return zero, false, err
	}

	if c.swapRefreshed(key, e, fresh) {
		c.log.Debug("refreshed entry",
			zap.Any("key", key),
			zap.Time("addedAt", fresh.addedAt),
			zap.Time("updatedAt", fresh.updatedAt),
		)
		return fresh.value, true, nil
	}

	c.log.Debug("discarded refresh of replaced entry",
		zap.Any("key", key),
	)
	current, ok := c.entries.Load(key)
	if !ok {
		var zero V
		return zero, false, nil
	}
	return current.value, true, nil
}

// swapRefreshed stores fresh in place of e and publishes the update. It
// reports false if e is no longer the entry stored under key.
func (c *cache[K, V]) swapRefreshed(key K, e, fresh *entry[V]) bool {
	mu := c.lock(key)
	mu.Lock()
	defer mu.Unlock()

	if !c.entries.CompareAndSwap(key, e, fresh) {
		return false
	}
	c.bus.Updated.Publish(key, fresh.value)
	return true
}

// lookup evaluates the policy of the entry stored under key. stale is only
// set if the entry was found and its invalidation reported it.
func (c *cache[K, V]) lookup(ctx context.Context, key K) (e *entry[V], stale bool, err error) {
	e, ok := c.entries.Load(key)
	if !ok {
		return nil, false, nil
	}
	stale, err = e.isInvalid(ctx, c.clock.Now())
	if err != nil {
		c.log.Warn("entry invalidation failed",
			zap.Any("key", key),
			zap.Error(err),
		)
		return nil, false, err
	}
	return e, stale, nil
}

// sweep calls handle for every entry invalidate reports. It stops at the
// first error from ctx, invalidate or handle.
func (c *cache[K, V]) sweep(
	ctx context.Context,
	invalidate lazycache.InvalidationFunc[V],
	handle func(context.Context, K, *entry[V]) error,
) error {
	if invalidate == nil {
		return nil
	}

	var (
		start   = time.Now()
		visited int
		handled int
		err     error
	)
	c.entries.Range(func(key K, e *entry[V]) bool {
		if err = ctx.Err(); err != nil {
			return false
		}
		visited++

		var stale bool
		stale, err = invalidate(ctx, e, c.clock.Now())
		if err != nil || !stale {
			return err == nil
		}
		handled++
		err = handle(ctx, key, e)
		return err == nil
	})

	if err != nil {
		c.log.Warn("entry sweep aborted",
			zap.Int("visited", visited),
			zap.Int("handled", handled),
			zap.Error(err),
		)
		return err
	}
	c.log.Debug("entry sweep finished",
		zap.Int("visited", visited),
		zap.Int("handled", handled),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}
