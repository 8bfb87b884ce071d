// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package lazycache provides caching interfaces for caches whose entries are
// invalidated or refreshed lazily, on read or on an explicit sweep.
package lazycache

import (
	"context"

	"github.com/luxfi/lazycache/events"
)

// Cache is an in-process key value store that reports every mutation on its
// event streams.
type Cache[K comparable, V any] interface {
	// Get returns the value stored under key, if it exists.
	//
	// Caches with entry policies evaluate them before returning. An error is
	// only returned when a caller supplied policy function failed.
	Get(ctx context.Context, key K) (V, bool, error)

	// Set inserts or replaces the value stored under key.
	Set(key K, value V)

	// Remove removes the value stored under key. It reports whether a value
	// was present.
	Remove(key K) bool

	// InvalidateEntries applies invalidate to every stored entry and handles
	// the ones it reports as invalid the way the cache handles its own stale
	// entries. The sweep stops at the first error.
	InvalidateEntries(ctx context.Context, invalidate InvalidationFunc[V]) error

	// Peek returns the entry stored under key without evaluating any policy.
	Peek(key K) (Entry[V], bool)

	// Len returns the number of entries in the cache.
	Len() int

	AddedEntries() *events.Stream[K, V]
	UpdatedEntries() *events.Stream[K, V]
	RemovedEntries() *events.Stream[K, V]
}

// SelfInvalidatingCache removes entries whose invalidation reports them as
// stale.
type SelfInvalidatingCache[K comparable, V any] interface {
	Cache[K, V]

	// SetWithInvalidation inserts or replaces the value stored under key and
	// attaches invalidation to the new entry.
	SetWithInvalidation(key K, value V, invalidation InvalidationFunc[V])
}

// SelfUpdatingCache replaces entries whose invalidation reports them as
// stale with the result of their update.
type SelfUpdatingCache[K comparable, V any] interface {
	Cache[K, V]

	// SetWithRefresh inserts or replaces the value stored under key and
	// attaches invalidation and update to the new entry.
	SetWithRefresh(key K, value V, invalidation InvalidationFunc[V], update UpdateFunc[V])
}
