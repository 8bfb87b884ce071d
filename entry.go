// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package lazycache

import (
	"context"
	"time"
)

// Entry is a read-only view of a cached value.
type Entry[V any] interface {
	// Value returns the cached value.
	Value() V

	// AddedAt returns when the value was first set.
	AddedAt() time.Time

	// LastUpdatedAt returns when the entry was last refreshed. ok is false if
	// it was never refreshed.
	LastUpdatedAt() (t time.Time, ok bool)
}

// InvalidationFunc reports whether entry is stale at now.
type InvalidationFunc[V any] func(ctx context.Context, entry Entry[V], now time.Time) (bool, error)

// UpdateFunc computes the value that replaces a stale one.
type UpdateFunc[V any] func(ctx context.Context, value V) (V, error)

// NeverInvalid never reports an entry as stale.
func NeverInvalid[V any]() InvalidationFunc[V] {
	return func(context.Context, Entry[V], time.Time) (bool, error) {
		return false, nil
	}
}

// Always reports every entry as stale.
func Always[V any]() InvalidationFunc[V] {
	return func(context.Context, Entry[V], time.Time) (bool, error) {
		return true, nil
	}
}

// Identity returns the value unchanged.
func Identity[V any]() UpdateFunc[V] {
	return func(_ context.Context, value V) (V, error) {
		return value, nil
	}
}

// MaxAge reports an entry as stale once more than age has passed since it was
// added.
func MaxAge[V any](age time.Duration) InvalidationFunc[V] {
	return func(_ context.Context, entry Entry[V], now time.Time) (bool, error) {
		return now.Sub(entry.AddedAt()) > age, nil
	}
}

// MaxStaleness reports an entry as stale once more than age has passed since
// it was last refreshed, or added if it never was.
func MaxStaleness[V any](age time.Duration) InvalidationFunc[V] {
	return func(_ context.Context, entry Entry[V], now time.Time) (bool, error) {
		return now.Sub(LastTouched(entry)) > age, nil
	}
}

// LastTouched returns the last refresh time of entry, or its insertion time.
func LastTouched[V any](entry Entry[V]) time.Time {
	if t, ok := entry.LastUpdatedAt(); ok {
		return t
	}
	return entry.AddedAt()
}
