// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metercacher

import (
	"github.com/luxfi/metric"

	"github.com/luxfi/lazycache"
)

var (
	_ lazycache.SelfInvalidatingCache[struct{}, struct{}] = (*SelfInvalidating[struct{}, struct{}])(nil)
	_ lazycache.SelfUpdatingCache[struct{}, struct{}]     = (*SelfUpdating[struct{}, struct{}])(nil)
)

// SelfInvalidating wraps a lazycache.SelfInvalidatingCache with metrics.
type SelfInvalidating[K comparable, V any] struct {
	*Cache[K, V]
	inner lazycache.SelfInvalidatingCache[K, V]
}

// NewSelfInvalidating creates a metered wrapper that also counts
// SetWithInvalidation calls.
func NewSelfInvalidating[K comparable, V any](
	namespace string,
	registry metric.Registry,
	c lazycache.SelfInvalidatingCache[K, V],
) (*SelfInvalidating[K, V], error) {
	metered, err := New[K, V](namespace, registry, c)
	return &SelfInvalidating[K, V]{
		Cache: metered,
		inner: c,
	}, err
}

func (c *SelfInvalidating[K, V]) SetWithInvalidation(key K, value V, invalidation lazycache.InvalidationFunc[V]) {
	c.timeSet(invalidationLabels, func() {
		c.inner.SetWithInvalidation(key, value, invalidation)
	})
}

// SelfUpdating wraps a lazycache.SelfUpdatingCache with metrics.
type SelfUpdating[K comparable, V any] struct {
	*Cache[K, V]
	inner lazycache.SelfUpdatingCache[K, V]
}

// NewSelfUpdating creates a metered wrapper that also counts SetWithRefresh
// calls.
func NewSelfUpdating[K comparable, V any](
	namespace string,
	registry metric.Registry,
	c lazycache.SelfUpdatingCache[K, V],
) (*SelfUpdating[K, V], error) {
	metered, err := New[K, V](namespace, registry, c)
	return &SelfUpdating[K, V]{
		Cache: metered,
		inner: c,
	}, err
}

func (c *SelfUpdating[K, V]) SetWithRefresh(
	key K,
	value V,
	invalidation lazycache.InvalidationFunc[V],
	update lazycache.UpdateFunc[V],
) {
	c.timeSet(refreshLabels, func() {
		c.inner.SetWithRefresh(key, value, invalidation, update)
	})
}
