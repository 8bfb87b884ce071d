// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metercacher provides metered cache implementations.
package metercacher

import (
	"context"
	"time"

	"github.com/luxfi/metric"

	"github.com/luxfi/lazycache"
)

var _ lazycache.Cache[struct{}, struct{}] = (*Cache[struct{}, struct{}])(nil)

// Cache wraps a lazycache.Cache with metrics.
type Cache[K comparable, V any] struct {
	lazycache.Cache[K, V]
	metrics *cacheMetrics
}

// New creates a new metered cache wrapper.
func New[K comparable, V any](
	namespace string,
	registry metric.Registry,
	c lazycache.Cache[K, V],
) (*Cache[K, V], error) {
	metrics, err := newMetrics(namespace, registry)
	return &Cache[K, V]{
		Cache:   c,
		metrics: metrics,
	}, err
}

func (c *Cache[K, V]) Get(ctx context.Context, key K) (V, bool, error) {
	start := time.Now()
	value, has, err := c.Cache.Get(ctx, key)
	getDuration := time.Since(start)

	labels := missLabels
	switch {
	case err != nil:
		labels = errorLabels
	case has:
		labels = hitLabels
	}
	c.metrics.getCount.With(labels).Inc()
	c.metrics.getTime.With(labels).Add(float64(getDuration))
	// Lazy policies may remove entries on read.
	c.metrics.len.Set(float64(c.Cache.Len()))

	return value, has, err
}

func (c *Cache[K, V]) Set(key K, value V) {
	c.timeSet(plainLabels, func() {
		c.Cache.Set(key, value)
	})
}

func (c *Cache[K, _]) Remove(key K) bool {
	removed := c.Cache.Remove(key)
	if removed {
		c.metrics.removeCount.With(foundLabels).Inc()
	} else {
		c.metrics.removeCount.With(missingLabels).Inc()
	}
	c.metrics.len.Set(float64(c.Cache.Len()))
	return removed
}

func (c *Cache[_, V]) InvalidateEntries(ctx context.Context, invalidate lazycache.InvalidationFunc[V]) error {
	start := time.Now()
	err := c.Cache.InvalidateEntries(ctx, invalidate)
	sweepDuration := time.Since(start)

	if err != nil {
		c.metrics.sweepCount.With(errorLabels).Inc()
	} else {
		c.metrics.sweepCount.With(okLabels).Inc()
	}
	c.metrics.sweepTime.Add(float64(sweepDuration))
	c.metrics.len.Set(float64(c.Cache.Len()))
	return err
}

func (c *Cache[_, _]) timeSet(labels metric.Labels, set func()) {
	start := time.Now()
	set()
	setDuration := time.Since(start)

	c.metrics.setCount.With(labels).Inc()
	c.metrics.setTime.Add(float64(setDuration))
	c.metrics.len.Set(float64(c.Cache.Len()))
}
