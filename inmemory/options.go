// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package inmemory

import (
	"go.uber.org/zap"

	"github.com/luxfi/lazycache/store"
)

type config[K comparable, V any] struct {
	log      *zap.Logger
	newStore func() store.Store[K, *entry[V]]
}

func defaultConfig[K comparable, V any]() config[K, V] {
	return config[K, V]{
		log: zap.NewNop(),
		newStore: func() store.Store[K, *entry[V]] {
			return store.NewMap[K, *entry[V]]()
		},
	}
}

// Option configures a cache.
type Option[K comparable, V any] func(*config[K, V])

// WithLogger sets the logger. The default discards everything.
func WithLogger[K comparable, V any](log *zap.Logger) Option[K, V] {
	return func(c *config[K, V]) {
		if log != nil {
			c.log = log
		}
	}
}

// WithShardedStore keeps entries in a store.Sharded instead of the default
// store.Map. A nil keyBytes leaves the default store in place.
func WithShardedStore[K comparable, V any](numShards int, keyBytes func(K) []byte) Option[K, V] {
	return func(c *config[K, V]) {
		if keyBytes == nil {
			return
		}
		c.newStore = func() store.Store[K, *entry[V]] {
			return store.NewSharded[K, *entry[V]](numShards, keyBytes)
		}
	}
}
