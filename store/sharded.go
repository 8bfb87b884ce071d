// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package store

import (
	"math/bits"
	"sync"

	"github.com/spaolacci/murmur3"
)

const DefaultShards = 64

var _ Store[struct{}, struct{}] = (*Sharded[struct{}, struct{}])(nil)

// Sharded is a Store split into independently locked shards. A key's shard
// is picked by the murmur3 hash of its bytes.
type Sharded[K comparable, E comparable] struct {
	shards   []*shard[K, E]
	mask     uint32
	keyBytes func(K) []byte
}

type shard[K comparable, E comparable] struct {
	lock    sync.RWMutex
	entries map[K]E
}

// NewSharded creates a Sharded store. numShards is rounded up to a power of
// two; values <= 0 use DefaultShards. keyBytes must be non-nil and return
// the same bytes for equal keys.
func NewSharded[K comparable, E comparable](numShards int, keyBytes func(K) []byte) *Sharded[K, E] {
	if numShards <= 0 {
		numShards = DefaultShards
	}
	numShards = 1 << bits.Len(uint(numShards-1))

	s := &Sharded[K, E]{
		shards:   make([]*shard[K, E], numShards),
		mask:     uint32(numShards - 1),
		keyBytes: keyBytes,
	}
	for i := range s.shards {
		s.shards[i] = &shard[K, E]{entries: make(map[K]E)}
	}
	return s
}

// StringBytes is a keyBytes function for string keys.
func StringBytes(key string) []byte {
	return []byte(key)
}

func (s *Sharded[K, E]) shard(key K) *shard[K, E] {
	h := murmur3.New32()
	_, _ = h.Write(s.keyBytes(key))
	return s.shards[h.Sum32()&s.mask]
}

func (s *Sharded[K, E]) Load(key K) (E, bool) {
	sh := s.shard(key)
	sh.lock.RLock()
	defer sh.lock.RUnlock()

	e, ok := sh.entries[key]
	return e, ok
}

func (s *Sharded[K, E]) Swap(key K, entry E) (E, bool) {
	sh := s.shard(key)
	sh.lock.Lock()
	defer sh.lock.Unlock()

	previous, loaded := sh.entries[key]
	sh.entries[key] = entry
	return previous, loaded
}

func (s *Sharded[K, E]) CompareAndSwap(key K, old, entry E) bool {
	sh := s.shard(key)
	sh.lock.Lock()
	defer sh.lock.Unlock()

	current, ok := sh.entries[key]
	if !ok || current != old {
		return false
	}
	sh.entries[key] = entry
	return true
}

func (s *Sharded[K, E]) CompareAndDelete(key K, old E) bool {
	sh := s.shard(key)
	sh.lock.Lock()
	defer sh.lock.Unlock()

	current, ok := sh.entries[key]
	if !ok || current != old {
		return false
	}
	delete(sh.entries, key)
	return true
}

func (s *Sharded[K, E]) LoadAndDelete(key K) (E, bool) {
	sh := s.shard(key)
	sh.lock.Lock()
	defer sh.lock.Unlock()

	e, ok := sh.entries[key]
	if ok {
		delete(sh.entries, key)
	}
	return e, ok
}

// Range copies one shard at a time and calls f without holding any lock.
func (s *Sharded[K, E]) Range(f func(K, E) bool) {
	type item struct {
		key   K
		entry E
	}

	var items []item
	for _, sh := range s.shards {
		items = items[:0]
		sh.lock.RLock()
		for k, e := range sh.entries {
			items = append(items, item{key: k, entry: e})
		}
		sh.lock.RUnlock()

		for _, it := range items {
			if !f(it.key, it.entry) {
				return
			}
		}
	}
}

func (s *Sharded[K, E]) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.lock.RLock()
		n += len(sh.entries)
		sh.lock.RUnlock()
	}
	return n
}
