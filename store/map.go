// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package store

import (
	"sync"
	"sync/atomic"
)

var _ Store[struct{}, struct{}] = (*Map[struct{}, struct{}])(nil)

// Map is a Store backed by a sync.Map.
type Map[K comparable, E comparable] struct {
	m   sync.Map
	len atomic.Int64
}

// NewMap creates an empty Map.
func NewMap[K comparable, E comparable]() *Map[K, E] {
	return &Map[K, E]{}
}

func (s *Map[K, E]) Load(key K) (E, bool) {
	v, ok := s.m.Load(key)
	if !ok {
		return zero[E](), false
	}
	return v.(E), true
}

func (s *Map[K, E]) Swap(key K, entry E) (E, bool) {
	v, loaded := s.m.Swap(key, entry)
	if !loaded {
		s.len.Add(1)
		return zero[E](), false
	}
	return v.(E), true
}

func (s *Map[K, E]) CompareAndSwap(key K, old, entry E) bool {
	return s.m.CompareAndSwap(key, old, entry)
}

func (s *Map[K, E]) CompareAndDelete(key K, old E) bool {
	if !s.m.CompareAndDelete(key, old) {
		return false
	}
	s.len.Add(-1)
	return true
}

func (s *Map[K, E]) LoadAndDelete(key K) (E, bool) {
	v, loaded := s.m.LoadAndDelete(key)
	if !loaded {
		return zero[E](), false
	}
	s.len.Add(-1)
	return v.(E), true
}

func (s *Map[K, E]) Range(f func(K, E) bool) {
	s.m.Range(func(k, v any) bool {
		return f(k.(K), v.(E))
	})
}

// Len may briefly lag concurrent mutations.
func (s *Map[K, E]) Len() int {
	return int(max(s.len.Load(), 0))
}

func zero[E any]() E {
	var e E
	return e
}
