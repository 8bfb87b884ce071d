// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package events provides the broadcast streams a cache reports its
// mutations on.
package events

import (
	"context"
	"sync"
)

// Pair is a key and the value it was mapped to when the event happened.
type Pair[K comparable, V any] struct {
	Key   K
	Value V
}

// Handler receives an event. Handlers may be called concurrently.
type Handler[K comparable, V any] func(key K, value V)

type subscription[K comparable, V any] struct {
	id      uint64
	handler Handler[K, V]
}

// Stream fans events out to every current subscriber. Subscribers only see
// events published after they subscribed.
//
// The zero value is ready to use.
type Stream[K comparable, V any] struct {
	lock   sync.RWMutex
	nextID uint64
	// subs is replaced, never modified, so Publish can iterate it unlocked.
	subs []subscription[K, V]
}

// Subscribe registers handler and returns a function that removes it.
// Calling the returned function more than once is a no-op.
func (s *Stream[K, V]) Subscribe(handler Handler[K, V]) (unsubscribe func()) {
	s.lock.Lock()
	defer s.lock.Unlock()

	id := s.nextID
	s.nextID++

	subs := make([]subscription[K, V], len(s.subs), len(s.subs)+1)
	copy(subs, s.subs)
	s.subs = append(subs, subscription[K, V]{id: id, handler: handler})

	var once sync.Once
	return func() {
		once.Do(func() { s.remove(id) })
	}
}

func (s *Stream[K, V]) remove(id uint64) {
	s.lock.Lock()
	defer s.lock.Unlock()

	subs := make([]subscription[K, V], 0, len(s.subs))
	for _, sub := range s.subs {
		if sub.id != id {
			subs = append(subs, sub)
		}
	}
	s.subs = subs
}

// Publish calls every subscriber, in subscription order, on the calling
// goroutine.
func (s *Stream[K, V]) Publish(key K, value V) {
	s.lock.RLock()
	subs := s.subs
	s.lock.RUnlock()

	for _, sub := range subs {
		sub.handler(key, value)
	}
}

// Len returns the number of subscribers.
func (s *Stream[K, V]) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.subs)
}

// Watch subscribes a channel to the stream. Events are buffered without
// bound, so a slow reader never blocks publishers. The channel is closed
// once ctx is done.
func (s *Stream[K, V]) Watch(ctx context.Context) <-chan Pair[K, V] {
	var (
		out         = make(chan Pair[K, V])
		q           = newQueue[K, V]()
		unsubscribe = s.Subscribe(q.push)
	)
	go func() {
		defer close(out)
		defer unsubscribe()

		for {
			p, ok := q.pop(ctx)
			if !ok {
				return
			}
			select {
			case out <- p:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
