// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package events

import (
	"context"
	"sync"
)

// queue is an unbounded FIFO with a blocking pop.
type queue[K comparable, V any] struct {
	lock  sync.Mutex
	items []Pair[K, V]
	ready chan struct{}
}

func newQueue[K comparable, V any]() *queue[K, V] {
	return &queue[K, V]{ready: make(chan struct{}, 1)}
}

func (q *queue[K, V]) push(key K, value V) {
	q.lock.Lock()
	q.items = append(q.items, Pair[K, V]{Key: key, Value: value})
	q.lock.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// pop blocks until an item is available or ctx is done.
func (q *queue[K, V]) pop(ctx context.Context) (Pair[K, V], bool) {
	for {
		q.lock.Lock()
		if len(q.items) > 0 {
			p := q.items[0]
			q.items[0] = Pair[K, V]{}
			q.items = q.items[1:]
			q.lock.Unlock()
			return p, true
		}
		q.lock.Unlock()

		select {
		case <-q.ready:
		case <-ctx.Done():
			return Pair[K, V]{}, false
		}
	}
}
