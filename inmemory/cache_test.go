// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package inmemory

import (
	"context"
	"errors"
	"runtime"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/sync/errgroup"

	"github.com/luxfi/lazycache"
	"github.com/luxfi/lazycache/events"
	"github.com/luxfi/lazycache/store"
)

var (
	t0         = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	errFailing = errors.New("failing policy")
)

type eventKind string

const (
	eventAdded   eventKind = "added"
	eventUpdated eventKind = "updated"
	eventRemoved eventKind = "removed"
)

type event[K comparable, V any] struct {
	kind eventKind
	events.Pair[K, V]
}

type recorder[K comparable, V any] struct {
	lock    sync.Mutex
	added   []events.Pair[K, V]
	updated []events.Pair[K, V]
	removed []events.Pair[K, V]
	// log holds every event in publication order.
	log     []event[K, V]
}

func record[K comparable, V any](c lazycache.Cache[K, V]) *recorder[K, V] {
	r := &recorder[K, V]{}
	c.AddedEntries().Subscribe(r.appendTo(eventAdded, &r.added))
	c.UpdatedEntries().Subscribe(r.appendTo(eventUpdated, &r.updated))
	c.RemovedEntries().Subscribe(r.appendTo(eventRemoved, &r.removed))
	return r
}

func (r *recorder[K, V]) appendTo(kind eventKind, dst *[]events.Pair[K, V]) events.Handler[K, V] {
	return func(k K, v V) {
		r.lock.Lock()
		defer r.lock.Unlock()
		p := events.Pair[K, V]{Key: k, Value: v}
		*dst = append(*dst, p)
		r.log = append(r.log, event[K, V]{kind: kind, Pair: p})
	}
}

func (r *recorder[K, V]) counts() (added, updated, removed int) {
	r.lock.Lock()
	defer r.lock.Unlock()
	return len(r.added), len(r.updated), len(r.removed)
}

func pair(k string, v int) events.Pair[string, int] {
	return events.Pair[string, int]{Key: k, Value: v}
}

func ev(kind eventKind, k string, v int) event[string, int] {
	return event[string, int]{kind: kind, Pair: pair(k, v)}
}

func plusOne(_ context.Context, v int) (int, error) {
	return v + 1, nil
}

func failing(context.Context, lazycache.Entry[int], time.Time) (bool, error) {
	return false, errFailing
}

// caches returns a fresh instance of every variant behind the common
// interface.
func caches(clock lazycache.Clock) map[string]lazycache.Cache[string, int] {
	return map[string]lazycache.Cache[string, int]{
		"simple":            NewSimple[string, int](clock),
		"self-invalidating": NewSelfInvalidating[string, int](clock),
		"self-updating":     NewSelfUpdating[string, int](clock),
		"sharded":           NewSimple(clock, WithShardedStore[string, int](4, func(k string) []byte { return []byte(k) })),
	}
}

func TestRoundTrip(t *testing.T) {
	for name, c := range caches(lazycache.NewManualClock(t0)) {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			for i := 0; i < 10; i++ {
				c.Set(strconv.Itoa(i), i)
			}
			for i := 0; i < 10; i++ {
				v, ok, err := c.Get(context.Background(), strconv.Itoa(i))
				require.NoError(err)
				require.True(ok)
				require.Equal(i, v)
			}
			require.Equal(10, c.Len())

			_, ok, err := c.Get(context.Background(), "missing")
			require.NoError(err)
			require.False(ok)
		})
	}
}

func TestOverwriteIsVisible(t *testing.T) {
	for name, c := range caches(lazycache.NewManualClock(t0)) {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)
			r := record(c)

			c.Set("k", 1)
			c.Set("k", 2)

			v, ok, err := c.Get(context.Background(), "k")
			require.NoError(err)
			require.True(ok)
			require.Equal(2, v)

			require.Equal([]event[string, int]{
				ev(eventAdded, "k", 1),
				ev(eventUpdated, "k", 2),
			}, r.log)
			require.Equal(1, c.Len())
		})
	}
}

func TestRemove(t *testing.T) {
	for name, c := range caches(lazycache.NewManualClock(t0)) {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)
			r := record(c)

			require.False(c.Remove("k"))
			require.Empty(r.removed)

			c.Set("k", 1)
			c.Set("k", 2)
			require.True(c.Remove("k"))
			require.Equal([]events.Pair[string, int]{pair("k", 2)}, r.removed)

			_, ok, err := c.Get(context.Background(), "k")
			require.NoError(err)
			require.False(ok)
			require.False(c.Remove("k"))
			require.Len(r.removed, 1)
			require.Zero(c.Len())
		})
	}
}

func TestSetStartsNewLifecycle(t *testing.T) {
	require := require.New(t)

	clock := lazycache.NewManualClock(t0)
	c := NewSelfUpdating[string, int](clock)

	c.Set("k", 1)
	clock.Advance(time.Minute)
	c.Set("k", 2)

	e, ok := c.Peek("k")
	require.True(ok)
	require.Equal(2, e.Value())
	require.Equal(t0.Add(time.Minute), e.AddedAt())
	_, updated := e.LastUpdatedAt()
	require.False(updated)
}

func TestSimpleInvalidateEntries(t *testing.T) {
	require := require.New(t)

	clock := lazycache.NewManualClock(t0)
	c := NewSimple[string, int](clock)
	r := record(c)

	c.Set("old", 1)
	clock.Advance(time.Hour)
	c.Set("new", 2)

	require.NoError(c.InvalidateEntries(context.Background(), lazycache.MaxAge[int](time.Minute)))
	require.Equal([]events.Pair[string, int]{pair("old", 1)}, r.removed)

	_, ok, _ := c.Get(context.Background(), "old")
	require.False(ok)
	v, ok, _ := c.Get(context.Background(), "new")
	require.True(ok)
	require.Equal(2, v)
}

func TestNilPredicateSweepsNothing(t *testing.T) {
	for name, c := range caches(lazycache.NewManualClock(t0)) {
		t.Run(name, func(t *testing.T) {
			c.Set("k", 1)
			require.NoError(t, c.InvalidateEntries(context.Background(), nil))
			require.Equal(t, 1, c.Len())
		})
	}
}

func TestSweepHaltsOnFirstError(t *testing.T) {
	for name, c := range caches(lazycache.NewManualClock(t0)) {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			for i := 0; i < 10; i++ {
				c.Set(strconv.Itoa(i), i)
			}
			calls := 0
			err := c.InvalidateEntries(context.Background(), func(ctx context.Context, e lazycache.Entry[int], now time.Time) (bool, error) {
				calls++
				return failing(ctx, e, now)
			})
			require.ErrorIs(err, errFailing)
			require.Equal(1, calls)
			require.Equal(10, c.Len())
		})
	}
}

func TestSweepStopsOnCanceledContext(t *testing.T) {
	for name, c := range caches(lazycache.NewManualClock(t0)) {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			c.Set("a", 1)
			c.Set("b", 2)

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			err := c.InvalidateEntries(ctx, lazycache.Always[int]())
			require.ErrorIs(err, context.Canceled)
			require.Equal(2, c.Len())
		})
	}
}

func TestConcurrentSetSameKey(t *testing.T) {
	const writers = 64

	for name, c := range caches(lazycache.NewManualClock(t0)) {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)
			r := record(c)

			var g errgroup.Group
			for i := 0; i < writers; i++ {
				g.Go(func() error {
					c.Set("k", i)
					return nil
				})
			}
			require.NoError(g.Wait())

			v, ok, err := c.Get(context.Background(), "k")
			require.NoError(err)
			require.True(ok)
			require.GreaterOrEqual(v, 0)
			require.Less(v, writers)

			added, updated, removed := r.counts()
			require.Equal(1, added)
			require.Equal(writers-1, updated)
			require.Zero(removed)
		})
	}
}

func TestConcurrentMixedOperations(t *testing.T) {
	clock := lazycache.NewManualClock(t0)
	c := NewSelfUpdating[string, int](clock)

	g, ctx := errgroup.WithContext(context.Background())
	for w := 0; w < 8; w++ {
		g.Go(func() error {
			for i := 0; i < 200; i++ {
				key := strconv.Itoa(i % 16)
				switch i % 4 {
				case 0:
					c.SetWithRefresh(key, i, lazycache.Always[int](), plusOne)
				case 1:
					if _, _, err := c.Get(ctx, key); err != nil {
						return err
					}
				case 2:
					c.Remove(key)
				default:
					if err := c.InvalidateEntries(ctx, lazycache.Always[int]()); err != nil {
						return err
					}
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.LessOrEqual(t, c.Len(), 16)
}

func TestEventsMirrorCache(t *testing.T) {
	const (
		writers = 8
		rounds  = 200
	)

	for name, c := range caches(lazycache.NewManualClock(t0)) {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			var (
				lock   sync.Mutex
				mirror = make(map[string]int)
			)
			upsert := func(k string, v int) {
				runtime.Gosched()
				lock.Lock()
				defer lock.Unlock()
				mirror[k] = v
			}
			c.AddedEntries().Subscribe(upsert)
			c.UpdatedEntries().Subscribe(upsert)
			c.RemovedEntries().Subscribe(func(k string, _ int) {
				runtime.Gosched()
				lock.Lock()
				defer lock.Unlock()
				delete(mirror, k)
			})

			var g errgroup.Group
			for w := 0; w < writers; w++ {
				g.Go(func() error {
					for i := 0; i < rounds; i++ {
						if (w+i)%2 == 0 {
							c.Set("k", w*rounds+i)
						} else {
							c.Remove("k")
						}
					}
					return nil
				})
			}
			require.NoError(g.Wait())

			lock.Lock()
			defer lock.Unlock()
			e, ok := c.Peek("k")
			mirrored, mirroredOK := mirror["k"]
			require.Equal(ok, mirroredOK)
			if ok {
				require.Equal(e.Value(), mirrored)
			}
		})
	}
}

func TestLoggerRecordsPolicyOutcomes(t *testing.T) {
	require := require.New(t)

	core, logs := observer.New(zap.DebugLevel)
	clock := lazycache.NewManualClock(t0)
	c := NewSelfInvalidating(clock, WithLogger[string, int](zap.New(core)))

	c.SetWithInvalidation("k", 1, lazycache.Always[int]())
	_, ok, err := c.Get(context.Background(), "k")
	require.NoError(err)
	require.False(ok)
	require.Equal(1, logs.FilterMessage("removed invalid entry").Len())

	c.SetWithInvalidation("k", 1, failing)
	_, _, err = c.Get(context.Background(), "k")
	require.ErrorIs(err, errFailing)
	require.Equal(1, logs.FilterMessage("entry invalidation failed").Len())
}

func TestShardedStoreWithIDKeys(t *testing.T) {
	require := require.New(t)

	clock := lazycache.NewManualClock(t0)
	c := NewSelfInvalidating(clock, WithShardedStore[ids.ID, string](8, func(id ids.ID) []byte { return id[:] }))

	for i := 0; i < 32; i++ {
		c.SetWithInvalidation(ids.ID{byte(i)}, strconv.Itoa(i), lazycache.MaxAge[string](time.Duration(i)*time.Second))
	}
	clock.Advance(16 * time.Second)

	for i := 0; i < 32; i++ {
		v, ok, err := c.Get(context.Background(), ids.ID{byte(i)})
		require.NoError(err)
		if i < 16 {
			require.False(ok, i)
			continue
		}
		require.True(ok, i)
		require.Equal(strconv.Itoa(i), v)
	}
	require.Equal(16, c.Len())
}

func TestShardedStoreWithoutKeyBytes(t *testing.T) {
	require := require.New(t)

	c := NewSimple(lazycache.NewManualClock(t0), WithShardedStore[string, int](4, nil))
	require.IsType(&store.Map[string, *entry[int]]{}, c.entries)

	c.Set("k", 1)
	v, ok, err := c.Get(context.Background(), "k")
	require.NoError(err)
	require.True(ok)
	require.Equal(1, v)
}

func TestWatchCacheEvents(t *testing.T) {
	require := require.New(t)

	c := NewSimple[string, int](lazycache.NewManualClock(t0))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	added := c.AddedEntries().Watch(ctx)

	c.Set("a", 1)
	c.Set("a", 2)
	c.Set("b", 3)

	for _, want := range []events.Pair[string, int]{pair("a", 1), pair("b", 3)} {
		select {
		case got := <-added:
			require.Equal(want, got)
		case <-time.After(time.Second):
			require.FailNow("timed out waiting for event")
		}
	}
}

func TestNilClockUsesSystemClock(t *testing.T) {
	require := require.New(t)

	before := time.Now()
	c := NewSimple[string, int](nil)
	c.Set("k", 1)

	e, ok := c.Peek("k")
	require.True(ok)
	require.False(e.AddedAt().Before(before.Truncate(time.Second)))
}
