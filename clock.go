// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package lazycache

import (
	"sync"
	"time"
)

var (
	_ Clock = SystemClock{}
	_ Clock = (*ManualClock)(nil)
)

// Clock supplies the current time to a cache.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// ManualClock only moves when told to. It is safe for concurrent use.
type ManualClock struct {
	lock sync.RWMutex
	now  time.Time
}

// NewManualClock returns a clock stopped at now.
func NewManualClock(now time.Time) *ManualClock {
	return &ManualClock{now: now}
}

func (c *ManualClock) Now() time.Time {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.now
}

// Set moves the clock to now.
func (c *ManualClock) Set(now time.Time) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = now
}

// Advance moves the clock forward by d and returns the new time.
func (c *ManualClock) Advance(d time.Duration) time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = c.now.Add(d)
	return c.now
}
