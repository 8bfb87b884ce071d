// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package events

// Bus groups the three streams a cache publishes on.
type Bus[K comparable, V any] struct {
	Added   Stream[K, V]
	Updated Stream[K, V]
	Removed Stream[K, V]
}
