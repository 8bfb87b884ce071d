// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package store provides concurrent maps with atomic per-key mutation.
package store

// Store maps keys to entries. Every method is atomic with respect to the key
// it touches; no method locks the whole store. Entries are compared with ==,
// so pointer entries are compared by identity.
type Store[K comparable, E comparable] interface {
	// Load returns the entry stored under key, if it exists.
	Load(key K) (E, bool)

	// Swap stores entry under key and returns the entry it replaced. loaded
	// is false if key was absent.
	Swap(key K, entry E) (previous E, loaded bool)

	// CompareAndSwap stores entry under key only if old is currently stored
	// there.
	CompareAndSwap(key K, old, entry E) bool

	// CompareAndDelete deletes key only if old is currently stored there.
	CompareAndDelete(key K, old E) bool

	// LoadAndDelete deletes key and returns the entry it held, if any.
	LoadAndDelete(key K) (E, bool)

	// Range calls f for entries in the store until f returns false. It is
	// not a consistent snapshot: concurrent mutations may or may not be
	// observed, but every entry passed to f was stored under its key at some
	// point during the call. f may mutate the store.
	Range(f func(key K, entry E) bool)

	// Len returns the number of stored entries.
	Len() int
}
