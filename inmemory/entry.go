// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package inmemory

import (
	"context"
	"time"

	"github.com/luxfi/lazycache"
)

var _ lazycache.Entry[struct{}] = (*entry[struct{}])(nil)

// entry is never modified after it is stored. Replacing a value means storing
// a new entry, so the store can compare entries by identity.
type entry[V any] struct {
	value     V
	addedAt   time.Time
	updatedAt time.Time
	updated   bool

	// nil for entries of a Simple cache
	invalidation lazycache.InvalidationFunc[V]
	// nil unless the entry belongs to a SelfUpdating cache
	update lazycache.UpdateFunc[V]
}

func (e *entry[V]) Value() V {
	return e.value
}

func (e *entry[V]) AddedAt() time.Time {
	return e.addedAt
}

func (e *entry[V]) LastUpdatedAt() (time.Time, bool) {
	return e.updatedAt, e.updated
}

func (e *entry[V]) isInvalid(ctx context.Context, now time.Time) (bool, error) {
	if e.invalidation == nil {
		return false, nil
	}
	return e.invalidation(ctx, e, now)
}

// refreshed runs the update and returns the entry that should replace e.
func (e *entry[V]) refreshed(ctx context.Context, clock lazycache.Clock) (*entry[V], error) {
	value := e.value
	if e.update != nil {
		var err error
		value, err = e.update(ctx, e.value)
		if err != nil {
			return nil, err
		}
	}
	return &entry[V]{
		value:        value,
		addedAt:      e.addedAt,
		updatedAt:    clock.Now(),
		updated:      true,
		invalidation: e.invalidation,
		update:       e.update,
	}, nil
}
