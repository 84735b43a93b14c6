package cache

import "github.com/bassista/jobsync/internal/model"

// ReadOnlyStore is the minimal collection API for views.
type ReadOnlyStore[T model.Entity] interface {
	Snapshot() ([]T, error)
	Get(id string) (T, bool)
	Len() int
	Version() uint64
}

// ReplaceableStore is what fetchers need: wholesale replacement only.
type ReplaceableStore[T model.Entity] interface {
	ReadOnlyStore[T]
	Replace(items []T) error
}

// MutableStore is what the optimistic mutator needs.
type MutableStore[T model.Entity] interface {
	ReadOnlyStore[T]
	Edit(transform func([]T) []T) ([]Change[T], error)
	Revert(changes []Change[T]) error
}

// CollectionStore is the full contract a collection exposes to the app container.
type CollectionStore[T model.Entity] interface {
	ReplaceableStore[T]
	MutableStore[T]
}
