// Package cache holds the shared in-memory collections that fetchers replace
// and the optimistic mutator edits. Consumers only read snapshots.
package cache

import (
	"encoding/json"
	"reflect"
	"slices"
	"sync"

	"github.com/bassista/jobsync/internal/model"
)

// Store keeps an ordered, id-unique collection. Insertion order is display order.
type Store[T model.Entity] struct {
	mu      sync.RWMutex
	items   []T
	version uint64 // bumped on every write
}

// NewStore creates a store holding a copy of items.
func NewStore[T model.Entity](items []T) *Store[T] {
	s := &Store[T]{}
	if cloned, err := cloneItems(items); err == nil {
		s.items = dedupe(cloned)
	}
	return s
}

// Snapshot returns a deep copy of the collection.
func (s *Store[T]) Snapshot() ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneItems(s.items)
}

// Get returns a deep copy of the entity with id.
func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var zero T
	for _, it := range s.items {
		if it.EntityID() == id {
			cloned, err := cloneItems([]T{it})
			if err != nil {
				return zero, false
			}
			return cloned[0], true
		}
	}
	return zero, false
}

func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Version changes whenever the collection is written.
func (s *Store[T]) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Replace swaps the whole collection. Duplicate ids keep their first occurrence.
func (s *Store[T]) Replace(items []T) error {
	cloned, err := cloneItems(items)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = dedupe(cloned)
	s.version++
	return nil
}

// Apply runs transform on a copy of the collection and stores the result.
// The transform runs under the write lock and must not call back into the store.
func (s *Store[T]) Apply(transform func([]T) []T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, err := cloneItems(s.items)
	if err != nil {
		return err
	}
	s.items = dedupe(transform(current))
	s.version++
	return nil
}

// ChangeKind says what an Edit did to one entity.
type ChangeKind int

const (
	Added ChangeKind = iota + 1
	Removed
	Modified
)

// Change is the state one entity had before an Edit touched it.
type Change[T model.Entity] struct {
	ID   string
	Kind ChangeKind
	Prev T // zero for Added

	index  int
	prevID string
	nextID string
}

// Edit runs transform like Apply and reports, per entity, what it changed.
// Reading the old state and writing the new one happen under one write lock.
func (s *Store[T]) Edit(transform func([]T) []T) ([]Change[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, err := cloneItems(s.items)
	if err != nil {
		return nil, err
	}
	next := dedupe(transform(current))
	changes := diffItems(s.items, next)
	s.items = next
	s.version++
	return changes, nil
}

// Revert undoes changes one entity at a time. Entities not named in changes
// keep whatever state they have now. A removed entity that is already back,
// or a modified one that has since disappeared, is left alone.
func (s *Store[T]) Revert(changes []Change[T]) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := slices.Clone(s.items)
	for _, c := range changes {
		pos := positionOf(items, c.ID)
		switch c.Kind {
		case Added:
			if pos >= 0 {
				items = slices.Delete(items, pos, pos+1)
			}
		case Modified:
			if pos >= 0 {
				items[pos] = c.Prev
			}
		case Removed:
			if pos < 0 {
				items = slices.Insert(items, c.reinsertAt(items), c.Prev)
			}
		}
	}
	s.items = items
	s.version++
	return nil
}

// reinsertAt places a removed entity next to a former neighbour that is still
// present, falling back to its old index.
func (c Change[T]) reinsertAt(items []T) int {
	if c.nextID != "" {
		if pos := positionOf(items, c.nextID); pos >= 0 {
			return pos
		}
	}
	if c.prevID != "" {
		if pos := positionOf(items, c.prevID); pos >= 0 {
			return pos + 1
		}
	}
	return min(c.index, len(items))
}

func diffItems[T model.Entity](before, after []T) []Change[T] {
	afterPos := make(map[string]int, len(after))
	for i, it := range after {
		afterPos[it.EntityID()] = i
	}

	var changes []Change[T]
	beforeIDs := make(map[string]struct{}, len(before))
	for i, it := range before {
		id := it.EntityID()
		beforeIDs[id] = struct{}{}
		c := Change[T]{ID: id, Prev: it, index: i}
		if i > 0 {
			c.prevID = before[i-1].EntityID()
		}
		if i+1 < len(before) {
			c.nextID = before[i+1].EntityID()
		}
		j, ok := afterPos[id]
		switch {
		case !ok:
			c.Kind = Removed
		case !reflect.DeepEqual(it, after[j]):
			c.Kind = Modified
		default:
			continue
		}
		changes = append(changes, c)
	}
	for _, it := range after {
		if _, ok := beforeIDs[it.EntityID()]; !ok {
			changes = append(changes, Change[T]{ID: it.EntityID(), Kind: Added})
		}
	}
	return changes
}

func positionOf[T model.Entity](items []T, id string) int {
	return slices.IndexFunc(items, func(it T) bool { return it.EntityID() == id })
}

// RemoveByID returns a transform that drops the entity with id.
func RemoveByID[T model.Entity](id string) func([]T) []T {
	return func(items []T) []T {
		out := items[:0]
		for _, it := range items {
			if it.EntityID() != id {
				out = append(out, it)
			}
		}
		return out
	}
}

// Prepend returns a transform that inserts item first, replacing any entity with the same id.
func Prepend[T model.Entity](item T) func([]T) []T {
	return func(items []T) []T {
		out := make([]T, 0, len(items)+1)
		out = append(out, item)
		for _, it := range items {
			if it.EntityID() != item.EntityID() {
				out = append(out, it)
			}
		}
		return out
	}
}

// ReplaceByID returns a transform that swaps the entity with id for item, keeping its position.
func ReplaceByID[T model.Entity](id string, item T) func([]T) []T {
	return func(items []T) []T {
		for i, it := range items {
			if it.EntityID() == id {
				items[i] = item
			}
		}
		return items
	}
}

func dedupe[T model.Entity](items []T) []T {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, it := range items {
		id := it.EntityID()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, it)
	}
	return out
}

// cloneItems deep-copies the collection to avoid shared slices between store and callers.
func cloneItems[T model.Entity](items []T) ([]T, error) {
	if items == nil {
		return []T{}, nil
	}
	bytes, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	var copy []T
	if err := json.Unmarshal(bytes, &copy); err != nil {
		return nil, err
	}
	if copy == nil {
		copy = []T{}
	}
	return copy, nil
}

var _ CollectionStore[model.Job] = (*Store[model.Job])(nil)
