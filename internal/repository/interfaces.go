package repository

import "context"

// KeyValueStore is the persistence contract the token store relies on:
// get/set/remove semantics over a handful of string keys.
type KeyValueStore interface {
	Load(ctx context.Context) (*SessionDocument, error)
	// Update applies fn to the current values and persists the result atomically.
	Update(ctx context.Context, fn func(values map[string]string)) (SessionDocument, error)
	Set(ctx context.Context, key, value string) (SessionDocument, error)
	Remove(ctx context.Context, keys ...string) (SessionDocument, error)
}

// SessionCache is what the watcher callback needs from the in-memory holder of the session.
type SessionCache interface {
	LastUpdate() int64
	Reload(doc SessionDocument) error
}

// Repository abstracts persistence and watching of the session file.
// JSONRepository implements this interface.
type Repository interface {
	KeyValueStore
	StartWatcher(ctx context.Context, cache SessionCache) error
}
