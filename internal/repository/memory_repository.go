package repository

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository keeps the session in memory only. It is used for
// ephemeral sessions (--no-persist) and in tests.
type MemoryRepository struct {
	mu  sync.Mutex
	doc SessionDocument
	now func() time.Time
}

func NewMemoryRepository(values map[string]string) *MemoryRepository {
	doc := SessionDocument{Values: map[string]string{}}
	for k, v := range values {
		doc.Values[k] = v
	}
	return &MemoryRepository{doc: doc, now: time.Now}
}

func (m *MemoryRepository) Load(ctx context.Context) (*SessionDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	doc := m.doc.Clone()
	return &doc, nil
}

func (m *MemoryRepository) Update(ctx context.Context, fn func(values map[string]string)) (SessionDocument, error) {
	if err := ctx.Err(); err != nil {
		return SessionDocument{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.doc.Values)
	// keep LastUpdate strictly increasing even within the same millisecond
	ts := m.now().UnixMilli()
	if ts <= m.doc.Metadata.LastUpdate {
		ts = m.doc.Metadata.LastUpdate + 1
	}
	m.doc.Metadata.LastUpdate = ts
	return m.doc.Clone(), nil
}

func (m *MemoryRepository) Set(ctx context.Context, key, value string) (SessionDocument, error) {
	return m.Update(ctx, func(values map[string]string) { values[key] = value })
}

func (m *MemoryRepository) Remove(ctx context.Context, keys ...string) (SessionDocument, error) {
	return m.Update(ctx, func(values map[string]string) {
		for _, k := range keys {
			delete(values, k)
		}
	})
}

// StartWatcher is a no-op: nothing outside the process can change a memory session.
func (m *MemoryRepository) StartWatcher(ctx context.Context, cache SessionCache) error {
	return nil
}
