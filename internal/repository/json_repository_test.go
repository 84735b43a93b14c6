package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func writeSessionFile(t *testing.T, path string, doc SessionDocument) {
	t.Helper()
	data, _ := json.MarshalIndent(doc, "", "  ")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
}

func TestNewJSONRepository_Success(t *testing.T) {
	repo, err := NewJSONRepository(filepath.Join(t.TempDir(), "nested", "session.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo == nil {
		t.Error("expected repository to be created")
	}
}

func TestNewJSONRepository_EmptyPath(t *testing.T) {
	if _, err := NewJSONRepository(""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestJSONRepository_Load_MissingFileIsEmptySession(t *testing.T) {
	repo, _ := NewJSONRepository(filepath.Join(t.TempDir(), "session.json"))

	doc, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Values) != 0 {
		t.Errorf("expected empty values, got %v", doc.Values)
	}
	if _, ok := doc.Get(KeyToken); ok {
		t.Error("expected no token in empty session")
	}
}

func TestJSONRepository_Load_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("not valid json"), 0600); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	repo, _ := NewJSONRepository(path)
	if _, err := repo.Load(context.Background()); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestJSONRepository_Load_ValidationError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	writeSessionFile(t, path, SessionDocument{
		Metadata: Metadata{LastUpdate: 1000},
		Values:   map[string]string{"refresh": "abc"},
	})

	repo, _ := NewJSONRepository(path)
	if _, err := repo.Load(context.Background()); err == nil {
		t.Error("expected validation error for unknown key")
	}
}

func TestJSONRepository_SetAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	repo, _ := NewJSONRepository(path)
	repo.now = func() time.Time { return time.UnixMilli(4242) }

	saved, err := repo.Set(context.Background(), KeyToken, "tok-1")
	if err != nil {
		t.Fatalf("failed to save: %v", err)
	}
	if saved.Metadata.LastUpdate != 4242 {
		t.Errorf("expected lastUpdate 4242, got %d", saved.Metadata.LastUpdate)
	}

	loaded, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if v, _ := loaded.Get(KeyToken); v != "tok-1" {
		t.Errorf("expected token 'tok-1', got %q", v)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("expected 0600 permissions, got %v", perm)
	}
}

func TestJSONRepository_Set_RejectsUnknownKey(t *testing.T) {
	repo, _ := NewJSONRepository(filepath.Join(t.TempDir(), "session.json"))

	if _, err := repo.Set(context.Background(), "password", "hunter2"); err == nil {
		t.Error("expected validation error for unknown key")
	}
}

func TestJSONRepository_UpdateAndRemove(t *testing.T) {
	repo, _ := NewJSONRepository(filepath.Join(t.TempDir(), "session.json"))
	ctx := context.Background()

	_, err := repo.Update(ctx, func(values map[string]string) {
		values[KeyToken] = "tok"
		values[KeyUser] = `{"_id":"u1"}`
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	doc, err := repo.Remove(ctx, KeyToken, KeyUser)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(doc.Values) != 0 {
		t.Errorf("expected empty values after remove, got %v", doc.Values)
	}

	// removing again is fine
	if _, err := repo.Remove(ctx, KeyToken); err != nil {
		t.Errorf("expected no error removing absent key, got %v", err)
	}
}

func TestJSONRepository_CancelledContext(t *testing.T) {
	repo, _ := NewJSONRepository(filepath.Join(t.TempDir(), "session.json"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := repo.Load(ctx); err == nil {
		t.Error("expected error on cancelled context")
	}
	if _, err := repo.Set(ctx, KeyToken, "x"); err == nil {
		t.Error("expected error on cancelled context")
	}
}

// mockSessionCache implements SessionCache for testing
type mockSessionCache struct {
	mu         sync.Mutex
	lastUpdate int64
	doc        SessionDocument
	reloaded   int
}

func (m *mockSessionCache) LastUpdate() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastUpdate
}

func (m *mockSessionCache) Reload(doc SessionDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = doc
	m.lastUpdate = doc.Metadata.LastUpdate
	m.reloaded++
	return nil
}

func (m *mockSessionCache) reloads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reloaded
}

func TestJSONRepository_MakeWatcherCallback_ReloadsWhenDiskNewer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	writeSessionFile(t, path, SessionDocument{
		Metadata: Metadata{LastUpdate: 2000},
		Values:   map[string]string{KeyToken: "from-disk"},
	})

	repo, _ := NewJSONRepository(path)
	cache := &mockSessionCache{lastUpdate: 1000}

	repo.MakeWatcherCallback(cache)()

	if cache.reloads() != 1 {
		t.Fatal("expected cache to be reloaded when disk is newer")
	}
	if v, _ := cache.doc.Get(KeyToken); v != "from-disk" {
		t.Errorf("expected token 'from-disk', got %q", v)
	}
}

func TestJSONRepository_MakeWatcherCallback_SkipsOwnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	writeSessionFile(t, path, SessionDocument{
		Metadata: Metadata{LastUpdate: 1000},
		Values:   map[string]string{KeyToken: "same"},
	})

	repo, _ := NewJSONRepository(path)
	cache := &mockSessionCache{lastUpdate: 1000}

	repo.MakeWatcherCallback(cache)()

	if cache.reloads() != 0 {
		t.Error("expected cache NOT to be reloaded when disk is not newer")
	}
}

func TestJSONRepository_MakeWatcherCallback_FileRemoved(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	repo, _ := NewJSONRepository(path)
	cache := &mockSessionCache{lastUpdate: 1000}

	repo.MakeWatcherCallback(cache)()

	if cache.reloads() != 1 {
		t.Fatal("expected a removed file to be treated as an external logout")
	}
	if len(cache.doc.Values) != 0 {
		t.Errorf("expected empty session, got %v", cache.doc.Values)
	}
}

func TestJSONRepository_MakeWatcherCallback_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{"), 0600); err != nil {
		t.Fatal(err)
	}
	repo, _ := NewJSONRepository(path)
	cache := &mockSessionCache{lastUpdate: 1}

	repo.MakeWatcherCallback(cache)()

	if cache.reloads() != 0 {
		t.Error("expected no reload for an unreadable file")
	}
}

func TestJSONRepository_StartWatcher_ExternalChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	repo, _ := NewJSONRepository(path)
	cache := &mockSessionCache{lastUpdate: 1}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := repo.StartWatcher(ctx, cache); err != nil {
		t.Fatalf("start watcher: %v", err)
	}

	writeSessionFile(t, path, SessionDocument{
		Metadata: Metadata{LastUpdate: time.Now().UnixMilli()},
		Values:   map[string]string{KeyToken: "external"},
	})

	deadline := time.Now().Add(3 * time.Second)
	for cache.reloads() == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if cache.reloads() == 0 {
		t.Fatal("expected watcher to reload the cache")
	}
}

func TestJSONRepository_StartWatcher_NilCache(t *testing.T) {
	repo, _ := NewJSONRepository(filepath.Join(t.TempDir(), "session.json"))
	if err := repo.StartWatcher(context.Background(), nil); err == nil {
		t.Error("expected error for nil cache")
	}
}

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository(map[string]string{KeyToken: "seed"})

	doc, _ := repo.Load(ctx)
	if v, _ := doc.Get(KeyToken); v != "seed" {
		t.Fatalf("expected seeded token, got %q", v)
	}

	first, _ := repo.Set(ctx, KeyToken, "a")
	second, _ := repo.Set(ctx, KeyToken, "b")
	if second.Metadata.LastUpdate <= first.Metadata.LastUpdate {
		t.Error("expected strictly increasing lastUpdate")
	}

	// returned documents are copies
	second.Values[KeyToken] = "mutated"
	doc, _ = repo.Load(ctx)
	if v, _ := doc.Get(KeyToken); v != "b" {
		t.Errorf("expected 'b', got %q", v)
	}

	doc2, _ := repo.Remove(ctx, KeyToken)
	if _, ok := doc2.Get(KeyToken); ok {
		t.Error("expected token removed")
	}
}

func TestAreSessionDocumentsEqual(t *testing.T) {
	a := &SessionDocument{Metadata: Metadata{LastUpdate: 1}, Values: map[string]string{KeyToken: "x"}}
	b := &SessionDocument{Metadata: Metadata{LastUpdate: 2}, Values: map[string]string{KeyToken: "x"}}
	c := &SessionDocument{Values: map[string]string{KeyToken: "y"}}

	if !AreSessionDocumentsEqual(a, b) {
		t.Error("expected documents equal ignoring metadata")
	}
	if AreSessionDocumentsEqual(a, c) {
		t.Error("expected documents to differ")
	}
	if !AreSessionDocumentsEqual(nil, nil) || AreSessionDocumentsEqual(a, nil) {
		t.Error("unexpected nil handling")
	}
}
