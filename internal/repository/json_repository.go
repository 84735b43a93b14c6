package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bassista/jobsync/internal/logger"
	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

const watchDebounce = 200 * time.Millisecond

// JSONRepository handles disk persistence and watching of the session file.
type JSONRepository struct {
	path      string
	dir       string
	base      string
	validator *validator.Validate
	log       *logrus.Entry
	now       func() time.Time
	mu        sync.Mutex
}

// NewJSONRepository creates a repository for the given JSON file path.
// The parent directory is created with owner-only permissions since the file holds a bearer token.
func NewJSONRepository(path string) (*JSONRepository, error) {
	if path == "" {
		return nil, errors.New("session file path is required")
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if dir == "" || dir == "." {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	return &JSONRepository{
		path:      path,
		dir:       dir,
		base:      base,
		validator: validator.New(),
		log:       logger.WithComponent("session-repo"),
		now:       time.Now,
	}, nil
}

// Load reads the JSON file, parses and validates it.
// A missing file is an empty session, not an error.
func (r *JSONRepository) Load(ctx context.Context) (*SessionDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadUnlocked()
}

// loadUnlocked reads the JSON file without acquiring the lock (caller must hold it).
func (r *JSONRepository) loadUnlocked() (*SessionDocument, error) {
	file, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			doc := &SessionDocument{}
			doc.ApplyDefaults()
			return doc, nil
		}
		return nil, fmt.Errorf("open session file: %w", err)
	}
	defer file.Close()

	var doc SessionDocument
	if err := json.NewDecoder(file).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode session file: %w", err)
	}

	doc.ApplyDefaults()

	if err := r.validator.Struct(&doc); err != nil {
		return nil, fmt.Errorf("validate session file: %w", err)
	}

	return &doc, nil
}

// Update loads the document, applies fn to its values and writes it back atomically.
func (r *JSONRepository) Update(ctx context.Context, fn func(values map[string]string)) (SessionDocument, error) {
	if err := ctx.Err(); err != nil {
		return SessionDocument{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.loadUnlocked()
	if err != nil {
		return SessionDocument{}, err
	}
	fn(doc.Values)
	doc.Metadata.LastUpdate = r.now().UnixMilli()

	if err := r.validator.Struct(doc); err != nil {
		return SessionDocument{}, fmt.Errorf("validate before save: %w", err)
	}
	if err := r.saveUnlocked(doc); err != nil {
		return SessionDocument{}, err
	}
	r.log.Debugf("session saved (%d keys)", len(doc.Values))
	return doc.Clone(), nil
}

// Set stores value under key.
func (r *JSONRepository) Set(ctx context.Context, key, value string) (SessionDocument, error) {
	return r.Update(ctx, func(values map[string]string) {
		values[key] = value
	})
}

// Remove deletes keys; removing an absent key is not an error.
func (r *JSONRepository) Remove(ctx context.Context, keys ...string) (SessionDocument, error) {
	return r.Update(ctx, func(values map[string]string) {
		for _, k := range keys {
			delete(values, k)
		}
	})
}

// saveUnlocked writes the document without acquiring the lock (caller must hold it).
func (r *JSONRepository) saveUnlocked(doc *SessionDocument) error {
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	tmpFile, err := os.CreateTemp(r.dir, r.base+".tmp-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
	}()

	if err := tmpFile.Chmod(0600); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if _, err := tmpFile.Write(payload); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpFile.Name(), r.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}

	return nil
}

// StartWatcher listens for changes to the session file and reloads cache after debounce.
// It watches the parent directory (not the file) so atomic replace sequences (temp+rename)
// done by another process, e.g. a logout in a second terminal, are still observed.
// The caller owns ctx: cancel it to stop the goroutine and close the watcher.
func (r *JSONRepository) StartWatcher(ctx context.Context, cache SessionCache) error {
	if cache == nil {
		return errors.New("session cache is required")
	}
	onChange := r.MakeWatcherCallback(cache)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	if err := watcher.Add(r.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch dir: %w", err)
	}

	go func() {
		defer watcher.Close()

		// debounce coalesces bursty fsnotify events (write+chmod/rename) into a single reload.
		var debounce *time.Timer
		schedule := func() {
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(watchDebounce, onChange)
		}
		defer func() {
			if debounce != nil {
				debounce.Stop()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != r.base {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Chmod|fsnotify.Remove|fsnotify.Rename) != 0 {
					schedule()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				r.log.Warnf("watcher error: %v", err)
			}
		}
	}()

	return nil
}

// MakeWatcherCallback returns a callback that pushes a newer on-disk session into cache.
func (r *JSONRepository) MakeWatcherCallback(cache SessionCache) func() {
	return func() {
		diskDoc, err := r.Load(context.Background())
		if err != nil {
			r.log.Warnf("watch reload failed: %v", err)
			return
		}

		cacheLastUpdate := cache.LastUpdate()
		diskLastUpdate := diskDoc.Metadata.LastUpdate

		// A deleted file loads as an empty document with LastUpdate 0: that is an external logout.
		fileRemoved := diskLastUpdate == 0 && len(diskDoc.Values) == 0 && cacheLastUpdate != 0
		if !fileRemoved && diskLastUpdate <= cacheLastUpdate {
			r.log.Tracef("disk session is not newer than cache: disk=%d cache=%d", diskLastUpdate, cacheLastUpdate)
			return
		}

		if err := cache.Reload(*diskDoc); err != nil {
			r.log.Errorf("session reload error: %v", err)
			return
		}
		r.log.Info("session reloaded from newer disk version")
	}
}
