package persistence

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	log "github.com/go-pkgz/lgr"
	"github.com/gofrs/flock"
)

const slotExt = ".json"

var validKey = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Files implements slots as one file per key under a directory.
// Writes go to a temp file renamed over the target, all operations hold a lock file.
type Files struct {
	dir  string
	mu   sync.Mutex // flock state is per handle, serialize goroutines before touching it
	lock *flock.Flock
}

// NewFiles makes the directory if needed
func NewFiles(dir string) (*Files, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create slots directory %s: %w", dir, err)
	}
	return &Files{dir: dir, lock: flock.New(filepath.Join(dir, ".lock"))}, nil
}

// Get returns the slot content, ok is false if the file does not exist
func (f *Files) Get(_ context.Context, key string) (string, bool, error) {
	path, err := f.path(key)
	if err != nil {
		return "", false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.lock.RLock(); err != nil {
		return "", false, fmt.Errorf("failed to lock %s: %w", f.dir, err)
	}
	defer f.unlock()

	data, err := os.ReadFile(path) // nolint gosec
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read slot %s: %w", key, err)
	}
	return string(data), true, nil
}

// Set replaces the slot file atomically
func (f *Files) Set(_ context.Context, key, value string) error {
	path, err := f.path(key)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock %s: %w", f.dir, err)
	}
	defer f.unlock()

	tmp, err := os.CreateTemp(f.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", key, err)
	}
	defer os.Remove(tmp.Name()) // no-op after successful rename

	if _, err := tmp.WriteString(value); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write slot %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close slot %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace slot %s: %w", key, err)
	}
	return nil
}

// Delete removes the slot file, a missing file is not an error
func (f *Files) Delete(_ context.Context, key string) error {
	path, err := f.path(key)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock %s: %w", f.dir, err)
	}
	defer f.unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete slot %s: %w", key, err)
	}
	return nil
}

// Keys lists present slot keys in key order
func (f *Files) Keys(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", f.dir, err)
	}
	keys := []string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), slotExt) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(e.Name(), slotExt))
	}
	sort.Strings(keys)
	return keys, nil
}

// Close releases the lock file handle
func (f *Files) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lock.Close()
}

func (f *Files) path(key string) (string, error) {
	if !validKey.MatchString(key) || strings.Trim(key, ".") == "" {
		return "", fmt.Errorf("invalid slot key %q", key)
	}
	return filepath.Join(f.dir, key+slotExt), nil
}

func (f *Files) unlock() {
	if err := f.lock.Unlock(); err != nil {
		log.Printf("[WARN] failed to unlock %s: %v", f.dir, err)
	}
}
