package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// File is a Backend persisted as one JSON object on disk. Writes replace the
// file atomically (temp file + rename), so readers never observe a partial
// document. Separate processes using the same path share state the way
// browser tabs share an origin.
type File struct {
	path string
	mu   sync.Mutex
}

// NewFile returns a File backend at path. The file is created lazily.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the backing file path.
func (f *File) Path() string { return f.path }

// Get implements Backend.
func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

// Set implements Backend.
func (f *File) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.load()
	if err != nil {
		return err
	}
	values[key] = value
	return f.store(values)
}

// Remove implements Backend. The file is not rewritten when key is absent.
func (f *File) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return f.store(values)
}

// Snapshot returns a copy of every stored key and value.
func (f *File) Snapshot() (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load()
}

func (f *File) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrUnavailable, f.path, err)
	}
	values := map[string]string{}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrUnavailable, f.path, err)
	}
	return values, nil
}

func (f *File) store(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("%w: mkdir %s: %w", ErrUnavailable, dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*")
	if err != nil {
		return fmt.Errorf("%w: temp file: %w", ErrUnavailable, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: write %s: %w", ErrUnavailable, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close %s: %w", ErrUnavailable, tmpName, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: replace %s: %w", ErrUnavailable, f.path, err)
	}
	return nil
}

// Watch implements Watcher using fsnotify on the parent directory, since
// atomic replacement swaps the inode a file watch would be bound to. Each
// filesystem event is diffed against the previous snapshot and reported as
// per-key changes.
func (f *File) Watch(ctx context.Context) (<-chan Change, error) {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("%w: mkdir %s: %w", ErrUnavailable, dir, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: watcher: %w", ErrUnavailable, err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("%w: watch %s: %w", ErrUnavailable, dir, err)
	}

	prev, err := f.Snapshot()
	if err != nil {
		prev = map[string]string{}
	}

	out := make(chan Change, watchBuffer)
	name := filepath.Clean(f.path)

	go func() {
		defer close(out)
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != name {
					continue
				}
				next, err := f.Snapshot()
				if err != nil {
					continue
				}
				for _, c := range diff(prev, next) {
					select {
					case out <- c:
					case <-ctx.Done():
						return
					}
				}
				prev = next
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return out, nil
}

func diff(prev, next map[string]string) []Change {
	var out []Change
	for k, v := range next {
		if old, ok := prev[k]; !ok || old != v {
			out = append(out, Change{Key: k, Value: v})
		}
	}
	for k := range prev {
		if _, ok := next[k]; !ok {
			out = append(out, Change{Key: k, Removed: true})
		}
	}
	return out
}
