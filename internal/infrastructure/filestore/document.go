package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const lockPoll = 25 * time.Millisecond

// Document is a whole-file JSON document with single-writer read-modify-write cycles.
// Writers in one process serialize on a mutex; across processes on <path>.lock.
type Document[T any] struct {
	path  string
	init  func() T
	mu    sync.Mutex
	stale time.Duration
}

// NewDocument binds a document to path; init supplies the value used when the file does not exist yet.
func NewDocument[T any](path string, init func() T) *Document[T] {
	return &Document[T]{path: path, init: init, stale: 10 * time.Minute}
}

// Path returns the file backing the document.
func (d *Document[T]) Path() string {
	return d.path
}

// Read loads the current value without taking the write lock.
func (d *Document[T]) Read(ctx context.Context) (T, error) {
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}
	return d.load()
}

// Update runs fn on the freshly read value and persists the result atomically.
// When fn returns an error nothing is written and the error is returned unchanged.
func (d *Document[T]) Update(ctx context.Context, fn func(*T) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	unlock, err := d.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	value, err := d.load()
	if err != nil {
		return err
	}
	if err := fn(&value); err != nil {
		return err
	}
	return d.write(value)
}

// Replace persists value wholesale, under the same lock discipline as Update.
func (d *Document[T]) Replace(ctx context.Context, value T) error {
	return d.Update(ctx, func(current *T) error {
		*current = value
		return nil
	})
}

func (d *Document[T]) load() (T, error) {
	raw, err := os.ReadFile(d.path)
	if errors.Is(err, os.ErrNotExist) {
		return d.init(), nil
	}
	if err != nil {
		var zero T
		return zero, fmt.Errorf("read %s: %w", d.path, err)
	}

	value := d.init()
	if err := json.Unmarshal(raw, &value); err != nil {
		var zero T
		return zero, fmt.Errorf("decode %s: %w", d.path, err)
	}
	return value, nil
}

func (d *Document[T]) write(value T) error {
	raw, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", d.path, err)
	}
	return WriteAtomic(d.path, append(raw, '\n'))
}

func (d *Document[T]) lock(ctx context.Context) (func(), error) {
	lockPath := d.path + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create dir for %s: %w", lockPath, err)
	}

	for {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			_ = f.Close()
			return func() { _ = os.Remove(lockPath) }, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("acquire %s: %w", lockPath, err)
		}

		// a lock left behind by a crashed run is broken after the stale window
		if info, statErr := os.Stat(lockPath); statErr == nil && time.Since(info.ModTime()) > d.stale {
			_ = os.Remove(lockPath)
			continue
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire %s: %w", lockPath, ctx.Err())
		case <-time.After(lockPoll):
		}
	}
}

// WriteAtomic writes data to a temp file next to path, syncs it and renames it over path.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}

	tmp, err := writeTemp(dir, filepath.Base(path), data)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}

// WriteExclusive atomically creates path with data and fails with os.ErrExist if it is already there.
func WriteExclusive(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}

	tmp, err := writeTemp(dir, filepath.Base(path), data)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)

	if err := os.Link(tmp, path); err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	return nil
}

func writeTemp(dir, base string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp for %s: %w", base, err)
	}
	name := f.Name()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return "", fmt.Errorf("write temp for %s: %w", base, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return "", fmt.Errorf("sync temp for %s: %w", base, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("close temp for %s: %w", base, err)
	}
	return name, nil
}
