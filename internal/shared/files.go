package shared

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// AtomicWriter writes to a temporary file in the target's directory and renames it over the target on [AtomicWriter.Commit].
//
// Readers never observe a partially written file.
type AtomicWriter struct {
	path    string
	tmpPath string
	file    *os.File
	perm    os.FileMode
}

// NewAtomicWriter creates the target directory if needed and opens a temporary file beside path.
func NewAtomicWriter(path string, perm os.FileMode) (*AtomicWriter, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".spotsync-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	return &AtomicWriter{path: path, tmpPath: tmp.Name(), file: tmp, perm: perm}, nil
}

// Write implements [io.Writer].
func (w *AtomicWriter) Write(p []byte) (int, error) {
	return w.file.Write(p)
}

// Commit flushes the temporary file to disk and renames it over the target.
func (w *AtomicWriter) Commit() error {
	if err := w.file.Sync(); err != nil {
		w.Abort()
		return fmt.Errorf("failed to sync: %w", err)
	}
	if err := w.file.Chmod(w.perm); err != nil {
		w.Abort()
		return fmt.Errorf("failed to chmod: %w", err)
	}
	if err := w.file.Close(); err != nil {
		os.Remove(w.tmpPath)
		return fmt.Errorf("failed to close: %w", err)
	}
	if err := os.Rename(w.tmpPath, w.path); err != nil {
		os.Remove(w.tmpPath)
		return fmt.Errorf("failed to rename: %w", err)
	}
	return nil
}

// Abort discards the temporary file.
func (w *AtomicWriter) Abort() error {
	w.file.Close()
	return os.Remove(w.tmpPath)
}

// WriteFileAtomic is [os.WriteFile] through an [AtomicWriter].
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	w, err := NewAtomicWriter(path, perm)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		w.Abort()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return w.Commit()
}

// FileLock is an advisory cross-process lock backed by a lock file.
type FileLock struct {
	lock *flock.Flock
}

// NewFileLock creates the lock's parent directory and returns an unlocked [FileLock].
func NewFileLock(path string) (*FileLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	return &FileLock{lock: flock.New(path)}, nil
}

// TryLock takes the lock without waiting, returning [ErrLocked] if another process holds it.
func (l *FileLock) TryLock() error {
	ok, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", l.lock.Path(), err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrLocked, l.lock.Path())
	}
	return nil
}

// Lock waits until the lock is acquired or ctx is done.
func (l *FileLock) Lock(ctx context.Context) error {
	ok, err := l.lock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", l.lock.Path(), err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrLocked, l.lock.Path())
	}
	return nil
}

// Unlock releases the lock.
func (l *FileLock) Unlock() error {
	return l.lock.Unlock()
}

// Path returns the lock file path.
func (l *FileLock) Path() string {
	return l.lock.Path()
}
