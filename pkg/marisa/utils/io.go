package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// AtomicFile writes to a temporary file next to path and renames it into
// place on Commit, so readers never observe a partial dictionary.
type AtomicFile struct {
	path     string
	tempPath string
	file     *os.File
	mu       sync.Mutex
}

// NewAtomicFile creates the temporary file, and the directory of path if it
// does not exist.
func NewAtomicFile(path string) (*AtomicFile, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	file, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	return &AtomicFile{
		path:     path,
		tempPath: file.Name(),
		file:     file,
	}, nil
}

func (af *AtomicFile) Write(p []byte) (int, error) {
	af.mu.Lock()
	defer af.mu.Unlock()

	if af.file == nil {
		return 0, os.ErrClosed
	}
	return af.file.Write(p)
}

// Commit syncs the temporary file, renames it over the final path and syncs
// the directory.
func (af *AtomicFile) Commit() error {
	af.mu.Lock()
	defer af.mu.Unlock()

	if af.file == nil {
		return os.ErrClosed
	}
	if err := af.file.Sync(); err != nil {
		return fmt.Errorf("sync file: %w", err)
	}
	if err := af.file.Close(); err != nil {
		return fmt.Errorf("close file: %w", err)
	}
	af.file = nil

	if err := os.Chmod(af.tempPath, 0644); err != nil {
		return fmt.Errorf("chmod file: %w", err)
	}
	if err := os.Rename(af.tempPath, af.path); err != nil {
		return fmt.Errorf("rename file: %w", err)
	}
	if err := SyncDir(filepath.Dir(af.path)); err != nil {
		return fmt.Errorf("sync directory: %w", err)
	}
	return nil
}

// Abort removes the temporary file.
func (af *AtomicFile) Abort() error {
	af.mu.Lock()
	defer af.mu.Unlock()

	if af.file != nil {
		af.file.Close()
		af.file = nil
	}
	return os.Remove(af.tempPath)
}

// Close discards the temporary file unless Commit already succeeded.
func (af *AtomicFile) Close() error {
	af.mu.Lock()
	defer af.mu.Unlock()

	if af.file != nil {
		af.file.Close()
		af.file = nil
		os.Remove(af.tempPath)
	}
	return nil
}

// WriteFileAtomic writes the output of fn to path atomically.
func WriteFileAtomic(path string, fn func(io.Writer) error) error {
	af, err := NewAtomicFile(path)
	if err != nil {
		return err
	}
	defer af.Close()
	if err := fn(af); err != nil {
		return err
	}
	return af.Commit()
}

// SyncDir syncs a directory so that a rename inside it is durable.
func SyncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()

	return d.Sync()
}

// FileExists reports whether path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
