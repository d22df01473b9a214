// Package atomic replaces files in a single rename so readers never observe
// a partially written file.
package atomic

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Writer replaces the content of a file.
type Writer interface {
	WriteAtomic(payload []byte) error
}

type fileWriter struct {
	path string
	mu   *sync.Mutex
}

var (
	fileLocksMu sync.Mutex
	fileLocks   = map[string]*sync.Mutex{}
)

// NewFileWriter creates a Writer for path. Writers for the same path share
// a lock.
func NewFileWriter(path string) Writer {
	if path == "" {
		return nil
	}
	return &fileWriter{
		path: path,
		mu:   fileLock(path),
	}
}

// WriteAtomic writes payload to a temporary file next to the destination,
// syncs it and renames it over the destination.
func (w *fileWriter) WriteAtomic(payload []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	file, err := os.CreateTemp(dir, "."+filepath.Base(w.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := file.Name()
	if _, err := file.Write(payload); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, w.path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := syncDir(dir); err != nil {
		log.WithError(err).Warn("error syncing output directory")
	}
	return nil
}

func syncDir(path string) error {
	dir, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = dir.Close()
	}()
	if err := dir.Sync(); err != nil {
		return fmt.Errorf("sync dir: %w", err)
	}
	return nil
}

func fileLock(path string) *sync.Mutex {
	fileLocksMu.Lock()
	defer fileLocksMu.Unlock()
	if lock, ok := fileLocks[path]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	fileLocks[path] = lock
	return lock
}
