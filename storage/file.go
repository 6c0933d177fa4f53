package storage

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/amonks/tasklist/internal/paths"
	"github.com/gofrs/flock"
)

// FileKV stores each key as a file named after the key inside dir.
type FileKV struct {
	dir string
}

// NewFileKV returns a FileKV rooted at dir.
// An empty dir selects the default state directory.
func NewFileKV(dir string) (*FileKV, error) {
	if dir == "" {
		defaultDir, err := paths.DefaultStateDir()
		if err != nil {
			return nil, err
		}
		dir = defaultDir
	}
	return &FileKV{dir: dir}, nil
}

// Dir returns the directory holding the key files.
func (f *FileKV) Dir() string {
	return f.dir
}

func (f *FileKV) valuePath(key string) string {
	return filepath.Join(f.dir, key+".json")
}

func (f *FileKV) lockPath(key string) string {
	return filepath.Join(f.dir, key+".lock")
}

// Get implements KV.
func (f *FileKV) Get(key string) ([]byte, bool, error) {
	if err := ValidateKey(key); err != nil {
		return nil, false, err
	}

	var (
		data  []byte
		found bool
	)
	err := f.withLock(key, true, func() error {
		var err error
		data, err = os.ReadFile(f.valuePath(key))
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", key, err)
		}
		found = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return data, found, nil
}

// Set implements KV. The value is written to a temp file and renamed into
// place so readers never observe a partial write.
func (f *FileKV) Set(key string, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	return f.withLock(key, false, func() error {
		return f.writeLocked(key, value)
	})
}

// Update implements KV. The lock is held from the read through the rename,
// so concurrent processes sharing dir apply their updates one at a time.
func (f *FileKV) Update(key string, fn func([]byte, bool) ([]byte, error)) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	return f.withLock(key, false, func() error {
		data, err := os.ReadFile(f.valuePath(key))
		found := err == nil
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("read %s: %w", key, err)
		}

		value, err := fn(data, found)
		if errors.Is(err, ErrSkipWrite) {
			return nil
		}
		if err != nil {
			return err
		}
		return f.writeLocked(key, value)
	})
}

func (f *FileKV) writeLocked(key string, value []byte) error {
	path := f.valuePath(key)
	if existing, err := os.ReadFile(path); err == nil {
		if bytes.Equal(existing, value) {
			return nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read %s: %w", key, err)
	}

	tmpFile, err := os.CreateTemp(f.dir, filepath.Base(path)+".tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	name := tmpFile.Name()
	_, err = tmpFile.Write(value)
	if err1 := tmpFile.Close(); err1 != nil && err == nil {
		err = err1
	}
	if err != nil {
		os.Remove(name)
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return fmt.Errorf("rename %s: %w", key, err)
	}
	return nil
}

// Delete implements KV.
func (f *FileKV) Delete(key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	return f.withLock(key, false, func() error {
		err := os.Remove(f.valuePath(key))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", key, err)
		}
		return nil
	})
}

// Close implements KV.
func (f *FileKV) Close() error {
	return nil
}

// withLock runs fn while holding the lock file for key.
// Shared locks are used for reads and exclusive locks for writes.
func (f *FileKV) withLock(key string, shared bool, fn func() error) error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	lock := flock.New(f.lockPath(key))
	var err error
	if shared {
		err = lock.RLock()
	} else {
		err = lock.Lock()
	}
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer lock.Unlock()

	return fn()
}
