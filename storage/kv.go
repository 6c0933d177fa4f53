package storage

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	internalstrings "github.com/amonks/tasklist/internal/strings"
)

// KV is a durable string-keyed byte store.
type KV interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(key string) (value []byte, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error

	// Update calls fn with the current value while holding key
	// exclusively, then stores what fn returns. ok is false when the key
	// is absent. When fn returns ErrSkipWrite the value is left as is and
	// Update returns nil; any other error from fn is returned unchanged.
	Update(key string, fn func(value []byte, ok bool) ([]byte, error)) error

	// Close releases any resources held by the store.
	Close() error
}

// Backend names a KV implementation.
type Backend string

const (
	// BackendFile stores each key in its own file.
	BackendFile Backend = "file"

	// BackendSQLite stores keys in a SQLite database.
	BackendSQLite Backend = "sqlite"

	// BackendMemory keeps keys in memory only.
	BackendMemory Backend = "memory"
)

// ValidBackends returns all valid backend values.
func ValidBackends() []Backend {
	return []Backend{BackendFile, BackendSQLite, BackendMemory}
}

// IsValid returns true if the backend is a known value.
func (b Backend) IsValid() bool {
	for _, valid := range ValidBackends() {
		if b == valid {
			return true
		}
	}
	return false
}

var (
	// ErrInvalidKey is returned for keys that cannot be stored safely.
	ErrInvalidKey = errors.New("invalid storage key")

	// ErrInvalidBackend is returned when an unknown backend is requested.
	ErrInvalidBackend = errors.New("invalid storage backend")

	// ErrCorrupt is returned when a stored value cannot be decoded.
	ErrCorrupt = errors.New("stored data is corrupt")

	// ErrSkipWrite is returned by an Update callback that has nothing to write.
	ErrSkipWrite = errors.New("skip write")
)

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateKey checks that key is usable by every backend.
func ValidateKey(key string) error {
	if !keyPattern.MatchString(key) || strings.Contains(key, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// OpenOptions selects and configures a backend.
type OpenOptions struct {
	// Backend defaults to BackendFile.
	Backend Backend

	// Path is the directory for BackendFile or the database file for
	// BackendSQLite. Ignored for BackendMemory.
	Path string
}

// Open returns the KV described by opts.
func Open(opts OpenOptions) (KV, error) {
	backend := Backend(internalstrings.NormalizeLowerTrimSpace(string(opts.Backend)))
	if backend == "" {
		backend = BackendFile
	}

	switch backend {
	case BackendFile:
		return NewFileKV(opts.Path)
	case BackendSQLite:
		return OpenSQLiteKV(opts.Path)
	case BackendMemory:
		return NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidBackend, opts.Backend)
	}
}
