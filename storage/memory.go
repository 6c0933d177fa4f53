package storage

import (
	"bytes"
	"errors"
	"sync"
)

// MemoryKV is an in-memory KV.
type MemoryKV struct {
	mu     sync.Mutex
	values map[string][]byte

	// FailWrites makes Set and Delete return the given error when non-nil.
	FailWrites error
}

// NewMemoryKV returns an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string][]byte)}
}

// Get implements KV.
func (m *MemoryKV) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	value, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(value), true, nil
}

// Set implements KV.
func (m *MemoryKV) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.values[key] = bytes.Clone(value)
	return nil
}

// Update implements KV. fn must not call back into m.
func (m *MemoryKV) Update(key string, fn func([]byte, bool) ([]byte, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.values[key]
	value, err := fn(bytes.Clone(current), ok)
	if errors.Is(err, ErrSkipWrite) {
		return nil
	}
	if err != nil {
		return err
	}
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.values[key] = bytes.Clone(value)
	return nil
}

// Delete implements KV.
func (m *MemoryKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites != nil {
		return m.FailWrites
	}
	delete(m.values, key)
	return nil
}

// Close implements KV.
func (m *MemoryKV) Close() error {
	return nil
}
