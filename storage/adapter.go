package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Adapter serializes a slice of T as a JSON array under a single key.
type Adapter[T any] struct {
	kv  KV
	key string
}

// NewAdapter returns an Adapter storing items under key.
func NewAdapter[T any](kv KV, key string) (*Adapter[T], error) {
	if kv == nil {
		return nil, fmt.Errorf("storage adapter requires a KV")
	}
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	return &Adapter[T]{kv: kv, key: key}, nil
}

// Key returns the storage key.
func (a *Adapter[T]) Key() string {
	return a.key
}

// Save replaces the stored collection with items.
func (a *Adapter[T]) Save(items []T) error {
	data, err := a.encode(items)
	if err != nil {
		return err
	}
	if err := a.kv.Set(a.key, data); err != nil {
		return fmt.Errorf("save %s: %w", a.key, err)
	}
	return nil
}

// Load returns the stored collection, or an empty one when nothing is
// stored. A value that does not decode yields an error wrapping ErrCorrupt.
func (a *Adapter[T]) Load() ([]T, error) {
	data, ok, err := a.kv.Get(a.key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", a.key, err)
	}
	return a.decode(data, ok)
}

// Update loads the stored collection, passes it to fn and saves the result,
// holding the key exclusively throughout. If fn returns ErrSkipWrite nothing
// is written. A stored value that does not decode fails with ErrCorrupt
// before fn is called.
func (a *Adapter[T]) Update(fn func(items []T) ([]T, error)) error {
	err := a.kv.Update(a.key, func(data []byte, ok bool) ([]byte, error) {
		items, err := a.decode(data, ok)
		if err != nil {
			return nil, err
		}
		items, err = fn(items)
		if err != nil {
			return nil, err
		}
		return a.encode(items)
	})
	if err != nil {
		return fmt.Errorf("update %s: %w", a.key, err)
	}
	return nil
}

func (a *Adapter[T]) encode(items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", a.key, err)
	}
	return data, nil
}

func (a *Adapter[T]) decode(data []byte, ok bool) ([]T, error) {
	if !ok || len(bytes.TrimSpace(data)) == 0 {
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, a.key, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Backup copies the raw stored value to key+suffix. It does nothing when
// no value is stored.
func (a *Adapter[T]) Backup(suffix string) error {
	backupKey := a.key + suffix
	if err := ValidateKey(backupKey); err != nil {
		return err
	}

	data, ok, err := a.kv.Get(a.key)
	if err != nil {
		return fmt.Errorf("load %s: %w", a.key, err)
	}
	if !ok {
		return nil
	}
	if err := a.kv.Set(backupKey, data); err != nil {
		return fmt.Errorf("back up %s: %w", a.key, err)
	}
	return nil
}
