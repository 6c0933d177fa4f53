package task

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/amonks/tasklist/internal/ids"
	"github.com/amonks/tasklist/storage"
)

const maxIDAttempts = 16

// CorruptSuffix is appended to the storage key when a corrupt value is
// backed up before resetting.
const CorruptSuffix = ".corrupt"

// Persister loads and saves the whole task collection.
// *storage.Adapter[Task] implements it.
type Persister interface {
	Load() ([]Task, error)
	Save(tasks []Task) error
}

// Updater is implemented by persisters that can reload and rewrite the
// collection as one step that other processes cannot interleave with.
// *storage.Adapter[Task] implements it.
type Updater interface {
	Update(fn func(stored []Task) ([]Task, error)) error
}

// Backuper is implemented by persisters that can preserve a raw stored
// value before it is overwritten.
type Backuper interface {
	Backup(suffix string) error
}

// Options configures a Store.
type Options struct {
	// Observer receives change notifications. Defaults to NopObserver.
	Observer Observer

	// MaxTextLength limits task text. Defaults to MaxTextLength.
	MaxTextLength int

	// ResetCorrupt starts with an empty collection when the stored data
	// cannot be decoded, instead of failing. The raw value is backed up
	// first when the persister implements Backuper.
	ResetCorrupt bool

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// NewID returns a candidate task ID. Defaults to a random 8-char ID.
	NewID func() string
}

// Store is the single source of truth for a task list.
type Store struct {
	persister Persister
	observer  Observer
	maxLength int
	now       func() time.Time
	newID     func() string

	mu            sync.Mutex
	tasks         []Task
	filter        Filter
	pendingDelete string

	// unsaved is set while the in-memory collection holds changes the
	// persister has not accepted. Stored data is not reloaded over them.
	unsaved bool
}

// NewPersister returns the standard JSON persister for a KV.
func NewPersister(kv storage.KV, key string) (*storage.Adapter[Task], error) {
	if key == "" {
		key = DefaultStorageKey
	}
	return storage.NewAdapter[Task](kv, key)
}

// Open loads the collection from persister and returns a Store.
//
// Stored data that does not decode, has duplicate IDs, or holds invalid
// tasks is reported as storage.ErrCorrupt unless opts.ResetCorrupt is set.
func Open(persister Persister, opts Options) (*Store, error) {
	if persister == nil {
		return nil, fmt.Errorf("task store requires a persister")
	}

	s := &Store{
		persister: persister,
		observer:  opts.Observer,
		maxLength: opts.MaxTextLength,
		now:       opts.Now,
		newID:     opts.NewID,
		filter:    FilterAll,
	}
	if s.observer == nil {
		s.observer = NopObserver{}
	}
	if s.maxLength <= 0 {
		s.maxLength = MaxTextLength
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = func() string { return ids.New(ids.DefaultLength) }
	}

	tasks, err := persister.Load()
	if err == nil {
		if verr := ValidateTasks(tasks, 0); verr != nil {
			err = fmt.Errorf("%w: %w", storage.ErrCorrupt, verr)
		}
	}
	if err != nil {
		if !opts.ResetCorrupt || !errors.Is(err, storage.ErrCorrupt) {
			return nil, fmt.Errorf("load tasks: %w", err)
		}
		if backuper, ok := persister.(Backuper); ok {
			if berr := backuper.Backup(CorruptSuffix); berr != nil {
				return nil, fmt.Errorf("back up corrupt tasks: %w", berr)
			}
		}
		s.observer.PersistFailed(err)
		tasks = nil
		s.unsaved = true
	}

	s.replaceLocked(tasks)
	return s, nil
}

// Reload replaces the in-memory collection with the stored one, picking up
// writes made by other processes. Stored data that fails to load or
// validate is returned as an error and the collection is left as is.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unsaved {
		return nil
	}
	tasks, err := s.persister.Load()
	if err == nil {
		if verr := ValidateTasks(tasks, 0); verr != nil {
			err = fmt.Errorf("%w: %w", storage.ErrCorrupt, verr)
		}
	}
	if err != nil {
		return fmt.Errorf("reload tasks: %w", err)
	}
	s.replaceLocked(tasks)
	return nil
}

func (s *Store) replaceLocked(tasks []Task) {
	s.tasks = make([]Task, 0, len(tasks))
	for _, t := range tasks {
		t.CreatedAt = t.CreatedAt.UTC()
		t.UpdatedAt = t.UpdatedAt.UTC()
		s.tasks = append(s.tasks, t)
	}
}

// SetObserver replaces the observer. A nil observer discards notifications.
func (s *Store) SetObserver(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o == nil {
		o = NopObserver{}
	}
	s.observer = o
}

// MaxLength returns the text length limit in effect.
func (s *Store) MaxLength() int {
	return s.maxLength
}

func (s *Store) indexLocked(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) uniqueIDLocked() (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := s.newID()
		if id != "" && s.indexLocked(id) < 0 {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: no unique id after %d attempts", ErrDuplicateID, maxIDAttempts)
}

// timestampLocked returns the current UTC time, strictly after prev.
func (s *Store) timestampLocked(prev time.Time) time.Time {
	now := s.now().UTC()
	if !now.After(prev) {
		now = prev.Add(time.Millisecond)
	}
	return now
}

func (s *Store) filteredLocked(filter Filter) []Task {
	filtered := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if filter.Matches(t) {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// mutateLocked runs apply against the latest stored collection and writes
// the result while the persister holds the key, so concurrent writers
// sharing the storage do not lose each other's changes. apply edits
// s.tasks and reports whether anything changed; nothing is written when it
// did not or when it returns an error.
//
// When the stored collection cannot be read, or earlier changes are still
// unsaved, apply runs against the in-memory collection and the whole
// collection is saved. A write failure is reported but does not undo the
// change.
func (s *Store) mutateLocked(apply func() (bool, error)) error {
	var (
		applied  bool
		changed  bool
		applyErr error
		saveErr  error
	)

	if updater, ok := s.persister.(Updater); ok && !s.unsaved {
		saveErr = updater.Update(func(stored []Task) ([]Task, error) {
			if err := ValidateTasks(stored, 0); err != nil {
				return nil, fmt.Errorf("%w: %w", storage.ErrCorrupt, err)
			}
			s.replaceLocked(stored)
			applied = true
			changed, applyErr = apply()
			if applyErr != nil || !changed {
				return nil, storage.ErrSkipWrite
			}
			return slices.Clone(s.tasks), nil
		})
	}
	if !applied {
		changed, applyErr = apply()
		if applyErr == nil && changed && saveErr == nil {
			saveErr = s.persister.Save(slices.Clone(s.tasks))
		}
	}

	if applyErr != nil {
		return applyErr
	}
	if !changed {
		return nil
	}

	var perr error
	if saveErr != nil {
		perr = fmt.Errorf("%w: %w", ErrPersist, saveErr)
		s.observer.PersistFailed(perr)
	}
	s.unsaved = saveErr != nil
	s.notifyChangedLocked()
	return perr
}

func (s *Store) notifyChangedLocked() {
	s.observer.TasksChanged(s.filteredLocked(s.filter), StatsOf(s.tasks))
}

func (s *Store) rejectLocked(err error) error {
	if reason, ok := ReasonFor(err); ok {
		s.observer.ValidationFailed(reason)
	}
	return err
}
