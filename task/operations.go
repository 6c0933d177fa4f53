package task

import (
	"fmt"
	"slices"

	"github.com/amonks/tasklist/internal/ids"
)

// Add creates a task from raw input and prepends it to the collection.
//
// Empty input fails with ErrEmptyText and input longer than the limit fails
// with ErrTextTooLong; both leave the collection unchanged. When the write
// fails the task is still added and the error wraps ErrPersist.
func (s *Store) Add(raw string) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	text, err := ValidateText(raw, s.maxLength)
	if err != nil {
		return Task{}, s.rejectLocked(err)
	}

	var created Task
	err = s.mutateLocked(func() (bool, error) {
		id, err := s.uniqueIDLocked()
		if err != nil {
			return false, err
		}

		now := s.now().UTC()
		created = Task{
			ID:        id,
			Text:      text,
			Completed: false,
			CreatedAt: now,
			UpdatedAt: now,
		}
		s.tasks = slices.Insert(s.tasks, 0, created)
		return true, nil
	})
	return created, err
}

// Toggle flips the completion state of the task with the given ID.
// An unknown ID is a no-op and reports found=false.
func (s *Store) Toggle(id string) (Task, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		toggled Task
		found   bool
	)
	err := s.mutateLocked(func() (bool, error) {
		index := s.indexLocked(id)
		if index < 0 {
			return false, nil
		}

		t := &s.tasks[index]
		t.Completed = !t.Completed
		t.UpdatedAt = s.timestampLocked(t.UpdatedAt)
		toggled, found = *t, true
		return true, nil
	})
	return toggled, found, err
}

// Edit replaces the text of the task with the given ID.
// An unknown ID is a no-op and reports found=false. Invalid text leaves
// the task unchanged and returns it alongside the validation error.
func (s *Store) Edit(id, text string) (Task, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		edited Task
		found  bool
	)
	err := s.mutateLocked(func() (bool, error) {
		index := s.indexLocked(id)
		if index < 0 {
			return false, nil
		}
		edited, found = s.tasks[index], true

		normalized, err := ValidateText(text, s.maxLength)
		if err != nil {
			return false, s.rejectLocked(err)
		}

		t := &s.tasks[index]
		t.Text = normalized
		t.UpdatedAt = s.timestampLocked(t.UpdatedAt)
		edited = *t
		return true, nil
	})
	return edited, found, err
}

// Delete removes the task with the given ID and returns its text.
// An unknown ID is a no-op and reports found=false.
func (s *Store) Delete(id string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteLocked(id)
}

func (s *Store) deleteLocked(id string) (string, bool, error) {
	var (
		text  string
		found bool
	)
	err := s.mutateLocked(func() (bool, error) {
		index := s.indexLocked(id)
		if index < 0 {
			return false, nil
		}

		text, found = s.tasks[index].Text, true
		s.tasks = slices.Delete(s.tasks, index, index+1)
		if s.pendingDelete == id {
			s.pendingDelete = ""
		}
		return true, nil
	})
	if found {
		s.observer.TaskDeleted(text)
	}
	return text, found, err
}

// RequestDelete marks the task as awaiting deletion, replacing any earlier
// marker. It returns false without changing the marker when id is unknown.
func (s *Store) RequestDelete(id string) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.indexLocked(id)
	if index < 0 {
		return Task{}, false
	}
	s.pendingDelete = id
	return s.tasks[index], true
}

// PendingDelete returns the task awaiting deletion, if any.
func (s *Store) PendingDelete() (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pendingDelete == "" {
		return Task{}, false
	}
	index := s.indexLocked(s.pendingDelete)
	if index < 0 {
		s.pendingDelete = ""
		return Task{}, false
	}
	return s.tasks[index], true
}

// ConfirmDelete deletes the task awaiting deletion and clears the marker.
func (s *Store) ConfirmDelete() (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.pendingDelete
	s.pendingDelete = ""
	if id == "" {
		return "", false, nil
	}
	return s.deleteLocked(id)
}

// CancelDelete clears the pending-deletion marker.
func (s *Store) CancelDelete() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pendingDelete = ""
}

// ClearCompleted removes every completed task with a single write.
func (s *Store) ClearCompleted() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int
	err := s.mutateLocked(func() (bool, error) {
		before := len(s.tasks)
		s.tasks = slices.DeleteFunc(s.tasks, func(t Task) bool { return t.Completed })
		removed = before - len(s.tasks)
		if removed == 0 {
			return false, nil
		}
		if s.pendingDelete != "" && s.indexLocked(s.pendingDelete) < 0 {
			s.pendingDelete = ""
		}
		return true, nil
	})
	return removed, err
}

// Import adds tasks decoded from an export. With replace the collection
// becomes exactly incoming; otherwise tasks with unknown IDs are appended
// after the existing ones. It returns how many tasks were added.
func (s *Store) Import(incoming []Task, replace bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ValidateTasks(incoming, s.maxLength); err != nil {
		return 0, fmt.Errorf("import: %w", err)
	}

	normalized := make([]Task, 0, len(incoming))
	for _, t := range incoming {
		t.Text = NormalizeText(t.Text)
		t.CreatedAt = t.CreatedAt.UTC()
		t.UpdatedAt = t.UpdatedAt.UTC()
		normalized = append(normalized, t)
	}

	added := 0
	err := s.mutateLocked(func() (bool, error) {
		if replace {
			s.tasks = slices.Clone(normalized)
			added = len(normalized)
			if s.pendingDelete != "" && s.indexLocked(s.pendingDelete) < 0 {
				s.pendingDelete = ""
			}
			return true, nil
		}

		for _, t := range normalized {
			if s.indexLocked(t.ID) >= 0 {
				continue
			}
			s.tasks = append(s.tasks, t)
			added++
		}
		return added > 0, nil
	})
	return added, err
}

// SetFilter changes the active filter.
func (s *Store) SetFilter(filter Filter) error {
	if !filter.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidFilter, filter)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.filter = filter
	s.notifyChangedLocked()
	return nil
}

// CurrentFilter returns the active filter.
func (s *Store) CurrentFilter() Filter {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.filter
}

// Filtered returns a snapshot of the tasks matching filter in collection
// order. Callers may modify the returned slice.
func (s *Store) Filtered(filter Filter) []Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.filteredLocked(filter)
}

// Visible returns the tasks matching the active filter.
func (s *Store) Visible() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.filteredLocked(s.filter)
}

// Stats counts tasks over the whole collection.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return StatsOf(s.tasks)
}

// Get returns the task with the given ID.
func (s *Store) Get(id string) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.indexLocked(id)
	if index < 0 {
		return Task{}, false
	}
	return s.tasks[index], true
}

// Resolve returns the full ID for a unique, case-insensitive ID prefix.
func (s *Store) Resolve(prefix string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	taskIDs := make([]string, 0, len(s.tasks))
	for _, t := range s.tasks {
		taskIDs = append(taskIDs, t.ID)
	}

	match, found, ambiguous := ids.MatchPrefix(taskIDs, prefix)
	if !found {
		return "", fmt.Errorf("%w: %s", ErrTaskNotFound, prefix)
	}
	if ambiguous {
		return "", fmt.Errorf("%w: %s", ErrAmbiguousIDPrefix, prefix)
	}
	return match, nil
}

// PrefixLengths returns the shortest unique prefix length for each ID,
// keyed by lowercased ID.
func (s *Store) PrefixLengths() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	taskIDs := make([]string, 0, len(s.tasks))
	for _, t := range s.tasks {
		taskIDs = append(taskIDs, t.ID)
	}
	return ids.UniquePrefixLengths(taskIDs)
}
