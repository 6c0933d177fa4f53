// Package task implements the state manager for a single-user task list.
//
// A Store owns an ordered collection of tasks (newest first), the active
// filter, and a pending-deletion marker. Every mutation is written through
// a Persister before the call returns, and presentation layers learn about
// changes through an Observer.
//
// The public API mirrors what a task list UI needs:
//   - Add, Toggle, Edit, Delete, ClearCompleted, Import for mutations
//   - Filtered, Visible, Stats, Get, Resolve for queries
//   - SetFilter, CurrentFilter for the view selector
//   - RequestDelete, PendingDelete, ConfirmDelete, CancelDelete for the
//     two-step delete confirmation
package task

import (
	"fmt"

	internalstrings "github.com/amonks/tasklist/internal/strings"
	"github.com/amonks/tasklist/internal/validation"
)

// MaxTextLength is the default maximum number of characters in a task.
const MaxTextLength = 200

// DefaultStorageKey is the key the task collection is stored under.
const DefaultStorageKey = "todo_list_tasks"

// Filter selects which tasks are visible.
type Filter string

const (
	// FilterAll shows every task.
	FilterAll Filter = "all"

	// FilterPending shows tasks that are not completed.
	FilterPending Filter = "pending"

	// FilterCompleted shows completed tasks.
	FilterCompleted Filter = "completed"
)

// ValidFilters returns all valid filter values.
func ValidFilters() []Filter {
	return []Filter{FilterAll, FilterPending, FilterCompleted}
}

// IsValid returns true if the filter is a known valid value.
func (f Filter) IsValid() bool {
	for _, valid := range ValidFilters() {
		if f == valid {
			return true
		}
	}
	return false
}

// Matches reports whether t is visible under f.
func (f Filter) Matches(t Task) bool {
	switch f {
	case FilterPending:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	default:
		return true
	}
}

// ParseFilter converts user input to a Filter. Empty input means FilterAll.
func ParseFilter(value string) (Filter, error) {
	normalized := Filter(internalstrings.NormalizeLowerTrimSpace(value))
	if normalized == "" {
		return FilterAll, nil
	}
	if !normalized.IsValid() {
		return "", validation.FormatInvalidValueError(ErrInvalidFilter, Filter(value), ValidFilters())
	}
	return normalized, nil
}

// Reason identifies why a validation failed.
type Reason string

const (
	// ReasonEmpty means the trimmed text was empty.
	ReasonEmpty Reason = "empty"

	// ReasonTooLong means the text exceeded the length limit.
	ReasonTooLong Reason = "too_long"
)

// Stats counts tasks over the whole collection, ignoring the filter.
type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
}

// StatsOf computes Stats for tasks.
func StatsOf(tasks []Task) Stats {
	stats := Stats{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			stats.Completed++
		} else {
			stats.Pending++
		}
	}
	return stats
}

// Message returns the user-facing text for a validation failure.
func (r Reason) Message(maxLength int) string {
	switch r {
	case ReasonEmpty:
		return "Task text cannot be empty"
	case ReasonTooLong:
		return fmt.Sprintf("Task text cannot be longer than %d characters", maxLength)
	default:
		return string(r)
	}
}

// EmptyMessage describes an empty list under f.
func (f Filter) EmptyMessage() string {
	switch f {
	case FilterPending:
		return "No pending tasks"
	case FilterCompleted:
		return "No completed tasks"
	default:
		return "No tasks yet"
	}
}
