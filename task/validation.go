package task

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	internalstrings "github.com/amonks/tasklist/internal/strings"
)

var (
	// ErrEmptyText is returned when task text is empty after trimming.
	ErrEmptyText = errors.New("task text cannot be empty")

	// ErrTextTooLong is returned when task text exceeds the length limit.
	ErrTextTooLong = errors.New("task text exceeds maximum length")

	// ErrInvalidFilter is returned when an unknown filter is requested.
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrTaskNotFound is returned when no task matches an ID or prefix.
	ErrTaskNotFound = errors.New("task not found")

	// ErrAmbiguousIDPrefix is returned when an ID prefix matches multiple tasks.
	ErrAmbiguousIDPrefix = errors.New("ambiguous task ID prefix")

	// ErrDuplicateID is returned when two tasks share an ID.
	ErrDuplicateID = errors.New("duplicate task ID")

	// ErrInvalidTask is returned when a stored or imported task is malformed.
	ErrInvalidTask = errors.New("invalid task")

	// ErrPersist wraps failures to write the collection. The in-memory
	// change has already been applied when it is returned.
	ErrPersist = errors.New("persist tasks")
)

// NormalizeText NFC-normalizes and trims task text.
func NormalizeText(raw string) string {
	return strings.TrimSpace(internalstrings.NormalizeNFC(raw))
}

// TextLength counts characters the way the length limit does.
func TextLength(raw string) int {
	return utf8.RuneCountInString(internalstrings.NormalizeNFC(raw))
}

// ValidateText checks raw input against maxLength and returns the
// normalized text. The limit applies to the untrimmed input.
func ValidateText(raw string, maxLength int) (string, error) {
	text := NormalizeText(raw)
	if text == "" {
		return "", ErrEmptyText
	}
	if maxLength > 0 {
		if length := TextLength(raw); length > maxLength {
			return "", fmt.Errorf("%w: %d > %d", ErrTextTooLong, length, maxLength)
		}
	}
	return text, nil
}

// ReasonFor maps a validation error to its Reason.
func ReasonFor(err error) (Reason, bool) {
	switch {
	case errors.Is(err, ErrEmptyText):
		return ReasonEmpty, true
	case errors.Is(err, ErrTextTooLong):
		return ReasonTooLong, true
	default:
		return "", false
	}
}

// ValidateTask checks a task loaded from storage or an import.
// A maxLength of zero disables the length limit.
func ValidateTask(t *Task, maxLength int) error {
	if t.ID == "" {
		return fmt.Errorf("%w: id cannot be empty", ErrInvalidTask)
	}
	if _, err := ValidateText(t.Text, maxLength); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidTask, t.ID, err)
	}
	if t.CreatedAt.IsZero() {
		return fmt.Errorf("%w: %s: createdAt is required", ErrInvalidTask, t.ID)
	}
	if t.UpdatedAt.Before(t.CreatedAt) {
		return fmt.Errorf("%w: %s: updatedAt precedes createdAt", ErrInvalidTask, t.ID)
	}
	return nil
}

// ValidateTasks checks every task and that IDs are distinct.
func ValidateTasks(tasks []Task, maxLength int) error {
	seen := make(map[string]struct{}, len(tasks))
	for i := range tasks {
		if err := ValidateTask(&tasks[i], maxLength); err != nil {
			return err
		}
		if _, ok := seen[tasks[i].ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateID, tasks[i].ID)
		}
		seen[tasks[i].ID] = struct{}{}
	}
	return nil
}
