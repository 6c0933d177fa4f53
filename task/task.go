package task

import "time"

// Task is a single to-do item.
type Task struct {
	// ID is a unique identifier assigned at creation (8-char base32).
	ID string `json:"id" yaml:"id" toml:"id" msgpack:"id"`

	// Text is the trimmed task description (max 200 chars by default).
	Text string `json:"text" yaml:"text" toml:"text" msgpack:"text"`

	// Completed is true once the task has been checked off.
	Completed bool `json:"completed" yaml:"completed" toml:"completed" msgpack:"completed"`

	// CreatedAt is when the task was created.
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt" toml:"createdAt" msgpack:"createdAt"`

	// UpdatedAt is when the task was last toggled or edited.
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt" toml:"updatedAt" msgpack:"updatedAt"`
}
