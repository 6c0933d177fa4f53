package editor

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/amonks/tasklist/task"
)

// TaskData represents the data used to render the TOML template.
type TaskData struct {
	ID        string
	Text      string
	Completed bool
	CreatedAt time.Time
}

// DataFromTask creates TaskData from an existing task for editing.
func DataFromTask(t task.Task) TaskData {
	return TaskData{
		ID:        t.ID,
		Text:      t.Text,
		Completed: t.Completed,
		CreatedAt: t.CreatedAt,
	}
}

var taskTemplate = template.Must(template.New("task").Funcs(template.FuncMap{
	"tomlString": tomlString,
}).Parse(`# task {{ .ID }}, created {{ .CreatedAt.Format "2006-01-02 15:04" }}
text = {{ tomlString .Text }}
completed = {{ .Completed }}
`))

// tomlString quotes s as a TOML basic string. Invalid UTF-8 is replaced
// because TOML documents must be valid UTF-8.
func tomlString(s string) (string, error) {
	var buf bytes.Buffer
	value := map[string]string{"v": strings.ToValidUTF8(s, "\uFFFD")}
	if err := toml.NewEncoder(&buf).Encode(value); err != nil {
		return "", fmt.Errorf("quote text: %w", err)
	}
	return strings.TrimSpace(strings.TrimPrefix(buf.String(), "v = ")), nil
}

// RenderTaskTOML renders the task data as a TOML string for editing.
func RenderTaskTOML(data TaskData) (string, error) {
	var buf bytes.Buffer
	if err := taskTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return buf.String(), nil
}

// ParsedTask represents the parsed result from the TOML editor output.
// Completed is nil when the key was removed.
type ParsedTask struct {
	Text      string `toml:"text"`
	Completed *bool  `toml:"completed"`
}

// ParseTaskTOML parses the TOML content from the editor.
// Text is validated by the store, not here.
func ParseTaskTOML(content string) (*ParsedTask, error) {
	var parsed ParsedTask
	meta, err := toml.Decode(content, &parsed)
	if err != nil {
		return nil, fmt.Errorf("parse TOML: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parse TOML: unknown key %q", undecoded[0].String())
	}
	if !meta.IsDefined("text") {
		return nil, fmt.Errorf("parse TOML: %w", task.ErrEmptyText)
	}
	return &parsed, nil
}

func createTaskTempFile() (*os.File, error) {
	return os.CreateTemp("", "tasks-edit-*.toml")
}

// EditTask opens the editor on t and returns the parsed result.
func EditTask(t task.Task) (*ParsedTask, error) {
	content, err := RenderTaskTOML(DataFromTask(t))
	if err != nil {
		return nil, err
	}

	tmpfile, err := createTaskTempFile()
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpfile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpfile.WriteString(content); err != nil {
		tmpfile.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpfile.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	if err := Edit(tmpPath); err != nil {
		return nil, err
	}

	edited, err := os.ReadFile(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("read edited file: %w", err)
	}
	return ParseTaskTOML(string(edited))
}
