package task

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
	internalstrings "github.com/amonks/tasklist/internal/strings"
	"github.com/amonks/tasklist/internal/validation"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Format is an export encoding for a task collection.
type Format string

const (
	// FormatJSON is an indented JSON array, the same shape as storage.
	FormatJSON Format = "json"

	// FormatYAML is a YAML sequence.
	FormatYAML Format = "yaml"

	// FormatTOML is an array of [[tasks]] tables.
	FormatTOML Format = "toml"

	// FormatMsgpack is a MessagePack array.
	FormatMsgpack Format = "msgpack"
)

// ErrUnknownFormat is returned for unsupported export formats.
var ErrUnknownFormat = errors.New("unknown format")

// ValidFormats returns all valid format values.
func ValidFormats() []Format {
	return []Format{FormatJSON, FormatYAML, FormatTOML, FormatMsgpack}
}

// IsValid returns true if the format is a known valid value.
func (f Format) IsValid() bool {
	for _, valid := range ValidFormats() {
		if f == valid {
			return true
		}
	}
	return false
}

// ParseFormat converts user input to a Format. "yml" is accepted for YAML.
func ParseFormat(value string) (Format, error) {
	normalized := Format(internalstrings.NormalizeLowerTrimSpace(value))
	if normalized == "yml" {
		normalized = FormatYAML
	}
	if !normalized.IsValid() {
		return "", validation.FormatInvalidValueError(ErrUnknownFormat, Format(value), ValidFormats())
	}
	return normalized, nil
}

type tomlDocument struct {
	Tasks []Task `toml:"tasks"`
}

// Encode writes tasks to w in the given format.
func Encode(w io.Writer, format Format, tasks []Task) error {
	if tasks == nil {
		tasks = []Task{}
	}

	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(tasks)
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(tasks); err != nil {
			return err
		}
		return encoder.Close()
	case FormatTOML:
		return toml.NewEncoder(w).Encode(tomlDocument{Tasks: tasks})
	case FormatMsgpack:
		return msgpack.NewEncoder(w).Encode(tasks)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Decode reads tasks in the given format from r. Timestamps are converted
// to UTC.
func Decode(r io.Reader, format Format) ([]Task, error) {
	var tasks []Task

	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&tasks); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&tasks); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case FormatTOML:
		var doc tomlDocument
		if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode toml: %w", err)
		}
		tasks = doc.Tasks
	case FormatMsgpack:
		if err := msgpack.NewDecoder(r).Decode(&tasks); err != nil {
			return nil, fmt.Errorf("decode msgpack: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	if tasks == nil {
		tasks = []Task{}
	}
	for i := range tasks {
		tasks[i].CreatedAt = tasks[i].CreatedAt.UTC()
		tasks[i].UpdatedAt = tasks[i].UpdatedAt.UTC()
	}
	return tasks, nil
}
