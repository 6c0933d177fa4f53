// Package config handles loading tasks.toml configuration files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/amonks/tasklist/internal/paths"
	"github.com/amonks/tasklist/internal/validation"
	"github.com/amonks/tasklist/storage"
)

// ProjectFileName is the per-directory config file.
const ProjectFileName = "tasks.toml"

// DefaultAddr is the web listen address when none is configured.
const DefaultAddr = "127.0.0.1:8080"

// DefaultStorageKey matches the key the task store uses when none is configured.
const DefaultStorageKey = "todo_list_tasks"

// DefaultMaxLength is the task length limit when none is configured.
const DefaultMaxLength = 200

// OnCorrupt selects what happens when stored data cannot be decoded.
type OnCorrupt string

const (
	// OnCorruptFail refuses to open the store.
	OnCorruptFail OnCorrupt = "fail"

	// OnCorruptReset backs up the bad value and starts empty.
	OnCorruptReset OnCorrupt = "reset"
)

// ErrInvalidConfig is returned when a config value is not recognized.
var ErrInvalidConfig = errors.New("invalid config")

// Config represents the tasks.toml configuration file.
type Config struct {
	Storage Storage `toml:"storage"`
	Tasks   Tasks   `toml:"tasks"`
	Web     Web     `toml:"web"`
}

// Storage configures where tasks are persisted.
type Storage struct {
	// Backend is one of file, sqlite, or memory. Defaults to file.
	Backend string `toml:"backend"`

	// Path is the state directory (file) or database path (sqlite).
	Path string `toml:"path"`

	// Key is the storage key for the task collection.
	Key string `toml:"key"`

	// OnCorrupt is fail or reset.
	OnCorrupt string `toml:"on-corrupt"`
}

// Tasks configures task validation.
type Tasks struct {
	MaxLength int `toml:"max-length"`
}

// Web configures the web presentation.
type Web struct {
	Addr string `toml:"addr"`
}

// Load loads configuration from dir and the global config file.
// Returns an empty config if no config files exist.
func Load(dir string) (*Config, error) {
	globalPath, err := paths.DefaultConfigPath()
	if err != nil {
		return nil, err
	}

	globalCfg, globalMeta, err := loadConfigFile(globalPath)
	if err != nil {
		return nil, err
	}

	projectCfg, projectMeta, err := loadConfigFile(filepath.Join(dir, ProjectFileName))
	if err != nil {
		return nil, err
	}

	merged := mergeConfigs(globalCfg, projectCfg, globalMeta, projectMeta)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}

// LoadFile loads a single config file with no merging.
// Unlike Load, a missing file is an error.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	cfg, meta, err := loadConfigFile(path)
	if err != nil {
		return nil, err
	}
	merged := mergeConfigs(&Config{}, cfg, toml.MetaData{}, meta)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}

func loadConfigFile(path string) (*Config, toml.MetaData, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, toml.MetaData{}, nil
	}
	if err != nil {
		return nil, toml.MetaData{}, fmt.Errorf("read config file %s: %w", path, err)
	}

	var cfg Config
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, toml.MetaData{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, toml.MetaData{}, fmt.Errorf("%w: %s: unknown key %q", ErrInvalidConfig, path, undecoded[0].String())
	}

	return &cfg, meta, nil
}

func mergeConfigs(globalCfg, projectCfg *Config, globalMeta, projectMeta toml.MetaData) *Config {
	if globalCfg == nil {
		globalCfg = &Config{}
	}
	if projectCfg == nil {
		projectCfg = &Config{}
	}

	merged := Config{}
	merged.Storage.Backend = mergeString(projectMeta.IsDefined("storage", "backend"), projectCfg.Storage.Backend, globalCfg.Storage.Backend)
	merged.Storage.Path = mergeString(projectMeta.IsDefined("storage", "path"), projectCfg.Storage.Path, globalCfg.Storage.Path)
	merged.Storage.Key = mergeString(projectMeta.IsDefined("storage", "key"), projectCfg.Storage.Key, globalCfg.Storage.Key)
	merged.Storage.OnCorrupt = mergeString(projectMeta.IsDefined("storage", "on-corrupt"), projectCfg.Storage.OnCorrupt, globalCfg.Storage.OnCorrupt)
	merged.Web.Addr = mergeString(projectMeta.IsDefined("web", "addr"), projectCfg.Web.Addr, globalCfg.Web.Addr)
	if projectMeta.IsDefined("tasks", "max-length") {
		merged.Tasks.MaxLength = projectCfg.Tasks.MaxLength
	} else if globalMeta.IsDefined("tasks", "max-length") {
		merged.Tasks.MaxLength = globalCfg.Tasks.MaxLength
	}

	return &merged
}

func mergeString(projectDefined bool, projectValue, globalValue string) string {
	value := globalValue
	if projectDefined {
		value = projectValue
	}
	return strings.TrimSpace(value)
}

// Validate reports values that no component understands.
func (c *Config) Validate() error {
	if c.Storage.Backend != "" && !storage.Backend(c.Storage.Backend).IsValid() {
		return fmt.Errorf("storage.backend: %w", validation.FormatInvalidValueError(ErrInvalidConfig, storage.Backend(c.Storage.Backend), storage.ValidBackends()))
	}
	switch OnCorrupt(c.Storage.OnCorrupt) {
	case "", OnCorruptFail, OnCorruptReset:
	default:
		return fmt.Errorf("storage.on-corrupt: %w", validation.FormatInvalidValueError(ErrInvalidConfig, OnCorrupt(c.Storage.OnCorrupt), []OnCorrupt{OnCorruptFail, OnCorruptReset}))
	}
	if c.Storage.Key != "" {
		if err := storage.ValidateKey(c.Storage.Key); err != nil {
			return fmt.Errorf("%w: storage.key: %w", ErrInvalidConfig, err)
		}
	}
	if c.Tasks.MaxLength < 0 {
		return fmt.Errorf("%w: tasks.max-length must not be negative", ErrInvalidConfig)
	}
	return nil
}

// StorageBackend returns the configured backend, defaulting to file.
func (c *Config) StorageBackend() storage.Backend {
	if c.Storage.Backend == "" {
		return storage.BackendFile
	}
	return storage.Backend(c.Storage.Backend)
}

// StorageKey returns the configured key or DefaultStorageKey.
func (c *Config) StorageKey() string {
	if c.Storage.Key == "" {
		return DefaultStorageKey
	}
	return c.Storage.Key
}

// ResetCorrupt reports whether on-corrupt is reset.
func (c *Config) ResetCorrupt() bool {
	return OnCorrupt(c.Storage.OnCorrupt) == OnCorruptReset
}

// MaxLength returns the configured length limit or DefaultMaxLength.
func (c *Config) MaxLength() int {
	if c.Tasks.MaxLength == 0 {
		return DefaultMaxLength
	}
	return c.Tasks.MaxLength
}

// Addr returns the configured web address or DefaultAddr.
func (c *Config) Addr() string {
	if c.Web.Addr == "" {
		return DefaultAddr
	}
	return c.Web.Addr
}
