package main

import (
	"errors"
	"fmt"

	"github.com/amonks/tasklist/internal/config"
	"github.com/amonks/tasklist/internal/paths"
	"github.com/amonks/tasklist/storage"
	"github.com/amonks/tasklist/task"
	"github.com/spf13/cobra"
)

// app bundles an opened store with the resources behind it.
type app struct {
	cfg      *config.Config
	kv       storage.KV
	store    *task.Store
	observer *cliObserver
}

func (a *app) Close() error {
	return a.kv.Close()
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	cwd, err := paths.WorkingDir()
	if err != nil {
		return nil, err
	}
	return config.Load(cwd)
}

// openApp loads config and opens the configured task store.
func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	kv, err := storage.Open(storage.OpenOptions{
		Backend: cfg.StorageBackend(),
		Path:    cfg.Storage.Path,
	})
	if err != nil {
		return nil, err
	}

	persister, err := task.NewPersister(kv, cfg.StorageKey())
	if err != nil {
		kv.Close()
		return nil, err
	}

	observer := newCLIObserver(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg.MaxLength())
	store, err := task.Open(persister, task.Options{
		Observer:      observer,
		MaxTextLength: cfg.MaxLength(),
		ResetCorrupt:  cfg.ResetCorrupt(),
	})
	if err != nil {
		kv.Close()
		if errors.Is(err, storage.ErrCorrupt) {
			return nil, fmt.Errorf("%w (set storage.on-corrupt = \"reset\" to start over)", err)
		}
		return nil, err
	}

	return &app{cfg: cfg, kv: kv, store: store, observer: observer}, nil
}

// warnOnly drops persistence errors, which the observer has already shown.
func warnOnly(err error) error {
	if errors.Is(err, task.ErrPersist) {
		return nil
	}
	return err
}

// resolveIDs expands ID prefixes to full task IDs.
func resolveIDs(store *task.Store, args []string) ([]string, error) {
	resolved := make([]string, 0, len(args))
	for _, arg := range args {
		id, err := store.Resolve(arg)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, id)
	}
	return resolved, nil
}
