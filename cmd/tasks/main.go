// Package main implements the tasks CLI tool.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/amonks/tasklist/internal/ui"
	"github.com/amonks/tasklist/task"
	"github.com/spf13/cobra"
)

func main() {
	os.Exit(run())
}

// run executes the root command and returns the process exit code.
func run() int {
	if err := rootCmd.Execute(); err != nil {
		var exitErr interface{ ExitCode() int }
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode()
		}
		// Validation failures are already reported by the store observer.
		if _, ok := task.ReasonFor(err); !ok {
			fmt.Fprintln(os.Stderr, ui.Notice(ui.NoticeError, err.Error()))
		}
		return 1
	}
	return 0
}

var rootCmd = &cobra.Command{
	Use:           "tasks",
	Short:         "Tasks - a small single-user task list",
	SilenceErrors: true,
	SilenceUsage:  true,
}

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: global config.toml merged with ./tasks.toml)")
}
