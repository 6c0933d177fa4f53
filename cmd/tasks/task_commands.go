package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/amonks/tasklist/internal/editor"
	"github.com/amonks/tasklist/internal/ui"
	"github.com/amonks/tasklist/task"
	"github.com/spf13/cobra"
)

// tasks add
var addCmd = &cobra.Command{
	Use:   "add <text>...",
	Short: "Add a task",
	Long:  `Add a task. Arguments are joined with spaces.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAdd,
}

// tasks toggle
var toggleCmd = &cobra.Command{
	Use:   "toggle <id>...",
	Short: "Toggle one or more tasks between pending and completed",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runToggle,
}

// tasks edit
var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change a task's text",
	Long: `Change a task's text.

With --text the new text is applied directly. Otherwise, when running
interactively, $EDITOR opens on a TOML representation of the task.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

var editText string

// tasks delete
var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a task",
	Long: `Delete a task.

Asks for confirmation when running interactively. Use --yes to skip the
prompt; it is required when stdin is not a terminal.`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

var deleteYes bool

// tasks clear-completed
var clearCompletedCmd = &cobra.Command{
	Use:   "clear-completed",
	Short: "Delete every completed task",
	Args:  cobra.NoArgs,
	RunE:  runClearCompleted,
}

func init() {
	rootCmd.AddCommand(addCmd, toggleCmd, editCmd, deleteCmd, clearCompletedCmd)

	editCmd.Flags().StringVar(&editText, "text", "", "New task text")
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Delete without asking")
}

func runAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	created, err := a.store.Add(strings.Join(args, " "))
	if err := warnOnly(err); err != nil {
		return err
	}

	highlight := idHighlighter(a.store, ui.HighlightID)
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s: %s\n", highlight(created.ID), created.Text)
	return nil
}

func runToggle(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ids, err := resolveIDs(a.store, args)
	if err != nil {
		return err
	}

	highlight := idHighlighter(a.store, ui.HighlightID)
	for _, id := range ids {
		toggled, found, err := a.store.Toggle(id)
		if err := warnOnly(err); err != nil {
			return err
		}
		if !found {
			continue
		}
		verb := "Reopened"
		if toggled.Completed {
			verb = "Completed"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s\n", verb, highlight(toggled.ID), toggled.Text)
	}
	return nil
}

func runEdit(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ids, err := resolveIDs(a.store, args)
	if err != nil {
		return err
	}
	existing, ok := a.store.Get(ids[0])
	if !ok {
		return fmt.Errorf("%w: %s", task.ErrTaskNotFound, args[0])
	}

	text := editText
	completed := existing.Completed
	if !cmd.Flags().Changed("text") {
		if !isInteractive() {
			return errors.New("--text is required when not running interactively")
		}
		parsed, err := editor.EditTask(existing)
		if err != nil {
			return err
		}
		text = parsed.Text
		if parsed.Completed != nil {
			completed = *parsed.Completed
		}
	}

	edited := existing
	textChanged := task.NormalizeText(text) != existing.Text
	if !textChanged && completed == existing.Completed {
		fmt.Fprintf(cmd.OutOrStdout(), "No changes to %s\n", idHighlighter(a.store, ui.HighlightID)(existing.ID))
		return nil
	}
	if textChanged {
		edited, _, err = a.store.Edit(existing.ID, text)
		if err := warnOnly(err); err != nil {
			return err
		}
	}
	if completed != edited.Completed {
		edited, _, err = a.store.Toggle(existing.ID)
		if err := warnOnly(err); err != nil {
			return err
		}
	}

	highlight := idHighlighter(a.store, ui.HighlightID)
	fmt.Fprintf(cmd.OutOrStdout(), "Updated %s: %s\n", highlight(edited.ID), edited.Text)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ids, err := resolveIDs(a.store, args)
	if err != nil {
		return err
	}
	pending, ok := a.store.RequestDelete(ids[0])
	if !ok {
		return fmt.Errorf("%w: %s", task.ErrTaskNotFound, args[0])
	}

	if !deleteYes {
		if !isInteractive() {
			a.store.CancelDelete()
			return errors.New("refusing to delete without confirmation (use --yes)")
		}
		prompter := Prompter{In: os.Stdin, Out: cmd.OutOrStdout()}
		confirmed, err := prompter.Confirm(fmt.Sprintf("Delete %q?", pending.Text))
		if err != nil {
			a.store.CancelDelete()
			return err
		}
		if !confirmed {
			a.store.CancelDelete()
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
	}

	_, _, err = a.store.ConfirmDelete()
	return warnOnly(err)
}

func runClearCompleted(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	removed, err := a.store.ClearCompleted()
	if err := warnOnly(err); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d completed %s\n", removed, plural(removed, "task", "tasks"))
	return nil
}
