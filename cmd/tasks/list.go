package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/amonks/tasklist/internal/markdown"
	"github.com/amonks/tasklist/internal/ui"
	"github.com/amonks/tasklist/task"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// tasks list
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks, newest first",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var (
	listFilter string
	listJSON   bool
)

// tasks stats
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show task counts",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var statsJSON bool

// tasks show
var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show detailed information about a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

const showWidth = 80

func init() {
	rootCmd.AddCommand(listCmd, statsCmd, showCmd)

	listCmd.Flags().StringVar(&listFilter, "filter", "all", "Show all, pending, or completed tasks")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output as JSON")
	addFilterFlagAliases(listCmd)

	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output as JSON")
}

func runList(cmd *cobra.Command, args []string) error {
	filter, err := task.ParseFilter(listFilter)
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	tasks := a.store.Filtered(filter)

	if listJSON {
		return encodeJSON(cmd.OutOrStdout(), tasks)
	}

	if len(tasks) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), filter.EmptyMessage()+".")
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), formatTaskTable(tasks, a.store.PrefixLengths(), ui.HighlightID, time.Now()))
	return nil
}

func formatTaskTable(tasks []task.Task, prefixLengths map[string]int, highlight func(string, int) string, now time.Time) string {
	builder := ui.NewTableBuilder([]string{"ID", "DONE", "AGE", "TEXT"}, len(tasks))
	for _, t := range tasks {
		builder.AddRow([]string{
			highlight(t.ID, prefixLengths[strings.ToLower(t.ID)]),
			doneMark(t.Completed),
			ui.FormatTimeAgo(t.CreatedAt, now),
			ui.TruncateTableCell(t.Text),
		})
	}
	return builder.String()
}

func doneMark(completed bool) string {
	if completed {
		return "[x]"
	}
	return "[ ]"
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	stats := a.store.Stats()
	if statsJSON {
		return encodeJSON(cmd.OutOrStdout(), stats)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d total, %d pending, %d completed\n", stats.Total, stats.Pending, stats.Completed)
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ids, err := resolveIDs(a.store, args)
	if err != nil {
		return err
	}
	t, _ := a.store.Get(ids[0])

	return printTaskDetail(cmd.OutOrStdout(), t, stdoutTerminalWidth())
}

// printTaskDetail renders t as markdown. A width of zero means stdout is
// not a terminal, so the source is word-wrapped without styling.
func printTaskDetail(w io.Writer, t task.Task, width int) error {
	doc := []byte(taskMarkdown(t))
	var out []byte
	if width > 0 {
		out = markdown.SafeRender(width, 0, doc)
	} else {
		out = markdown.Plain(showWidth, 0, doc)
	}
	_, err := fmt.Fprintf(w, "%s\n", out)
	return err
}

func taskMarkdown(t task.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", t.Text)
	fmt.Fprintf(&b, "- ID: %s\n", t.ID)
	fmt.Fprintf(&b, "- Status: %s\n", statusLabel(t.Completed))
	fmt.Fprintf(&b, "- Created: %s\n", t.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "- Updated: %s\n", t.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	return b.String()
}

func statusLabel(completed bool) string {
	if completed {
		return "completed"
	}
	return "pending"
}

func stdoutTerminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return showWidth
	}
	return width
}
