package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/amonks/tasklist/internal/report"
	"github.com/amonks/tasklist/task"
	"github.com/spf13/cobra"
)

// formatPDF is export-only and handled outside task.Encode.
const formatPDF = "pdf"

// tasks export
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every task to a file or stdout",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

var (
	exportFormat string
	exportOutput string
)

// tasks import
var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Add tasks from an export",
	Long: `Add tasks from an export. Use "-" to read stdin.

Tasks whose IDs already exist are skipped unless --replace is given, in
which case the collection becomes exactly the imported tasks.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var (
	importFormat  string
	importReplace bool
)

func init() {
	rootCmd.AddCommand(exportCmd, importCmd)

	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "Output format (json, yaml, toml, msgpack, pdf)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")

	importCmd.Flags().StringVar(&importFormat, "format", "", "Input format (default: from file extension, else json)")
	importCmd.Flags().BoolVar(&importReplace, "replace", false, "Replace every existing task")
}

func runExport(cmd *cobra.Command, args []string) error {
	pdf := strings.EqualFold(strings.TrimSpace(exportFormat), formatPDF)
	var format task.Format
	if !pdf {
		parsed, err := task.ParseFormat(exportFormat)
		if err != nil {
			return err
		}
		format = parsed
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	tasks := a.store.Filtered(task.FilterAll)

	write := func(w io.Writer) error {
		if pdf {
			return report.WritePDF(w, tasks, report.Options{})
		}
		return task.Encode(w, format, tasks)
	}
	if exportOutput == "" {
		return write(cmd.OutOrStdout())
	}
	if err := writeOutputFile(createFile, exportOutput, write); err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d %s to %s\n", len(tasks), plural(len(tasks), "task", "tasks"), exportOutput)
	return nil
}

func createFile(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

// writeOutputFile creates path, runs write against it and closes it,
// returning the first write or close error.
func writeOutputFile(create func(string) (io.WriteCloser, error), path string, write func(io.Writer) error) (err error) {
	file, err := create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return write(file)
}

func runImport(cmd *cobra.Command, args []string) error {
	path := args[0]
	format, err := importFormatFor(path, importFormat)
	if err != nil {
		return err
	}

	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer file.Close()
		r = file
	}

	incoming, err := task.Decode(r, format)
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	added, err := a.store.Import(incoming, importReplace)
	if err := warnOnly(err); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d %s\n", added, plural(added, "task", "tasks"))
	return nil
}

// importFormatFor picks the decode format from the flag, then the file
// extension, then json.
func importFormatFor(path, flag string) (task.Format, error) {
	if flag != "" {
		return task.ParseFormat(flag)
	}
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" || path == "-" {
		return task.FormatJSON, nil
	}
	if format, err := task.ParseFormat(ext); err == nil {
		return format, nil
	}
	return task.FormatJSON, nil
}
