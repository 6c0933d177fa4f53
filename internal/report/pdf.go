// Package report renders printable task checklists.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/amonks/tasklist/task"
	"github.com/jung-kurt/gofpdf"
)

// Options configures a PDF checklist.
type Options struct {
	// Title heads the first page. Defaults to "Tasks".
	Title string

	// Generated is printed under the title and stamped as the document's
	// creation date. Defaults to time.Now.
	Generated time.Time
}

// WritePDF renders tasks as an A4 checklist.
func WritePDF(w io.Writer, tasks []task.Task, opts Options) error {
	title := opts.Title
	if title == "" {
		title = "Tasks"
	}
	generated := opts.Generated
	if generated.IsZero() {
		generated = time.Now()
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(generated)
	pdf.SetTitle(title, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(40, 10, tr(title))
	pdf.Ln(10)

	stats := task.StatsOf(tasks)
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(0, 6, fmt.Sprintf("%s  -  %d total, %d pending, %d completed",
		generated.Format("2006-01-02 15:04"), stats.Total, stats.Pending, stats.Completed))
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 11)
	if len(tasks) == 0 {
		pdf.MultiCell(0, 6, "No tasks.", "0", "L", false)
	}
	for _, t := range tasks {
		box := "[ ]"
		if t.Completed {
			box = "[x]"
		}
		pdf.MultiCell(0, 7, tr(box+"  "+t.Text), "0", "L", false)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}
