package main

import (
	"fmt"
	"io"

	"github.com/amonks/tasklist/internal/ui"
	"github.com/amonks/tasklist/task"
)

// cliObserver prints store notifications as styled notices.
type cliObserver struct {
	out       io.Writer
	errOut    io.Writer
	maxLength int
}

func newCLIObserver(out, errOut io.Writer, maxLength int) *cliObserver {
	return &cliObserver{out: out, errOut: errOut, maxLength: maxLength}
}

func (o *cliObserver) TasksChanged([]task.Task, task.Stats) {}

func (o *cliObserver) ValidationFailed(reason task.Reason) {
	fmt.Fprintln(o.errOut, ui.Notice(ui.NoticeError, reason.Message(o.maxLength)))
}

func (o *cliObserver) TaskDeleted(text string) {
	fmt.Fprintln(o.out, ui.Notice(ui.NoticeSuccess, fmt.Sprintf("Deleted %q", text)))
}

func (o *cliObserver) PersistFailed(err error) {
	fmt.Fprintln(o.errOut, ui.Notice(ui.NoticeWarning, err.Error()))
}
