package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// NoticeKind selects the styling of a Notice.
type NoticeKind int

const (
	NoticeSuccess NoticeKind = iota
	NoticeWarning
	NoticeError
)

var (
	noticeSuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	noticeWarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	noticeErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// Notice formats a one-line user-facing message. Styling is dropped when
// stdout is not a color terminal.
func Notice(kind NoticeKind, message string) string {
	prefix := "ok: "
	style := noticeSuccessStyle
	switch kind {
	case NoticeWarning:
		prefix = "warning: "
		style = noticeWarningStyle
	case NoticeError:
		prefix = "error: "
		style = noticeErrorStyle
	}
	if !ansiEnabled() {
		return prefix + message
	}
	return style.Render(prefix) + message
}
