// Package ui renders command output. Styling is applied only when stdout
// is a terminal.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FBBF24")).Bold(true)
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171")).Bold(true)
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#64748B"))
	titleStyle  = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#64748B")).Padding(0, 1)
)

var styled = IsTerminal(os.Stdout)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// SetStyled forces styling on or off. Tests and --no-color use it.
func SetStyled(on bool) {
	styled = on
}

func render(s lipgloss.Style, text string) string {
	if !styled {
		return text
	}
	return s.Render(text)
}

// RenderPass renders a success marker.
func RenderPass(text string) string { return render(passStyle, text) }

// RenderWarn renders a warning marker.
func RenderWarn(text string) string { return render(warnStyle, text) }

// RenderFail renders a failure marker.
func RenderFail(text string) string { return render(failStyle, text) }

// RenderAccent renders highlighted text.
func RenderAccent(text string) string { return render(accentStyle, text) }

// RenderMuted renders secondary text.
func RenderMuted(text string) string { return render(mutedStyle, text) }

// Row is one line of a summary table.
type Row struct {
	Label string
	Value int
}

// Summary renders a titled table of counters. Rows with a zero value are
// kept so runs can be compared line by line.
func Summary(title string, rows []Row) string {
	width := 0
	for _, r := range rows {
		if len(r.Label) > width {
			width = len(r.Label)
		}
	}

	var b strings.Builder
	for i, r := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		value := fmt.Sprintf("%d", r.Value)
		if r.Value > 0 {
			value = RenderAccent(value)
		} else {
			value = RenderMuted(value)
		}
		fmt.Fprintf(&b, "%-*s  %s", width, r.Label, value)
	}

	if !styled {
		return title + "\n" + b.String() + "\n"
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), b.String())) + "\n"
}

// PrintSummary writes Summary to w.
func PrintSummary(w io.Writer, title string, rows []Row) {
	fmt.Fprint(w, Summary(title, rows))
}
