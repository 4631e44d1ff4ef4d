// Package console renders operator-facing messages: informational lines,
// fatal errors, the coverage summary panel, and download progress.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"
)

var (
	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F5A623")).Bold(true)
	fatalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(0, 1)
	boldStyle  = lipgloss.NewStyle().Bold(true)
	greenStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
)

// Console writes styled messages.
type Console struct {
	out io.Writer
	err io.Writer
}

// New returns a console writing to out and err. Nil writers fall back to the
// process streams.
func New(out, err io.Writer) *Console {
	if out == nil {
		out = os.Stdout
	}
	if err == nil {
		err = os.Stderr
	}
	return &Console{out: out, err: err}
}

// Out is the writer informational output goes to.
func (c *Console) Out() io.Writer {
	return c.out
}

// Info prints an informational line.
func (c *Console) Info(format string, args ...any) {
	fmt.Fprintf(c.out, "%s %s\n", infoStyle.Render("•"), fmt.Sprintf(format, args...))
}

// Warn prints a non-fatal warning.
func (c *Console) Warn(format string, args ...any) {
	fmt.Fprintf(c.err, "%s %s\n", warnStyle.Render("!"), fmt.Sprintf(format, args...))
}

// Fatal prints err in the failure style.
func (c *Console) Fatal(err error) {
	if err == nil {
		return
	}
	lines := strings.SplitN(err.Error(), "\n", 2)
	fmt.Fprintf(c.err, "%s %s\n", fatalStyle.Render("✗"), fatalStyle.Render(lines[0]))
	if len(lines) == 2 {
		fmt.Fprintln(c.err, lines[1])
	}
}

// Coverage prints the total coverage panel.
func (c *Console) Coverage(packages int, mean float64) {
	body := fmt.Sprintf("Total Coverage (%s): %s",
		boldStyle.Render(fmt.Sprintf("%d pkg", packages)),
		greenStyle.Render(fmt.Sprintf("%.1f%%", mean)),
	)
	fmt.Fprintln(c.out, panelStyle.Render(body))
}

// Interactive reports whether w is a terminal.
func Interactive(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Table prints rows under headers with a rounded border.
func (c *Console) Table(headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(c.out, t.Render())
}
