package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/nox-hq/histscan/core/findings"
)

var (
	colorHeader = lipgloss.Color("2") // green
	colorMatch  = lipgloss.Color("3") // yellow
)

// TextReporter writes findings for a human reader: four labeled header
// lines followed by the file's diff with the matched string emphasized.
type TextReporter struct {
	w      io.Writer
	header lipgloss.Style
	match  lipgloss.Style
}

// NewTextReporter returns a TextReporter writing to w. When colorize is
// false the output carries no escape sequences at all.
func NewTextReporter(w io.Writer, colorize bool) *TextReporter {
	profile := termenv.Ascii
	if colorize {
		profile = termenv.ANSI
	}
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(profile)

	return &TextReporter{
		w:      w,
		header: r.NewStyle().Foreground(colorHeader),
		match:  r.NewStyle().Foreground(colorMatch).Bold(true),
	}
}

// Report writes f.
func (r *TextReporter) Report(f findings.Finding) error {
	var b strings.Builder
	r.writeHeader(&b, "File: ", f.Path)
	r.writeHeader(&b, "Date: ", f.Timestamp())
	r.writeHeader(&b, "Branch: ", f.Branch)
	r.writeHeader(&b, "Commit: ", strings.TrimRight(f.Message, "\n"))

	diff := f.Diff
	if f.String != "" {
		diff = strings.ReplaceAll(diff, f.String, r.match.Render(f.String))
	}
	b.WriteString(diff)
	if !strings.HasSuffix(diff, "\n") {
		b.WriteByte('\n')
	}

	if _, err := io.WriteString(r.w, b.String()); err != nil {
		return fmt.Errorf("writing text record: %w", err)
	}
	return nil
}

// writeHeader renders label+value one line at a time so multi-line commit
// messages are not padded into a block.
func (r *TextReporter) writeHeader(b *strings.Builder, label, value string) {
	for i, line := range strings.Split(label+value, "\n") {
		if i > 0 {
			b.WriteByte('\n')
		}
		if line != "" {
			b.WriteString(r.header.Render(line))
		}
	}
	b.WriteByte('\n')
}
