package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/pgdatadiff/pgdatadiff/internal/diff"
	"github.com/pgdatadiff/pgdatadiff/internal/orchestrate"
)

var (
	bannerStartStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	bannerEndStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	matchStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	failStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	counterStyle     = lipgloss.NewStyle().Faint(true)
)

// ConsoleReporter renders per-unit outcomes as styled terminal lines.
type ConsoleReporter struct {
	Out io.Writer
}

func (c *ConsoleReporter) PhaseStart(phase string, units int) {
	fmt.Fprintln(c.Out, bannerStartStyle.Render(fmt.Sprintf("Starting %s analysis.", phase)))
}

func (c *ConsoleReporter) Unit(name string, r diff.Result, index, total int) {
	var glyph string
	switch r.Outcome {
	case diff.Match:
		glyph = matchStyle.Render("✓")
	case diff.Inconclusive:
		glyph = warnStyle.Render("⚠")
	case diff.Mismatch:
		glyph = failStyle.Render("✗")
	}
	counter := counterStyle.Render(fmt.Sprintf("[%d/%d]", index, total))
	fmt.Fprintf(c.Out, "%s %s %s - %s\n", glyph, counter, name, r.Reason)
}

func (c *ConsoleReporter) PhaseEnd(phase string, s orchestrate.Summary) {
	fmt.Fprintln(c.Out, bannerEndStyle.Render(
		fmt.Sprintf("%s analysis complete. %d matched, %d inconclusive, %d mismatched.",
			titleCase(phase), s.Matched, s.Inconclusive, s.Mismatched)))
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

// compile-time interface check
var _ orchestrate.Reporter = (*ConsoleReporter)(nil)
