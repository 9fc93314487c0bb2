package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/runger/sieve/internal/entry"
	"github.com/runger/sieve/internal/score"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62"))
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	cursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	markStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	normalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	matchStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// renderEntry draws e's text within width columns (0 means unlimited) with
// the matched spans highlighted.
//
// Spans index the ordinal, so they are only drawn when the entry shows its
// ordinal and sanitizing leaves it unchanged. Other entries are truncated
// in the middle without highlighting.
func renderEntry(e *entry.Entry, width int, current bool) string {
	base := normalStyle
	if current {
		base = selectedStyle
	}

	text := e.Text()
	clean := Sanitize(text)
	if text != e.Ordinal || clean != text || len(e.Spans) == 0 {
		if width > 0 {
			clean = MiddleTruncate(clean, width)
		}
		return base.Render(clean)
	}

	spans := e.Spans
	if width > 0 {
		text, spans = TruncateSpans(text, spans, width)
	}
	return highlight(text, spans, base)
}

// highlight renders text with base, switching to matchStyle inside spans.
// Spans must be sorted, non-overlapping byte ranges.
func highlight(text string, spans []score.Range, base lipgloss.Style) string {
	var b strings.Builder
	pos := 0
	for _, sp := range spans {
		if sp.Start < pos || sp.End > len(text) || sp.Start >= sp.End {
			continue
		}
		if sp.Start > pos {
			b.WriteString(base.Render(text[pos:sp.Start]))
		}
		b.WriteString(matchStyle.Inherit(base).Render(text[sp.Start:sp.End]))
		pos = sp.End
	}
	if pos < len(text) {
		b.WriteString(base.Render(text[pos:]))
	}
	return b.String()
}
