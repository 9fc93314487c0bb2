package tui

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/runger/sieve/internal/score"
)

// ansiRE matches CSI, OSC, charset and other two-byte escape sequences.
var ansiRE = regexp.MustCompile(`\x1b(?:` +
	`\[[0-9;?]*[A-Za-z]` +
	`|` +
	`\].*?(?:\x1b\\|\x07)` +
	`|` +
	`[()][A-B0-2]` +
	`|` +
	`[#*+\-./][A-Za-z0-9]` +
	`)`)

// StripANSI removes ANSI escape sequences from s.
func StripANSI(s string) string {
	if !strings.Contains(s, "\x1b") {
		return s
	}
	return ansiRE.ReplaceAllString(s, "")
}

// ValidateUTF8 replaces invalid UTF-8 bytes with U+FFFD.
func ValidateUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, string(utf8.RuneError))
}

// Sanitize makes producer output safe to draw: escape sequences are removed,
// invalid UTF-8 is replaced and tabs become single spaces.
func Sanitize(s string) string {
	return strings.ReplaceAll(ValidateUTF8(StripANSI(s)), "\t", " ")
}

const ellipsis = "…"

// MiddleTruncate shortens s to maxWidth display columns by replacing its
// middle with an ellipsis. Below three columns it cuts from the right.
func MiddleTruncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth < 3 {
		return headWidth(s, maxWidth)
	}
	remaining := maxWidth - 1
	return headWidth(s, (remaining+1)/2) + ellipsis + tailWidth(s, remaining/2)
}

// TruncateSpans cuts s from the right to maxWidth columns, ending in an
// ellipsis, and drops the parts of spans past the cut.
func TruncateSpans(s string, spans []score.Range, maxWidth int) (string, []score.Range) {
	if maxWidth <= 0 {
		return "", nil
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s, spans
	}
	head := headWidth(s, maxWidth-1)
	cut := len(head)
	var kept []score.Range
	for _, sp := range spans {
		if sp.Start >= cut {
			continue
		}
		kept = append(kept, score.Range{Start: sp.Start, End: min(sp.End, cut)})
	}
	return head + ellipsis, kept
}

// headWidth returns the longest prefix of s at most width columns wide.
func headWidth(s string, width int) string {
	w := 0
	for i, r := range s {
		rw := runewidth.RuneWidth(r)
		if w+rw > width {
			return s[:i]
		}
		w += rw
	}
	return s
}

// tailWidth returns the longest suffix of s at most width columns wide.
func tailWidth(s string, width int) string {
	w := 0
	start := len(s)
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(s[:start])
		rw := runewidth.RuneWidth(r)
		if w+rw > width {
			break
		}
		w += rw
		start -= size
	}
	return s[start:]
}
