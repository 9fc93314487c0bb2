// Package entry defines the records flowing through the selection pipeline
// and the Manager that keeps the ranked working set.
package entry

import (
	"github.com/runger/sieve/internal/score"
)

// Candidate is a raw record offered to the ranking pipeline.
type Candidate struct {
	// Value is the opaque payload (a path, a buffer, a git object...).
	// It is not persisted with session snapshots.
	Value any `yaml:"-"`

	// Ordinal is the text matched against the prompt.
	Ordinal string

	// Display is the text shown to the user. Empty means Ordinal.
	Display string

	// ID is the identity used for de-duplication and multi-selection.
	// Empty means Ordinal.
	ID string

	// Tag is a discrete bucket used by prefiltered sorters
	// (for example a diagnostic severity).
	Tag string

	// Meta carries caller-attached metadata such as a buffer number.
	Meta map[string]string
}

// Key returns the identity of the candidate.
func (c Candidate) Key() string {
	if c.ID != "" {
		return c.ID
	}
	return c.Ordinal
}

// Text returns the display text, falling back to the ordinal.
func (c Candidate) Text() string {
	if c.Display != "" {
		return c.Display
	}
	return c.Ordinal
}

// Entry is a Candidate annotated with its score and match spans.
type Entry struct {
	Candidate

	// Score ranks the entry; lower is better.
	Score float64

	// Spans are the matched byte ranges of the ordinal.
	Spans []score.Range

	// Generation is the search generation the entry was produced under.
	Generation uint64

	// Index is the producer order of the entry within its generation.
	Index int
}

// less orders entries by score, then by producer order.
func less(a, b *Entry) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.Index < b.Index
}
