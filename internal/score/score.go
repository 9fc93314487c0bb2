package score

import (
	"math"
	"unicode"
	"unicode/utf8"
)

// Reject is the score of a candidate that does not match the prompt.
var Reject = math.Inf(1)

// IsRejected reports whether s is the reject sentinel.
func IsRejected(s float64) bool {
	return math.IsInf(s, 1) || math.IsNaN(s)
}

// Range is a half-open byte range [Start, End) of an ordinal.
type Range struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Scorer scores an ordinal against a prompt.
type Scorer interface {
	// Score returns the score (lower is better, or Reject) and the matched
	// byte ranges in ascending order. Spans may be empty.
	Score(prompt, ordinal string) (float64, []Range)
}

// ScorerFunc adapts a plain function to the Scorer interface.
type ScorerFunc func(prompt, ordinal string) (float64, []Range)

// Score implements Scorer.
func (f ScorerFunc) Score(prompt, ordinal string) (float64, []Range) {
	return f(prompt, ordinal)
}

// fromQuality converts a "higher is better" match quality into a score.
// The mapping is continuous and strictly decreasing over all finite
// qualities: 1/q above 1, and 2-q below it, so poor matches keep their
// relative order instead of collapsing onto one value.
func fromQuality(q float64) float64 {
	if q >= 1 {
		return 1 / q
	}
	return 2 - q
}

// SmartCase reports whether matching for prompt must be case-sensitive,
// which is the case when the prompt contains an uppercase rune.
func SmartCase(prompt string) bool {
	for _, r := range prompt {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

// runeEqual compares two runes, folding case unless sensitive is set.
func runeEqual(a, b rune, sensitive bool) bool {
	if a == b {
		return true
	}
	if sensitive {
		return false
	}
	return unicode.ToLower(a) == unicode.ToLower(b)
}

// decoded holds the runes of a string together with their byte offsets.
type decoded struct {
	runes []rune
	offs  []int
	size  int
}

func decode(s string) decoded {
	d := decoded{
		runes: make([]rune, 0, len(s)),
		offs:  make([]int, 0, len(s)),
		size:  len(s),
	}
	for i, r := range s {
		d.runes = append(d.runes, r)
		d.offs = append(d.offs, i)
	}
	return d
}

// byteEnd returns the byte offset just past rune idx.
func (d decoded) byteEnd(idx int) int {
	if idx+1 < len(d.offs) {
		return d.offs[idx+1]
	}
	return d.size
}

// spansFor converts matched rune indices into merged byte ranges.
func (d decoded) spansFor(matches []int) []Range {
	if len(matches) == 0 {
		return nil
	}
	spans := make([]Range, 0, len(matches))
	for _, idx := range matches {
		start, end := d.offs[idx], d.byteEnd(idx)
		if n := len(spans); n > 0 && spans[n-1].End == start {
			spans[n-1].End = end
			continue
		}
		spans = append(spans, Range{Start: start, End: end})
	}
	return spans
}

// byteSpans converts matched byte offsets (each the start of a rune) into
// merged byte ranges.
func byteSpans(s string, offsets []int) []Range {
	if len(offsets) == 0 {
		return nil
	}
	spans := make([]Range, 0, len(offsets))
	for _, off := range offsets {
		if off < 0 || off >= len(s) {
			continue
		}
		_, size := utf8.DecodeRuneInString(s[off:])
		end := off + size
		if n := len(spans); n > 0 && spans[n-1].End == off {
			spans[n-1].End = end
			continue
		}
		spans = append(spans, Range{Start: off, End: end})
	}
	return spans
}

// isWordBoundary reports whether the rune at idx starts a word.
func isWordBoundary(runes []rune, idx int) bool {
	if idx == 0 {
		return true
	}
	if idx >= len(runes) {
		return false
	}

	prev := runes[idx-1]
	curr := runes[idx]

	// After separators (space, punctuation, path separators).
	if unicode.IsSpace(prev) || unicode.IsPunct(prev) || unicode.IsSymbol(prev) {
		return true
	}

	// camelCase hump.
	if unicode.IsLower(prev) && unicode.IsUpper(curr) {
		return true
	}

	// Letter to digit transition.
	if unicode.IsLetter(prev) && unicode.IsDigit(curr) {
		return true
	}

	return false
}

// ByName returns the scorer registered under name. The empty name selects
// the default fuzzy scorer.
func ByName(name string) (Scorer, bool) {
	switch name {
	case "", "fuzzy":
		return NewFuzzy(), true
	case "fuzzy-weak":
		f := NewFuzzy()
		f.StrongFirst = false
		return f, true
	case "substring":
		return Substring{}, true
	case "fuzzyfind":
		return FuzzyFind{}, true
	default:
		return nil, false
	}
}
