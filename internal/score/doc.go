// Package score provides the pure scoring functions used to rank candidates
// against a prompt.
//
// A [Scorer] maps (prompt, ordinal) to a score and the byte ranges of the
// ordinal that matched. Lower scores rank better. [Reject] marks a candidate
// that must not appear in the ranked set for the prompt.
//
// Three scorers are provided:
//   - [Fuzzy]: subsequence matching with bonuses for contiguous runs, word
//     boundaries and short ordinals. This is the default.
//   - [Substring]: literal substring matching.
//   - [FuzzyFind]: an adapter over github.com/sahilm/fuzzy.
//
// All scorers use smart case: matching is case-insensitive unless the prompt
// contains an uppercase rune. Scorers hold no shared mutable state and are
// safe for concurrent use.
package score
