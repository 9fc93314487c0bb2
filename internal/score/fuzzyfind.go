package score

import "github.com/sahilm/fuzzy"

// FuzzyFind scores with github.com/sahilm/fuzzy. Its integer score (higher is
// better, possibly negative) is converted with fromQuality.
type FuzzyFind struct{}

// Score implements Scorer.
func (FuzzyFind) Score(prompt, ordinal string) (float64, []Range) {
	if prompt == "" {
		return 1, nil
	}
	matches := fuzzy.Find(prompt, []string{ordinal})
	if len(matches) == 0 {
		return Reject, nil
	}
	m := matches[0]
	return fromQuality(float64(m.Score)), byteSpans(ordinal, m.MatchedIndexes)
}
