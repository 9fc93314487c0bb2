package score

// Weights configures the fuzzy scorer. Raw weights are accumulated as a
// "higher is better" quality and converted to a score with fromQuality.
type Weights struct {
	// Base is the starting quality for any match.
	Base float64

	// Consecutive is added for each matched rune directly following the
	// previous matched rune.
	Consecutive float64

	// WordBoundary is added for each match at the start of a word.
	WordBoundary float64

	// Prefix is added when the first match is at position 0.
	Prefix float64

	// ExactPrefix is added when the ordinal starts with the prompt.
	ExactPrefix float64

	// Gap is subtracted for each unmatched rune between the first and last match.
	Gap float64

	// Leading is subtracted for each rune before the first match.
	Leading float64

	// LengthThreshold grants a bonus of (threshold - len) for short ordinals.
	LengthThreshold int

	// Length is subtracted per rune of the ordinal so that shorter ordinals
	// always win ties in every other respect.
	Length float64
}

// DefaultWeights returns the default fuzzy weights.
func DefaultWeights() Weights {
	return Weights{
		Base:            100,
		Consecutive:     20,
		WordBoundary:    15,
		Prefix:          25,
		ExactPrefix:     50,
		Gap:             2,
		Leading:         1,
		LengthThreshold: 20,
		Length:          0.01,
	}
}

// Fuzzy is the default scorer: every prompt rune must appear in order in the
// ordinal.
type Fuzzy struct {
	Weights Weights

	// StrongFirst requires the first prompt rune to match at a word boundary.
	// "ap" then matches "apple" and "app_path" but not "grape".
	StrongFirst bool
}

// NewFuzzy returns a Fuzzy scorer with default weights and StrongFirst set.
func NewFuzzy() Fuzzy {
	return Fuzzy{Weights: DefaultWeights(), StrongFirst: true}
}

// Score implements Scorer.
func (f Fuzzy) Score(prompt, ordinal string) (float64, []Range) {
	if prompt == "" {
		return 1, nil
	}
	if ordinal == "" {
		return Reject, nil
	}

	sensitive := SmartCase(prompt)
	query := []rune(prompt)
	text := decode(ordinal)
	if len(query) > len(text.runes) {
		return Reject, nil
	}

	var (
		best     float64
		bestHits []int
		hits     = make([]int, len(query))
	)
	for start, r := range text.runes {
		if !runeEqual(r, query[0], sensitive) {
			continue
		}
		if f.StrongFirst && !isWordBoundary(text.runes, start) {
			continue
		}
		if !matchFrom(query, text.runes, start, sensitive, hits) {
			// No later start can complete the match either.
			break
		}
		q := f.quality(query, text.runes, hits, sensitive)
		if bestHits == nil || q > best {
			best = q
			bestHits = append(bestHits[:0], hits...)
		}
	}

	if bestHits == nil {
		return Reject, nil
	}
	return fromQuality(best), text.spansFor(bestHits)
}

// matchFrom greedily matches query against text starting with query[0] at
// start, filling hits with the matched rune indices.
func matchFrom(query, text []rune, start int, sensitive bool, hits []int) bool {
	hits[0] = start
	qi := 1
	for i := start + 1; i < len(text) && qi < len(query); i++ {
		if runeEqual(text[i], query[qi], sensitive) {
			hits[qi] = i
			qi++
		}
	}
	return qi == len(query)
}

// quality computes the "higher is better" weight of a match.
func (f Fuzzy) quality(query, text []rune, hits []int, sensitive bool) float64 {
	w := f.Weights
	q := w.Base

	for i := 1; i < len(hits); i++ {
		if hits[i] == hits[i-1]+1 {
			q += w.Consecutive
		}
	}

	for _, idx := range hits {
		if isWordBoundary(text, idx) {
			q += w.WordBoundary
		}
	}

	if hits[0] == 0 {
		q += w.Prefix
		exact := true
		for i, r := range query {
			if !runeEqual(text[i], r, sensitive) {
				exact = false
				break
			}
		}
		if exact {
			q += w.ExactPrefix
		}
	}

	if gap := hits[len(hits)-1] - hits[0] - len(hits) + 1; gap > 0 {
		q -= float64(gap) * w.Gap
	}

	q -= float64(hits[0]) * w.Leading

	if n := len(text); n < w.LengthThreshold {
		q += float64(w.LengthThreshold - n)
	}
	q -= float64(len(text)) * w.Length

	return q
}
