package entry

import (
	"slices"

	"github.com/runger/sieve/internal/score"
)

// Sorter scores a candidate against a prompt. It is the candidate-aware
// layer over a score.Scorer.
type Sorter interface {
	Score(prompt string, c Candidate) (float64, []score.Range)
}

// NewSorter returns a Sorter scoring candidate ordinals with s.
func NewSorter(s score.Scorer) Sorter {
	return ordinalSorter{scorer: s}
}

type ordinalSorter struct {
	scorer score.Scorer
}

func (o ordinalSorter) Score(prompt string, c Candidate) (float64, []score.Range) {
	return o.scorer.Score(prompt, c.Ordinal)
}

// BucketFunc maps a candidate tag to its bucket rank; lower ranks sort
// first. Entries are scored once as they stream in, so a tag's rank must not
// depend on which other tags have been seen.
type BucketFunc func(tag string) int

// TagOrder returns a BucketFunc ranking tags by their position in order.
// Tags not in the list sort after every listed tag.
func TagOrder(order ...string) BucketFunc {
	ranks := make(map[string]int, len(order))
	for i, tag := range order {
		if _, ok := ranks[tag]; !ok {
			ranks[tag] = i
		}
	}
	unknown := len(order)
	return func(tag string) int {
		if r, ok := ranks[tag]; ok {
			return r
		}
		return unknown
	}
}

// TagLess returns a BucketFunc ordering the declared tags with less.
// Tags not declared sort after every declared tag.
func TagLess(less func(a, b string) bool, tags ...string) BucketFunc {
	sorted := slices.Clone(tags)
	slices.SortStableFunc(sorted, func(a, b string) int {
		switch {
		case less(a, b):
			return -1
		case less(b, a):
			return 1
		default:
			return 0
		}
	})
	return TagOrder(sorted...)
}

// BucketSorter partitions candidates by Tag and ranks only within a bucket.
// Buckets are ordered by Bucket; inner scores never cross a bucket border.
type BucketSorter struct {
	Inner  score.Scorer
	Bucket BucketFunc
}

// NewBucketSorter returns a prefiltering sorter.
func NewBucketSorter(inner score.Scorer, bucket BucketFunc) *BucketSorter {
	if bucket == nil {
		bucket = TagOrder()
	}
	return &BucketSorter{Inner: inner, Bucket: bucket}
}

// Score implements Sorter. The combined score is 2*bucket plus the inner
// score squashed into [0, 1).
func (b *BucketSorter) Score(prompt string, c Candidate) (float64, []score.Range) {
	s, spans := b.Inner.Score(prompt, c.Ordinal)
	if score.IsRejected(s) {
		return score.Reject, nil
	}
	if s < 0 {
		s = 0
	}
	return 2*float64(b.Bucket(c.Tag)) + s/(1+s), spans
}
