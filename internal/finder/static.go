package finder

import (
	"github.com/runger/sieve/internal/entry"
)

// Static replays a fixed sequence of candidates. Invoke completes
// synchronously; cancellation is a no-op.
type Static struct {
	candidates []entry.Candidate
	dropped    int
}

// NewStatic returns a finder over candidates. The slice is copied.
func NewStatic(candidates []entry.Candidate) *Static {
	cs := make([]entry.Candidate, len(candidates))
	copy(cs, candidates)
	return &Static{candidates: cs}
}

// NewStaticLines builds candidates from lines with mk. Lines rejected by mk
// are dropped and counted in every Result.
func NewStaticLines(lines []string, mk entry.Maker) *Static {
	if mk == nil {
		mk = entry.LineMaker
	}
	s := &Static{candidates: make([]entry.Candidate, 0, len(lines))}
	for _, line := range lines {
		c, ok := mk(line)
		if !ok {
			s.dropped++
			continue
		}
		s.candidates = append(s.candidates, c)
	}
	return s
}

// Len returns the number of candidates.
func (s *Static) Len() int {
	return len(s.candidates)
}

// Invoke implements Finder.
func (s *Static) Invoke(req Request, cb Callbacks) (Handle, error) {
	for _, c := range s.candidates {
		cb.entry(req.Generation, c)
	}
	cb.complete(req.Generation, Result{
		Emitted:  len(s.candidates),
		Dropped:  s.dropped,
		ExitCode: -1,
	})
	return newDoneHandle(req.Generation), nil
}
