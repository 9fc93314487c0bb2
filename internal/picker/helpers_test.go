package picker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/runger/sieve/internal/entry"
	"github.com/runger/sieve/internal/finder"
)

// fakeFinder records invocations; tests drive the callbacks by hand.
type fakeFinder struct {
	mu     sync.Mutex
	calls  []*fakeCall
	err    error
	closed bool
}

func (f *fakeFinder) Invoke(req finder.Request, cb finder.Callbacks) (finder.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	c := &fakeCall{req: req, cb: cb, done: make(chan struct{})}
	f.calls = append(f.calls, c)
	return c, nil
}

func (f *fakeFinder) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeFinder) call(t *testing.T, i int) *fakeCall {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.Greater(t, len(f.calls), i)
	return f.calls[i]
}

// fakeCall keeps emitting after Cancel, like a producer racing its
// termination.
type fakeCall struct {
	req finder.Request
	cb  finder.Callbacks

	mu        sync.Mutex
	cancelled bool
	done      chan struct{}
}

func (c *fakeCall) Generation() uint64    { return c.req.Generation }
func (c *fakeCall) Done() <-chan struct{} { return c.done }

func (c *fakeCall) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.cancelled {
		c.cancelled = true
		close(c.done)
	}
}

func (c *fakeCall) isCancelled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelled
}

func (c *fakeCall) emit(ordinals ...string) {
	for _, o := range ordinals {
		c.cb.OnEntry(c.req.Generation, entry.Candidate{Ordinal: o})
	}
}

func (c *fakeCall) complete() {
	c.cb.OnComplete(c.req.Generation, finder.Result{Emitted: -1, ExitCode: 0})
}

func staticLines(items ...string) *finder.Static {
	cands := make([]entry.Candidate, len(items))
	for i, s := range items {
		cands[i] = entry.Candidate{Ordinal: s}
	}
	return finder.NewStatic(cands)
}

func newTestPicker(t *testing.T, cfg Config) *Picker {
	t.Helper()
	p, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func newStaticPicker(t *testing.T, items ...string) *Picker {
	t.Helper()
	return newTestPicker(t, Config{Finder: staticLines(items...)})
}

func settle(t *testing.T, p *Picker) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Settle(ctx))
}

func search(t *testing.T, p *Picker, prompt string) {
	t.Helper()
	require.NoError(t, p.SetPrompt(prompt))
	settle(t, p)
}

func visible(p *Picker) []string {
	var out []string
	for _, e := range p.Manager().Entries() {
		out = append(out, e.Ordinal)
	}
	return out
}

func keys(entries []*entry.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Key())
	}
	return out
}
