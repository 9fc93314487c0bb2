// Package picker implements the selection controller: it owns the prompt,
// the search generation, the ranked entry set and the selection state, and
// turns prompt edits into finder restarts.
//
// A Picker is driven from a single controller context. Finder callbacks are
// posted onto the picker's Queue and applied when the controller calls Drain
// (directly, through Settle, or from Run). Other goroutines use Do to act on
// the picker.
package picker

import (
	"context"
	"errors"
	"log/slog"

	"github.com/runger/sieve/internal/entry"
	"github.com/runger/sieve/internal/finder"
	"github.com/runger/sieve/internal/score"
)

// ErrClosed is returned by operations on a closed picker.
var ErrClosed = errors.New("picker is closed")

// NoSelection is returned by Selection when there are no results.
const NoSelection = -1

// State is the lifecycle state of a picker.
type State int

const (
	StateIdle State = iota
	StateSearching
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSearching:
		return "searching"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Picker is the selection controller. Its methods must be called from the
// controller context; use Do from other goroutines.
type Picker struct {
	cfg     Config
	logger  *slog.Logger
	queue   *Queue
	manager *entry.Manager

	state      State
	prompt     string
	generation uint64
	handle     finder.Handle
	seq        int
	err        error
	dirty      bool

	cursor      int
	selectedKey string
	multiKeys   []string
	multi       map[string]*entry.Entry
	restored    map[string]bool // Multi-selected keys loaded from a snapshot

	stats Stats
	subs  []*subscriber

	confirmed bool
	accepted  []*entry.Entry
}

// New creates an idle picker with an empty prompt. Call SetPrompt or Refresh
// to start the first search.
func New(cfg Config) (*Picker, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Picker{
		cfg:      cfg,
		logger:   cfg.Logger.With("component", "picker", "source", cfg.Source),
		queue:    NewQueue(),
		manager:  entry.NewManager(cfg.Capacity),
		multi:    make(map[string]*entry.Entry),
		restored: make(map[string]bool),
	}, nil
}

// SetPrompt replaces the prompt and restarts the search. Every call performs
// exactly one restart.
func (p *Picker) SetPrompt(text string) error {
	if p.state == StateClosed {
		return ErrClosed
	}
	p.prompt = text
	p.restart()
	return nil
}

// Refresh restarts the search for the current prompt.
func (p *Picker) Refresh() error {
	return p.SetPrompt(p.prompt)
}

// Stop cancels the outstanding search and keeps the results produced so far.
func (p *Picker) Stop() {
	if p.state != StateSearching {
		return
	}
	p.cancelHandle()
	p.state = StateIdle
	// Only candidates emitted before the cancel can be queued now.
	p.Drain()
}

func (p *Picker) restart() {
	p.cancelHandle()

	p.generation++
	gen := p.generation
	p.seq = 0
	p.err = nil
	p.manager.Reset()
	p.stats = Stats{Generation: gen, StaleDropped: p.stats.StaleDropped, ExitCode: -1}
	p.state = StateSearching
	p.markDirty()

	p.logger.Debug("search started", "generation", gen, "prompt", p.prompt)

	h, err := p.cfg.Finder.Invoke(finder.Request{Prompt: p.prompt, Generation: gen}, finder.Callbacks{
		OnEntry: func(g uint64, c entry.Candidate) {
			p.queue.Post(func() { p.onEntry(g, c) })
		},
		OnComplete: func(g uint64, res finder.Result) {
			p.queue.Post(func() { p.onComplete(g, res) })
		},
	})
	if err != nil {
		p.fail(err)
		return
	}
	// A synchronous finder may already have completed; its completion is
	// still queued, so the handle is kept until then.
	p.handle = h
}

func (p *Picker) cancelHandle() {
	if p.handle != nil {
		p.handle.Cancel()
		p.handle = nil
	}
}

func (p *Picker) fail(err error) {
	p.state = StateIdle
	p.err = err
	p.logger.Warn("search failed", "generation", p.generation, "error", err)
	p.publish(Event{Kind: EventError, Err: err})
}

func (p *Picker) onEntry(gen uint64, c entry.Candidate) {
	if gen != p.generation {
		p.stats.StaleDropped++
		return
	}
	p.stats.Received++

	s, spans := p.cfg.Sorter.Score(p.prompt, c)
	if score.IsRejected(s) {
		p.stats.Rejected++
		return
	}
	e := &entry.Entry{
		Candidate:  c,
		Score:      s,
		Spans:      spans,
		Generation: gen,
		Index:      p.seq,
	}
	p.seq++

	if _, ok := p.manager.Add(e); ok {
		p.rebindRestored(e)
		p.markDirty()
	}
}

func (p *Picker) onComplete(gen uint64, res finder.Result) {
	if gen != p.generation {
		return
	}
	p.handle = nil
	p.state = StateIdle
	p.stats.Dropped = res.Dropped
	p.stats.ExitCode = res.ExitCode
	p.stats.Slow = res.Slow
	if res.Err != nil {
		p.logger.Warn("finder stream error", "generation", gen, "error", res.Err)
	}
	p.logger.Debug("search completed",
		"generation", gen,
		"results", p.manager.NumResults(),
		"considered", p.manager.Considered(),
		"elapsed", res.Elapsed,
	)
	if p.dirty {
		p.flush()
	}
	p.publish(Event{Kind: EventCompleted, Result: res})
}

func (p *Picker) markDirty() {
	if p.dirty {
		return
	}
	p.dirty = true
	p.queue.Post(p.flush)
}

func (p *Picker) flush() {
	if !p.dirty || p.state == StateClosed {
		return
	}
	p.dirty = false
	p.resolveSelection()
	p.publish(Event{Kind: EventResultsChanged})
}

// Drain applies all queued finder callbacks and scheduled refreshes.
func (p *Picker) Drain() int {
	return p.queue.Drain()
}

// Done is closed when the picker is closed.
func (p *Picker) Done() <-chan struct{} {
	return p.queue.Done()
}

// Wake is signalled when work is queued for Drain.
func (p *Picker) Wake() <-chan struct{} {
	return p.queue.Ready()
}

// Do runs fn on the controller context. It is safe to call from any
// goroutine and returns false if the picker is closed.
func (p *Picker) Do(fn func(*Picker)) bool {
	return p.queue.Post(func() { fn(p) })
}

// Settle drains the queue until the current search is no longer running.
func (p *Picker) Settle(ctx context.Context) error {
	for {
		p.Drain()
		if p.state != StateSearching {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.queue.Ready():
		}
	}
}

// Run makes the calling goroutine the controller until ctx is done or the
// picker is closed.
func (p *Picker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.queue.Done():
			return nil
		case <-p.queue.Ready():
			p.Drain()
		}
	}
}

// Close cancels the search and releases the finder. Pending callbacks are
// discarded.
func (p *Picker) Close() error {
	if p.state == StateClosed {
		return nil
	}
	p.cancelHandle()
	p.state = StateClosed
	p.queue.Close()
	p.manager.Reset()
	p.logger.Debug("picker closed", "generation", p.generation)

	if c, ok := p.cfg.Finder.(finder.Closer); ok {
		return c.Close()
	}
	return nil
}

// Prompt returns the current prompt.
func (p *Picker) Prompt() string { return p.prompt }

// Generation returns the current search generation.
func (p *Picker) Generation() uint64 { return p.generation }

// State returns the lifecycle state.
func (p *Picker) State() State { return p.state }

// Err returns the error of the last failed search start, if any.
func (p *Picker) Err() error { return p.err }

// Source returns the configured source name.
func (p *Picker) Source() string { return p.cfg.Source }

// NumResults returns the number of ranked entries.
func (p *Picker) NumResults() int { return p.manager.NumResults() }

// Get returns the entry at rank.
func (p *Picker) Get(rank int) (*entry.Entry, bool) { return p.manager.Get(rank) }

// Manager exposes the ranked set for readers on other goroutines.
func (p *Picker) Manager() *entry.Manager { return p.manager }

// Stats returns diagnostics for the current generation.
func (p *Picker) Stats() Stats {
	s := p.stats
	s.Considered = p.manager.Considered()
	s.Results = p.manager.NumResults()
	return s
}
