// Package finder provides the candidate sources of the selection pipeline.
//
// A Finder is invoked once per search generation. It reports candidates and
// a final Result through Callbacks, tagging each with the generation of the
// request. Callbacks may be called from any goroutine; consumers are expected
// to marshal them onto their own controller context.
//
// Three finders are provided:
//   - Static replays a fixed list of candidates.
//   - Process spawns a command per prompt and streams its output, terminating
//     the previous command on every new invocation.
//   - Oneshot spawns a command once and replays its accumulated output to
//     every invocation.
package finder

import (
	"errors"
	"time"

	"github.com/runger/sieve/internal/entry"
)

var (
	// ErrNoProducer is returned when none of the configured commands is
	// executable.
	ErrNoProducer = errors.New("no candidate producer available")

	// ErrSpawn is returned when the producer process fails to start.
	ErrSpawn = errors.New("failed to spawn producer")

	// ErrInvalidConfig is returned for configurations rejected at construction.
	ErrInvalidConfig = errors.New("invalid finder config")
)

// Request describes one search generation.
type Request struct {
	Prompt     string
	Generation uint64
}

// Callbacks receive the output of an invocation. After the handle is
// cancelled neither callback is called again for that generation.
type Callbacks struct {
	OnEntry    func(generation uint64, c entry.Candidate)
	OnComplete func(generation uint64, res Result)
}

func (cb Callbacks) entry(gen uint64, c entry.Candidate) {
	if cb.OnEntry != nil {
		cb.OnEntry(gen, c)
	}
}

func (cb Callbacks) complete(gen uint64, res Result) {
	if cb.OnComplete != nil {
		cb.OnComplete(gen, res)
	}
}

// Result summarizes a finished invocation.
type Result struct {
	// Emitted is the number of candidates delivered through OnEntry.
	Emitted int

	// Dropped is the number of lines the Maker rejected.
	Dropped int

	// ExitCode is the producer's exit status, or -1 when no process ran.
	ExitCode int

	// Stderr holds the tail of the producer's standard error.
	Stderr string

	// Elapsed is the wall-clock duration of the invocation.
	Elapsed time.Duration

	// Slow is set when the invocation outlived the configured timeout.
	Slow bool

	// Err is a non-fatal stream error (for example an over-long line).
	Err error
}

// Handle tracks one invocation.
type Handle interface {
	// Generation returns the generation the handle was invoked with.
	Generation() uint64

	// Cancel stops the invocation. It is idempotent. Once Cancel returns no
	// callback for this handle runs again.
	Cancel()

	// Done is closed when the invocation has fully stopped.
	Done() <-chan struct{}
}

// Finder is a candidate source.
type Finder interface {
	Invoke(req Request, cb Callbacks) (Handle, error)
}

// Closer is implemented by finders holding resources beyond a single
// invocation.
type Closer interface {
	Close() error
}

// doneHandle is the handle of an invocation that completed synchronously.
type doneHandle struct {
	gen  uint64
	done chan struct{}
}

func newDoneHandle(gen uint64) *doneHandle {
	h := &doneHandle{gen: gen, done: make(chan struct{})}
	close(h.done)
	return h
}

func (h *doneHandle) Generation() uint64    { return h.gen }
func (h *doneHandle) Cancel()               {}
func (h *doneHandle) Done() <-chan struct{} { return h.done }
