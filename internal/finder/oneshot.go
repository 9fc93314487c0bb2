package finder

import (
	"io"
	"sync"
	"time"

	"github.com/runger/sieve/internal/entry"
)

// Oneshot spawns its command once, on the first Invoke, and keeps every
// candidate it produces. Each Invoke replays the accumulated candidates and
// then follows new ones until the command exits, so prompt edits only
// re-rank known candidates.
type Oneshot struct {
	cfg ProcessConfig

	mu       sync.Mutex
	started  bool
	proc     *processHandle
	cands    []entry.Candidate
	finished bool
	result   Result
	subs     map[*oneshotHandle]struct{}
}

// NewOneshot validates cfg and returns a oneshot finder. The command's
// arguments are used verbatim plus SearchPaths; the prompt is not
// substituted.
func NewOneshot(cfg ProcessConfig) (*Oneshot, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Oneshot{
		cfg:  cfg,
		subs: make(map[*oneshotHandle]struct{}),
	}, nil
}

// Invoke implements Finder.
func (o *Oneshot) Invoke(req Request, cb Callbacks) (Handle, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.started {
		if err := o.startLocked(); err != nil {
			return nil, err
		}
	}

	h := &oneshotHandle{
		gen:   req.Generation,
		cb:    cb,
		owner: o,
		done:  make(chan struct{}),
	}

	// Replaying under o.mu keeps replayed and live candidates in order.
	for _, c := range o.cands {
		h.emit(func() { cb.entry(h.gen, c) })
	}

	if o.finished {
		h.finish(o.result)
		return h, nil
	}
	o.subs[h] = struct{}{}
	return h, nil
}

// startLocked spawns the producer. o.mu must be held.
func (o *Oneshot) startLocked() error {
	base, err := o.cfg.resolve()
	if err != nil {
		return err
	}
	argv := append(base, o.cfg.SearchPaths...)

	proc, stdout, err := startProcess(&o.cfg, 0, argv)
	if err != nil {
		return err
	}
	o.started = true
	o.proc = proc
	go o.run(proc, stdout)
	return nil
}

// run collects the producer output and fans it out to subscribers.
func (o *Oneshot) run(proc *processHandle, stdout io.ReadCloser) {
	defer close(proc.done)

	res := Result{ExitCode: -1}
	res.Emitted, res.Dropped, res.Err = scanLines(stdout, o.cfg.Maker, func(c entry.Candidate) bool {
		if proc.isCancelled() {
			return false
		}
		o.mu.Lock()
		o.cands = append(o.cands, c)
		for h := range o.subs {
			h.emit(func() { h.cb.entry(h.gen, c) })
		}
		o.mu.Unlock()
		return true
	})
	_, _ = io.Copy(io.Discard, stdout)

	waitErr := proc.cmd.Wait()
	res.ExitCode = exitCode(proc.cmd, waitErr)
	res.Stderr = proc.stderr.String()
	res.Elapsed = time.Since(proc.start)

	o.cfg.Logger.Debug("oneshot producer finished",
		"candidates", res.Emitted,
		"dropped", res.Dropped,
		"exit_code", res.ExitCode,
		"elapsed", res.Elapsed,
	)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished = true
	o.result = res
	for h := range o.subs {
		h.finish(res)
	}
	clear(o.subs)
}

// Len returns the number of candidates collected so far.
func (o *Oneshot) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.cands)
}

// Close terminates the producer and waits for it to exit.
func (o *Oneshot) Close() error {
	o.mu.Lock()
	proc := o.proc
	o.mu.Unlock()
	if proc == nil {
		return nil
	}
	proc.Cancel()
	<-proc.Done()
	return nil
}

// oneshotHandle is one subscriber of a Oneshot producer.
type oneshotHandle struct {
	gen   uint64
	cb    Callbacks
	owner *Oneshot

	mu        sync.Mutex
	cancelled bool
	closed    bool
	done      chan struct{}
}

func (h *oneshotHandle) Generation() uint64    { return h.gen }
func (h *oneshotHandle) Done() <-chan struct{} { return h.done }

// Cancel detaches the handle; the shared producer keeps running.
func (h *oneshotHandle) Cancel() {
	h.mu.Lock()
	if h.cancelled {
		h.mu.Unlock()
		return
	}
	h.cancelled = true
	h.mu.Unlock()

	h.owner.mu.Lock()
	delete(h.owner.subs, h)
	h.owner.mu.Unlock()

	h.close()
}

func (h *oneshotHandle) emit(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.cancelled {
		fn()
	}
}

// finish delivers the completion and releases the handle.
func (h *oneshotHandle) finish(res Result) {
	h.emit(func() { h.cb.complete(h.gen, res) })
	h.close()
}

func (h *oneshotHandle) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.closed {
		h.closed = true
		close(h.done)
	}
}
