package finder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"golang.org/x/sys/execabs"

	"github.com/runger/sieve/internal/entry"
)

// Process is a streaming finder. Every Invoke terminates the previous
// producer and spawns a new one with the prompt substituted into its
// arguments.
type Process struct {
	cfg ProcessConfig

	mu      sync.Mutex
	current *processHandle
}

// NewProcess validates cfg and returns a streaming finder.
func NewProcess(cfg ProcessConfig) (*Process, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Process{cfg: cfg}, nil
}

// Invoke implements Finder.
func (p *Process) Invoke(req Request, cb Callbacks) (Handle, error) {
	p.mu.Lock()
	prev := p.current
	p.current = nil
	p.mu.Unlock()
	if prev != nil {
		prev.Cancel()
	}

	if utf8.RuneCountInString(req.Prompt) < p.cfg.MinPromptLen {
		cb.complete(req.Generation, Result{ExitCode: -1})
		return newDoneHandle(req.Generation), nil
	}

	base, err := p.cfg.resolve()
	if err != nil {
		return nil, err
	}
	argv := p.cfg.argv(base, req.Prompt)

	h, stdout, err := startProcess(&p.cfg, req.Generation, argv)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.current = h
	p.mu.Unlock()

	go h.run(stdout, p.cfg.Maker, p.cfg.Timeout, cb)
	return h, nil
}

// Close terminates the running producer, if any, and waits for it.
func (p *Process) Close() error {
	p.mu.Lock()
	h := p.current
	p.current = nil
	p.mu.Unlock()
	if h != nil {
		h.Cancel()
		<-h.Done()
	}
	return nil
}

// processHandle owns one producer process.
type processHandle struct {
	gen    uint64
	cmd    *exec.Cmd
	stderr *tailBuffer
	grace  time.Duration
	cfg    *ProcessConfig
	start  time.Time

	mu        sync.Mutex
	cancelled bool

	slow atomic.Bool
	done chan struct{}
}

// startProcess spawns argv in its own process group.
func startProcess(cfg *ProcessConfig, gen uint64, argv []string) (*processHandle, io.ReadCloser, error) {
	cmd := execabs.Command(argv[0], argv[1:]...)
	cmd.Dir = cfg.Dir
	cmd.Env = cfg.environ()
	stderr := &tailBuffer{max: maxStderrBytes}
	cmd.Stderr = stderr
	cmd.WaitDelay = cfg.Grace
	setProcessGroup(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrSpawn, argv[0], err)
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrSpawn, argv[0], err)
	}

	cfg.Logger.Debug("producer started",
		"generation", gen,
		"pid", cmd.Process.Pid,
		"argv", argv,
	)

	return &processHandle{
		gen:    gen,
		cmd:    cmd,
		stderr: stderr,
		grace:  cfg.Grace,
		cfg:    cfg,
		start:  time.Now(),
		done:   make(chan struct{}),
	}, stdout, nil
}

func (h *processHandle) Generation() uint64    { return h.gen }
func (h *processHandle) Done() <-chan struct{} { return h.done }

// Cancel terminates the process group and, after the grace period, kills it.
func (h *processHandle) Cancel() {
	h.mu.Lock()
	if h.cancelled {
		h.mu.Unlock()
		return
	}
	h.cancelled = true
	h.mu.Unlock()

	select {
	case <-h.done:
		return
	default:
	}

	_ = terminateProcess(h.cmd)
	go func() {
		timer := time.NewTimer(h.grace)
		defer timer.Stop()
		select {
		case <-h.done:
		case <-timer.C:
			_ = killProcess(h.cmd)
		}
	}()
}

// emit runs fn unless the handle is cancelled. Holding the lock during fn
// guarantees nothing is emitted once Cancel has returned.
func (h *processHandle) emit(fn func()) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancelled {
		return false
	}
	fn()
	return true
}

func (h *processHandle) isCancelled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cancelled
}

// run reads the producer's output until EOF, then reaps it.
func (h *processHandle) run(stdout io.ReadCloser, mk entry.Maker, timeout time.Duration, cb Callbacks) {
	defer close(h.done)

	if timeout > 0 {
		timer := time.AfterFunc(timeout, func() {
			if h.isCancelled() {
				return
			}
			h.slow.Store(true)
			h.cfg.Logger.Warn("producer is slow",
				"generation", h.gen,
				"timeout", timeout,
			)
		})
		defer timer.Stop()
	}

	res := Result{ExitCode: -1}
	res.Emitted, res.Dropped, res.Err = scanLines(stdout, mk, func(c entry.Candidate) bool {
		return h.emit(func() { cb.entry(h.gen, c) })
	})

	// Unblock the producer if we stopped reading early.
	_, _ = io.Copy(io.Discard, stdout)

	waitErr := h.cmd.Wait()
	res.ExitCode = exitCode(h.cmd, waitErr)
	res.Stderr = h.stderr.String()
	res.Elapsed = time.Since(h.start)
	res.Slow = h.slow.Load()

	if h.isCancelled() {
		h.cfg.Logger.Debug("producer cancelled", "generation", h.gen, "elapsed", res.Elapsed)
		return
	}

	if res.ExitCode != 0 && res.Emitted == 0 {
		h.cfg.Logger.Info("producer exited without output",
			"generation", h.gen,
			"exit_code", res.ExitCode,
			"stderr", res.Stderr,
		)
	}
	h.emit(func() { cb.complete(h.gen, res) })
}

// scanLines feeds every line of r through mk and hands accepted candidates
// to emit until emit returns false. Lines longer than maxLineBytes are
// skipped and counted as dropped; reading continues with the next line.
func scanLines(r io.Reader, mk entry.Maker, emit func(entry.Candidate) bool) (emitted, dropped int, err error) {
	br := bufio.NewReaderSize(r, 64*1024)
	var (
		line     []byte
		skipping bool
	)
	for {
		chunk, readErr := br.ReadSlice('\n')
		if !skipping {
			line = append(line, chunk...)
			// Room for a trailing "\r\n".
			if len(line) > maxLineBytes+2 {
				skipping = true
				line = line[:0]
			}
		}
		if errors.Is(readErr, bufio.ErrBufferFull) {
			continue
		}

		switch {
		case skipping:
			dropped++
			skipping = false
		case len(line) > 0:
			text := strings.TrimSuffix(strings.TrimSuffix(string(line), "\n"), "\r")
			line = line[:0]
			if len(text) > maxLineBytes {
				dropped++
				break
			}
			c, ok := mk(text)
			if !ok {
				dropped++
				break
			}
			if !emit(c) {
				return emitted, dropped, nil
			}
			emitted++
		}

		if readErr == nil {
			continue
		}
		if errors.Is(readErr, io.EOF) || errors.Is(readErr, io.ErrClosedPipe) {
			return emitted, dropped, nil
		}
		return emitted, dropped, fmt.Errorf("read producer output: %w", readErr)
	}
}

// exitCode extracts the exit status from a Wait error.
func exitCode(cmd *exec.Cmd, err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	return -1
}
