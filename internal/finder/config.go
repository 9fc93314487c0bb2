package finder

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"golang.org/x/sys/execabs"

	"github.com/runger/sieve/internal/entry"
)

const (
	// DefaultPlaceholder is replaced by the prompt in command arguments.
	DefaultPlaceholder = "{prompt}"

	// DefaultGrace is how long a terminated producer may take to exit
	// before it is killed.
	DefaultGrace = 500 * time.Millisecond

	// maxLineBytes bounds a single producer line.
	maxLineBytes = 1 << 20

	// maxStderrBytes bounds the captured standard error tail.
	maxStderrBytes = 4096
)

// ProcessConfig configures Process and Oneshot finders. Commands are
// supplied fully formed; the finder never builds tool-specific flags.
type ProcessConfig struct {
	// Commands lists alternative argv vectors. The first whose program is
	// found on PATH is used.
	Commands [][]string

	// Dir is the working directory of the producer.
	Dir string

	// Env overrides variables of the inherited environment.
	Env map[string]string

	// SearchPaths are appended after the prompt.
	SearchPaths []string

	// Placeholder is substituted with the prompt in every argument.
	// When no argument contains it, the prompt is appended. Oneshot
	// finders ignore it.
	Placeholder string

	// MinPromptLen short-circuits prompts with fewer runes to an empty
	// result without spawning.
	MinPromptLen int

	// Timeout flags invocations running longer as slow. Zero disables it.
	Timeout time.Duration

	// Grace is the delay between SIGTERM and SIGKILL on cancellation.
	Grace time.Duration

	// Maker converts output lines to candidates. Defaults to entry.LineMaker.
	Maker entry.Maker

	// Logger receives spawn, exit and slow-scan records.
	Logger *slog.Logger
}

// validate checks the config and fills defaults.
func (c *ProcessConfig) validate() error {
	if len(c.Commands) == 0 {
		return fmt.Errorf("%w: no commands configured", ErrInvalidConfig)
	}
	for i, argv := range c.Commands {
		if len(argv) == 0 || argv[0] == "" {
			return fmt.Errorf("%w: command %d is empty", ErrInvalidConfig, i)
		}
	}
	if c.MinPromptLen < 0 {
		return fmt.Errorf("%w: min prompt length must be >= 0", ErrInvalidConfig)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: timeout must be >= 0", ErrInvalidConfig)
	}
	if c.Placeholder == "" {
		c.Placeholder = DefaultPlaceholder
	}
	if c.Grace <= 0 {
		c.Grace = DefaultGrace
	}
	if c.Maker == nil {
		c.Maker = entry.LineMaker
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	return nil
}

// resolve returns the first command alternative whose program is executable,
// with the program replaced by its resolved path.
func (c *ProcessConfig) resolve() ([]string, error) {
	names := make([]string, 0, len(c.Commands))
	for _, argv := range c.Commands {
		path, err := execabs.LookPath(argv[0])
		if err != nil {
			names = append(names, argv[0])
			continue
		}
		out := make([]string, len(argv))
		copy(out, argv)
		out[0] = path
		return out, nil
	}
	return nil, fmt.Errorf("%w: none of %s is executable", ErrNoProducer, strings.Join(names, ", "))
}

// argv substitutes prompt into argv and appends the search paths.
func (c *ProcessConfig) argv(base []string, prompt string) []string {
	out := make([]string, 0, len(base)+1+len(c.SearchPaths))
	out = append(out, base[0])
	substituted := false
	for _, arg := range base[1:] {
		if strings.Contains(arg, c.Placeholder) {
			arg = strings.ReplaceAll(arg, c.Placeholder, prompt)
			substituted = true
		}
		out = append(out, arg)
	}
	if !substituted {
		out = append(out, prompt)
	}
	return append(out, c.SearchPaths...)
}

// environ returns the process environment with overrides applied.
func (c *ProcessConfig) environ() []string {
	if len(c.Env) == 0 {
		return nil
	}
	env := os.Environ()
	keys := make([]string, 0, len(c.Env))
	for k := range c.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+c.Env[k])
	}
	return env
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	max int
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	return strings.TrimSpace(string(t.buf))
}
