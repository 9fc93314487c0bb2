package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/runger/sieve/internal/config"
)

// withTestEnv points every XDG directory at a temporary home, clears SIEVE_*
// overrides and disables colors. It returns the resulting paths.
func withTestEnv(t *testing.T) *config.Paths {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, "data"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(home, "cache"))
	for _, name := range []string{"SIEVE_DEBUG", "SIEVE_LOG_LEVEL", "SIEVE_CAPACITY", "SIEVE_HISTORY_DB"} {
		t.Setenv(name, "")
	}

	oldMode := colorMode
	colorMode = "never"
	applyColorMode()
	t.Cleanup(func() {
		colorMode = oldMode
		applyColorMode()
	})

	return config.DefaultPaths()
}

// writeConfig saves cfg where config.Load finds it.
func writeConfig(t *testing.T, paths *config.Paths, cfg *config.Config) {
	t.Helper()
	if err := cfg.SaveToFile(paths.ConfigFile()); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}
}

type filterGlobals struct {
	source string
	prompt string
	limit  int
	scores bool
}

func withFilterGlobals(t *testing.T, g filterGlobals) {
	t.Helper()
	old := filterGlobals{source: filterSource, prompt: filterPrompt, limit: filterLimit, scores: filterScores}
	filterSource = g.source
	filterPrompt = g.prompt
	filterLimit = g.limit
	filterScores = g.scores
	t.Cleanup(func() {
		filterSource = old.source
		filterPrompt = old.prompt
		filterLimit = old.limit
		filterScores = old.scores
	})
}

type pickGlobals struct {
	prompt string
	resume bool
}

func withPickGlobals(t *testing.T, g pickGlobals) {
	t.Helper()
	old := pickGlobals{prompt: pickPrompt, resume: pickResume}
	pickPrompt = g.prompt
	pickResume = g.resume
	t.Cleanup(func() {
		pickPrompt = old.prompt
		pickResume = old.resume
	})
}

func withHistoryGlobals(t *testing.T, source string, limit int) {
	t.Helper()
	oldSource, oldLimit := historySource, historyLimit
	historySource = source
	historyLimit = limit
	t.Cleanup(func() {
		historySource = oldSource
		historyLimit = oldLimit
	})
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe() failed: %v", err)
	}
	os.Stdout = w

	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		outC <- buf.String()
	}()

	fn()
	_ = w.Close()
	os.Stdout = old
	out := <-outC
	_ = r.Close()
	return out
}
