package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/runger/sieve/internal/config"
	"github.com/runger/sieve/internal/history"
	"github.com/runger/sieve/internal/log"
)

// ErrCancelled is returned when the user leaves the picker without
// confirming a selection.
var ErrCancelled = errors.New("cancelled")

// app bundles what every command needs: configuration, paths and a logger.
type app struct {
	cfg    *config.Config
	paths  *config.Paths
	logger *slog.Logger

	logFile io.Closer
}

// loadApp loads the configuration and builds the logger. Records go to the
// log file: the picker owns the terminal and stdout carries the results.
func loadApp(command string) (*app, error) {
	paths := config.DefaultPaths()
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	a := &app{cfg: cfg, paths: paths}

	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logCfg := log.DefaultConfig()
	logCfg.Level = level
	logCfg.Debug = log.DebugEnabled()
	f, err := log.OpenFile(cfg.LogPath(paths))
	if err != nil {
		// Logging must never keep the picker from running.
		logCfg.Output = io.Discard
	} else {
		logCfg.Output = f
		a.logFile = f
	}
	a.logger = log.New(logCfg)

	log.LogStartup(a.logger, log.StartupInfo{
		Version:     Version,
		Command:     command,
		ConfigPath:  paths.ConfigFile(),
		HistoryPath: cfg.HistoryPath(paths),
		PID:         os.Getpid(),
	})
	return a, nil
}

// openHistory opens the prompt history, or returns nil when it is disabled
// or unavailable.
func (a *app) openHistory() *history.Store {
	if !a.cfg.History.Enabled {
		return nil
	}
	store, err := history.Open(a.cfg.HistoryPath(a.paths), a.cfg.History.MaxEntries)
	if err != nil {
		log.LogHistoryError(a.logger, "open", err)
		return nil
	}
	return store
}

// recorder returns a RecordPrompt hook appending to store.
func (a *app) recorder(store *history.Store, source string) func(string) error {
	if store == nil {
		return nil
	}
	return func(prompt string) error {
		_, err := store.Append(context.Background(), source, prompt)
		return err
	}
}

func (a *app) close() {
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}
