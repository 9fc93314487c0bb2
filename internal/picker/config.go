package picker

import (
	"fmt"
	"log/slog"

	"github.com/runger/sieve/internal/entry"
	"github.com/runger/sieve/internal/finder"
	"github.com/runger/sieve/internal/score"
)

// Config configures a Picker.
type Config struct {
	// Finder produces candidates. Required.
	Finder finder.Finder

	// Sorter ranks candidates. Defaults to the fuzzy scorer over ordinals.
	Sorter entry.Sorter

	// Capacity bounds the ranked set. Defaults to entry.DefaultCapacity.
	Capacity int

	// Wrap makes MoveSelection wrap around the ends of the ranked set
	// instead of clamping.
	Wrap bool

	// Source names the finder in snapshots and logs.
	Source string

	// Logger defaults to a discarding logger.
	Logger *slog.Logger

	// Actions defaults to DefaultActions().
	Actions *Actions

	// RecordPrompt, if set, is called with the prompt when a selection is
	// confirmed.
	RecordPrompt func(prompt string) error
}

func (c *Config) validate() error {
	if c.Finder == nil {
		return fmt.Errorf("%w: finder is required", finder.ErrInvalidConfig)
	}
	if c.Capacity < 0 {
		return fmt.Errorf("%w: capacity must be >= 0, got %d", finder.ErrInvalidConfig, c.Capacity)
	}
	if c.Sorter == nil {
		c.Sorter = entry.NewSorter(score.NewFuzzy())
	}
	if c.Capacity == 0 {
		c.Capacity = entry.DefaultCapacity
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	if c.Actions == nil {
		c.Actions = DefaultActions()
	}
	return nil
}
