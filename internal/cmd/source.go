package cmd

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/runger/sieve/internal/config"
	"github.com/runger/sieve/internal/entry"
	"github.com/runger/sieve/internal/finder"
	"github.com/runger/sieve/internal/picker"
	"github.com/runger/sieve/internal/score"
)

// maxStdinLine bounds a single candidate line read from stdin.
const maxStdinLine = 1 << 20

// lookupSource returns the named source, listing the known ones on failure.
func lookupSource(cfg *config.Config, name string) (config.SourceDef, error) {
	if def, ok := cfg.Source(name); ok {
		return def, nil
	}
	names := make([]string, 0, len(cfg.Sources))
	for _, s := range cfg.Sources {
		names = append(names, s.Name)
	}
	return config.SourceDef{}, fmt.Errorf("unknown source %q (available: %s)", name, strings.Join(names, ", "))
}

// buildFinder creates the finder for def. Static sources without items read
// their candidates from stdin.
func buildFinder(def config.SourceDef, stdin io.Reader, logger *slog.Logger) (finder.Finder, error) {
	dir := def.Dir
	if dir == "" {
		if wd, err := os.Getwd(); err == nil {
			dir = wd
		}
	}
	mk, ok := entry.MakerByName(def.Format, dir)
	if !ok {
		return nil, fmt.Errorf("%w: unknown format %q", finder.ErrInvalidConfig, def.Format)
	}

	switch def.Kind {
	case config.KindStatic:
		items := def.Items
		if len(items) == 0 && stdin != nil {
			lines, err := readLines(stdin)
			if err != nil {
				return nil, err
			}
			items = lines
		}
		return finder.NewStaticLines(items, mk), nil

	case config.KindProcess, config.KindOneshot:
		cmds, err := def.Commands()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", finder.ErrInvalidConfig, err)
		}
		pc := finder.ProcessConfig{
			Commands:     cmds,
			Dir:          def.Dir,
			Env:          def.Env,
			SearchPaths:  def.SearchPaths,
			MinPromptLen: def.MinPromptLen,
			Timeout:      time.Duration(def.TimeoutMs) * time.Millisecond,
			Maker:        mk,
			Logger:       logger.With("component", "finder", "source", def.Name),
		}
		if def.Kind == config.KindOneshot {
			return finder.NewOneshot(pc)
		}
		return finder.NewProcess(pc)
	}
	return nil, fmt.Errorf("%w: unknown kind %q", finder.ErrInvalidConfig, def.Kind)
}

// buildSorter returns the scorer named by the source, or the picker default,
// bucketed by tag when the source defines a tag order.
func buildSorter(def config.SourceDef, pc config.PickerConfig) (entry.Sorter, error) {
	name := scorerName(def, pc)
	s, ok := score.ByName(name)
	if !ok {
		return nil, fmt.Errorf("unknown scorer %q", name)
	}
	if f, ok := s.(score.Fuzzy); ok && name != "fuzzy-weak" {
		f.StrongFirst = pc.StrongFirst
		s = f
	}

	if len(def.TagOrder) > 0 {
		return entry.NewBucketSorter(s, tagBuckets(def)), nil
	}
	return entry.NewSorter(s), nil
}

// scorerName returns the scorer a source ranks with.
func scorerName(def config.SourceDef, pc config.PickerConfig) string {
	if def.Scorer != "" {
		return def.Scorer
	}
	return pc.Scorer
}

// tagBuckets ranks tags in tag_order, reordered when tag_sort is set.
func tagBuckets(def config.SourceDef) entry.BucketFunc {
	switch def.TagSort {
	case "alpha":
		return entry.TagLess(func(a, b string) bool { return a < b }, def.TagOrder...)
	case "numeric":
		return entry.TagLess(func(a, b string) bool {
			x, errA := strconv.ParseFloat(a, 64)
			y, errB := strconv.ParseFloat(b, 64)
			if errA != nil || errB != nil {
				// Numbers before words, words alphabetically.
				if (errA == nil) != (errB == nil) {
					return errA == nil
				}
				return a < b
			}
			return x < y
		}, def.TagOrder...)
	}
	return entry.TagOrder(def.TagOrder...)
}

// newPicker builds a picker over the named source.
func newPicker(a *app, def config.SourceDef, stdin io.Reader, record func(string) error) (*picker.Picker, error) {
	f, err := buildFinder(def, stdin, a.logger)
	if err != nil {
		return nil, err
	}
	sorter, err := buildSorter(def, a.cfg.Picker)
	if err != nil {
		return nil, err
	}
	return picker.New(picker.Config{
		Finder:       f,
		Sorter:       sorter,
		Capacity:     a.cfg.Picker.Capacity,
		Wrap:         a.cfg.Picker.Wrap,
		Source:       def.Name,
		Logger:       a.logger,
		RecordPrompt: record,
	})
}

// readLines reads every line of r.
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStdinLine)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read candidates: %w", err)
	}
	return lines, nil
}
