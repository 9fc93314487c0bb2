package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"gopkg.in/yaml.v3"
)

// Config represents the sieve configuration.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Picker   PickerConfig   `yaml:"picker"`
	History  HistoryConfig  `yaml:"history"`
	Sessions SessionsConfig `yaml:"sessions"`
	Sources  []SourceDef    `yaml:"sources"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // Log file path (overrides default)
}

// PickerConfig holds picker defaults shared by all sources.
type PickerConfig struct {
	Capacity    int    `yaml:"capacity"`     // Max ranked entries kept
	Wrap        bool   `yaml:"wrap"`         // Wrap selection past the ends
	Scorer      string `yaml:"scorer"`       // fuzzy, substring, or fuzzyfind
	StrongFirst bool   `yaml:"strong_first"` // First prompt rune must start a word (fuzzy only)
}

// HistoryConfig holds prompt history settings.
type HistoryConfig struct {
	Enabled    bool   `yaml:"enabled"`     // Record confirmed prompts
	DBPath     string `yaml:"db_path"`     // Database path (overrides default)
	MaxEntries int    `yaml:"max_entries"` // Prompts kept across all sources
}

// SessionsConfig holds resume settings.
type SessionsConfig struct {
	Max int `yaml:"max"` // Snapshots kept for resume
}

// Source kinds.
const (
	KindStatic  = "static"
	KindProcess = "process"
	KindOneshot = "oneshot"
)

// SourceDef defines a named candidate source.
type SourceDef struct {
	Name         string            `yaml:"name"`
	Kind         string            `yaml:"kind"`                   // static, process, or oneshot
	Command      string            `yaml:"command,omitempty"`      // Shell-quoted command line
	Alternatives []string          `yaml:"alternatives,omitempty"` // Fallback command lines
	Dir          string            `yaml:"dir,omitempty"`
	Env          map[string]string `yaml:"env,omitempty"`
	SearchPaths  []string          `yaml:"search_paths,omitempty"`
	MinPromptLen int               `yaml:"min_prompt_len,omitempty"`
	TimeoutMs    int               `yaml:"timeout_ms,omitempty"` // Flag slow producers (0 = off)
	Format       string            `yaml:"format,omitempty"`     // line, vimgrep, or path
	Items        []string          `yaml:"items,omitempty"`      // Static candidates (stdin when empty)
	TagOrder     []string          `yaml:"tag_order,omitempty"`  // Bucket order by candidate tag
	TagSort      string            `yaml:"tag_sort,omitempty"`   // Reorder tag_order: alpha or numeric
	Scorer       string            `yaml:"scorer,omitempty"`     // Overrides picker.scorer
}

// Argv splits Command into arguments.
func (s SourceDef) Argv() ([]string, error) {
	return splitCommand(s.Command)
}

// Commands returns Command followed by the alternatives, each split into
// arguments.
func (s SourceDef) Commands() ([][]string, error) {
	lines := append([]string{s.Command}, s.Alternatives...)
	out := make([][]string, 0, len(lines))
	for _, line := range lines {
		argv, err := splitCommand(line)
		if err != nil {
			return nil, err
		}
		out = append(out, argv)
	}
	return out, nil
}

func splitCommand(line string) ([]string, error) {
	argv, err := shlex.Split(line)
	if err != nil {
		return nil, fmt.Errorf("failed to parse command %q: %w", line, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	return argv, nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
			File:  "", // Use default from paths
		},
		Picker: PickerConfig{
			Capacity:    1000,
			Wrap:        false,
			Scorer:      "fuzzy",
			StrongFirst: true,
		},
		History: HistoryConfig{
			Enabled:    true,
			DBPath:     "", // Use default from paths
			MaxEntries: 1000,
		},
		Sessions: SessionsConfig{
			Max: 10,
		},
		Sources: DefaultSources(),
	}
}

// DefaultSources returns the built-in sources.
func DefaultSources() []SourceDef {
	return []SourceDef{
		{
			Name:         "files",
			Kind:         KindOneshot,
			Command:      "fd --type f --color never",
			Alternatives: []string{"find . -type f -not -path '*/.git/*'"},
			Format:       "path",
		},
		{
			Name:         "grep",
			Kind:         KindProcess,
			Command:      "rg --vimgrep --color never --smart-case -- {prompt}",
			Alternatives: []string{"git grep -n --column -I -- {prompt}"},
			Format:       "vimgrep",
			MinPromptLen: 1,
			TimeoutMs:    2000,
		},
		{
			Name:   "lines",
			Kind:   KindStatic,
			Format: "line",
		},
	}
}

// Load loads configuration from the default path.
func Load() (*Config, error) {
	paths := DefaultPaths()
	return LoadFromFile(paths.ConfigFile())
}

// LoadFromFile loads configuration from the specified file.
// If the file doesn't exist, returns default configuration.
// Environment variable overrides are applied after file loading.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Sources configured in the file replace the defaults as a whole.
	cfg.Sources = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.Sources == nil {
		cfg.Sources = DefaultSources()
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Save saves the configuration to the default path.
func (c *Config) Save() error {
	paths := DefaultPaths()
	return c.SaveToFile(paths.ConfigFile())
}

// SaveToFile saves the configuration to the specified file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Source returns the source named name.
func (c *Config) Source(name string) (SourceDef, bool) {
	for _, s := range c.Sources {
		if s.Name == name {
			return s, true
		}
	}
	return SourceDef{}, false
}

// HistoryPath returns the configured history database, or the default one.
func (c *Config) HistoryPath(paths *Paths) string {
	if c.History.DBPath != "" {
		return c.History.DBPath
	}
	return paths.DatabaseFile()
}

// LogPath returns the configured log file, or the default one.
func (c *Config) LogPath(paths *Paths) string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return paths.LogFile()
}

// Get retrieves a configuration value by dot-separated key.
// For example: "picker.capacity" or "history.enabled"
func (c *Config) Get(key string) (string, error) {
	section, field, err := splitKey(key)
	if err != nil {
		return "", err
	}

	switch section {
	case "log":
		switch field {
		case "level":
			return c.Log.Level, nil
		case "file":
			return c.Log.File, nil
		}
	case "picker":
		switch field {
		case "capacity":
			return strconv.Itoa(c.Picker.Capacity), nil
		case "wrap":
			return strconv.FormatBool(c.Picker.Wrap), nil
		case "scorer":
			return c.Picker.Scorer, nil
		case "strong_first":
			return strconv.FormatBool(c.Picker.StrongFirst), nil
		}
	case "history":
		switch field {
		case "enabled":
			return strconv.FormatBool(c.History.Enabled), nil
		case "db_path":
			return c.History.DBPath, nil
		case "max_entries":
			return strconv.Itoa(c.History.MaxEntries), nil
		}
	case "sessions":
		if field == "max" {
			return strconv.Itoa(c.Sessions.Max), nil
		}
	default:
		return "", fmt.Errorf("unknown section: %s", section)
	}
	return "", fmt.Errorf("unknown field: %s.%s", section, field)
}

// Set sets a configuration value by dot-separated key.
func (c *Config) Set(key, value string) error {
	section, field, err := splitKey(key)
	if err != nil {
		return err
	}

	switch section {
	case "log":
		switch field {
		case "level":
			if !isValidLogLevel(value) {
				return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", value)
			}
			c.Log.Level = value
			return nil
		case "file":
			c.Log.File = value
			return nil
		}
	case "picker":
		switch field {
		case "capacity":
			return setInt(&c.Picker.Capacity, key, value)
		case "wrap":
			return setBool(&c.Picker.Wrap, key, value)
		case "scorer":
			if !isValidScorer(value) {
				return fmt.Errorf("invalid scorer: %s (must be fuzzy, fuzzy-weak, substring, or fuzzyfind)", value)
			}
			c.Picker.Scorer = value
			return nil
		case "strong_first":
			return setBool(&c.Picker.StrongFirst, key, value)
		}
	case "history":
		switch field {
		case "enabled":
			return setBool(&c.History.Enabled, key, value)
		case "db_path":
			c.History.DBPath = value
			return nil
		case "max_entries":
			return setInt(&c.History.MaxEntries, key, value)
		}
	case "sessions":
		if field == "max" {
			return setInt(&c.Sessions.Max, key, value)
		}
	default:
		return fmt.Errorf("unknown section: %s", section)
	}
	return fmt.Errorf("unknown field: %s.%s", section, field)
}

func splitKey(key string) (string, string, error) {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return "", "", errors.New("key must be in format 'section.key'")
	}
	return parts[0], parts[1], nil
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if n < 0 {
		return fmt.Errorf("%s must be >= 0", key)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dst = b
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !isValidLogLevel(c.Log.Level) {
		return fmt.Errorf("log.level must be debug, info, warn, or error (got: %s)", c.Log.Level)
	}

	if c.Picker.Capacity < 0 {
		return errors.New("picker.capacity must be >= 0")
	}

	if !isValidScorer(c.Picker.Scorer) {
		return fmt.Errorf("picker.scorer must be fuzzy, fuzzy-weak, substring, or fuzzyfind (got: %s)", c.Picker.Scorer)
	}

	if c.History.MaxEntries < 0 {
		return errors.New("history.max_entries must be >= 0")
	}

	if c.Sessions.Max < 0 {
		return errors.New("sessions.max must be >= 0")
	}

	seen := make(map[string]bool, len(c.Sources))
	for i, s := range c.Sources {
		if err := s.validate(); err != nil {
			return fmt.Errorf("sources[%d]: %w", i, err)
		}
		if seen[s.Name] {
			return fmt.Errorf("sources[%d]: duplicate name %q", i, s.Name)
		}
		seen[s.Name] = true
	}

	return nil
}

func (s SourceDef) validate() error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	switch s.Kind {
	case KindStatic:
	case KindProcess, KindOneshot:
		if _, err := s.Commands(); err != nil {
			return fmt.Errorf("%s: command: %w", s.Name, err)
		}
	default:
		return fmt.Errorf("%s: kind must be static, process, or oneshot (got: %s)", s.Name, s.Kind)
	}
	if !isValidFormat(s.Format) {
		return fmt.Errorf("%s: format must be line, vimgrep, or path (got: %s)", s.Name, s.Format)
	}
	if s.Scorer != "" && !isValidScorer(s.Scorer) {
		return fmt.Errorf("%s: scorer must be fuzzy, fuzzy-weak, substring, or fuzzyfind (got: %s)", s.Name, s.Scorer)
	}
	switch s.TagSort {
	case "", "alpha", "numeric":
	default:
		return fmt.Errorf("%s: tag_sort must be alpha or numeric (got: %s)", s.Name, s.TagSort)
	}
	if s.MinPromptLen < 0 {
		return fmt.Errorf("%s: min_prompt_len must be >= 0", s.Name)
	}
	if s.TimeoutMs < 0 {
		return fmt.Errorf("%s: timeout_ms must be >= 0", s.Name)
	}
	return nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func isValidScorer(name string) bool {
	switch name {
	case "fuzzy", "fuzzy-weak", "substring", "fuzzyfind":
		return true
	default:
		return false
	}
}

func isValidFormat(format string) bool {
	switch format {
	case "", "line", "vimgrep", "path":
		return true
	default:
		return false
	}
}

// ApplyEnvOverrides applies environment variable overrides to the config.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("SIEVE_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil && b {
			c.Log.Level = "debug"
		}
	}
	if v := os.Getenv("SIEVE_LOG_LEVEL"); v != "" {
		if isValidLogLevel(v) {
			c.Log.Level = v
		}
	}
	if v := os.Getenv("SIEVE_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Picker.Capacity = n
		}
	}
	if v := os.Getenv("SIEVE_HISTORY_DB"); v != "" {
		c.History.DBPath = v
	}
}

// ListKeys returns user-facing configuration keys.
func ListKeys() []string {
	return []string{
		"log.level",
		"log.file",
		"picker.capacity",
		"picker.wrap",
		"picker.scorer",
		"picker.strong_first",
		"history.enabled",
		"history.db_path",
		"history.max_entries",
		"sessions.max",
	}
}
