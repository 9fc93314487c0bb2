package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 1000, cfg.Picker.Capacity)
	assert.Equal(t, "fuzzy", cfg.Picker.Scorer)
	assert.True(t, cfg.Picker.StrongFirst)
	assert.False(t, cfg.Picker.Wrap)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, 1000, cfg.History.MaxEntries)
	assert.Equal(t, 10, cfg.Sessions.Max)
	require.NoError(t, cfg.Validate())

	for _, name := range []string{"files", "grep", "lines"} {
		_, ok := cfg.Source(name)
		assert.True(t, ok, name)
	}
	_, ok := cfg.Source("nope")
	assert.False(t, ok)
}

func TestSourceDef_Argv(t *testing.T) {
	s := SourceDef{Command: `rg --glob '!*.min.js' -- {prompt}`}
	argv, err := s.Argv()
	require.NoError(t, err)
	assert.Equal(t, []string{"rg", "--glob", "!*.min.js", "--", "{prompt}"}, argv)

	_, err = SourceDef{Command: "   "}.Argv()
	assert.Error(t, err)

	_, err = SourceDef{Command: `rg "unterminated`}.Argv()
	assert.Error(t, err)
}

func TestSourceDef_Commands(t *testing.T) {
	s := SourceDef{
		Command:      "fd --type f",
		Alternatives: []string{"find . -type f"},
	}
	cmds, err := s.Commands()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"fd", "--type", "f"},
		{"find", ".", "-type", "f"},
	}, cmds)
}

func TestLoadFromFile_Missing(t *testing.T) {
	cfg, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Picker, cfg.Picker)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
log:
  level: debug
picker:
  capacity: 50
  wrap: true
  scorer: substring
history:
  max_entries: 20
sources:
  - name: todo
    kind: process
    command: rg --vimgrep TODO
    format: vimgrep
    timeout_ms: 500
    env:
      RIPGREP_CONFIG_PATH: ""
  - name: colors
    kind: static
    items: [red, green, blue]
    tag_order: [warm, cold]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 50, cfg.Picker.Capacity)
	assert.True(t, cfg.Picker.Wrap)
	assert.Equal(t, "substring", cfg.Picker.Scorer)
	assert.True(t, cfg.Picker.StrongFirst, "unset fields keep defaults")
	assert.Equal(t, 20, cfg.History.MaxEntries)

	require.Len(t, cfg.Sources, 2, "file sources replace the defaults")
	todo, ok := cfg.Source("todo")
	require.True(t, ok)
	assert.Equal(t, KindProcess, todo.Kind)
	assert.Equal(t, 500, todo.TimeoutMs)
	assert.Contains(t, todo.Env, "RIPGREP_CONFIG_PATH")

	colors, ok := cfg.Source("colors")
	require.True(t, ok)
	assert.Equal(t, []string{"red", "green", "blue"}, colors.Items)
	assert.Equal(t, []string{"warm", "cold"}, colors.TagOrder)
}

func TestLoadFromFile_KeepsDefaultSources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("picker:\n  wrap: true\n"), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Sources, len(DefaultSources()))
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad yaml", "picker: [", "failed to parse"},
		{"bad level", "log:\n  level: loud\n", "log.level"},
		{"bad scorer", "picker:\n  scorer: magic\n", "picker.scorer"},
		{"bad kind", "sources:\n  - name: x\n    kind: socket\n", "kind must be"},
		{"missing command", "sources:\n  - name: x\n    kind: process\n", "command"},
		{"duplicate", "sources:\n  - {name: x, kind: static}\n  - {name: x, kind: static}\n", "duplicate"},
		{"bad format", "sources:\n  - {name: x, kind: static, format: csv}\n", "format"},
		{"bad tag sort", "sources:\n  - {name: x, kind: static, tag_sort: random}\n", "tag_sort"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))
			_, err := LoadFromFile(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSaveToFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Picker.Capacity = 77
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 77, loaded.Picker.Capacity)
	assert.Equal(t, cfg.Sources, loaded.Sources)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("SIEVE_LOG_LEVEL", "warn")
	t.Setenv("SIEVE_CAPACITY", "25")
	t.Setenv("SIEVE_HISTORY_DB", "/tmp/h.db")

	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 25, cfg.Picker.Capacity)
	assert.Equal(t, "/tmp/h.db", cfg.History.DBPath)

	t.Setenv("SIEVE_LOG_LEVEL", "")
	t.Setenv("SIEVE_DEBUG", "1")
	t.Setenv("SIEVE_CAPACITY", "-3")
	cfg = DefaultConfig()
	cfg.ApplyEnvOverrides()
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 1000, cfg.Picker.Capacity)
}

func TestConfigGetSet(t *testing.T) {
	cfg := DefaultConfig()

	for _, key := range ListKeys() {
		_, err := cfg.Get(key)
		assert.NoError(t, err, key)
	}

	tests := []struct {
		key   string
		value string
	}{
		{"log.level", "error"},
		{"log.file", "/tmp/sieve.log"},
		{"picker.capacity", "10"},
		{"picker.wrap", "true"},
		{"picker.scorer", "fuzzyfind"},
		{"picker.strong_first", "false"},
		{"history.enabled", "false"},
		{"history.db_path", "/tmp/h.db"},
		{"history.max_entries", "5"},
		{"sessions.max", "3"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			require.NoError(t, cfg.Set(tt.key, tt.value))
			got, err := cfg.Get(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.value, got)
		})
	}
}

func TestConfigSet_Invalid(t *testing.T) {
	cfg := DefaultConfig()

	invalid := []struct{ key, value string }{
		{"picker", "x"},
		{"nosection.key", "x"},
		{"picker.nofield", "x"},
		{"log.level", "loud"},
		{"picker.capacity", "many"},
		{"picker.capacity", "-1"},
		{"picker.wrap", "maybe"},
		{"picker.scorer", "magic"},
	}
	for _, tt := range invalid {
		err := cfg.Set(tt.key, tt.value)
		assert.Error(t, err, "%s=%s", tt.key, tt.value)
	}

	_, err := cfg.Get("sessions.min")
	assert.True(t, err != nil && strings.Contains(err.Error(), "unknown field"))
}

func TestConfig_Paths(t *testing.T) {
	paths := &Paths{DataDir: "/d"}
	cfg := DefaultConfig()
	assert.Equal(t, paths.DatabaseFile(), cfg.HistoryPath(paths))
	assert.Equal(t, paths.LogFile(), cfg.LogPath(paths))

	cfg.History.DBPath = "/x/h.db"
	cfg.Log.File = "/x/s.log"
	assert.Equal(t, "/x/h.db", cfg.HistoryPath(paths))
	assert.Equal(t, "/x/s.log", cfg.LogPath(paths))
}
