package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/sieve/internal/config"
	"github.com/runger/sieve/internal/entry"
	"github.com/runger/sieve/internal/log"
	"github.com/runger/sieve/internal/picker"
	"github.com/runger/sieve/internal/session"
)

func newTestApp(t *testing.T) *app {
	t.Helper()
	return &app{
		cfg:    config.DefaultConfig(),
		paths:  withTestEnv(t),
		logger: log.Discard(),
	}
}

func newLinesPicker(t *testing.T, a *app, items ...string) *picker.Picker {
	t.Helper()
	def := config.SourceDef{Name: "lines", Kind: config.KindStatic, Items: items}
	p, err := newPicker(a, def, nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func settlePicker(t *testing.T, p *picker.Picker) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Settle(ctx))
}

func TestStartPicker_NoPromptLeavesFirstSearchToModel(t *testing.T) {
	a := newTestApp(t)
	withPickGlobals(t, pickGlobals{})
	p := newLinesPicker(t, a, "a", "b")

	require.NoError(t, startPicker(p, nil, "lines"))
	assert.Equal(t, uint64(0), p.Generation())
}

func TestStartPicker_Prompt(t *testing.T) {
	a := newTestApp(t)
	withPickGlobals(t, pickGlobals{prompt: "b"})
	p := newLinesPicker(t, a, "a", "b")

	require.NoError(t, startPicker(p, nil, "lines"))
	settlePicker(t, p)
	assert.Equal(t, "b", p.Prompt())
	assert.Equal(t, 1, p.NumResults())
}

func TestStartPicker_Resume(t *testing.T) {
	a := newTestApp(t)
	sessions, err := session.NewStore(session.DefaultSize)
	require.NoError(t, err)
	sessions.Save(session.Snapshot{
		Source:         "lines",
		Prompt:         "ba",
		Selected:       "bar",
		MultiSelection: []entry.Entry{{Candidate: entry.Candidate{Ordinal: "baz"}}},
	})
	sessions.Save(session.Snapshot{Source: "files", Prompt: "other"})

	withPickGlobals(t, pickGlobals{resume: true})
	p := newLinesPicker(t, a, "foo", "bar", "baz")
	require.NoError(t, startPicker(p, sessions, "lines"))
	settlePicker(t, p)

	assert.Equal(t, "ba", p.Prompt())
	sel, ok := p.SelectedEntry()
	require.True(t, ok)
	assert.Equal(t, "bar", sel.Ordinal)
	assert.True(t, p.IsSelected("baz"))
}

func TestStartPicker_ResumeWithPromptOverride(t *testing.T) {
	a := newTestApp(t)
	sessions, err := session.NewStore(session.DefaultSize)
	require.NoError(t, err)
	sessions.Save(session.Snapshot{Source: "lines", Prompt: "ba"})

	withPickGlobals(t, pickGlobals{resume: true, prompt: "fo"})
	p := newLinesPicker(t, a, "foo", "bar")
	require.NoError(t, startPicker(p, sessions, "lines"))
	assert.Equal(t, "fo", p.Prompt())
}

func TestStartPicker_ResumeWithoutSnapshot(t *testing.T) {
	a := newTestApp(t)
	sessions, err := session.NewStore(session.DefaultSize)
	require.NoError(t, err)

	withPickGlobals(t, pickGlobals{resume: true})
	p := newLinesPicker(t, a, "foo")
	require.NoError(t, startPicker(p, sessions, "lines"))
	assert.Equal(t, uint64(0), p.Generation())
}

func TestSaveAndLoadSessions(t *testing.T) {
	a := newTestApp(t)
	withPickGlobals(t, pickGlobals{prompt: "ba"})
	p := newLinesPicker(t, a, "foo", "bar")
	require.NoError(t, startPicker(p, nil, "lines"))
	settlePicker(t, p)

	sessions := loadSessions(a)
	require.NotNil(t, sessions)
	assert.Equal(t, 0, sessions.Len())
	saveSession(a, sessions, p)

	reloaded := loadSessions(a)
	snap, ok := reloaded.LastFor("lines")
	require.True(t, ok)
	assert.Equal(t, "ba", snap.Prompt)
	assert.Equal(t, "bar", snap.Selected)
}

func TestRecorder(t *testing.T) {
	a := newTestApp(t)
	assert.Nil(t, a.recorder(nil, "lines"))

	store := a.openHistory()
	require.NotNil(t, store)
	defer store.Close()

	record := a.recorder(store, "lines")
	require.NoError(t, record("foo"))

	got, err := store.Recent(context.Background(), "lines", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "foo", got[0].Prompt)
}

func TestOpenHistory_Disabled(t *testing.T) {
	a := newTestApp(t)
	a.cfg.History.Enabled = false
	assert.Nil(t, a.openHistory())
}

func TestPrintEntries(t *testing.T) {
	out := captureStdout(t, func() {
		printEntries([]*entry.Entry{
			{Candidate: entry.Candidate{Ordinal: "a.go", Display: "a.go (12 KB)"}},
			{Candidate: entry.Candidate{Ordinal: "b.go"}},
		})
	})
	assert.Equal(t, "a.go\nb.go\n", out)
}
