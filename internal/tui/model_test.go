package tui

import (
	"context"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/sieve/internal/entry"
	"github.com/runger/sieve/internal/finder"
	"github.com/runger/sieve/internal/history"
	"github.com/runger/sieve/internal/picker"
	"github.com/runger/sieve/internal/score"
)

// --- Helpers ---

func newPicker(t *testing.T, lines ...string) *picker.Picker {
	t.Helper()
	p, err := picker.New(picker.Config{
		Finder: finder.NewStaticLines(lines, entry.LineMaker),
		Source: "test",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func step(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func settle(t *testing.T, p *picker.Picker) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Settle(ctx))
}

// newTestModel returns a sized model whose first search has completed.
func newTestModel(t *testing.T, opts Options, lines ...string) (Model, *picker.Picker) {
	t.Helper()
	p := newPicker(t, lines...)
	m := NewModel(p, opts)
	m, _ = step(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = step(t, m, initMsg{})
	settle(t, p)
	return m, p
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

func key(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func ordinals(entries []*entry.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Ordinal)
	}
	return out
}

// --- Search ---

func TestModel_InitialSearch(t *testing.T) {
	m, p := newTestModel(t, Options{}, "apple", "banana", "cherry")

	assert.Equal(t, 3, p.NumResults())
	assert.Equal(t, picker.StateIdle, p.State())
	view := StripANSI(m.View())
	assert.Contains(t, view, " test ")
	assert.Contains(t, view, "3/3")
	assert.Contains(t, view, "apple")
	assert.Contains(t, view, "cherry")
}

func TestModel_InitDoesNotRestartResumedPicker(t *testing.T) {
	p := newPicker(t, "apple", "banana")
	require.NoError(t, p.SetPrompt("ban"))
	settle(t, p)
	gen := p.Generation()

	m := NewModel(p, Options{})
	assert.Equal(t, "ban", m.input.Value())
	_, _ = step(t, m, initMsg{})
	assert.Equal(t, gen, p.Generation())
}

func TestModel_TypingIsDebounced(t *testing.T) {
	m, p := newTestModel(t, Options{}, "apple", "banana", "application")

	m = typeText(t, m, "ap")
	assert.Equal(t, "ap", m.input.Value())
	assert.Empty(t, p.Prompt(), "prompt must not reach the picker before the debounce fires")

	m, _ = step(t, m, debounceMsg{id: m.debounceID})
	settle(t, p)
	assert.Equal(t, "ap", p.Prompt())
	assert.Equal(t, 2, p.NumResults())
	assert.NotContains(t, StripANSI(m.View()), "banana")
}

func TestModel_StaleDebounceIgnored(t *testing.T) {
	m, p := newTestModel(t, Options{}, "apple", "banana")

	m = typeText(t, m, "a")
	stale := m.debounceID
	m = typeText(t, m, "p")
	gen := p.Generation()

	_, _ = step(t, m, debounceMsg{id: stale})
	assert.Equal(t, gen, p.Generation())
	assert.Empty(t, p.Prompt())
}

func TestModel_WakeDrainsPicker(t *testing.T) {
	p := newPicker(t, "apple", "banana")
	m := NewModel(p, Options{})
	m, _ = step(t, m, initMsg{})

	msg := waitForWork(p)()
	require.IsType(t, wakeMsg{}, msg)

	m, cmd := step(t, m, msg)
	assert.NotNil(t, cmd, "wake must re-arm the wait command")
	assert.Equal(t, 2, p.NumResults())
	assert.Equal(t, picker.StateIdle, p.State())
	assert.Contains(t, StripANSI(m.View()), "banana")
}

func TestModel_WaitReportsClose(t *testing.T) {
	p := newPicker(t, "apple")
	require.NoError(t, p.Close())
	assert.Equal(t, closedMsg{}, waitForWork(p)())
}

func TestModel_NoMatches(t *testing.T) {
	m, p := newTestModel(t, Options{}, "apple")
	m = typeText(t, m, "zz")
	m, _ = step(t, m, debounceMsg{id: m.debounceID})
	settle(t, p)

	assert.Equal(t, 0, p.NumResults())
	assert.Contains(t, StripANSI(m.View()), "No matches")
}

// --- Keys ---

func TestModel_Navigation(t *testing.T) {
	m, p := newTestModel(t, Options{}, "apple", "banana", "cherry")
	assert.Equal(t, 0, p.Selection())

	m, _ = step(t, m, key(tea.KeyDown))
	assert.Equal(t, 1, p.Selection())
	m, _ = step(t, m, key(tea.KeyDown))
	m, _ = step(t, m, key(tea.KeyDown))
	assert.Equal(t, 2, p.Selection(), "selection clamps at the last entry")

	m, _ = step(t, m, key(tea.KeyUp))
	assert.Equal(t, 1, p.Selection())
	_, _ = step(t, m, key(tea.KeyPgUp))
	assert.Equal(t, 0, p.Selection())
}

func TestModel_EnterConfirms(t *testing.T) {
	m, p := newTestModel(t, Options{}, "apple", "banana", "cherry")

	m, _ = step(t, m, key(tea.KeyDown))
	m, cmd := step(t, m, key(tea.KeyEnter))

	assert.True(t, isQuit(cmd))
	assert.False(t, m.Cancelled())
	assert.Equal(t, []string{"banana"}, ordinals(m.Result()))
	assert.True(t, p.Confirmed())
}

func TestModel_EscCancels(t *testing.T) {
	for _, k := range []tea.KeyType{tea.KeyEsc, tea.KeyCtrlC} {
		t.Run(k.String(), func(t *testing.T) {
			m, p := newTestModel(t, Options{}, "apple")
			m, cmd := step(t, m, key(k))

			assert.True(t, isQuit(cmd))
			assert.True(t, m.Cancelled())
			assert.Nil(t, m.Result())
			assert.False(t, p.Confirmed())
		})
	}
}

func TestModel_MultiSelect(t *testing.T) {
	m, p := newTestModel(t, Options{Multi: true}, "apple", "banana", "cherry")

	m, _ = step(t, m, key(tea.KeyTab))
	m, _ = step(t, m, key(tea.KeyTab))
	assert.Equal(t, 2, p.Selection(), "tab advances after toggling")
	assert.Contains(t, StripANSI(m.View()), "(2 selected)")

	m, _ = step(t, m, key(tea.KeyEnter))
	assert.Equal(t, []string{"apple", "banana"}, ordinals(m.Result()))
}

func TestModel_MultiKeysNeedMultiMode(t *testing.T) {
	m, p := newTestModel(t, Options{}, "apple", "banana")

	m, _ = step(t, m, key(tea.KeyTab))
	_, _ = step(t, m, key(tea.KeyCtrlA))
	assert.Empty(t, p.MultiSelection())
	assert.Equal(t, 0, p.Selection())
}

func TestModel_SelectAndToggleAll(t *testing.T) {
	m, p := newTestModel(t, Options{Multi: true}, "apple", "banana", "cherry")

	m, _ = step(t, m, key(tea.KeyCtrlA))
	assert.Len(t, p.MultiSelection(), 3)

	m, _ = step(t, m, key(tea.KeyTab))
	assert.Len(t, p.MultiSelection(), 2)

	_, _ = step(t, m, key(tea.KeyCtrlT))
	assert.Equal(t, []string{"apple"}, ordinals(p.MultiSelection()))
}

func TestModel_HistoryRecall(t *testing.T) {
	cur := history.NewCursor([]string{"app", "ban"})
	m, p := newTestModel(t, Options{History: cur}, "apple", "banana")
	m = typeText(t, m, "dr")

	m, _ = step(t, m, key(tea.KeyCtrlP))
	assert.Equal(t, "ban", m.input.Value())
	assert.Equal(t, "ban", p.Prompt(), "recalled prompts search immediately")

	m, _ = step(t, m, key(tea.KeyCtrlP))
	assert.Equal(t, "app", m.input.Value())

	m, _ = step(t, m, key(tea.KeyCtrlP))
	assert.Equal(t, "app", m.input.Value(), "stays at the oldest prompt")

	m, _ = step(t, m, key(tea.KeyCtrlN))
	m, _ = step(t, m, key(tea.KeyCtrlN))
	assert.Equal(t, "dr", m.input.Value(), "walking past the newest restores the draft")
}

// --- Rendering ---

func TestModel_ScrollKeepsSelectionVisible(t *testing.T) {
	lines := make([]string, 30)
	for i := range lines {
		lines[i] = fmt.Sprintf("line%02d", i)
	}
	m, p := newTestModel(t, Options{}, lines...)
	m, _ = step(t, m, tea.WindowSizeMsg{Width: 80, Height: 8})
	require.Equal(t, 5, m.listHeight())

	for range 7 {
		m, _ = step(t, m, key(tea.KeyDown))
	}
	require.Equal(t, 7, p.Selection())
	assert.Equal(t, 3, m.offset)

	view := StripANSI(m.View())
	assert.Contains(t, view, "line07")
	assert.Contains(t, view, "line03")
	assert.NotContains(t, view, "line02")
	assert.NotContains(t, view, "line08")
}

func TestModel_HeightOption(t *testing.T) {
	m, _ := newTestModel(t, Options{Height: 4}, "a", "b")
	assert.Equal(t, 4, m.listHeight())

	m, _ = step(t, m, tea.WindowSizeMsg{Width: 80, Height: 5})
	assert.Equal(t, 2, m.listHeight())
}

func TestRenderEntry(t *testing.T) {
	t.Run("highlights spans", func(t *testing.T) {
		e := &entry.Entry{
			Candidate: entry.Candidate{Ordinal: "apple"},
			Spans:     []score.Range{{Start: 0, End: 2}},
		}
		assert.Equal(t, "apple", StripANSI(renderEntry(e, 0, false)))
	})

	t.Run("truncates", func(t *testing.T) {
		e := &entry.Entry{
			Candidate: entry.Candidate{Ordinal: "abcdefghij"},
			Spans:     []score.Range{{Start: 8, End: 10}},
		}
		assert.Equal(t, "abcde…", StripANSI(renderEntry(e, 6, true)))
	})

	t.Run("display text is sanitized", func(t *testing.T) {
		e := &entry.Entry{
			Candidate: entry.Candidate{Ordinal: "main.go", Display: "\x1b[34mmain.go\x1b[0m\t12"},
			Spans:     []score.Range{{Start: 0, End: 1}},
		}
		assert.Equal(t, "main.go 12", StripANSI(renderEntry(e, 0, false)))
	})
}

func TestHighlight_SkipsInvalidSpans(t *testing.T) {
	out := highlight("abc", []score.Range{{Start: 1, End: 9}, {Start: 2, End: 1}}, normalStyle)
	assert.Equal(t, "abc", StripANSI(out))
}
