// Package tui is the interactive front end of the picker: a Bubble Tea model
// that edits the prompt, renders the ranked entries and forwards keys to
// picker actions.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/runger/sieve/internal/entry"
	"github.com/runger/sieve/internal/history"
	"github.com/runger/sieve/internal/picker"
)

// debounceInterval is the delay after the last keystroke before the prompt
// is handed to the picker.
const debounceInterval = 60 * time.Millisecond

// defaultListHeight is used before the first WindowSizeMsg.
const defaultListHeight = 10

// Options configures a Model.
type Options struct {
	// Multi enables multi-selection keys.
	Multi bool

	// Height caps the number of list rows. Zero fills the terminal.
	Height int

	// History feeds ctrl+p / ctrl+n prompt recall. Optional.
	History *history.Cursor

	// Placeholder is shown in the empty prompt.
	Placeholder string
}

// wakeMsg is sent when the picker has queued work for the controller.
type wakeMsg struct{}

// closedMsg is sent once the picker is closed.
type closedMsg struct{}

// debounceMsg fires after the debounce timer expires.
type debounceMsg struct {
	id uint64 // Must match debounceID to be accepted
}

// initMsg starts the first search through Update.
type initMsg struct{}

// Model is the Bubble Tea model driving a picker. The Bubble Tea event loop
// is the picker's controller context: every picker call happens in Update.
type Model struct {
	picker  *picker.Picker
	opts    Options
	input   textinput.Model
	spinner spinner.Model

	width  int
	height int
	offset int // Rank of the first visible row

	debounceID uint64
	status     string

	cancelled bool
	result    []*entry.Entry
}

// NewModel returns a model for p. The prompt starts with p's current prompt.
func NewModel(p *picker.Picker, opts Options) Model {
	in := textinput.New()
	in.Prompt = "> "
	in.PromptStyle = promptStyle
	in.Placeholder = opts.Placeholder
	in.SetValue(p.Prompt())
	in.CursorEnd()
	in.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(dimStyle))

	return Model{
		picker:  p,
		opts:    opts,
		input:   in,
		spinner: sp,
	}
}

// Result returns the accepted entries, or nil if the user cancelled.
func (m Model) Result() []*entry.Entry {
	return m.result
}

// Cancelled reports whether the user quit without confirming.
func (m Model) Cancelled() bool {
	return m.cancelled
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return initMsg{} },
		waitForWork(m.picker),
		m.spinner.Tick,
		textinput.Blink,
	)
}

// waitForWork blocks until the picker has queued work or is closed.
func waitForWork(p *picker.Picker) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-p.Wake():
			return wakeMsg{}
		case <-p.Done():
			return closedMsg{}
		}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	next.scroll()
	return next, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-4, 0)
		return m, nil

	case initMsg:
		if m.picker.Generation() == 0 {
			m.setStatus(m.picker.SetPrompt(m.input.Value()))
		}
		return m, nil

	case wakeMsg:
		m.picker.Drain()
		return m, waitForWork(m.picker)

	case closedMsg:
		return m, nil

	case debounceMsg:
		if msg.id != m.debounceID {
			return m, nil // Stale debounce timer; ignore.
		}
		m.setStatus(m.picker.SetPrompt(m.input.Value()))
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleKey maps keys to picker actions; everything else edits the prompt.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.cancelled = true
		m.picker.Stop()
		return m, tea.Quit

	case tea.KeyEnter:
		if err := m.picker.Act(picker.ActionConfirm); err != nil {
			m.setStatus(err)
			return m, nil
		}
		m.picker.Stop()
		m.result = m.picker.Accepted()
		return m, tea.Quit

	case tea.KeyUp, tea.KeyCtrlK:
		m.act(picker.ActionMovePrev)
		return m, nil

	case tea.KeyDown, tea.KeyCtrlJ:
		m.act(picker.ActionMoveNext)
		return m, nil

	case tea.KeyPgUp:
		m.picker.MoveSelection(-m.listHeight())
		return m, nil

	case tea.KeyPgDown:
		m.picker.MoveSelection(m.listHeight())
		return m, nil

	case tea.KeyTab:
		if m.opts.Multi {
			m.act(picker.ActionToggleSelection)
			m.act(picker.ActionMoveNext)
		}
		return m, nil

	case tea.KeyCtrlA:
		if m.opts.Multi {
			m.act(picker.ActionSelectAll)
		}
		return m, nil

	case tea.KeyCtrlT:
		if m.opts.Multi {
			m.act(picker.ActionToggleAll)
		}
		return m, nil

	case tea.KeyCtrlP:
		if m.opts.History != nil {
			if prompt, ok := m.opts.History.Prev(m.input.Value()); ok {
				return m.recall(prompt)
			}
		}
		return m, nil

	case tea.KeyCtrlN:
		if m.opts.History != nil {
			if prompt, ok := m.opts.History.Next(); ok {
				return m.recall(prompt)
			}
		}
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == before {
		return m, cmd
	}
	if m.opts.History != nil {
		m.opts.History.Reset()
	}
	return m, tea.Batch(cmd, m.startDebounce())
}

// recall replaces the prompt with a history entry and searches immediately.
func (m Model) recall(prompt string) (Model, tea.Cmd) {
	m.input.SetValue(prompt)
	m.input.CursorEnd()
	m.debounceID++
	m.setStatus(m.picker.SetPrompt(prompt))
	return m, nil
}

func (m *Model) act(name string) {
	m.setStatus(m.picker.Act(name))
}

func (m *Model) setStatus(err error) {
	if err != nil {
		m.status = err.Error()
		return
	}
	m.status = ""
}

// startDebounce increments the debounce counter and returns a tea.Tick
// command that fires after debounceInterval.
func (m *Model) startDebounce() tea.Cmd {
	m.debounceID++
	id := m.debounceID
	return tea.Tick(debounceInterval, func(time.Time) tea.Msg {
		return debounceMsg{id: id}
	})
}

// scroll moves the window so the selected row stays visible.
func (m *Model) scroll() {
	sel := m.picker.Selection()
	if sel < 0 {
		m.offset = 0
		return
	}
	h := m.listHeight()
	if sel < m.offset {
		m.offset = sel
	}
	if sel >= m.offset+h {
		m.offset = sel - h + 1
	}
	if n := m.picker.NumResults(); m.offset > max(n-h, 0) {
		m.offset = max(n-h, 0)
	}
}

// listHeight returns the number of list rows: terminal height minus the
// header, status and prompt lines, capped by Options.Height.
func (m Model) listHeight() int {
	const chrome = 3
	h := m.height - chrome
	if m.height == 0 {
		h = defaultListHeight
	}
	if m.opts.Height > 0 && (h > m.opts.Height || h < 1) {
		h = m.opts.Height
	}
	return max(h, 1)
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.viewHeader())
	b.WriteRune('\n')

	if list := m.viewList(); list != "" {
		b.WriteString(list)
		b.WriteRune('\n')
	}

	if status := m.viewStatus(); status != "" {
		b.WriteString(status)
		b.WriteRune('\n')
	}

	b.WriteString(m.input.View())
	return b.String()
}

// viewHeader renders the source name, the match counters and a spinner
// while a search is running.
func (m Model) viewHeader() string {
	p := m.picker
	parts := []string{headerStyle.Render(" " + p.Source() + " ")}

	stats := p.Stats()
	counts := fmt.Sprintf("%d/%d", stats.Results, stats.Considered)
	if n := len(p.MultiSelection()); n > 0 {
		counts += fmt.Sprintf(" (%d selected)", n)
	}
	parts = append(parts, dimStyle.Render(counts))

	if p.State() == picker.StateSearching {
		parts = append(parts, m.spinner.View())
	}
	return strings.Join(parts, " ")
}

// viewList renders the visible window of ranked entries.
func (m Model) viewList() string {
	p := m.picker
	n := p.NumResults()
	if n == 0 {
		if p.State() == picker.StateSearching {
			return dimStyle.Render("Searching...")
		}
		return dimStyle.Render("No matches")
	}

	sel := p.Selection()
	end := min(m.offset+m.listHeight(), n)
	rows := make([]string, 0, end-m.offset)
	for rank := m.offset; rank < end; rank++ {
		e, ok := p.Get(rank)
		if !ok {
			break
		}
		rows = append(rows, m.viewRow(e, rank == sel, p.IsSelected(e.Key())))
	}
	return strings.Join(rows, "\n")
}

// viewRow renders one entry with its cursor and selection markers.
func (m Model) viewRow(e *entry.Entry, current, marked bool) string {
	cursor, mark := "  ", " "
	if current {
		cursor = cursorStyle.Render("> ")
	}
	if marked {
		mark = markStyle.Render("*")
	}

	width := 0
	if m.width > 4 {
		width = m.width - 4
	}
	return cursor + mark + " " + renderEntry(e, width, current)
}

// viewStatus renders the last search or action error.
func (m Model) viewStatus() string {
	if err := m.picker.Err(); err != nil {
		return errorStyle.Render("Error: " + err.Error())
	}
	if m.status != "" {
		return errorStyle.Render(m.status)
	}
	return ""
}
