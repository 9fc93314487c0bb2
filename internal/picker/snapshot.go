package picker

import (
	"github.com/runger/sieve/internal/entry"
	"github.com/runger/sieve/internal/session"
)

// Snapshot captures the prompt and selections so the search can be resumed.
func (p *Picker) Snapshot() session.Snapshot {
	snap := session.Snapshot{
		Source: p.cfg.Source,
		Prompt: p.prompt,
	}
	if e, ok := p.SelectedEntry(); ok {
		snap.Selected = e.Key()
	}
	for _, e := range p.MultiSelection() {
		snap.MultiSelection = append(snap.MultiSelection, *e)
	}
	return snap
}

// Restore replaces the prompt and selections with those of snap and
// restarts the search. The cursor follows snap.Selected once it is ranked.
// Snapshots do not carry candidate values; a restored multi-selected entry
// is replaced by the live entry when its candidate is produced again.
func (p *Picker) Restore(snap session.Snapshot) error {
	if p.state == StateClosed {
		return ErrClosed
	}
	p.ClearMultiSelection()
	for i := range snap.MultiSelection {
		e := snap.MultiSelection[i]
		p.addMulti(&e)
		p.restored[e.Key()] = true
	}
	p.selectedKey = snap.Selected
	p.cursor = 0
	return p.SetPrompt(snap.Prompt)
}

// rebindRestored swaps a restored multi-selected entry for the freshly
// ranked e of the same candidate.
func (p *Picker) rebindRestored(e *entry.Entry) {
	key := e.Key()
	if !p.restored[key] {
		return
	}
	delete(p.restored, key)
	if _, ok := p.multi[key]; ok {
		p.multi[key] = e
	}
}

// Confirmed reports whether a confirm action ran.
func (p *Picker) Confirmed() bool { return p.confirmed }

// Accepted returns the entries accepted by the last confirm action.
func (p *Picker) Accepted() []*entry.Entry { return p.accepted }

// confirm accepts the multi-selection, or the selected entry, and records
// the prompt.
func (p *Picker) confirm() error {
	accepted := p.MultiSelection()
	if len(accepted) == 0 {
		if e, ok := p.SelectedEntry(); ok {
			accepted = append(accepted, e)
		}
	}
	p.accepted = accepted
	p.confirmed = true

	if p.cfg.RecordPrompt != nil && p.prompt != "" {
		if err := p.cfg.RecordPrompt(p.prompt); err != nil {
			p.logger.Warn("failed to record prompt", "error", err)
		}
	}
	return nil
}
