package picker

import "github.com/runger/sieve/internal/entry"

// Selection returns the selected rank, or NoSelection when there are no
// results.
func (p *Picker) Selection() int {
	if p.manager.NumResults() == 0 {
		return NoSelection
	}
	return p.cursor
}

// SelectedEntry returns the entry under the cursor.
func (p *Picker) SelectedEntry() (*entry.Entry, bool) {
	if p.manager.NumResults() == 0 {
		return nil, false
	}
	return p.manager.Get(p.cursor)
}

// MoveSelection moves the cursor by delta ranks. Past either end it clamps,
// or wraps when Config.Wrap is set. With no results it does nothing.
func (p *Picker) MoveSelection(delta int) {
	n := p.manager.NumResults()
	if n == 0 || p.state == StateClosed {
		return
	}
	target := p.cursor + delta
	if p.cfg.Wrap {
		target = ((target % n) + n) % n
	}
	p.setCursor(target, n)
}

// SetSelection moves the cursor to rank, clamped to the ranked set.
func (p *Picker) SetSelection(rank int) {
	n := p.manager.NumResults()
	if n == 0 || p.state == StateClosed {
		return
	}
	p.setCursor(rank, n)
}

func (p *Picker) setCursor(rank, n int) {
	p.cursor = max(0, min(rank, n-1))
	if e, ok := p.manager.Get(p.cursor); ok {
		p.selectedKey = e.Key()
	}
}

// resolveSelection re-binds the cursor to the selected candidate after the
// ranked set changed, falling back to the top rank.
func (p *Picker) resolveSelection() {
	n := p.manager.NumResults()
	if n == 0 {
		p.cursor = 0
		return
	}
	if p.selectedKey != "" {
		if rank, ok := p.manager.Rank(p.selectedKey); ok {
			p.cursor = rank
			return
		}
	}
	p.cursor = 0
}

// AddSelection adds the candidate at rank to the multi-selection.
// Out-of-range ranks are ignored.
func (p *Picker) AddSelection(rank int) {
	if e, ok := p.manager.Get(rank); ok {
		p.addMulti(e)
	}
}

// RemoveSelection removes the candidate at rank from the multi-selection.
func (p *Picker) RemoveSelection(rank int) {
	if e, ok := p.manager.Get(rank); ok {
		p.removeMulti(e.Key())
	}
}

// ToggleSelection flips multi-selection membership of the candidate at rank.
func (p *Picker) ToggleSelection(rank int) {
	e, ok := p.manager.Get(rank)
	if !ok {
		return
	}
	if _, selected := p.multi[e.Key()]; selected {
		p.removeMulti(e.Key())
	} else {
		p.addMulti(e)
	}
}

// SelectAll multi-selects every ranked entry.
func (p *Picker) SelectAll() {
	for _, e := range p.manager.Entries() {
		p.addMulti(e)
	}
}

// DropAll removes every ranked entry from the multi-selection. Selected
// candidates that are not ranked under the current prompt stay selected.
func (p *Picker) DropAll() {
	for _, e := range p.manager.Entries() {
		p.removeMulti(e.Key())
	}
}

// ToggleAll flips multi-selection membership of every ranked entry.
func (p *Picker) ToggleAll() {
	for _, e := range p.manager.Entries() {
		if _, selected := p.multi[e.Key()]; selected {
			p.removeMulti(e.Key())
		} else {
			p.addMulti(e)
		}
	}
}

// ClearMultiSelection empties the multi-selection.
func (p *Picker) ClearMultiSelection() {
	p.multiKeys = nil
	clear(p.multi)
	clear(p.restored)
}

// IsSelected reports whether the candidate with key is multi-selected.
func (p *Picker) IsSelected(key string) bool {
	_, ok := p.multi[key]
	return ok
}

// MultiSelection returns the multi-selected entries in the order they were
// added.
func (p *Picker) MultiSelection() []*entry.Entry {
	out := make([]*entry.Entry, 0, len(p.multiKeys))
	for _, key := range p.multiKeys {
		out = append(out, p.multi[key])
	}
	return out
}

func (p *Picker) addMulti(e *entry.Entry) {
	key := e.Key()
	if _, ok := p.multi[key]; ok {
		return
	}
	p.multi[key] = e
	p.multiKeys = append(p.multiKeys, key)
}

func (p *Picker) removeMulti(key string) {
	if _, ok := p.multi[key]; !ok {
		return
	}
	delete(p.multi, key)
	delete(p.restored, key)
	for i, k := range p.multiKeys {
		if k == key {
			p.multiKeys = append(p.multiKeys[:i], p.multiKeys[i+1:]...)
			break
		}
	}
}

// DeleteSelection offers the multi-selection, or the selected entry when
// nothing is multi-selected, to del. Entries for which del reports success
// are removed from the ranked set and the multi-selection. The cursor stays
// on the selected candidate when it survives, and otherwise moves to the
// nearest remaining rank. It returns the number of deleted entries.
func (p *Picker) DeleteSelection(del func(*entry.Entry) bool) int {
	if p.state == StateClosed || del == nil {
		return 0
	}

	targets := p.MultiSelection()
	if len(targets) == 0 {
		if e, ok := p.SelectedEntry(); ok {
			targets = append(targets, e)
		}
	}

	deleted := 0
	for _, e := range targets {
		if !del(e) {
			continue
		}
		key := e.Key()
		p.manager.Remove(key)
		p.removeMulti(key)
		deleted++
	}
	if deleted == 0 {
		return 0
	}

	n := p.manager.NumResults()
	switch {
	case n == 0:
		p.cursor = 0
		p.selectedKey = ""
	case p.manager.Contains(p.selectedKey):
		p.resolveSelection()
	default:
		p.setCursor(p.cursor, n)
	}
	p.logger.Debug("entries deleted", "count", deleted)
	p.markDirty()
	return deleted
}
