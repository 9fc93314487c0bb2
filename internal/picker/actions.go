package picker

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// ErrUnknownAction is returned by Act for names without a chain.
var ErrUnknownAction = errors.New("unknown action")

// Phase orders the handlers of a Chain.
type Phase int

const (
	PhasePre Phase = iota
	PhaseAction
	PhasePost
)

// Handler is one step of an action.
type Handler func(p *Picker) error

type slot struct {
	name  string
	phase Phase
	fn    Handler
	cond  func(*Picker) bool
	alt   Handler
}

func (s slot) run(p *Picker) error {
	if s.cond != nil && s.cond(p) {
		return s.alt(p)
	}
	return s.fn(p)
}

// Chain is an ordered list of named handlers. Run executes the Pre handlers,
// then the Action handlers, then the Post handlers, each phase in insertion
// order, and stops at the first error.
type Chain struct {
	slots []slot
}

// NewChain returns an empty chain.
func NewChain() *Chain {
	return &Chain{}
}

// Append adds fn under name to phase. Names are unique; appending an
// existing name replaces that slot in place.
func (c *Chain) Append(name string, phase Phase, fn Handler) *Chain {
	if i := c.find(name); i >= 0 {
		c.slots[i] = slot{name: name, phase: phase, fn: fn}
		return c
	}
	c.slots = append(c.slots, slot{name: name, phase: phase, fn: fn})
	return c
}

// Replace swaps the handler of the named slot. It reports whether the slot
// exists.
func (c *Chain) Replace(name string, fn Handler) bool {
	i := c.find(name)
	if i < 0 {
		return false
	}
	c.slots[i].fn = fn
	c.slots[i].cond = nil
	c.slots[i].alt = nil
	return true
}

// ReplaceIf makes the named slot run fn instead of its handler whenever cond
// holds at run time.
func (c *Chain) ReplaceIf(name string, cond func(*Picker) bool, fn Handler) bool {
	i := c.find(name)
	if i < 0 {
		return false
	}
	c.slots[i].cond = cond
	c.slots[i].alt = fn
	return true
}

// Remove deletes the named slot.
func (c *Chain) Remove(name string) bool {
	i := c.find(name)
	if i < 0 {
		return false
	}
	c.slots = slices.Delete(c.slots, i, i+1)
	return true
}

// Names returns the slot names in execution order.
func (c *Chain) Names() []string {
	ordered := c.ordered()
	names := make([]string, len(ordered))
	for i, s := range ordered {
		names[i] = s.name
	}
	return names
}

// Len returns the number of slots.
func (c *Chain) Len() int { return len(c.slots) }

// Clone returns an independent copy of c.
func (c *Chain) Clone() *Chain {
	return &Chain{slots: slices.Clone(c.slots)}
}

// Run executes the chain against p.
func (c *Chain) Run(p *Picker) error {
	for _, s := range c.ordered() {
		if err := s.run(p); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

func (c *Chain) ordered() []slot {
	out := slices.Clone(c.slots)
	sort.SliceStable(out, func(i, j int) bool { return out[i].phase < out[j].phase })
	return out
}

func (c *Chain) find(name string) int {
	return slices.IndexFunc(c.slots, func(s slot) bool { return s.name == name })
}

// Actions maps action names to chains.
type Actions struct {
	chains map[string]*Chain
}

// NewActions returns an empty action table.
func NewActions() *Actions {
	return &Actions{chains: make(map[string]*Chain)}
}

// Default action names.
const (
	ActionMoveNext        = "move_next"
	ActionMovePrev        = "move_prev"
	ActionToggleSelection = "toggle_selection"
	ActionSelectAll       = "select_all"
	ActionDropAll         = "drop_all"
	ActionToggleAll       = "toggle_all"
	ActionConfirm         = "confirm"
)

// DefaultActions returns the built-in actions, each a single-slot chain whose
// Action slot carries the action's own name.
func DefaultActions() *Actions {
	a := NewActions()
	a.Chain(ActionMoveNext).Append(ActionMoveNext, PhaseAction, func(p *Picker) error {
		p.MoveSelection(1)
		return nil
	})
	a.Chain(ActionMovePrev).Append(ActionMovePrev, PhaseAction, func(p *Picker) error {
		p.MoveSelection(-1)
		return nil
	})
	a.Chain(ActionToggleSelection).Append(ActionToggleSelection, PhaseAction, func(p *Picker) error {
		p.ToggleSelection(p.Selection())
		return nil
	})
	a.Chain(ActionSelectAll).Append(ActionSelectAll, PhaseAction, func(p *Picker) error {
		p.SelectAll()
		return nil
	})
	a.Chain(ActionDropAll).Append(ActionDropAll, PhaseAction, func(p *Picker) error {
		p.DropAll()
		return nil
	})
	a.Chain(ActionToggleAll).Append(ActionToggleAll, PhaseAction, func(p *Picker) error {
		p.ToggleAll()
		return nil
	})
	a.Chain(ActionConfirm).Append(ActionConfirm, PhaseAction, func(p *Picker) error {
		return p.confirm()
	})
	return a
}

// Chain returns the chain for name, creating an empty one if needed.
func (a *Actions) Chain(name string) *Chain {
	c, ok := a.chains[name]
	if !ok {
		c = NewChain()
		a.chains[name] = c
	}
	return c
}

// Lookup returns the chain for name without creating it.
func (a *Actions) Lookup(name string) (*Chain, bool) {
	c, ok := a.chains[name]
	return c, ok
}

// Names returns the action names in sorted order.
func (a *Actions) Names() []string {
	names := make([]string, 0, len(a.chains))
	for name := range a.chains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Act runs the named action's chain.
func (p *Picker) Act(name string) error {
	if p.state == StateClosed {
		return ErrClosed
	}
	c, ok := p.cfg.Actions.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAction, name)
	}
	return c.Run(p)
}

// Actions returns the picker's action table.
func (p *Picker) Actions() *Actions { return p.cfg.Actions }
