package picker

import "github.com/runger/sieve/internal/finder"

// EventKind identifies a picker notification.
type EventKind int

const (
	// EventResultsChanged fires at most once per refresh batch after the
	// ranked set or the selection changed.
	EventResultsChanged EventKind = iota + 1

	// EventCompleted fires when the finder finished the current generation.
	EventCompleted

	// EventError fires once when a search could not be started.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventResultsChanged:
		return "results_changed"
	case EventCompleted:
		return "completed"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers on the controller context.
type Event struct {
	Kind       EventKind
	Generation uint64

	// Results is the number of ranked entries when the event fired.
	Results int

	// Result is set for EventCompleted.
	Result finder.Result

	// Err is set for EventError.
	Err error
}

// Stats are diagnostics about the current generation. StaleDropped
// accumulates over the picker's lifetime.
type Stats struct {
	Generation   uint64
	Received     int
	Rejected     int
	Considered   int
	Results      int
	StaleDropped int
	Dropped      int
	ExitCode     int
	Slow         bool
}

type subscriber struct {
	fn func(Event)
}

// Subscribe registers fn for picker events and returns a function that
// removes it.
func (p *Picker) Subscribe(fn func(Event)) func() {
	s := &subscriber{fn: fn}
	p.subs = append(p.subs, s)
	return func() {
		for i, other := range p.subs {
			if other == s {
				p.subs = append(p.subs[:i], p.subs[i+1:]...)
				return
			}
		}
	}
}

func (p *Picker) publish(ev Event) {
	ev.Generation = p.generation
	ev.Results = p.manager.NumResults()
	for _, s := range append([]*subscriber(nil), p.subs...) {
		s.fn(ev)
	}
}
