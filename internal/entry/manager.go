package entry

import (
	"sort"
	"sync"

	"github.com/runger/sieve/internal/score"
)

// DefaultCapacity is the number of entries kept when no capacity is given.
const DefaultCapacity = 1000

// Manager keeps the ranked, de-duplicated, capacity-bounded set of entries a
// consumer renders.
//
// Manager has a single writer (the picker's controller) and may have many
// readers. Readers may observe the manager right after a Reset; they never
// observe an unsorted sequence.
type Manager struct {
	mu         sync.RWMutex
	capacity   int
	entries    []*Entry
	index      map[string]*Entry
	considered int
}

// NewManager creates a Manager that keeps at most capacity entries.
// A capacity <= 0 selects DefaultCapacity.
func NewManager(capacity int) *Manager {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Manager{
		capacity: capacity,
		entries:  make([]*Entry, 0, min(capacity, 256)),
		index:    make(map[string]*Entry),
	}
}

// Capacity returns the maximum number of kept entries.
func (m *Manager) Capacity() int {
	return m.capacity
}

// Add inserts e in rank order and returns its rank.
//
// Rejected entries and duplicates of an already ranked candidate are not
// inserted. When the manager is full, an entry ranking worse than the current
// worst is dropped; otherwise the worst entry is evicted. Every non-rejected
// offer counts towards Considered.
func (m *Manager) Add(e *Entry) (int, bool) {
	if e == nil || score.IsRejected(e.Score) {
		return -1, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.considered++

	key := e.Key()
	if _, dup := m.index[key]; dup {
		return -1, false
	}

	n := len(m.entries)
	if n >= m.capacity && !less(e, m.entries[n-1]) {
		return -1, false
	}

	rank := sort.Search(n, func(i int) bool {
		return less(e, m.entries[i])
	})

	if n >= m.capacity {
		worst := m.entries[n-1]
		delete(m.index, worst.Key())
		copy(m.entries[rank+1:], m.entries[rank:n-1])
		m.entries[rank] = e
	} else {
		m.entries = append(m.entries, nil)
		copy(m.entries[rank+1:], m.entries[rank:n])
		m.entries[rank] = e
	}
	m.index[key] = e

	return rank, true
}

// Get returns the entry at rank.
func (m *Manager) Get(rank int) (*Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if rank < 0 || rank >= len(m.entries) {
		return nil, false
	}
	return m.entries[rank], true
}

// NumResults returns the number of kept entries.
func (m *Manager) NumResults() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Considered returns the number of non-rejected entries offered since the
// last Reset, including dropped ones.
func (m *Manager) Considered() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.considered
}

// Contains reports whether a candidate with key is ranked.
func (m *Manager) Contains(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.index[key]
	return ok
}

// Rank returns the rank of the candidate with key.
func (m *Manager) Rank(key string) (int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rankLocked(key)
}

func (m *Manager) rankLocked(key string) (int, bool) {
	e, ok := m.index[key]
	if !ok {
		return -1, false
	}
	rank := sort.Search(len(m.entries), func(i int) bool {
		return !less(m.entries[i], e)
	})
	if rank < len(m.entries) && m.entries[rank] == e {
		return rank, true
	}
	// Equal (score, index) pairs only occur when callers reuse indices;
	// fall back to a scan.
	for i, other := range m.entries {
		if other == e {
			return i, true
		}
	}
	return -1, false
}

// Remove drops the candidate with key from the ranked set.
func (m *Manager) Remove(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	rank, ok := m.rankLocked(key)
	if !ok {
		return false
	}
	delete(m.index, key)
	m.entries = append(m.entries[:rank], m.entries[rank+1:]...)
	return true
}

// Reset clears all entries and counters.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.entries)
	m.entries = m.entries[:0]
	m.index = make(map[string]*Entry)
	m.considered = 0
}

// Entries returns a snapshot of the ranked entries.
func (m *Manager) Entries() []*Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Iterate calls fn for each entry in rank order until fn returns false.
// fn must not call back into the manager.
func (m *Manager) Iterate(fn func(rank int, e *Entry) bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i, e := range m.entries {
		if !fn(i, e) {
			return
		}
	}
}
