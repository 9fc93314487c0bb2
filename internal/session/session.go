// Package session keeps snapshots of recently used pickers so that a search
// can be resumed. The store is owned by the caller and bounded; the least
// recently used snapshot is evicted first.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/runger/sieve/internal/entry"
)

// DefaultSize is the number of snapshots kept when no size is given.
const DefaultSize = 10

// Snapshot is the resumable state of a picker.
type Snapshot struct {
	// ID identifies the snapshot; Save assigns one when empty.
	ID string

	// Source names the finder the picker was searching.
	Source string

	// Prompt is the query at the time of the snapshot.
	Prompt string

	// Selected is the key of the selected candidate, if any.
	Selected string

	// MultiSelection holds the multi-selected entries in add order.
	MultiSelection []entry.Entry

	// Saved is set by Save.
	Saved time.Time
}

// Store is a bounded LRU of snapshots. It is safe for concurrent use.
type Store struct {
	mu    sync.Mutex
	cache *lru.Cache[string, Snapshot]
	now   func() time.Time
}

// NewStore creates a store holding at most size snapshots.
func NewStore(size int) (*Store, error) {
	if size <= 0 {
		size = DefaultSize
	}
	cache, err := lru.New[string, Snapshot](size)
	if err != nil {
		return nil, fmt.Errorf("session store: %w", err)
	}
	return &Store{cache: cache, now: time.Now}, nil
}

// Save stores snap as the most recently used snapshot and returns it with
// its ID and timestamp filled in. Saving an existing ID replaces it.
func (s *Store) Save(snap Snapshot) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	snap.Saved = s.now()
	snap.MultiSelection = append([]entry.Entry(nil), snap.MultiSelection...)
	s.cache.Add(snap.ID, snap)
	return snap
}

// Get returns the snapshot with id and marks it most recently used.
func (s *Store) Get(id string) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Get(id)
}

// Last returns the most recently used snapshot.
func (s *Store) Last() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := s.cache.Keys()
	if len(keys) == 0 {
		return Snapshot{}, false
	}
	return s.cache.Peek(keys[len(keys)-1])
}

// LastFor returns the most recently used snapshot of source.
func (s *Store) LastFor(source string) (Snapshot, bool) {
	for _, snap := range s.Recent() {
		if snap.Source == source {
			return snap, true
		}
	}
	return Snapshot{}, false
}

// Recent returns all snapshots, most recently used first.
func (s *Store) Recent() []Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := s.cache.Keys()
	out := make([]Snapshot, 0, len(keys))
	for i := len(keys) - 1; i >= 0; i-- {
		if snap, ok := s.cache.Peek(keys[i]); ok {
			out = append(out, snap)
		}
	}
	return out
}

// Remove deletes the snapshot with id.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Remove(id)
}

// Len returns the number of stored snapshots.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Len()
}
