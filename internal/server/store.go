package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/sheetask-cli/internal/analysis"
	"github.com/KaramelBytes/sheetask-cli/internal/table"
)

// Snapshot is an uploaded table with its classification. It is never
// modified after it is stored, so handlers may share it without locking.
type Snapshot struct {
	ID      string
	Table   *table.Table
	Types   analysis.Types
	Report  *analysis.Report
	Created time.Time
}

// Store keeps at most max snapshots, evicting the oldest on overflow.
type Store struct {
	mu    sync.RWMutex
	max   int
	items map[string]*Snapshot
	order []string
}

func NewStore(max int) *Store {
	if max <= 0 {
		max = 1
	}
	return &Store{max: max, items: map[string]*Snapshot{}}
}

// Add stores a new snapshot under a fresh id and returns it.
func (s *Store) Add(t *table.Table, types analysis.Types, rep *analysis.Report) *Snapshot {
	snap := &Snapshot{ID: uuid.NewString(), Table: t, Types: types, Report: rep, Created: time.Now()}
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.order) >= s.max {
		delete(s.items, s.order[0])
		s.order = s.order[1:]
	}
	s.items[snap.ID] = snap
	s.order = append(s.order, snap.ID)
	return snap
}

func (s *Store) Get(id string) (*Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.items[id]
	return snap, ok
}

// Delete removes id and reports whether it was present.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return false
	}
	delete(s.items, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
