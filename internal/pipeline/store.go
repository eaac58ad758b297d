package pipeline

import (
	"sync/atomic"
	"time"
)

// Status describes the health of the entity feed as seen by the UI.
type Status struct {
	// LastUpdate is when the current entity list was committed.
	LastUpdate time.Time

	// LastError holds the most recent fetch failure message, empty
	// while the feed is healthy.
	LastError string

	// Stale is set when the list survived one or more failed refreshes.
	Stale bool

	// Received is the raw record count of the last successful snapshot.
	Received int

	// Kept is the admitted entity count after filtering.
	Kept int
}

// snapshot bundles the entity list with its status so both are replaced
// in a single atomic store.
type snapshot struct {
	entities []Entity
	status   Status
}

// Store holds the current entity list as an atomically-replaced immutable
// snapshot. The refresh path is the single writer; the draw path only ever
// reads, so it can never observe a partially-updated list and no lock is
// needed.
type Store struct {
	cur atomic.Pointer[snapshot]
}

// NewStore returns a store holding an empty list.
func NewStore() *Store {
	s := &Store{}
	s.cur.Store(&snapshot{entities: []Entity{}})
	return s
}

// Commit replaces the entity list wholesale after a successful refresh.
// The caller must not mutate entities afterwards.
func (s *Store) Commit(entities []Entity, received int, at time.Time) {
	s.cur.Store(&snapshot{
		entities: entities,
		status: Status{
			LastUpdate: at,
			Received:   received,
			Kept:       len(entities),
		},
	})
}

// Fail records a refresh failure. The previous entity list is retained;
// stale-but-valid data beats an empty frame.
func (s *Store) Fail(err error) {
	prev := s.cur.Load()
	next := &snapshot{
		entities: prev.entities,
		status:   prev.status,
	}
	next.status.LastError = err.Error()
	next.status.Stale = true
	s.cur.Store(next)
}

// Entities returns the current list. Callers must treat it as read-only.
func (s *Store) Entities() []Entity {
	return s.cur.Load().entities
}

// Status returns the current feed status.
func (s *Store) Status() Status {
	return s.cur.Load().status
}
