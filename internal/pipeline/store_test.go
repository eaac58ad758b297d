package pipeline

import (
	"errors"
	"testing"
	"time"
)

// TestStoreCommit tests wholesale list replacement.
func TestStoreCommit(t *testing.T) {
	s := NewStore()

	if got := s.Entities(); got == nil || len(got) != 0 {
		t.Fatalf("Expected empty non-nil list from new store, got %v", got)
	}

	at := time.Now().UTC()
	s.Commit([]Entity{{ID: "a"}, {ID: "b"}}, 50, at)

	entities := s.Entities()
	if len(entities) != 2 {
		t.Fatalf("Expected 2 entities, got %d", len(entities))
	}

	st := s.Status()
	if !st.LastUpdate.Equal(at) {
		t.Errorf("Expected last update %v, got %v", at, st.LastUpdate)
	}
	if st.Received != 50 || st.Kept != 2 {
		t.Errorf("Expected received 50 kept 2, got %+v", st)
	}
	if st.Stale || st.LastError != "" {
		t.Errorf("Expected healthy status, got %+v", st)
	}
}

// TestStoreFail tests that failures retain the last good list.
func TestStoreFail(t *testing.T) {
	s := NewStore()
	at := time.Now().UTC()
	s.Commit([]Entity{{ID: "a"}}, 10, at)

	s.Fail(errors.New("upstream down"))

	if len(s.Entities()) != 1 {
		t.Errorf("Expected previous list retained, got %d entities", len(s.Entities()))
	}

	st := s.Status()
	if !st.Stale {
		t.Error("Expected stale flag set")
	}
	if st.LastError != "upstream down" {
		t.Errorf("Expected error recorded, got %q", st.LastError)
	}
	if !st.LastUpdate.Equal(at) {
		t.Errorf("Expected last update preserved, got %v", st.LastUpdate)
	}
}

// TestStoreRecovery tests that a commit after a failure clears staleness.
func TestStoreRecovery(t *testing.T) {
	s := NewStore()
	s.Commit([]Entity{{ID: "a"}}, 10, time.Now())
	s.Fail(errors.New("blip"))

	s.Commit([]Entity{{ID: "b"}}, 5, time.Now())

	st := s.Status()
	if st.Stale || st.LastError != "" {
		t.Errorf("Expected recovery to clear stale state, got %+v", st)
	}
	if s.Entities()[0].ID != "b" {
		t.Errorf("Expected new list, got %s", s.Entities()[0].ID)
	}
}
