package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

// TestLoadDefaults tests fallback behavior for missing or broken files.
func TestLoadDefaults(t *testing.T) {
	t.Run("Missing file", func(t *testing.T) {
		s := &Store{path: filepath.Join(t.TempDir(), "missing.json")}
		p := s.Load()
		if p.DetailLevel != "auto" {
			t.Errorf("Expected detail auto, got %s", p.DetailLevel)
		}
		if p.HeatmapEnabled || p.ProxyEnabled {
			t.Errorf("Expected toggles off by default, got %+v", p)
		}
	})

	t.Run("Corrupt file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prefs.json")
		if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
			t.Fatal(err)
		}
		s := &Store{path: path}
		if p := s.Load(); p.DetailLevel != "auto" {
			t.Errorf("Expected defaults on corrupt file, got %+v", p)
		}
	})
}

// TestSaveAndLoad tests the persistence round trip.
func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.json")
	s := &Store{path: path}

	want := Preferences{
		DetailLevel:    "high",
		HeatmapEnabled: true,
		ProxyEnabled:   true,
	}
	if err := s.Save(want); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	got := s.Load()
	if got != want {
		t.Errorf("Round trip mismatch: got %+v, want %+v", got, want)
	}
}

// TestNewStoreExplicitPath tests that an explicit path is used verbatim.
func TestNewStoreExplicitPath(t *testing.T) {
	s, err := NewStore("/tmp/custom/prefs.json")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if s.path != "/tmp/custom/prefs.json" {
		t.Errorf("Expected explicit path kept, got %s", s.path)
	}
}
