// Package prefs persists the user's display preferences across sessions.
// Reads happen once at client startup; writes are fire-and-forget, so a
// broken preferences file never interferes with the map.
package prefs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Preferences are the persisted display settings.
type Preferences struct {
	// DetailLevel is "auto", "high", or "low".
	DetailLevel string `json:"detail_level"`

	// HeatmapEnabled toggles the density glow pass.
	HeatmapEnabled bool `json:"heatmap_enabled"`

	// ProxyEnabled routes snapshot fetches through the configured proxy.
	ProxyEnabled bool `json:"proxy_enabled"`
}

// Default returns the out-of-the-box preferences.
func Default() Preferences {
	return Preferences{DetailLevel: "auto"}
}

// Store reads and writes a preferences file.
type Store struct {
	path string
}

// NewStore creates a store for the given path. An empty path resolves to
// skymap/prefs.json under the user config directory.
func NewStore(path string) (*Store, error) {
	if path == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config dir: %w", err)
		}
		path = filepath.Join(base, "skymap", "prefs.json")
	}
	return &Store{path: path}, nil
}

// Load reads the preferences, returning defaults when the file does not
// exist or cannot be parsed.
func (s *Store) Load() Preferences {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Default()
	}

	p := Default()
	if err := json.Unmarshal(data, &p); err != nil {
		return Default()
	}
	return p
}

// Save writes the preferences. Callers treat failures as non-fatal; the
// error is returned only for logging.
func (s *Store) Save(p Preferences) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create prefs directory: %w", err)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal prefs: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write prefs file: %w", err)
	}
	return nil
}
