package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestDefaultConfig tests the out-of-the-box values.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Port != "8080" {
		t.Errorf("Expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Feed.BaseURL != "https://opensky-network.org/api" {
		t.Errorf("Unexpected feed URL: %s", cfg.Feed.BaseURL)
	}
	if cfg.Feed.RefreshIntervalSeconds != 10 {
		t.Errorf("Expected 10s refresh, got %d", cfg.Feed.RefreshIntervalSeconds)
	}
	if cfg.Feed.MinRequestIntervalSeconds < 1 {
		t.Errorf("Expected request floor of at least 1s, got %f", cfg.Feed.MinRequestIntervalSeconds)
	}
	if cfg.Map.Zoom != 7 {
		t.Errorf("Expected zoom 7, got %f", cfg.Map.Zoom)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Expected database port 5432, got %d", cfg.Database.Port)
	}
}

// TestLoadMissingFile tests that a missing file yields defaults.
func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Expected defaults, got port %s", cfg.Server.Port)
	}
}

// TestLoadInvalidJSON tests parse failure reporting.
func TestLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{broken"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Expected error for invalid JSON")
	}
}

// TestSaveAndLoad tests the persistence round trip.
func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := DefaultConfig()
	cfg.Map.CenterLatitude = 40.64
	cfg.Map.CenterLongitude = -73.78
	cfg.Feed.RefreshIntervalSeconds = 30

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if loaded.Map.CenterLatitude != 40.64 || loaded.Map.CenterLongitude != -73.78 {
		t.Errorf("Unexpected center: %+v", loaded.Map)
	}
	if loaded.Feed.RefreshIntervalSeconds != 30 {
		t.Errorf("Expected 30s refresh, got %d", loaded.Feed.RefreshIntervalSeconds)
	}
}

// TestEnvironmentOverrides tests that environment variables take precedence.
func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("SKYMAP_PORT", "9999")
	t.Setenv("SKYMAP_JWT_SECRET", "env-secret")
	t.Setenv("SKYMAP_DB_PASSWORD", "env-password")
	t.Setenv("SKYMAP_FEED_URL", "http://feed.test")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.Server.Port != "9999" {
		t.Errorf("Expected port override, got %s", cfg.Server.Port)
	}
	if cfg.Server.JWTSecret != "env-secret" {
		t.Errorf("Expected JWT secret override, got %s", cfg.Server.JWTSecret)
	}
	if cfg.Database.Password != "env-password" {
		t.Errorf("Expected DB password override, got %s", cfg.Database.Password)
	}
	if cfg.Feed.BaseURL != "http://feed.test" {
		t.Errorf("Expected feed URL override, got %s", cfg.Feed.BaseURL)
	}
}
