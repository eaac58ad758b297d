// Package config loads and persists the application configuration shared
// by the map clients, the proxy server, and the collector.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the complete application configuration.
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Feed     FeedConfig     `json:"feed"`
	Map      MapConfig      `json:"map"`
}

// ServerConfig contains proxy server configuration.
type ServerConfig struct {
	// Port is the HTTP server port (default: 8080)
	Port string `json:"port"`

	// Host is the server bind address (default: "0.0.0.0")
	Host string `json:"host"`

	// JWTSecret signs session tokens for mutating endpoints.
	// Should be loaded from the environment in production.
	JWTSecret string `json:"jwt_secret"`

	// AdminUser and AdminPasswordHash authenticate the single admin
	// account. The hash is bcrypt.
	AdminUser         string `json:"admin_user"`
	AdminPasswordHash string `json:"admin_password_hash"`

	// UpstreamRatePerMinute caps how many upstream API calls the proxy
	// makes on behalf of all of its clients combined.
	UpstreamRatePerMinute int `json:"upstream_rate_per_minute"`
}

// DatabaseConfig contains database connection settings for the collector.
type DatabaseConfig struct {
	// Host is the database server hostname
	Host string `json:"host"`

	// Port is the database server port
	Port int `json:"port"`

	// Database is the database name
	Database string `json:"database"`

	// Username for database authentication
	Username string `json:"username"`

	// Password for database authentication (should be loaded from environment)
	Password string `json:"password"`

	// SSLMode for PostgreSQL connections (disable, require, verify-ca, verify-full)
	SSLMode string `json:"ssl_mode"`

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int `json:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int `json:"max_idle_conns"`
}

// FeedConfig contains snapshot source configuration.
type FeedConfig struct {
	// BaseURL is the upstream state API (default: the public OpenSky API)
	BaseURL string `json:"base_url"`

	// ProxyURL is the skymap-server endpoint used when proxying is
	// enabled in the user preferences.
	ProxyURL string `json:"proxy_url"`

	// RefreshIntervalSeconds is the fixed period between snapshot
	// fetches. Viewport changes may refresh early, but never more often
	// than this interval.
	RefreshIntervalSeconds int `json:"refresh_interval_seconds"`

	// MinRequestIntervalSeconds is the client-side floor between any two
	// upstream requests. The anonymous OpenSky API needs at least 1.
	MinRequestIntervalSeconds float64 `json:"min_request_interval_seconds"`
}

// MapConfig contains the initial viewport.
type MapConfig struct {
	// CenterLatitude in decimal degrees (-90 to +90)
	CenterLatitude float64 `json:"center_latitude"`

	// CenterLongitude in decimal degrees (-180 to +180)
	CenterLongitude float64 `json:"center_longitude"`

	// Zoom is the initial Web-Mercator zoom level.
	Zoom float64 `json:"zoom"`
}

// Load reads configuration from a JSON file.
// If the file doesn't exist, returns a default configuration.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvironmentOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()

	return &cfg, nil
}

// Save writes the configuration to a JSON file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:                  "8080",
			Host:                  "0.0.0.0",
			AdminUser:             "admin",
			UpstreamRatePerMinute: 6,
		},
		Database: DatabaseConfig{
			Host:         "localhost",
			Port:         5432,
			Database:     "skymap",
			Username:     "skymap",
			SSLMode:      "disable",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
		},
		Feed: FeedConfig{
			BaseURL:                   "https://opensky-network.org/api",
			ProxyURL:                  "http://localhost:8080/api",
			RefreshIntervalSeconds:    10,
			MinRequestIntervalSeconds: 1.0,
		},
		Map: MapConfig{
			// Central Europe has the densest public coverage.
			CenterLatitude:  50.0,
			CenterLongitude: 8.6,
			Zoom:            7,
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the
// config. This keeps secrets like passwords out of config files.
func (c *Config) applyEnvironmentOverrides() {
	if port := os.Getenv("SKYMAP_PORT"); port != "" {
		c.Server.Port = port
	}
	if secret := os.Getenv("SKYMAP_JWT_SECRET"); secret != "" {
		c.Server.JWTSecret = secret
	}
	if dbPassword := os.Getenv("SKYMAP_DB_PASSWORD"); dbPassword != "" {
		c.Database.Password = dbPassword
	}
	if feedURL := os.Getenv("SKYMAP_FEED_URL"); feedURL != "" {
		c.Feed.BaseURL = feedURL
	}
}
