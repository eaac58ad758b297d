package opensky

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/avmaps/skymap/pkg/geo"
)

var testBounds = geo.Bounds{South: 45.0, West: 5.0, North: 50.0, East: 12.0}

// TestNewClient tests client construction defaults.
func TestNewClient(t *testing.T) {
	client := NewClient("", 0)

	if client.baseURL != DefaultBaseURL {
		t.Errorf("Expected default base URL, got %s", client.baseURL)
	}
	if client.minInterval != time.Second {
		t.Errorf("Expected min interval raised to 1s, got %v", client.minInterval)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
}

// TestFetchSnapshot tests fetching and decoding a states snapshot.
func TestFetchSnapshot(t *testing.T) {
	t.Run("Successful request", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/states/all" {
				t.Errorf("Expected path /states/all, got %s", r.URL.Path)
			}
			q := r.URL.Query()
			if q.Get("lamin") != "45.0000" || q.Get("lomax") != "12.0000" {
				t.Errorf("Unexpected bounding box query: %s", r.URL.RawQuery)
			}

			w.Write([]byte(`{
				"time": 1700000000,
				"states": [
					["abc123", "DLH441  ", "Germany", 1700000000, 1700000000, 8.5622, 50.0379, 10972.8, false, 245.5, 87.3, 0.0, null, 11250.0, "1000"],
					["def456", null, "France", null, 1699999990, 2.5479, 49.0097, null, true, 4.1, 190.0, null, null, null, null]
				]
			}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, time.Second)
		snap, err := client.FetchSnapshot(context.Background(), testBounds)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}

		if !snap.Time.Equal(time.Unix(1700000000, 0)) {
			t.Errorf("Expected snapshot time 1700000000, got %v", snap.Time)
		}
		if len(snap.States) != 2 {
			t.Fatalf("Expected 2 states, got %d", len(snap.States))
		}

		sv := snap.States[0]
		if sv.ICAO24 != "abc123" {
			t.Errorf("Expected ICAO24 abc123, got %s", sv.ICAO24)
		}
		if sv.Callsign != "DLH441" {
			t.Errorf("Expected callsign trimmed to DLH441, got %q", sv.Callsign)
		}
		if sv.Latitude == nil || *sv.Latitude != 50.0379 {
			t.Errorf("Expected latitude 50.0379, got %v", sv.Latitude)
		}
		if sv.TrueTrack == nil || *sv.TrueTrack != 87.3 {
			t.Errorf("Expected true track 87.3, got %v", sv.TrueTrack)
		}
		if sv.OnGround {
			t.Error("Expected first aircraft airborne")
		}

		sv = snap.States[1]
		if sv.Callsign != "" {
			t.Errorf("Expected empty callsign for null, got %q", sv.Callsign)
		}
		if sv.BaroAltitude != nil {
			t.Errorf("Expected nil baro altitude for null, got %v", *sv.BaroAltitude)
		}
		if !sv.OnGround {
			t.Error("Expected second aircraft on ground")
		}
	})

	t.Run("Skips malformed state elements", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{
				"time": 1700000000,
				"states": [
					"not an array",
					[null, "NOICAO"],
					42,
					["ok1", "CS1", "X", null, 0, 1.0, 2.0, null, false, null, null, null, null, null, null]
				]
			}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, time.Second)
		snap, err := client.FetchSnapshot(context.Background(), testBounds)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if len(snap.States) != 1 {
			t.Fatalf("Expected only the valid state kept, got %d", len(snap.States))
		}
		if snap.States[0].ICAO24 != "ok1" {
			t.Errorf("Expected ICAO24 ok1, got %s", snap.States[0].ICAO24)
		}
	})

	t.Run("Empty states array", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"time": 1700000000, "states": null}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, time.Second)
		snap, err := client.FetchSnapshot(context.Background(), testBounds)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if len(snap.States) != 0 {
			t.Errorf("Expected 0 states, got %d", len(snap.States))
		}
	})

	t.Run("Handles rate limit error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "30")
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := NewClient(server.URL, time.Second)
		_, err := client.FetchSnapshot(context.Background(), testBounds)
		if err == nil {
			t.Fatal("Expected rate limit error, got nil")
		}

		rle, ok := IsRateLimitError(err)
		if !ok {
			t.Fatalf("Expected RateLimitError, got %T", err)
		}
		if rle.StatusCode != 429 {
			t.Errorf("Expected status 429, got %d", rle.StatusCode)
		}
		if rle.RetryAfter != 30*time.Second {
			t.Errorf("Expected retry after 30s, got %v", rle.RetryAfter)
		}
	})

	t.Run("Handles HTTP error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Internal error"))
		}))
		defer server.Close()

		client := NewClient(server.URL, time.Second)
		_, err := client.FetchSnapshot(context.Background(), testBounds)
		if err == nil {
			t.Fatal("Expected error, got nil")
		}
	})
}

// TestParseRetryAfter tests Retry-After header parsing.
func TestParseRetryAfter(t *testing.T) {
	t.Run("Delay seconds", func(t *testing.T) {
		h := http.Header{}
		h.Set("Retry-After", "45")
		if d := parseRetryAfter(h); d != 45*time.Second {
			t.Errorf("Expected 45s, got %v", d)
		}
	})

	t.Run("HTTP date", func(t *testing.T) {
		h := http.Header{}
		h.Set("Retry-After", time.Now().Add(90*time.Second).UTC().Format(http.TimeFormat))
		d := parseRetryAfter(h)
		if d < 60*time.Second || d > 120*time.Second {
			t.Errorf("Expected roughly 90s, got %v", d)
		}
	})

	t.Run("Missing header", func(t *testing.T) {
		if d := parseRetryAfter(http.Header{}); d != 0 {
			t.Errorf("Expected 0, got %v", d)
		}
	})

	t.Run("Garbage value", func(t *testing.T) {
		h := http.Header{}
		h.Set("Retry-After", "soon")
		if d := parseRetryAfter(h); d != 0 {
			t.Errorf("Expected 0, got %v", d)
		}
	})
}
