package opensky

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/avmaps/skymap/pkg/geo"
)

// DefaultBaseURL is the public OpenSky REST endpoint.
const DefaultBaseURL = "https://opensky-network.org/api"

// Client implements SnapshotSource against the OpenSky REST API.
// Anonymous access is rate limited server-side, so the client also
// enforces a minimum interval between its own requests.
type Client struct {
	// baseURL is the API base URL (default: DefaultBaseURL, or a
	// proxy endpoint when proxying is enabled)
	baseURL string

	// httpClient is the HTTP client used for API requests
	httpClient *http.Client

	// minInterval is the minimum time between requests
	minInterval time.Duration

	// lastRequest tracks the last API call time for rate limiting
	lastRequest time.Time
}

// NewClient creates a new OpenSky API client.
// minInterval below one second is raised to one second; the anonymous
// API rejects anything faster.
func NewClient(baseURL string, minInterval time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if minInterval < time.Second {
		minInterval = time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		minInterval: minInterval,
	}
}

// FetchSnapshot returns the current state vectors inside the bounding box.
// Uses the /states/all endpoint with lamin/lomin/lamax/lomax parameters.
func (c *Client) FetchSnapshot(ctx context.Context, bounds geo.Bounds) (*Snapshot, error) {
	c.rateLimitWait(ctx)

	url := fmt.Sprintf("%s/states/all?lamin=%.4f&lomin=%.4f&lamax=%.4f&lomax=%.4f",
		c.baseURL, bounds.South, bounds.West, bounds.North, bounds.East)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build states request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch state snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header),
			Message:    "rate limit exceeded",
		}
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var raw rawStatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse states response: %w", err)
	}

	return &Snapshot{
		Time:   time.Unix(raw.Time, 0).UTC(),
		States: decodeStates(raw.States),
	}, nil
}

// Close cleanly shuts down the client.
// There are no persistent connections, so this is a no-op.
func (c *Client) Close() error {
	return nil
}

// rateLimitWait enforces the minimum interval between requests, waking
// early if the context is cancelled.
func (c *Client) rateLimitWait(ctx context.Context) {
	if !c.lastRequest.IsZero() {
		elapsed := time.Since(c.lastRequest)
		if elapsed < c.minInterval {
			select {
			case <-time.After(c.minInterval - elapsed):
			case <-ctx.Done():
			}
		}
	}
	c.lastRequest = time.Now()
}

// rawStatesResponse is the wire shape of /states/all. Each state is kept
// as raw JSON so a malformed element degrades to zero records for that
// element instead of failing the whole snapshot.
type rawStatesResponse struct {
	Time   int64             `json:"time"`
	States []json.RawMessage `json:"states"`
}

// Positional indices of the /states/all array schema.
const (
	fieldICAO24 = iota
	fieldCallsign
	fieldOriginCountry
	fieldTimePosition
	fieldLastContact
	fieldLongitude
	fieldLatitude
	fieldBaroAltitude
	fieldOnGround
	fieldVelocity
	fieldTrueTrack
	fieldVerticalRate
	fieldSensors
	fieldGeoAltitude
	fieldSquawk
)

// decodeStates converts the raw positional arrays into StateVectors.
// Any element that is not an array, or that lacks the mandatory ICAO24
// field, is silently dropped.
func decodeStates(raw []json.RawMessage) []StateVector {
	states := make([]StateVector, 0, len(raw))

	for _, msg := range raw {
		var fields []any
		if err := json.Unmarshal(msg, &fields); err != nil {
			continue
		}

		icao, ok := stringAt(fields, fieldICAO24)
		if !ok || icao == "" {
			continue
		}

		sv := StateVector{
			ICAO24:       icao,
			Longitude:    floatAt(fields, fieldLongitude),
			Latitude:     floatAt(fields, fieldLatitude),
			BaroAltitude: floatAt(fields, fieldBaroAltitude),
			Velocity:     floatAt(fields, fieldVelocity),
			TrueTrack:    floatAt(fields, fieldTrueTrack),
			VerticalRate: floatAt(fields, fieldVerticalRate),
			GeoAltitude:  floatAt(fields, fieldGeoAltitude),
		}

		if callsign, ok := stringAt(fields, fieldCallsign); ok {
			sv.Callsign = strings.TrimSpace(callsign)
		}
		if country, ok := stringAt(fields, fieldOriginCountry); ok {
			sv.OriginCountry = country
		}
		if contact := floatAt(fields, fieldLastContact); contact != nil {
			sv.LastContact = int64(*contact)
		}
		if onGround, ok := boolAt(fields, fieldOnGround); ok {
			sv.OnGround = onGround
		}
		if squawk, ok := stringAt(fields, fieldSquawk); ok {
			sv.Squawk = squawk
		}

		states = append(states, sv)
	}

	return states
}

// stringAt extracts a string field by position.
func stringAt(fields []any, idx int) (string, bool) {
	if idx >= len(fields) {
		return "", false
	}
	s, ok := fields[idx].(string)
	return s, ok
}

// floatAt extracts a numeric field by position, nil for null or wrong type.
func floatAt(fields []any, idx int) *float64 {
	if idx >= len(fields) {
		return nil
	}
	f, ok := fields[idx].(float64)
	if !ok {
		return nil
	}
	return &f
}

// boolAt extracts a boolean field by position.
func boolAt(fields []any, idx int) (bool, bool) {
	if idx >= len(fields) {
		return false, false
	}
	b, ok := fields[idx].(bool)
	return b, ok
}

// RateLimitError represents an HTTP 429 response with retry information.
type RateLimitError struct {
	StatusCode int
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s (retry after %v)", e.Message, e.RetryAfter)
	}
	return e.Message
}

// IsRateLimitError checks if an error is a rate limit error.
func IsRateLimitError(err error) (*RateLimitError, bool) {
	if rle, ok := err.(*RateLimitError); ok {
		return rle, true
	}
	return nil, false
}

// parseRetryAfter extracts the Retry-After header value.
// Supports both delay-seconds and HTTP-date formats; returns 0 when the
// header is missing or unusable.
func parseRetryAfter(headers http.Header) time.Duration {
	retryAfter := headers.Get("Retry-After")
	if retryAfter == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	if retryTime, err := http.ParseTime(retryAfter); err == nil {
		if d := time.Until(retryTime); d > 0 {
			return d
		}
	}

	return 0
}
