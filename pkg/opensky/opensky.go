// Package opensky provides a client for the OpenSky Network state API.
//
// The /states/all endpoint returns a point-in-time snapshot of every
// tracked aircraft as a positionally-indexed array of values. Fields are
// frequently null for aircraft without a recent position report, so all
// optional fields are pointers.
//
// API Documentation: https://openskynetwork.github.io/opensky-api/rest.html
package opensky

import (
	"context"
	"time"

	"github.com/avmaps/skymap/pkg/geo"
)

// StateVector is a single aircraft state from one snapshot.
type StateVector struct {
	// ICAO24 is the unique 24-bit transponder address in hex (e.g. "a12345").
	// Stable across snapshots for the same airframe.
	ICAO24 string

	// Callsign is the flight number or registration, trimmed of padding.
	Callsign string

	// OriginCountry is the country of registration.
	OriginCountry string

	// LastContact is the Unix timestamp of the last received message.
	LastContact int64

	// Longitude in decimal degrees, nil when no position is known
	Longitude *float64

	// Latitude in decimal degrees, nil when no position is known
	Latitude *float64

	// BaroAltitude is the barometric altitude in meters
	BaroAltitude *float64

	// OnGround reports whether the aircraft is on the surface
	OnGround bool

	// Velocity is the ground speed in meters per second
	Velocity *float64

	// TrueTrack is the ground track in degrees clockwise from north
	TrueTrack *float64

	// VerticalRate in meters per second (positive = climbing)
	VerticalRate *float64

	// GeoAltitude is the geometric (GPS) altitude in meters
	GeoAltitude *float64

	// Squawk is the transponder code, empty when not reported
	Squawk string
}

// Snapshot is one point-in-time result of a state fetch.
type Snapshot struct {
	// Time is the server-side timestamp of the snapshot.
	Time time.Time

	// States holds every state vector in the snapshot, including those
	// without a position. Consumers filter for their own needs.
	States []StateVector
}

// SnapshotSource is the interface the map engine consumes for state data.
// It abstracts the real OpenSky client, a proxy, or a test double.
type SnapshotSource interface {
	// FetchSnapshot returns the current states within the bounding box.
	FetchSnapshot(ctx context.Context, bounds geo.Bounds) (*Snapshot, error)

	// Close cleanly shuts down the source.
	Close() error
}
