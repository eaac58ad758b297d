// Package pipeline implements the real-time rendering pipeline: viewport
// filtering of raw state snapshots, per-frame spatial aggregation into grid
// cells, density classification and glyph rendering, adaptive frame-rate
// control, and pixel hit testing.
//
// The pipeline is rebuilt from scratch every frame. Nothing here persists
// cell identity across frames; the admitted entity list is bounded, so the
// O(n) rebuild is cheaper than maintaining a spatial index.
package pipeline

import (
	"time"

	"github.com/avmaps/skymap/pkg/geo"
)

// Entity is one tracked aircraft admitted into the render pipeline.
// An Entity always has a usable position; records without one are dropped
// by the viewport filter and never reach this type.
type Entity struct {
	// ID is the ICAO24 transponder address, stable across snapshots.
	ID string

	// Callsign is the display label, possibly empty.
	Callsign string

	// Country is the origin country of the airframe.
	Country string

	// Position is the last reported geographic position.
	Position geo.Position

	// Heading is the ground track in degrees [0,360). Absent headings
	// are stored as 0.
	Heading float64

	// BaroAltitude is the barometric altitude in meters, nil if unreported.
	BaroAltitude *float64

	// GroundSpeed is the ground speed in m/s, nil if unreported.
	GroundSpeed *float64

	// VerticalRate in m/s, nil if unreported.
	VerticalRate *float64

	// OnGround reports whether the aircraft is on the surface.
	OnGround bool

	// LastContact is the time of the last received message, zero if
	// the feed did not report one.
	LastContact time.Time
}

// Label returns the display label: the callsign when present, otherwise
// the ICAO24 address.
func (e Entity) Label() string {
	if e.Callsign != "" {
		return e.Callsign
	}
	return e.ID
}
