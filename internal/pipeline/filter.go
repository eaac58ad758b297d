package pipeline

import (
	"time"

	"github.com/avmaps/skymap/pkg/geo"
	"github.com/avmaps/skymap/pkg/opensky"
)

// ViewportPadding is the margin in degrees added to the viewport bounds
// before filtering, so aircraft just outside the visible frame are still
// admitted and appear immediately when panning.
const ViewportPadding = 0.5

// FilterSnapshot reduces a raw state snapshot to the entities the renderer
// will consider:
//
//  1. records without a latitude or longitude are dropped
//  2. records outside the padded viewport bounds are dropped
//  3. if more than maxEntities remain, every k-th record is kept, with
//     k = ceil(count/maxEntities)
//
// The stride selection is deterministic by input order rather than random,
// so the same snapshot always yields the same reduced list. Which aircraft
// appear under heavy load therefore shifts between snapshots; that is an
// accepted tradeoff of reproducible downsampling.
//
// Empty input yields an empty, non-nil slice.
func FilterSnapshot(states []opensky.StateVector, viewport geo.Bounds, maxEntities int) []Entity {
	padded := viewport.Pad(ViewportPadding)

	entities := make([]Entity, 0, len(states))
	for _, sv := range states {
		if sv.Latitude == nil || sv.Longitude == nil {
			continue
		}

		pos := geo.Position{Latitude: *sv.Latitude, Longitude: *sv.Longitude}
		if !pos.Valid() || !padded.Contains(pos) {
			continue
		}

		e := Entity{
			ID:           sv.ICAO24,
			Callsign:     sv.Callsign,
			Country:      sv.OriginCountry,
			Position:     pos,
			BaroAltitude: sv.BaroAltitude,
			GroundSpeed:  sv.Velocity,
			VerticalRate: sv.VerticalRate,
			OnGround:     sv.OnGround,
		}
		if sv.TrueTrack != nil {
			e.Heading = normalizeHeading(*sv.TrueTrack)
		}
		if sv.LastContact > 0 {
			e.LastContact = time.Unix(sv.LastContact, 0).UTC()
		}

		entities = append(entities, e)
	}

	return downsample(entities, maxEntities)
}

// downsample keeps every k-th entity with k = ceil(count/maxEntities),
// producing exactly ceil(count/k) entities. Index-modulo selection keeps
// the result reproducible for the same input.
func downsample(entities []Entity, maxEntities int) []Entity {
	if maxEntities <= 0 || len(entities) <= maxEntities {
		return entities
	}

	k := (len(entities) + maxEntities - 1) / maxEntities
	kept := make([]Entity, 0, (len(entities)+k-1)/k)
	for i := 0; i < len(entities); i += k {
		kept = append(kept, entities[i])
	}
	return kept
}

// normalizeHeading maps a track value into [0,360).
func normalizeHeading(h float64) float64 {
	h -= 360 * float64(int(h/360))
	if h < 0 {
		h += 360
	}
	return h
}
