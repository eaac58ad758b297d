package pipeline

import "github.com/avmaps/skymap/pkg/geo"

// DefaultHitRadius is the pixel radius within which a click selects an
// entity.
const DefaultHitRadius = 20.0

// FindNearest returns the entity whose projected position is closest to
// the click point, provided it lies within radius pixels. The scan is
// linear; the admission cap bounds the entity count, so no spatial index
// is warranted.
func FindNearest(click geo.Pixel, entities []Entity, view geo.ViewState, radius float64) (Entity, bool) {
	maxSq := radius * radius

	var best Entity
	bestSq := maxSq + 1
	found := false

	for _, e := range entities {
		px := view.Project(e.Position)
		dx := px.X - click.X
		dy := px.Y - click.Y
		distSq := dx*dx + dy*dy

		if distSq <= maxSq && distSq < bestSq {
			best = e
			bestSq = distSq
			found = true
		}
	}

	return best, found
}
