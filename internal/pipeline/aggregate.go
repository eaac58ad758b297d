package pipeline

import (
	"math"

	"github.com/avmaps/skymap/pkg/geo"
)

// ScreenMargin is the screen-space margin in pixels around the viewport
// inside which entities are still aggregated. Icons straddling the edge
// stay partially visible instead of popping in and out.
const ScreenMargin = 50

// DetailLevel is the user-selected aggregation policy.
type DetailLevel int

const (
	// DetailAuto lets the performance controller tune density.
	DetailAuto DetailLevel = iota

	// DetailHigh halves the grid size for finer aggregation.
	DetailHigh

	// DetailLow doubles the grid size for coarser aggregation.
	DetailLow
)

// String returns the preference-file name of the detail level.
func (d DetailLevel) String() string {
	switch d {
	case DetailHigh:
		return "high"
	case DetailLow:
		return "low"
	default:
		return "auto"
	}
}

// ParseDetailLevel maps a preference-file name back to a DetailLevel.
// Unknown names fall back to auto.
func ParseDetailLevel(s string) DetailLevel {
	switch s {
	case "high":
		return DetailHigh
	case "low":
		return DetailLow
	default:
		return DetailAuto
	}
}

// GridSize returns the aggregation cell edge in pixels for a zoom level
// and detail setting. The base size shrinks as the map zooms in; manual
// detail levels scale it directly, while auto detail leaves it alone and
// relies on the admission cap instead.
func GridSize(zoom float64, detail DetailLevel) int {
	base := int(math.Floor(48 / zoom))
	if base < 8 {
		base = 8
	}

	switch detail {
	case DetailLow:
		return base * 2
	case DetailHigh:
		half := base / 2
		if half < 4 {
			half = 4
		}
		return half
	default:
		return base
	}
}

// Cell is one occupied aggregation bucket for a single frame. Cells are
// rebuilt from scratch every draw call and never survive into the next
// frame.
type Cell struct {
	// Col and Row identify the bucket in grid coordinates.
	Col int
	Row int

	// Rep is the first entity seen in the bucket. Its heading and label
	// represent the whole cell; later arrivals only increment Count.
	Rep Entity

	// Pixel is the projected position of the representative.
	Pixel geo.Pixel

	// Count is the number of entities aggregated into the cell.
	Count int
}

// Aggregate buckets the entities into a uniform screen-space grid. Single
// pass, O(n): each entity is projected once, discarded if outside the
// viewport expanded by ScreenMargin, and keyed by integer division of its
// pixel coordinates by gridSize. The first entity in a bucket becomes the
// representative (first-wins, not a centroid; that keeps the pass free of
// extra bookkeeping).
//
// Cells are returned in first-occupied order, so an unchanged input list
// and view produce an identical cell list.
func Aggregate(entities []Entity, view geo.ViewState, gridSize int) []Cell {
	if gridSize < 1 {
		gridSize = 1
	}

	minX, minY := -float64(ScreenMargin), -float64(ScreenMargin)
	maxX := float64(view.Width) + ScreenMargin
	maxY := float64(view.Height) + ScreenMargin

	type key struct{ col, row int }
	index := make(map[key]int)
	cells := make([]Cell, 0, 64)

	for _, e := range entities {
		px := view.Project(e.Position)
		if px.X < minX || px.X > maxX || px.Y < minY || px.Y > maxY {
			continue
		}

		k := key{
			col: int(math.Floor(px.X / float64(gridSize))),
			row: int(math.Floor(px.Y / float64(gridSize))),
		}

		if i, ok := index[k]; ok {
			cells[i].Count++
			continue
		}

		index[k] = len(cells)
		cells = append(cells, Cell{
			Col:   k.col,
			Row:   k.row,
			Rep:   e,
			Pixel: px,
			Count: 1,
		})
	}

	return cells
}
