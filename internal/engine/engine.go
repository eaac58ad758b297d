// Package engine ties the pipeline stages into a per-frame orchestration
// shared by the terminal clients: it captures one view state per frame,
// measures the delivered frame interval, runs filter output through
// aggregation and rendering, and answers hit tests against the same
// entity list the draw path used.
package engine

import (
	"time"

	"github.com/avmaps/skymap/internal/pipeline"
	"github.com/avmaps/skymap/pkg/geo"
)

// FrameStats summarizes one rendered frame for status displays.
type FrameStats struct {
	Entities int
	Cells    int
	GridSize int
	MeanFPS  float64
	Scale    float64
}

// Engine owns the pipeline state that persists across frames: the entity
// store, the adaptive controller, and the renderer with its glyph cache.
// It is single-threaded by design; all methods must be called from the
// client's UI loop, with MaxEntities as the one exception for the
// refresh goroutine.
type Engine struct {
	store *pipeline.Store
	ctrl  *pipeline.Controller
	rend  *pipeline.Renderer

	lastFrame time.Time
}

// New creates an engine around an entity store.
func New(store *pipeline.Store) *Engine {
	return &Engine{
		store: store,
		ctrl:  pipeline.NewController(),
		rend:  pipeline.NewRenderer(),
	}
}

// RenderFrame draws one frame into the surface and retunes the adaptive
// controller from the interval between delivered timestamps. The caller
// supplies now from its frame scheduler, so tests can drive the engine
// with synthetic time.
func (e *Engine) RenderFrame(now time.Time, view geo.ViewState, surface pipeline.Surface) FrameStats {
	if !e.lastFrame.IsZero() {
		e.ctrl.OnFrame(now.Sub(e.lastFrame))
	}
	e.lastFrame = now

	entities := e.store.Entities()
	gridSize := pipeline.GridSize(view.Zoom, e.ctrl.Detail())
	cells := pipeline.Aggregate(entities, view, gridSize)
	e.rend.Render(cells, surface)

	return FrameStats{
		Entities: len(entities),
		Cells:    len(cells),
		GridSize: gridSize,
		MeanFPS:  e.ctrl.MeanFPS(),
		Scale:    e.ctrl.Scale(),
	}
}

// HitTest returns the entity nearest the click point within the default
// hit radius, reading the same stored list the draw loop renders.
func (e *Engine) HitTest(click geo.Pixel, view geo.ViewState) (pipeline.Entity, bool) {
	return pipeline.FindNearest(click, e.store.Entities(), view, pipeline.DefaultHitRadius)
}

// SetDetail switches the aggregation detail level.
func (e *Engine) SetDetail(d pipeline.DetailLevel) {
	e.ctrl.SetDetail(d)
}

// Detail returns the current detail level.
func (e *Engine) Detail() pipeline.DetailLevel {
	return e.ctrl.Detail()
}

// CycleDetail advances auto -> high -> low -> auto and returns the new level.
func (e *Engine) CycleDetail() pipeline.DetailLevel {
	var next pipeline.DetailLevel
	switch e.ctrl.Detail() {
	case pipeline.DetailAuto:
		next = pipeline.DetailHigh
	case pipeline.DetailHigh:
		next = pipeline.DetailLow
	default:
		next = pipeline.DetailAuto
	}
	e.ctrl.SetDetail(next)
	return next
}

// SetHeatmap toggles the additive glow pass.
func (e *Engine) SetHeatmap(enabled bool) {
	e.rend.HeatmapEnabled = enabled
}

// Heatmap reports whether the glow pass is enabled.
func (e *Engine) Heatmap() bool {
	return e.rend.HeatmapEnabled
}

// ResetScale sets the performance multiplier back to baseline on explicit
// user request.
func (e *Engine) ResetScale() {
	e.ctrl.Reset()
}

// MaxEntities exposes the controller's current admission cap for the
// refresh path. Safe to call from the refresh goroutine.
func (e *Engine) MaxEntities() int {
	return e.ctrl.MaxEntities()
}

// Status returns the feed status for the UI's error banner and counters.
func (e *Engine) Status() pipeline.Status {
	return e.store.Status()
}
