// Package feed drives the data-refresh side of the map: a periodic fetch
// from the snapshot source, filtered against the current viewport and
// committed wholesale into the entity store. The draw loop never waits on
// a refresh; it always renders the last committed list.
package feed

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/avmaps/skymap/internal/pipeline"
	"github.com/avmaps/skymap/pkg/geo"
	"github.com/avmaps/skymap/pkg/opensky"
)

// DefaultInterval is the fixed refresh period.
const DefaultInterval = 10 * time.Second

// Config wires a Refresher to its collaborators.
type Config struct {
	// Source supplies raw snapshots.
	Source opensky.SnapshotSource

	// Store receives filtered entity lists.
	Store *pipeline.Store

	// Bounds returns the current (unpadded) viewport bounds at fetch time.
	Bounds func() geo.Bounds

	// MaxEntities returns the current admission cap at fetch time.
	MaxEntities func() int

	// Interval overrides DefaultInterval when positive.
	Interval time.Duration
}

// Refresher owns the refresh cycle. Viewport changes may trigger an early
// refresh, but a rate limiter keeps event-driven refreshes from firing
// more often than the fixed interval.
type Refresher struct {
	cfg     Config
	limiter *rate.Limiter
	trigger chan struct{}

	// generation invalidates in-flight refreshes at Close; a fetch that
	// resolves after teardown must not commit into the store.
	generation atomic.Uint64
	closed     atomic.Bool
}

// New creates a refresher. Run must be called to start the cycle.
func New(cfg Config) *Refresher {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Refresher{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(cfg.Interval), 1),
		trigger: make(chan struct{}, 1),
	}
}

// Run performs an immediate refresh and then loops until the context is
// cancelled or Close is called, waking on the fixed interval or on a
// viewport trigger.
func (r *Refresher) Run(ctx context.Context) {
	r.refresh(ctx)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.refresh(ctx)
		case <-r.trigger:
			r.refresh(ctx)
		}
		if r.closed.Load() {
			return
		}
	}
}

// ViewportChanged requests an early refresh after a pan/zoom/resize. The
// request is dropped when one is already pending or when the rate limiter
// says the last refresh was too recent. A dropped request returns its
// token so the next change inside the window can still fire.
func (r *Refresher) ViewportChanged() {
	if r.closed.Load() {
		return
	}
	res := r.limiter.Reserve()
	if !res.OK() || res.Delay() > 0 {
		res.Cancel()
		return
	}
	select {
	case r.trigger <- struct{}{}:
	default:
		res.Cancel()
	}
}

// Close invalidates any in-flight refresh and stops the loop. There is no
// way to cancel the underlying HTTP exchange beyond its context; a result
// arriving after Close is simply discarded.
func (r *Refresher) Close() {
	r.closed.Store(true)
	r.generation.Add(1)
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// refresh performs one fetch-filter-commit cycle. Failures leave the
// previous entity list in place and only update the status.
func (r *Refresher) refresh(ctx context.Context) {
	if r.closed.Load() {
		return
	}

	gen := r.generation.Load()
	bounds := r.cfg.Bounds()

	snap, err := r.cfg.Source.FetchSnapshot(ctx, bounds.Pad(pipeline.ViewportPadding))
	if r.generation.Load() != gen {
		return
	}
	if err != nil {
		r.cfg.Store.Fail(err)
		return
	}

	entities := pipeline.FilterSnapshot(snap.States, bounds, r.cfg.MaxEntities())
	r.cfg.Store.Commit(entities, len(snap.States), snap.Time)

	// Keep the limiter aligned with actual refresh times so a viewport
	// trigger right after a periodic refresh is still suppressed.
	r.limiter.Allow()
}
