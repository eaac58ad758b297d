package pipeline

import (
	"sync/atomic"
	"time"
)

// Tuning constants for the adaptive controller.
const (
	// maxSamples is the FPS ring buffer length.
	maxSamples = 30

	// lowWaterFPS and highWaterFPS bound the hysteresis dead zone.
	// Between them the scale is left alone so it cannot oscillate.
	lowWaterFPS  = 22.0
	highWaterFPS = 35.0

	// scaleMin and scaleMax clamp the multiplier. 1 is baseline; the
	// controller never renders more than the user asked for.
	scaleMin = 1.0
	scaleMax = 8.0

	// scaleUp and scaleDown are the per-frame adjustment factors.
	scaleUp   = 1.25
	scaleDown = 0.85

	// baseMaxEntities is the admission cap at scale 1; minEntities is
	// the floor the cap never drops below.
	baseMaxEntities = 3000
	minEntities     = 200
)

// Controller measures achieved frame rate and maintains the scale
// multiplier that narrows the upstream admission cap under load.
//
// In auto detail it adjusts every frame from the mean of a rolling FPS
// window. Manual detail levels pin the scale at 1 and change the grid
// size directly instead (see GridSize).
//
// The controller is owned by the UI loop. MaxEntities is the one
// exception: the refresh goroutine polls it at fetch time, so the cap
// is republished atomically whenever the scale moves.
type Controller struct {
	detail DetailLevel

	samples [maxSamples]float64
	next    int
	filled  int

	scale float64

	maxEntities atomic.Int64
}

// NewController returns a controller at baseline scale in auto detail.
func NewController() *Controller {
	c := &Controller{scale: scaleMin}
	c.publishCap()
	return c
}

// SetDetail switches the detail level. Leaving auto pins the scale back
// to baseline; entering auto starts from a fresh measurement window.
func (c *Controller) SetDetail(d DetailLevel) {
	if c.detail == d {
		return
	}
	c.detail = d
	c.clearSamples()
	if d != DetailAuto {
		c.scale = scaleMin
		c.publishCap()
	}
}

// Detail returns the current detail level.
func (c *Controller) Detail() DetailLevel {
	return c.detail
}

// OnFrame records one frame interval and, in auto detail, retunes the
// scale multiplier. dt is the measured time since the previous frame;
// non-positive intervals are ignored rather than poisoning the window.
func (c *Controller) OnFrame(dt time.Duration) {
	if dt <= 0 {
		return
	}
	if c.detail != DetailAuto {
		c.scale = scaleMin
		c.publishCap()
		return
	}

	c.samples[c.next] = 1.0 / dt.Seconds()
	c.next = (c.next + 1) % maxSamples
	if c.filled < maxSamples {
		c.filled++
	}

	mean := c.MeanFPS()
	switch {
	case mean < lowWaterFPS:
		c.scale *= scaleUp
		if c.scale > scaleMax {
			c.scale = scaleMax
		}
		c.publishCap()
	case mean > highWaterFPS:
		c.scale *= scaleDown
		if c.scale < scaleMin {
			c.scale = scaleMin
		}
		c.publishCap()
	}
}

// MeanFPS returns the arithmetic mean of the sample window, 0 when no
// frames have been recorded yet.
func (c *Controller) MeanFPS() float64 {
	if c.filled == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < c.filled; i++ {
		sum += c.samples[i]
	}
	return sum / float64(c.filled)
}

// Scale returns the current multiplier in [1,8].
func (c *Controller) Scale() float64 {
	return c.scale
}

// Reset sets the multiplier back to baseline immediately, independent of
// detail level, and restarts the measurement window.
func (c *Controller) Reset() {
	c.scale = scaleMin
	c.clearSamples()
	c.publishCap()
}

// MaxEntities returns the admission cap for the viewport filter:
// max(200, floor(3000/scale)). Safe to call from the refresh goroutine.
func (c *Controller) MaxEntities() int {
	return int(c.maxEntities.Load())
}

// publishCap recomputes the admission cap from the current scale and
// publishes it for cross-goroutine readers. Must be called after every
// scale change.
func (c *Controller) publishCap() {
	n := int64(float64(baseMaxEntities) / c.scale)
	if n < minEntities {
		n = minEntities
	}
	c.maxEntities.Store(n)
}

func (c *Controller) clearSamples() {
	c.next = 0
	c.filled = 0
}
