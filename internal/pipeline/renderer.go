package pipeline

import (
	"math"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/avmaps/skymap/internal/render"
)

// Surface is the immediate-mode drawing surface the renderer draws into.
// *render.Canvas satisfies it; tests may substitute their own.
type Surface interface {
	Size() (width, height int)
	Clear()
	Set(x, y int, ch rune, style render.Style)
	Glow(x, y int, color render.Color, intensity float64)
	Text(x, y int, text string, style render.Style)
}

// glyphCacheSize bounds the style cache. 4 tiers x 2 size buckets x 16
// heading buckets is 128 distinct glyphs, so 256 never evicts in practice
// while still capping growth if the key space changes.
const glyphCacheSize = 256

// headingBucketDeg is the rounding applied to headings for cache keys.
const headingBucketDeg = 22.5

// glyphKey identifies a cached glyph: density tier, size bucket, and the
// heading rounded to the nearest 22.5 degrees.
type glyphKey struct {
	tier    Tier
	size    int
	heading int
}

// glyph is a fully-resolved drawable: the arrow rune and its style.
type glyph struct {
	ch    rune
	style render.Style
}

// Renderer draws aggregated cells onto a Surface. It owns a bounded LRU
// glyph cache so per-frame style construction is amortized away.
type Renderer struct {
	cache *lru.Cache[glyphKey, glyph]

	// HeatmapEnabled adds an additive glow pass under the glyphs.
	HeatmapEnabled bool
}

// NewRenderer creates a renderer with an empty glyph cache.
func NewRenderer() *Renderer {
	cache, _ := lru.New[glyphKey, glyph](glyphCacheSize)
	return &Renderer{cache: cache}
}

// Render clears the surface and draws every cell: optional heat glow
// first, then an oriented glyph per cell, then a count label under any
// cell holding more than one entity. Zero cells yields a cleared frame.
func (r *Renderer) Render(cells []Cell, surface Surface) {
	surface.Clear()

	if r.HeatmapEnabled {
		for _, cell := range cells {
			r.drawGlow(cell, surface)
		}
	}

	for _, cell := range cells {
		x := int(math.Round(cell.Pixel.X))
		y := int(math.Round(cell.Pixel.Y))

		g := r.glyphFor(cell)
		surface.Set(x, y, g.ch, g.style)

		if cell.Count > 1 {
			label := strconv.Itoa(cell.Count)
			surface.Text(x-len(label)/2, y+1, label, render.Style{FG: render.ColorWhite, Bold: true})
		}
	}
}

// drawGlow lays an additive heat halo around the cell's glyph position.
// Intensity is the occupancy ratio capped at 1.0.
func (r *Renderer) drawGlow(cell Cell, surface Surface) {
	intensity := float64(cell.Count) / 16.0
	if intensity > 1 {
		intensity = 1
	}

	x := int(math.Round(cell.Pixel.X))
	y := int(math.Round(cell.Pixel.Y))

	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			falloff := 1.0
			if dx != 0 || dy != 0 {
				falloff = 0.4
			}
			surface.Glow(x+dx, y+dy, render.ColorHeat, intensity*falloff)
		}
	}
}

// glyphFor resolves the drawable for a cell, consulting the cache first.
func (r *Renderer) glyphFor(cell Cell) glyph {
	tier := Classify(cell.Count)

	size := 0
	if cell.Count >= denseThreshold {
		size = 1
	}

	key := glyphKey{
		tier:    tier,
		size:    size,
		heading: headingBucket(cell.Rep.Heading),
	}

	if g, ok := r.cache.Get(key); ok {
		return g
	}

	g := glyph{
		ch: headingGlyph(key.heading),
		style: render.Style{
			FG:   tierColor(tier),
			Bold: size > 0,
		},
	}
	r.cache.Add(key, g)
	return g
}

// headingBucket rounds a heading to its 22.5-degree bucket index [0,16).
func headingBucket(heading float64) int {
	b := int(math.Round(heading/headingBucketDeg)) % 16
	if b < 0 {
		b += 16
	}
	return b
}

// arrowGlyphs maps 45-degree sectors to arrow runes, starting at north.
var arrowGlyphs = [8]rune{'↑', '↗', '→', '↘', '↓', '↙', '←', '↖'}

// headingGlyph picks the arrow rune for a 22.5-degree bucket index.
func headingGlyph(bucket int) rune {
	return arrowGlyphs[((bucket+1)/2)%8]
}

// tierColor maps a density tier to its glyph color.
func tierColor(t Tier) render.Color {
	switch t {
	case TierSmall:
		return render.ColorYellow
	case TierDense:
		return render.ColorOrange
	case TierHeavy:
		return render.ColorRed
	default:
		return render.ColorSky
	}
}
