// Package render provides the persistent off-screen drawing surface the
// pipeline renders into: a rectangular buffer of styled character cells.
// Terminal clients blit the buffer to their own toolkit (lipgloss strings
// for the bubbletea client, tcell.Screen for the console client); the
// pipeline itself never touches a real terminal.
package render

// Color is a 24-bit RGB color.
type Color struct {
	R, G, B uint8
}

// Common palette used by the map renderer.
var (
	ColorWhite    = Color{255, 255, 255}
	ColorGray     = Color{128, 128, 128}
	ColorDarkGray = Color{64, 64, 64}
	ColorSky      = Color{102, 187, 255}
	ColorYellow   = Color{255, 215, 0}
	ColorOrange   = Color{255, 140, 0}
	ColorRed      = Color{230, 60, 40}
	ColorHeat     = Color{255, 80, 0}
)

// Scale returns the color multiplied by ratio in [0,1].
func (c Color) Scale(ratio float64) Color {
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	return Color{
		R: uint8(float64(c.R) * ratio),
		G: uint8(float64(c.G) * ratio),
		B: uint8(float64(c.B) * ratio),
	}
}

// Add returns the saturating sum of two colors. Used for additive glow.
func (c Color) Add(o Color) Color {
	return Color{
		R: satAdd(c.R, o.R),
		G: satAdd(c.G, o.G),
		B: satAdd(c.B, o.B),
	}
}

func satAdd(a, b uint8) uint8 {
	s := uint16(a) + uint16(b)
	if s > 255 {
		return 255
	}
	return uint8(s)
}

// Style describes how a cell is drawn.
type Style struct {
	FG    Color
	BG    Color
	HasBG bool
	Bold  bool
}

// CellContent is one drawn character cell.
type CellContent struct {
	Ch    rune
	Style Style
}

// Canvas is a fixed-size buffer of styled cells with (0,0) at top-left.
// All draw calls silently clip to the canvas bounds.
type Canvas struct {
	width  int
	height int
	cells  []CellContent
}

// NewCanvas allocates a cleared canvas.
func NewCanvas(width, height int) *Canvas {
	c := &Canvas{}
	c.Resize(width, height)
	return c
}

// Resize reallocates the buffer for new dimensions and clears it.
func (c *Canvas) Resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	c.width = width
	c.height = height
	c.cells = make([]CellContent, width*height)
	c.Clear()
}

// Size returns the canvas dimensions.
func (c *Canvas) Size() (width, height int) {
	return c.width, c.height
}

// Clear resets every cell to a blank space with no style. Must run before
// each frame; stale cells from the previous frame would otherwise ghost.
func (c *Canvas) Clear() {
	blank := CellContent{Ch: ' '}
	for i := range c.cells {
		c.cells[i] = blank
	}
}

// Set draws a single character cell.
func (c *Canvas) Set(x, y int, ch rune, style Style) {
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return
	}
	cell := &c.cells[y*c.width+x]
	cell.Ch = ch
	// Preserve a glow background laid down before the glyph.
	if !style.HasBG && cell.Style.HasBG {
		style.BG = cell.Style.BG
		style.HasBG = true
	}
	cell.Style = style
}

// Glow additively blends a background color into the cell, leaving any
// character already there untouched.
func (c *Canvas) Glow(x, y int, color Color, intensity float64) {
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return
	}
	cell := &c.cells[y*c.width+x]
	scaled := color.Scale(intensity)
	if cell.Style.HasBG {
		cell.Style.BG = cell.Style.BG.Add(scaled)
	} else {
		cell.Style.BG = scaled
		cell.Style.HasBG = true
	}
}

// Text draws a string left-to-right starting at (x, y).
func (c *Canvas) Text(x, y int, text string, style Style) {
	for i, ch := range []rune(text) {
		c.Set(x+i, y, ch, style)
	}
}

// At returns the cell content at (x, y), blank outside the bounds.
func (c *Canvas) At(x, y int) CellContent {
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return CellContent{Ch: ' '}
	}
	return c.cells[y*c.width+x]
}

// Equal reports whether two canvases hold identical content. Used to
// verify that redrawing an unchanged scene is pixel-identical.
func (c *Canvas) Equal(o *Canvas) bool {
	if c.width != o.width || c.height != o.height {
		return false
	}
	for i := range c.cells {
		if c.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}
