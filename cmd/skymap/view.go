package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/avmaps/skymap/internal/pipeline"
	"github.com/avmaps/skymap/internal/render"
	"github.com/avmaps/skymap/pkg/geo"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#66BBFF"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#808080"))

	staleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#E63C28"))
)

// termStyles caches lipgloss styles per cell style. The renderer reuses a
// small set of styles, so the cache stays tiny.
var termStyles = map[render.Style]lipgloss.Style{}

func styleFor(s render.Style) lipgloss.Style {
	if ls, ok := termStyles[s]; ok {
		return ls
	}
	ls := lipgloss.NewStyle().
		Foreground(lipgloss.Color(hexColor(s.FG)))
	if s.HasBG {
		ls = ls.Background(lipgloss.Color(hexColor(s.BG)))
	}
	if s.Bold {
		ls = ls.Bold(true)
	}
	termStyles[s] = ls
	return ls
}

func hexColor(c render.Color) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

func (m model) View() string {
	if m.canvas == nil {
		return "initializing..."
	}

	var b strings.Builder
	b.WriteString(m.headerLine())
	b.WriteByte('\n')
	b.WriteString(renderCanvas(m.canvas))
	b.WriteString(m.statusLine())
	return b.String()
}

func (m model) headerLine() string {
	header := fmt.Sprintf(" SKYMAP  %.3f°, %.3f°  z%.1f  [%s]",
		m.view.Center.Latitude, m.view.Center.Longitude, m.view.Zoom,
		m.eng.Detail())
	if m.eng.Heatmap() {
		header += "  heatmap"
	}
	return headerStyle.Render(header)
}

func (m model) statusLine() string {
	st := m.eng.Status()

	var parts []string
	parts = append(parts, fmt.Sprintf("aircraft %d", m.stats.Entities))
	parts = append(parts, fmt.Sprintf("cells %d", m.stats.Cells))
	parts = append(parts, fmt.Sprintf("grid %dpx", m.stats.GridSize))
	if m.stats.MeanFPS > 0 {
		parts = append(parts, fmt.Sprintf("%.0f fps", m.stats.MeanFPS))
	}
	if m.stats.Scale > 1 {
		parts = append(parts, fmt.Sprintf("scale %.2f", m.stats.Scale))
	}
	if !st.LastUpdate.IsZero() {
		parts = append(parts, fmt.Sprintf("updated %s ago",
			time.Since(st.LastUpdate).Round(time.Second)))
	}

	line := statusStyle.Render(" " + strings.Join(parts, "  |  "))

	switch {
	case st.Stale && st.LastError != "":
		line += staleStyle.Render("  STALE: " + st.LastError)
	case m.noData:
		line += statusStyle.Render("  waiting for data...")
	}

	line += statusStyle.Render("  |  q quit  d detail  m heatmap  r refresh")
	return line
}

// renderCanvas converts the cell buffer into styled terminal lines. Runs of
// identically-styled cells are emitted in one Render call.
func renderCanvas(c *render.Canvas) string {
	width, height := c.Size()

	var b strings.Builder
	for y := 0; y < height; y++ {
		var run strings.Builder
		var runStyle render.Style
		flush := func() {
			if run.Len() > 0 {
				b.WriteString(styleFor(runStyle).Render(run.String()))
				run.Reset()
			}
		}

		for x := 0; x < width; x++ {
			cell := c.At(x, y)
			if run.Len() > 0 && cell.Style != runStyle {
				flush()
			}
			runStyle = cell.Style
			run.WriteRune(cell.Ch)
		}
		flush()
		b.WriteByte('\n')
	}
	return b.String()
}

// drawPopup overlays an aircraft detail panel onto the map canvas, anchored
// near the selected entity but clamped inside the canvas.
func drawPopup(c *render.Canvas, e pipeline.Entity, view geo.ViewState) {
	lines := popupLines(e, view.Center)

	boxW := 0
	for _, l := range lines {
		if len([]rune(l)) > boxW {
			boxW = len([]rune(l))
		}
	}
	boxW += 4 // border and padding
	boxH := len(lines) + 2

	width, height := c.Size()
	px := view.Project(e.Position)
	x := int(px.X) + 2
	y := int(px.Y) - boxH/2
	if x+boxW > width {
		x = int(px.X) - boxW - 2
	}
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	if y+boxH > height {
		y = height - boxH
	}

	border := render.Style{FG: render.ColorSky}
	text := render.Style{FG: render.ColorWhite}
	fill := render.Style{FG: render.ColorWhite, BG: render.Color{R: 20, G: 20, B: 30}, HasBG: true}

	for row := 0; row < boxH; row++ {
		for col := 0; col < boxW; col++ {
			c.Set(x+col, y+row, ' ', fill)
		}
	}

	c.Set(x, y, '┌', border)
	c.Set(x+boxW-1, y, '┐', border)
	c.Set(x, y+boxH-1, '└', border)
	c.Set(x+boxW-1, y+boxH-1, '┘', border)
	for col := 1; col < boxW-1; col++ {
		c.Set(x+col, y, '─', border)
		c.Set(x+col, y+boxH-1, '─', border)
	}
	for row := 1; row < boxH-1; row++ {
		c.Set(x, y+row, '│', border)
		c.Set(x+boxW-1, y+row, '│', border)
	}

	for i, l := range lines {
		c.Text(x+2, y+1+i, l, text)
	}
}

func popupLines(e pipeline.Entity, origin geo.Position) []string {
	lines := []string{e.Label()}

	if e.Country != "" {
		lines = append(lines, e.Country)
	}
	lines = append(lines, fmt.Sprintf("%.4f°, %.4f°",
		e.Position.Latitude, e.Position.Longitude))
	lines = append(lines, fmt.Sprintf("rng %.0f nm  brg %03.0f°",
		geo.DistanceNauticalMiles(origin, e.Position),
		geo.Bearing(origin, e.Position)))

	if e.BaroAltitude != nil {
		lines = append(lines, fmt.Sprintf("alt %.0f m", *e.BaroAltitude))
	}
	if e.GroundSpeed != nil {
		lines = append(lines, fmt.Sprintf("spd %.0f m/s", *e.GroundSpeed))
	}
	lines = append(lines, fmt.Sprintf("hdg %.0f°", e.Heading))
	if e.VerticalRate != nil {
		lines = append(lines, fmt.Sprintf("v/s %+.1f m/s", *e.VerticalRate))
	}
	if e.OnGround {
		lines = append(lines, "on ground")
	}
	if !e.LastContact.IsZero() {
		lines = append(lines, "seen "+time.Since(e.LastContact).Round(time.Second).String()+" ago")
	}

	return lines
}
