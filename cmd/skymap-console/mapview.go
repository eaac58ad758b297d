package main

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/avmaps/skymap/internal/render"
	"github.com/avmaps/skymap/pkg/geo"
)

// MapView is a custom tview primitive that runs the rendering pipeline for
// its inner rectangle and blits the resulting cell buffer to the screen.
type MapView struct {
	*tview.Box
	app *App
}

// NewMapView creates the map primitive.
func NewMapView(app *App) *MapView {
	mv := &MapView{
		Box: tview.NewBox(),
		app: app,
	}
	mv.SetBorder(true).SetTitle(" Live Map ")
	return mv
}

// Draw renders one frame into the inner rectangle.
func (mv *MapView) Draw(screen tcell.Screen) {
	mv.Box.DrawForSubclass(screen, mv)

	x, y, width, height := mv.GetInnerRect()
	if width <= 0 || height <= 0 {
		return
	}

	mv.app.renderFrame(width, height)

	mv.app.mu.RLock()
	canvas := mv.app.canvas
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			cell := canvas.At(col, row)
			screen.SetContent(x+col, y+row, cell.Ch, nil, tcellStyle(cell.Style))
		}
	}
	mv.app.mu.RUnlock()
}

// MouseHandler hit-tests left clicks against the rendered entity list.
func (mv *MapView) MouseHandler() func(action tview.MouseAction, event *tcell.EventMouse, setFocus func(p tview.Primitive)) (consumed bool, capture tview.Primitive) {
	return mv.WrapMouseHandler(func(action tview.MouseAction, event *tcell.EventMouse, setFocus func(p tview.Primitive)) (bool, tview.Primitive) {
		if action != tview.MouseLeftClick {
			return false, nil
		}

		mx, my := event.Position()
		if !mv.InRect(mx, my) {
			return false, nil
		}

		x, y, _, _ := mv.GetInnerRect()
		mv.app.handleClick(geo.Pixel{
			X: float64(mx - x),
			Y: float64(my - y),
		})
		setFocus(mv)
		return true, nil
	})
}

// tcellStyle converts a canvas cell style into a tcell style.
func tcellStyle(s render.Style) tcell.Style {
	style := tcell.StyleDefault.
		Foreground(tcell.NewRGBColor(int32(s.FG.R), int32(s.FG.G), int32(s.FG.B)))
	if s.HasBG {
		style = style.Background(tcell.NewRGBColor(int32(s.BG.R), int32(s.BG.G), int32(s.BG.B)))
	}
	if s.Bold {
		style = style.Bold(true)
	}
	return style
}
