package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/avmaps/skymap/internal/engine"
	"github.com/avmaps/skymap/internal/feed"
	"github.com/avmaps/skymap/internal/pipeline"
	"github.com/avmaps/skymap/internal/prefs"
	"github.com/avmaps/skymap/internal/render"
	"github.com/avmaps/skymap/pkg/config"
	"github.com/avmaps/skymap/pkg/geo"
)

// consoleFrameInterval is the console client's target frame cadence. The
// adaptive controller measures what is actually delivered.
const consoleFrameInterval = time.Second / 30

// panStep is the pan distance in pixels per keypress.
const panStep = 4

// App wires the rendering engine into a tview layout: the map on the left,
// telemetry and logs on the right.
type App struct {
	cfg       *config.Config
	eng       *engine.Engine
	prefStore *prefs.Store
	refresher *feed.Refresher
	scheduler *engine.TickScheduler

	tviewApp  *tview.Application
	mapView   *MapView
	telemetry *tview.TextView
	logs      *tview.TextView

	mu       sync.RWMutex
	view     geo.ViewState
	canvas   *render.Canvas
	stats    engine.FrameStats
	frameTS  time.Time
	selected *pipeline.Entity
	wasStale bool
}

// NewApp builds the UI around an already-configured engine.
func NewApp(cfg *config.Config, eng *engine.Engine, prefStore *prefs.Store) *App {
	app := &App{
		cfg:       cfg,
		eng:       eng,
		prefStore: prefStore,
		scheduler: engine.NewTickScheduler(consoleFrameInterval),
		view:      initialView(cfg),
		canvas:    render.NewCanvas(0, 0),
	}
	app.setupUI()
	return app
}

func (a *App) setupUI() {
	a.tviewApp = tview.NewApplication()

	a.mapView = NewMapView(a)

	a.telemetry = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	a.telemetry.SetBorder(true).SetTitle(" Telemetry ")

	a.logs = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetMaxLines(100)
	a.logs.SetBorder(true).SetTitle(" Logs ")

	controls := tview.NewTextView().SetDynamicColors(true)
	controls.SetBorder(true).SetTitle(" Controls ")
	controls.SetText(`[yellow]MAP[-]
  [white]↑↓←→ hjkl[-] Pan
  [white]+/-[-]       Zoom
  [white]click[-]     Inspect

[yellow]DISPLAY[-]
  [white]d[-]         Detail level
  [white]a[-]         Heatmap
  [white]0[-]         Reset scale

[yellow]CONTROL[-]
  [white]r[-]         Refresh now
  [white]q[-]         Quit`)

	sidebar := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.telemetry, 0, 4, false).
		AddItem(controls, 0, 3, false).
		AddItem(a.logs, 0, 3, false)

	root := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(a.mapView, 0, 7, true).
		AddItem(sidebar, 0, 3, false)

	a.tviewApp.SetRoot(root, true)
	a.tviewApp.EnableMouse(true)
	a.tviewApp.SetInputCapture(a.handleKeyboard)

	a.addLog("INFO", "skymap console started")
}

// Run starts the frame scheduler and blocks on the tview event loop.
func (a *App) Run() error {
	a.scheduler.Start(func(ts time.Time) {
		a.mu.Lock()
		a.frameTS = ts
		a.mu.Unlock()
		a.tviewApp.QueueUpdateDraw(a.updateTelemetry)
	})
	defer a.scheduler.Stop()

	return a.tviewApp.Run()
}

// ViewBounds returns the current viewport bounds for the refresher.
func (a *App) ViewBounds() geo.Bounds {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.view.Bounds()
}

// renderFrame runs the pipeline for one frame. Called from MapView.Draw on
// the tview event goroutine, so engine access stays single-threaded.
func (a *App) renderFrame(width, height int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.view.Width != width || a.view.Height != height {
		a.view.Width = width
		a.view.Height = height
		a.canvas.Resize(width, height)
		if a.refresher != nil {
			a.refresher.ViewportChanged()
		}
	}

	ts := a.frameTS
	if ts.IsZero() {
		ts = time.Now()
	}
	a.stats = a.eng.RenderFrame(ts, a.view, a.canvas)

	st := a.eng.Status()
	if st.Stale && !a.wasStale && st.LastError != "" {
		a.logLocked("ERROR", "feed stale: "+st.LastError)
	}
	if !st.Stale && a.wasStale {
		a.logLocked("INFO", "feed recovered")
	}
	a.wasStale = st.Stale
}

// handleClick hit-tests a click in map-local pixel coordinates.
func (a *App) handleClick(px geo.Pixel) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if e, ok := a.eng.HitTest(px, a.view); ok {
		a.selected = &e
		a.logLocked("INFO", fmt.Sprintf("Selected %s", e.Label()))
	} else {
		a.selected = nil
	}
}

func (a *App) handleKeyboard(event *tcell.EventKey) *tcell.EventKey {
	key := event.Key()
	r := event.Rune()

	switch {
	case key == tcell.KeyEscape || r == 'q':
		a.tviewApp.Stop()
		return nil

	case key == tcell.KeyUp || r == 'k':
		a.pan(0, -panStep)
		return nil
	case key == tcell.KeyDown || r == 'j':
		a.pan(0, panStep)
		return nil
	case key == tcell.KeyLeft || r == 'h':
		a.pan(-panStep, 0)
		return nil
	case key == tcell.KeyRight || r == 'l':
		a.pan(panStep, 0)
		return nil

	case r == '+' || r == '=':
		a.zoom(1)
		return nil
	case r == '-':
		a.zoom(-1)
		return nil

	case r == 'd':
		next := a.eng.CycleDetail()
		a.addLog("INFO", "Detail level: "+next.String())
		a.savePrefs()
		return nil
	case r == 'a':
		a.eng.SetHeatmap(!a.eng.Heatmap())
		a.addLog("INFO", fmt.Sprintf("Heatmap: %v", a.eng.Heatmap()))
		a.savePrefs()
		return nil
	case r == '0':
		a.eng.ResetScale()
		a.addLog("INFO", "Density scale reset")
		return nil
	case r == 'r':
		if a.refresher != nil {
			a.refresher.ViewportChanged()
		}
		return nil
	}

	return event
}

func (a *App) pan(dx, dy float64) {
	a.mu.Lock()
	a.view = a.view.Panned(dx, dy)
	a.mu.Unlock()
	if a.refresher != nil {
		a.refresher.ViewportChanged()
	}
}

func (a *App) zoom(delta float64) {
	a.mu.Lock()
	a.view = a.view.Zoomed(delta)
	a.mu.Unlock()
	if a.refresher != nil {
		a.refresher.ViewportChanged()
	}
}

func (a *App) savePrefs() {
	p := a.prefStore.Load()
	p.DetailLevel = a.eng.Detail().String()
	p.HeatmapEnabled = a.eng.Heatmap()
	if err := a.prefStore.Save(p); err != nil {
		a.addLog("WARN", "failed to save preferences: "+err.Error())
	}
}

// updateTelemetry refreshes the sidebar from the last rendered frame.
func (a *App) updateTelemetry() {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var text string

	if a.selected != nil {
		e := a.selected
		text += fmt.Sprintf("[yellow]AIRCRAFT:[-] [white]%s[-] [gray](%s)[-]\n", e.Label(), e.ID)
		if e.Country != "" {
			text += fmt.Sprintf("[gray]From:[-] [white]%s[-]\n", e.Country)
		}
		text += fmt.Sprintf("[gray]Pos:[-]  [white]%.4f°, %.4f°[-]\n",
			e.Position.Latitude, e.Position.Longitude)
		if e.BaroAltitude != nil {
			text += fmt.Sprintf("[gray]Alt:[-]  [white]%.0f m[-]\n", *e.BaroAltitude)
		}
		if e.GroundSpeed != nil {
			text += fmt.Sprintf("[gray]Spd:[-]  [white]%.0f m/s[-]\n", *e.GroundSpeed)
		}
		text += fmt.Sprintf("[gray]Hdg:[-]  [white]%.0f°[-]\n", e.Heading)
		text += fmt.Sprintf("[gray]Rng:[-]  [white]%.0f nm[-]  [gray]Brg:[-] [white]%03.0f°[-]\n",
			geo.DistanceNauticalMiles(a.view.Center, e.Position),
			geo.Bearing(a.view.Center, e.Position))
	} else {
		text += "[gray]No aircraft selected[-]\n"
	}

	text += "\n"

	st := a.eng.Status()
	text += fmt.Sprintf("[yellow]VIEW:[-] [white]%.3f°, %.3f°[-] [gray]z[-][white]%.1f[-]\n",
		a.view.Center.Latitude, a.view.Center.Longitude, a.view.Zoom)
	text += fmt.Sprintf("[gray]Aircraft:[-] [white]%d[-]  [gray]Cells:[-] [white]%d[-]\n",
		a.stats.Entities, a.stats.Cells)
	text += fmt.Sprintf("[gray]Grid:[-] [white]%dpx[-]  [gray]Detail:[-] [white]%s[-]\n",
		a.stats.GridSize, a.eng.Detail())
	if a.stats.MeanFPS > 0 {
		text += fmt.Sprintf("[gray]FPS:[-] [white]%.0f[-]  [gray]Scale:[-] [white]%.2f[-]\n",
			a.stats.MeanFPS, a.stats.Scale)
	}
	if !st.LastUpdate.IsZero() {
		text += fmt.Sprintf("[gray]Updated:[-] [white]%s[-]\n",
			st.LastUpdate.Format("15:04:05"))
	}
	if st.Stale {
		text += "[red]FEED STALE[-]\n"
	}

	a.telemetry.SetText(text)
}

// addLog appends a timestamped line to the log panel.
func (a *App) addLog(level, message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logLocked(level, message)
}

// logLocked is addLog for callers already holding the mutex.
func (a *App) logLocked(level, message string) {
	var color string
	switch level {
	case "ERROR":
		color = "red"
	case "WARN":
		color = "yellow"
	case "DEBUG":
		color = "gray"
	default:
		color = "white"
	}
	fmt.Fprintf(a.logs, "[gray]%s[-] [%s]%-5s[-] %s\n",
		time.Now().Format("15:04:05"), color, level, message)
}
