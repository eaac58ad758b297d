// skymap is the interactive terminal map client: it polls the state feed,
// keeps the viewport-filtered entity list up to date, and redraws the
// aggregated aircraft layer every frame with adaptive density control.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/avmaps/skymap/internal/engine"
	"github.com/avmaps/skymap/internal/feed"
	"github.com/avmaps/skymap/internal/pipeline"
	"github.com/avmaps/skymap/internal/prefs"
	"github.com/avmaps/skymap/internal/render"
	"github.com/avmaps/skymap/pkg/config"
	"github.com/avmaps/skymap/pkg/geo"
	"github.com/avmaps/skymap/pkg/opensky"
)

// Frame cadence of the redraw loop. Delivery is not guaranteed at this
// rate; the controller measures the actual interval.
const frameInterval = time.Second / 30

// Screen rows reserved for the header and status bar.
const chromeRows = 2

// Pan step in pixels per keypress.
const panStep = 4

var (
	configPath = flag.String("config", defaultConfigPath(), "Path to configuration file")
	prefsPath  = flag.String("prefs", "", "Path to preferences file (default: user config dir)")
)

func defaultConfigPath() string {
	if base, err := os.UserConfigDir(); err == nil {
		return base + "/skymap/config.json"
	}
	return "config.json"
}

// sharedView hands the UI goroutine's current viewport to the refresh
// goroutine. The refresher only needs bounds at fetch time.
type sharedView struct {
	mu   sync.RWMutex
	view geo.ViewState
}

func (s *sharedView) Set(v geo.ViewState) {
	s.mu.Lock()
	s.view = v
	s.mu.Unlock()
}

func (s *sharedView) Bounds() geo.Bounds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view.Bounds()
}

// frameMsg carries the delivered frame timestamp.
type frameMsg time.Time

func frameTick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

type model struct {
	eng       *engine.Engine
	refresher *feed.Refresher
	prefStore *prefs.Store
	shared    *sharedView

	canvas *render.Canvas
	view   geo.ViewState
	stats  engine.FrameStats

	// popup is the entity selected by the last successful hit test.
	popup  *pipeline.Entity
	noData bool
}

func (m model) Init() tea.Cmd {
	return frameTick()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		if m.canvas != nil && m.view.Width > 0 {
			m.stats = m.eng.RenderFrame(time.Time(msg), m.view, m.canvas)
			m.noData = m.eng.Status().LastUpdate.IsZero()
			if m.popup != nil {
				drawPopup(m.canvas, *m.popup, m.view)
			}
		}
		return m, frameTick()

	case tea.WindowSizeMsg:
		m.view.Width = msg.Width
		m.view.Height = msg.Height - chromeRows
		if m.view.Height < 1 {
			m.view.Height = 1
		}
		if m.canvas == nil {
			m.canvas = render.NewCanvas(m.view.Width, m.view.Height)
		} else {
			m.canvas.Resize(m.view.Width, m.view.Height)
		}
		m.viewportChanged()
		return m, nil

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonLeft {
			click := geo.Pixel{X: float64(msg.X), Y: float64(msg.Y - 1)} // below header row
			if e, ok := m.eng.HitTest(click, m.view); ok {
				m.popup = &e
			} else {
				m.popup = nil
			}
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "esc":
		m.popup = nil
		return m, nil

	case "up", "k":
		m.view = m.view.Panned(0, -panStep)
		m.viewportChanged()
	case "down", "j":
		m.view = m.view.Panned(0, panStep)
		m.viewportChanged()
	case "left", "h":
		m.view = m.view.Panned(-panStep, 0)
		m.viewportChanged()
	case "right", "l":
		m.view = m.view.Panned(panStep, 0)
		m.viewportChanged()

	case "+", "=":
		m.view = m.view.Zoomed(1)
		m.viewportChanged()
	case "-":
		m.view = m.view.Zoomed(-1)
		m.viewportChanged()

	case "d":
		m.eng.CycleDetail()
		m.savePrefs()
	case "m":
		m.eng.SetHeatmap(!m.eng.Heatmap())
		m.savePrefs()
	case "0":
		m.eng.ResetScale()
	case "r":
		m.refresher.ViewportChanged()
	}

	return m, nil
}

// viewportChanged publishes the new view to the refresh goroutine and
// requests an early (rate-limited) refresh.
func (m *model) viewportChanged() {
	m.shared.Set(m.view)
	m.refresher.ViewportChanged()
}

// savePrefs persists display settings. Failures are logged and ignored.
func (m *model) savePrefs() {
	p := m.prefStore.Load()
	p.DetailLevel = m.eng.Detail().String()
	p.HeatmapEnabled = m.eng.Heatmap()
	if err := m.prefStore.Save(p); err != nil {
		log.Printf("failed to save preferences: %v", err)
	}
}

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	prefStore, err := prefs.NewStore(*prefsPath)
	if err != nil {
		log.Fatalf("Failed to open preferences: %v", err)
	}
	p := prefStore.Load()

	baseURL := cfg.Feed.BaseURL
	if p.ProxyEnabled && cfg.Feed.ProxyURL != "" {
		baseURL = cfg.Feed.ProxyURL
	}
	source := opensky.NewClient(baseURL,
		time.Duration(cfg.Feed.MinRequestIntervalSeconds*float64(time.Second)))
	defer source.Close()

	store := pipeline.NewStore()
	eng := engine.New(store)
	eng.SetDetail(pipeline.ParseDetailLevel(p.DetailLevel))
	eng.SetHeatmap(p.HeatmapEnabled)

	shared := &sharedView{}
	shared.Set(geo.ViewState{
		Center: geo.Position{
			Latitude:  cfg.Map.CenterLatitude,
			Longitude: cfg.Map.CenterLongitude,
		},
		Zoom:   cfg.Map.Zoom,
		Width:  80,
		Height: 24,
	})

	refresher := feed.New(feed.Config{
		Source:      source,
		Store:       store,
		Bounds:      shared.Bounds,
		MaxEntities: eng.MaxEntities,
		Interval:    time.Duration(cfg.Feed.RefreshIntervalSeconds) * time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go refresher.Run(ctx)
	defer refresher.Close()

	m := model{
		eng:       eng,
		refresher: refresher,
		prefStore: prefStore,
		shared:    shared,
		view:      shared.view,
	}

	prog := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := prog.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "skymap failed: %v\n", err)
		os.Exit(1)
	}
}
