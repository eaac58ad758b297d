// skymap-console is the tview-based map client: the same rendering
// pipeline as skymap, presented with telemetry and log sidebars for
// long-running console sessions.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/avmaps/skymap/internal/engine"
	"github.com/avmaps/skymap/internal/feed"
	"github.com/avmaps/skymap/internal/pipeline"
	"github.com/avmaps/skymap/internal/prefs"
	"github.com/avmaps/skymap/pkg/config"
	"github.com/avmaps/skymap/pkg/geo"
	"github.com/avmaps/skymap/pkg/opensky"
)

var (
	configPath = flag.String("config", defaultConfigPath(), "Path to configuration file")
	prefsPath  = flag.String("prefs", "", "Path to preferences file (default: user config dir)")
	useProxy   = flag.Bool("proxy", false, "Fetch through the configured proxy server")
)

func defaultConfigPath() string {
	if base, err := os.UserConfigDir(); err == nil {
		return base + "/skymap/config.json"
	}
	return "config.json"
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
	if (*useProxy || p.ProxyEnabled) && cfg.Feed.ProxyURL != "" {
		baseURL = cfg.Feed.ProxyURL
	}
	source := opensky.NewClient(baseURL,
		time.Duration(cfg.Feed.MinRequestIntervalSeconds*float64(time.Second)))
	defer source.Close()

	store := pipeline.NewStore()
	eng := engine.New(store)
	eng.SetDetail(pipeline.ParseDetailLevel(p.DetailLevel))
	eng.SetHeatmap(p.HeatmapEnabled)

	app := NewApp(cfg, eng, prefStore)

	refresher := feed.New(feed.Config{
		Source:      source,
		Store:       store,
		Bounds:      app.ViewBounds,
		MaxEntities: eng.MaxEntities,
		Interval:    time.Duration(cfg.Feed.RefreshIntervalSeconds) * time.Second,
	})
	app.refresher = refresher

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go refresher.Run(ctx)
	defer refresher.Close()

	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "skymap-console failed: %v\n", err)
		os.Exit(1)
	}
}

// initialView builds the starting viewport from configuration. The real
// surface dimensions arrive with the first draw.
func initialView(cfg *config.Config) geo.ViewState {
	return geo.ViewState{
		Center: geo.Position{
			Latitude:  cfg.Map.CenterLatitude,
			Longitude: cfg.Map.CenterLongitude,
		},
		Zoom:   cfg.Map.Zoom,
		Width:  80,
		Height: 24,
	}
}
