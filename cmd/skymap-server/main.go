// skymap-server runs the shared proxy: one upstream feed subscription,
// fanned out to many map clients over REST and websocket.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avmaps/skymap/internal/auth"
	"github.com/avmaps/skymap/internal/feed"
	"github.com/avmaps/skymap/internal/pipeline"
	"github.com/avmaps/skymap/internal/server"
	"github.com/avmaps/skymap/pkg/config"
	"github.com/avmaps/skymap/pkg/geo"
	"github.com/avmaps/skymap/pkg/opensky"
)

// serverMaxEntities caps the server-side filtered list. The server has no
// frame loop, so the cap is fixed rather than adaptive.
const serverMaxEntities = 3000

var (
	configPath   = flag.String("config", "configs/config.json", "Path to configuration file")
	hashPassword = flag.String("hash", "", "Print a bcrypt hash for the given password and exit")
)

func main() {
	flag.Parse()

	if *hashPassword != "" {
		svc := auth.NewService(auth.Config{JWTSecret: "unused"})
		hash, err := svc.HashPassword(*hashPassword)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Server.JWTSecret == "" {
		log.Fatal("Server JWT secret is not configured (set SKYMAP_JWT_SECRET)")
	}

	source := opensky.NewClient(cfg.Feed.BaseURL,
		time.Duration(cfg.Feed.MinRequestIntervalSeconds*float64(time.Second)))
	defer source.Close()

	store := pipeline.NewStore()

	region := regionFromConfig(cfg)
	srv := server.New(cfg.Server, cfg.Feed, store, region)

	refresher := feed.New(feed.Config{
		Source:      source,
		Store:       store,
		Bounds:      srv.Region,
		MaxEntities: func() int { return serverMaxEntities },
		Interval:    time.Duration(cfg.Feed.RefreshIntervalSeconds) * time.Second,
	})
	srv.OnRegionChange(refresher.ViewportChanged)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go refresher.Run(ctx)
	defer refresher.Close()

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      srv.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("skymap-server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// regionFromConfig derives the initial collection region from the configured
// map center: a fixed-size box the admin can move later via the API.
func regionFromConfig(cfg *config.Config) geo.Bounds {
	const halfSpanDeg = 5.0
	center := geo.Position{
		Latitude:  cfg.Map.CenterLatitude,
		Longitude: cfg.Map.CenterLongitude,
	}
	return geo.Bounds{
		South: center.Latitude - halfSpanDeg,
		West:  center.Longitude - halfSpanDeg,
		North: center.Latitude + halfSpanDeg,
		East:  center.Longitude + halfSpanDeg,
	}
}
