// Collector continuously fetches aircraft snapshots for a fixed region and
// records them in PostgreSQL, so history queries never hit the upstream API.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avmaps/skymap/internal/db"
	"github.com/avmaps/skymap/internal/pipeline"
	"github.com/avmaps/skymap/pkg/config"
	"github.com/avmaps/skymap/pkg/geo"
	"github.com/avmaps/skymap/pkg/opensky"
)

// maxStoredEntities caps one snapshot's row count.
const maxStoredEntities = 3000

var (
	configPath = flag.String("config", "configs/config.json", "Path to configuration file")
	radiusDeg  = flag.Float64("radius", 5.0, "Half-width of the collection region in degrees")
)

func main() {
	flag.Parse()

	log.Println("Starting skymap collector...")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	region := geo.Bounds{
		South: cfg.Map.CenterLatitude - *radiusDeg,
		West:  cfg.Map.CenterLongitude - *radiusDeg,
		North: cfg.Map.CenterLatitude + *radiusDeg,
		East:  cfg.Map.CenterLongitude + *radiusDeg,
	}
	log.Printf("Collection region: %.2f°..%.2f°N, %.2f°..%.2f°E",
		region.South, region.North, region.West, region.East)

	database, err := db.ReconnectWithRetry(cfg.Database, 5, 2*time.Second)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := database.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}
	log.Println("Database schema initialized")

	source := opensky.NewClient(cfg.Feed.BaseURL,
		time.Duration(cfg.Feed.MinRequestIntervalSeconds*float64(time.Second)))
	defer source.Close()

	c := &Collector{
		db:       database,
		repo:     db.NewSnapshotRepository(database),
		source:   source,
		region:   region,
		interval: time.Duration(cfg.Feed.RefreshIntervalSeconds) * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	doneChan := make(chan struct{})
	go func() {
		defer close(doneChan)
		c.Run(ctx)
	}()

	log.Println("Collector started, press Ctrl+C to stop")

	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
		cancel()
		<-doneChan
	case <-doneChan:
	}

	log.Println("Collector stopped")
}

// Collector manages the fetch-and-store cycle.
type Collector struct {
	db       *db.DB
	repo     *db.SnapshotRepository
	source   opensky.SnapshotSource
	region   geo.Bounds
	interval time.Duration

	totalUpdates int
	totalStored  int
}

// Run loops until the context is cancelled: snapshots on the fetch
// interval, cleanup every five minutes, stats every thirty seconds.
func (c *Collector) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(5 * time.Minute)
	defer cleanupTicker.Stop()

	statsTicker := time.NewTicker(30 * time.Second)
	defer statsTicker.Stop()

	c.update(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.update(ctx)
		case <-cleanupTicker.C:
			c.cleanup(ctx)
		case <-statsTicker.C:
			c.printStats(ctx)
		}
	}
}

// update fetches one snapshot and records it.
func (c *Collector) update(ctx context.Context) {
	snap, err := opensky.RetryWithBackoffResult(ctx, opensky.DefaultRetryConfig(),
		func() (*opensky.Snapshot, error) {
			return c.source.FetchSnapshot(ctx, c.region)
		})
	if err != nil {
		log.Printf("Fetch failed after retries: %v (will retry next cycle)", err)
		return
	}

	entities := pipeline.FilterSnapshot(snap.States, c.region, maxStoredEntities)
	if err := c.repo.SaveSnapshot(ctx, entities, snap.Time); err != nil {
		log.Printf("Failed to store snapshot: %v", err)
		return
	}

	c.totalUpdates++
	c.totalStored += len(entities)
	log.Printf("[%s] Update #%d: %d received, %d stored",
		snap.Time.Format("15:04:05"), c.totalUpdates, len(snap.States), len(entities))
}

// cleanup trims position history older than 24 hours.
func (c *Collector) cleanup(ctx context.Context) {
	if err := c.db.CleanupOldData(ctx, 24*time.Hour); err != nil {
		log.Printf("Cleanup failed: %v", err)
		return
	}
	log.Println("Cleanup completed")
}

// printStats logs table sizes.
func (c *Collector) printStats(ctx context.Context) {
	stats, err := c.db.GetStats(ctx)
	if err != nil {
		log.Printf("Failed to get stats: %v", err)
		return
	}

	log.Printf("Stats: %v aircraft, %v positions, %d updates this run",
		stats["aircraft"], stats["position_records"], c.totalUpdates)
}
