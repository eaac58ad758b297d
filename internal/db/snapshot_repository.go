package db

import (
	"context"
	"fmt"
	"time"

	"github.com/avmaps/skymap/internal/pipeline"
)

// SnapshotRepository records filtered entity snapshots.
type SnapshotRepository struct {
	db *DB
}

// NewSnapshotRepository creates a repository backed by the given database.
func NewSnapshotRepository(db *DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// SaveSnapshot upserts the aircraft rows and appends one position row per
// entity, all inside a single transaction so a partially-written snapshot
// never becomes visible.
func (r *SnapshotRepository) SaveSnapshot(ctx context.Context, entities []pipeline.Entity, observedAt time.Time) error {
	if len(entities) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	upsert, err := tx.PrepareContext(ctx,
		`INSERT INTO aircraft (icao24, callsign, country, last_seen)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (icao24) DO UPDATE SET
		     callsign = EXCLUDED.callsign,
		     country = EXCLUDED.country,
		     last_seen = EXCLUDED.last_seen`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare aircraft upsert: %w", err)
	}
	defer upsert.Close()

	insertPos, err := tx.PrepareContext(ctx,
		`INSERT INTO aircraft_positions (
		     icao24, latitude, longitude, baro_altitude,
		     velocity, heading, vertical_rate, on_ground, observed_at
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare position insert: %w", err)
	}
	defer insertPos.Close()

	for _, e := range entities {
		lastSeen := e.LastContact
		if lastSeen.IsZero() {
			lastSeen = observedAt
		}

		if _, err := upsert.ExecContext(ctx, e.ID, e.Callsign, e.Country, lastSeen); err != nil {
			return fmt.Errorf("failed to upsert aircraft %s: %w", e.ID, err)
		}

		if _, err := insertPos.ExecContext(ctx,
			e.ID,
			e.Position.Latitude,
			e.Position.Longitude,
			e.BaroAltitude,
			e.GroundSpeed,
			e.Heading,
			e.VerticalRate,
			e.OnGround,
			observedAt,
		); err != nil {
			return fmt.Errorf("failed to insert position for %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}

	return nil
}

// CountPositions returns the number of stored position rows for one
// aircraft, newest-first bounded by since.
func (r *SnapshotRepository) CountPositions(ctx context.Context, icao24 string, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM aircraft_positions WHERE icao24 = $1 AND observed_at >= $2`,
		icao24, since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count positions: %w", err)
	}
	return count, nil
}
