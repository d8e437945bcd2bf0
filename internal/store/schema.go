// Package store persists analysis runs in SQLite so stitched trajectories
// can be re-analyzed without re-reading the simulation output tree.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SchemaVersion is the current schema version.
const SchemaVersion = 1

const schemaV1 = `
-- One row per recorded analysis run
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    label TEXT NOT NULL,
    root TEXT NOT NULL,          -- simulation output tree the run was read from
    n_replicas INTEGER NOT NULL,
    n_iterations INTEGER NOT NULL,
    n_states INTEGER NOT NULL,
    dt REAL NOT NULL DEFAULT 0,  -- ps per step, 0 when durations are step counts
    created_at TEXT NOT NULL
);

-- Stitched per-configuration state trajectories
CREATE TABLE IF NOT EXISTS trajectories (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    configuration INTEGER NOT NULL,
    states TEXT NOT NULL,        -- JSON array of state indices
    PRIMARY KEY (run_id, configuration)
);

-- Transit-time summaries derived from the trajectories
CREATE TABLE IF NOT EXISTS transits (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    configuration INTEGER NOT NULL,
    direction TEXT NOT NULL,     -- 'forward', 'backward', or 'roundtrip'
    mean REAL NOT NULL,
    events INTEGER NOT NULL,
    unit TEXT NOT NULL,
    PRIMARY KEY (run_id, configuration, direction)
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);
`

// InitSchema creates or upgrades the database schema.
func InitSchema(ctx context.Context, db *sql.DB) error {
	currentVersion, err := getSchemaVersion(ctx, db)
	if err != nil {
		// No schema_version table yet, fresh database.
		return createSchema(ctx, db)
	}
	if currentVersion < SchemaVersion {
		return migrateSchema(ctx, db, currentVersion)
	}
	return nil
}

// getSchemaVersion returns the current schema version. It errors when the
// schema_version table does not exist.
func getSchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version int
	err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_version`).Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

func createSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_version (version, applied_at) VALUES (?, ?)`,
		SchemaVersion, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return tx.Commit()
}

// migrateSchema upgrades the schema from an older version. No migrations
// exist yet.
func migrateSchema(ctx context.Context, db *sql.DB, from int) error {
	if from < 1 {
		return createSchema(ctx, db)
	}
	return nil
}
