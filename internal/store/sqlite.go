package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

// ErrNotFound is returned when a run id does not exist.
var ErrNotFound = errors.New("run not found")

// Transit directions as stored in the transits table.
const (
	DirForward   = "forward"
	DirBackward  = "backward"
	DirRoundTrip = "roundtrip"
)

// Run describes one recorded analysis run.
type Run struct {
	ID          string
	Label       string
	Root        string
	NReplicas   int
	NIterations int
	NStates     int
	DT          float64
	CreatedAt   time.Time
}

// TransitSummary is an aggregated transit-time result for one configuration
// and direction.
type TransitSummary struct {
	Configuration int
	Direction     string
	Mean          float64
	Events        int
	Unit          string
}

// RunStore is a SQLite-backed run archive.
type RunStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
}

// Open opens (creating if necessary) the run database at dir/rexkin.db.
func Open(dir string) (*RunStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	dbPath := filepath.Join(dir, "rexkin.db")

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite works best with a single writer.
	db.SetMaxOpenConns(1)

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &RunStore{db: db, dbPath: dbPath}, nil
}

// Close closes the underlying database.
func (s *RunStore) Close() error {
	return s.db.Close()
}

// SaveRun records a run and its stitched trajectories in one transaction.
// A missing run ID is filled in with a fresh UUID; the assigned ID is
// returned.
func (s *RunStore) SaveRun(ctx context.Context, run Run, trajectories [][]int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, label, root, n_replicas, n_iterations, n_states, dt, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Label, run.Root, run.NReplicas, run.NIterations, run.NStates,
		run.DT, run.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	for cfg, states := range trajectories {
		blob, err := json.Marshal(states)
		if err != nil {
			return "", fmt.Errorf("failed to encode trajectory %d: %w", cfg, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO trajectories (run_id, configuration, states)
			VALUES (?, ?, ?)`,
			run.ID, cfg, string(blob))
		if err != nil {
			return "", fmt.Errorf("failed to insert trajectory %d: %w", cfg, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return run.ID, nil
}

// GetRun returns the run with the given id.
func (s *RunStore) GetRun(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, label, root, n_replicas, n_iterations, n_states, dt, created_at
		FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns all recorded runs, newest first.
func (s *RunStore) ListRuns(ctx context.Context) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label, root, n_replicas, n_iterations, n_states, dt, created_at
		FROM runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Trajectories returns the stitched trajectories of a run, indexed by
// configuration.
func (s *RunStore) Trajectories(ctx context.Context, runID string) ([][]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkRunExists(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT configuration, states FROM trajectories
		WHERE run_id = ? ORDER BY configuration`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trajectories: %w", err)
	}
	defer rows.Close()

	var trajectories [][]int
	for rows.Next() {
		var cfg int
		var blob string
		if err := rows.Scan(&cfg, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan trajectory: %w", err)
		}
		var states []int
		if err := json.Unmarshal([]byte(blob), &states); err != nil {
			return nil, fmt.Errorf("failed to decode trajectory %d: %w", cfg, err)
		}
		trajectories = append(trajectories, states)
	}
	return trajectories, rows.Err()
}

// SaveTransits records transit summaries for a run, replacing any previous
// summaries for the same configuration and direction.
func (s *RunStore) SaveTransits(ctx context.Context, runID string, summaries []TransitSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkRunExists(ctx, runID); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, sum := range summaries {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO transits (run_id, configuration, direction, mean, events, unit)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (run_id, configuration, direction)
			DO UPDATE SET mean = excluded.mean, events = excluded.events, unit = excluded.unit`,
			runID, sum.Configuration, sum.Direction, sum.Mean, sum.Events, sum.Unit)
		if err != nil {
			return fmt.Errorf("failed to insert transit summary: %w", err)
		}
	}
	return tx.Commit()
}

// Transits returns the stored transit summaries of a run.
func (s *RunStore) Transits(ctx context.Context, runID string) ([]TransitSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkRunExists(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT configuration, direction, mean, events, unit FROM transits
		WHERE run_id = ? ORDER BY configuration, direction`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transits: %w", err)
	}
	defer rows.Close()

	var summaries []TransitSummary
	for rows.Next() {
		var sum TransitSummary
		if err := rows.Scan(&sum.Configuration, &sum.Direction, &sum.Mean, &sum.Events, &sum.Unit); err != nil {
			return nil, fmt.Errorf("failed to scan transit summary: %w", err)
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// DeleteRun removes a run and, via cascade, its trajectories and transit
// summaries.
func (s *RunStore) DeleteRun(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RunStore) checkRunExists(ctx context.Context, id string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var created string
	err := row.Scan(&run.ID, &run.Label, &run.Root, &run.NReplicas, &run.NIterations,
		&run.NStates, &run.DT, &created)
	if err != nil {
		return nil, err
	}
	run.CreatedAt, err = time.Parse(time.RFC3339, created)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return &run, nil
}
