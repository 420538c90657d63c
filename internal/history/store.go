package history

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"

	"github.com/crosswatch/dashd/internal/cwsdk"
	"github.com/crosswatch/dashd/internal/runstate"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	started_ts  INTEGER NOT NULL,
	finished_at INTEGER NOT NULL,
	exit_code   INTEGER NOT NULL,
	hydrated    INTEGER NOT NULL DEFAULT 0,
	features    TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_ts);
`

// Entry is one persisted finished run.
type Entry struct {
	RunID      string `db:"run_id" json:"run_id"`
	StartedTS  int64  `db:"started_ts" json:"started_ts"`
	FinishedAt int64  `db:"finished_at" json:"finished_at"`
	ExitCode   int    `db:"exit_code" json:"exit_code"`
	Hydrated   bool   `db:"hydrated" json:"hydrated"`
	FeaturesJS string `db:"features" json:"-"`

	Features map[cwsdk.FeatureKey]cwsdk.FeatureStats `db:"-" json:"features"`
}

// Store reads and writes the runs table.
type Store struct {
	db *sqlx.DB
}

// NewStore prepares the schema on db.
func NewStore(db *sqlx.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("history: schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record persists one finished run. Re-recording the same run id replaces
// the row, which covers the hydration pass updating tallies after the fact.
func (s *Store) Record(ctx context.Context, run runstate.FinishedRun) error {
	feats, err := json.Marshal(run.Features)
	if err != nil {
		return fmt.Errorf("history: encode features: %w", err)
	}

	entry := Entry{
		RunID:      run.RunID,
		StartedTS:  run.StartedTS,
		FinishedAt: time.Now().Unix(),
		ExitCode:   run.ExitCode,
		Hydrated:   !run.NeedsHydration,
		FeaturesJS: string(feats),
	}
	_, err = s.db.NamedExecContext(ctx, `
		INSERT OR REPLACE INTO runs (run_id, started_ts, finished_at, exit_code, hydrated, features)
		VALUES (:run_id, :started_ts, :finished_at, :exit_code, :hydrated, :features)`, entry)
	if err != nil {
		return fmt.Errorf("history: record run %s: %w", run.RunID, err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []Entry
	err := s.db.SelectContext(ctx, &rows, `
		SELECT run_id, started_ts, finished_at, exit_code, hydrated, features
		FROM runs ORDER BY started_ts DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: recent: %w", err)
	}
	for i := range rows {
		if err := json.Unmarshal([]byte(rows[i].FeaturesJS), &rows[i].Features); err != nil {
			return nil, fmt.Errorf("history: decode features for %s: %w", rows[i].RunID, err)
		}
	}
	return rows, nil
}

// Totals sums per-feature adds and removes across all recorded runs.
func (s *Store) Totals(ctx context.Context) (map[cwsdk.FeatureKey]cwsdk.FeatureStats, error) {
	var blobs []string
	if err := s.db.SelectContext(ctx, &blobs, `SELECT features FROM runs`); err != nil {
		return nil, fmt.Errorf("history: totals: %w", err)
	}

	totals := make(map[cwsdk.FeatureKey]cwsdk.FeatureStats)
	for _, blob := range blobs {
		var feats map[cwsdk.FeatureKey]cwsdk.FeatureStats
		if err := json.Unmarshal([]byte(blob), &feats); err != nil {
			return nil, fmt.Errorf("history: totals decode: %w", err)
		}
		for key, stats := range feats {
			agg := totals[key]
			agg.Added += stats.Added
			agg.Removed += stats.Removed
			agg.Updated += stats.Updated
			totals[key] = agg
		}
	}
	return totals, nil
}

// Count returns the number of recorded runs.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM runs`); err != nil {
		return 0, fmt.Errorf("history: count: %w", err)
	}
	return n, nil
}
