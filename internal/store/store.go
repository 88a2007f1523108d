// SPDX-License-Identifier: Apache-2.0

// Package store persists normalized prediction results so runs of the
// three predictors can be compared side by side after the fact.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/trifoldproj/trifold/internal/normalize"
)

// Store is a SQLite-backed result archive keyed by (job, tool, seed).
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the result store at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening result store: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing result store schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS results (
		job TEXT NOT NULL,
		tool TEXT NOT NULL,
		seed INTEGER NOT NULL,
		structure_ref TEXT,
		mean_confidence REAL,
		ptm REAL,
		iptm REAL,
		max_error REAL NOT NULL,
		payload BLOB NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (job, tool, seed)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save upserts one normalized result under the given job name.
func (s *Store) Save(ctx context.Context, job string, res *normalize.Result) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encoding result %s/%s seed %d: %w", job, res.Tool, res.Seed, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO results
		(job, tool, seed, structure_ref, mean_confidence, ptm, iptm, max_error, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job, res.Tool, res.Seed, res.StructureRef,
		res.Metrics.MeanConfidence, res.Metrics.PTM, res.Metrics.IPTM,
		res.MaxError, payload)
	if err != nil {
		return fmt.Errorf("saving result %s/%s seed %d: %w", job, res.Tool, res.Seed, err)
	}
	return nil
}

// Load retrieves one stored result.
func (s *Store) Load(ctx context.Context, job, tool string, seed int) (*normalize.Result, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM results WHERE job = ? AND tool = ? AND seed = ?`,
		job, tool, seed).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no result for %s/%s seed %d", job, tool, seed)
	}
	if err != nil {
		return nil, err
	}

	var res normalize.Result
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, fmt.Errorf("decoding result %s/%s seed %d: %w", job, tool, seed, err)
	}
	return &res, nil
}

// ComparisonRow is one line of the side-by-side metric table.
type ComparisonRow struct {
	Tool           string
	Seed           int
	StructureRef   string
	MeanConfidence *float64
	PTM            *float64
	IPTM           *float64
	MaxError       float64
}

// Compare lists the global metrics of every stored result for a job,
// ordered by tool then seed, for tabular comparison.
func (s *Store) Compare(ctx context.Context, job string) ([]ComparisonRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tool, seed, structure_ref, mean_confidence, ptm, iptm, max_error
		FROM results WHERE job = ? ORDER BY tool, seed`, job)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ComparisonRow
	for rows.Next() {
		var r ComparisonRow
		if err := rows.Scan(&r.Tool, &r.Seed, &r.StructureRef,
			&r.MeanConfidence, &r.PTM, &r.IPTM, &r.MaxError); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
