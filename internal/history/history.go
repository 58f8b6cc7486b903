// Package history optionally persists a one-row-per-run summary to a local
// SQLite file via database/sql and modernc.org/sqlite, so an operator can
// compare runs across invocations. This is CLI-level convenience, not
// backend persistence — the paged and monolithic backends themselves never
// touch disk.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"kvcachesim/internal/backend"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id          TEXT NOT NULL,
	recorded_at     TEXT NOT NULL,
	backend         TEXT NOT NULL,
	num_sequences   INTEGER NOT NULL,
	num_groups      INTEGER NOT NULL,
	tokens_per_page INTEGER NOT NULL,
	logical_tokens  INTEGER NOT NULL,
	logical_bytes   INTEGER NOT NULL,
	physical_bytes  INTEGER NOT NULL,
	PRIMARY KEY (run_id, backend)
);`

// Store wraps a SQLite-backed run history file.
type Store struct {
	db *sql.DB
}

// Open creates (if needed) and opens the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: opening %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Record inserts one row for a completed run.
func (s *Store) Record(runID, backendName string, cfg backend.Config, st backend.Stats) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (run_id, recorded_at, backend, num_sequences, num_groups, tokens_per_page, logical_tokens, logical_bytes, physical_bytes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, time.Now().UTC().Format(time.RFC3339), backendName,
		cfg.NumSequences, cfg.NumGroups, cfg.TokensPerPage,
		st.LogicalTokens, st.LogicalBytes, st.PhysicalBytes,
	)
	if err != nil {
		return fmt.Errorf("history: recording run %s: %w", runID, err)
	}
	return nil
}

// Recent returns the most recent n runs, most recent first.
func (s *Store) Recent(n int) ([]Row, error) {
	rows, err := s.db.Query(
		`SELECT run_id, recorded_at, backend, logical_bytes, physical_bytes
		 FROM runs ORDER BY recorded_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("history: querying recent runs: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.RunID, &r.RecordedAt, &r.Backend, &r.LogicalBytes, &r.PhysicalBytes); err != nil {
			return nil, fmt.Errorf("history: scanning row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Row is one summarized historical run.
type Row struct {
	RunID         string
	RecordedAt    string
	Backend       string
	LogicalBytes  int64
	PhysicalBytes int64
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }
