// Package store keeps a run history for Carbon programs in SQLite.
// Programs are content-addressed by the SHA-256 of their code bytes, so
// renaming or moving a .crbn file does not fork its history.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/carbn/carbon/pkg/bytecode"
)

// Store is the SQLite-backed run history.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// Run is one recorded execution of a program.
type Run struct {
	ID           string
	ProgramHash  string
	Started      time.Time
	Duration     time.Duration
	Exit         string // "ok" or the error kind
	Instructions uint64
}

// Open creates or opens a run-history database at the given path, creating
// parent directories as needed.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	for _, ddl := range []string{
		`CREATE TABLE IF NOT EXISTS programs (
			hash       TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			size       INTEGER NOT NULL,
			first_seen TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id           TEXT PRIMARY KEY,
			program_hash TEXT NOT NULL REFERENCES programs(hash),
			started      TEXT NOT NULL,
			duration_ms  INTEGER NOT NULL,
			exit_kind    TEXT NOT NULL,
			instructions INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS runs_by_program ON runs(program_hash, started)`,
	} {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordRun inserts the program row if the hash is new (an existing row,
// with its first_seen, is left unchanged) and inserts one run. An empty runID
// gets a fresh UUID. Returns the run ID.
func (s *Store) RecordRun(runID string, prog *bytecode.Program, started time.Time, duration time.Duration, exit string, instructions uint64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	hash := prog.HashString()
	_, err = tx.Exec(
		`INSERT INTO programs (hash, name, size, first_seen) VALUES (?, ?, ?, ?)
		 ON CONFLICT(hash) DO NOTHING`,
		hash, prog.Name, prog.Len(), started.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("recording program: %w", err)
	}

	id := runID
	if id == "" {
		id = uuid.NewString()
	}
	_, err = tx.Exec(
		`INSERT INTO runs (id, program_hash, started, duration_ms, exit_kind, instructions)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, hash, started.UTC().Format(time.RFC3339Nano), duration.Milliseconds(), exit, instructions,
	)
	if err != nil {
		return "", fmt.Errorf("recording run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// History returns the runs of a program, most recent first.
func (s *Store) History(hash string) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT id, program_hash, started, duration_ms, exit_kind, instructions
		 FROM runs WHERE program_hash = ? ORDER BY started DESC`,
		hash,
	)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started string
		var durationMs int64
		if err := rows.Scan(&r.ID, &r.ProgramHash, &started, &durationMs, &r.Exit, &r.Instructions); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Started, err = time.Parse(time.RFC3339Nano, started)
		if err != nil {
			return nil, fmt.Errorf("parsing run timestamp: %w", err)
		}
		r.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ProgramCount returns the number of distinct programs seen.
func (s *Store) ProgramCount() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM programs`).Scan(&n)
	return n, err
}
