package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/san-kum/gridpde/internal/dynamo"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL,
	metadata TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS samples (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	idx INTEGER NOT NULL,
	t REAL NOT NULL,
	state TEXT NOT NULL,
	PRIMARY KEY (run_id, idx)
);
`

// SQLiteStore keeps all runs in a single database file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens or creates the database at path. The special path
// ":memory:" keeps everything in memory.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps ":memory:" databases alive across calls
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Save(meta RunMetadata, times []float64, states []dynamo.State) (string, error) {
	if err := prepare(&meta, times, states); err != nil {
		return "", err
	}
	blob, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}

	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, metadata) VALUES (?, ?, ?)`,
		meta.ID, meta.Timestamp.UTC(), string(blob)); err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO samples (run_id, idx, t, state) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for i, x := range states {
		data, err := json.Marshal([]float64(x))
		if err != nil {
			return "", err
		}
		if _, err := stmt.ExecContext(ctx, meta.ID, i, times[i], string(data)); err != nil {
			return "", fmt.Errorf("failed to insert sample %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func (s *SQLiteStore) List() ([]RunMetadata, error) {
	rows, err := s.db.Query(`SELECT metadata FROM runs ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]RunMetadata, 0)
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, err
		}
		var meta RunMetadata
		if err := json.Unmarshal([]byte(blob), &meta); err != nil {
			return nil, err
		}
		runs = append(runs, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortRuns(runs)
	return runs, nil
}

func (s *SQLiteStore) Load(runID string) (*RunMetadata, error) {
	var blob string
	err := s.db.QueryRow(`SELECT metadata FROM runs WHERE id = ?`, runID).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal([]byte(blob), &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *SQLiteStore) LoadStates(runID string) ([]dynamo.State, []float64, error) {
	if _, err := s.Load(runID); err != nil {
		return nil, nil, err
	}
	rows, err := s.db.Query(`SELECT t, state FROM samples WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	states := make([]dynamo.State, 0)
	times := make([]float64, 0)
	for rows.Next() {
		var (
			t    float64
			blob string
		)
		if err := rows.Scan(&t, &blob); err != nil {
			return nil, nil, err
		}
		var x dynamo.State
		if err := json.Unmarshal([]byte(blob), &x); err != nil {
			return nil, nil, err
		}
		times = append(times, t)
		states = append(states, x)
	}
	return states, times, rows.Err()
}
