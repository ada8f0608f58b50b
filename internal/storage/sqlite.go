package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/san-kum/hydrosim/internal/kinetics"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	created_at  TEXT NOT NULL,
	temperature REAL NOT NULL,
	metadata    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS samples (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	idx    INTEGER NOT NULL,
	time   REAL NOT NULL,
	pools  TEXT NOT NULL,
	PRIMARY KEY (run_id, idx)
);`

// SQLiteStore keeps runs in a SQLite database: one row per run in runs and
// one row per sample in samples.
type SQLiteStore struct {
	db *sql.DB
}

// SQLitePath is the database file used under a data directory.
func SQLitePath(dataDir string) string {
	return filepath.Join(dataDir, "runs.db")
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := NewFileStore(dir).Init(); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("storage: failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: failed to connect to database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Save(meta RunMetadata, result *kinetics.Result) (string, error) {
	meta = complete(meta, result)
	encoded, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"INSERT INTO runs (id, created_at, temperature, metadata) VALUES (?, ?, ?, ?)",
		meta.ID, meta.Timestamp.Format("2006-01-02T15:04:05.000000000Z07:00"), meta.Conditions.Temperature, string(encoded),
	); err != nil {
		return "", fmt.Errorf("storage: inserting run %s: %w", meta.ID, err)
	}

	stmt, err := tx.Prepare("INSERT INTO samples (run_id, idx, time, pools) VALUES (?, ?, ?, ?)")
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for i, row := range seriesRows(result) {
		pools, err := json.Marshal(row)
		if err != nil {
			return "", err
		}
		if _, err := stmt.Exec(meta.ID, i, result.Time[i], string(pools)); err != nil {
			return "", fmt.Errorf("storage: inserting sample %d of %s: %w", i, meta.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func (s *SQLiteStore) List() ([]RunMetadata, error) {
	rows, err := s.db.Query("SELECT metadata FROM runs ORDER BY created_at, rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]RunMetadata, 0)
	for rows.Next() {
		var encoded string
		if err := rows.Scan(&encoded); err != nil {
			return nil, err
		}
		var meta RunMetadata
		if err := json.Unmarshal([]byte(encoded), &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) Load(id string) (*RunMetadata, error) {
	var encoded string
	err := s.db.QueryRow("SELECT metadata FROM runs WHERE id = ?", id).Scan(&encoded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal([]byte(encoded), &meta); err != nil {
		return nil, fmt.Errorf("storage: decoding metadata of %s: %w", id, err)
	}
	return &meta, nil
}

func (s *SQLiteStore) LoadSeries(id string) ([]string, []float64, [][]float64, error) {
	if _, err := s.Load(id); err != nil {
		return nil, nil, nil, err
	}

	rows, err := s.db.Query("SELECT time, pools FROM samples WHERE run_id = ? ORDER BY idx", id)
	if err != nil {
		return nil, nil, nil, err
	}
	defer rows.Close()

	times := make([]float64, 0)
	series := make([][]float64, 0)
	for rows.Next() {
		var t float64
		var encoded string
		if err := rows.Scan(&t, &encoded); err != nil {
			return nil, nil, nil, err
		}
		var values []float64
		if err := json.Unmarshal([]byte(encoded), &values); err != nil {
			return nil, nil, nil, fmt.Errorf("storage: decoding sample of %s: %w", id, err)
		}
		times = append(times, t)
		series = append(series, values)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, nil, err
	}
	return SeriesHeader(), times, series, nil
}
