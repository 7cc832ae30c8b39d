// Package store keeps a sqlite catalogue of the cleaned tracks and the
// history of training runs.
package store

import (
	"database/sql"
	"fmt"

	"github.com/ademuri/spotify-insights/internal/dataset"
	_ "github.com/mattn/go-sqlite3"
)

const createTables = `
CREATE TABLE IF NOT EXISTS Artist (
  name TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS Track (
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  album TEXT,
  artist TEXT NOT NULL,
  isrc TEXT,
  release_date TEXT NOT NULL,
  spotify_streams INTEGER NOT NULL,
  FOREIGN KEY (artist) REFERENCES Artist(name)
);

CREATE INDEX IF NOT EXISTS track_artist ON Track(artist);

CREATE TABLE IF NOT EXISTS TrainingRun (
  id INTEGER PRIMARY KEY,
  trained_at DATETIME NOT NULL,
  train_rows INTEGER NOT NULL,
  test_rows INTEGER NOT NULL,
  r2 REAL NOT NULL,
  mae REAL NOT NULL,
  model_path TEXT NOT NULL
);
`

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(createTables); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ensureSchema adds a REAL column to Track for every metric of the schema,
// so catalogues written by older builds pick up new metrics.
func ensureSchema(db *sql.DB) error {
	for _, c := range dataset.NumericColumns {
		if err := addColumnIfNotExists(db, "Track", c.Name, "REAL NOT NULL DEFAULT 0"); err != nil {
			return err
		}
	}
	return nil
}

func addColumnIfNotExists(db *sql.DB, table, column, typeDef string) error {
	exists, err := columnExists(db, table, column)
	if err != nil {
		return fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	if !exists {
		query := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, typeDef)
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("adding column %s.%s: %w", table, column, err)
		}
	}
	return nil
}

func columnExists(db *sql.DB, tableName string, columnName string) (bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", tableName))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name string
		var ctype string
		var notnull int
		var dfltValue interface{}
		var pk int
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return false, err
		}
		if name == columnName {
			return true, nil
		}
	}
	return false, rows.Err()
}
