package database

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	_ "modernc.org/sqlite"
)

// Store persists the alert log mirror and scheduler counters in SQLite
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at dbPath and creates missing tables
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create database directory")
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	db.SetMaxOpenConns(1)

	createAlertLog := `
	CREATE TABLE IF NOT EXISTS alert_log (
		id TEXT PRIMARY KEY,
		price REAL NOT NULL,
		info TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);`
	if _, err = db.Exec(createAlertLog); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to create alert_log table")
	}

	createMetricsTable := `
	CREATE TABLE IF NOT EXISTS metrics (
		metric_name TEXT PRIMARY KEY,
		metric_value REAL NOT NULL
	);`
	if _, err = db.Exec(createMetricsTable); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to create metrics table")
	}

	log.WithField("path", dbPath).Debug("Database initialized successfully.")
	return &Store{db: db}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
