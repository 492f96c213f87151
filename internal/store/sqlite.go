package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid request")
)

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA busy_timeout=5000;`,
		`PRAGMA foreign_keys=ON;`,
		`CREATE TABLE IF NOT EXISTS jobs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			full_name TEXT NOT NULL UNIQUE,
			url TEXT NOT NULL DEFAULT '',
			disabled INTEGER NOT NULL DEFAULT 0,
			icon_color TEXT NOT NULL DEFAULT '',
			created_utc TEXT NOT NULL,
			updated_utc TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS builds (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			job_id INTEGER NOT NULL,
			number INTEGER NOT NULL,
			url TEXT NOT NULL DEFAULT '',
			result TEXT NOT NULL DEFAULT '',
			building INTEGER NOT NULL DEFAULT 0,
			not_started INTEGER NOT NULL DEFAULT 0,
			started_utc TEXT,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			culprits_json TEXT NOT NULL DEFAULT '[]',
			UNIQUE(job_id, number),
			FOREIGN KEY(job_id) REFERENCES jobs(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS test_reports (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			build_id INTEGER NOT NULL,
			total INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			FOREIGN KEY(build_id) REFERENCES builds(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS matrix_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			build_id INTEGER NOT NULL,
			combination TEXT NOT NULL,
			number INTEGER NOT NULL,
			url TEXT NOT NULL DEFAULT '',
			result TEXT NOT NULL DEFAULT '',
			building INTEGER NOT NULL DEFAULT 0,
			UNIQUE(build_id, combination),
			FOREIGN KEY(build_id) REFERENCES builds(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS claims (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			job_full_name TEXT NOT NULL,
			build_number INTEGER NOT NULL,
			combination TEXT NOT NULL DEFAULT '',
			claimed INTEGER NOT NULL,
			claimed_by TEXT NOT NULL DEFAULT '',
			reason TEXT NOT NULL DEFAULT '',
			updated_utc TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_claims_build ON claims(job_full_name, build_number, combination);`,
		`CREATE TABLE IF NOT EXISTS queue (
			position INTEGER PRIMARY KEY,
			item TEXT NOT NULL,
			job_full_name TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS app_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_utc TEXT NOT NULL
		);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate schema: %w", err)
		}
	}
	if err := s.addColumnIfMissing("jobs", "project_name", "TEXT NOT NULL DEFAULT ''"); err != nil {
		return err
	}
	if err := s.addColumnIfMissing("builds", "log_updated", "INTEGER NOT NULL DEFAULT 0"); err != nil {
		return err
	}
	if err := s.addColumnIfMissing("matrix_runs", "started_utc", "TEXT"); err != nil {
		return err
	}
	if err := s.addColumnIfMissing("matrix_runs", "duration_ms", "INTEGER NOT NULL DEFAULT 0"); err != nil {
		return err
	}
	return nil
}

func (s *Store) addColumnIfMissing(table, col, typ string) error {
	_, err := s.db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, col, typ))
	if err != nil && !strings.Contains(strings.ToLower(err.Error()), "duplicate column name") {
		return fmt.Errorf("add column %s.%s: %w", table, col, err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
