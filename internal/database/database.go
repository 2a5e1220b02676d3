package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a referenced row does not exist
var ErrNotFound = errors.New("not found")

// DBTX is satisfied by both *sql.DB and *sql.Tx so repository functions
// can run inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store owns the database handle
type Store struct {
	db *sql.DB
}

// NewStore wraps an open database
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying handle for non-transactional reads
func (s *Store) DB() DBTX {
	return s.db
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// WithTx runs fn inside one transaction, committing on success and rolling back on error.
// Transactions start with BEGIN IMMEDIATE (see Open), so writers are serialized.
func (s *Store) WithTx(ctx context.Context, fn func(tx DBTX) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Open creates and opens the SQLite database at path and runs migrations
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open with DSN options for SQLite pragmas
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return NewStore(db), nil
}

// RunMigrations creates all necessary tables
func RunMigrations(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS resumes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		content TEXT NOT NULL,
		filename TEXT,
		is_active BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS job_applications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		company_name TEXT NOT NULL,
		role_name TEXT NOT NULL,
		stage TEXT NOT NULL DEFAULT 'not_started',
		stage_date DATETIME NOT NULL,
		job_ad TEXT,
		cover_letter TEXT,
		notes TEXT,
		match_percentage REAL,
		match_reasoning TEXT,
		additional_info TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		CHECK(stage IN ('not_started', 'applied', 'in_progress', 'offer', 'rejected', 'no_answer'))
	);

	CREATE TABLE IF NOT EXISTS stage_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_application_id INTEGER NOT NULL,
		previous_stage TEXT,
		new_stage TEXT NOT NULL,
		changed_at DATETIME NOT NULL,
		FOREIGN KEY (job_application_id) REFERENCES job_applications(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS job_leads (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		company_name TEXT,
		role_name TEXT,
		job_posting TEXT NOT NULL,
		url TEXT,
		match_percentage REAL,
		match_reasoning TEXT,
		is_promoted BOOLEAN NOT NULL DEFAULT 0,
		promoted_to_application_id INTEGER,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY (promoted_to_application_id) REFERENCES job_applications(id) ON DELETE SET NULL,
		CHECK(match_percentage IS NULL OR (match_percentage >= 0 AND match_percentage <= 100))
	);

	CREATE INDEX IF NOT EXISTS idx_resumes_active ON resumes(is_active);
	CREATE INDEX IF NOT EXISTS idx_job_applications_company ON job_applications(company_name);
	CREATE INDEX IF NOT EXISTS idx_job_applications_stage ON job_applications(stage);
	CREATE INDEX IF NOT EXISTS idx_stage_history_application ON stage_history(job_application_id, changed_at);
	CREATE INDEX IF NOT EXISTS idx_job_leads_company ON job_leads(company_name);
	CREATE INDEX IF NOT EXISTS idx_job_leads_match ON job_leads(match_percentage);
	`

	_, err := db.Exec(schema)
	return err
}
