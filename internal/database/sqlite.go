package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const fileName = "rewards.db"

// dsnOptions enables foreign keys, waits on a locked database instead of
// failing, and makes every BeginTx issue BEGIN IMMEDIATE so a transaction
// holds the write lock from its first read.
const dsnOptions = "?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type DB struct {
	*sql.DB
}

func New(dataDir string) (*DB, error) {
	return Open(filepath.Join(dataDir, fileName) + dsnOptions)
}

func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &DB{db}, nil
}

// HasSchema reports whether the employees table exists, which marks an
// already bootstrapped database.
func HasSchema(ctx context.Context, q Querier) (bool, error) {
	var name string
	err := q.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'employees'",
	).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to inspect schema: %w", err)
	}
	return true, nil
}

func (d *DB) HasSchema(ctx context.Context) (bool, error) {
	return HasSchema(ctx, d.DB)
}

// CreateSchema creates all tables if absent.
func CreateSchema(ctx context.Context, e Execer) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS employees (
			name TEXT PRIMARY KEY,
			points INTEGER NOT NULL DEFAULT 0 CHECK (points >= 0)
		)`,
		`CREATE TABLE IF NOT EXISTS logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			employee_name TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			manager TEXT NOT NULL,
			action TEXT NOT NULL,
			reason TEXT NOT NULL,
			FOREIGN KEY (employee_name) REFERENCES employees(name)
		)`,
		`CREATE TABLE IF NOT EXISTS managers (
			username TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			hash TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_logs_employee_timestamp ON logs(employee_name, timestamp)`,
	}

	for _, m := range migrations {
		if _, err := e.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}
