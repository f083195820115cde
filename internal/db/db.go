package db

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB owns the single SQLite connection shared by every repository method.
// Each exported method holds mu for its full duration.
type DB struct {
	mu  sync.Mutex
	sql *sql.DB

	log *slog.Logger
	now func() time.Time
	loc *time.Location
}

// Option configures a DB
type Option func(*DB)

// WithLogger sets the logger used for migration and seeding diagnostics
func WithLogger(l *slog.Logger) Option {
	return func(db *DB) { db.log = l }
}

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(db *DB) { db.now = now }
}

// WithLocation sets the time zone used for smart list day boundaries
func WithLocation(loc *time.Location) Option {
	return func(db *DB) { db.loc = loc }
}

// Open opens (creating if needed) the database at path, applies pending
// migrations and re-asserts the smart list rows.
func Open(path string, opts ...Option) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, &StorageError{Op: "open", Err: err}
	}

	db := newDB(conn, opts...)
	if err := db.init(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// newDB wraps an open connection without touching the schema
func newDB(conn *sql.DB, opts ...Option) *DB {
	// One physical connection: every statement, transactional or not,
	// runs on the same handle.
	conn.SetMaxOpenConns(1)

	db := &DB{
		sql: conn,
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now: time.Now,
		loc: time.Local,
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

func (db *DB) init() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, err := db.sql.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return &StorageError{Op: "enable foreign keys", Err: err}
	}
	if err := db.migrate(); err != nil {
		return err
	}
	return db.upsertSmartLists()
}

// Close closes the database connection
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.sql.Close()
}

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// inTx runs fn inside a transaction, committing on success and rolling
// back on error or panic. Callers must already hold mu.
func (db *DB) inTx(op string, fn func(tx *sql.Tx) error) error {
	tx, err := db.sql.Begin()
	if err != nil {
		return &StorageError{Op: op + ": begin", Err: err}
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return &StorageError{Op: op + ": commit", Err: err}
	}
	committed = true
	return nil
}

func (db *DB) nowUnix() int64 {
	return db.now().Unix()
}

// GetSetting retrieves a setting value by key
func (db *DB) GetSetting(key string) (string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var value string
	err := db.sql.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", &StorageError{Op: "get setting", Err: err}
	}
	return value, nil
}

// SetSetting sets a setting value
func (db *DB) SetSetting(key, value string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.sql.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return &StorageError{Op: "set setting", Err: err}
	}
	return nil
}
