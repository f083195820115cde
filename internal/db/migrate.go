package db

import (
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/tgienger/dida/internal/models"
)

//go:embed schema.sql
var schema string

// migration is one ordered, additive schema step
type migration struct {
	version int
	name    string
	apply   func(tx *sql.Tx) error
}

// migrations must only ever be appended to
var migrations = []migration{
	{1, "base_schema", func(tx *sql.Tx) error {
		_, err := tx.Exec(schema)
		return err
	}},
	{2, "tasks_is_deleted", addColumn("tasks", "is_deleted", "INTEGER NOT NULL DEFAULT 0")},
	{3, "tasks_repeat_rule", addColumn("tasks", "repeat_rule", "TEXT")},
	{4, "lists_is_smart", addColumn("lists", "is_smart", "INTEGER NOT NULL DEFAULT 0")},
	{5, "tags_parent_id", addColumn("tags", "parent_id", "TEXT REFERENCES tags(id) ON DELETE SET NULL")},
	{6, "tags_is_pinned", addColumn("tags", "is_pinned", "INTEGER NOT NULL DEFAULT 0")},
	{7, "reminder_epoch", convertLegacyReminders},
}

// migrate applies every migration not yet recorded in schema_migrations.
// Callers must hold mu.
func (db *DB) migrate() error {
	_, err := db.sql.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return &StorageError{Op: "create schema_migrations", Err: err}
	}

	applied := make(map[int]bool)
	rows, err := db.sql.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return &StorageError{Op: "read schema_migrations", Err: err}
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return &StorageError{Op: "read schema_migrations", Err: err}
		}
		applied[v] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return &StorageError{Op: "read schema_migrations", Err: err}
	}

	for _, m := range migrations {
		if applied[m.version] {
			continue
		}
		err := db.inTx("migration "+m.name, func(tx *sql.Tx) error {
			if err := m.apply(tx); err != nil {
				return &StorageError{Op: "migration " + m.name, Err: err}
			}
			_, err := tx.Exec(
				"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)",
				m.version, m.name, db.nowUnix(),
			)
			if err != nil {
				return &StorageError{Op: "record migration " + m.name, Err: err}
			}
			return nil
		})
		if err != nil {
			return err
		}
		db.log.Info("applied migration", "version", m.version, "name", m.name)
	}
	return nil
}

// SchemaVersion returns the highest applied migration version
func (db *DB) SchemaVersion() (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var v sql.NullInt64
	if err := db.sql.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&v); err != nil {
		return 0, &StorageError{Op: "schema version", Err: err}
	}
	return int(v.Int64), nil
}

// addColumn adds table.column when a table created by an older release
// lacks it; otherwise the step is a no-op.
func addColumn(table, column, definition string) func(tx *sql.Tx) error {
	return func(tx *sql.Tx) error {
		exists, err := hasColumn(tx, table, column)
		if err != nil || exists {
			return err
		}
		_, err = tx.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
		return err
	}
}

func hasColumn(q querier, table, column string) (bool, error) {
	rows, err := q.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dfltValue, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// convertLegacyReminders rewrites textual reminders from older clients as
// epoch seconds, resolving offset keys against the task's due date.
func convertLegacyReminders(tx *sql.Tx) error {
	type legacy struct {
		id  string
		raw string
		due *int64
	}

	rows, err := tx.Query(`
		SELECT id, reminder, due_date FROM tasks
		WHERE reminder IS NOT NULL AND typeof(reminder) = 'text'
	`)
	if err != nil {
		return err
	}
	var pending []legacy
	for rows.Next() {
		var (
			l   legacy
			due sql.NullInt64
		)
		if err := rows.Scan(&l.id, &l.raw, &due); err != nil {
			rows.Close()
			return err
		}
		l.due = int64Ptr(due)
		pending = append(pending, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, l := range pending {
		if _, err := tx.Exec("UPDATE tasks SET reminder = ? WHERE id = ?",
			models.ParseLegacyReminder(l.raw, l.due), l.id); err != nil {
			return err
		}
	}
	return nil
}
