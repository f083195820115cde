package db

import (
	"github.com/tgienger/dida/internal/models"
)

// upsertSmartLists re-asserts the fixed smart list rows so a deleted or
// edited row heals on the next start. An upsert keeps created_at and,
// unlike INSERT OR REPLACE, never cascades into the tasks of smart_inbox.
// Callers must hold mu.
func (db *DB) upsertSmartLists() error {
	now := db.nowUnix()
	for _, l := range models.SmartLists() {
		_, err := db.sql.Exec(`
			INSERT INTO lists (id, name, icon, color, is_smart, order_num, created_at)
			VALUES (?, ?, ?, ?, 1, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				icon = excluded.icon,
				color = excluded.color,
				is_smart = 1,
				order_num = excluded.order_num
		`, l.ID, l.Name, l.Icon, l.Color, l.Order, now)
		if err != nil {
			return &StorageError{Op: "seed smart list " + l.ID, Err: err}
		}
	}

	rows, err := db.sql.Query("SELECT id, name, order_num FROM lists WHERE is_smart = 1 ORDER BY order_num")
	if err != nil {
		// Diagnostics only
		db.log.Warn("read back smart lists", "err", err)
		return nil
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id, name string
			order    int
		)
		if err := rows.Scan(&id, &name, &order); err != nil {
			db.log.Warn("read back smart lists", "err", err)
			return nil
		}
		db.log.Debug("smart list", "id", id, "name", name, "order", order)
	}
	return nil
}

// SeedDefaultLists inserts the smart lists when the lists table is empty.
// It reports whether anything was seeded.
func (db *DB) SeedDefaultLists() (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var count int
	if err := db.sql.QueryRow("SELECT COUNT(*) FROM lists").Scan(&count); err != nil {
		return false, &StorageError{Op: "count lists", Err: err}
	}
	if count > 0 {
		return false, nil
	}
	if err := db.upsertSmartLists(); err != nil {
		return false, err
	}
	return true, nil
}
