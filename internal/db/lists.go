package db

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/tgienger/dida/internal/models"
)

const listColumns = "id, name, icon, color, is_smart, order_num, created_at"

func scanList(s scanner) (*models.List, error) {
	l := &models.List{}
	var isSmart int
	if err := s.Scan(&l.ID, &l.Name, &l.Icon, &l.Color, &isSmart, &l.Order, &l.CreatedAt); err != nil {
		return nil, err
	}
	l.IsSmart = isSmart != 0
	return l, nil
}

// CreateList creates a new list. An empty ID is generated and a zero
// CreatedAt is stamped with the current time.
func (db *DB) CreateList(list models.List) (*models.List, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if list.ID == "" {
		list.ID = uuid.NewString()
	}
	if list.CreatedAt == 0 {
		list.CreatedAt = db.nowUnix()
	}

	_, err := db.sql.Exec(`
		INSERT INTO lists (id, name, icon, color, is_smart, order_num, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, list.ID, list.Name, list.Icon, list.Color, boolInt(list.IsSmart), list.Order, list.CreatedAt)
	if err != nil {
		return nil, classify("create list", "list", "id", list.ID, err)
	}
	return &list, nil
}

// GetList retrieves a list by ID
func (db *DB) GetList(id string) (*models.List, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return getList(db.sql, id)
}

func getList(q querier, id string) (*models.List, error) {
	l, err := scanList(q.QueryRow("SELECT "+listColumns+" FROM lists WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: "list", ID: id}
	}
	if err != nil {
		return nil, &StorageError{Op: "get list", Err: err}
	}
	return l, nil
}

// ListLists returns all lists in display order
func (db *DB) ListLists() ([]models.List, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.queryLists("SELECT " + listColumns + " FROM lists ORDER BY order_num ASC, created_at ASC, id ASC")
}

// ListSmartLists returns only the smart lists, in display order
func (db *DB) ListSmartLists() ([]models.List, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.queryLists("SELECT " + listColumns + " FROM lists WHERE is_smart = 1 ORDER BY order_num ASC, created_at ASC, id ASC")
}

// ListUserLists returns only the user-defined lists, in display order
func (db *DB) ListUserLists() ([]models.List, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.queryLists("SELECT " + listColumns + " FROM lists WHERE is_smart = 0 ORDER BY order_num ASC, created_at ASC, id ASC")
}

func (db *DB) queryLists(query string, args ...any) ([]models.List, error) {
	rows, err := db.sql.Query(query, args...)
	if err != nil {
		return nil, &StorageError{Op: "list lists", Err: err}
	}
	defer rows.Close()

	lists := []models.List{}
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, &StorageError{Op: "scan list", Err: err}
		}
		lists = append(lists, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "list lists", Err: err}
	}
	return lists, nil
}

// UpdateList rewrites a list's name, icon, color and order. ID, CreatedAt
// and IsSmart never change after creation.
func (db *DB) UpdateList(list models.List) (*models.List, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	result, err := db.sql.Exec(`
		UPDATE lists SET name = ?, icon = ?, color = ?, order_num = ?
		WHERE id = ?
	`, list.Name, list.Icon, list.Color, list.Order, list.ID)
	if err != nil {
		return nil, &StorageError{Op: "update list", Err: err}
	}
	if err := expectRows(result, "list", list.ID); err != nil {
		return nil, err
	}
	return getList(db.sql, list.ID)
}

// DeleteList deletes a list and, through the foreign key cascade, all of
// its tasks. This bypasses the trash and cannot be undone.
func (db *DB) DeleteList(id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	result, err := db.sql.Exec("DELETE FROM lists WHERE id = ?", id)
	if err != nil {
		return &StorageError{Op: "delete list", Err: err}
	}
	return expectRows(result, "list", id)
}

// expectRows turns a zero affected-row count into a NotFoundError
func expectRows(result sql.Result, kind, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return &StorageError{Op: "rows affected", Err: err}
	}
	if n == 0 {
		return &NotFoundError{Kind: kind, ID: id}
	}
	return nil
}
