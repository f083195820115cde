package db

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/tgienger/dida/internal/models"
)

const tagColumns = "id, name, color, parent_id, is_pinned, created_at"

func scanTag(s scanner) (*models.Tag, error) {
	t := &models.Tag{}
	var (
		parentID sql.NullString
		pinned   int
	)
	if err := s.Scan(&t.ID, &t.Name, &t.Color, &parentID, &pinned, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.ParentID = stringPtr(parentID)
	t.IsPinned = pinned != 0
	return t, nil
}

// CreateTag creates a new tag. Names are unique; a duplicate returns a
// ConflictError.
func (db *DB) CreateTag(tag models.Tag) (*models.Tag, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if tag.ID == "" {
		tag.ID = uuid.NewString()
	}
	if tag.CreatedAt == 0 {
		tag.CreatedAt = db.nowUnix()
	}
	tag.ParentID = parentOrNil(tag.ParentID)
	if err := checkTagParent(db.sql, tag.ID, tag.ParentID); err != nil {
		return nil, err
	}

	_, err := db.sql.Exec(`
		INSERT INTO tags (id, name, color, parent_id, is_pinned, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, tag.ID, tag.Name, tag.Color, tag.ParentID, boolInt(tag.IsPinned), tag.CreatedAt)
	if err != nil {
		return nil, classify("create tag", "tag", "name", tag.Name, err)
	}
	return getTag(db.sql, tag.ID)
}

// GetTag retrieves a tag by ID
func (db *DB) GetTag(id string) (*models.Tag, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return getTag(db.sql, id)
}

func getTag(q querier, id string) (*models.Tag, error) {
	t, err := scanTag(q.QueryRow("SELECT "+tagColumns+" FROM tags WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: "tag", ID: id}
	}
	if err != nil {
		return nil, &StorageError{Op: "get tag", Err: err}
	}
	return t, nil
}

// GetTagByName retrieves a tag by its name (case-insensitive)
func (db *DB) GetTagByName(name string) (*models.Tag, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	t, err := scanTag(db.sql.QueryRow("SELECT "+tagColumns+" FROM tags WHERE LOWER(name) = LOWER(?)", name))
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: "tag", ID: name}
	}
	if err != nil {
		return nil, &StorageError{Op: "get tag by name", Err: err}
	}
	return t, nil
}

// ListTags returns all tags ordered by name
func (db *DB) ListTags() ([]models.Tag, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.queryTags("SELECT " + tagColumns + " FROM tags ORDER BY name ASC")
}

// ListTagChildren returns the direct children of a tag ordered by name
func (db *DB) ListTagChildren(parentID string) ([]models.Tag, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.queryTags("SELECT "+tagColumns+" FROM tags WHERE parent_id = ? ORDER BY name ASC", parentID)
}

func (db *DB) queryTags(query string, args ...any) ([]models.Tag, error) {
	rows, err := db.sql.Query(query, args...)
	if err != nil {
		return nil, &StorageError{Op: "list tags", Err: err}
	}
	defer rows.Close()

	tags := []models.Tag{}
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, &StorageError{Op: "scan tag", Err: err}
		}
		tags = append(tags, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "list tags", Err: err}
	}
	return tags, nil
}

// UpdateTag rewrites a tag's name, color, parent and pinned flag
func (db *DB) UpdateTag(tag models.Tag) (*models.Tag, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	tag.ParentID = parentOrNil(tag.ParentID)
	if err := checkTagParent(db.sql, tag.ID, tag.ParentID); err != nil {
		return nil, err
	}

	result, err := db.sql.Exec(`
		UPDATE tags SET name = ?, color = ?, parent_id = ?, is_pinned = ?
		WHERE id = ?
	`, tag.Name, tag.Color, tag.ParentID, boolInt(tag.IsPinned), tag.ID)
	if err != nil {
		return nil, classify("update tag", "tag", "name", tag.Name, err)
	}
	if err := expectRows(result, "tag", tag.ID); err != nil {
		return nil, err
	}
	return getTag(db.sql, tag.ID)
}

// DeleteTag deletes a tag. Its task associations go with it and child
// tags become top-level.
func (db *DB) DeleteTag(id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	result, err := db.sql.Exec("DELETE FROM tags WHERE id = ?", id)
	if err != nil {
		return &StorageError{Op: "delete tag", Err: err}
	}
	return expectRows(result, "tag", id)
}

// parentOrNil treats an empty parent id as top-level
func parentOrNil(parentID *string) *string {
	if parentID == nil || *parentID == "" {
		return nil
	}
	return parentID
}

// checkTagParent rejects a parent that does not exist or whose ancestor
// chain leads back to tagID.
func checkTagParent(q querier, tagID string, parentID *string) error {
	if parentID == nil {
		return nil
	}

	seen := map[string]bool{tagID: true}
	next := *parentID
	for next != "" {
		if seen[next] {
			return &ConflictError{Kind: "tag", Field: "parent_id", Value: *parentID}
		}
		seen[next] = true

		var up sql.NullString
		err := q.QueryRow("SELECT parent_id FROM tags WHERE id = ?", next).Scan(&up)
		if err == sql.ErrNoRows {
			if next == *parentID {
				return &NotFoundError{Kind: "tag", ID: next}
			}
			return nil
		}
		if err != nil {
			return &StorageError{Op: "check tag parent", Err: err}
		}
		next = up.String
	}
	return nil
}
