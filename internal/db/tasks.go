package db

import (
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/tgienger/dida/internal/models"
)

const taskColumns = `id, title, description, list_id, completed, priority,
	due_date, reminder, repeat_rule, parent_id, order_num, is_deleted,
	created_at, updated_at, completed_at`

// taskColumnsT is taskColumns qualified with the alias t, for joins
const taskColumnsT = `t.id, t.title, t.description, t.list_id, t.completed, t.priority,
	t.due_date, t.reminder, t.repeat_rule, t.parent_id, t.order_num, t.is_deleted,
	t.created_at, t.updated_at, t.completed_at`

// Default ordering for list, tag and subtask views
const taskOrder = "order_num ASC, created_at DESC, id ASC"

func scanTask(s scanner) (*models.Task, error) {
	t := &models.Task{}
	var (
		description sql.NullString
		completed   int
		priority    int
		due         sql.NullInt64
		reminder    sql.NullInt64
		repeat      sql.NullString
		parentID    sql.NullString
		deleted     int
		completedAt sql.NullInt64
	)
	err := s.Scan(&t.ID, &t.Title, &description, &t.ListID, &completed, &priority,
		&due, &reminder, &repeat, &parentID, &t.Order, &deleted,
		&t.CreatedAt, &t.UpdatedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	t.Description = description.String
	t.Completed = completed != 0
	t.Priority = models.PriorityFromInt(priority)
	t.DueDate = int64Ptr(due)
	t.Reminder = int64Ptr(reminder)
	t.ParentID = stringPtr(parentID)
	t.IsDeleted = deleted != 0
	t.CompletedAt = int64Ptr(completedAt)
	t.Tags = []string{}

	if repeat.Valid {
		// A malformed rule reads as no rule rather than failing the listing
		if r, err := models.DecodeRepeat(repeat.String); err == nil {
			t.Repeat = r
		}
	}
	return t, nil
}

// taskTags returns the ids of the tags attached to a task. The join on
// tags means only associations to existing tags are reported.
func taskTags(q querier, taskID string) ([]string, error) {
	rows, err := q.Query(`
		SELECT tt.tag_id
		FROM task_tags tt
		JOIN tags t ON t.id = tt.tag_id
		WHERE tt.task_id = ?
		ORDER BY t.name
	`, taskID)
	if err != nil {
		return nil, &StorageError{Op: "get task tags", Err: err}
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, &StorageError{Op: "scan task tag", Err: err}
		}
		tags = append(tags, id)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "get task tags", Err: err}
	}
	return tags, nil
}

// insertTaskTags attaches tags to a task. Duplicates and ids with no
// matching tag are skipped without error.
func insertTaskTags(q querier, taskID string, tagIDs []string) error {
	for _, tagID := range tagIDs {
		_, err := q.Exec(`
			INSERT OR IGNORE INTO task_tags (task_id, tag_id)
			SELECT ?, id FROM tags WHERE id = ?
		`, taskID, tagID)
		if err != nil {
			return &StorageError{Op: "add task tag", Err: err}
		}
	}
	return nil
}

func getTask(q querier, id string) (*models.Task, error) {
	t, err := scanTask(q.QueryRow("SELECT "+taskColumns+" FROM tasks WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: "task", ID: id}
	}
	if err != nil {
		return nil, &StorageError{Op: "get task", Err: err}
	}

	tags, err := taskTags(q, id)
	if err != nil {
		return nil, err
	}
	t.Tags = tags
	return t, nil
}

// queryTasks runs a task SELECT and loads the tags of every row, one
// extra query per task.
func queryTasks(q querier, op, query string, args ...any) ([]models.Task, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, &StorageError{Op: op, Err: err}
	}

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			rows.Close()
			return nil, &StorageError{Op: op + ": scan", Err: err}
		}
		tasks = append(tasks, *t)
	}
	// Close before the tag queries: there is only one connection
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: op, Err: err}
	}

	// Load tags for each task
	for i := range tasks {
		tags, err := taskTags(q, tasks[i].ID)
		if err != nil {
			return nil, err
		}
		tasks[i].Tags = tags
	}
	return tasks, nil
}

// CreateTask inserts a task and its tag associations, then returns the
// task with the tags that were actually persisted.
func (db *DB) CreateTask(task models.Task) (*models.Task, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.createTask(task)
}

func (db *DB) createTask(task models.Task) (*models.Task, error) {
	now := db.now()
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.CreatedAt == 0 {
		task.CreatedAt = now.Unix()
	}
	if task.UpdatedAt == 0 {
		task.UpdatedAt = task.CreatedAt
	}
	task.Normalize(now)

	repeat, err := models.EncodeRepeat(task.Repeat)
	if err != nil {
		return nil, &StorageError{Op: "encode repeat rule", Err: err}
	}

	var created *models.Task
	err = db.inTx("create task", func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO tasks (id, title, description, list_id, completed, priority,
				due_date, reminder, repeat_rule, parent_id, order_num, is_deleted,
				created_at, updated_at, completed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, task.ID, task.Title, task.Description, task.ListID, boolInt(task.Completed), int(task.Priority),
			task.DueDate, task.Reminder, repeat, task.ParentID, task.Order, boolInt(task.IsDeleted),
			task.CreatedAt, task.UpdatedAt, task.CompletedAt)
		if err != nil {
			return classify("create task", "task", "id", task.ID, err)
		}

		if err := insertTaskTags(tx, task.ID, task.Tags); err != nil {
			return err
		}

		tags, err := taskTags(tx, task.ID)
		if err != nil {
			return err
		}
		task.Tags = tags
		created = &task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// CreateSubtask creates an open child of parentID in the parent's list,
// inheriting the parent's due date.
func (db *DB) CreateSubtask(parentID, title string) (*models.Task, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	parent, err := getTask(db.sql, parentID)
	if err != nil {
		return nil, err
	}

	task := models.NewTask(title, parent.ListID)
	task.ParentID = &parent.ID
	task.DueDate = parent.DueDate
	task.CreatedAt = db.nowUnix()
	task.UpdatedAt = task.CreatedAt
	return db.createTask(task)
}

// GetTask retrieves a task by ID with its tags. Soft-deleted tasks are
// still returned.
func (db *DB) GetTask(id string) (*models.Task, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return getTask(db.sql, id)
}

// ListTasks returns all tasks not in the trash
func (db *DB) ListTasks() ([]models.Task, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.listAll()
}

func (db *DB) listAll() ([]models.Task, error) {
	return queryTasks(db.sql, "list tasks",
		"SELECT "+taskColumns+" FROM tasks WHERE is_deleted = 0 ORDER BY "+taskOrder)
}

// ListTasksByTag returns the non-deleted tasks carrying a tag
func (db *DB) ListTasksByTag(tagID string) ([]models.Task, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	return queryTasks(db.sql, "list tasks by tag", `
		SELECT `+taskColumnsT+`
		FROM tasks t
		JOIN task_tags tt ON t.id = tt.task_id
		WHERE tt.tag_id = ? AND t.is_deleted = 0
		ORDER BY t.order_num ASC, t.created_at DESC, t.id ASC
	`, tagID)
}

// ListSubtasks returns the direct, non-deleted children of a task
func (db *DB) ListSubtasks(parentID string) ([]models.Task, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	return queryTasks(db.sql, "list subtasks",
		"SELECT "+taskColumns+" FROM tasks WHERE parent_id = ? AND is_deleted = 0 ORDER BY "+taskOrder,
		parentID)
}

// SearchTasks returns non-deleted tasks whose title or description
// contains query, case-insensitively
func (db *DB) SearchTasks(query string) ([]models.Task, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"
	return queryTasks(db.sql, "search tasks", `
		SELECT `+taskColumns+` FROM tasks
		WHERE is_deleted = 0
			AND (title LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\')
		ORDER BY `+taskOrder, pattern, pattern)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// ListDueReminders returns open, non-deleted tasks whose reminder is at or
// before now, earliest first. Stores migrated from older releases keep a
// TEXT reminder column, so comparisons cast to INTEGER.
func (db *DB) ListDueReminders(now int64) ([]models.Task, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	return queryTasks(db.sql, "list due reminders", `
		SELECT `+taskColumns+` FROM tasks
		WHERE reminder IS NOT NULL AND CAST(reminder AS INTEGER) <= ?
			AND completed = 0 AND is_deleted = 0
		ORDER BY CAST(reminder AS INTEGER) ASC, id ASC
	`, now)
}

// CountTasksByList returns the number of open, non-deleted tasks per list id
func (db *DB) CountTasksByList() (map[string]int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	rows, err := db.sql.Query(`
		SELECT list_id, COUNT(*) FROM tasks
		WHERE completed = 0 AND is_deleted = 0
		GROUP BY list_id
	`)
	if err != nil {
		return nil, &StorageError{Op: "count tasks", Err: err}
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			listID string
			n      int
		)
		if err := rows.Scan(&listID, &n); err != nil {
			return nil, &StorageError{Op: "count tasks", Err: err}
		}
		counts[listID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "count tasks", Err: err}
	}
	return counts, nil
}

// UpdateTask overwrites every mutable column of a task, then replaces its
// tag associations: all rows are deleted and the new set reinserted.
// UpdatedAt is stamped with the current time.
func (db *DB) UpdateTask(task models.Task) (*models.Task, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	now := db.now()
	task.UpdatedAt = now.Unix()
	task.Normalize(now)

	var updated *models.Task
	err := db.inTx("update task", func(tx *sql.Tx) error {
		t, err := writeTask(tx, task)
		updated = t
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// writeTask is the full-column overwrite shared by UpdateTask and ToggleTask
func writeTask(q querier, task models.Task) (*models.Task, error) {
	repeat, err := models.EncodeRepeat(task.Repeat)
	if err != nil {
		return nil, &StorageError{Op: "encode repeat rule", Err: err}
	}

	result, err := q.Exec(`
		UPDATE tasks SET title = ?, description = ?, list_id = ?, completed = ?,
			priority = ?, due_date = ?, reminder = ?, repeat_rule = ?, parent_id = ?,
			order_num = ?, is_deleted = ?, updated_at = ?, completed_at = ?
		WHERE id = ?
	`, task.Title, task.Description, task.ListID, boolInt(task.Completed),
		int(task.Priority), task.DueDate, task.Reminder, repeat, task.ParentID,
		task.Order, boolInt(task.IsDeleted), task.UpdatedAt, task.CompletedAt,
		task.ID)
	if err != nil {
		return nil, &StorageError{Op: "update task", Err: err}
	}
	if err := expectRows(result, "task", task.ID); err != nil {
		return nil, err
	}

	if _, err := q.Exec("DELETE FROM task_tags WHERE task_id = ?", task.ID); err != nil {
		return nil, &StorageError{Op: "clear task tags", Err: err}
	}
	if err := insertTaskTags(q, task.ID, task.Tags); err != nil {
		return nil, err
	}

	tags, err := taskTags(q, task.ID)
	if err != nil {
		return nil, err
	}
	task.Tags = tags
	return &task, nil
}

// ToggleTask flips a task's completion. When the task becomes completed,
// each direct, non-deleted, still-open child is completed with the same
// timestamps. Grandchildren are not touched, and reopening a task leaves
// its children as they are.
func (db *DB) ToggleTask(id string) (*models.Task, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var toggled *models.Task
	err := db.inTx("toggle task", func(tx *sql.Tx) error {
		task, err := getTask(tx, id)
		if err != nil {
			return err
		}
		task.ToggleCompleted(db.now())

		updated, err := writeTask(tx, *task)
		if err != nil {
			return err
		}
		toggled = updated

		if !updated.Completed {
			return nil
		}
		_, err = tx.Exec(`
			UPDATE tasks SET completed = 1, completed_at = ?, updated_at = ?
			WHERE parent_id = ? AND completed = 0 AND is_deleted = 0
		`, updated.CompletedAt, updated.UpdatedAt, id)
		if err != nil {
			return &StorageError{Op: "complete subtasks", Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toggled, nil
}

// DeleteTask moves a task to the trash
func (db *DB) DeleteTask(id string) error {
	return db.setDeleted(id, true)
}

// RestoreTask takes a task back out of the trash
func (db *DB) RestoreTask(id string) error {
	return db.setDeleted(id, false)
}

func (db *DB) setDeleted(id string, deleted bool) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	result, err := db.sql.Exec("UPDATE tasks SET is_deleted = ?, updated_at = ? WHERE id = ?",
		boolInt(deleted), db.nowUnix(), id)
	if err != nil {
		return &StorageError{Op: "set task deleted", Err: err}
	}
	return expectRows(result, "task", id)
}

// PurgeTask permanently deletes a task. Subtasks and tag associations
// cascade.
func (db *DB) PurgeTask(id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	result, err := db.sql.Exec("DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return &StorageError{Op: "purge task", Err: err}
	}
	return expectRows(result, "task", id)
}

// EmptyTrash permanently deletes every task in the trash and returns how
// many rows were removed directly (cascaded subtasks are not counted).
func (db *DB) EmptyTrash() (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	result, err := db.sql.Exec("DELETE FROM tasks WHERE is_deleted = 1")
	if err != nil {
		return 0, &StorageError{Op: "empty trash", Err: err}
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, &StorageError{Op: "empty trash", Err: err}
	}
	return n, nil
}

// OrderUpdate assigns a new order index to a task
type OrderUpdate struct {
	TaskID string `json:"task_id"`
	Order  int    `json:"order"`
}

// Reorder moves id to index within tasks and returns dense order indexes
// for the whole list
func Reorder(tasks []models.Task, id string, index int) []OrderUpdate {
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		if t.ID != id {
			ids = append(ids, t.ID)
		}
	}
	index = max(0, min(index, len(ids)))
	ids = append(ids[:index], append([]string{id}, ids[index:]...)...)

	orders := make([]OrderUpdate, len(ids))
	for i, tid := range ids {
		orders[i] = OrderUpdate{TaskID: tid, Order: i}
	}
	return orders
}

// UpdateTaskOrders sets the order index of several tasks in a single
// transaction. If any update fails, or any id matches no task, none of
// the positions change.
func (db *DB) UpdateTaskOrders(orders []OrderUpdate) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	return db.inTx("update task orders", func(tx *sql.Tx) error {
		for _, o := range orders {
			result, err := tx.Exec("UPDATE tasks SET order_num = ? WHERE id = ?", o.Order, o.TaskID)
			if err != nil {
				return &StorageError{Op: "update task order", Err: err}
			}
			if err := expectRows(result, "task", o.TaskID); err != nil {
				return err
			}
		}
		return nil
	})
}
