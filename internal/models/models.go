package models

import (
	"time"

	"github.com/google/uuid"
)

// Priority ranks a task. Values outside None..High normalise to None.
type Priority int

const (
	PriorityNone Priority = iota
	PriorityLow
	PriorityMedium
	PriorityHigh
)

// PriorityFromInt converts a stored integer to a Priority
func PriorityFromInt(v int) Priority {
	switch Priority(v) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(v)
	}
	return PriorityNone
}

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	}
	return "none"
}

// List represents a user-defined or smart list
type List struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Icon      string `json:"icon" yaml:"icon"`
	Color     string `json:"color" yaml:"color"`
	IsSmart   bool   `json:"is_smart" yaml:"is_smart"`
	Order     int    `json:"order" yaml:"order"`
	CreatedAt int64  `json:"created_at" yaml:"created_at"`
}

// NewList returns a user list with a generated id
func NewList(name, icon, color string) List {
	return List{
		ID:        uuid.NewString(),
		Name:      name,
		Icon:      icon,
		Color:     color,
		CreatedAt: time.Now().Unix(),
	}
}

// Tag represents a tag that can be applied to tasks
type Tag struct {
	ID        string  `json:"id" yaml:"id"`
	Name      string  `json:"name" yaml:"name"`
	Color     string  `json:"color" yaml:"color"`
	ParentID  *string `json:"parent_id,omitempty" yaml:"parent_id,omitempty"` // nil for a top-level tag
	IsPinned  bool    `json:"is_pinned" yaml:"is_pinned"`
	CreatedAt int64   `json:"created_at" yaml:"created_at"`
}

// NewTag returns a top-level tag with a generated id
func NewTag(name, color string) Tag {
	return Tag{
		ID:        uuid.NewString(),
		Name:      name,
		Color:     color,
		CreatedAt: time.Now().Unix(),
	}
}

// Task represents a single task. All timestamps are Unix seconds.
type Task struct {
	ID          string      `json:"id" yaml:"id"`
	Title       string      `json:"title" yaml:"title"`
	Description string      `json:"description" yaml:"description"`
	ListID      string      `json:"list_id" yaml:"list_id"`
	Completed   bool        `json:"completed" yaml:"completed"`
	Priority    Priority    `json:"priority" yaml:"priority"`
	DueDate     *int64      `json:"due_date" yaml:"due_date,omitempty"`
	Reminder    *int64      `json:"reminder" yaml:"reminder,omitempty"`
	Repeat      *RepeatRule `json:"repeat_rule" yaml:"repeat_rule,omitempty"`
	Tags        []string    `json:"tags" yaml:"tags"` // tag ids, populated when loading tasks
	ParentID    *string     `json:"parent_id" yaml:"parent_id,omitempty"`
	Order       int         `json:"order" yaml:"order"`
	IsDeleted   bool        `json:"is_deleted" yaml:"is_deleted"`
	CreatedAt   int64       `json:"created_at" yaml:"created_at"`
	UpdatedAt   int64       `json:"updated_at" yaml:"updated_at"`
	CompletedAt *int64      `json:"completed_at" yaml:"completed_at,omitempty"`
}

// NewTask returns an open task in listID with a generated id
func NewTask(title, listID string) Task {
	now := time.Now().Unix()
	return Task{
		ID:        uuid.NewString(),
		Title:     title,
		ListID:    listID,
		Tags:      []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetCompleted marks the task complete or open at the given time,
// keeping CompletedAt set exactly when Completed is true.
func (t *Task) SetCompleted(completed bool, at time.Time) {
	ts := at.Unix()
	t.Completed = completed
	t.UpdatedAt = ts
	if completed {
		t.CompletedAt = &ts
	} else {
		t.CompletedAt = nil
	}
}

// ToggleCompleted flips the completion state at the given time
func (t *Task) ToggleCompleted(at time.Time) {
	t.SetCompleted(!t.Completed, at)
}

// Normalize repairs the completion invariant and the priority range.
// A completed task without a completion time gets at.
func (t *Task) Normalize(at time.Time) {
	t.Priority = PriorityFromInt(int(t.Priority))
	if t.Completed && t.CompletedAt == nil {
		ts := at.Unix()
		t.CompletedAt = &ts
	}
	if !t.Completed {
		t.CompletedAt = nil
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
}

// Due returns the due date as a local time, or the zero time
func (t *Task) Due() time.Time {
	if t.DueDate == nil {
		return time.Time{}
	}
	return time.Unix(*t.DueDate, 0)
}

// HasTag reports whether tagID is among the task's tags
func (t *Task) HasTag(tagID string) bool {
	for _, id := range t.Tags {
		if id == tagID {
			return true
		}
	}
	return false
}
