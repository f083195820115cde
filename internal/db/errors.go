package db

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// Common repository errors, for use with errors.Is
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// NotFoundError is returned when an operation targets an id absent from storage
type NotFoundError struct {
	Kind string // "task", "list" or "tag"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ConflictError is returned for uniqueness violations and invalid tag parents
type ConflictError struct {
	Kind  string
	Field string
	Value string
	Err   error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s %q conflicts with an existing record", e.Kind, e.Field, e.Value)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

func (e *ConflictError) Unwrap() error { return e.Err }

// StorageError wraps a driver or I/O failure not covered above
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a NotFoundError
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict reports whether err is a ConflictError
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// isUniqueViolation reports whether err is a SQLite UNIQUE or PRIMARY KEY failure
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// classify maps a write error to Conflict or Storage
func classify(op, kind, field, value string, err error) error {
	if isUniqueViolation(err) {
		return &ConflictError{Kind: kind, Field: field, Value: value, Err: err}
	}
	return &StorageError{Op: op, Err: err}
}
