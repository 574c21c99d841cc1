package internal

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a record does not exist in the live store
var ErrNotFound = errors.New("record not found")

// StorageError represents a failed record store operation
type StorageError struct {
	Op    string // "query", "update", "upsert", "migrate"
	Table string
	Err   error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Table, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ParseError represents errors parsing snapshot or stored data
type ParseError struct {
	Source string // "snapshot", "clients"
	Key    string // file path or row id
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error [%s] %s: %v", e.Source, e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ReconcileError represents a per-record failure during a reconciliation pass
type ReconcileError struct {
	Kind     Kind
	RecordID string
	Err      error
}

func (e *ReconcileError) Error() string {
	return fmt.Sprintf("reconcile error [%s/%s]: %v", e.Kind, e.RecordID, e.Err)
}

func (e *ReconcileError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during feed export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
