package internal

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrSessionNotStored is returned when a session id has no stored record.
var ErrSessionNotStored = errors.New("session not stored")

// StorageError represents errors accessing the local key/value store
type StorageError struct {
	Path string
	Op   string // "open", "get", "set", "remove", "list"
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ParseError represents errors decoding persisted or recorded data
type ParseError struct {
	Source string // "localStorage", "recording"
	Key    string // storage key or file path
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error [%s] %s: %v", e.Source, e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ReplayError represents errors while folding a recorded turn
type ReplayError struct {
	Source string
	Err    error
}

func (e *ReplayError) Error() string {
	return fmt.Sprintf("replay error [%s]: %v", e.Source, e.Err)
}

func (e *ReplayError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during export
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
