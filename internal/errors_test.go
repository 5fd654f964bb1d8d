package internal

import (
	"errors"
	"strings"
	"testing"
)

func TestStorageError(t *testing.T) {
	originalErr := errors.New("database is locked")
	err := &StorageError{
		Path: "/tmp/local_storage.db",
		Op:   "set",
		Err:  originalErr,
	}

	errorMsg := err.Error()
	if !strings.Contains(errorMsg, "storage error") {
		t.Errorf("StorageError.Error() should contain 'storage error', got: %q", errorMsg)
	}
	if !strings.Contains(errorMsg, "/tmp/local_storage.db") {
		t.Errorf("StorageError.Error() should contain path, got: %q", errorMsg)
	}
	if !errors.Is(err, originalErr) {
		t.Error("StorageError.Unwrap() should return original error")
	}
}

func TestParseError(t *testing.T) {
	originalErr := errors.New("invalid JSON")
	err := &ParseError{
		Source: "localStorage",
		Key:    SessionsStorageKey,
		Err:    originalErr,
	}

	errorMsg := err.Error()
	if !strings.Contains(errorMsg, "parse error") {
		t.Errorf("ParseError.Error() should contain 'parse error', got: %q", errorMsg)
	}
	if !strings.Contains(errorMsg, "chatSessions") {
		t.Errorf("ParseError.Error() should contain key, got: %q", errorMsg)
	}
	if !errors.Is(err, originalErr) {
		t.Error("ParseError.Unwrap() should return original error")
	}
}

func TestReplayError(t *testing.T) {
	originalErr := errors.New("empty recording")
	err := &ReplayError{Source: "turn.sse", Err: originalErr}

	errorMsg := err.Error()
	if !strings.Contains(errorMsg, "replay error") || !strings.Contains(errorMsg, "turn.sse") {
		t.Errorf("ReplayError.Error() = %q, want replay error with source", errorMsg)
	}
	if !errors.Is(err, originalErr) {
		t.Error("ReplayError.Unwrap() should return original error")
	}
}

func TestExportError(t *testing.T) {
	originalErr := errors.New("write failed")
	err := &ExportError{
		Format: "jsonl",
		Path:   "/output/file.jsonl",
		Err:    originalErr,
	}

	errorMsg := err.Error()
	if !strings.Contains(errorMsg, "export error") {
		t.Errorf("ExportError.Error() should contain 'export error', got: %q", errorMsg)
	}
	if !strings.Contains(errorMsg, "jsonl") {
		t.Errorf("ExportError.Error() should contain format, got: %q", errorMsg)
	}
	if !errors.Is(err, originalErr) {
		t.Error("ExportError.Unwrap() should return original error")
	}
}
