package export

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huythanhnguyen/mm-search-bot/internal"
)

func TestArchive_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	archive, err := NewArchive(dir, "json")
	if err != nil {
		t.Fatalf("NewArchive() error = %v", err)
	}
	archive.WithStoragePath("/tmp/storage.db")
	archive.now = func() time.Time { return time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC) }

	sessions := []internal.ChatSession{
		*internal.CreateTestSession("a"),
		*internal.CreateTestSession("b"),
	}
	sessions[1].IsArchived = true

	n, err := archive.Write(sessions)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Write() = %d, want 2", n)
	}

	data, err := os.ReadFile(archive.SessionPath("a"))
	if err != nil {
		t.Fatalf("session file missing: %v", err)
	}
	var decoded internal.ChatSession
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("session file is not JSON: %v", err)
	}
	if decoded.ID != "a" {
		t.Errorf("decoded ID = %q, want a", decoded.ID)
	}

	index, err := LoadIndex(dir)
	if err != nil {
		t.Fatalf("LoadIndex() error = %v", err)
	}
	if len(index.Sessions) != 2 {
		t.Fatalf("index has %d sessions, want 2", len(index.Sessions))
	}
	first := index.Sessions[0]
	if first.File != "session_a.json" || first.MessageCount != 2 || first.CreatedAt != "2023-11-14T22:13:20Z" {
		t.Errorf("unexpected index entry: %+v", first)
	}
	if !index.Sessions[1].Archived {
		t.Errorf("second entry should be archived")
	}
	if index.Metadata.Format != "json" || index.Metadata.StoragePath != "/tmp/storage.db" {
		t.Errorf("unexpected metadata: %+v", index.Metadata)
	}
	if !index.Metadata.ExportedAt.Equal(time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("ExportedAt = %v", index.Metadata.ExportedAt)
	}
}

func TestArchive_SkipsUnwritableSession(t *testing.T) {
	dir := t.TempDir()
	archive, err := NewArchive(dir, "md")
	if err != nil {
		t.Fatalf("NewArchive() error = %v", err)
	}
	// a directory in the way of the session file makes os.Create fail
	if err := os.Mkdir(archive.SessionPath("blocked"), 0755); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}

	n, err := archive.Write([]internal.ChatSession{
		*internal.CreateTestSession("blocked"),
		*internal.CreateTestSession("ok"),
	})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Write() = %d, want 1", n)
	}
	index, err := LoadIndex(dir)
	if err != nil {
		t.Fatalf("LoadIndex() error = %v", err)
	}
	if len(index.Sessions) != 1 || index.Sessions[0].ID != "ok" {
		t.Errorf("unexpected index: %+v", index.Sessions)
	}
}

func TestNewArchive_UnsupportedFormat(t *testing.T) {
	if _, err := NewArchive(t.TempDir(), "xml"); err == nil {
		t.Error("NewArchive() should reject unsupported formats")
	}
}

func TestLoadIndex_Corrupt(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, IndexFile), []byte("sessions: [\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadIndex(dir)
	var perr *internal.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("LoadIndex() error = %v, want *internal.ParseError", err)
	}
}
