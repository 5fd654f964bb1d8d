package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

const createLocalStorageSQL = `
CREATE TABLE IF NOT EXISTS localStorage (
	key TEXT PRIMARY KEY,
	value TEXT
)`

// CreateInMemoryDB creates an in-memory SQLite database with the
// localStorage table
func CreateInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory database: %v", err)
	}
	// every pooled connection would get its own empty :memory: database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createLocalStorageSQL); err != nil {
		db.Close()
		t.Fatalf("Failed to create localStorage table: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// CreateTestDB creates an in-memory database holding two saved sessions and
// a collaborator-owned cart key
func CreateTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db := CreateInMemoryDB(t)

	rows := map[string]string{
		"chatSessions": SessionsJSON,
		"mm_cart":      `{"items":[{"sku":"SKU-1","quantity":2}]}`,
	}
	for key, value := range rows {
		if _, err := db.Exec("INSERT INTO localStorage (key, value) VALUES (?, ?)", key, value); err != nil {
			t.Fatalf("Failed to insert %s: %v", key, err)
		}
	}
	return db
}
