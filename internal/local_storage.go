package internal

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// LocalStorageTable is the SQLite table holding key/value pairs
const LocalStorageTable = "localStorage"

const createLocalStorageSQL = `
CREATE TABLE IF NOT EXISTS localStorage (
	key TEXT PRIMARY KEY,
	value TEXT
)`

// LocalStorage is a persistent string key/value store backed by SQLite
type LocalStorage struct {
	db   *sql.DB
	path string
}

// OpenLocalStorage opens (creating if needed) the store at path
func OpenLocalStorage(path string) (*LocalStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, &StorageError{Path: path, Op: "open", Err: err}
	}
	db, err := OpenDatabase(path, false)
	if err != nil {
		return nil, &StorageError{Path: path, Op: "open", Err: err}
	}
	ls, err := NewLocalStorage(db, path)
	if err != nil {
		db.Close()
		return nil, err
	}
	return ls, nil
}

// NewLocalStorage wraps an open database, creating the table if missing
func NewLocalStorage(db *sql.DB, path string) (*LocalStorage, error) {
	if _, err := db.Exec(createLocalStorageSQL); err != nil {
		return nil, &StorageError{Path: path, Op: "open", Err: errors.Wrap(err, "create table")}
	}
	return &LocalStorage{db: db, path: path}, nil
}

// Path returns the database file backing the store
func (ls *LocalStorage) Path() string {
	return ls.path
}

// GetItem returns the value stored under key
func (ls *LocalStorage) GetItem(key string) (string, bool, error) {
	var value sql.NullString
	err := ls.db.QueryRow("SELECT value FROM localStorage WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &StorageError{Path: ls.path, Op: "get", Err: errors.Wrapf(err, "key %s", key)}
	}
	return value.String, value.Valid, nil
}

// SetItem stores value under key, replacing any previous value
func (ls *LocalStorage) SetItem(key, value string) error {
	_, err := ls.db.Exec(
		"INSERT INTO localStorage (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return &StorageError{Path: ls.path, Op: "set", Err: errors.Wrapf(err, "key %s", key)}
	}
	return nil
}

// RemoveItem deletes key; removing a missing key is not an error
func (ls *LocalStorage) RemoveItem(key string) error {
	if _, err := ls.db.Exec("DELETE FROM localStorage WHERE key = ?", key); err != nil {
		return &StorageError{Path: ls.path, Op: "remove", Err: errors.Wrapf(err, "key %s", key)}
	}
	return nil
}

// Items returns every stored pair, ordered by key
func (ls *LocalStorage) Items() ([]KeyValuePair, error) {
	pairs, err := QueryKeyValues(ls.db, LocalStorageTable, "%")
	if err != nil {
		return nil, &StorageError{Path: ls.path, Op: "list", Err: err}
	}
	return pairs, nil
}

// Close releases the database handle
func (ls *LocalStorage) Close() error {
	return ls.db.Close()
}
