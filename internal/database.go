package internal

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// OpenDatabase opens a SQLite database. Read-only handles never create the
// file; writable handles create it and wait up to five seconds on locks.
func OpenDatabase(path string, readOnly bool) (*sql.DB, error) {
	dsn := path + "?_pragma=busy_timeout(5000)"
	if readOnly {
		dsn = "file:" + path + "?mode=ro"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	return db, nil
}

// KeyValuePair represents a row of the localStorage table
type KeyValuePair struct {
	Key   string
	Value string
}

// QueryKeyValues returns rows of table whose key matches a LIKE pattern
func QueryKeyValues(db *sql.DB, table, pattern string) ([]KeyValuePair, error) {
	query := fmt.Sprintf("SELECT key, value FROM %s WHERE key LIKE ? AND value IS NOT NULL ORDER BY key", table)
	rows, err := db.Query(query, pattern)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var pairs []KeyValuePair
	for rows.Next() {
		var pair KeyValuePair
		var value sql.NullString
		if err := rows.Scan(&pair.Key, &value); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		if value.Valid {
			pair.Value = value.String
			pairs = append(pairs, pair)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return pairs, nil
}
