package cmd

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/huythanhnguyen/mm-search-bot/internal"
)

var (
	inspectFormat     string
	inspectSampleRows int
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect [database-path]",
	Short: "Inspect the local history database",
	Long: `Inspect the schema and contents of the local history database.

This command provides detailed information about:
  • Database schema (tables, columns, types)
  • Stored keys with their sizes
  • Sample rows from each table

The database is opened read-only.

Examples:
  mm-search-bot inspect                              # Inspect the default database
  mm-search-bot inspect --storage /path/to/db        # Inspect a specific database
  mm-search-bot inspect --format json --sample 5     # JSON output with 5 sample rows`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var dbPath string
		if len(args) > 0 {
			dbPath = args[0]
		} else {
			paths, err := internal.GetStoragePaths(cfg.StoragePath)
			if err != nil {
				return fmt.Errorf("failed to detect storage: %w", err)
			}
			if !paths.DatabaseExists() {
				return fmt.Errorf("no database at %s - use --storage to specify a database path", paths.DatabasePath)
			}
			dbPath = paths.DatabasePath
		}

		report, err := inspectDatabase(dbPath, inspectSampleRows)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch inspectFormat {
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(report)
		case "text":
			printReport(out, report)
			return nil
		default:
			return fmt.Errorf("unsupported format: %s (use text or json)", inspectFormat)
		}
	},
}

// DatabaseReport describes one database file
type DatabaseReport struct {
	Path   string        `json:"path"`
	Tables []TableReport `json:"tables"`
	Keys   []KeyReport   `json:"keys,omitempty"`
}

type TableReport struct {
	Name    string              `json:"name"`
	Rows    int                 `json:"rows"`
	Columns []ColumnInfo        `json:"columns"`
	Sample  []map[string]string `json:"sample,omitempty"`
}

// KeyReport describes one localStorage entry
type KeyReport struct {
	Key      string `json:"key"`
	Bytes    int    `json:"bytes"`
	Role     string `json:"role"`
	Sessions int    `json:"sessions,omitempty"`
}

type ColumnInfo struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	NotNull    bool   `json:"notNull"`
	PrimaryKey bool   `json:"primaryKey"`
}

func inspectDatabase(dbPath string, sampleRows int) (*DatabaseReport, error) {
	db, err := internal.OpenDatabase(dbPath, true)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	tables, err := getTables(db)
	if err != nil {
		return nil, fmt.Errorf("failed to get tables: %w", err)
	}

	report := &DatabaseReport{Path: dbPath, Tables: []TableReport{}}
	for _, name := range tables {
		t, err := inspectTable(db, name, sampleRows)
		if err != nil {
			internal.LogWarn("Error inspecting table %s: %v", name, err)
			continue
		}
		report.Tables = append(report.Tables, t)

		if name == internal.LocalStorageTable {
			pairs, err := internal.QueryKeyValues(db, name, "%")
			if err != nil {
				internal.LogWarn("Error listing keys: %v", err)
				continue
			}
			report.Keys = describeKeys(pairs)
		}
	}
	return report, nil
}

func describeKeys(pairs []internal.KeyValuePair) []KeyReport {
	keys := make([]KeyReport, 0, len(pairs))
	for _, p := range pairs {
		k := KeyReport{Key: p.Key, Bytes: len(p.Value), Role: "other"}
		switch {
		case p.Key == internal.SessionsStorageKey:
			k.Role = "sessions"
			if v := gjson.Parse(p.Value); v.IsArray() {
				k.Sessions = len(v.Array())
			}
		case strings.HasPrefix(p.Key, "mm_cart"), strings.HasPrefix(p.Key, "mm_auth"):
			k.Role = "collaborator"
		}
		keys = append(keys, k)
	}
	return keys
}

func getTables(db *sql.DB) ([]string, error) {
	rows, err := db.Query(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			continue
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func inspectTable(db *sql.DB, tableName string, sampleRows int) (TableReport, error) {
	t := TableReport{Name: tableName}
	if err := db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %q", tableName)).Scan(&t.Rows); err != nil {
		return t, fmt.Errorf("failed to get row count: %w", err)
	}

	columns, err := getTableSchema(db, tableName)
	if err != nil {
		return t, fmt.Errorf("failed to get schema: %w", err)
	}
	t.Columns = columns

	if t.Rows > 0 && sampleRows > 0 {
		sample, err := sampleData(db, tableName, columns, sampleRows)
		if err != nil {
			internal.LogWarn("Error reading sample data from %s: %v", tableName, err)
		}
		t.Sample = sample
	}
	return t, nil
}

func getTableSchema(db *sql.DB, tableName string) ([]ColumnInfo, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%q)", tableName))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var columns []ColumnInfo
	for rows.Next() {
		var col ColumnInfo
		var cid int
		var notNull, pk int
		var defaultValue sql.NullString

		if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull, &defaultValue, &pk); err != nil {
			continue
		}
		col.NotNull = notNull == 1
		col.PrimaryKey = pk == 1
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func sampleData(db *sql.DB, tableName string, columns []ColumnInfo, limit int) ([]map[string]string, error) {
	if len(columns) == 0 {
		return nil, nil
	}

	colNames := make([]string, len(columns))
	for i, col := range columns {
		colNames[i] = fmt.Sprintf("%q", col.Name)
	}

	query := fmt.Sprintf("SELECT %s FROM %q LIMIT %d", strings.Join(colNames, ", "), tableName, limit)
	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var sample []map[string]string
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return sample, err
		}

		row := make(map[string]string, len(columns))
		for i, col := range columns {
			row[col.Name] = formatCell(values[i])
		}
		sample = append(sample, row)
	}
	return sample, rows.Err()
}

func formatCell(val interface{}) string {
	if val == nil {
		return "<NULL>"
	}
	var s string
	if b, ok := val.([]byte); ok {
		s = string(b)
	} else {
		s = fmt.Sprintf("%v", val)
	}
	// Show first line only for multi-line values
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i] + "..."
	}
	return truncateRunes(s, 200)
}

func printReport(out io.Writer, report *DatabaseReport) {
	if len(report.Tables) == 0 {
		fmt.Fprintln(out, "⚠️  No tables found in database")
		return
	}

	fmt.Fprintf(out, "📋 Database: %s\n", report.Path)
	fmt.Fprintf(out, "📊 Found %d table(s)\n\n", len(report.Tables))

	for _, t := range report.Tables {
		fmt.Fprintf(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
		fmt.Fprintf(out, "📦 Table: %s\n", t.Name)
		fmt.Fprintf(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
		fmt.Fprintf(out, "📊 Rows: %d\n\n", t.Rows)

		fmt.Fprintf(out, "📐 Schema:\n")
		for _, col := range t.Columns {
			pk := ""
			if col.PrimaryKey {
				pk = " [PRIMARY KEY]"
			}
			notNull := ""
			if col.NotNull {
				notNull = " NOT NULL"
			}
			fmt.Fprintf(out, "  • %s: %s%s%s\n", col.Name, col.Type, notNull, pk)
		}
		fmt.Fprintln(out)

		if len(t.Sample) > 0 {
			fmt.Fprintf(out, "📄 Sample Data (first %d rows):\n", len(t.Sample))
			for i, row := range t.Sample {
				fmt.Fprintf(out, "\n  Row %d:\n", i+1)
				for _, col := range t.Columns {
					fmt.Fprintf(out, "    %s: %s\n", col.Name, row[col.Name])
				}
			}
			fmt.Fprintln(out)
		}
	}

	if len(report.Keys) > 0 {
		fmt.Fprintf(out, "🔑 Keys:\n")
		for _, k := range report.Keys {
			line := fmt.Sprintf("  • %s (%d bytes, %s", k.Key, k.Bytes, k.Role)
			if k.Role == "sessions" {
				line += fmt.Sprintf(", %d session(s)", k.Sessions)
			}
			fmt.Fprintln(out, line+")")
		}
	}
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&inspectFormat, "format", "text", "Output format (text, json)")
	inspectCmd.Flags().IntVar(&inspectSampleRows, "sample", 3, "Number of sample rows to show")
}
