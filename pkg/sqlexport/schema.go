// Package sqlexport writes an analysis result to a SQLite database via
// modernc.org/sqlite, for downstream tools that would rather run SQL
// over a result set than parse the standard-output report.
package sqlexport

import (
	"database/sql"
	"fmt"
)

// SchemaVersion identifies the exported schema shape, recorded in the
// meta table so downstream readers can detect incompatible exports.
const SchemaVersion = 1

// createSchema creates every table the export needs. Called once per
// Export, against a freshly opened database.
func createSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS states (
			id INTEGER PRIMARY KEY,
			probability REAL NOT NULL,
			summary TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS counter_means (
			name TEXT PRIMARY KEY,
			mean REAL NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS histogram_points (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			p REAL NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS histogram_counters (
			seq INTEGER NOT NULL,
			name TEXT NOT NULL,
			value REAL NOT NULL,
			FOREIGN KEY (seq) REFERENCES histogram_points(seq)
		)`,
		`CREATE TABLE IF NOT EXISTS export_meta (
			key TEXT PRIMARY KEY,
			value TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_states_probability ON states(probability DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_histogram_counters_seq ON histogram_counters(seq)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

func insertMeta(db *sql.DB, key, value string) error {
	_, err := db.Exec(`INSERT OR REPLACE INTO export_meta (key, value) VALUES (?, ?)`, key, value)
	return err
}
