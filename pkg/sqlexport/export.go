package sqlexport

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mchecker/perfcore/pkg/metrics"
	"github.com/mchecker/perfcore/pkg/perfcore"
	"github.com/mchecker/perfcore/pkg/report"
)

// Export writes the stationary distribution and Metrics of an analysis
// run to a fresh SQLite database at path, overwriting any existing
// file there.
func Export(path string, g *perfcore.Graph, pi []float64, m perfcore.Metrics) error {
	defer metrics.Timer(metrics.SQLiteExport)()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return perfcore.Wrap(perfcore.IoError, err, "removing existing export database %q", path)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return perfcore.Wrap(perfcore.IoError, err, "opening export database %q", path)
	}
	defer db.Close()

	if err := createSchema(db); err != nil {
		return perfcore.Wrap(perfcore.IoError, err, "creating export schema")
	}
	if err := insertStates(db, g, pi); err != nil {
		return perfcore.Wrap(perfcore.IoError, err, "inserting states")
	}
	if err := insertCounterMeans(db, m); err != nil {
		return perfcore.Wrap(perfcore.IoError, err, "inserting counter means")
	}
	if err := insertHistogram(db, m); err != nil {
		return perfcore.Wrap(perfcore.IoError, err, "inserting histogram")
	}

	meta := map[string]string{
		"schema_version": fmt.Sprintf("%d", SchemaVersion),
		"generated_at":   time.Now().UTC().Format(time.RFC3339),
		"state_count":    fmt.Sprintf("%d", len(pi)),
	}
	for k, v := range meta {
		if err := insertMeta(db, k, v); err != nil {
			return perfcore.Wrap(perfcore.IoError, err, "inserting export metadata %q", k)
		}
	}

	return nil
}

func insertStates(db *sql.DB, g *perfcore.Graph, pi []float64) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO states (id, probability, summary) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, p := range pi {
		summary := ""
		if g != nil && i < len(g.NodeJSON) {
			summary = report.Summarize(g.NodeJSON[i])
		}
		if _, err := stmt.Exec(i, p, summary); err != nil {
			return fmt.Errorf("insert state %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func insertCounterMeans(db *sql.DB, m perfcore.Metrics) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO counter_means (name, mean) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for name, mean := range m.Mean {
		if _, err := stmt.Exec(name, mean); err != nil {
			return fmt.Errorf("insert counter mean %q: %w", name, err)
		}
	}
	return tx.Commit()
}

func insertHistogram(db *sql.DB, m perfcore.Metrics) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	pointStmt, err := tx.Prepare(`INSERT INTO histogram_points (p) VALUES (?)`)
	if err != nil {
		return err
	}
	defer pointStmt.Close()

	counterStmt, err := tx.Prepare(`INSERT INTO histogram_counters (seq, name, value) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer counterStmt.Close()

	for _, pt := range m.Histogram {
		res, err := pointStmt.Exec(pt.P)
		if err != nil {
			return fmt.Errorf("insert histogram point p=%v: %w", pt.P, err)
		}
		seq, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for name, value := range pt.Counters {
			if _, err := counterStmt.Exec(seq, name, value); err != nil {
				return fmt.Errorf("insert histogram counter %q at seq %d: %w", name, seq, err)
			}
		}
	}
	return tx.Commit()
}
