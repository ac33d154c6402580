package sqlexport_test

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/mchecker/perfcore/pkg/perfcore"
	"github.com/mchecker/perfcore/pkg/sqlexport"
)

func TestExportWritesStatesAndMetrics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.sqlite3")
	g := &perfcore.Graph{N: 2, NodeJSON: []string{`{"globals":{}}`, `{"globals":{}}`}}
	pi := []float64{0.25, 0.75}
	m := perfcore.Metrics{
		Mean:      map[string]float64{"cost": 3.5},
		Histogram: []perfcore.HistogramPoint{{P: 1.0, Counters: map[string]float64{"cost": 3.5}}},
	}

	if err := sqlexport.Export(path, g, pi, m); err != nil {
		t.Fatalf("Export: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open exported db: %v", err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM states`).Scan(&count); err != nil {
		t.Fatalf("query states: %v", err)
	}
	if count != 2 {
		t.Errorf("states count = %d, want 2", count)
	}

	var mean float64
	if err := db.QueryRow(`SELECT mean FROM counter_means WHERE name = 'cost'`).Scan(&mean); err != nil {
		t.Fatalf("query counter_means: %v", err)
	}
	if mean != 3.5 {
		t.Errorf("mean = %v, want 3.5", mean)
	}

	var histCount int
	if err := db.QueryRow(`SELECT COUNT(*) FROM histogram_points`).Scan(&histCount); err != nil {
		t.Fatalf("query histogram_points: %v", err)
	}
	if histCount != 1 {
		t.Errorf("histogram_points count = %d, want 1", histCount)
	}
}
