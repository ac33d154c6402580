package testgen_test

import (
	"testing"

	"github.com/mchecker/perfcore/pkg/graphio"
	"github.com/mchecker/perfcore/pkg/perfcore"
	"github.com/mchecker/perfcore/pkg/testgen"
)

func TestWriteShardsRoundTrips(t *testing.T) {
	dir := t.TempDir()
	g := &perfcore.Graph{
		N:        2,
		NodeJSON: []string{`{"globals":{}}`, `{"globals":{}}`},
		Edges: []perfcore.Link{
			{Src: 0, Dst: 1, Weight: 1, Labels: []string{"a"}},
			{Src: 1, Dst: 1, Weight: 1},
		},
	}
	prefix, err := testgen.WriteShards(dir, "run_", g)
	if err != nil {
		t.Fatalf("WriteShards: %v", err)
	}

	loaded, err := graphio.Load(prefix)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.N != 2 {
		t.Errorf("N = %d, want 2", loaded.N)
	}
	if len(loaded.Edges) != 2 {
		t.Errorf("len(Edges) = %d, want 2", len(loaded.Edges))
	}
}

func TestWriteShardedGraphAcrossMultipleShards(t *testing.T) {
	dir := t.TempDir()
	g := &perfcore.Graph{
		N:        3,
		NodeJSON: []string{"{}", "{}", "{}"},
		Edges: []perfcore.Link{
			{Src: 0, Dst: 1, Weight: 0.5, Labels: []string{"a"}},
			{Src: 0, Dst: 2, Weight: 0.5},
			{Src: 1, Dst: 1, Weight: 1},
			{Src: 2, Dst: 2, Weight: 1},
		},
	}
	prefix, err := testgen.WriteShardedGraph(dir, "shard_", g, 3)
	if err != nil {
		t.Fatalf("WriteShardedGraph: %v", err)
	}

	loaded, err := graphio.Load(prefix)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.N != 3 {
		t.Errorf("N = %d, want 3", loaded.N)
	}
	if len(loaded.Edges) != 4 {
		t.Errorf("len(Edges) = %d, want 4", len(loaded.Edges))
	}
}

func TestWritePerfModel(t *testing.T) {
	dir := t.TempDir()
	path, err := testgen.WritePerfModel(dir, "perf.yaml",
		map[string]float64{"a": 0.3},
		map[string]float64{"a": 4.0},
	)
	if err != nil {
		t.Fatalf("WritePerfModel: %v", err)
	}
	if path == "" {
		t.Fatal("expected a non-empty path")
	}
}
