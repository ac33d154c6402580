package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mchecker/perfcore/pkg/perfcore"
	"github.com/mchecker/perfcore/pkg/testgen"
)

func TestRunMissingStatesIsArgError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{}, &stdout, &stderr)
	if code != perfcore.ArgError.ExitCode() {
		t.Errorf("code = %d, want %d", code, perfcore.ArgError.ExitCode())
	}
	if !strings.Contains(stderr.String(), "states") {
		t.Errorf("stderr = %q, want a mention of --states", stderr.String())
	}
}

func TestRunHelpExitsZero(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"--help"}, &stdout, &stderr)
	if code != 0 {
		t.Errorf("code = %d, want 0", code)
	}
}

func TestRunVersionExitsZero(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"--version"}, &stdout, &stderr)
	if code != 0 {
		t.Errorf("code = %d, want 0", code)
	}
	if !strings.Contains(stdout.String(), "perfanalyze") {
		t.Errorf("stdout = %q, want a version banner", stdout.String())
	}
}

func TestRunEndToEndJSON(t *testing.T) {
	dir := t.TempDir()
	g := &perfcore.Graph{
		N:        2,
		NodeJSON: []string{`{"globals":{}}`, `{"globals":{}}`},
		Edges: []perfcore.Link{
			{Src: 0, Dst: 1, Weight: 1, Labels: []string{"go"}},
			{Src: 1, Dst: 1, Weight: 1},
		},
	}
	prefix, err := testgen.WriteShards(dir, "run_", g)
	if err != nil {
		t.Fatalf("WriteShards: %v", err)
	}
	modelPath, err := testgen.WritePerfModel(dir, "perf.yaml",
		map[string]float64{"go": 1.0},
		map[string]float64{"go": 2.0},
	)
	if err != nil {
		t.Fatalf("WritePerfModel: %v", err)
	}

	var stdout, stderr bytes.Buffer
	code := run([]string{"-s", prefix, "-m", modelPath, "--json"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("run exit code = %d, stderr = %q", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), `"states"`) {
		t.Errorf("stdout = %q, want JSON with a states field", stdout.String())
	}
}

func TestRunEndToEndExportDB(t *testing.T) {
	dir := t.TempDir()
	g := &perfcore.Graph{
		N:        1,
		NodeJSON: []string{`{}`},
		Edges:    []perfcore.Link{{Src: 0, Dst: 0, Weight: 1}},
	}
	prefix, err := testgen.WriteShards(dir, "run_", g)
	if err != nil {
		t.Fatalf("WriteShards: %v", err)
	}

	dbPath := filepath.Join(dir, "out.sqlite3")
	var stdout, stderr bytes.Buffer
	code := run([]string{"-s", prefix, "-o", dbPath}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("run exit code = %d, stderr = %q", code, stderr.String())
	}
}
