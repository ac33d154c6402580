package report_test

import (
	"strings"
	"testing"

	"github.com/mchecker/perfcore/pkg/perfcore"
	"github.com/mchecker/perfcore/pkg/report"
)

func TestSummarizeExtractsGlobalsAndReturns(t *testing.T) {
	got := report.Summarize(`{"globals": {"x": 1}, "returns": [true], "other": "ignored"}`)
	if !strings.Contains(got, "globals=") || !strings.Contains(got, "returns=") {
		t.Fatalf("Summarize() = %q, want it to mention globals and returns", got)
	}
	if strings.Contains(got, "ignored") {
		t.Fatalf("Summarize() = %q, want unlisted fields to be dropped", got)
	}
}

func TestSummarizeEmptyInput(t *testing.T) {
	if got := report.Summarize(""); got != "" {
		t.Fatalf("Summarize(\"\") = %q, want empty", got)
	}
	if got := report.Summarize("not json"); got != "" {
		t.Fatalf("Summarize(invalid) = %q, want empty", got)
	}
}

func TestStandardOutputOmitsNegligibleStates(t *testing.T) {
	g := &perfcore.Graph{N: 2, NodeJSON: []string{"{}", "{}"}}
	pi := []float64{1e-9, 0.999999999}
	m := perfcore.Metrics{Mean: map[string]float64{"cost": 2.5}}

	var buf strings.Builder
	if err := report.StandardOutput(&buf, g, pi, m, report.NewTheme(false)); err != nil {
		t.Fatalf("StandardOutput: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "0:") {
		t.Errorf("output = %q, want state 0 (negligible probability) omitted", out)
	}
	if !strings.Contains(out, "1:") {
		t.Errorf("output = %q, want state 1 present", out)
	}
	if !strings.Contains(out, "mean[cost] = 2.5") {
		t.Errorf("output = %q, want the counter mean line", out)
	}
}
