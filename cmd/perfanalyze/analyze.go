package main

import (
	"fmt"
	"io"

	jsoniter "github.com/goccy/go-json"

	"github.com/mchecker/perfcore/pkg/chainanalysis"
	"github.com/mchecker/perfcore/pkg/graphio"
	"github.com/mchecker/perfcore/pkg/matrixbuild"
	"github.com/mchecker/perfcore/pkg/perfcore"
	"github.com/mchecker/perfcore/pkg/perfmodel"
	"github.com/mchecker/perfcore/pkg/report"
	"github.com/mchecker/perfcore/pkg/sqlexport"
)

// analyzeOnce runs the full load -> build -> analyze -> report pipeline
// once and returns the process exit code for that run.
func analyzeOnce(cfg cliConfig, colorEnabled bool, stdout, stderr io.Writer) int {
	g, err := graphio.Load(cfg.states)
	if err != nil {
		return reportErr(stderr, err)
	}

	model, err := perfmodel.Load(cfg.perfModel)
	if err != nil {
		return reportErr(stderr, err)
	}

	built, err := matrixbuild.Build(g, model)
	if err != nil {
		return reportErr(stderr, err)
	}

	opts := chainanalysis.DefaultOptions()
	opts.MaxIterations = cfg.maxIterations
	opts.Tolerance = cfg.tolerance

	pi, m, _, err := chainanalysis.Analyze(built.P, built.Costs, built.Absorbing, opts)
	if err != nil {
		return reportErr(stderr, err)
	}

	if cfg.exportDB != "" {
		if err := sqlexport.Export(cfg.exportDB, g, pi, m); err != nil {
			return reportErr(stderr, err)
		}
	}

	if cfg.jsonOut {
		if err := writeJSON(stdout, pi, m); err != nil {
			fmt.Fprintf(stderr, "perfanalyze: writing JSON output: %v\n", err)
			return perfcore.IoError.ExitCode()
		}
		return 0
	}

	theme := report.NewTheme(colorEnabled)
	if err := report.StandardOutput(stdout, g, pi, m, theme); err != nil {
		fmt.Fprintf(stderr, "perfanalyze: rendering report: %v\n", err)
		return perfcore.IoError.ExitCode()
	}
	if cfg.report {
		if err := report.Markdown(stdout, g, pi, m); err != nil {
			fmt.Fprintf(stderr, "perfanalyze: rendering markdown report: %v\n", err)
			return perfcore.IoError.ExitCode()
		}
	}
	return 0
}

// reportErr prints err to stderr and returns the exit code its Kind
// maps to, defaulting to ArgError's code for errors the core never
// raises (which should not happen in practice).
func reportErr(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "perfanalyze: %v\n", err)
	if perr, ok := err.(*perfcore.Error); ok {
		return perr.ExitCode()
	}
	return perfcore.ArgError.ExitCode()
}

type jsonOutput struct {
	States    []jsonState               `json:"states"`
	Mean      map[string]float64         `json:"mean"`
	Histogram []perfcore.HistogramPoint  `json:"histogram"`
}

type jsonState struct {
	Index       int     `json:"index"`
	Probability float64 `json:"probability"`
}

func writeJSON(w io.Writer, pi []float64, m perfcore.Metrics) error {
	out := jsonOutput{
		States:    make([]jsonState, 0, len(pi)),
		Mean:      m.Mean,
		Histogram: m.Histogram,
	}
	for i, p := range pi {
		out.States = append(out.States, jsonState{Index: i, Probability: p})
	}
	enc := jsoniter.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
