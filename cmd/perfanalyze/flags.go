package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/mchecker/perfcore/pkg/perfcore"
	"github.com/mchecker/perfcore/pkg/version"
)

// cliConfig is the parsed form of the command line.
type cliConfig struct {
	states        string
	perfModel     string
	maxIterations int
	tolerance     float64
	exportDB      string
	watch         bool
	jsonOut       bool
	noColor       bool
	report        bool
}

const usageHeader = `perfanalyze: steady-state performance analysis over a labeled exploration graph

Usage:
  perfanalyze -s <prefix> [-m <perf-model>] [options]

Options:
`

// parseFlags parses args into a cliConfig. done is true when the caller
// should exit immediately with code (either because --help/--version
// was given, or because the arguments were invalid).
func parseFlags(args []string, stdout, stderr io.Writer) (cliConfig, int, bool) {
	fs := flag.NewFlagSet("perfanalyze", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usageHeader)
		fs.PrintDefaults()
	}

	var cfg cliConfig
	addAlias := func(p *string, short, long, def, usage string) {
		fs.StringVar(p, short, def, usage)
		fs.StringVar(p, long, def, usage)
	}
	addAlias(&cfg.states, "s", "states", "", "path prefix globbing the node and adjacency-list shards (required)")
	addAlias(&cfg.perfModel, "m", "perf", "", "performance model file (YAML or JSON); omit for the empty model")
	addAlias(&cfg.exportDB, "o", "export-db", "", "write the result to a SQLite database at this path")

	fs.IntVar(&cfg.maxIterations, "i", 2000, "iteration cap I for the chain analyzer")
	fs.IntVar(&cfg.maxIterations, "max-iterations", 2000, "iteration cap I for the chain analyzer")
	fs.Float64Var(&cfg.tolerance, "t", 1e-6, "convergence tolerance tau (L2 norm of the step)")
	fs.Float64Var(&cfg.tolerance, "tolerance", 1e-6, "convergence tolerance tau (L2 norm of the step)")
	fs.BoolVar(&cfg.watch, "w", false, "re-run the analysis whenever the shard directory changes")
	fs.BoolVar(&cfg.watch, "watch", false, "re-run the analysis whenever the shard directory changes")

	fs.BoolVar(&cfg.jsonOut, "json", false, "emit machine-readable JSON instead of the styled report")
	fs.BoolVar(&cfg.noColor, "no-color", false, "disable styled/colored standard output")
	fs.BoolVar(&cfg.report, "report", false, "also render a glamour-formatted Markdown report")
	help := fs.Bool("help", false, "show this help text and exit")
	showVersion := fs.Bool("version", false, "print the version and exit")

	if err := fs.Parse(args); err != nil {
		return cfg, perfcore.ArgError.ExitCode(), true
	}

	if *help {
		fs.Usage()
		return cfg, 0, true
	}
	if *showVersion {
		fmt.Fprintf(stdout, "perfanalyze %s\n", version.Version)
		return cfg, 0, true
	}
	if cfg.states == "" {
		fmt.Fprintln(stderr, "perfanalyze: -s/--states is required")
		fs.Usage()
		return cfg, perfcore.ArgError.ExitCode(), true
	}

	return cfg, 0, false
}
