// Command perfanalyze is the CLI entry point for the performance
// analysis core: it loads a labeled exploration graph and a
// performance model, builds the transition and cost matrices, runs the
// chain analyzer, and reports the stationary distribution and metrics.
package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/mchecker/perfcore/pkg/perfcore"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, code, done := parseFlags(args, stdout, stderr)
	if done {
		return code
	}

	colorEnabled := !cfg.noColor && term.IsTerminal(int(os.Stdout.Fd()))

	if !cfg.watch {
		return analyzeOnce(cfg, colorEnabled, stdout, stderr)
	}

	return watchAndRun(cfg, colorEnabled, stderr)
}

// watchAndRun drives --watch mode: a bubbletea program keeps a one-line
// status footer on screen, and every debounced shard-directory change
// re-runs the analysis pipeline, flushing its captured output above the
// footer via tea.Println.
func watchAndRun(cfg cliConfig, colorEnabled bool, stderr io.Writer) int {
	m := newWatchModel(filepath.Dir(cfg.states))
	p := tea.NewProgram(m)

	runOnceCaptured := func(stdout, errBuf *bytes.Buffer) int {
		return analyzeOnce(cfg, colorEnabled, stdout, errBuf)
	}
	fireRun := func() { runUnderProgram(p, cfg, colorEnabled, runOnceCaptured) }

	w, err := newWatcher(cfg, fireRun, stderr)
	if err != nil {
		return reportErr(stderr, err)
	}

	go fireRun()

	if err := w.Start(); err != nil {
		return reportErr(stderr, err)
	}
	defer w.Stop()

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(stderr, "perfanalyze: watch display: %v\n", err)
		return perfcore.IoError.ExitCode()
	}
	return 0
}
