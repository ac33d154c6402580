package main

import (
	"fmt"
	"io"

	"github.com/mchecker/perfcore/pkg/watch"
)

// newWatcher builds the Watcher used by --watch mode: each debounced
// directory change re-runs the analysis pipeline and reports any watch
// plumbing error to stderr without tearing down the process (an
// analysis error on one re-run should not stop watching for the next).
func newWatcher(cfg cliConfig, runOnce func(), stderr io.Writer) (*watch.Watcher, error) {
	return watch.New(cfg.states,
		watch.WithOnChange(runOnce),
		watch.WithOnError(func(err error) {
			fmt.Fprintf(stderr, "perfanalyze: watch: %v\n", err)
		}),
	)
}
