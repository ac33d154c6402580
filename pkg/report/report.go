// Package report renders an analysis result for a human: plain or
// lipgloss-styled standard output, and an optional glamour-rendered
// Markdown summary.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	jsoniter "github.com/goccy/go-json"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/mchecker/perfcore/pkg/perfcore"
)

// NegligibleThreshold is the stationary-probability cutoff below which
// a state is omitted from standard output, per the external interface
// contract ("one line per non-negligible stationary entry").
const NegligibleThreshold = 1e-6

// Theme holds the styles used when rendering to a color-capable
// terminal. Build one with NewTheme; the zero value renders unstyled.
type Theme struct {
	enabled bool
	index   lipgloss.Style
	prob    lipgloss.Style
	summary lipgloss.Style
	header  lipgloss.Style
}

// NewTheme returns a Theme with styling enabled or disabled.
func NewTheme(colorEnabled bool) Theme {
	if !colorEnabled {
		return Theme{}
	}
	return Theme{
		enabled: true,
		index:   lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}).Bold(true),
		prob:    lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}),
		summary: lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#BFBFBF"}),
		header:  lipgloss.NewStyle().Bold(true).Underline(true),
	}
}

// Summarize extracts a one-line summary from a state's opaque node
// JSON, per the external interface contract: "derived from the opaque
// node JSON by extracting fields globals and returns if present."
func Summarize(nodeJSON string) string {
	if nodeJSON == "" {
		return ""
	}
	var raw map[string]jsoniter.RawMessage
	if err := jsoniter.Unmarshal([]byte(nodeJSON), &raw); err != nil {
		return ""
	}
	var parts []string
	if g, ok := raw["globals"]; ok {
		parts = append(parts, "globals="+string(g))
	}
	if r, ok := raw["returns"]; ok {
		parts = append(parts, "returns="+string(r))
	}
	return strings.Join(parts, " ")
}

// StandardOutput writes the textual contract: one line per
// non-negligible stationary entry, followed by the Metrics record.
// Styling is applied through theme when theme.enabled.
func StandardOutput(w io.Writer, g *perfcore.Graph, pi []float64, m perfcore.Metrics, theme Theme) error {
	for i, p := range pi {
		if p <= NegligibleThreshold {
			continue
		}
		summary := ""
		if g != nil && i < len(g.NodeJSON) {
			summary = Summarize(g.NodeJSON[i])
		}
		if theme.enabled {
			fmt.Fprintf(w, "%s %s %s\n",
				theme.index.Render(fmt.Sprintf("%d:", i)),
				theme.prob.Render(fmt.Sprintf("%.6g", p)),
				theme.summary.Render(summary))
		} else {
			fmt.Fprintf(w, "%d: %.6g %s\n", i, p, summary)
		}
	}

	names := make([]string, 0, len(m.Mean))
	for k := range m.Mean {
		names = append(names, k)
	}
	sort.Strings(names)

	header := "metrics:"
	if theme.enabled {
		header = theme.header.Render(header)
	}
	fmt.Fprintln(w, header)
	for _, k := range names {
		fmt.Fprintf(w, "  mean[%s] = %.6g\n", k, m.Mean[k])
	}
	fmt.Fprintf(w, "  histogram: %d entries\n", len(m.Histogram))
	for _, pt := range m.Histogram {
		fmt.Fprintf(w, "    p=%.6g %v\n", pt.P, pt.Counters)
	}
	return nil
}

// Markdown renders a short glamour-formatted Markdown report, used
// when --report is passed.
func Markdown(w io.Writer, g *perfcore.Graph, pi []float64, m perfcore.Metrics) error {
	var b strings.Builder
	b.WriteString("# Performance Analysis Report\n\n")
	b.WriteString("## Stationary Distribution\n\n")
	b.WriteString("| State | Probability | Summary |\n|---|---|---|\n")
	for i, p := range pi {
		if p <= NegligibleThreshold {
			continue
		}
		summary := ""
		if g != nil && i < len(g.NodeJSON) {
			summary = Summarize(g.NodeJSON[i])
		}
		fmt.Fprintf(&b, "| %d | %.6g | %s |\n", i, p, summary)
	}

	b.WriteString("\n## Counter Means\n\n")
	names := make([]string, 0, len(m.Mean))
	for k := range m.Mean {
		names = append(names, k)
	}
	sort.Strings(names)
	b.WriteString("| Counter | Mean |\n|---|---|\n")
	for _, k := range names {
		fmt.Fprintf(&b, "| %s | %.6g |\n", k, m.Mean[k])
	}

	b.WriteString(fmt.Sprintf("\n## Histogram\n\n%d termination points recorded.\n", len(m.Histogram)))

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return err
	}
	out, err := renderer.Render(b.String())
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}
