// Package perfmodel implements the Perf-Model Loader component: it
// parses a declarative performance model file into a typed
// configuration keyed by label.
package perfmodel

import "github.com/mchecker/perfcore/pkg/perfcore"

// counterEntry mirrors the file schema's { numeric: <float> } shape for
// one counter value.
type counterEntry struct {
	Numeric float64 `yaml:"numeric" json:"numeric"`
}

// labelEntry mirrors one entry of the file's `configs` map.
type labelEntry struct {
	Probability float64                 `yaml:"probability" json:"probability"`
	Counters    map[string]counterEntry `yaml:"counters" json:"counters"`
}

// file is the top-level shape of a performance model document:
//
//	configs:
//	  <label>:
//	    probability: <float>
//	    counters:
//	      <name>:
//	        numeric: <float>
type file struct {
	Configs map[string]labelEntry `yaml:"configs" json:"configs"`
}

// Model is the parsed, typed performance model M: Σ → LabelConfig.
// The zero value is the empty model (every label contributes 0
// probability and no counters).
type Model struct {
	configs map[string]perfcore.LabelConfig
}

// Empty returns the empty performance model, used when no model file
// is provided.
func Empty() Model {
	return Model{}
}

// New builds a Model directly from a label->config map, for callers
// (chiefly tests) that already have LabelConfig values in hand and
// don't need to go through a file on disk.
func New(configs map[string]perfcore.LabelConfig) Model {
	return Model{configs: configs}
}

// Config returns the LabelConfig for a label, and whether the label was
// present in the model. Absent labels have probability 0 and no
// counters, matching the "missing probability defaults to 0" rule.
func (m Model) Config(label string) (perfcore.LabelConfig, bool) {
	cfg, ok := m.configs[label]
	return cfg, ok
}

// Labels returns every label the model declares, in no particular
// order.
func (m Model) Labels() []string {
	out := make([]string, 0, len(m.configs))
	for l := range m.configs {
		out = append(out, l)
	}
	return out
}

// CounterNames returns the set 𝒦 of every counter name declared by any
// label in the model, in no particular order.
func (m Model) CounterNames() []string {
	seen := make(map[string]struct{})
	for _, cfg := range m.configs {
		for k := range cfg.Counters {
			seen[k] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	return out
}

func fromFile(f file) Model {
	configs := make(map[string]perfcore.LabelConfig, len(f.Configs))
	for label, entry := range f.Configs {
		counters := make(map[string]perfcore.CounterValue, len(entry.Counters))
		for name, c := range entry.Counters {
			counters[name] = perfcore.CounterValue{Numeric: c.Numeric}
		}
		configs[label] = perfcore.LabelConfig{
			Probability: entry.Probability,
			Counters:    counters,
		}
	}
	return Model{configs: configs}
}
