package perfmodel

import (
	"os"
	"strings"

	jsoniter "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/mchecker/perfcore/pkg/metrics"
	"github.com/mchecker/perfcore/pkg/perfcore"
)

// Load reads the performance model file at path. An empty path returns
// the empty model, per the contract "if path is not provided, M = ∅".
//
// Files ending in .json (or whose content begins with '{' once
// leading whitespace is trimmed) are decoded as JSON, accepted as a
// schema-equivalent alternative to YAML; everything else is decoded as
// YAML.
func Load(path string) (Model, error) {
	if path == "" {
		return Empty(), nil
	}
	defer metrics.Timer(metrics.ModelLoad)()

	data, err := os.ReadFile(path)
	if err != nil {
		return Model{}, perfcore.Wrap(perfcore.IoError, err, "reading performance model %q", path)
	}

	var f file
	if looksLikeJSON(path, data) {
		if err := jsoniter.Unmarshal(data, &f); err != nil {
			return Model{}, perfcore.Wrap(perfcore.DecodeError, err, "parsing performance model %q as JSON", path)
		}
	} else {
		if err := yaml.Unmarshal(data, &f); err != nil {
			return Model{}, perfcore.Wrap(perfcore.DecodeError, err, "parsing performance model %q as YAML", path)
		}
	}

	return fromFile(f), nil
}

func looksLikeJSON(path string, data []byte) bool {
	if strings.HasSuffix(path, ".json") {
		return true
	}
	trimmed := strings.TrimSpace(string(data))
	return strings.HasPrefix(trimmed, "{")
}
