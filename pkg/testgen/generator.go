// Package testgen generates synthetic graph shards and performance
// model files on disk, for tests and benchmarks that need a Load-able
// fixture without a protoc toolchain or a hand-authored YAML file.
package testgen

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mchecker/perfcore/pkg/graphio"
	"github.com/mchecker/perfcore/pkg/perfcore"
)

// WriteShards writes one nodes shard and one adjacency-list shard for
// g under dir, using prefix as the shard filename prefix, and returns
// the path prefix a graphio.Load call should be given.
func WriteShards(dir, prefix string, g *perfcore.Graph) (string, error) {
	fullPrefix := filepath.Join(dir, prefix)

	nodesPath := fullPrefix + "nodes_0.pb"
	if err := os.WriteFile(nodesPath, graphio.EncodeNodes(g.NodeJSON), 0644); err != nil {
		return "", fmt.Errorf("write nodes shard: %w", err)
	}

	linksPath := fullPrefix + "adjacency_lists_0.pb"
	if err := os.WriteFile(linksPath, graphio.EncodeLinks(g.N, g.Edges), 0644); err != nil {
		return "", fmt.Errorf("write adjacency shard: %w", err)
	}

	return fullPrefix, nil
}

// WriteShardedGraph splits g's edges across shardCount adjacency-list
// shards (and its node JSON across shardCount node shards), exercising
// the loader's "concatenation across shards" merge contract.
func WriteShardedGraph(dir, prefix string, g *perfcore.Graph, shardCount int) (string, error) {
	if shardCount < 1 {
		shardCount = 1
	}
	fullPrefix := filepath.Join(dir, prefix)

	nodeChunks := splitStrings(g.NodeJSON, shardCount)
	for i, chunk := range nodeChunks {
		path := fmt.Sprintf("%snodes_%d.pb", fullPrefix, i)
		if err := os.WriteFile(path, graphio.EncodeNodes(chunk), 0644); err != nil {
			return "", fmt.Errorf("write nodes shard %d: %w", i, err)
		}
	}

	edgeChunks := splitLinks(g.Edges, shardCount)
	for i, chunk := range edgeChunks {
		totalNodes := -1
		if i == 0 {
			totalNodes = g.N
		}
		path := fmt.Sprintf("%sadjacency_lists_%d.pb", fullPrefix, i)
		if err := os.WriteFile(path, graphio.EncodeLinks(totalNodes, chunk), 0644); err != nil {
			return "", fmt.Errorf("write adjacency shard %d: %w", i, err)
		}
	}

	return fullPrefix, nil
}

// WritePerfModel writes a minimal YAML performance model file mapping
// each label to a probability (and, optionally, to one "cost" counter
// value), returning the file's path.
func WritePerfModel(dir, filename string, probabilities map[string]float64, costCounters map[string]float64) (string, error) {
	path := filepath.Join(dir, filename)

	doc := "configs:\n"
	for label, p := range probabilities {
		doc += fmt.Sprintf("  %s:\n    probability: %v\n", label, p)
		if cv, ok := costCounters[label]; ok {
			doc += fmt.Sprintf("    counters:\n      cost:\n        numeric: %v\n", cv)
		}
	}

	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		return "", fmt.Errorf("write performance model: %w", err)
	}
	return path, nil
}

func splitStrings(in []string, n int) [][]string {
	out := make([][]string, n)
	for i, s := range in {
		shard := i % n
		out[shard] = append(out[shard], s)
	}
	return out
}

func splitLinks(in []perfcore.Link, n int) [][]perfcore.Link {
	out := make([][]perfcore.Link, n)
	for i, l := range in {
		shard := i % n
		out[shard] = append(out[shard], l)
	}
	return out
}
