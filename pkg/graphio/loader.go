// Package graphio implements the Graph Loader component: it reads the
// serialized node and adjacency-list shards an external exploration
// phase produces and merges them into a single in-memory Graph.
package graphio

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/mchecker/perfcore/pkg/metrics"
	"github.com/mchecker/perfcore/pkg/perfcore"
)

// Load enumerates the shards under prefix, reads them, and merges them
// into a single Graph. Shard kinds are read concurrently; within a
// kind, shards are concatenated in sorted-filename order before a
// single decode pass, which is equivalent (per the wire format's merge
// semantics) to decoding each shard in turn and merging repeated
// fields.
func Load(prefix string) (*perfcore.Graph, error) {
	defer metrics.Timer(metrics.GraphLoad)()

	nodePaths, err := globSorted(prefix + "*nodes_*.pb")
	if err != nil {
		return nil, perfcore.Wrap(perfcore.IoError, err, "globbing node shards for prefix %q", prefix)
	}
	linkPaths, err := globSorted(prefix + "*adjacency_lists_*.pb")
	if err != nil {
		return nil, perfcore.Wrap(perfcore.IoError, err, "globbing adjacency shards for prefix %q", prefix)
	}

	var nodeBytes, linkBytes []byte
	g, _ := errgroup.WithContext(context.Background())
	g.Go(func() error {
		b, err := concatFiles(nodePaths)
		if err != nil {
			return err
		}
		nodeBytes = b
		return nil
	})
	g.Go(func() error {
		b, err := concatFiles(linkPaths)
		if err != nil {
			return err
		}
		linkBytes = b
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	nodeJSON, err := decodeNodes(nodeBytes)
	if err != nil {
		return nil, perfcore.Wrap(perfcore.DecodeError, err, "decoding node shards for prefix %q", prefix)
	}
	links, err := decodeLinks(linkBytes)
	if err != nil {
		return nil, perfcore.Wrap(perfcore.DecodeError, err, "decoding adjacency shards for prefix %q", prefix)
	}

	n := int(links.totalNodes)
	if !links.haveTotal {
		log.Printf("graphio: no adjacency shard declared total_nodes for prefix %q; inferring from edge indices and node count", prefix)
		n = inferTotalNodes(links.links, len(nodeJSON))
	}

	for _, e := range links.links {
		if e.Src < 0 || e.Src >= n || e.Dst < 0 || e.Dst >= n {
			return nil, perfcore.Newf(perfcore.SchemaError, "edge (%d -> %d) out of range for total_nodes=%d", e.Src, e.Dst, n)
		}
	}

	return &perfcore.Graph{
		N:        n,
		Edges:    links.links,
		NodeJSON: nodeJSON,
	}, nil
}

func inferTotalNodes(links []perfcore.Link, nodeCount int) int {
	n := nodeCount
	for _, e := range links {
		if e.Src+1 > n {
			n = e.Src + 1
		}
		if e.Dst+1 > n {
			n = e.Dst + 1
		}
	}
	return n
}

func globSorted(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

func concatFiles(paths []string) ([]byte, error) {
	var out []byte
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, perfcore.Wrap(perfcore.IoError, err, "reading shard %q", p)
		}
		out = append(out, b...)
	}
	return out, nil
}
