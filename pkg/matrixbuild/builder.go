// Package matrixbuild implements the Matrix Builder component: it turns
// a labeled exploration graph and a performance model into a
// transition matrix P and one cost matrix C_k per declared counter,
// applying the labeling/defaulting policy that reconciles
// partially-labeled, partially-weighted graphs into a Markov chain.
// Every row of P sums to 1 except that of a state whose outgoing edges
// are all labeled with a total probability T(i) in (0, 1): such a row
// receives no residual and sums to T(i).
package matrixbuild

import (
	"log"
	"sort"
	"sync"

	"gonum.org/v1/gonum/graph/simple"

	"github.com/mchecker/perfcore/pkg/metrics"
	"github.com/mchecker/perfcore/pkg/perfcore"
	"github.com/mchecker/perfcore/pkg/perfmodel"
)

// Result is the output of Build: the transition matrix and one cost
// matrix per counter name declared anywhere in the model.
type Result struct {
	P     Matrix
	Costs map[string]Matrix
	// Absorbing holds, in ascending order, the indices of every state
	// Build treated as absorbing: either it had a self-loop of weight 1
	// and no label, or it had no outgoing edges at all (the implicit
	// absorber case).
	Absorbing []int
}

// Option configures Build.
type Option func(*options)

type options struct {
	sparseThreshold int
	skipReachCheck  bool
}

// WithSparseThreshold overrides DefaultSparseThreshold.
func WithSparseThreshold(n int) Option {
	return func(o *options) { o.sparseThreshold = n }
}

// WithoutReachabilityCheck disables the non-fatal gonum reachability
// pass, useful for tests that build synthetic disconnected graphs on
// purpose.
func WithoutReachabilityCheck() Option {
	return func(o *options) { o.skipReachCheck = true }
}

var warnedLabels sync.Map

// Build applies the labeling/defaulting policy to every state's
// outgoing edges:
//
//  1. Let T(i) = sum over labeled outgoing edges e of i of p(L(e)), the
//     probability the performance model assigns to e's label (0 for an
//     edge whose label is absent from the model).
//  2. If T(i) > 1, Build returns a NumericError before writing any
//     matrix entries.
//  3. Let U(i) = the number of unlabeled outgoing edges of i. If
//     T(i) == 0, U(i) is instead set to the structural out-degree of i
//     (round(1/w) of any outgoing edge), so a state whose labels are
//     all zero-probability still receives a uniform residual.
//  4. Let R(i) = (1 - T(i)) / U(i), or 0 if U(i) == 0.
//  5. Each outgoing edge e of i contributes p(L(e)) to P[i][e.Dst] if
//     e is labeled and T(i) > 0, and R(i) otherwise.
//  6. A state with no outgoing edges at all is treated as an implicit
//     absorber: P[i][i] = 1.
//
// Cost matrices are independent of probability: C_k[i][j] accumulates,
// for every label on edge (i,j) that declares counter k, that label's
// counter value.
func Build(g *perfcore.Graph, model perfmodel.Model, opts ...Option) (*Result, error) {
	defer metrics.Timer(metrics.MatrixBuild)()

	o := options{sparseThreshold: DefaultSparseThreshold}
	for _, opt := range opts {
		opt(&o)
	}

	n := g.N
	p := NewMatrix(n, o.sparseThreshold)
	costs := make(map[string]Matrix, len(model.CounterNames()))
	for _, k := range model.CounterNames() {
		costs[k] = NewMatrix(n, o.sparseThreshold)
	}

	byState := make([][]perfcore.Link, n)
	for _, e := range g.Edges {
		if e.Src < 0 || e.Src >= n {
			continue
		}
		byState[e.Src] = append(byState[e.Src], e)
	}

	var absorbing []int

	for i := 0; i < n; i++ {
		edges := byState[i]
		if len(edges) == 0 {
			p.Add(i, i, 1)
			absorbing = append(absorbing, i)
			continue
		}

		labeled := func(e perfcore.Link) bool { return len(e.Labels) > 0 }

		t := 0.0
		for _, e := range edges {
			if !labeled(e) {
				continue
			}
			t += edgeProbability(e, model)
		}
		if t > 1 {
			return nil, perfcore.Newf(perfcore.NumericError, "state %d: T(i) = %v exceeds 1", i, t)
		}

		u := 0
		for _, e := range edges {
			if !labeled(e) {
				u++
			}
		}
		if t == 0 {
			u = g.OutDegree(i)
		}

		r := 0.0
		if u > 0 {
			r = (1 - t) / float64(u)
		}

		selfLoopOnly := len(edges) == 1 && edges[0].Dst == i && !labeled(edges[0])

		for _, e := range edges {
			var contribution float64
			if labeled(e) && t > 0 {
				contribution = edgeProbability(e, model)
			} else {
				contribution = r
			}
			p.Add(i, e.Dst, contribution)

			for _, lbl := range e.Labels {
				cfg, ok := model.Config(lbl)
				if !ok {
					warnUnknownLabel(lbl)
					continue
				}
				for k, cv := range cfg.Counters {
					cm, ok := costs[k]
					if !ok {
						cm = NewMatrix(n, o.sparseThreshold)
						costs[k] = cm
					}
					cm.Add(i, e.Dst, cv.Numeric)
				}
			}
		}

		if selfLoopOnly && r == 1 {
			absorbing = append(absorbing, i)
		}
	}

	sort.Ints(absorbing)

	if !o.skipReachCheck {
		warnIfNoAbsorberReachable(g, absorbing)
	}

	return &Result{P: p, Costs: costs, Absorbing: absorbing}, nil
}

func edgeProbability(e perfcore.Link, model perfmodel.Model) float64 {
	sum := 0.0
	for _, lbl := range e.Labels {
		cfg, ok := model.Config(lbl)
		if !ok {
			warnUnknownLabel(lbl)
			continue
		}
		sum += cfg.Probability
	}
	return sum
}

func warnUnknownLabel(label string) {
	if _, already := warnedLabels.LoadOrStore(label, struct{}{}); !already {
		log.Printf("matrixbuild: label %q has no performance model entry; treating as probability 0 with no counters", label)
	}
}

// warnIfNoAbsorberReachable builds a plain directed view of the graph
// (self-loops excluded, since those are exactly the absorbing edges a
// reachability check needs to reach around) and logs a single
// non-fatal warning if the initial state cannot reach any of the given
// absorbing states. This never fails analysis: an unreachable absorber
// set still yields a mathematically valid chain, just one whose
// termination-conditioned histogram will stay empty.
func warnIfNoAbsorberReachable(g *perfcore.Graph, absorbing []int) {
	if g.N == 0 || len(absorbing) == 0 {
		return
	}

	dg := simple.NewDirectedGraph()
	for i := 0; i < g.N; i++ {
		dg.AddNode(simple.Node(i))
	}
	for _, e := range g.Edges {
		if e.Src == e.Dst {
			continue
		}
		dg.SetEdge(dg.NewEdge(simple.Node(e.Src), simple.Node(e.Dst)))
	}

	absorbSet := make(map[int]bool, len(absorbing))
	for _, a := range absorbing {
		absorbSet[a] = true
	}

	visited := make([]bool, g.N)
	queue := []int{0}
	visited[0] = true
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if absorbSet[cur] {
			return
		}
		it := dg.From(int64(cur))
		for it.Next() {
			next := int(it.Node().ID())
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}

	log.Printf("matrixbuild: no absorbing state is reachable from state 0; the termination-conditioned histogram will remain empty")
}
