package matrixbuild_test

import (
	"math"
	"testing"

	"github.com/mchecker/perfcore/pkg/matrixbuild"
	"github.com/mchecker/perfcore/pkg/perfcore"
	"github.com/mchecker/perfcore/pkg/perfmodel"
)

func rowSum(m matrixbuild.Matrix, i int) float64 {
	sum := 0.0
	for j := 0; j < m.N(); j++ {
		sum += m.At(i, j)
	}
	return sum
}

func TestBuildFullyLabeledRowIsStochastic(t *testing.T) {
	g := &perfcore.Graph{
		N: 3,
		Edges: []perfcore.Link{
			{Src: 0, Dst: 1, Weight: 0.5, Labels: []string{"a"}},
			{Src: 0, Dst: 2, Weight: 0.5, Labels: []string{"b"}},
			{Src: 1, Dst: 1, Weight: 1},
			{Src: 2, Dst: 2, Weight: 1},
		},
	}
	cfg := map[string]perfcore.LabelConfig{
		"a": {Probability: 0.3},
		"b": {Probability: 0.7},
	}
	model := modelFrom(cfg)

	res, err := matrixbuild.Build(g, model)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if got := res.P.At(0, 1); got != 0.3 {
		t.Errorf("P[0][1] = %v, want 0.3", got)
	}
	if got := res.P.At(0, 2); got != 0.7 {
		t.Errorf("P[0][2] = %v, want 0.7", got)
	}
	if got := rowSum(res.P, 0); math.Abs(got-1) > 1e-12 {
		t.Errorf("row 0 sums to %v, want 1", got)
	}
}

func TestBuildUnlabeledEdgesGetResidual(t *testing.T) {
	g := &perfcore.Graph{
		N: 3,
		Edges: []perfcore.Link{
			{Src: 0, Dst: 1, Weight: 0.5, Labels: []string{"a"}},
			{Src: 0, Dst: 2, Weight: 0.5},
			{Src: 1, Dst: 1, Weight: 1},
			{Src: 2, Dst: 2, Weight: 1},
		},
	}
	model := modelFrom(map[string]perfcore.LabelConfig{"a": {Probability: 0.4}})

	res, err := matrixbuild.Build(g, model)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if got := res.P.At(0, 1); got != 0.4 {
		t.Errorf("P[0][1] = %v, want 0.4", got)
	}
	if got := res.P.At(0, 2); got != 0.6 {
		t.Errorf("P[0][2] = %v, want 0.6 (residual)", got)
	}
}

func TestBuildZeroTreatsAllEdgesAsUniform(t *testing.T) {
	// Both outgoing edges are labeled, but their labels resolve to
	// probability 0 (e.g. absent from the model): T(0) == 0, so per
	// the policy every edge -- including labeled ones -- falls back to
	// the uniform residual.
	g := &perfcore.Graph{
		N: 3,
		Edges: []perfcore.Link{
			{Src: 0, Dst: 1, Weight: 0.5, Labels: []string{"unknown-a"}},
			{Src: 0, Dst: 2, Weight: 0.5, Labels: []string{"unknown-b"}},
			{Src: 1, Dst: 1, Weight: 1},
			{Src: 2, Dst: 2, Weight: 1},
		},
	}
	res, err := matrixbuild.Build(g, perfmodel.Empty())
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if got := res.P.At(0, 1); got != 0.5 {
		t.Errorf("P[0][1] = %v, want 0.5", got)
	}
	if got := res.P.At(0, 2); got != 0.5 {
		t.Errorf("P[0][2] = %v, want 0.5", got)
	}
}

func TestBuildOverSubscribedLabelsIsNumericError(t *testing.T) {
	g := &perfcore.Graph{
		N: 2,
		Edges: []perfcore.Link{
			{Src: 0, Dst: 1, Weight: 1, Labels: []string{"a", "b"}},
			{Src: 1, Dst: 1, Weight: 1},
		},
	}
	model := modelFrom(map[string]perfcore.LabelConfig{
		"a": {Probability: 0.6},
		"b": {Probability: 0.6},
	})
	_, err := matrixbuild.Build(g, model)
	if err == nil {
		t.Fatal("expected a NumericError for T(i) > 1")
	}
	perr, ok := err.(*perfcore.Error)
	if !ok || perr.Kind != perfcore.NumericError {
		t.Fatalf("err = %v, want *perfcore.Error{Kind: NumericError}", err)
	}
}

func TestBuildStateWithNoOutgoingEdgesIsImplicitAbsorber(t *testing.T) {
	g := &perfcore.Graph{N: 1}
	res, err := matrixbuild.Build(g, perfmodel.Empty())
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if got := res.P.At(0, 0); got != 1 {
		t.Errorf("P[0][0] = %v, want 1 (implicit absorber)", got)
	}
	if len(res.Absorbing) != 1 || res.Absorbing[0] != 0 {
		t.Errorf("Absorbing = %v, want [0]", res.Absorbing)
	}
}

func TestBuildCostMatrixAccumulatesCounters(t *testing.T) {
	g := &perfcore.Graph{
		N: 2,
		Edges: []perfcore.Link{
			{Src: 0, Dst: 1, Weight: 1, Labels: []string{"a"}},
			{Src: 1, Dst: 1, Weight: 1},
		},
	}
	model := modelFrom(map[string]perfcore.LabelConfig{
		"a": {Probability: 1, Counters: map[string]perfcore.CounterValue{"cost": {Numeric: 2.5}}},
	})
	res, err := matrixbuild.Build(g, model)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	cost, ok := res.Costs["cost"]
	if !ok {
		t.Fatal("expected a cost matrix for counter \"cost\"")
	}
	if got := cost.At(0, 1); got != 2.5 {
		t.Errorf("C[cost][0][1] = %v, want 2.5", got)
	}
}

func TestBuildUsesSparseAboveThreshold(t *testing.T) {
	g := &perfcore.Graph{
		N: 10,
		Edges: []perfcore.Link{
			{Src: 0, Dst: 1, Weight: 1},
		},
	}
	for i := 1; i < 10; i++ {
		g.Edges = append(g.Edges, perfcore.Link{Src: i, Dst: i, Weight: 1})
	}
	res, err := matrixbuild.Build(g, perfmodel.Empty(), matrixbuild.WithSparseThreshold(5))
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if _, ok := res.P.(*matrixbuild.Sparse); !ok {
		t.Fatalf("P is %T, want *matrixbuild.Sparse above threshold", res.P)
	}
}

func modelFrom(cfg map[string]perfcore.LabelConfig) perfmodel.Model {
	return perfmodel.New(cfg)
}
