// Package chainanalysis implements the Chain Analyzer component: the
// two-track power iteration that turns a transition matrix and its
// cost matrices into a stationary distribution, per-counter expected
// values, and a termination-conditioned histogram.
package chainanalysis

import (
	"math"

	"github.com/mchecker/perfcore/pkg/matrixbuild"
	"github.com/mchecker/perfcore/pkg/metrics"
	"github.com/mchecker/perfcore/pkg/perfcore"
)

// Options configures one analysis run. The zero value is not valid;
// use DefaultOptions and override as needed.
type Options struct {
	// MaxIterations is the iteration cap I. Reaching it without
	// converging ends the run in the Exhausted state.
	MaxIterations int
	// Tolerance is the L2-norm convergence threshold τ.
	Tolerance float64
	// InitialDistribution is π₀. A nil value means the canonical e_0
	// (all mass on state 0).
	InitialDistribution []float64
	// Progress, if non-nil, is called once per completed iteration
	// with the post-step distribution, letting a caller (e.g. a live
	// progress display) observe the run without altering it.
	Progress func(iteration int, pi []float64)
}

// DefaultOptions returns the standard cap of 2000 iterations and a
// tolerance of 1e-6.
func DefaultOptions() Options {
	return Options{MaxIterations: 2000, Tolerance: 1e-6}
}

// Analyze runs the two-track power iteration described by the matrix
// builder's output: the ordinary distribution π evolves by π·P; the
// non-absorbed distribution π̃ evolves the same way, then has its mass
// on every absorbing state zeroed and the remainder renormalized. Two
// accumulators per counter, mean_k (against π) and raw_k (against
// π̃), are updated before each step; raw_k is snapshotted into the
// histogram whenever the cumulative absorption mass in π strictly
// increases.
//
// Analyze never fails on a non-converging chain: it returns whatever
// distribution it reached and reports Exhausted. It fails only when
// the iteration produces a NaN, which indicates an ill-formed input
// (e.g. a cost matrix containing values incompatible with the
// probabilities that scale them).
func Analyze(p matrixbuild.Matrix, costs map[string]matrixbuild.Matrix, absorbing []int, opts Options) ([]float64, perfcore.Metrics, perfcore.State, error) {
	defer metrics.Timer(metrics.ChainIterate)()

	n := p.N()
	if n == 0 {
		return nil, perfcore.Metrics{Mean: map[string]float64{}}, perfcore.Converged, nil
	}

	pi := opts.InitialDistribution
	if pi == nil {
		pi = make([]float64, n)
		pi[0] = 1
	} else {
		pi = append([]float64(nil), pi...)
	}
	piTilde := append([]float64(nil), pi...)

	stepCost := make(map[string][]float64, len(costs))
	for name, cm := range costs {
		sc := make([]float64, n)
		for i := 0; i < n; i++ {
			sum := 0.0
			for j := 0; j < n; j++ {
				sum += cm.At(i, j) * p.At(i, j)
			}
			sc[i] = sum
		}
		stepCost[name] = sc
	}

	absorbSet := make(map[int]bool, len(absorbing))
	for _, j := range absorbing {
		absorbSet[j] = true
	}

	mean := make(map[string]float64, len(stepCost))
	raw := make(map[string]float64, len(stepCost))
	for k := range stepCost {
		mean[k] = 0
		raw[k] = 0
	}

	var histogram []perfcore.HistogramPoint
	termPrev := 0.0

	newPi := make([]float64, n)
	newPiTilde := make([]float64, n)

	state := perfcore.Iterating
	for t := 0; t < opts.MaxIterations; t++ {
		for k, sc := range stepCost {
			mStep, rStep := 0.0, 0.0
			for i := 0; i < n; i++ {
				mStep += pi[i] * sc[i]
				rStep += piTilde[i] * sc[i]
			}
			mean[k] += mStep
			raw[k] += rStep
		}

		p.LeftMul(pi, newPi)
		p.LeftMul(piTilde, newPiTilde)

		for j := range newPiTilde {
			if absorbSet[j] {
				newPiTilde[j] = 0
			}
		}
		tildeSum := 0.0
		for _, v := range newPiTilde {
			tildeSum += v
		}
		if tildeSum > 0 {
			for i := range newPiTilde {
				newPiTilde[i] /= tildeSum
			}
		}

		for _, v := range newPi {
			if math.IsNaN(v) {
				return nil, perfcore.Metrics{}, perfcore.Exhausted,
					perfcore.Newf(perfcore.NumericError, "iteration %d produced NaN in the stationary distribution", t)
			}
		}

		term := 0.0
		for j := range newPi {
			if absorbSet[j] {
				term += newPi[j]
			}
		}
		if term > termPrev {
			snapshot := make(map[string]float64, len(raw))
			for k, v := range raw {
				snapshot[k] = v
			}
			histogram = append(histogram, perfcore.HistogramPoint{P: term, Counters: snapshot})
			termPrev = term
		}

		diff := 0.0
		for i := 0; i < n; i++ {
			d := newPi[i] - pi[i]
			diff += d * d
		}
		diff = math.Sqrt(diff)

		pi, newPi = newPi, pi
		piTilde, newPiTilde = newPiTilde, piTilde
		metrics.RecordIteration()

		if opts.Progress != nil {
			opts.Progress(t, pi)
		}

		if diff < opts.Tolerance {
			state = perfcore.Converged
			return pi, perfcore.Metrics{Mean: mean, Histogram: histogram}, state, nil
		}
	}

	state = perfcore.Exhausted
	return pi, perfcore.Metrics{Mean: mean, Histogram: histogram}, state, nil
}
