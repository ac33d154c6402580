package matrixbuild

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Matrix is the shared interface for the dense and sparse N×N matrix
// representations the builder produces. It exposes only the
// operations the analyzer needs: accumulation during construction, and
// row sums / left-multiplication during iteration - the algorithm uses
// only matrix-vector products and element-wise row sums.
type Matrix interface {
	N() int
	At(i, j int) float64
	Add(i, j int, v float64)
	RowSum(i int) float64
	// LeftMul computes out = v·M for a row vector v of length N,
	// writing the result into out (which must also have length N).
	LeftMul(v, out []float64)
}

// DefaultSparseThreshold is the state count above which NewMatrix
// switches from a dense gonum matrix to the sparse CSR-like
// representation: dense N² allocation stops being cheap well before
// N reaches five figures.
const DefaultSparseThreshold = 4096

// NewMatrix allocates an N×N matrix, choosing the dense or sparse
// representation based on threshold.
func NewMatrix(n, threshold int) Matrix {
	if n > threshold {
		return NewSparse(n)
	}
	return NewDense(n)
}

// Dense is a Matrix backed by a gonum mat.Dense, suitable for state
// counts small enough that an N² allocation per matrix is cheap.
type Dense struct {
	data *mat.Dense
	n    int
}

// NewDense allocates an n×n Dense matrix of zeros.
func NewDense(n int) *Dense {
	if n == 0 {
		return &Dense{n: 0}
	}
	return &Dense{data: mat.NewDense(n, n, nil), n: n}
}

func (d *Dense) N() int { return d.n }

func (d *Dense) At(i, j int) float64 {
	if d.n == 0 {
		return 0
	}
	return d.data.At(i, j)
}

func (d *Dense) Add(i, j int, v float64) {
	d.data.Set(i, j, d.data.At(i, j)+v)
}

func (d *Dense) RowSum(i int) float64 {
	if d.n == 0 {
		return 0
	}
	row := d.data.RawRowView(i)
	sum := 0.0
	for _, v := range row {
		sum += v
	}
	return sum
}

// LeftMul computes v·M via gonum's VecDense.MulVec against M^T, i.e.
// result_j = Σ_i v_i·M[i][j].
func (d *Dense) LeftMul(v, out []float64) {
	if d.n == 0 {
		return
	}
	vv := mat.NewVecDense(d.n, append([]float64(nil), v...))
	var res mat.VecDense
	res.MulVec(d.data.T(), vv)
	for i := 0; i < d.n; i++ {
		out[i] = res.AtVec(i)
	}
}

// Sparse is a Matrix backed by a CSR-like row-indexed representation,
// used for state counts where an N² dense allocation per matrix would
// be wasteful. Entries are accumulated into a map during construction
// and compacted into sorted slices on first read.
type Sparse struct {
	n   int
	acc map[int]map[int]float64

	finalized bool
	rowStart  []int
	cols      []int
	vals      []float64
}

// NewSparse allocates an empty n×n Sparse matrix.
func NewSparse(n int) *Sparse {
	return &Sparse{n: n, acc: make(map[int]map[int]float64)}
}

func (s *Sparse) N() int { return s.n }

func (s *Sparse) Add(i, j int, v float64) {
	row, ok := s.acc[i]
	if !ok {
		row = make(map[int]float64)
		s.acc[i] = row
	}
	row[j] += v
	s.finalized = false
}

func (s *Sparse) At(i, j int) float64 {
	s.ensureFinalized()
	start, end := s.rowStart[i], s.rowStart[i+1]
	for k := start; k < end; k++ {
		if s.cols[k] == j {
			return s.vals[k]
		}
	}
	return 0
}

func (s *Sparse) RowSum(i int) float64 {
	s.ensureFinalized()
	start, end := s.rowStart[i], s.rowStart[i+1]
	sum := 0.0
	for k := start; k < end; k++ {
		sum += s.vals[k]
	}
	return sum
}

func (s *Sparse) LeftMul(v, out []float64) {
	s.ensureFinalized()
	for i := range out {
		out[i] = 0
	}
	for i := 0; i < s.n; i++ {
		vi := v[i]
		if vi == 0 {
			continue
		}
		start, end := s.rowStart[i], s.rowStart[i+1]
		for k := start; k < end; k++ {
			out[s.cols[k]] += vi * s.vals[k]
		}
	}
}

func (s *Sparse) ensureFinalized() {
	if s.finalized {
		return
	}
	rowStart := make([]int, s.n+1)
	var cols []int
	var vals []float64
	for i := 0; i < s.n; i++ {
		rowStart[i] = len(cols)
		row := s.acc[i]
		keys := make([]int, 0, len(row))
		for j := range row {
			keys = append(keys, j)
		}
		sort.Ints(keys)
		for _, j := range keys {
			cols = append(cols, j)
			vals = append(vals, row[j])
		}
	}
	rowStart[s.n] = len(cols)
	s.rowStart = rowStart
	s.cols = cols
	s.vals = vals
	s.finalized = true
}
