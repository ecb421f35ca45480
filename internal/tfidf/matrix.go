package tfidf

import (
	"errors"
	"fmt"
)

// ErrShapeMismatch is returned when two operands disagree on dimensions.
var ErrShapeMismatch = errors.New("shape mismatch")

// SparseVector is a row vector with sorted, unique column indices.
type SparseVector struct {
	Dim     int
	Indices []int
	Values  []float64
}

// NNZ returns the number of stored entries.
func (v SparseVector) NNZ() int {
	return len(v.Indices)
}

// IsZero reports whether the vector has no non-zero weight.
func (v SparseVector) IsZero() bool {
	for _, x := range v.Values {
		if x != 0 {
			return false
		}
	}
	return true
}

// Dense expands the vector into a slice of length Dim.
func (v SparseVector) Dense() []float64 {
	out := make([]float64, v.Dim)
	for k, idx := range v.Indices {
		out[idx] = v.Values[k]
	}
	return out
}

// CSR is a compressed sparse row matrix laid out like scipy.sparse.csr_matrix.
// It is never modified after NewCSR returns.
type CSR struct {
	rows    int
	cols    int
	indptr  []int
	indices []int
	data    []float64
}

// NewCSR validates the compressed layout and wraps it.
func NewCSR(rows, cols int, indptr, indices []int, data []float64) (*CSR, error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("negative shape (%d, %d)", rows, cols)
	}
	if len(indptr) != rows+1 {
		return nil, fmt.Errorf("indptr has %d entries, want %d: %w", len(indptr), rows+1, ErrShapeMismatch)
	}
	if len(indices) != len(data) {
		return nil, fmt.Errorf("indices (%d) and data (%d) differ in length: %w", len(indices), len(data), ErrShapeMismatch)
	}
	if indptr[0] != 0 || indptr[rows] != len(data) {
		return nil, fmt.Errorf("indptr must span [0, %d]: %w", len(data), ErrShapeMismatch)
	}
	for i := 0; i < rows; i++ {
		if indptr[i+1] < indptr[i] {
			return nil, fmt.Errorf("indptr decreases at row %d", i)
		}
	}
	for k, c := range indices {
		if c < 0 || c >= cols {
			return nil, fmt.Errorf("column index %d at position %d outside [0, %d)", c, k, cols)
		}
	}

	return &CSR{
		rows:    rows,
		cols:    cols,
		indptr:  indptr,
		indices: indices,
		data:    data,
	}, nil
}

// Rows returns the number of rows.
func (m *CSR) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m *CSR) Cols() int { return m.cols }

// NNZ returns the number of stored entries.
func (m *CSR) NNZ() int { return len(m.data) }

// Row returns row i as a sparse vector sharing the matrix storage.
// Callers must not modify the returned slices.
func (m *CSR) Row(i int) SparseVector {
	lo, hi := m.indptr[i], m.indptr[i+1]
	return SparseVector{
		Dim:     m.cols,
		Indices: m.indices[lo:hi],
		Values:  m.data[lo:hi],
	}
}

// At returns the entry at (i, j).
func (m *CSR) At(i, j int) float64 {
	for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
		if m.indices[k] == j {
			return m.data[k]
		}
	}
	return 0
}

// DotRows writes the dot product of rows [from, to) with the dense query into
// out[from:to]. out must have at least to entries.
func (m *CSR) DotRows(query []float64, from, to int, out []float64) {
	for i := from; i < to; i++ {
		var s float64
		for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
			s += m.data[k] * query[m.indices[k]]
		}
		out[i] = s
	}
}

// LinearKernel returns the dot product of v with every row, aligned by row index.
// The result is freshly allocated.
func (m *CSR) LinearKernel(v SparseVector) ([]float64, error) {
	if v.Dim != m.cols {
		return nil, fmt.Errorf("query has %d features, matrix has %d: %w", v.Dim, m.cols, ErrShapeMismatch)
	}
	out := make([]float64, m.rows)
	if v.NNZ() == 0 {
		return out, nil
	}
	m.DotRows(v.Dense(), 0, m.rows, out)
	return out, nil
}

// RowDense returns row i expanded to a dense slice.
func (m *CSR) RowDense(i int) []float64 {
	return m.Row(i).Dense()
}
