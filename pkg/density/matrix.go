// Package density provides a small dense square complex matrix used for
// density matrices, Hamiltonians and collapse operators.
//
// Arithmetic methods allocate a new result and never modify the receiver,
// except the explicitly in-place AddScaledInPlace. Dimension mismatches in
// arithmetic are programmer errors and panic with ErrDimensionMismatch;
// user-facing indexing goes through Element, which returns ErrOutOfRange.
package density

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"strings"
)

var (
	// ErrBadShape is returned when a matrix dimension is not positive or rows
	// are ragged.
	ErrBadShape = errors.New("density: invalid shape")
	// ErrOutOfRange is returned by Element for indices outside the matrix.
	ErrOutOfRange = errors.New("density: index out of range")
	// ErrDimensionMismatch is the panic value for operands of different size.
	ErrDimensionMismatch = errors.New("density: dimension mismatch")
)

// Matrix is an n×n complex matrix stored row-major.
type Matrix struct {
	n    int
	data []complex128
}

// New returns an n×n zero matrix.
func New(n int) (*Matrix, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: n=%d", ErrBadShape, n)
	}
	return &Matrix{n: n, data: make([]complex128, n*n)}, nil
}

// Zeros is New for callers that have already validated n.
func Zeros(n int) *Matrix {
	m, err := New(n)
	if err != nil {
		panic(err)
	}
	return m
}

// FromRows copies a square row slice into a Matrix.
func FromRows(rows [][]complex128) (*Matrix, error) {
	m, err := New(len(rows))
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		if len(row) != m.n {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrBadShape, i, len(row), m.n)
		}
		copy(m.data[i*m.n:(i+1)*m.n], row)
	}
	return m, nil
}

// Identity returns the n×n identity.
func Identity(n int) *Matrix {
	m := Zeros(n)
	for i := 0; i < n; i++ {
		m.data[i*n+i] = 1
	}
	return m
}

// Diagonal returns diag(values).
func Diagonal(values []float64) *Matrix {
	m := Zeros(len(values))
	for i, v := range values {
		m.data[i*m.n+i] = complex(v, 0)
	}
	return m
}

// Projector returns |i><j|.
func Projector(n, i, j int) *Matrix {
	m := Zeros(n)
	m.data[i*n+j] = 1
	return m
}

// NaN returns an n×n matrix with every element NaN. It marks sweep points
// that have no result.
func NaN(n int) *Matrix {
	m := Zeros(n)
	for k := range m.data {
		m.data[k] = cmplx.NaN()
	}
	return m
}

// N returns the dimension.
func (m *Matrix) N() int { return m.n }

// At returns element (i, j). It panics when out of range.
func (m *Matrix) At(i, j int) complex128 { return m.data[i*m.n+j] }

// Set writes element (i, j). It panics when out of range.
func (m *Matrix) Set(i, j int, v complex128) { m.data[i*m.n+j] = v }

// Element is the bounds-checked form of At.
func (m *Matrix) Element(i, j int) (complex128, error) {
	if i < 0 || j < 0 || i >= m.n || j >= m.n {
		return 0, fmt.Errorf("%w: (%d,%d) in %dx%d", ErrOutOfRange, i, j, m.n, m.n)
	}
	return m.data[i*m.n+j], nil
}

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	out := &Matrix{n: m.n, data: make([]complex128, len(m.data))}
	copy(out.data, m.data)
	return out
}

// Rows returns a copy as a row slice.
func (m *Matrix) Rows() [][]complex128 {
	out := make([][]complex128, m.n)
	for i := range out {
		row := make([]complex128, m.n)
		copy(row, m.data[i*m.n:(i+1)*m.n])
		out[i] = row
	}
	return out
}

// Diag returns the diagonal.
func (m *Matrix) Diag() []complex128 {
	out := make([]complex128, m.n)
	for i := range out {
		out[i] = m.data[i*m.n+i]
	}
	return out
}

// Trace returns the sum of the diagonal.
func (m *Matrix) Trace() complex128 {
	var tr complex128
	for i := 0; i < m.n; i++ {
		tr += m.data[i*m.n+i]
	}
	return tr
}

// Add returns m + b.
func (m *Matrix) Add(b *Matrix) *Matrix {
	m.mustMatch(b)
	out := m.Clone()
	for k, v := range b.data {
		out.data[k] += v
	}
	return out
}

// Sub returns m - b.
func (m *Matrix) Sub(b *Matrix) *Matrix {
	m.mustMatch(b)
	out := m.Clone()
	for k, v := range b.data {
		out.data[k] -= v
	}
	return out
}

// Scale returns c·m.
func (m *Matrix) Scale(c complex128) *Matrix {
	out := m.Clone()
	for k := range out.data {
		out.data[k] *= c
	}
	return out
}

// AddScaledInPlace sets m = m + c·b and returns m.
func (m *Matrix) AddScaledInPlace(c complex128, b *Matrix) *Matrix {
	m.mustMatch(b)
	for k, v := range b.data {
		m.data[k] += c * v
	}
	return m
}

// Mul returns the matrix product m·b.
func (m *Matrix) Mul(b *Matrix) *Matrix {
	m.mustMatch(b)
	n := m.n
	out := Zeros(n)
	for i := 0; i < n; i++ {
		for k := 0; k < n; k++ {
			a := m.data[i*n+k]
			if a == 0 {
				continue
			}
			for j := 0; j < n; j++ {
				out.data[i*n+j] += a * b.data[k*n+j]
			}
		}
	}
	return out
}

// Dagger returns the conjugate transpose.
func (m *Matrix) Dagger() *Matrix {
	n := m.n
	out := Zeros(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out.data[j*n+i] = cmplx.Conj(m.data[i*n+j])
		}
	}
	return out
}

// Commutator returns [a, b] = ab - ba.
func Commutator(a, b *Matrix) *Matrix { return a.Mul(b).Sub(b.Mul(a)) }

// Anticommutator returns {a, b} = ab + ba.
func Anticommutator(a, b *Matrix) *Matrix { return a.Mul(b).Add(b.Mul(a)) }

// IsFinite reports whether no element is NaN or infinite.
func (m *Matrix) IsFinite() bool {
	for _, v := range m.data {
		if cmplx.IsNaN(v) || cmplx.IsInf(v) {
			return false
		}
	}
	return true
}

// EqualApprox reports element-wise |m - b| <= tol.
func (m *Matrix) EqualApprox(b *Matrix, tol float64) bool {
	if b == nil || m.n != b.n {
		return false
	}
	for k, v := range m.data {
		if cmplx.Abs(v-b.data[k]) > tol {
			return false
		}
	}
	return true
}

// MaxAbs returns the largest element modulus.
func (m *Matrix) MaxAbs() float64 {
	best := 0.0
	for _, v := range m.data {
		best = math.Max(best, cmplx.Abs(v))
	}
	return best
}

func (m *Matrix) String() string {
	var b strings.Builder
	for i := 0; i < m.n; i++ {
		b.WriteString("[")
		for j := 0; j < m.n; j++ {
			if j > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "%.4g", m.data[i*m.n+j])
		}
		b.WriteString("]\n")
	}
	return b.String()
}

func (m *Matrix) mustMatch(b *Matrix) {
	if b == nil || m.n != b.n {
		panic(ErrDimensionMismatch)
	}
}
