package bloch

import (
	"context"
	"fmt"
	"math/cmplx"

	"blochsweep/pkg/density"
	"blochsweep/pkg/optical"
)

// pivotTolerance is relative to the largest Liouvillian element.
const pivotTolerance = 1e-12

// SteadyState solves L vec(ρ) = 0 with one population equation replaced by
// Tr ρ = 1.
func (m *Model) SteadyState(ctx context.Context) (*density.Matrix, error) {
	n := m.n
	dim := n * n
	h := m.hamiltonian(unitScale)

	a := make([][]complex128, dim)
	for r := range a {
		a[r] = make([]complex128, dim)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			col := i*n + j
			d := m.derivative(h, density.Projector(n, i, j))
			for r := 0; r < n; r++ {
				for c := 0; c < n; c++ {
					a[r*n+c][col] = d.At(r, c)
				}
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	b := make([]complex128, dim)
	for col := range a[0] {
		a[0][col] = 0
	}
	for i := 0; i < n; i++ {
		a[0][i*n+i] = 1
	}
	b[0] = 1

	x, err := solveLinear(ctx, a, b)
	if err != nil {
		return nil, err
	}
	rho := density.Zeros(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			rho.Set(i, j, x[i*n+j])
		}
	}
	if !rho.IsFinite() {
		return nil, fmt.Errorf("%w: non-finite steady state", optical.ErrSolveFailure)
	}
	m.rho = rho.Clone()
	return rho, nil
}

// solveLinear runs Gaussian elimination with partial pivoting in place.
func solveLinear(ctx context.Context, a [][]complex128, b []complex128) ([]complex128, error) {
	dim := len(b)
	scale := 0.0
	for _, row := range a {
		for _, v := range row {
			scale = max(scale, cmplx.Abs(v))
		}
	}
	if scale == 0 {
		return nil, fmt.Errorf("%w: zero system", optical.ErrSolveFailure)
	}
	for k := 0; k < dim; k++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, best := k, cmplx.Abs(a[k][k])
		for r := k + 1; r < dim; r++ {
			if v := cmplx.Abs(a[r][k]); v > best {
				p, best = r, v
			}
		}
		if best <= pivotTolerance*scale {
			return nil, fmt.Errorf("%w: singular Liouvillian at column %d", optical.ErrSolveFailure, k)
		}
		a[k], a[p] = a[p], a[k]
		b[k], b[p] = b[p], b[k]
		for r := k + 1; r < dim; r++ {
			f := a[r][k] / a[k][k]
			if f == 0 {
				continue
			}
			for c := k; c < dim; c++ {
				a[r][c] -= f * a[k][c]
			}
			b[r] -= f * b[k]
		}
	}
	x := make([]complex128, dim)
	for r := dim - 1; r >= 0; r-- {
		s := b[r]
		for c := r + 1; c < dim; c++ {
			s -= a[r][c] * x[c]
		}
		x[r] = s / a[r][r]
	}
	return x, nil
}
