package sweep

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"blochsweep/pkg/density"
)

// Element addresses one density matrix entry.
type Element struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Diagonal reports whether e is a population.
func (e Element) Diagonal() bool { return e.Row == e.Col }

// DensityMatrices returns every point's density matrix. If any point is
// absent it returns an *IncompleteError listing them.
func (s *Scan) DensityMatrices() ([]*density.Matrix, error) {
	if failed := s.Failed(); len(failed) > 0 {
		return nil, &IncompleteError{Indices: failed}
	}
	return slices.Clone(s.results.Rho), nil
}

// PartialDensityMatrices returns every point's density matrix with absent
// points filled by a NaN matrix of the system dimension.
func (s *Scan) PartialDensityMatrices() []*density.Matrix {
	out := make([]*density.Matrix, len(s.results.Rho))
	n := s.system.NumStates()
	for i, rho := range s.results.Rho {
		if rho == nil {
			out[i] = density.NaN(n)
			continue
		}
		out[i] = rho
	}
	return out
}

type coherenceOptions struct {
	cutoff    float64
	hasCutoff bool
}

// CoherenceOption configures WeightedCoherence.
type CoherenceOption func(*coherenceOptions)

// WithDetuningCutoff keeps an off-diagonal element (j0, j1) only at points
// where |delta - omega0| < cutoff, omega0 = E[j1] - E[j0] from the bare
// energies. Diagonal elements are always dropped from a cutoff sum.
func WithDetuningCutoff(cutoff float64) CoherenceOption {
	return func(o *coherenceOptions) {
		o.cutoff = cutoff
		o.hasCutoff = true
	}
}

// WeightedCoherence sums the listed elements at each point.
func (s *Scan) WeightedCoherence(elems []Element, opts ...CoherenceOption) ([]complex128, error) {
	var o coherenceOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.hasCutoff && !(o.cutoff > 0) {
		return nil, fmt.Errorf("sweep: detuning cutoff must be positive, got %v", o.cutoff)
	}
	rhos, err := s.DensityMatrices()
	if err != nil {
		return nil, err
	}
	n := s.system.NumStates()
	for _, e := range elems {
		if e.Row < 0 || e.Row >= n || e.Col < 0 || e.Col >= n {
			return nil, fmt.Errorf("%w: element (%d,%d) of %dx%d", density.ErrOutOfRange, e.Row, e.Col, n, n)
		}
	}
	sums := make([]complex128, len(s.deltas))
	if !o.hasCutoff {
		for i, rho := range rhos {
			for _, e := range elems {
				sums[i] += rho.At(e.Row, e.Col)
			}
		}
		return sums, nil
	}
	energies := s.system.BareEnergies()
	if len(energies) != n {
		return nil, errors.New("sweep: bare energies do not match system dimension")
	}
	for _, e := range elems {
		if e.Diagonal() {
			continue
		}
		omega0 := energies[e.Col] - energies[e.Row]
		for i, delta := range s.deltas {
			if math.Abs(delta-omega0) < o.cutoff {
				sums[i] += rhos[i].At(e.Row, e.Col)
			}
		}
	}
	return sums, nil
}
