// Package optical defines the contract between sweep orchestration and an
// optical Bloch solver.
//
// A System owns a Hamiltonian with per-field detuning slots, a set of decay
// channels and the last density matrix it computed. Sweeps mutate detunings
// through SetDetunings and then ask for a steady state or a time evolution.
// Implementations must honour context cancellation in SteadyState and Evolve.
package optical

import (
	"context"
	"errors"
	"fmt"

	"blochsweep/pkg/density"
	"blochsweep/pkg/tfunc"
)

// ErrSolveFailure reports a solver that could not produce a usable state.
var ErrSolveFailure = errors.New("optical: solver failed to converge")

// System is a driven, damped multi-level quantum system.
type System interface {
	// NumStates is the Hilbert space dimension.
	NumStates() int
	// SetDetunings replaces every field detuning.
	SetDetunings(deltas []float64) error
	// SteadyState solves for the stationary density matrix at the current
	// detunings.
	SteadyState(ctx context.Context) (*density.Matrix, error)
	// Evolve integrates the master equation from rho0 over times, scaling
	// each field in drive by its coefficient. Fields not in drive are held
	// constant.
	Evolve(ctx context.Context, times []float64, rho0 *density.Matrix, drive Drive) (*Trajectory, error)
	// BareEnergies are the diagonal energies of the undriven Hamiltonian.
	BareEnergies() []float64
	// Rho is the most recent computed state, nil before any solve.
	Rho() *density.Matrix
}

// Cloner is implemented by systems that can hand out independent copies for
// concurrent solves.
type Cloner interface {
	Clone() System
}

// Drive maps a field index to its time-dependent coefficient.
type Drive map[int]tfunc.Coefficient

// Validate checks every coefficient.
func (d Drive) Validate() error {
	for field, c := range d {
		if field < 0 {
			return fmt.Errorf("%w: negative field index %d", tfunc.ErrInvalidParameter, field)
		}
		if c == nil {
			return fmt.Errorf("%w: field %d has no coefficient", tfunc.ErrInvalidParameter, field)
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("field %d: %w", field, err)
		}
	}
	return nil
}

// Scale returns the coefficient of field at t, 1 for undriven fields.
func (d Drive) Scale(field int, t float64) float64 {
	if c, ok := d[field]; ok {
		return c.At(t)
	}
	return 1
}

// Trajectory is the state of a system sampled at Times.
type Trajectory struct {
	Times  []float64         `json:"times"`
	States []*density.Matrix `json:"states"`
}

// Final returns the last sampled state, or nil for an empty trajectory.
func (t *Trajectory) Final() *density.Matrix {
	if t == nil || len(t.States) == 0 {
		return nil
	}
	return t.States[len(t.States)-1]
}

// Populations returns the diagonal of every state, real parts only.
func (t *Trajectory) Populations() [][]float64 {
	out := make([][]float64, len(t.States))
	for k, s := range t.States {
		d := s.Diag()
		row := make([]float64, len(d))
		for i, v := range d {
			row[i] = real(v)
		}
		out[k] = row
	}
	return out
}
