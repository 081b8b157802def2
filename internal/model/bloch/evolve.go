package bloch

import (
	"context"
	"fmt"
	"math"

	"blochsweep/pkg/density"
	"blochsweep/pkg/optical"
)

// Evolve integrates the master equation with fixed-step RK4, sampling the
// state at every entry of times. rho0 nil starts in state 0.
func (m *Model) Evolve(ctx context.Context, times []float64, rho0 *density.Matrix, drive optical.Drive) (*optical.Trajectory, error) {
	if len(times) == 0 {
		return nil, fmt.Errorf("%w: no sample times", ErrInvalidModel)
	}
	for k := 1; k < len(times); k++ {
		if !(times[k] >= times[k-1]) {
			return nil, fmt.Errorf("%w: sample times must be non-decreasing at %d", ErrInvalidModel, k)
		}
	}
	if rho0 == nil {
		rho0 = density.Projector(m.n, 0, 0)
	}
	if rho0.N() != m.n {
		return nil, fmt.Errorf("%w: initial state is %dx%d, model has %d states", ErrInvalidModel, rho0.N(), rho0.N(), m.n)
	}
	if err := drive.Validate(); err != nil {
		return nil, err
	}

	rhs := func(t float64, rho *density.Matrix) *density.Matrix {
		h := m.hamiltonian(func(f int) float64 { return drive.Scale(f, t) })
		return m.derivative(h, rho)
	}

	traj := &optical.Trajectory{
		Times:  append([]float64(nil), times...),
		States: make([]*density.Matrix, 0, len(times)),
	}
	rho := rho0.Clone()
	traj.States = append(traj.States, rho.Clone())
	for k := 1; k < len(times); k++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t0, span := times[k-1], times[k]-times[k-1]
		steps := int(math.Ceil(span / m.p.MaxStep))
		if steps > 0 {
			dt := span / float64(steps)
			for s := 0; s < steps; s++ {
				rho = rk4(rhs, t0+float64(s)*dt, dt, rho)
			}
		}
		if !rho.IsFinite() {
			return nil, fmt.Errorf("%w: state diverged at t=%v", optical.ErrSolveFailure, times[k])
		}
		traj.States = append(traj.States, rho.Clone())
	}
	m.rho = rho
	return traj, nil
}

func rk4(f func(float64, *density.Matrix) *density.Matrix, t, dt float64, y *density.Matrix) *density.Matrix {
	h := complex(dt, 0)
	k1 := f(t, y)
	k2 := f(t+dt/2, y.Clone().AddScaledInPlace(h/2, k1))
	k3 := f(t+dt/2, y.Clone().AddScaledInPlace(h/2, k2))
	k4 := f(t+dt, y.Clone().AddScaledInPlace(h, k3))
	out := y.Clone()
	out.AddScaledInPlace(h/6, k1)
	out.AddScaledInPlace(h/3, k2)
	out.AddScaledInPlace(h/3, k3)
	out.AddScaledInPlace(h/6, k4)
	return out
}
