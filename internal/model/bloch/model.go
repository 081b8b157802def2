// Package bloch is a reference N-level Lindblad master-equation solver that
// implements optical.System.
//
// The Hamiltonian in the rotating frame is
//
//	H(t) = diag(E) - Σ_s δ_s diag(mask_s) + Σ_f Ω_f c_f(t)/2 Σ_p g_p (|a_p><b_p| + h.c.)
//
// and each decay channel contributes a collapse operator √γ |to><from|.
package bloch

import (
	"errors"
	"fmt"
	"math"

	"blochsweep/pkg/density"
	"blochsweep/pkg/optical"
)

// DefaultMaxStep bounds the RK4 step when Params.MaxStep is zero.
const DefaultMaxStep = 1e-3

// ErrInvalidModel is returned by New for inconsistent parameters.
var ErrInvalidModel = errors.New("bloch: invalid model")

// Coupling is one dipole-coupled pair of states within a field.
type Coupling struct {
	A      int     `json:"a" toml:"a" yaml:"a"`
	B      int     `json:"b" toml:"b" yaml:"b"`
	Factor float64 `json:"factor" toml:"factor" yaml:"factor"`
}

// Field is a coherent drive with Rabi frequency Rabi acting on Pairs.
type Field struct {
	Rabi  float64    `json:"rabi" toml:"rabi" yaml:"rabi"`
	Pairs []Coupling `json:"pairs" toml:"pairs" yaml:"pairs"`
}

// Decay is an incoherent transfer From -> To at Rate.
type Decay struct {
	From int     `json:"from" toml:"from" yaml:"from"`
	To   int     `json:"to" toml:"to" yaml:"to"`
	Rate float64 `json:"rate" toml:"rate" yaml:"rate"`
}

// Params describes a model. Masks has one row per detuning slot, each of
// length len(Energies).
type Params struct {
	Energies  []float64   `json:"energies" toml:"energies" yaml:"energies"`
	Masks     [][]float64 `json:"masks" toml:"masks" yaml:"masks"`
	Detunings []float64   `json:"detunings" toml:"detunings" yaml:"detunings"`
	Fields    []Field     `json:"fields" toml:"fields" yaml:"fields"`
	Decays    []Decay     `json:"decays" toml:"decays" yaml:"decays"`
	MaxStep   float64     `json:"max_step" toml:"max_step" yaml:"max_step"`
}

// Validate checks indices and dimensions.
func (p Params) Validate() error {
	n := len(p.Energies)
	if n == 0 {
		return fmt.Errorf("%w: no states", ErrInvalidModel)
	}
	if len(p.Detunings) != 0 && len(p.Detunings) != len(p.Masks) {
		return fmt.Errorf("%w: %d detunings for %d masks", ErrInvalidModel, len(p.Detunings), len(p.Masks))
	}
	for s, mask := range p.Masks {
		if len(mask) != n {
			return fmt.Errorf("%w: mask %d has %d entries, want %d", ErrInvalidModel, s, len(mask), n)
		}
	}
	state := func(i int) bool { return i >= 0 && i < n }
	for f, field := range p.Fields {
		for _, c := range field.Pairs {
			if !state(c.A) || !state(c.B) || c.A == c.B {
				return fmt.Errorf("%w: field %d couples %d and %d", ErrInvalidModel, f, c.A, c.B)
			}
		}
	}
	for _, d := range p.Decays {
		if !state(d.From) || !state(d.To) || d.From == d.To {
			return fmt.Errorf("%w: decay %d -> %d", ErrInvalidModel, d.From, d.To)
		}
		if d.Rate < 0 || math.IsNaN(d.Rate) || math.IsInf(d.Rate, 0) {
			return fmt.Errorf("%w: decay rate %v", ErrInvalidModel, d.Rate)
		}
	}
	if p.MaxStep < 0 {
		return fmt.Errorf("%w: max step %v", ErrInvalidModel, p.MaxStep)
	}
	return nil
}

// Model is a mutable solver instance. It is not safe for concurrent use;
// call Clone for each goroutine.
type Model struct {
	p        Params
	n        int
	deltas   []float64
	collapse []*density.Matrix
	// lindbladDrain is Σ L†L, shared by the commutator-free part of the
	// dissipator.
	lindbladDrain *density.Matrix
	rho           *density.Matrix
}

var (
	_ optical.System = (*Model)(nil)
	_ optical.Cloner = (*Model)(nil)
)

// New validates p and builds a model.
func New(p Params) (*Model, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.MaxStep == 0 {
		p.MaxStep = DefaultMaxStep
	}
	m := &Model{p: p, n: len(p.Energies), deltas: make([]float64, len(p.Masks))}
	copy(m.deltas, p.Detunings)
	m.lindbladDrain = density.Zeros(m.n)
	for _, d := range p.Decays {
		if d.Rate == 0 {
			continue
		}
		l := density.Projector(m.n, d.To, d.From).Scale(complex(math.Sqrt(d.Rate), 0))
		m.collapse = append(m.collapse, l)
		m.lindbladDrain.AddScaledInPlace(1, l.Dagger().Mul(l))
	}
	return m, nil
}

// NumStates implements optical.System.
func (m *Model) NumStates() int { return m.n }

// SetDetunings implements optical.System.
func (m *Model) SetDetunings(deltas []float64) error {
	if len(deltas) != len(m.deltas) {
		return fmt.Errorf("%w: %d detunings for %d slots", ErrInvalidModel, len(deltas), len(m.deltas))
	}
	copy(m.deltas, deltas)
	return nil
}

// Detunings returns a copy of the current detunings.
func (m *Model) Detunings() []float64 { return append([]float64(nil), m.deltas...) }

// BareEnergies implements optical.System.
func (m *Model) BareEnergies() []float64 { return append([]float64(nil), m.p.Energies...) }

// Rho implements optical.System.
func (m *Model) Rho() *density.Matrix {
	if m.rho == nil {
		return nil
	}
	return m.rho.Clone()
}

// Params returns the parameters the model was built from.
func (m *Model) Params() Params { return m.p }

// Clone implements optical.Cloner.
func (m *Model) Clone() optical.System {
	c := *m
	c.deltas = append([]float64(nil), m.deltas...)
	if m.rho != nil {
		c.rho = m.rho.Clone()
	}
	return &c
}

// hamiltonian builds H at time t with field scales from scale.
func (m *Model) hamiltonian(scale func(field int) float64) *density.Matrix {
	h := density.Diagonal(m.p.Energies)
	for s, mask := range m.p.Masks {
		for i, w := range mask {
			if w != 0 {
				h.Set(i, i, h.At(i, i)-complex(m.deltas[s]*w, 0))
			}
		}
	}
	for f, field := range m.p.Fields {
		amp := field.Rabi * scale(f) / 2
		if amp == 0 {
			continue
		}
		for _, c := range field.Pairs {
			v := complex(amp*c.Factor, 0)
			h.Set(c.A, c.B, h.At(c.A, c.B)+v)
			h.Set(c.B, c.A, h.At(c.B, c.A)+v)
		}
	}
	return h
}

// derivative is the Lindblad right-hand side -i[H,ρ] + Σ LρL† - ½{L†L, ρ}.
func (m *Model) derivative(h, rho *density.Matrix) *density.Matrix {
	out := density.Commutator(h, rho).Scale(-1i)
	for _, l := range m.collapse {
		out.AddScaledInPlace(1, l.Mul(rho).Mul(l.Dagger()))
	}
	out.AddScaledInPlace(-0.5, density.Anticommutator(m.lindbladDrain, rho))
	return out
}

func unitScale(int) float64 { return 1 }
