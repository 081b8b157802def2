package bloch

import (
	"fmt"

	"blochsweep/pkg/angmom"
	"blochsweep/pkg/atom"
)

// TwoLevel is a ground state 0 and excited state 1 driven on resonance at
// Rabi frequency omega, with excited-state decay gamma. Detuning slot 0
// shifts the excited state.
func TwoLevel(gamma, omega float64) (*Model, error) {
	return New(Params{
		Energies: []float64{0, 0},
		Masks:    [][]float64{{0, 1}},
		Fields:   []Field{{Rabi: omega, Pairs: []Coupling{{A: 0, B: 1, Factor: 1}}}},
		Decays:   []Decay{{From: 1, To: 0, Rate: gamma}},
	})
}

// FromAtomTransition couples every lower sublevel to every upper sublevel by
// one field of polarisation q. States are ordered lower then upper, energies
// are taken relative to the first sublevel of each manifold, and detuning
// slot 0 shifts the upper manifold. Spontaneous decay from each upper
// sublevel is split over the lower ones by squared coupling strength summed
// over polarisations, normalised so that a complete lower J manifold
// receives gamma in total.
func FromAtomTransition(lower, upper []atom.Sublevel, q angmom.Polarization, rabi, gamma float64) (*Model, error) {
	if len(lower) == 0 || len(upper) == 0 {
		return nil, fmt.Errorf("%w: empty manifold", ErrInvalidModel)
	}
	nl := len(lower)
	n := nl + len(upper)
	p := Params{
		Energies: make([]float64, n),
		Masks:    [][]float64{make([]float64, n)},
		Fields:   []Field{{Rabi: rabi}},
	}
	for i, s := range lower {
		p.Energies[i] = s.Energy - lower[0].Energy
	}
	for k, s := range upper {
		p.Energies[nl+k] = s.Energy - upper[0].Energy
		p.Masks[0][nl+k] = 1
	}
	drive := angmom.CouplingMatrix(lower, upper, q)
	for i := range lower {
		for k := range upper {
			if c := drive[i][k]; c != 0 {
				p.Fields[0].Pairs = append(p.Fields[0].Pairs, Coupling{A: i, B: nl + k, Factor: c})
			}
		}
	}
	for k, up := range upper {
		for i, lo := range lower {
			strength := 0.0
			for _, pol := range []angmom.Polarization{angmom.SigmaMinus, angmom.Pi, angmom.SigmaPlus} {
				c := angmom.CouplingCoefficient(angmom.LevelOf(lo), angmom.LevelOf(up), pol)
				strength += c * c
			}
			if strength == 0 {
				continue
			}
			norm := (2*up.J + 1) / (2*lo.J + 1)
			p.Decays = append(p.Decays, Decay{From: nl + k, To: i, Rate: gamma * norm * strength})
		}
	}
	return New(p)
}
