package config

import (
	"errors"

	"blochsweep/pkg/atom"
)

// AtomConfig describes an atom and its shells. Energy lists follow the
// quantum-number ranges: one J energy per J = |L-S|..L+S, one F list per J
// with one energy per F = |J-I|..J+I, and optionally one mF list per F.
type AtomConfig struct {
	Element string        `toml:"element" yaml:"element"`
	Isotope int           `toml:"isotope" yaml:"isotope"`
	S       float64       `toml:"s" yaml:"s"`
	I       float64       `toml:"i" yaml:"i"`
	Shells  []ShellConfig `toml:"shells" yaml:"shells"`
}

// ShellConfig is one (n, L) shell.
type ShellConfig struct {
	N          int           `toml:"n" yaml:"n"`
	L          int           `toml:"l" yaml:"l"`
	Energy     float64       `toml:"energy" yaml:"energy"`
	JEnergies  []float64     `toml:"j_energies" yaml:"j_energies"`
	FEnergies  [][]float64   `toml:"f_energies" yaml:"f_energies"`
	MFEnergies [][][]float64 `toml:"mf_energies" yaml:"mf_energies"`
}

// DefaultAtom is rubidium-87 with its 5S and 5P shells. Energies are in MHz:
// fine-structure levels at the D1 and D2 line frequencies and hyperfine
// levels at their absolute positions.
func DefaultAtom() AtomConfig {
	const d1, d2 = 377107463.5, 384230484.5
	return AtomConfig{
		Element: "Rb",
		Isotope: 87,
		S:       0.5,
		I:       1.5,
		Shells: []ShellConfig{
			{
				N: 5, L: 0,
				JEnergies: []float64{0},
				FEnergies: [][]float64{{-4271.677, 2563.006}},
			},
			{
				N: 5, L: 1, Energy: d1,
				JEnergies: []float64{d1, d2},
				FEnergies: [][]float64{
					{d1 - 509.06, d1 + 305.44},
					{d2 - 302.07, d2 - 229.85, d2 - 72.91, d2 + 193.74},
				},
			},
		},
	}
}

// Build expands the configured atom down to its Zeeman sublevels.
func (a AtomConfig) Build() (*atom.Atom, error) {
	if len(a.Shells) == 0 {
		return nil, errors.New("no shells configured")
	}
	at, err := atom.NewAtom(a.Element, a.Isotope, a.S, a.I)
	if err != nil {
		return nil, err
	}
	for _, sh := range a.Shells {
		if _, err := at.BuildShell(sh.N, sh.L, sh.Energy, sh.JEnergies, sh.FEnergies, sh.MFEnergies); err != nil {
			return nil, err
		}
	}
	return at, nil
}
