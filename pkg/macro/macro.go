// Package macro converts microscopic coherences into macroscopic optical
// response: susceptibility, absorption, transmission and refractive index.
package macro

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConstants is returned for non-positive or non-finite constants.
var ErrInvalidConstants = errors.New("macro: invalid physical constants")

// Constants holds the SI values the calculator depends on. It is passed and
// stored by value so a Calculator never observes later edits.
type Constants struct {
	BohrRadius         float64 // m
	ElementaryCharge   float64 // C
	VacuumPermittivity float64 // F/m
	BoltzmannConstant  float64 // J/K
	SpeedOfLight       float64 // m/s
}

// CODATA2018 returns the 2018 CODATA recommended values.
func CODATA2018() Constants {
	return Constants{
		BohrRadius:         5.29177210903e-11,
		ElementaryCharge:   1.602176634e-19,
		VacuumPermittivity: 8.8541878128e-12,
		BoltzmannConstant:  1.380649e-23,
		SpeedOfLight:       299792458,
	}
}

// Validate reports whether every constant is finite and positive.
func (c Constants) Validate() error {
	for name, v := range map[string]float64{
		"bohr radius":         c.BohrRadius,
		"elementary charge":   c.ElementaryCharge,
		"vacuum permittivity": c.VacuumPermittivity,
		"boltzmann constant":  c.BoltzmannConstant,
		"speed of light":      c.SpeedOfLight,
	} {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s = %v", ErrInvalidConstants, name, v)
		}
	}
	return nil
}

// Calculator evaluates macroscopic quantities for a fixed set of constants.
type Calculator struct {
	c Constants
}

// NewCalculator validates c and returns a calculator bound to a copy of it.
func NewCalculator(c Constants) (*Calculator, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{c: c}, nil
}

// Constants returns the calculator's constants.
func (k *Calculator) Constants() Constants { return k.c }

// DipoleSI converts a transition dipole matrix element in units of e·a0 to C·m.
func (k *Calculator) DipoleSI(tdme float64) float64 {
	return tdme * k.c.ElementaryCharge * k.c.BohrRadius
}

// Susceptibility is the electric susceptibility 2 N d / (ε0 E) · coh for
// a transition of dipole tdme [e a0], field amplitude field [V/m], number
// density [m^-3] and coherence coh.
func (k *Calculator) Susceptibility(tdme, field, density float64, coh complex128) complex128 {
	scale := 2 * density * k.DipoleSI(tdme) / k.c.VacuumPermittivity / field
	return complex(scale, 0) * coh
}

// SusceptibilitySweep applies Susceptibility to each coherence.
func (k *Calculator) SusceptibilitySweep(tdme, field, density float64, coherences []complex128) []complex128 {
	out := make([]complex128, len(coherences))
	for i, coh := range coherences {
		out[i] = k.Susceptibility(tdme, field, density, coh)
	}
	return out
}

// AbsorptionCoefficient is k·Im(χ) in m^-1 for a vacuum wavelength in m.
func (k *Calculator) AbsorptionCoefficient(chi complex128, wavelength float64) float64 {
	return 2 * math.Pi / wavelength * imag(chi)
}

// Transmission is the Beer-Lambert fraction exp(-αL).
func (k *Calculator) Transmission(alpha, length float64) float64 {
	return math.Exp(-alpha * length)
}

// RefractiveIndex is the dilute-medium approximation 1 + Re(χ)/2.
func (k *Calculator) RefractiveIndex(chi complex128) float64 {
	return 1 + real(chi)/2
}

// NumberDensity is the ideal-gas density P/(kB T) in m^-3.
func (k *Calculator) NumberDensity(pressure, temperature float64) float64 {
	return pressure / (k.c.BoltzmannConstant * temperature)
}

// Frequency converts a vacuum wavelength in m to Hz.
func (k *Calculator) Frequency(wavelength float64) float64 {
	return k.c.SpeedOfLight / wavelength
}
