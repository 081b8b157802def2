package angmom

import (
	"math"

	"blochsweep/pkg/atom"
)

// Polarization is the spherical component q of the photon polarisation.
type Polarization int

const (
	SigmaMinus Polarization = -1
	Pi         Polarization = 0
	SigmaPlus  Polarization = 1
)

// Level holds the quantum numbers of a hyperfine Zeeman sublevel that enter a
// dipole matrix element.
type Level struct {
	J  float64
	I  float64
	F  float64
	MF float64
}

// LevelOf extracts the coupling-relevant quantum numbers of a sublevel.
func LevelOf(s atom.Sublevel) Level { return Level{J: s.J, I: s.I, F: s.F, MF: s.MF} }

// CouplingCoefficient returns the hyperfine dipole matrix element between
// sublevel a (lower) and sublevel b (upper) for polarisation q, in units of
// the reduced element <J_a||er||J_b>:
//
//	(-1)^(Fb+Ja+1+Ia) sqrt((2Fb+1)(2Ja+1)) {Ja Jb 1; Fb Fa Ia}
//	  × (-1)^(Fb-1+mFa) sqrt(2Fa+1) (Fb 1 Fa; mFb -q -mFa)
//
// q is the photon angular momentum absorbed on the way up, so the 3-j symbol
// vanishes unless mFa + q = mFb and |Fa-Fb| <= 1. The 6-j symbol vanishes
// unless the J and F triangles close.
func CouplingCoefficient(a, b Level, q Polarization) float64 {
	sixJ := Wigner6j(a.J, b.J, 1, b.F, a.F, a.I)
	if sixJ == 0 {
		return 0
	}
	threeJ := Wigner3j(b.F, 1, a.F, b.MF, -float64(q), -a.MF)
	if threeJ == 0 {
		return 0
	}
	phaseF, ok := halfPhase(b.F + a.J + 1 + a.I)
	if !ok {
		return 0
	}
	phaseHF, ok := halfPhase(b.F - 1 + a.MF)
	if !ok {
		return 0
	}
	coeffF := phaseF * math.Sqrt((2*b.F+1)*(2*a.J+1)) * sixJ
	coeffHF := phaseHF * math.Sqrt(2*a.F+1) * threeJ
	return coeffHF * coeffF
}

// CouplingMatrix tabulates CouplingCoefficient between every lower and upper
// sublevel: out[i][k] couples lower[i] to upper[k].
func CouplingMatrix(lower, upper []atom.Sublevel, q Polarization) [][]float64 {
	out := make([][]float64, len(lower))
	for i, lo := range lower {
		row := make([]float64, len(upper))
		for k, up := range upper {
			row[k] = CouplingCoefficient(LevelOf(lo), LevelOf(up), q)
		}
		out[i] = row
	}
	return out
}

// halfPhase returns (-1)^x for whole x. A half-odd exponent has no real
// phase; the symbols it multiplies are zero in that case anyway.
func halfPhase(x float64) (float64, bool) {
	d, ok := doubledSigned(x)
	if !ok || d%2 != 0 {
		return 0, false
	}
	return parity(d / 2), true
}
