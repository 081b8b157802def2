package angmom_test

import (
	"testing"

	"blochsweep/pkg/angmom"
	"blochsweep/pkg/atom"
	"github.com/stretchr/testify/require"
)

var polarizations = []angmom.Polarization{angmom.SigmaMinus, angmom.Pi, angmom.SigmaPlus}

// TestCyclingTransition checks the stretched 87Rb D2 transition
// |F=2,mF=2> -> |F'=3,mF'=3>, whose squared strength is 1/2.
func TestCyclingTransition(t *testing.T) {
	lower := angmom.Level{J: 0.5, I: 1.5, F: 2, MF: 2}
	upper := angmom.Level{J: 1.5, I: 1.5, F: 3, MF: 3}
	c := angmom.CouplingCoefficient(lower, upper, angmom.SigmaPlus)
	require.InDelta(t, 0.5, c*c, tol)
	require.Zero(t, angmom.CouplingCoefficient(lower, upper, angmom.SigmaMinus))
}

// TestSumRule checks that the squared strengths out of one ground sublevel
// summed over every excited sublevel and polarisation equal one.
func TestSumRule(t *testing.T) {
	for _, mF := range []float64{-2, -1, 0, 1, 2} {
		lower := angmom.Level{J: 0.5, I: 1.5, F: 2, MF: mF}
		sum := 0.0
		for _, fe := range []float64{0, 1, 2, 3} {
			ms, err := atom.MagneticRange(fe)
			require.NoError(t, err)
			for _, me := range ms {
				for _, q := range polarizations {
					c := angmom.CouplingCoefficient(lower, angmom.Level{J: 1.5, I: 1.5, F: fe, MF: me}, q)
					sum += c * c
				}
			}
		}
		require.InDelta(t, 1.0, sum, 1e-10, "mF=%v", mF)
	}
}

// TestProjectionSelectionRule checks that sigma+ raises mF by one going from
// the lower to the upper level and sigma- lowers it.
func TestProjectionSelectionRule(t *testing.T) {
	for _, mFa := range []float64{-2, -1, 0, 1, 2} {
		for _, mFb := range []float64{-3, -2, -1, 0, 1, 2, 3} {
			for _, q := range polarizations {
				c := angmom.CouplingCoefficient(
					angmom.Level{J: 0.5, I: 1.5, F: 2, MF: mFa},
					angmom.Level{J: 1.5, I: 1.5, F: 3, MF: mFb},
					q,
				)
				if mFa+float64(q) != mFb {
					require.Zero(t, c, "mFa=%v mFb=%v q=%d", mFa, mFb, q)
				} else {
					require.NotZero(t, c, "mFa=%v mFb=%v q=%d", mFa, mFb, q)
				}
			}
		}
	}
}

func TestSigmaPlusWithinSameF(t *testing.T) {
	lower := angmom.Level{J: 0.5, I: 1.5, F: 2, MF: 1}
	require.Zero(t, angmom.CouplingCoefficient(lower, angmom.Level{J: 1.5, I: 1.5, F: 2, MF: 0}, angmom.SigmaPlus))
	require.NotZero(t, angmom.CouplingCoefficient(lower, angmom.Level{J: 1.5, I: 1.5, F: 2, MF: 2}, angmom.SigmaPlus))

	lower.MF = 0
	require.NotZero(t, angmom.CouplingCoefficient(lower, angmom.Level{J: 1.5, I: 1.5, F: 2, MF: 1}, angmom.SigmaPlus))
}

func TestHyperfineSelectionRule(t *testing.T) {
	// |Fa - Fb| = 2 is dipole forbidden for every projection.
	for _, q := range polarizations {
		for _, mFa := range []float64{-2, -1, 0, 1, 2} {
			c := angmom.CouplingCoefficient(
				angmom.Level{J: 0.5, I: 1.5, F: 2, MF: mFa},
				angmom.Level{J: 1.5, I: 1.5, F: 0, MF: 0},
				q,
			)
			require.Zero(t, c)
		}
	}
}

func TestCouplingMatrixFromAtom(t *testing.T) {
	a, err := atom.NewAtom("Rb", 87, 0.5, 1.5)
	require.NoError(t, err)
	_, err = a.BuildShell(5, 0, 0, []float64{0}, [][]float64{{-4.27, 2.56}}, nil)
	require.NoError(t, err)
	_, err = a.BuildShell(5, 1, 384e3, []float64{377e3, 384e3}, [][]float64{{377e3 - 0.5, 377e3 + 0.3}, {384e3 - 0.3, 384e3 - 0.2, 384e3, 384e3 + 0.2}}, nil)
	require.NoError(t, err)

	var ground, excited []atom.Sublevel
	for sl := range a.Sublevels() {
		if sl.L == 0 {
			ground = append(ground, sl)
		} else if sl.J == 0.5 {
			excited = append(excited, sl)
		}
	}
	require.Len(t, ground, 8)
	require.Len(t, excited, 8)

	m := angmom.CouplingMatrix(ground, excited, angmom.Pi)
	require.Len(t, m, 8)
	for i, row := range m {
		require.Len(t, row, 8)
		for k, c := range row {
			if ground[i].MF != excited[k].MF {
				require.Zero(t, c)
			}
		}
	}
	// D1 line has no pi coupling between F=2,mF=0 and F'=2,mF'=0.
	require.Zero(t, m[5][5])
}
