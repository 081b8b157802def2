package angmom_test

import (
	"math"
	"testing"

	"blochsweep/pkg/angmom"
	"github.com/stretchr/testify/require"
)

const tol = 1e-12

func TestWigner3jKnownValues(t *testing.T) {
	require.InDelta(t, -1/math.Sqrt(3), angmom.Wigner3j(1, 1, 0, 0, 0, 0), tol)
	require.InDelta(t, 1/math.Sqrt(6), angmom.Wigner3j(0.5, 0.5, 1, 0.5, -0.5, 0), tol)
	require.InDelta(t, math.Sqrt(2.0/15), angmom.Wigner3j(1, 1, 2, 0, 0, 0), tol)
	require.InDelta(t, 1/math.Sqrt(7), math.Abs(angmom.Wigner3j(3, 1, 2, 3, -1, -2)), tol)
}

func TestWigner3jSelectionRules(t *testing.T) {
	// projections do not sum to zero
	require.Zero(t, angmom.Wigner3j(1, 1, 1, 1, 1, 0))
	// triangle violated
	require.Zero(t, angmom.Wigner3j(1, 1, 3, 0, 0, 0))
	// |m| > j
	require.Zero(t, angmom.Wigner3j(1, 1, 2, 2, -2, 0))
	// j and m of different parity
	require.Zero(t, angmom.Wigner3j(1, 1, 1, 0.5, -0.5, 0))
	// not a half-integer
	require.Zero(t, angmom.Wigner3j(0.3, 1, 1, 0, 0, 0))
}

// TestWigner3jOrthogonality checks sum over m1,m2 of (j1 j2 j3; m1 m2 m3)^2
// equals 1/(2j3+1).
func TestWigner3jOrthogonality(t *testing.T) {
	j1, j2, j3, m3 := 1.5, 1.0, 1.5, 0.5
	sum := 0.0
	for m1 := -j1; m1 <= j1; m1++ {
		for m2 := -j2; m2 <= j2; m2++ {
			w := angmom.Wigner3j(j1, j2, j3, m1, m2, -m3)
			sum += w * w
		}
	}
	require.InDelta(t, 1/(2*j3+1), sum, 1e-12)
}

func TestWigner6jKnownValues(t *testing.T) {
	require.InDelta(t, 1.0/6, angmom.Wigner6j(1, 1, 1, 1, 1, 1), tol)
	require.InDelta(t, 0.5, angmom.Wigner6j(0.5, 0.5, 1, 0.5, 0.5, 0), tol)
	// {a b c; b a 0} = (-1)^(a+b+c) / sqrt((2a+1)(2b+1))
	require.InDelta(t, -1/math.Sqrt(8), angmom.Wigner6j(1.5, 0.5, 1, 0.5, 1.5, 0), tol)
	// Rb87 D2 F=2 -> F'=3: (2F'+1)(2J+1){J J' 1; F' F I}^2 = 7/10
	w := angmom.Wigner6j(0.5, 1.5, 1, 3, 2, 1.5)
	require.InDelta(t, 0.7, 7*2*w*w, tol)
}

func TestWigner6jTriangleViolation(t *testing.T) {
	require.Zero(t, angmom.Wigner6j(1, 1, 3, 1, 1, 1))
	require.Zero(t, angmom.Wigner6j(0.5, 0.5, 0.5, 1, 1, 1))
	require.Zero(t, angmom.Wigner6j(-1, 1, 1, 1, 1, 1))
}
