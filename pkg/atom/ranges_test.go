package atom_test

import (
	"math"
	"testing"

	"blochsweep/pkg/atom"
	"github.com/stretchr/testify/require"
)

// TestRangeProperties checks size, order, step and lower bound of the coupling
// range over a grid of integer and half-integer inputs.
func TestRangeProperties(t *testing.T) {
	for a2 := 0; a2 <= 8; a2++ {
		for b2 := 0; b2 <= 8; b2++ {
			a, b := float64(a2)/2, float64(b2)/2
			r, err := atom.Range(a, b)
			require.NoError(t, err)

			require.Len(t, r, int(math.Round(2*math.Min(a, b)))+1, "a=%v b=%v", a, b)
			require.InDelta(t, math.Abs(a-b), r[0], 1e-12)
			require.InDelta(t, a+b, r[len(r)-1], 1e-12)
			for k := 1; k < len(r); k++ {
				require.InDelta(t, 1.0, r[k]-r[k-1], 1e-12)
			}
		}
	}
}

func TestRangeExamples(t *testing.T) {
	r, err := atom.Range(0, 0.5) // L=0, S=1/2
	require.NoError(t, err)
	require.Equal(t, []float64{0.5}, r)

	r, err = atom.Range(1, 0.5) // L=1, S=1/2
	require.NoError(t, err)
	require.Equal(t, []float64{0.5, 1.5}, r)

	r, err = atom.Range(1.5, 1.5) // J=3/2, I=3/2
	require.NoError(t, err)
	require.Equal(t, []float64{0, 1, 2, 3}, r)
}

func TestMagneticRange(t *testing.T) {
	r, err := atom.MagneticRange(2)
	require.NoError(t, err)
	require.Equal(t, []float64{-2, -1, 0, 1, 2}, r)

	r, err = atom.MagneticRange(1.5)
	require.NoError(t, err)
	require.Equal(t, []float64{-1.5, -0.5, 0.5, 1.5}, r)

	r, err = atom.MagneticRange(0)
	require.NoError(t, err)
	require.Equal(t, []float64{0}, r)
}

func TestRangeRejectsInvalidInputs(t *testing.T) {
	_, err := atom.Range(0.3, 1)
	require.ErrorIs(t, err, atom.ErrInvalidQuantumNumber)

	_, err = atom.Range(1, -0.5)
	require.ErrorIs(t, err, atom.ErrInvalidQuantumNumber)

	_, err = atom.MagneticRange(math.NaN())
	require.ErrorIs(t, err, atom.ErrInvalidQuantumNumber)

	_, err = atom.MagneticRange(-1)
	require.ErrorIs(t, err, atom.ErrInvalidQuantumNumber)
}

func TestDoubled(t *testing.T) {
	d, ok := atom.Doubled(1.5)
	require.True(t, ok)
	require.Equal(t, 3, d)

	_, ok = atom.Doubled(0.25)
	require.False(t, ok)

	_, ok = atom.Doubled(math.Inf(1))
	require.False(t, ok)
}
