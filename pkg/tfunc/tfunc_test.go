package tfunc_test

import (
	"math"
	"testing"

	"blochsweep/pkg/tfunc"
	"github.com/stretchr/testify/require"
)

func TestSquareIsClosedInterval(t *testing.T) {
	s := tfunc.Square{On: 0, Off: 0.5, Amplitude: 2}
	require.NoError(t, s.Validate())
	require.Equal(t, 0.0, s.At(-0.1))
	require.Equal(t, 2.0, s.At(0))
	require.Equal(t, 2.0, s.At(0.5))
	require.Equal(t, 0.0, s.At(0.51))
}

func TestGaussianIntensityHalvesAtHalfWidth(t *testing.T) {
	g := tfunc.Gaussian{Amplitude: 3, Width: 2, Centre: 1}
	require.NoError(t, g.Validate())
	require.InDelta(t, 3.0, g.At(1), 1e-15)
	for _, tm := range []float64{0, 2} {
		v := g.At(tm) / 3
		require.InDelta(t, 0.5, v*v, 1e-12)
	}
}

func TestRamps(t *testing.T) {
	on := tfunc.RampOn{Amplitude: 1, Width: 1, Centre: 5}
	require.InDelta(t, (1 / math.Sqrt2), on.At(4.5), 1e-12)
	require.Equal(t, 1.0, on.At(6))

	off := tfunc.RampOff{Amplitude: 1, Width: 1, Centre: 5}
	require.Equal(t, 1.0, off.At(4))
	require.InDelta(t, (1 / math.Sqrt2), off.At(5.5), 1e-12)

	onoff := tfunc.RampOnOff{Amplitude: 2, Width: 1, On: 2, Off: 8}
	require.NoError(t, onoff.Validate())
	require.InDelta(t, 2.0, onoff.At(5), 1e-12)
	require.InDelta(t, math.Sqrt2, onoff.At(1.5), 1e-12)
	require.InDelta(t, math.Sqrt2, onoff.At(8.5), 1e-12)
	require.Less(t, onoff.At(20), 1e-12)
}

// TestCoefficientsArePure evaluates out of order and repeatedly.
func TestCoefficientsArePure(t *testing.T) {
	cs := []tfunc.Coefficient{
		tfunc.Constant(1.5),
		tfunc.Square{On: 1, Off: 2, Amplitude: 1},
		tfunc.Gaussian{Amplitude: 1, Width: 0.3, Centre: 1},
		tfunc.RampOnOff{Amplitude: 1, Width: 0.2, On: 0.5, Off: 1.5},
		tfunc.Product{tfunc.Constant(2), tfunc.Gaussian{Amplitude: 1, Width: 1, Centre: 0}},
	}
	times := []float64{1.7, 0.2, 1.7, 3, 0.2, 1.1}
	for _, c := range cs {
		first := make([]float64, len(times))
		for i, tm := range times {
			first[i] = c.At(tm)
		}
		for i := len(times) - 1; i >= 0; i-- {
			require.Equal(t, first[i], c.At(times[i]))
		}
	}
}

func TestCombinations(t *testing.T) {
	p := tfunc.Product{tfunc.Constant(2), tfunc.Square{On: 0, Off: 1, Amplitude: 3}}
	require.NoError(t, p.Validate())
	require.Equal(t, 6.0, p.At(0.5))

	s := tfunc.Sum{tfunc.Constant(1), tfunc.Constant(2)}
	require.Equal(t, 3.0, s.At(0))

	require.ErrorIs(t, tfunc.Sum{}.Validate(), tfunc.ErrInvalidParameter)
	require.ErrorIs(t, tfunc.Product{nil}.Validate(), tfunc.ErrInvalidParameter)
}

func TestValidateRejectsBadParameters(t *testing.T) {
	bad := []tfunc.Coefficient{
		tfunc.Constant(math.NaN()),
		tfunc.Square{On: 1, Off: 0, Amplitude: 1},
		tfunc.Gaussian{Amplitude: 1, Width: 0, Centre: 0},
		tfunc.RampOn{Amplitude: 1, Width: -1, Centre: 0},
		tfunc.RampOff{Amplitude: math.Inf(1), Width: 1, Centre: 0},
		tfunc.RampOnOff{Amplitude: 1, Width: 1, On: 2, Off: 1},
		tfunc.Sum{tfunc.Square{On: 1, Off: 0}},
	}
	for _, c := range bad {
		require.ErrorIs(t, c.Validate(), tfunc.ErrInvalidParameter, "%#v", c)
	}
}
