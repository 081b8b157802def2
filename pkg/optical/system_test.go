package optical_test

import (
	"math"
	"testing"

	"blochsweep/pkg/density"
	"blochsweep/pkg/optical"
	"blochsweep/pkg/tfunc"
	"github.com/stretchr/testify/require"
)

func TestTrajectoryFinal(t *testing.T) {
	var empty *optical.Trajectory
	require.Nil(t, empty.Final())
	require.Nil(t, (&optical.Trajectory{}).Final())

	last := density.Diagonal([]float64{0.25, 0.75})
	traj := &optical.Trajectory{
		Times:  []float64{0, 1},
		States: []*density.Matrix{density.Diagonal([]float64{1, 0}), last},
	}
	require.Same(t, last, traj.Final())
	require.Equal(t, [][]float64{{1, 0}, {0.25, 0.75}}, traj.Populations())
}

func TestDriveScaleDefaultsToOne(t *testing.T) {
	d := optical.Drive{1: tfunc.Square{On: 0, Off: 1, Amplitude: 2}}
	require.Equal(t, 1.0, d.Scale(0, 5))
	require.Equal(t, 2.0, d.Scale(1, 0.5))
	require.Equal(t, 0.0, d.Scale(1, 5))
}

func TestDriveValidate(t *testing.T) {
	require.NoError(t, optical.Drive{}.Validate())
	require.NoError(t, optical.Drive{0: tfunc.Constant(1)}.Validate())
	require.ErrorIs(t, optical.Drive{0: nil}.Validate(), tfunc.ErrInvalidParameter)
	require.ErrorIs(t, optical.Drive{-1: tfunc.Constant(1)}.Validate(), tfunc.ErrInvalidParameter)
	require.ErrorIs(t, optical.Drive{0: tfunc.Constant(math.NaN())}.Validate(), tfunc.ErrInvalidParameter)
}
