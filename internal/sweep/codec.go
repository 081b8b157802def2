package sweep

import (
	"encoding/json"
	"errors"
	"fmt"

	"blochsweep/pkg/density"
	"blochsweep/pkg/optical"
)

// codecVersion is bumped when the cached layout changes incompatibly.
const codecVersion = 1

// Snapshot is the cached form of a result set. Null entries are absent
// points.
type Snapshot struct {
	Version      int                   `json:"version"`
	Deltas       []float64             `json:"deltas"`
	Slot         int                   `json:"slot"`
	Rho          []*density.Matrix     `json:"rho"`
	Trajectories []*optical.Trajectory `json:"trajectories,omitempty"`
}

// Encode serialises snap as JSON, stamping the codec version.
func Encode(snap Snapshot) ([]byte, error) {
	snap.Version = codecVersion
	b, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("sweep: encode results: %w", err)
	}
	return b, nil
}

// Decode parses a cached result set.
func Decode(b []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("sweep: decode results: %w", err)
	}
	if snap.Version != codecVersion {
		return Snapshot{}, fmt.Errorf("sweep: unsupported results version %d", snap.Version)
	}
	if len(snap.Rho) != len(snap.Deltas) {
		return Snapshot{}, fmt.Errorf("sweep: %d states for %d detunings", len(snap.Rho), len(snap.Deltas))
	}
	return snap, nil
}

// fits checks that snap can stand in for a run over n points of a system
// with dim states.
func (snap Snapshot) fits(n, dim int, withTrajectories bool) error {
	if len(snap.Rho) != n {
		return fmt.Errorf("cached set has %d points, sweep has %d", len(snap.Rho), n)
	}
	if withTrajectories && len(snap.Trajectories) != n {
		return errors.New("cached set carries no trajectories")
	}
	for i, rho := range snap.Rho {
		if rho != nil && rho.N() != dim {
			return fmt.Errorf("cached point %d is %dx%d, system has %d states", i, rho.N(), rho.N(), dim)
		}
	}
	for i, traj := range snap.Trajectories {
		if traj == nil {
			continue
		}
		for _, st := range traj.States {
			if st == nil || st.N() != dim {
				return fmt.Errorf("cached trajectory %d does not match the system's %d states", i, dim)
			}
		}
	}
	return nil
}
