// Package observability carries the sweep engine's metrics recorders and a
// scoped timer for ad hoc diagnostics.
package observability

import (
	"log/slog"
	"time"
)

// Recorder receives per-point and cache outcomes from the sweep engine.
// Kind is the run flavour (steady, parallel, evolve). Implementations must be
// safe for concurrent use.
type Recorder interface {
	PointSolved(kind string, elapsed time.Duration)
	PointFailed(kind string)
	CacheLookup(hit bool)
}

// Nop discards everything.
type Nop struct{}

func (Nop) PointSolved(string, time.Duration) {}
func (Nop) PointFailed(string)                {}
func (Nop) CacheLookup(bool)                  {}

var _ Recorder = Nop{}

// Measure starts a timer and returns the func that stops it, logging the
// elapsed time under name:
//
//	defer observability.Measure(logger, "steady state")()
func Measure(logger *slog.Logger, name string) func() {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()
	return func() {
		logger.Info("timing", "name", name, "elapsed", time.Since(start))
	}
}
