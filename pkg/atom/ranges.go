package atom

import (
	"fmt"
	"math"
)

// halfIntTolerance bounds how far 2j may sit from an integer and still be
// accepted as a half-integer.
const halfIntTolerance = 1e-9

// Doubled returns 2j as an integer when j is a non-negative integer or
// half-integer.
func Doubled(j float64) (int, bool) {
	if math.IsNaN(j) || math.IsInf(j, 0) {
		return 0, false
	}
	d := math.Round(2 * j)
	if math.Abs(2*j-d) > halfIntTolerance {
		return 0, false
	}
	return int(d), true
}

// Range returns the allowed values of j coupled from a and b:
// |a-b|, |a-b|+1, ..., a+b. It has 2*min(a,b)+1 elements.
func Range(a, b float64) ([]float64, error) {
	a2, ok := Doubled(a)
	if !ok || a2 < 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuantumNumber, a)
	}
	b2, ok := Doubled(b)
	if !ok || b2 < 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuantumNumber, b)
	}
	lo2 := a2 - b2
	if lo2 < 0 {
		lo2 = -lo2
	}
	return steps(lo2, a2+b2), nil
}

// MagneticRange returns the projections -f, -f+1, ..., f.
func MagneticRange(f float64) ([]float64, error) {
	f2, ok := Doubled(f)
	if !ok || f2 < 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuantumNumber, f)
	}
	return steps(-f2, f2), nil
}

// steps expands doubled bounds into unit steps. lo2 and hi2 always share
// parity here.
func steps(lo2, hi2 int) []float64 {
	n := (hi2-lo2)/2 + 1
	out := make([]float64, n)
	for k := range out {
		out[k] = float64(lo2+2*k) / 2
	}
	return out
}
