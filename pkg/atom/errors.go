package atom

import "errors"

var (
	// ErrConfigurationMismatch is returned when an energy list does not have one
	// entry per value of the quantum-number range it is meant to populate.
	ErrConfigurationMismatch = errors.New("atom: energy count does not match quantum-number range")

	// ErrInvalidQuantumNumber is returned for negative, non-finite or
	// non-half-integer angular momenta.
	ErrInvalidQuantumNumber = errors.New("atom: invalid quantum number")
)
