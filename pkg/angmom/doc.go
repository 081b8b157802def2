// Package angmom evaluates the angular-momentum recoupling coefficients
// (Wigner 3-j and 6-j symbols) and the relative electric-dipole coupling
// strength between two hyperfine Zeeman sublevels built from them.
//
// All quantum numbers are float64 values that must be integers or
// half-integers. Internally everything runs on doubled integers, so
// half-integers are exact. Both symbols return exactly zero whenever a
// triangle condition, a projection sum or |m| <= j fails; CouplingCoefficient
// depends on that and adds no selection-rule checks of its own.
package angmom
