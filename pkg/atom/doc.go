// Package atom models the level structure of a one-valence-electron atom as a
// tree of owned nodes:
//
//	Atom (S, I)
//	└── Shell (n, L)
//	    └── FineStructure (J = |L-S| .. L+S)
//	        └── Hyperfine (F = |J-I| .. J+I)
//	            └── Zeeman (mF = -F .. F)
//
// Child quantum numbers are never supplied directly; they are expanded from
// the parent's quantum number and the coupled spin with Range and
// MagneticRange. Energies are supplied positionally at construction time.
// A supplied energy list whose length does not match the size of the expanded
// range fails with ErrConfigurationMismatch and leaves the tree untouched.
//
// The flattened view returned by Atom.Sublevels is derived on each call and
// follows tree order: shell, then J, then F, then mF, each ascending.
package atom
