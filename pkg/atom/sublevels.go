package atom

import "iter"

// Sublevel is one flattened Zeeman sublevel carrying every ancestor quantum
// number.
type Sublevel struct {
	I      float64 `json:"I"`
	S      float64 `json:"S"`
	N      int     `json:"n"`
	L      int     `json:"L"`
	J      float64 `json:"J"`
	F      float64 `json:"F"`
	MF     float64 `json:"mF"`
	Energy float64 `json:"energy"`
}

// Sublevels walks the tree in order (shell, J, F, mF). The sequence is lazy
// and may be ranged over any number of times.
func (a *Atom) Sublevels() iter.Seq[Sublevel] {
	return func(yield func(Sublevel) bool) {
		for _, shell := range a.Shells {
			for _, fine := range shell.FineLevels {
				for _, hf := range fine.HyperfineLevels {
					for _, z := range hf.ZeemanLevels {
						sl := Sublevel{
							I: a.I, S: a.S,
							N: shell.N, L: shell.L,
							J: fine.J, F: hf.F,
							MF: z.MF, Energy: z.Energy,
						}
						if !yield(sl) {
							return
						}
					}
				}
			}
		}
	}
}

// SublevelList collects Sublevels into a slice.
func (a *Atom) SublevelList() []Sublevel {
	var out []Sublevel
	for sl := range a.Sublevels() {
		out = append(out, sl)
	}
	return out
}

// NumSublevels counts the terminal sublevels.
func (a *Atom) NumSublevels() int {
	n := 0
	for range a.Sublevels() {
		n++
	}
	return n
}

// SublevelEnergies returns the sublevel energies in Sublevels order.
func (a *Atom) SublevelEnergies() []float64 {
	var out []float64
	for sl := range a.Sublevels() {
		out = append(out, sl.Energy)
	}
	return out
}
