package atom

import "fmt"

// Atom is the root of the level tree. S and I are fixed at construction and
// are the couplings used to expand every descendant range.
type Atom struct {
	Element string
	Isotope int
	S       float64 // total electronic spin
	I       float64 // nuclear spin
	Shells  []*Shell
}

// Shell is an (n, L) term. Its children are the fine-structure levels
// J = |L-S| .. L+S.
type Shell struct {
	N          int
	L          int
	Energy     float64
	FineLevels []*FineStructure
}

// FineStructure is a J level. Its children are the hyperfine levels
// F = |J-I| .. J+I.
type FineStructure struct {
	J               float64
	Energy          float64
	HyperfineLevels []*Hyperfine
}

// Hyperfine is an F level. Its children are the Zeeman sublevels mF = -F .. F.
type Hyperfine struct {
	F            float64
	Energy       float64
	ZeemanLevels []*Zeeman
}

// Zeeman is a terminal mF sublevel.
type Zeeman struct {
	MF     float64
	Energy float64
}

// NewAtom validates the spins and returns an atom with no shells.
func NewAtom(element string, isotope int, s, i float64) (*Atom, error) {
	if s2, ok := Doubled(s); !ok || s2 < 0 {
		return nil, fmt.Errorf("%w: S=%v", ErrInvalidQuantumNumber, s)
	}
	if i2, ok := Doubled(i); !ok || i2 < 0 {
		return nil, fmt.Errorf("%w: I=%v", ErrInvalidQuantumNumber, i)
	}
	return &Atom{Element: element, Isotope: isotope, S: s, I: i}, nil
}

// NewShell returns an (n, L) shell with no fine-structure levels.
func NewShell(n, l int, energy float64) (*Shell, error) {
	if n < 1 || l < 0 || l >= n {
		return nil, fmt.Errorf("%w: n=%d L=%d", ErrInvalidQuantumNumber, n, l)
	}
	return &Shell{N: n, L: l, Energy: energy}, nil
}

// AddShell appends a shell.
func (a *Atom) AddShell(s *Shell) { a.Shells = append(a.Shells, s) }

// AddFineStructure appends a J level.
func (s *Shell) AddFineStructure(j *FineStructure) { s.FineLevels = append(s.FineLevels, j) }

// AddHyperfine appends an F level.
func (j *FineStructure) AddHyperfine(f *Hyperfine) {
	j.HyperfineLevels = append(j.HyperfineLevels, f)
}

// AddZeeman appends an mF sublevel.
func (f *Hyperfine) AddZeeman(m *Zeeman) { f.ZeemanLevels = append(f.ZeemanLevels, m) }

// BuildShell creates an (n, L) shell, expands it down to the Zeeman sublevels
// and appends it. The atom is unchanged on error.
//
// jEnergies has one entry per J, fEnergies one list per J with one entry per
// F. mFEnergies may be nil, in which case every sublevel inherits its F energy.
func (a *Atom) BuildShell(n, l int, energy float64, jEnergies []float64, fEnergies [][]float64, mFEnergies [][][]float64) (*Shell, error) {
	shell, err := NewShell(n, l, energy)
	if err != nil {
		return nil, err
	}
	if err := shell.BuildFineStructure(a.S, a.I, jEnergies, fEnergies, mFEnergies); err != nil {
		return nil, fmt.Errorf("shell n=%d L=%d: %w", n, l, err)
	}
	a.AddShell(shell)
	return shell, nil
}

// JRange returns the J values allowed for spin s.
func (s *Shell) JRange(spin float64) ([]float64, error) { return Range(float64(s.L), spin) }

// BuildFineStructure expands J = |L-S| .. L+S and, below each J, its hyperfine
// and Zeeman levels. Nothing is appended unless the whole subtree builds.
func (s *Shell) BuildFineStructure(spin, nuclear float64, jEnergies []float64, fEnergies [][]float64, mFEnergies [][][]float64) error {
	js, err := s.JRange(spin)
	if err != nil {
		return err
	}
	if err := checkCount("J", len(jEnergies), len(js)); err != nil {
		return err
	}
	if err := checkCount("F energy lists", len(fEnergies), len(js)); err != nil {
		return err
	}
	if len(mFEnergies) > 0 {
		if err := checkCount("mF energy lists", len(mFEnergies), len(js)); err != nil {
			return err
		}
	}
	levels := make([]*FineStructure, 0, len(js))
	for k, j := range js {
		level := &FineStructure{J: j, Energy: jEnergies[k]}
		var mf [][]float64
		if len(mFEnergies) > 0 {
			mf = mFEnergies[k]
		}
		if err := level.BuildHyperfine(nuclear, fEnergies[k], mf); err != nil {
			return fmt.Errorf("J=%v: %w", j, err)
		}
		levels = append(levels, level)
	}
	s.FineLevels = append(s.FineLevels, levels...)
	return nil
}

// NumFineLevels returns the size of the J range for spin s.
func (s *Shell) NumFineLevels(spin float64) int {
	js, err := s.JRange(spin)
	if err != nil {
		return 0
	}
	return len(js)
}

// FRange returns the F values allowed for nuclear spin i.
func (j *FineStructure) FRange(nuclear float64) ([]float64, error) { return Range(j.J, nuclear) }

// BuildHyperfine expands F = |J-I| .. J+I. mFEnergies may be nil; otherwise it
// must hold one list per F.
func (j *FineStructure) BuildHyperfine(nuclear float64, fEnergies []float64, mFEnergies [][]float64) error {
	fs, err := j.FRange(nuclear)
	if err != nil {
		return err
	}
	if err := checkCount("F", len(fEnergies), len(fs)); err != nil {
		return err
	}
	if len(mFEnergies) > 0 {
		if err := checkCount("mF energy lists", len(mFEnergies), len(fs)); err != nil {
			return err
		}
	}
	levels := make([]*Hyperfine, 0, len(fs))
	for k, f := range fs {
		level := &Hyperfine{F: f, Energy: fEnergies[k]}
		var mf []float64
		if len(mFEnergies) > 0 {
			mf = mFEnergies[k]
		}
		if err := level.BuildZeeman(mf); err != nil {
			return fmt.Errorf("F=%v: %w", f, err)
		}
		levels = append(levels, level)
	}
	j.HyperfineLevels = append(j.HyperfineLevels, levels...)
	return nil
}

// NumHyperfineLevels returns the size of the F range for nuclear spin i.
func (j *FineStructure) NumHyperfineLevels(nuclear float64) int {
	fs, err := j.FRange(nuclear)
	if err != nil {
		return 0
	}
	return len(fs)
}

// MFRange returns -F .. F.
func (f *Hyperfine) MFRange() ([]float64, error) { return MagneticRange(f.F) }

// BuildZeeman expands mF = -F .. F. With an empty mFEnergies every sublevel
// takes the hyperfine energy.
func (f *Hyperfine) BuildZeeman(mFEnergies []float64) error {
	ms, err := f.MFRange()
	if err != nil {
		return err
	}
	if len(mFEnergies) > 0 {
		if err := checkCount("mF", len(mFEnergies), len(ms)); err != nil {
			return err
		}
	}
	levels := make([]*Zeeman, 0, len(ms))
	for k, m := range ms {
		e := f.Energy
		if len(mFEnergies) > 0 {
			e = mFEnergies[k]
		}
		levels = append(levels, &Zeeman{MF: m, Energy: e})
	}
	f.ZeemanLevels = append(f.ZeemanLevels, levels...)
	return nil
}

// NumZeemanLevels returns 2F+1.
func (f *Hyperfine) NumZeemanLevels() int {
	ms, err := f.MFRange()
	if err != nil {
		return 0
	}
	return len(ms)
}

func checkCount(what string, got, want int) error {
	if got != want {
		return fmt.Errorf("%w: %s has %d energies, range has %d values", ErrConfigurationMismatch, what, got, want)
	}
	return nil
}

func (a *Atom) String() string {
	return fmt.Sprintf("Atom{%s-%d S=%v I=%v shells=%d}", a.Element, a.Isotope, a.S, a.I, len(a.Shells))
}

func (s *Shell) String() string {
	return fmt.Sprintf("Shell{n=%d L=%d E=%g J-levels=%d}", s.N, s.L, s.Energy, len(s.FineLevels))
}

func (j *FineStructure) String() string {
	return fmt.Sprintf("FineStructure{J=%v E=%g F-levels=%d}", j.J, j.Energy, len(j.HyperfineLevels))
}

func (f *Hyperfine) String() string {
	return fmt.Sprintf("Hyperfine{F=%v E=%g mF-levels=%d}", f.F, f.Energy, len(f.ZeemanLevels))
}

func (m *Zeeman) String() string { return fmt.Sprintf("Zeeman{mF=%v E=%g}", m.MF, m.Energy) }
