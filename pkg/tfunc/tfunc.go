// Package tfunc provides time-dependent coefficient functions for driving
// fields: square pulses, Gaussian pulses and Gaussian ramps.
//
// Each shape is a parameter struct implementing Coefficient. Coefficients are
// pure: At depends only on t and the struct fields, so solvers may evaluate
// them at any time, in any order, any number of times. Validate is meant to
// run once when a sweep is configured rather than on every call to At.
package tfunc

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidParameter is returned by Validate for unusable pulse parameters.
var ErrInvalidParameter = errors.New("tfunc: invalid parameter")

// Coefficient is a scalar function of time.
type Coefficient interface {
	At(t float64) float64
	Validate() error
}

// fwhmScale makes w the intensity full width at half maximum: the field
// amplitude exp(-2 ln2 ((t-c)/w)^2) squared halves at |t-c| = w/2.
var fwhmScale = 2 * math.Ln2

func gaussian(t, centre, width float64) float64 {
	x := (t - centre) / width
	return math.Exp(-fwhmScale * x * x)
}

// Constant is a time-independent coefficient.
type Constant float64

func (c Constant) At(float64) float64 { return float64(c) }

func (c Constant) Validate() error { return finite("constant", float64(c)) }

// Square is Amplitude on the closed interval [On, Off] and zero elsewhere.
type Square struct {
	On        float64 `json:"on" toml:"on" yaml:"on"`
	Off       float64 `json:"off" toml:"off" yaml:"off"`
	Amplitude float64 `json:"amplitude" toml:"amplitude" yaml:"amplitude"`
}

func (s Square) At(t float64) float64 {
	if t >= s.On && t <= s.Off {
		return s.Amplitude
	}
	return 0
}

func (s Square) Validate() error {
	if err := finite("square", s.On, s.Off, s.Amplitude); err != nil {
		return err
	}
	if s.Off < s.On {
		return fmt.Errorf("%w: square off %v before on %v", ErrInvalidParameter, s.Off, s.On)
	}
	return nil
}

// Gaussian is a field pulse whose intensity has full width at half maximum
// Width, centred on Centre.
type Gaussian struct {
	Amplitude float64 `json:"amplitude" toml:"amplitude" yaml:"amplitude"`
	Width     float64 `json:"width" toml:"width" yaml:"width"`
	Centre    float64 `json:"centre" toml:"centre" yaml:"centre"`
}

func (g Gaussian) At(t float64) float64 { return g.Amplitude * gaussian(t, g.Centre, g.Width) }

func (g Gaussian) Validate() error {
	return validateGaussian("gaussian", g.Amplitude, g.Width, g.Centre)
}

// RampOn rises along a Gaussian edge to Amplitude at Centre and holds it.
type RampOn struct {
	Amplitude float64 `json:"amplitude" toml:"amplitude" yaml:"amplitude"`
	Width     float64 `json:"width" toml:"width" yaml:"width"`
	Centre    float64 `json:"centre" toml:"centre" yaml:"centre"`
}

func (r RampOn) At(t float64) float64 {
	if t > r.Centre {
		return r.Amplitude
	}
	return r.Amplitude * gaussian(t, r.Centre, r.Width)
}

func (r RampOn) Validate() error { return validateGaussian("ramp on", r.Amplitude, r.Width, r.Centre) }

// RampOff holds Amplitude until Centre and then falls along a Gaussian edge.
type RampOff struct {
	Amplitude float64 `json:"amplitude" toml:"amplitude" yaml:"amplitude"`
	Width     float64 `json:"width" toml:"width" yaml:"width"`
	Centre    float64 `json:"centre" toml:"centre" yaml:"centre"`
}

func (r RampOff) At(t float64) float64 {
	if t < r.Centre {
		return r.Amplitude
	}
	return r.Amplitude * gaussian(t, r.Centre, r.Width)
}

func (r RampOff) Validate() error {
	return validateGaussian("ramp off", r.Amplitude, r.Width, r.Centre)
}

// RampOnOff ramps on at On, holds, and ramps off at Off, both edges sharing
// Width.
type RampOnOff struct {
	Amplitude float64 `json:"amplitude" toml:"amplitude" yaml:"amplitude"`
	Width     float64 `json:"width" toml:"width" yaml:"width"`
	On        float64 `json:"on" toml:"on" yaml:"on"`
	Off       float64 `json:"off" toml:"off" yaml:"off"`
}

func (r RampOnOff) At(t float64) float64 {
	on := RampOn{Amplitude: 1, Width: r.Width, Centre: r.On}.At(t)
	off := RampOff{Amplitude: 1, Width: r.Width, Centre: r.Off}.At(t)
	return r.Amplitude * (on + off - 1)
}

func (r RampOnOff) Validate() error {
	if err := validateGaussian("ramp on/off", r.Amplitude, r.Width, r.On); err != nil {
		return err
	}
	if err := finite("ramp on/off", r.Off); err != nil {
		return err
	}
	if r.Off < r.On {
		return fmt.Errorf("%w: ramp off %v before ramp on %v", ErrInvalidParameter, r.Off, r.On)
	}
	return nil
}

// Product multiplies coefficients.
type Product []Coefficient

func (p Product) At(t float64) float64 {
	v := 1.0
	for _, c := range p {
		v *= c.At(t)
	}
	return v
}

func (p Product) Validate() error { return validateAll(p) }

// Sum adds coefficients.
type Sum []Coefficient

func (s Sum) At(t float64) float64 {
	v := 0.0
	for _, c := range s {
		v += c.At(t)
	}
	return v
}

func (s Sum) Validate() error { return validateAll(s) }

func validateAll(cs []Coefficient) error {
	if len(cs) == 0 {
		return fmt.Errorf("%w: empty combination", ErrInvalidParameter)
	}
	for i, c := range cs {
		if c == nil {
			return fmt.Errorf("%w: term %d is nil", ErrInvalidParameter, i)
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("term %d: %w", i, err)
		}
	}
	return nil
}

func validateGaussian(name string, amplitude, width, centre float64) error {
	if err := finite(name, amplitude, width, centre); err != nil {
		return err
	}
	if width <= 0 {
		return fmt.Errorf("%w: %s width %v must be positive", ErrInvalidParameter, name, width)
	}
	return nil
}

func finite(name string, vs ...float64) error {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s parameter %v is not finite", ErrInvalidParameter, name, v)
		}
	}
	return nil
}
