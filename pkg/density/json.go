package density

import (
	"encoding/json"
	"fmt"
)

// wireMatrix splits complex elements into real and imaginary planes since
// encoding/json has no complex type.
type wireMatrix struct {
	N  int       `json:"n"`
	Re []float64 `json:"re"`
	Im []float64 `json:"im"`
}

// MarshalJSON implements json.Marshaler.
func (m *Matrix) MarshalJSON() ([]byte, error) {
	w := wireMatrix{N: m.n, Re: make([]float64, len(m.data)), Im: make([]float64, len(m.data))}
	for k, v := range m.data {
		w.Re[k] = real(v)
		w.Im[k] = imag(v)
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Matrix) UnmarshalJSON(b []byte) error {
	var w wireMatrix
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if w.N <= 0 || len(w.Re) != w.N*w.N || len(w.Im) != w.N*w.N {
		return fmt.Errorf("%w: n=%d re=%d im=%d", ErrBadShape, w.N, len(w.Re), len(w.Im))
	}
	m.n = w.N
	m.data = make([]complex128, w.N*w.N)
	for k := range m.data {
		m.data[k] = complex(w.Re[k], w.Im[k])
	}
	return nil
}
