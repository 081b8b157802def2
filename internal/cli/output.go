package cli

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"

	"blochsweep/internal/style"
	"blochsweep/internal/sweep"
	"blochsweep/pkg/density"
)

// parseElements reads "row,col" pairs.
func parseElements(raw []string) ([]sweep.Element, error) {
	out := make([]sweep.Element, 0, len(raw))
	for _, r := range raw {
		rs, cs, ok := strings.Cut(r, ",")
		if !ok {
			return nil, fmt.Errorf("element %q: want row,col", r)
		}
		row, err := strconv.Atoi(strings.TrimSpace(rs))
		if err != nil {
			return nil, fmt.Errorf("element %q: %w", r, err)
		}
		col, err := strconv.Atoi(strings.TrimSpace(cs))
		if err != nil {
			return nil, fmt.Errorf("element %q: %w", r, err)
		}
		out = append(out, sweep.Element{Row: row, Col: col})
	}
	return out, nil
}

// Complex is a JSON-friendly complex number.
type Complex struct {
	Re float64 `json:"re"`
	Im float64 `json:"im"`
}

func toComplex(c complex128) Complex { return Complex{Re: real(c), Im: imag(c)} }

// pointReport is one detuning's row of sweep output.
type pointReport struct {
	Delta          float64   `json:"delta"`
	Populations    []float64 `json:"populations,omitempty"`
	Coherence      *Complex  `json:"coherence,omitempty"`
	Susceptibility *Complex  `json:"susceptibility,omitempty"`
}

// sweepReport is the --json document of sweep and evolve.
type sweepReport struct {
	Slot   int           `json:"slot"`
	Failed []int         `json:"failed,omitempty"`
	Points []pointReport `json:"points"`
}

func populations(rho *density.Matrix) []float64 {
	if rho == nil {
		return nil
	}
	diag := rho.Diag()
	out := make([]float64, len(diag))
	for i, d := range diag {
		out[i] = real(d)
	}
	return out
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}

// writeTable prints a report as aligned columns, one row per detuning.
func writeTable(w io.Writer, title string, n int, rep sweepReport) error {
	note := fmt.Sprintf("(%d points, slot %d)", len(rep.Points), rep.Slot)
	fmt.Fprintln(w, style.Header(title, note))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header := []string{"delta"}
	for i := range n {
		header = append(header, fmt.Sprintf("rho%d%d", i, i))
	}
	withCoh := len(rep.Points) > 0 && rep.Points[0].Coherence != nil
	withChi := len(rep.Points) > 0 && rep.Points[0].Susceptibility != nil
	if withCoh {
		header = append(header, "Re coh", "Im coh")
	}
	if withChi {
		header = append(header, "Re chi", "Im chi")
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, p := range rep.Points {
		cells := []string{formatFloat(p.Delta)}
		for i := range n {
			v := math.NaN()
			if i < len(p.Populations) {
				v = p.Populations[i]
			}
			cells = append(cells, formatFloat(v))
		}
		if withCoh {
			cells = append(cells, formatFloat(p.Coherence.Re), formatFloat(p.Coherence.Im))
		}
		if withChi {
			cells = append(cells, formatFloat(p.Susceptibility.Re), formatFloat(p.Susceptibility.Im))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}
