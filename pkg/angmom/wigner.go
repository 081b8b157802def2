package angmom

import (
	"math"

	"blochsweep/pkg/atom"
)

// Wigner3j returns the 3-j symbol (j1 j2 j3; m1 m2 m3) using the Racah
// formula.
func Wigner3j(j1, j2, j3, m1, m2, m3 float64) float64 {
	a, ok1 := atom.Doubled(j1)
	b, ok2 := atom.Doubled(j2)
	c, ok3 := atom.Doubled(j3)
	x, ok4 := doubledSigned(m1)
	y, ok5 := doubledSigned(m2)
	z, ok6 := doubledSigned(m3)
	if !(ok1 && ok2 && ok3 && ok4 && ok5 && ok6) {
		return 0
	}
	if x+y+z != 0 || !triangle(a, b, c) {
		return 0
	}
	if !projection(a, x) || !projection(b, y) || !projection(c, z) {
		return 0
	}

	// Every factorial argument below is a whole number once halved.
	kMin := max(0, (b-c-x)/2, (a-c+y)/2)
	kMax := min((a+b-c)/2, (a-x)/2, (b+y)/2)
	if kMin > kMax {
		return 0
	}

	logPre := 0.5 * (logDelta(a, b, c) +
		lf((a+x)/2) + lf((a-x)/2) +
		lf((b+y)/2) + lf((b-y)/2) +
		lf((c+z)/2) + lf((c-z)/2))

	sum := 0.0
	for k := kMin; k <= kMax; k++ {
		den := lf(k) +
			lf((c-b+x)/2+k) +
			lf((c-a-y)/2+k) +
			lf((a+b-c)/2-k) +
			lf((a-x)/2-k) +
			lf((b+y)/2-k)
		sum += parity(k) * math.Exp(logPre-den)
	}
	return parity((a-b-z)/2) * sum
}

// Wigner6j returns the 6-j symbol {j1 j2 j3; j4 j5 j6} using the Racah
// formula.
func Wigner6j(j1, j2, j3, j4, j5, j6 float64) float64 {
	var d [6]int
	for k, j := range [6]float64{j1, j2, j3, j4, j5, j6} {
		v, ok := atom.Doubled(j)
		if !ok || v < 0 {
			return 0
		}
		d[k] = v
	}
	a, b, c, e, f, g := d[0], d[1], d[2], d[3], d[4], d[5]
	if !triangle(a, b, c) || !triangle(a, f, g) || !triangle(e, b, g) || !triangle(e, f, c) {
		return 0
	}

	s1 := (a + b + c) / 2
	s2 := (a + f + g) / 2
	s3 := (e + b + g) / 2
	s4 := (e + f + c) / 2
	t1 := (a + b + e + f) / 2
	t2 := (b + c + f + g) / 2
	t3 := (c + a + g + e) / 2

	tMin := max(s1, s2, s3, s4)
	tMax := min(t1, t2, t3)
	if tMin > tMax {
		return 0
	}

	logPre := 0.5 * (logDelta(a, b, c) + logDelta(a, f, g) + logDelta(e, b, g) + logDelta(e, f, c))
	sum := 0.0
	for t := tMin; t <= tMax; t++ {
		den := lf(t-s1) + lf(t-s2) + lf(t-s3) + lf(t-s4) +
			lf(t1-t) + lf(t2-t) + lf(t3-t)
		sum += parity(t) * math.Exp(logPre+lf(t+1)-den)
	}
	return sum
}

// doubledSigned is atom.Doubled for projections, which may be negative.
func doubledSigned(m float64) (int, bool) {
	if m < 0 {
		v, ok := atom.Doubled(-m)
		return -v, ok
	}
	return atom.Doubled(m)
}

// triangle reports |a-b| <= c <= a+b with a+b+c whole, on doubled values.
func triangle(a, b, c int) bool {
	if a < 0 || b < 0 || c < 0 {
		return false
	}
	if (a+b+c)%2 != 0 {
		return false
	}
	lo := a - b
	if lo < 0 {
		lo = -lo
	}
	return c >= lo && c <= a+b
}

// projection reports |m| <= j with j+m whole, on doubled values.
func projection(j, m int) bool {
	if m < -j || m > j {
		return false
	}
	return (j+m)%2 == 0
}

// logDelta is log of the triangle coefficient
// (a+b-c)!(a-b+c)!(-a+b+c)!/(a+b+c+1)! on doubled values.
func logDelta(a, b, c int) float64 {
	return lf((a+b-c)/2) + lf((a-b+c)/2) + lf((-a+b+c)/2) - lf((a+b+c)/2+1)
}

// lf is log(n!).
func lf(n int) float64 {
	if n < len(logFactorials) {
		return logFactorials[n]
	}
	v, _ := math.Lgamma(float64(n) + 1)
	return v
}

var logFactorials = func() []float64 {
	out := make([]float64, 171)
	for n := 1; n < len(out); n++ {
		out[n] = out[n-1] + math.Log(float64(n))
	}
	return out
}()

// parity is (-1)^n.
func parity(n int) float64 {
	if n%2 == 0 {
		return 1
	}
	return -1
}
