// Package weierstrass evaluates the partial sums of the Weierstrass series
//
//	f(x) = sum_{k=0}^{n-1} a^k cos(pi b^k x)
//
// that every integration backend uses as its workload.
package weierstrass

import (
	"math"
)

// Eval returns the n-term partial sum at x in double precision
func Eval(x, a, b float64, n int) float64 {
	sum := 0.0
	for k := 0; k < n; k++ {
		kf := float64(k)
		sum += math.Pow(a, kf) * math.Cos(math.Pi*math.Pow(b, kf)*x)
	}
	return sum
}

// Eval32 mirrors the single precision device kernel on the host. Powers and
// products are rounded to float32 after every operation; cos is taken in
// double precision and rounded, so results may differ from a device libm in
// the last bits.
func Eval32(x, a, b float32, n int) float32 {
	var sum float32
	for k := 0; k < n; k++ {
		kf := float64(k)
		ak := float32(math.Pow(float64(a), kf))
		bk := float32(math.Pow(float64(b), kf))
		arg := float32(math.Pi) * bk * x
		sum += ak * float32(math.Cos(float64(arg)))
	}
	return sum
}

// At evaluates the series of c at x
func (c Config) At(x float64) float64 {
	return Eval(x, c.A, c.B, c.N)
}

// Sample is one midpoint evaluation
type Sample struct {
	Index int
	X     float64
	Value float64
}

// SampleAt evaluates cell i of c. Samples are independent of each other.
func (c Config) SampleAt(i int) Sample {
	x := c.Midpoint(i)
	return Sample{Index: i, X: x, Value: c.At(x)}
}

// SecondDerivativeBound returns sum_k a^k (pi b^k)^2, an upper bound of the second derivative
func (c Config) SecondDerivativeBound() float64 {
	bound := 0.0
	for k := 0; k < c.N; k++ {
		kf := float64(k)
		w := math.Pi * math.Pow(c.B, kf)
		bound += math.Abs(math.Pow(c.A, kf)) * w * w
	}
	return bound
}
