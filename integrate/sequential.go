// Package integrate computes midpoint Riemann sums of the Weierstrass series
// on the host, either on the calling goroutine or fork-join across workers.
package integrate

import (
	"github.com/notargets/WeierKernel/weierstrass"
)

// Sequential integrates cfg on the calling goroutine. Samples are summed in
// index order, so repeated calls return identical results. cfg must be valid.
func Sequential(cfg weierstrass.Config) float64 {
	return SumRange(cfg, 0, cfg.Steps) * cfg.H()
}

// SumRange returns the sum of f over the midpoints of cells [start, end)
// without the factor h. It is the unit of work shared by every host backend.
func SumRange(cfg weierstrass.Config, start, end int) float64 {
	sum := 0.0
	for i := start; i < end; i++ {
		sum += cfg.SampleAt(i).Value
	}
	return sum
}

// MidpointErrorBound is the a-priori error bound of the composite midpoint
// rule for cfg: (x1-x0) h^2/24 times a bound of the second derivative
func MidpointErrorBound(cfg weierstrass.Config) float64 {
	h := cfg.H()
	return (cfg.X1 - cfg.X0) * h * h / 24 * cfg.SecondDerivativeBound()
}
