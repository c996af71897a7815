package bench

import (
	"github.com/notargets/WeierKernel/integrate"
	"github.com/notargets/WeierKernel/weierstrass"
)

// Backend is one strategy for computing the integral of a configuration
type Backend interface {
	Name() string
	Integrate(cfg weierstrass.Config) (float64, error)
}

type hostBackend struct {
	name string
	fn   func(cfg weierstrass.Config) float64
}

func (b hostBackend) Name() string { return b.name }

func (b hostBackend) Integrate(cfg weierstrass.Config) (float64, error) {
	return b.fn(cfg), nil
}

// Sequential is the single goroutine baseline
func Sequential() Backend {
	return hostBackend{name: "sequential", fn: integrate.Sequential}
}

// Parallel is the fork-join host backend
func Parallel(opts ...integrate.Option) Backend {
	return hostBackend{
		name: "parallel",
		fn: func(cfg weierstrass.Config) float64 {
			return integrate.Parallel(cfg, opts...)
		},
	}
}
