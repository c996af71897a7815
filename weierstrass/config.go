package weierstrass

import (
	"errors"
	"fmt"
	"math"
)

// Series and interval constants of the reference benchmark
const (
	DefaultA     = 0.5
	DefaultB     = 30.0
	DefaultN     = 20
	DefaultX0    = 0.0
	DefaultX1    = 1.0
	DefaultSteps = 100_000
)

// ErrInvalidConfig is returned by Config.Validate
var ErrInvalidConfig = errors.New("invalid integration config")

// Config describes one integration run: the series parameters A, B and N,
// the interval [X0, X1] and the number of midpoint samples.
// A Config is a value; backends never modify it.
type Config struct {
	A     float64 `yaml:"a"`
	B     float64 `yaml:"b"`
	N     int     `yaml:"n"`
	X0    float64 `yaml:"x0"`
	X1    float64 `yaml:"x1"`
	Steps int     `yaml:"steps"`
}

// DefaultConfig returns the canonical configuration
func DefaultConfig() Config {
	return Config{
		A:     DefaultA,
		B:     DefaultB,
		N:     DefaultN,
		X0:    DefaultX0,
		X1:    DefaultX1,
		Steps: DefaultSteps,
	}
}

// Validate checks steps > 0, n > 0, x1 > x0 and finite parameters
func (c Config) Validate() error {
	for _, v := range []struct {
		name string
		val  float64
	}{{"a", c.A}, {"b", c.B}, {"x0", c.X0}, {"x1", c.X1}} {
		if math.IsNaN(v.val) || math.IsInf(v.val, 0) {
			return fmt.Errorf("%w: %s=%v is not finite", ErrInvalidConfig, v.name, v.val)
		}
	}
	if c.N <= 0 {
		return fmt.Errorf("%w: n=%d must be positive", ErrInvalidConfig, c.N)
	}
	if c.Steps <= 0 {
		return fmt.Errorf("%w: steps=%d must be positive", ErrInvalidConfig, c.Steps)
	}
	if !(c.X1 > c.X0) {
		return fmt.Errorf("%w: interval [%v, %v] is empty", ErrInvalidConfig, c.X0, c.X1)
	}
	return nil
}

// H returns the cell width (x1-x0)/steps
func (c Config) H() float64 {
	return (c.X1 - c.X0) / float64(c.Steps)
}

// Midpoint returns the midpoint of cell i
func (c Config) Midpoint(i int) float64 {
	return c.X0 + c.H()*(float64(i)+0.5)
}

// Label is the row label used in reports
func (c Config) Label() string {
	return fmt.Sprintf("n=%d, steps=%d", c.N, c.Steps)
}

// WithRun returns a copy of c with a different term count and sample count
func (c Config) WithRun(n, steps int) Config {
	c.N = n
	c.Steps = steps
	return c
}
