// Package bench drives the sequential, parallel and device backends over a
// list of configurations, times them and checks that they agree.
package bench

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/notargets/WeierKernel/weierstrass"
	"gonum.org/v1/gonum/stat"
)

// Tolerances are the absolute agreement bounds against the sequential value
type Tolerances struct {
	Parallel float64 `yaml:"parallel"`
	Device   float64 `yaml:"device"`
}

// DefaultTolerances accounts for summation order on the host and for the
// single precision device kernel
func DefaultTolerances() Tolerances {
	return Tolerances{Parallel: 1e-6, Device: 1e-4}
}

// Outcome is the validation verdict of one configuration
type Outcome bool

const (
	Fail Outcome = false
	OK   Outcome = true
)

func (o Outcome) String() string {
	if o {
		return "OK"
	}
	return "FAIL"
}

// Validate returns OK iff |seq-par| < tol.Parallel and |seq-dev| < tol.Device.
// A NaN on either side never satisfies a bound.
func (tol Tolerances) Validate(seq, par, dev float64) Outcome {
	return Outcome(math.Abs(seq-par) < tol.Parallel && math.Abs(seq-dev) < tol.Device)
}

// Result is what one backend produced for one configuration
type Result struct {
	Value   float64
	Elapsed time.Duration // mean over repeats
	StdDev  time.Duration
	Err     error
}

// Cell renders the value and time the way the report table shows them
func (r Result) Cell() string {
	return fmt.Sprintf("%.6f (%.3fs)", r.Value, r.Elapsed.Seconds())
}

// Harness runs every configuration through the three backends in turn
type Harness struct {
	Sequential Backend
	Parallel   Backend
	Device     Backend

	Tolerances Tolerances
	// Repeats runs each backend this many times; values below 1 mean 1
	Repeats int
	Logger  *slog.Logger
}

// NewHarness returns a harness with default tolerances and one repeat
func NewHarness(seq, par, dev Backend) *Harness {
	return &Harness{
		Sequential: seq,
		Parallel:   par,
		Device:     dev,
		Tolerances: DefaultTolerances(),
		Repeats:    1,
	}
}

func (h *Harness) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Run processes configs in order, one at a time. Backend errors are
// recorded in the row as a NaN value and a FAIL outcome; they never stop
// the run. A panic in a backend is not recovered.
func (h *Harness) Run(configs []weierstrass.Config) *Report {
	report := &Report{
		Backends: []string{h.Sequential.Name(), h.Parallel.Name(), h.Device.Name()},
		Rows:     make([]Row, 0, len(configs)),
	}
	for _, cfg := range configs {
		report.Rows = append(report.Rows, h.runConfig(cfg))
	}
	return report
}

func (h *Harness) runConfig(cfg weierstrass.Config) Row {
	log := h.logger().With("config", cfg.Label())
	row := Row{Config: cfg}

	if err := cfg.Validate(); err != nil {
		log.Error("skipping invalid configuration", "err", err)
		failed := Result{Value: math.NaN(), Err: err}
		row.Results = [3]Result{failed, failed, failed}
		row.Outcome = Fail
		return row
	}

	for i, b := range []Backend{h.Sequential, h.Parallel, h.Device} {
		row.Results[i] = h.measure(b, cfg)
		r := row.Results[i]
		if r.Err != nil {
			log.Error("backend failed", "backend", b.Name(), "err", r.Err)
			continue
		}
		log.Debug("backend finished", "backend", b.Name(),
			"value", r.Value, "elapsed", r.Elapsed)
	}

	seq, par, dev := row.Results[0].Value, row.Results[1].Value, row.Results[2].Value
	row.Outcome = h.Tolerances.Validate(seq, par, dev)

	if d := math.Abs(seq - par); !(d < h.Tolerances.Parallel) {
		log.Warn("parallel mismatch", "delta", d, "tolerance", h.Tolerances.Parallel)
	}
	if row.Results[2].Err == nil {
		if math.IsNaN(dev) || math.IsInf(dev, 0) {
			log.Warn("device result invalid", "value", dev)
		} else if d := math.Abs(seq - dev); !(d < h.Tolerances.Device) {
			log.Warn("device mismatch", "delta", d, "tolerance", h.Tolerances.Device)
		}
	}
	log.Info("finished", "check", row.Outcome)
	return row
}

// measure runs b Repeats times. The first error ends the repeats and
// yields a NaN value; timings cover the attempts made.
func (h *Harness) measure(b Backend, cfg weierstrass.Config) Result {
	repeats := max(h.Repeats, 1)
	secs := make([]float64, 0, repeats)

	var res Result
	for i := 0; i < repeats; i++ {
		start := time.Now()
		v, err := b.Integrate(cfg)
		secs = append(secs, time.Since(start).Seconds())
		if err != nil {
			res.Value = math.NaN()
			res.Err = err
			break
		}
		res.Value = v
	}

	res.Elapsed = seconds(stat.Mean(secs, nil))
	if len(secs) > 1 {
		res.StdDev = seconds(stat.StdDev(secs, nil))
	}
	return res
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
