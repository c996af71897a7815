// Package device integrates the Weierstrass series on an OCCA device. Every
// call opens its own device, compiles the embedded kernel, runs one
// work-item per sample, copies the samples back and sums them on the host.
package device

import (
	_ "embed"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/notargets/WeierKernel/partitions"
	"github.com/notargets/WeierKernel/runner"
	"github.com/notargets/WeierKernel/runner/builder"
	"github.com/notargets/WeierKernel/utils"
	"github.com/notargets/WeierKernel/weierstrass"
	"github.com/notargets/gocca"
	"gonum.org/v1/gonum/floats"
)

//go:embed kernels/weierstrass.okl
var kernelSource string

// KernelName is the @kernel entry point in the embedded source
const KernelName = "weierIntegral"

// DefaultBlockSize is the @inner extent; CUDA caps it at 1024
const DefaultBlockSize = 256

const maxBlockSize = 1024

// kernelScalars are the scalar parameters after K and out, in order
var kernelScalars = []runner.ScalarSpec{
	{Name: "a"},
	{Name: "b"},
	{Name: "n", IsInt: true},
	{Name: "x0"},
	{Name: "h"},
}

// Integrator is the device backend. The zero value uses the GPU modes in
// utils.GPUModes, single precision and DefaultBlockSize.
type Integrator struct {
	// Modes are tried in order; nil means utils.GPUModes
	Modes []utils.DeviceMode
	// HostFallback appends utils.HostModes after Modes
	HostFallback bool
	// Precision of the kernel's real_t; 0 means builder.Float32
	Precision builder.DataType
	BlockSize int
	Logger    *slog.Logger

	open func([]utils.DeviceMode) (*gocca.OCCADevice, error)
}

func (g *Integrator) modes() []utils.DeviceMode {
	modes := g.Modes
	if modes == nil {
		modes = utils.GPUModes
	}
	if g.HostFallback {
		modes = append(append([]utils.DeviceMode{}, modes...), utils.HostModes...)
	}
	return modes
}

func (g *Integrator) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}

// Integrate runs cfg on the first device that opens. A device failure is
// returned as a *Error whose Kind names the failing stage. An invalid config
// or block size is rejected before any device is opened and carries no Kind.
// The value is NaN whenever err is non-nil.
func (g *Integrator) Integrate(cfg weierstrass.Config) (result float64, err error) {
	if err := cfg.Validate(); err != nil {
		return math.NaN(), fmt.Errorf("device integrator: %w", err)
	}

	precision := g.Precision
	if precision == 0 {
		precision = builder.Float32
	}
	blockSize := g.BlockSize
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	if blockSize > maxBlockSize {
		return math.NaN(), fmt.Errorf("device integrator: block size %d exceeds %d",
			blockSize, maxBlockSize)
	}
	intType := builder.INT32
	if cfg.Steps > math.MaxInt32 {
		intType = builder.INT64
	}

	log := g.logger()
	open := g.open
	if open == nil {
		open = utils.OpenFirstDevice
	}

	device, err := open(g.modes())
	if err != nil {
		return math.NaN(), &Error{Kind: NoDeviceFound, Err: err}
	}
	defer device.Free()
	mode := device.Mode()
	if (utils.DeviceMode{Mode: mode}).IsGPU() {
		log.Debug("device opened", "mode", mode)
	} else {
		log.Warn("running device kernel on a host mode", "mode", mode)
	}

	// gocca reports some failures by panicking out of cgo; attribute them
	// to the stage that was running
	stage := Dispatch
	defer func() {
		if r := recover(); r != nil {
			result = math.NaN()
			err = &Error{Kind: stage, Mode: mode, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	layout, err := partitions.NewBlockLayout(cfg.Steps, blockSize)
	if err != nil {
		return math.NaN(), &Error{Kind: Dispatch, Mode: mode, Err: err}
	}

	kr := runner.NewRunner(device, builder.Config{
		K:         layout.K(),
		FloatType: precision,
		IntType:   intType,
	})
	defer kr.Free()

	if err := kr.AllocateArray("out"); err != nil {
		return math.NaN(), &Error{Kind: Dispatch, Mode: mode, Err: err}
	}

	stage = KernelBuild
	start := time.Now()
	if _, err := kr.BuildKernel(kernelSource, KernelName); err != nil {
		return math.NaN(), &Error{Kind: KernelBuild, Mode: mode, Err: err}
	}
	log.Debug("device kernel built", "mode", mode, "precision", precision,
		"partitions", layout.NumPartitions, "elapsed", time.Since(start))

	stage = Dispatch
	h := cfg.H()
	start = time.Now()
	err = kr.ExecuteKernel(KernelName,
		kr.Real(cfg.A), kr.Real(cfg.B), kr.Int(cfg.N), kr.Real(cfg.X0), kr.Real(h))
	if err != nil {
		return math.NaN(), &Error{Kind: Dispatch, Mode: mode, Err: err}
	}
	log.Debug("device kernel finished", "mode", mode, "elapsed", time.Since(start))

	stage = Transfer
	samples, err := kr.CopyBack("out")
	if err != nil {
		return math.NaN(), &Error{Kind: Transfer, Mode: mode, Err: err}
	}
	if len(samples) != cfg.Steps {
		return math.NaN(), &Error{Kind: Transfer, Mode: mode,
			Err: fmt.Errorf("read %d samples, expected %d", len(samples), cfg.Steps)}
	}

	return floats.Sum(samples) * h, nil
}

// Name identifies the backend in reports
func (g *Integrator) Name() string {
	return "device"
}
