// Package config loads the benchmark description: the series constants, the
// list of runs and the backend options.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/notargets/WeierKernel/bench"
	"github.com/notargets/WeierKernel/device"
	"github.com/notargets/WeierKernel/integrate"
	"github.com/notargets/WeierKernel/runner/builder"
	"github.com/notargets/WeierKernel/utils"
	"github.com/notargets/WeierKernel/weierstrass"
	"gopkg.in/yaml.v3"
)

// Series holds the constants shared by every run
type Series struct {
	A  float64 `yaml:"a"`
	B  float64 `yaml:"b"`
	X0 float64 `yaml:"x0"`
	X1 float64 `yaml:"x1"`
}

// Run is one (terms, steps) pair
type Run struct {
	N     int `yaml:"n"`
	Steps int `yaml:"steps"`
}

type Device struct {
	// Modes are OCCA mode names, optionally with a device id ("opencl:1").
	// Empty means every GPU mode.
	Modes        []string `yaml:"modes,omitempty"`
	Precision    string   `yaml:"precision"`
	BlockSize    int      `yaml:"block_size"`
	HostFallback bool     `yaml:"host_fallback"`
}

type Parallel struct {
	Workers  int    `yaml:"workers"`
	Strategy string `yaml:"strategy"`
	Grain    int    `yaml:"grain"`
}

// File is the on-disk benchmark description
type File struct {
	Series     Series           `yaml:"series"`
	Runs       []Run            `yaml:"runs"`
	Device     Device           `yaml:"device"`
	Parallel   Parallel         `yaml:"parallel"`
	Tolerances bench.Tolerances `yaml:"tolerances"`
	Repeats    int              `yaml:"repeats"`
}

// Default is the standard benchmark: three runs of growing size on the
// default series, single precision on any GPU.
func Default() *File {
	return &File{
		Series: Series{
			A:  weierstrass.DefaultA,
			B:  weierstrass.DefaultB,
			X0: weierstrass.DefaultX0,
			X1: weierstrass.DefaultX1,
		},
		Runs: []Run{
			{N: 1, Steps: 10_000},
			{N: 20, Steps: 100_000},
			{N: 30, Steps: 1_000_000},
		},
		Device: Device{
			Precision: builder.Float32.String(),
			BlockSize: device.DefaultBlockSize,
		},
		Parallel:   Parallel{Strategy: integrate.Static.String()},
		Tolerances: bench.DefaultTolerances(),
		Repeats:    1,
	}
}

// Load reads path over the defaults. Keys absent from the file keep their
// default values; a runs list replaces the default list entirely.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes YAML over the defaults and validates the result
func Parse(data []byte) (*File, error) {
	f := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate checks every run and option so a bad file fails before any
// backend starts
func (f *File) Validate() error {
	if len(f.Runs) == 0 {
		return errors.New("config: no runs")
	}
	for i, c := range f.Configs() {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("config: run %d: %w", i, err)
		}
	}
	if _, err := utils.ParseModes(f.Device.Modes); err != nil {
		return fmt.Errorf("config: device: %w", err)
	}
	if _, err := builder.ParseFloatType(f.Device.Precision); err != nil {
		return fmt.Errorf("config: device: %w", err)
	}
	if f.Device.BlockSize < 0 {
		return fmt.Errorf("config: device: negative block size %d", f.Device.BlockSize)
	}
	if _, err := integrate.ParseStrategy(f.Parallel.Strategy); err != nil {
		return fmt.Errorf("config: parallel: %w", err)
	}
	if !(f.Tolerances.Parallel > 0) || !(f.Tolerances.Device > 0) {
		return fmt.Errorf("config: tolerances must be positive, got %+v", f.Tolerances)
	}
	if f.Repeats < 0 {
		return fmt.Errorf("config: negative repeats %d", f.Repeats)
	}
	return nil
}

// Configs expands the run list into integration configs, in file order
func (f *File) Configs() []weierstrass.Config {
	base := weierstrass.Config{
		A:  f.Series.A,
		B:  f.Series.B,
		X0: f.Series.X0,
		X1: f.Series.X1,
	}
	cfgs := make([]weierstrass.Config, 0, len(f.Runs))
	for _, r := range f.Runs {
		cfgs = append(cfgs, base.WithRun(r.N, r.Steps))
	}
	return cfgs
}

// ParallelOptions translates the parallel section for integrate.Parallel
func (f *File) ParallelOptions() ([]integrate.Option, error) {
	strategy, err := integrate.ParseStrategy(f.Parallel.Strategy)
	if err != nil {
		return nil, err
	}
	return []integrate.Option{
		integrate.WithWorkers(f.Parallel.Workers),
		integrate.WithStrategy(strategy),
		integrate.WithGrain(f.Parallel.Grain),
	}, nil
}

// Integrator builds the device backend described by the device section
func (f *File) Integrator(logger *slog.Logger) (*device.Integrator, error) {
	modes, err := utils.ParseModes(f.Device.Modes)
	if err != nil {
		return nil, err
	}
	if len(modes) == 0 {
		modes = nil
	}
	precision, err := builder.ParseFloatType(f.Device.Precision)
	if err != nil {
		return nil, err
	}
	return &device.Integrator{
		Modes:        modes,
		HostFallback: f.Device.HostFallback,
		Precision:    precision,
		BlockSize:    f.Device.BlockSize,
		Logger:       logger,
	}, nil
}

// Harness assembles the three backends and the run options
func (f *File) Harness(logger *slog.Logger) (*bench.Harness, error) {
	popts, err := f.ParallelOptions()
	if err != nil {
		return nil, err
	}
	dev, err := f.Integrator(logger)
	if err != nil {
		return nil, err
	}
	h := bench.NewHarness(bench.Sequential(), bench.Parallel(popts...), dev)
	h.Tolerances = f.Tolerances
	h.Repeats = f.Repeats
	h.Logger = logger
	return h, nil
}
