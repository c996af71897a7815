// Command weierbench integrates the Weierstrass partial sum on the host and
// on an OCCA device, prints the timings and checks the backends agree.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/notargets/WeierKernel/config"
	"github.com/notargets/WeierKernel/report"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var errChecksFailed = errors.New("one or more configurations failed validation")

type runFlags struct {
	configPath   string
	logLevel     string
	modes        []string
	hostFallback bool
	precision    string
	blockSize    int
	strategy     string
	workers      int
	repeats      int
	chartPath    string
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "weierbench",
		Short:         "Weierstrass integral benchmark: sequential, parallel and device",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	var rf runFlags
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run every configuration through the three backends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rf)
		},
	}
	flags := runCmd.Flags()
	flags.StringVarP(&rf.configPath, "config", "c", "", "benchmark YAML file (default: built-in runs)")
	flags.StringVar(&rf.logLevel, "log-level", "info", "trace, debug, info, warn or error")
	flags.StringSliceVar(&rf.modes, "modes", nil, "OCCA device modes to try, e.g. cuda,opencl:1")
	flags.BoolVar(&rf.hostFallback, "host-fallback", false, "also try the OpenMP and Serial host modes")
	flags.StringVar(&rf.precision, "precision", "", "device precision, float32 or float64")
	flags.IntVar(&rf.blockSize, "block-size", 0, "device inner loop size")
	flags.StringVar(&rf.strategy, "strategy", "", "parallel scheduling, static or dynamic")
	flags.IntVar(&rf.workers, "workers", 0, "parallel worker count (0: GOMAXPROCS)")
	flags.IntVar(&rf.repeats, "repeats", 0, "runs per backend per configuration")
	flags.StringVar(&rf.chartPath, "chart", "", "also write an HTML timing chart to this file")

	defaultsCmd := &cobra.Command{
		Use:   "defaults",
		Short: "Print the built-in benchmark file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			defer enc.Close()
			return enc.Encode(config.Default())
		},
	}

	rootCmd.AddCommand(runCmd, defaultsCmd)
	return rootCmd
}

func loadConfig(cmd *cobra.Command, rf runFlags) (*config.File, error) {
	f := config.Default()
	if rf.configPath != "" {
		var err error
		if f, err = config.Load(rf.configPath); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("modes") {
		f.Device.Modes = rf.modes
	}
	if flags.Changed("host-fallback") {
		f.Device.HostFallback = rf.hostFallback
	}
	if flags.Changed("precision") {
		f.Device.Precision = rf.precision
	}
	if flags.Changed("block-size") {
		f.Device.BlockSize = rf.blockSize
	}
	if flags.Changed("strategy") {
		f.Parallel.Strategy = rf.strategy
	}
	if flags.Changed("workers") {
		f.Parallel.Workers = rf.workers
	}
	if flags.Changed("repeats") {
		f.Repeats = rf.repeats
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func run(cmd *cobra.Command, rf runFlags) error {
	level, err := ParseLevel(rf.logLevel)
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), level)

	f, err := loadConfig(cmd, rf)
	if err != nil {
		return err
	}
	h, err := f.Harness(logger)
	if err != nil {
		return err
	}

	rep := h.Run(f.Configs())

	sinks := []report.Sink{report.TableSink{W: cmd.OutOrStdout()}}
	if rf.chartPath != "" {
		out, err := os.Create(rf.chartPath)
		if err != nil {
			return fmt.Errorf("create chart: %w", err)
		}
		defer out.Close()
		sinks = append(sinks, report.ChartSink{W: out})
	}
	if err := report.WriteAll(rep, sinks...); err != nil {
		return err
	}

	if !rep.Passed() {
		return errChecksFailed
	}
	return nil
}
