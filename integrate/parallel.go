package integrate

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync/atomic"

	"github.com/notargets/WeierKernel/partitions"
	"github.com/notargets/WeierKernel/weierstrass"
	"golang.org/x/sync/errgroup"
)

// Strategy selects how samples are handed to workers
type Strategy int

const (
	// Static gives each worker one contiguous balanced chunk
	Static Strategy = iota
	// Dynamic cuts fixed-grain blocks that idle workers claim in turn
	Dynamic
)

// DefaultGrain is the Dynamic block size when none is given
const DefaultGrain = 4096

func (s Strategy) String() string {
	switch s {
	case Static:
		return "static"
	case Dynamic:
		return "dynamic"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy maps "static" or "dynamic" to a Strategy
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "", "static":
		return Static, nil
	case "dynamic":
		return Dynamic, nil
	default:
		return 0, fmt.Errorf("unknown parallel strategy %q", s)
	}
}

type options struct {
	workers  int
	strategy Strategy
	grain    int
}

// Option configures Parallel
type Option func(*options)

// WithWorkers caps the number of worker goroutines; n <= 0 means GOMAXPROCS
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithStrategy selects Static or Dynamic scheduling
func WithStrategy(s Strategy) Option {
	return func(o *options) { o.strategy = s }
}

// WithGrain sets the Dynamic block size; n <= 0 means DefaultGrain
func WithGrain(n int) Option {
	return func(o *options) { o.grain = n }
}

// rangeSum is the per-task body, replaceable in tests
var rangeSum = SumRange

// Parallel integrates cfg across a pool of workers. Each task sums a
// contiguous run of samples into its own slot and the slots are added in
// partition order, so the result does not depend on scheduling. It differs
// from Sequential only by summation grouping. A panic in any task is
// re-raised on the calling goroutine after the remaining tasks stop.
func Parallel(cfg weierstrass.Config, opts ...Option) float64 {
	o := options{strategy: Static}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers <= 0 {
		o.workers = runtime.GOMAXPROCS(0)
	}
	if o.grain <= 0 {
		o.grain = DefaultGrain
	}

	var (
		layout *partitions.Layout
		err    error
	)
	switch o.strategy {
	case Dynamic:
		layout, err = partitions.NewBlockLayout(cfg.Steps, o.grain)
	default:
		layout, err = partitions.NewBalancedLayout(cfg.Steps, o.workers)
	}
	if err != nil {
		panic(fmt.Errorf("parallel integration of %s: %w", cfg.Label(), err))
	}

	partials := make([]float64, layout.NumPartitions)
	g, ctx := errgroup.WithContext(context.Background())

	if o.strategy == Dynamic {
		var cursor atomic.Int64
		for w := 0; w < min(o.workers, layout.NumPartitions); w++ {
			g.Go(func() error {
				for ctx.Err() == nil {
					next := int(cursor.Add(1)) - 1
					if next >= layout.NumPartitions {
						return nil
					}
					p := layout.Partitions[next]
					if err := guard(func() { partials[p.ID] = rangeSum(cfg, p.Start, p.End()) }); err != nil {
						return err
					}
				}
				return nil
			})
		}
	} else {
		for _, p := range layout.Partitions {
			g.Go(func() error {
				return guard(func() { partials[p.ID] = rangeSum(cfg, p.Start, p.End()) })
			})
		}
	}

	if err := g.Wait(); err != nil {
		panic(err)
	}

	total := 0.0
	for _, v := range partials {
		total += v
	}
	return total * cfg.H()
}

// TaskPanic carries a recovered worker panic back to the caller
type TaskPanic struct {
	Value any
	Stack []byte
}

func (tp *TaskPanic) Error() string {
	return fmt.Sprintf("parallel task panicked: %v\n%s", tp.Value, tp.Stack)
}

func guard(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &TaskPanic{Value: r, Stack: debug.Stack()}
		}
	}()
	fn()
	return nil
}
