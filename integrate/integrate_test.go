package integrate

import (
	"fmt"
	"math"
	"testing"

	"github.com/notargets/WeierKernel/weierstrass"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func canonical(n, steps int) weierstrass.Config {
	return weierstrass.DefaultConfig().WithRun(n, steps)
}

func TestSequential_Deterministic(t *testing.T) {
	cfg := canonical(20, 20_000)
	first := Sequential(cfg)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, Sequential(cfg))
	}
}

func TestSequential_MatchesSampleSum(t *testing.T) {
	cfg := canonical(5, 1000)
	values := make([]float64, cfg.Steps)
	for i := range values {
		values[i] = cfg.SampleAt(i).Value
	}
	assert.InDelta(t, floats.Sum(values)*cfg.H(), Sequential(cfg), 1e-12)
}

func TestSequential_SingleTermIsCosine(t *testing.T) {
	// f(x) = cos(pi x) integrates to sin(pi x)/pi over any interval
	cfg := weierstrass.Config{A: 0.5, B: 30, N: 1, X0: 0, X1: 0.5, Steps: 10_000}
	want := math.Sin(math.Pi*0.5) / math.Pi
	assert.InDelta(t, want, Sequential(cfg), MidpointErrorBound(cfg)+1e-12)
}

func TestSequential_Convergence(t *testing.T) {
	// both terms of the n=2 series integrate to zero over [0,1]
	coarse := canonical(2, 10_000)
	fine := canonical(2, 1_000_000)

	sc := Sequential(coarse)
	sf := Sequential(fine)

	assert.LessOrEqual(t, math.Abs(sc), MidpointErrorBound(coarse)+1e-12)
	assert.LessOrEqual(t, math.Abs(sf), MidpointErrorBound(fine)+1e-12)
	assert.LessOrEqual(t, math.Abs(sc-sf), MidpointErrorBound(coarse)+MidpointErrorBound(fine)+1e-12)
}

func TestSequential_ConvergenceDefaultSeries(t *testing.T) {
	// the a-priori bound is far too loose at n=20; the grids differ by ~5.9e-5
	sc := Sequential(canonical(20, 10_000))
	sf := Sequential(canonical(20, 1_000_000))
	assert.Less(t, math.Abs(sc-sf), 1e-4)
	assert.Less(t, math.Abs(sf), 1e-3)
}

// sequential32 sums the single precision kernel's samples the way the
// device integrator does: float32 midpoints and terms, float64 reduction
func sequential32(cfg weierstrass.Config) float64 {
	h := float32(cfg.H())
	x0, a, b := float32(cfg.X0), float32(cfg.A), float32(cfg.B)
	sum := 0.0
	for i := 0; i < cfg.Steps; i++ {
		x := x0 + h*(float32(i)+0.5)
		sum += float64(weierstrass.Eval32(x, a, b, cfg.N))
	}
	return sum * cfg.H()
}

func TestSinglePrecisionAgreement(t *testing.T) {
	testCases := []struct {
		n     int
		agree bool
	}{
		{1, true},
		{3, true},
		{5, true},
		// terms from k=5 on exceed the float32 mantissa and lose their phase
		{20, false},
	}

	for _, tc := range testCases {
		cfg := canonical(tc.n, weierstrass.DefaultSteps)
		t.Run(cfg.Label(), func(t *testing.T) {
			delta := math.Abs(Sequential(cfg) - sequential32(cfg))
			if tc.agree {
				assert.Less(t, delta, 1e-5)
			} else {
				assert.Greater(t, delta, 1e-4)
			}
		})
	}
}

func TestParallel_MatchesSequential(t *testing.T) {
	testCases := []struct {
		n, steps int
	}{
		{1, 1000},
		{5, 10_000},
		{20, 100_000},
		{30, 100_003},
	}
	strategies := []Strategy{Static, Dynamic}

	for _, tc := range testCases {
		cfg := canonical(tc.n, tc.steps)
		seq := Sequential(cfg)
		for _, s := range strategies {
			t.Run(fmt.Sprintf("%s/%s", cfg.Label(), s), func(t *testing.T) {
				par := Parallel(cfg, WithStrategy(s), WithGrain(777))
				assert.Less(t, math.Abs(seq-par), 1e-6)
			})
		}
	}
}

func TestParallel_SingleTermNearMachinePrecision(t *testing.T) {
	cfg := weierstrass.Config{A: 0.5, B: 30, N: 1, X0: 0, X1: 1, Steps: 10_000}
	assert.InDelta(t, Sequential(cfg), Parallel(cfg), 1e-9)
	assert.InDelta(t, Sequential(cfg), Parallel(cfg, WithStrategy(Dynamic)), 1e-9)
}

func TestParallel_IndependentOfWorkerCount(t *testing.T) {
	cfg := canonical(10, 50_000)
	seq := Sequential(cfg)
	for _, w := range []int{1, 2, 3, 7, 64} {
		assert.InDelta(t, seq, Parallel(cfg, WithWorkers(w)), 1e-9, "workers=%d", w)
	}
}

func TestParallel_DynamicIsDeterministic(t *testing.T) {
	cfg := canonical(20, 30_000)
	first := Parallel(cfg, WithStrategy(Dynamic), WithGrain(100), WithWorkers(8))
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Parallel(cfg, WithStrategy(Dynamic), WithGrain(100), WithWorkers(8)))
	}
}

func TestParallel_FewerStepsThanWorkers(t *testing.T) {
	cfg := canonical(3, 3)
	assert.InDelta(t, Sequential(cfg), Parallel(cfg, WithWorkers(16)), 1e-15)
}

func TestParallel_PanicPropagates(t *testing.T) {
	saved := rangeSum
	defer func() { rangeSum = saved }()
	rangeSum = func(cfg weierstrass.Config, start, end int) float64 {
		if start == 0 {
			panic("boom")
		}
		return SumRange(cfg, start, end)
	}

	for _, s := range []Strategy{Static, Dynamic} {
		t.Run(s.String(), func(t *testing.T) {
			defer func() {
				r := recover()
				require.NotNil(t, r, "expected panic")
				tp, ok := r.(*TaskPanic)
				require.True(t, ok, "expected *TaskPanic, got %T", r)
				assert.Equal(t, "boom", tp.Value)
			}()
			Parallel(canonical(2, 10_000), WithStrategy(s), WithWorkers(4))
		})
	}
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("dynamic")
	require.NoError(t, err)
	assert.Equal(t, Dynamic, s)

	s, err = ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, Static, s)

	_, err = ParseStrategy("stealing")
	assert.Error(t, err)
}

func BenchmarkSequential(b *testing.B) {
	cfg := canonical(20, 100_000)
	for i := 0; i < b.N; i++ {
		Sequential(cfg)
	}
}

func BenchmarkParallel(b *testing.B) {
	cfg := canonical(20, 100_000)
	for _, s := range []Strategy{Static, Dynamic} {
		b.Run(s.String(), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				Parallel(cfg, WithStrategy(s))
			}
		})
	}
}
