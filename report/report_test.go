package report

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/notargets/WeierKernel/bench"
	"github.com/notargets/WeierKernel/weierstrass"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *bench.Report {
	base := weierstrass.DefaultConfig()
	ok := bench.Result{Value: 0.5, Elapsed: 20 * time.Millisecond}
	failed := bench.Result{Value: math.NaN(), Err: errors.New("no device")}
	return &bench.Report{
		Backends: []string{"sequential", "parallel", "device"},
		Rows: []bench.Row{
			{Config: base.WithRun(1, 10_000), Results: [3]bench.Result{ok, ok, ok}, Outcome: bench.OK},
			{Config: base.WithRun(20, 100_000), Results: [3]bench.Result{ok, ok, failed}, Outcome: bench.Fail},
		},
	}
}

func TestTableSink(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TableSink{W: &buf}.Write(sampleReport()))

	out := buf.String()
	for _, want := range []string{"config", "sequential", "parallel", "device", "check",
		"n=1, steps=10000", "n=20, steps=100000", "0.500000 (0.020s)", "NaN", "OK", "FAIL"} {
		assert.Contains(t, out, want)
	}
	assert.True(t, strings.HasSuffix(out, "1/2 configurations passed\n"))
}

func TestTableSink_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TableSink{W: &buf}.Write(&bench.Report{Backends: []string{"a", "b", "c"}}))
	assert.Contains(t, buf.String(), "0/0 configurations passed")
}

func TestChartSink(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ChartSink{W: &buf, Title: "timings under test"}.Write(sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "<html")
	assert.Contains(t, out, "timings under test")
	assert.Contains(t, out, "sequential")
	assert.Contains(t, out, "1/2 configurations passed")
}

func TestBarData_FailedIsGap(t *testing.T) {
	data := barData(sampleReport().Rows, 2)
	require.Len(t, data, 2)
	assert.InDelta(t, 0.02, data[0].Value, 1e-12)
	assert.Equal(t, "-", data[1].Value)
}

type failingSink struct{ err error }

func (f failingSink) Write(*bench.Report) error { return f.err }

func TestWriteAll(t *testing.T) {
	var buf bytes.Buffer
	boom := errors.New("boom")

	err := WriteAll(sampleReport(), failingSink{boom}, TableSink{W: &buf})
	assert.ErrorIs(t, err, boom)
	assert.NotEmpty(t, buf.String(), "later sinks still run")

	assert.NoError(t, WriteAll(sampleReport()))
}
