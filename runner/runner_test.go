package runner

import (
	"fmt"
	"testing"

	"github.com/notargets/WeierKernel/runner/builder"
	"github.com/notargets/WeierKernel/utils"
	"github.com/notargets/gocca"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDevice(t *testing.T) *gocca.OCCADevice {
	t.Helper()
	device, err := utils.CreateTestDevice()
	if err != nil {
		t.Skipf("no OCCA device available: %v", err)
	}
	t.Cleanup(device.Free)
	return device
}

func TestNewRunner_NilDevice(t *testing.T) {
	assert.Panics(t, func() { NewRunner(nil, builder.Config{K: []int{10}}) })
}

func TestGetKernelSignature(t *testing.T) {
	// the signature only depends on allocated names, no device needed
	kr := &Runner{
		Builder:         builder.NewBuilder(builder.Config{K: []int{4}}),
		AllocatedArrays: []string{"out"},
	}
	sig := kr.GetKernelSignature(ScalarSpec{Name: "scale"}, ScalarSpec{Name: "n", IsInt: true})
	assert.Equal(t, "const int_t* K,\n\treal_t* out,\n\tconst real_t scale,\n\tconst int_t n", sig)

	args := kr.GetKernelArguments()
	require.Len(t, args, 2)
	assert.Equal(t, "system", args[0].Category)
	assert.Equal(t, "array", args[1].Category)
}

func TestRunner_ScalarConversion(t *testing.T) {
	kr := &Runner{Builder: builder.NewBuilder(builder.Config{
		K: []int{1}, FloatType: builder.Float32, IntType: builder.INT32,
	})}
	assert.Equal(t, float32(1.5), kr.Real(1.5))
	assert.Equal(t, int32(3), kr.Int(3))

	kr = &Runner{Builder: builder.NewBuilder(builder.Config{K: []int{1}})}
	assert.Equal(t, 1.5, kr.Real(1.5))
	assert.Equal(t, int64(3), kr.Int(3))
}

func TestRunner_ExecuteAndCopyBack(t *testing.T) {
	device := testDevice(t)

	for _, ft := range []builder.DataType{builder.Float32, builder.Float64} {
		t.Run(ft.String(), func(t *testing.T) {
			// 10 samples in blocks of 4: K = {4, 4, 2}
			kr := NewRunner(device, builder.Config{
				K:         []int{4, 4, 2},
				FloatType: ft,
				IntType:   builder.INT32,
			})
			defer kr.Free()

			require.NoError(t, kr.AllocateArray("out"))
			assert.Error(t, kr.AllocateArray("out"))

			assert.Equal(t, []string{"out"}, kr.AllocatedArrays)

			src := fmt.Sprintf(`
@kernel void fill(
	%s
) {
	for (int part = 0; part < NPART; ++part; @outer) {
		for (int elem = 0; elem < KpartMax; ++elem; @inner) {
			if (elem < K[part]) {
				const int_t i = part * KpartMax + elem;
				out[i] = scale * (real_t) i;
			}
		}
	}
}`, kr.GetKernelSignature(ScalarSpec{Name: "scale"}))

			_, err := kr.BuildKernel(src, "fill")
			require.NoError(t, err)
			require.NoError(t, kr.ExecuteKernel("fill", kr.Real(0.5)))

			host, err := kr.CopyBack("out")
			require.NoError(t, err)
			require.Len(t, host, 10)
			for i, v := range host {
				assert.Equal(t, 0.5*float64(i), v, "sample %d", i)
			}
		})
	}
}

func TestRunner_Errors(t *testing.T) {
	device := testDevice(t)

	kr := NewRunner(device, builder.Config{K: []int{2}})
	defer kr.Free()

	assert.Error(t, kr.ExecuteKernel("missing"))

	_, err := kr.CopyBack("missing")
	assert.Error(t, err)

	_, err = kr.BuildKernel("@kernel void broken(", "broken")
	assert.Error(t, err)
}
