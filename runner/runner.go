package runner

import (
	"fmt"
	"unsafe"

	"github.com/notargets/WeierKernel/runner/builder"
	"github.com/notargets/gocca"
)

// ArrayMetadata stores information about allocated arrays
type ArrayMetadata struct {
	Length   int
	DataType builder.DataType
}

// Runner orchestrates kernel compilation and execution over a partitioned
// sample range. Arrays hold one value per sample and are passed to kernels
// after the K array, in allocation order, followed by the scalars.
type Runner struct {
	*builder.Builder
	Device          *gocca.OCCADevice
	Kernels         map[string]*gocca.OCCAKernel
	PooledMemory    map[string]*gocca.OCCAMemory
	AllocatedArrays []string
	arrayMetadata   map[string]ArrayMetadata
}

// NewRunner creates a new Runner instance and uploads the K array
func NewRunner(device *gocca.OCCADevice, cfg builder.Config) (kr *Runner) {
	if device == nil {
		panic("runner requires a device")
	}
	bld := builder.NewBuilder(cfg)

	if bld.KpartMax > 1048576 { // 2^20 samples
		panic(fmt.Sprintf("KpartMax exceeds 2^20 (1048576), found KpartMax=%d. "+
			"Reduce the partition block size.", bld.KpartMax))
	}

	kr = &Runner{
		Builder:       bld,
		Device:        device,
		Kernels:       make(map[string]*gocca.OCCAKernel),
		PooledMemory:  make(map[string]*gocca.OCCAMemory),
		arrayMetadata: make(map[string]ArrayMetadata),
	}

	var kMem *gocca.OCCAMemory
	kBytes := int64(len(bld.K) * bld.GetIntSize())
	if bld.IntType == builder.INT32 {
		k32 := make([]int32, len(bld.K))
		for i, v := range bld.K {
			k32[i] = int32(v)
		}
		kMem = device.Malloc(kBytes, unsafe.Pointer(&k32[0]), nil)
	} else {
		k64 := make([]int64, len(bld.K))
		for i, v := range bld.K {
			k64[i] = int64(v)
		}
		kMem = device.Malloc(kBytes, unsafe.Pointer(&k64[0]), nil)
	}
	kr.PooledMemory["K"] = kMem
	return
}

// BuildKernel compiles and registers a kernel with the program
func (kr *Runner) BuildKernel(kernelSource, kernelName string) (*gocca.OCCAKernel, error) {
	kr.GeneratePreamble()

	// Combine preamble with kernel source
	fullSource := kr.KernelPreamble + "\n" + kernelSource

	var kernel *gocca.OCCAKernel
	var err error

	if kr.Device.Mode() == "OpenMP" {
		// Workaround for OCCA bug: OpenMP doesn't get default -O3 flag
		props := gocca.JsonParse(`{"compiler_flags": "-O3"}`)
		defer props.Free()
		kernel, err = kr.Device.BuildKernelFromString(fullSource, kernelName, props)
	} else {
		kernel, err = kr.Device.BuildKernelFromString(fullSource, kernelName, nil)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to build kernel %s: %w", kernelName, err)
	}
	if kernel == nil {
		return nil, fmt.Errorf("kernel build returned nil for %s", kernelName)
	}

	kr.Kernels[kernelName] = kernel
	return kernel, nil
}

// AllocateArray allocates a device array with one real_t per sample
func (kr *Runner) AllocateArray(name string) error {
	if _, exists := kr.PooledMemory[name]; exists {
		return fmt.Errorf("array %s already allocated", name)
	}
	length := kr.GetTotalElements()
	bytes := int64(length * kr.GetFloatSize())

	mem := kr.Device.Malloc(bytes, nil, nil)
	if mem == nil {
		return fmt.Errorf("device allocation of %d bytes for %s failed", bytes, name)
	}
	kr.PooledMemory[name] = mem
	kr.AllocatedArrays = append(kr.AllocatedArrays, name)
	kr.arrayMetadata[name] = ArrayMetadata{
		Length:   length,
		DataType: kr.FloatType,
	}
	return nil
}

// Real converts a host value to the kernel's real_t
func (kr *Runner) Real(v float64) interface{} {
	if kr.FloatType == builder.Float32 {
		return float32(v)
	}
	return v
}

// Int converts a host value to the kernel's int_t
func (kr *Runner) Int(v int) interface{} {
	if kr.IntType == builder.INT32 {
		return int32(v)
	}
	return int64(v)
}

// Free releases all resources. The device itself belongs to the caller.
func (kr *Runner) Free() {
	for _, kernel := range kr.Kernels {
		kernel.Free()
	}
	for _, mem := range kr.PooledMemory {
		mem.Free()
	}
	kr.Kernels = make(map[string]*gocca.OCCAKernel)
	kr.PooledMemory = make(map[string]*gocca.OCCAMemory)
}
