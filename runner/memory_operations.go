package runner

import (
	"fmt"
	"unsafe"

	"github.com/notargets/WeierKernel/runner/builder"
	"github.com/notargets/gocca"
)

// CopyBack copies a device array to the host, widening float32 to float64
func (kr *Runner) CopyBack(name string) (host []float64, err error) {
	meta, exists := kr.arrayMetadata[name]
	if !exists {
		return nil, fmt.Errorf("array %s not allocated", name)
	}
	mem := kr.PooledMemory[name]
	if mem == nil {
		return nil, fmt.Errorf("no device memory allocated for %s", name)
	}

	defer func() {
		if r := recover(); r != nil {
			host, err = nil, fmt.Errorf("copy of %s from device failed: %v", name, r)
		}
	}()

	host = make([]float64, meta.Length)
	if err := copyFromDeviceWithTypeConversion(mem, host, meta.DataType); err != nil {
		return nil, fmt.Errorf("failed to copy %s from device: %w", name, err)
	}
	return host, nil
}

// copyFromDeviceWithTypeConversion handles device→host copy into float64
func copyFromDeviceWithTypeConversion(mem *gocca.OCCAMemory, host []float64,
	deviceType builder.DataType) error {
	if len(host) == 0 {
		return nil
	}

	switch deviceType {
	case builder.Float32:
		deviceData := make([]float32, len(host))
		mem.CopyTo(unsafe.Pointer(&deviceData[0]), int64(len(deviceData)*4))
		for i, v := range deviceData {
			host[i] = float64(v)
		}
	case builder.Float64:
		mem.CopyTo(unsafe.Pointer(&host[0]), int64(len(host)*8))
	default:
		return fmt.Errorf("unsupported conversion from device %v to host float64", deviceType)
	}
	return nil
}
