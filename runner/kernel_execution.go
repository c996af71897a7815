package runner

import (
	"fmt"
	"strings"
)

// KernelArgument describes one positional kernel argument
type KernelArgument struct {
	Name      string
	Type      string
	MemoryKey string
	IsConst   bool
	Category  string // "system", "array" or "scalar"
}

// GetKernelArguments returns the argument order used by ExecuteKernel:
// K first, then arrays in allocation order, then the named scalars
func (kr *Runner) GetKernelArguments(scalars ...ScalarSpec) []KernelArgument {
	args := []KernelArgument{{
		Name:      "K",
		Type:      "int_t*",
		MemoryKey: "K",
		IsConst:   true,
		Category:  "system",
	}}

	for _, name := range kr.AllocatedArrays {
		args = append(args, KernelArgument{
			Name:      name,
			Type:      "real_t*",
			MemoryKey: name,
			Category:  "array",
		})
	}

	for _, s := range scalars {
		typeStr := "real_t"
		if s.IsInt {
			typeStr = "int_t"
		}
		args = append(args, KernelArgument{
			Name:     s.Name,
			Type:     typeStr,
			IsConst:  true,
			Category: "scalar",
		})
	}
	return args
}

// ScalarSpec names a scalar kernel parameter
type ScalarSpec struct {
	Name  string
	IsInt bool
}

// GetKernelSignature renders the parameter list for an OKL @kernel
func (kr *Runner) GetKernelSignature(scalars ...ScalarSpec) string {
	args := kr.GetKernelArguments(scalars...)
	params := make([]string, 0, len(args))
	for _, karg := range args {
		constStr := ""
		if karg.IsConst {
			constStr = "const "
		}
		params = append(params, fmt.Sprintf("%s%s %s", constStr, karg.Type, karg.Name))
	}
	return strings.Join(params, ",\n\t")
}

// ExecuteKernel runs a compiled kernel and blocks until the device is done.
// Scalars are passed after the arrays and must already have device types
// (see Real and Int).
func (kr *Runner) ExecuteKernel(name string, scalarValues ...interface{}) error {
	kernel, exists := kr.Kernels[name]
	if !exists {
		return fmt.Errorf("kernel %s not compiled - use BuildKernel first", name)
	}

	args := make([]interface{}, 0, 1+len(kr.AllocatedArrays)+len(scalarValues))
	kMem, exists := kr.PooledMemory["K"]
	if !exists {
		return fmt.Errorf("system memory K not found")
	}
	args = append(args, kMem)
	for _, arrayName := range kr.AllocatedArrays {
		mem, exists := kr.PooledMemory[arrayName]
		if !exists {
			return fmt.Errorf("memory for %s not found", arrayName)
		}
		args = append(args, mem)
	}
	args = append(args, scalarValues...)

	if err := kernel.RunWithArgs(args...); err != nil {
		return fmt.Errorf("kernel execution failed: %w", err)
	}

	kr.Device.Finish()
	return nil
}
