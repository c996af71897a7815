package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/notargets/gocca"
)

// DeviceMode is an OCCA backend and the properties used to open it
type DeviceMode struct {
	Mode     string
	DeviceID int
}

// Props renders the OCCA device properties
func (m DeviceMode) Props() string {
	switch m.Mode {
	case "Serial", "OpenMP":
		return fmt.Sprintf(`{"mode": "%s"}`, m.Mode)
	case "OpenCL":
		return fmt.Sprintf(`{"mode": "OpenCL", "platform_id": 0, "device_id": %d}`, m.DeviceID)
	default:
		return fmt.Sprintf(`{"mode": "%s", "device_id": %d}`, m.Mode, m.DeviceID)
	}
}

// IsGPU reports whether the mode offloads to an accelerator
func (m DeviceMode) IsGPU() bool {
	switch m.Mode {
	case "CUDA", "HIP", "OpenCL", "Metal", "dpcpp":
		return true
	default:
		return false
	}
}

// GPUModes are the accelerator backends, in order of preference
var GPUModes = []DeviceMode{
	{Mode: "CUDA"},
	{Mode: "HIP"},
	{Mode: "OpenCL"},
	{Mode: "Metal"},
}

// HostModes run kernels on the CPU
var HostModes = []DeviceMode{
	{Mode: "OpenMP"},
	{Mode: "Serial"},
}

// ParseModes maps names like "cuda" or "opencl:1" to DeviceModes
func ParseModes(names []string) ([]DeviceMode, error) {
	canonical := map[string]string{
		"serial": "Serial", "openmp": "OpenMP", "cuda": "CUDA",
		"hip": "HIP", "opencl": "OpenCL", "metal": "Metal", "dpcpp": "dpcpp",
	}
	modes := make([]DeviceMode, 0, len(names))
	for _, name := range names {
		mode, id, _ := strings.Cut(name, ":")
		canon, ok := canonical[strings.ToLower(strings.TrimSpace(mode))]
		if !ok {
			return nil, fmt.Errorf("unknown device mode %q", name)
		}
		dm := DeviceMode{Mode: canon}
		if id != "" {
			if _, err := fmt.Sscanf(id, "%d", &dm.DeviceID); err != nil {
				return nil, fmt.Errorf("bad device id in %q: %w", name, err)
			}
		}
		modes = append(modes, dm)
	}
	return modes, nil
}

// OpenFirstDevice opens the first mode that OCCA accepts. A device whose
// reported mode differs from the requested one (OCCA's Serial fallback) is
// released and skipped. On failure the per-mode errors are joined.
func OpenFirstDevice(modes []DeviceMode) (*gocca.OCCADevice, error) {
	var errs []error
	for _, m := range modes {
		device, err := gocca.NewDevice(m.Props())
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", m.Mode, err))
			continue
		}
		if !strings.EqualFold(device.Mode(), m.Mode) {
			errs = append(errs, fmt.Errorf("%s: opened as %s", m.Mode, device.Mode()))
			device.Free()
			continue
		}
		return device, nil
	}
	if len(errs) == 0 {
		return nil, errors.New("no device modes to try")
	}
	return nil, errors.Join(errs...)
}

// CreateTestDevice creates a Device for testing, preferring parallel backends
func CreateTestDevice() (*gocca.OCCADevice, error) {
	modes := []DeviceMode{{Mode: "OpenMP"}, {Mode: "CUDA"}, {Mode: "Serial"}}
	return OpenFirstDevice(modes)
}
