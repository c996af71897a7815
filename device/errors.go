package device

import (
	"errors"
	"fmt"
)

// Sentinel errors for the device backend, matched with errors.Is
var (
	ErrNoDeviceFound = errors.New("no compute device found")
	ErrKernelBuild   = errors.New("kernel build failed")
	ErrDispatch      = errors.New("kernel dispatch failed")
	ErrTransfer      = errors.New("device to host transfer failed")
)

// Kind classifies a device failure by the lifecycle stage it happened in
type Kind int

const (
	NoDeviceFound Kind = iota + 1
	KernelBuild
	Dispatch
	Transfer
)

func (k Kind) String() string {
	switch k {
	case NoDeviceFound:
		return "NoDeviceFound"
	case KernelBuild:
		return "KernelBuildError"
	case Dispatch:
		return "DispatchError"
	case Transfer:
		return "TransferError"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (k Kind) sentinel() error {
	switch k {
	case NoDeviceFound:
		return ErrNoDeviceFound
	case KernelBuild:
		return ErrKernelBuild
	case Dispatch:
		return ErrDispatch
	case Transfer:
		return ErrTransfer
	default:
		return nil
	}
}

// Error is the single error value the device backend returns
type Error struct {
	Kind Kind
	Mode string // OCCA mode, empty before a device is open
	Err  error
}

func (e *Error) Error() string {
	prefix := "device"
	if e.Mode != "" {
		prefix = fmt.Sprintf("device (%s)", e.Mode)
	}
	msg := fmt.Sprintf("%s: %s", prefix, e.Kind.sentinel())
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind's sentinel and the cause
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf returns the Kind of a device error, or 0
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}
