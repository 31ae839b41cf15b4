// Package backend defines the device abstraction the expression graph
// dispatches through: an opaque device handle, a matrix-multiply clipping
// configuration, device selection/synchronization primitives, and the kernel
// library every operator variant calls into.
//
// Concrete implementations live in subpackages (cpu, webgpu) and register
// themselves at init time; call sites resolve a backend through the factory:
//
//	be, err := backend.FromConfig("cpu", 42)
//
// New compute targets implement the same contract and register — no call
// site changes.
package backend

import (
	"fmt"

	"github.com/weft-ml/weft/internal/tensor"
)

// DeviceType identifies a kind of compute target.
type DeviceType int

// Registered device types.
const (
	CPU DeviceType = iota
	WebGPU
)

// String returns the config-string name of the device type.
func (dt DeviceType) String() string {
	switch dt {
	case CPU:
		return "cpu"
	case WebGPU:
		return "webgpu"
	default:
		return "unknown"
	}
}

// DeviceID is the opaque device handle: a device type plus an ordinal for
// backends that expose several devices of the same type.
type DeviceID struct {
	Type    DeviceType
	Ordinal int
}

// String renders the handle in config-string form, e.g. "webgpu:0".
func (id DeviceID) String() string {
	return fmt.Sprintf("%s:%d", id.Type, id.Ordinal)
}

// Backend is the contract every compute target implements. A backend owns a
// device handle, an RNG seed, and a global clip value applied to
// matrix-multiply operands; it allocates and frees device-resident tensors
// and provides the kernel library.
type Backend interface {
	// DeviceID returns the backend's opaque device handle.
	DeviceID() DeviceID

	// SetDevice makes this backend's device the active compute target for
	// subsequent kernel dispatch. No-op on backends without a
	// device-selection concept (the CPU).
	SetDevice() error

	// Synchronize blocks until all outstanding asynchronous work on the
	// device has completed. Values and gradients may only be read after a
	// Synchronize.
	Synchronize() error

	// SetClip configures the global scalar that clamps matrix-multiply
	// operand magnitudes. Zero disables clipping. The value applies
	// uniformly to every MatMul dispatch, not per-node.
	SetClip(v float32)

	// Clip returns the current matrix-multiply clip value.
	Clip() float32

	// Seed returns the RNG seed the backend was constructed with.
	Seed() uint64

	// Alloc allocates a zero-filled owning tensor on this device.
	Alloc(shape tensor.Shape, dtype tensor.DataType) (*tensor.Tensor, error)

	// Free releases an owning tensor allocated by this backend. Freeing an
	// aliasing tensor is a no-op.
	Free(t *tensor.Tensor)

	// AllocBytes reports the bytes currently allocated through this backend.
	AllocBytes() uint64

	Kernels
}
