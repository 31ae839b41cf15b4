// Package cpu implements the pure-Go CPU backend. Kernels compute in
// float32; large elementwise loops are partitioned across goroutines and the
// matrix product goes through gonum's blas32 GEMM.
package cpu

import (
	"runtime"
	"sync/atomic"

	"github.com/weft-ml/weft/internal/backend"
	"github.com/weft-ml/weft/internal/tensor"
)

func init() {
	backend.Register(backend.CPU, func(id backend.DeviceID, seed uint64) (backend.Backend, error) {
		return New(id, seed), nil
	})
}

// Backend is the CPU compute target. The zero ordinal is the only device.
type Backend struct {
	id      backend.DeviceID
	seed    uint64
	workers int

	clip       atomicFloat32
	allocBytes atomic.Uint64
}

// New creates a CPU backend with the given device handle and RNG seed.
func New(id backend.DeviceID, seed uint64) *Backend {
	return &Backend{
		id:      id,
		seed:    seed,
		workers: runtime.GOMAXPROCS(0),
	}
}

// DeviceID returns the backend's device handle.
func (b *Backend) DeviceID() backend.DeviceID { return b.id }

// SetDevice is a no-op: the CPU has no device-selection concept.
func (b *Backend) SetDevice() error { return nil }

// Synchronize is a no-op: CPU kernels complete before returning.
func (b *Backend) Synchronize() error { return nil }

// SetClip configures the global matrix-multiply operand clip value.
func (b *Backend) SetClip(v float32) { b.clip.Store(v) }

// Clip returns the current matrix-multiply clip value.
func (b *Backend) Clip() float32 { return b.clip.Load() }

// Seed returns the RNG seed the backend was constructed with.
func (b *Backend) Seed() uint64 { return b.seed }

// Alloc allocates a zero-filled owning tensor and accounts for its bytes.
func (b *Backend) Alloc(shape tensor.Shape, dtype tensor.DataType) (*tensor.Tensor, error) {
	t := tensor.New(shape, dtype)
	b.allocBytes.Add(uint64(t.ByteSize()))
	return t, nil
}

// Free releases an owning tensor. Aliases are not accounted and not freed.
func (b *Backend) Free(t *tensor.Tensor) {
	if t == nil || t.IsAlias() {
		return
	}
	b.allocBytes.Add(^uint64(t.ByteSize() - 1))
}

// AllocBytes reports the bytes currently allocated through this backend.
func (b *Backend) AllocBytes() uint64 { return b.allocBytes.Load() }
