// Package webgpu implements the GPU backend on top of go-webgpu
// (github.com/go-webgpu/webgpu), zero-CGO WebGPU bindings. The elementwise
// kernel family runs as WGSL compute shaders; kernels without a shader yet
// delegate to the CPU implementation behind the same contract, so a graph
// runs unmodified either way.
package webgpu

import (
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/weft-ml/weft/internal/backend"
	"github.com/weft-ml/weft/internal/backend/cpu"
	"github.com/weft-ml/weft/internal/tensor"
)

func init() {
	backend.Register(backend.WebGPU, func(id backend.DeviceID, seed uint64) (backend.Backend, error) {
		return New(id, seed)
	})
}

// Backend is the WebGPU compute target. Tensors stay host-resident; each
// dispatch stages its operands into device buffers and reads the result
// back, which also serves as the completion fence.
type Backend struct {
	id   backend.DeviceID
	host *cpu.Backend // allocation, accounting and non-shader kernels

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	mu        sync.RWMutex
	shaders   map[string]*wgpu.ShaderModule
	pipelines map[string]*wgpu.ComputePipeline
}

// New creates a WebGPU backend for the given device handle and seed.
// Initialization failure (no native library, adapter or device) surfaces as
// ErrDevice from the factory.
func New(id backend.DeviceID, seed uint64) (b *Backend, err error) {
	// The native wgpu library panics when absent; turn that into ErrDevice.
	defer func() {
		if r := recover(); r != nil {
			b = nil
			err = errors.Wrapf(backend.ErrDevice, "webgpu: native library not available: %v", r)
		}
	}()

	instance, instanceErr := wgpu.CreateInstance(nil)
	if instanceErr != nil {
		return nil, errors.Wrapf(backend.ErrDevice, "webgpu: no instance: %v", instanceErr)
	}
	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		instance.Release()
		return nil, errors.Wrapf(backend.ErrDevice, "webgpu: no adapter: %v", adapterErr)
	}

	device, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		adapter.Release()
		instance.Release()
		return nil, errors.Wrapf(backend.ErrDevice, "webgpu: no device: %v", deviceErr)
	}
	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, errors.Wrap(backend.ErrDevice, "webgpu: no queue")
	}

	info, infoErr := adapter.GetInfo()
	if infoErr == nil {
		klog.V(1).Infof("webgpu: adapter %q (%d)", info.Device, info.BackendType)
	}

	return &Backend{
		id:        id,
		host:      cpu.New(backend.DeviceID{Type: backend.CPU}, seed),
		instance:  instance,
		adapter:   adapter,
		device:    device,
		queue:     queue,
		shaders:   make(map[string]*wgpu.ShaderModule),
		pipelines: make(map[string]*wgpu.ComputePipeline),
	}, nil
}

// DeviceID returns the backend's device handle.
func (b *Backend) DeviceID() backend.DeviceID { return b.id }

// SetDevice is a no-op: WebGPU binds the device at initialization.
func (b *Backend) SetDevice() error { return nil }

// Synchronize blocks until all submitted GPU work has completed, by mapping
// a fence buffer: MapAsync resolves only after every prior queue submission.
func (b *Backend) Synchronize() error {
	fence := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  4,
	})
	defer fence.Release()
	if err := fence.MapAsync(b.device, wgpu.MapModeRead, 0, 4); err != nil {
		return errors.Wrapf(backend.ErrDevice, "webgpu: synchronize: %v", err)
	}
	fence.Unmap()
	return nil
}

// SetClip configures the global matrix-multiply operand clip value.
func (b *Backend) SetClip(v float32) { b.host.SetClip(v) }

// Clip returns the current matrix-multiply clip value.
func (b *Backend) Clip() float32 { return b.host.Clip() }

// Seed returns the RNG seed the backend was constructed with.
func (b *Backend) Seed() uint64 { return b.host.Seed() }

// Alloc allocates a host-staged tensor and accounts for its bytes.
func (b *Backend) Alloc(shape tensor.Shape, dtype tensor.DataType) (*tensor.Tensor, error) {
	return b.host.Alloc(shape, dtype)
}

// Free releases an owning tensor allocated by this backend.
func (b *Backend) Free(t *tensor.Tensor) { b.host.Free(t) }

// AllocBytes reports the bytes currently allocated through this backend.
func (b *Backend) AllocBytes() uint64 { return b.host.AllocBytes() }

// Release frees the GPU resources. The backend is invalid afterwards.
func (b *Backend) Release() {
	b.queue.Release()
	b.device.Release()
	b.adapter.Release()
	b.instance.Release()
}

// Kernels without a WGSL shader delegate to the CPU implementation; the
// contract is identical, only the execution target differs.

// Copy copies src into dst.
func (b *Backend) Copy(dst, src *tensor.Tensor) error { return b.host.Copy(dst, src) }

// Reduce computes out = scale · Σ in over the collapsed axes.
func (b *Backend) Reduce(out, in *tensor.Tensor, scale float32) error {
	return b.host.Reduce(out, in, scale)
}

// AddBroadcast accumulates out += scale · broadcast(in).
func (b *Backend) AddBroadcast(out, in *tensor.Tensor, scale float32) error {
	return b.host.AddBroadcast(out, in, scale)
}

// MatMul computes the (optionally transposed, accumulating) matrix product.
func (b *Backend) MatMul(out, a, c *tensor.Tensor, transA, transB, acc bool) error {
	return b.host.MatMul(out, a, c, transA, transB, acc)
}

// Transpose computes out = inᵗ (out += inᵗ when acc).
func (b *Backend) Transpose(out, in *tensor.Tensor, acc bool) error {
	return b.host.Transpose(out, in, acc)
}

// Softmax computes a row-wise softmax with an optional 0/1 mask.
func (b *Backend) Softmax(out, in, mask *tensor.Tensor) error {
	return b.host.Softmax(out, in, mask)
}

// SoftmaxGrad accumulates the softmax Jacobian-vector product.
func (b *Backend) SoftmaxGrad(grad, adj, val *tensor.Tensor) error {
	return b.host.SoftmaxGrad(grad, adj, val)
}

// LogSoftmax computes a row-wise log-softmax.
func (b *Backend) LogSoftmax(out, in *tensor.Tensor) error {
	return b.host.LogSoftmax(out, in)
}

// LogSoftmaxGrad accumulates grad += adj − exp(val)·(Σ adj) per row.
func (b *Backend) LogSoftmaxGrad(grad, adj, val *tensor.Tensor) error {
	return b.host.LogSoftmaxGrad(grad, adj, val)
}

// CopyRows gathers rows by index.
func (b *Backend) CopyRows(out, in *tensor.Tensor, indices []int) error {
	return b.host.CopyRows(out, in, indices)
}

// PasteRows scatter-adds rows by index.
func (b *Backend) PasteRows(out, in *tensor.Tensor, indices []int) error {
	return b.host.PasteRows(out, in, indices)
}

// Bernoulli fills an inverted-dropout mask deterministically from the seed.
func (b *Backend) Bernoulli(mask *tensor.Tensor, keep float32, seed uint64) error {
	return b.host.Bernoulli(mask, keep, seed)
}

// Cast converts between element types.
func (b *Backend) Cast(dst, src *tensor.Tensor) error { return b.host.Cast(dst, src) }
