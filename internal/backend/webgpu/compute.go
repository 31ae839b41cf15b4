package webgpu

import (
	"encoding/binary"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"
	"github.com/pkg/errors"

	"github.com/weft-ml/weft/internal/backend"
	"github.com/weft-ml/weft/internal/tensor"
)

// compileShader compiles WGSL into a cached ShaderModule.
func (b *Backend) compileShader(name, code string) *wgpu.ShaderModule {
	b.mu.RLock()
	if shader, ok := b.shaders[name]; ok {
		b.mu.RUnlock()
		return shader
	}
	b.mu.RUnlock()

	shader := b.device.CreateShaderModuleWGSL(code)

	b.mu.Lock()
	b.shaders[name] = shader
	b.mu.Unlock()
	return shader
}

// pipeline returns a cached ComputePipeline for a compiled shader.
func (b *Backend) pipeline(name string, shader *wgpu.ShaderModule) *wgpu.ComputePipeline {
	b.mu.RLock()
	if p, ok := b.pipelines[name]; ok {
		b.mu.RUnlock()
		return p
	}
	b.mu.RUnlock()

	p := b.device.CreateComputePipelineSimple(nil, shader, "main")

	b.mu.Lock()
	b.pipelines[name] = p
	b.mu.Unlock()
	return p
}

// upload creates a storage buffer initialized with data.
func (b *Backend) upload(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))
	buf := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})
	mapped := unsafe.Slice((*byte)(buf.GetMappedRange(0, size)), size)
	copy(mapped, data)
	buf.Unmap()
	return buf
}

// readback copies a GPU buffer into dst through a staging buffer; MapAsync
// blocks until the copy (and all prior submissions) completed.
func (b *Backend) readback(src *wgpu.Buffer, dst []byte) error {
	size := uint64(len(dst))
	staging := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer staging.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(src, 0, staging, 0, size)
	b.queue.Submit(encoder.Finish(nil))

	if err := staging.MapAsync(b.device, wgpu.MapModeRead, 0, size); err != nil {
		return errors.Wrapf(backend.ErrDevice, "webgpu: map staging buffer: %v", err)
	}
	copy(dst, unsafe.Slice((*byte)(staging.GetMappedRange(0, size)), size))
	staging.Unmap()
	return nil
}

// dispatch runs one compute shader over n elements. Binding order is fixed:
// the read tensors in order, then the read-write tensor, then the params
// uniform carrying the element count. The read-write tensor is uploaded
// before and read back after, since the accumulating kernels need its
// current contents.
func (b *Backend) dispatch(name, code string, n int, reads []*tensor.Tensor, rw *tensor.Tensor) error {
	for _, t := range append(append([]*tensor.Tensor{}, reads...), rw) {
		if t.DType() != tensor.Float32 {
			return errors.Errorf("webgpu: kernel %s needs float32, got %s", name, t.DType())
		}
	}

	shader := b.compileShader(name, code)
	pipe := b.pipeline(name, shader)

	entries := make([]wgpu.BindGroupEntry, 0, len(reads)+2)
	buffers := make([]*wgpu.Buffer, 0, len(reads)+1)
	binding := uint32(0)
	for _, t := range reads {
		buf := b.upload(t.Data(), wgpu.BufferUsageStorage)
		buffers = append(buffers, buf)
		entries = append(entries, wgpu.BufferBindingEntry(binding, buf, 0, uint64(t.ByteSize())))
		binding++
	}
	rwBuf := b.upload(rw.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	buffers = append(buffers, rwBuf)
	entries = append(entries, wgpu.BufferBindingEntry(binding, rwBuf, 0, uint64(rw.ByteSize())))
	binding++

	params := make([]byte, 16) // uniform structs are 16-byte aligned
	binary.LittleEndian.PutUint32(params[0:4], uint32(n))
	paramBuf := b.upload(params, wgpu.BufferUsageUniform)
	buffers = append(buffers, paramBuf)
	entries = append(entries, wgpu.BufferBindingEntry(binding, paramBuf, 0, 16))

	defer func() {
		for _, buf := range buffers {
			buf.Release()
		}
	}()

	bindGroup := b.device.CreateBindGroupSimple(pipe.GetBindGroupLayout(0), entries)
	defer bindGroup.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(pipe)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(uint32((n+workgroupSize-1)/workgroupSize), 1, 1)
	pass.End()
	b.queue.Submit(encoder.Finish(nil))

	return b.readback(rwBuf, rw.Data())
}

// Fill sets every element of t to v.
func (b *Backend) Fill(t *tensor.Tensor, v float32) error {
	// A uniform fill is cheaper on the host than a dispatch round-trip.
	return b.host.Fill(t, v)
}

// Element computes out = op(in) elementwise on the GPU.
func (b *Backend) Element(op backend.ElementOp, out, in *tensor.Tensor) error {
	if out.Elements() != in.Elements() {
		return errors.Errorf("webgpu: element shapes differ: %s vs %s", out.Shape(), in.Shape())
	}
	name := "element_" + op.String()
	code, ok := elementShaders[op]
	if !ok {
		return errors.Errorf("webgpu: no shader for element op %v", op)
	}
	return b.dispatch(name, code, out.Elements(), []*tensor.Tensor{in}, out)
}

// ElementGrad accumulates grad += adj ⊙ op'(ref) on the GPU. Neg needs no
// reference; the adjoint is bound in its place to keep one bind layout.
func (b *Backend) ElementGrad(op backend.ElementOp, grad, adj, ref *tensor.Tensor) error {
	name := "elementgrad_" + op.String()
	code, ok := elementGradShaders[op]
	if !ok {
		return errors.Errorf("webgpu: no shader for element grad op %v", op)
	}
	if ref == nil {
		ref = adj
	}
	return b.dispatch(name, code, grad.Elements(), []*tensor.Tensor{adj, ref}, grad)
}

// Mul computes out = a ⊙ b elementwise on the GPU.
func (b *Backend) Mul(out, a, c *tensor.Tensor) error {
	return b.dispatch("mul", mulShader, out.Elements(), []*tensor.Tensor{a, c}, out)
}

// MulAcc accumulates out += a ⊙ b elementwise on the GPU.
func (b *Backend) MulAcc(out, a, c *tensor.Tensor) error {
	return b.dispatch("mulacc", mulAccShader, out.Elements(), []*tensor.Tensor{a, c}, out)
}
