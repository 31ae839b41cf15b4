package webgpu

import (
	"fmt"

	"github.com/weft-ml/weft/internal/backend"
)

// workgroupSize is the number of threads per workgroup; dispatch rounds the
// element count up to a whole number of workgroups.
const workgroupSize = 256

// unaryTemplate computes out[i] = f(x[i]). Binding order follows dispatch:
// reads, read-write, params.
const unaryTemplate = `
@group(0) @binding(0) var<storage, read> x: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        let v = x[idx];
        result[idx] = %s;
    }
}
`

// gradTemplate accumulates grad[i] += adj[i] * f'(ref[i]).
const gradTemplate = `
@group(0) @binding(0) var<storage, read> adj: array<f32>;
@group(0) @binding(1) var<storage, read> ref: array<f32>;
@group(0) @binding(2) var<storage, read_write> grad: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        let r = ref[idx];
        grad[idx] = grad[idx] + adj[idx] * (%s);
    }
}
`

// mulShader computes result = a * b elementwise.
const mulShader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        result[idx] = a[idx] * b[idx];
    }
}
`

// mulAccShader accumulates result += a * b elementwise.
const mulAccShader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        result[idx] = result[idx] + a[idx] * b[idx];
    }
}
`

// elementShaders holds the forward WGSL per nonlinearity.
var elementShaders = map[backend.ElementOp]string{
	backend.ElSigmoid: fmt.Sprintf(unaryTemplate, "1.0 / (1.0 + exp(-v))"),
	backend.ElTanh:    fmt.Sprintf(unaryTemplate, "tanh(v)"),
	backend.ElReLU:    fmt.Sprintf(unaryTemplate, "max(v, 0.0)"),
	backend.ElLog:     fmt.Sprintf(unaryTemplate, "log(v)"),
	backend.ElExp:     fmt.Sprintf(unaryTemplate, "exp(v)"),
	backend.ElNeg:     fmt.Sprintf(unaryTemplate, "-v"),
}

// elementGradShaders holds the derivative WGSL per nonlinearity, expressed
// in the same reference tensor the CPU kernels use.
var elementGradShaders = map[backend.ElementOp]string{
	backend.ElSigmoid: fmt.Sprintf(gradTemplate, "r * (1.0 - r)"),
	backend.ElTanh:    fmt.Sprintf(gradTemplate, "1.0 - r * r"),
	backend.ElReLU:    fmt.Sprintf(gradTemplate, "select(0.0, 1.0, r > 0.0)"),
	backend.ElLog:     fmt.Sprintf(gradTemplate, "1.0 / r"),
	backend.ElExp:     fmt.Sprintf(gradTemplate, "exp(r)"),
	backend.ElNeg:     fmt.Sprintf(gradTemplate, "-1.0"),
}
