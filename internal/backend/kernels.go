package backend

import "github.com/weft-ml/weft/internal/tensor"

//go:generate go tool enumer -type=ElementOp -trimprefix=El -transform=lower -output=gen_elementop_enumer.go

// ElementOp selects the nonlinearity applied by the Element and ElementGrad
// kernels. The backward kernel knows each op's derivative and what reference
// tensor it needs: the op's own output for sigmoid and tanh, the op's input
// for relu, log and exp, nothing for neg.
type ElementOp int

// Elementwise nonlinearities.
const (
	ElSigmoid ElementOp = iota
	ElTanh
	ElReLU
	ElLog
	ElExp
	ElNeg
)

// Kernels is the device-side primitive library invoked by the operator
// variants. All float kernels operate on Float32 tensors; shapes are
// validated by the caller at node-construction time, so kernels only check
// what cannot be known earlier (row indices, dtypes).
//
// Accumulating kernels add into their destination and never overwrite: a
// child may receive gradient contributions from several parents.
type Kernels interface {
	// Fill sets every element of t to v.
	Fill(t *tensor.Tensor, v float32) error

	// Copy copies src into dst. Shapes must have equal element counts.
	Copy(dst, src *tensor.Tensor) error

	// Element computes out = op(in) elementwise.
	Element(op ElementOp, out, in *tensor.Tensor) error

	// ElementGrad accumulates grad += adj ⊙ op'(ref), where ref is the
	// reference tensor the op's derivative is expressed in (see ElementOp).
	ElementGrad(op ElementOp, grad, adj, ref *tensor.Tensor) error

	// Reduce computes out = scale · Σ in over the axes that out's shape
	// collapses to 1. Used by Sum (scale 1) and Mean (scale 1/count).
	Reduce(out, in *tensor.Tensor, scale float32) error

	// AddBroadcast accumulates out += scale · broadcast(in), broadcasting
	// in's size-1 axes over out. The backward of the reductions.
	AddBroadcast(out, in *tensor.Tensor, scale float32) error

	// Mul computes out = a ⊙ b elementwise.
	Mul(out, a, b *tensor.Tensor) error

	// MulAcc accumulates out += a ⊙ b elementwise.
	MulAcc(out, a, b *tensor.Tensor) error

	// MatMul computes out = a·b (or accumulates out += a·b when acc is set)
	// over matrix-shaped operands, optionally transposing either operand.
	// The backend's clip value clamps operand magnitudes when non-zero.
	MatMul(out, a, b *tensor.Tensor, transA, transB, acc bool) error

	// Transpose computes out = inᵗ for matrix-shaped tensors (axes 0/1
	// swapped). With acc set it accumulates out += inᵗ.
	Transpose(out, in *tensor.Tensor, acc bool) error

	// Softmax computes a row-wise softmax of in into out. A non-nil mask
	// (same shape, values 0 or 1) zeroes masked positions before
	// normalization; a fully masked row yields zeros, not NaN.
	Softmax(out, in, mask *tensor.Tensor) error

	// SoftmaxGrad accumulates grad += val ⊙ (adj − (valᵗ·adj)) per row,
	// the softmax Jacobian-vector product.
	SoftmaxGrad(grad, adj, val *tensor.Tensor) error

	// LogSoftmax computes a row-wise log-softmax of in into out.
	LogSoftmax(out, in *tensor.Tensor) error

	// LogSoftmaxGrad accumulates grad += adj − exp(val)·(Σ adj) per row.
	LogSoftmaxGrad(grad, adj, val *tensor.Tensor) error

	// CopyRows gathers rows: out row i = in row indices[i]. An index
	// outside in's rows fails with ErrIndexOutOfRange.
	CopyRows(out, in *tensor.Tensor, indices []int) error

	// PasteRows scatter-adds rows: out row indices[i] += in row i.
	// Repeated indices accumulate.
	PasteRows(out, in *tensor.Tensor, indices []int) error

	// Bernoulli fills mask with an inverted-dropout mask: each element is
	// 1/keep with probability keep, else 0. Deterministic in the seed.
	Bernoulli(mask *tensor.Tensor, keep float32, seed uint64) error

	// Cast converts between element types (Float32 ↔ Float16, Float32 ↔
	// Int32). Shapes must have equal element counts.
	Cast(dst, src *tensor.Tensor) error
}
