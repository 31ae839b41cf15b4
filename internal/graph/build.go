package graph

import (
	"github.com/pkg/errors"

	"github.com/weft-ml/weft/internal/tensor"
)

// Every constructor computes the node's output shape here, exactly once; a
// shape that cannot be computed fails the construction and the node is
// never added to the arena.

// leaf builds a Param or Const node with an eagerly allocated value buffer.
// data may be nil for a zero-initialized leaf.
func (g *Graph) leaf(kind OpKind, shape tensor.Shape, data []float32, trainable bool) (NodeID, error) {
	if data != nil && len(data) != shape.Elements() {
		return 0, errors.Wrapf(ErrShapeMismatch, "%d data elements for shape %s", len(data), shape)
	}
	val, err := g.backend.Alloc(shape, tensor.Float32)
	if err != nil {
		return 0, err
	}
	if data != nil {
		copy(val.Float32(), data)
	}
	n := &Node{kind: kind, shape: shape, trainable: trainable, val: val, state: stateValued}
	return g.add(n), nil
}

// Param adds a trainable leaf holding caller-supplied values. Its gradient
// is accumulated by backward passes and consumed by the optimizer.
func (g *Graph) Param(shape tensor.Shape, data []float32) (NodeID, error) {
	return g.leaf(KindParam, shape, data, true)
}

// Const adds a non-trainable leaf. Subgraphs built only from constants skip
// gradient allocation entirely.
func (g *Graph) Const(shape tensor.Shape, data []float32) (NodeID, error) {
	return g.leaf(KindConst, shape, data, false)
}

// unary adds an elementwise node: output shape equals the child's.
func (g *Graph) unary(kind OpKind, x NodeID) (NodeID, error) {
	if err := g.checkChildren(x); err != nil {
		return 0, err
	}
	n := &Node{
		kind:      kind,
		children:  []NodeID{x},
		shape:     g.nodes[x].shape,
		trainable: g.anyTrainable([]NodeID{x}),
	}
	return g.add(n), nil
}

// Sigmoid adds val = σ(x).
func (g *Graph) Sigmoid(x NodeID) (NodeID, error) { return g.unary(KindLogit, x) }

// Tanh adds val = tanh(x).
func (g *Graph) Tanh(x NodeID) (NodeID, error) { return g.unary(KindTanh, x) }

// ReLU adds val = max(0, x).
func (g *Graph) ReLU(x NodeID) (NodeID, error) { return g.unary(KindReLU, x) }

// Log adds val = ln(x).
func (g *Graph) Log(x NodeID) (NodeID, error) { return g.unary(KindLog, x) }

// Exp adds val = eˣ.
func (g *Graph) Exp(x NodeID) (NodeID, error) { return g.unary(KindExp, x) }

// Neg adds val = −x.
func (g *Graph) Neg(x NodeID) (NodeID, error) { return g.unary(KindNeg, x) }

// reduction adds a Sum or Mean node over the given axis (tensor.AxisAll
// reduces every axis to a scalar-shaped result).
func (g *Graph) reduction(kind OpKind, x NodeID, axis int) (NodeID, error) {
	if err := g.checkChildren(x); err != nil {
		return 0, err
	}
	shape, err := tensor.ReduceShape(g.nodes[x].shape, axis)
	if err != nil {
		return 0, err
	}
	n := &Node{
		kind:      kind,
		children:  []NodeID{x},
		shape:     shape,
		axis:      axis,
		trainable: g.anyTrainable([]NodeID{x}),
	}
	return g.add(n), nil
}

// Sum adds val = Σ x over the reduced axis or axes.
func (g *Graph) Sum(x NodeID, axis int) (NodeID, error) { return g.reduction(KindSum, x, axis) }

// Mean adds val = Σ x / count over the reduced axis or axes, where count is
// source-elements / result-elements.
func (g *Graph) Mean(x NodeID, axis int) (NodeID, error) { return g.reduction(KindMean, x, axis) }

// Softmax adds a row-wise softmax of x.
func (g *Graph) Softmax(x NodeID) (NodeID, error) { return g.unary(KindSoftmax, x) }

// SoftmaxMasked adds a row-wise softmax with a 0/1 mask child applied before
// normalization. Masked positions are zeroed in value space; the backward
// formula is unchanged since it assumes the value is already masked. No
// gradient flows into the mask.
func (g *Graph) SoftmaxMasked(x, mask NodeID) (NodeID, error) {
	if err := g.checkChildren(x, mask); err != nil {
		return 0, err
	}
	if g.nodes[mask].shape != g.nodes[x].shape {
		return 0, errors.Wrapf(ErrShapeMismatch, "softmax mask shape %s does not match input %s",
			g.nodes[mask].shape, g.nodes[x].shape)
	}
	n := &Node{
		kind:      KindSoftmax,
		children:  []NodeID{x, mask},
		shape:     g.nodes[x].shape,
		trainable: g.nodes[x].trainable,
	}
	return g.add(n), nil
}

// LogSoftmax adds a row-wise log-softmax of x.
func (g *Graph) LogSoftmax(x NodeID) (NodeID, error) { return g.unary(KindLogSoftmax, x) }

// Rows adds a row gather: val row i = x row indices[i]. Axis 0 becomes the
// index count. Negative indices are rejected here; indices beyond the
// source's rows fail at the first forward, through the CopyRows kernel.
func (g *Graph) Rows(x NodeID, indices []int) (NodeID, error) {
	if err := g.checkChildren(x); err != nil {
		return 0, err
	}
	for _, idx := range indices {
		if idx < 0 {
			return 0, errors.Wrapf(ErrIndexOutOfRange, "negative row index %d", idx)
		}
	}
	shape, err := tensor.RowsShape(g.nodes[x].shape, len(indices))
	if err != nil {
		return 0, err
	}
	n := &Node{
		kind:      KindRows,
		children:  []NodeID{x},
		shape:     shape,
		indices:   append([]int(nil), indices...),
		trainable: g.anyTrainable([]NodeID{x}),
	}
	return g.add(n), nil
}

// Transpose adds val = xᵗ, swapping axes 0 and 1.
func (g *Graph) Transpose(x NodeID) (NodeID, error) {
	if err := g.checkChildren(x); err != nil {
		return 0, err
	}
	shape, err := tensor.TransposeShape(g.nodes[x].shape)
	if err != nil {
		return 0, err
	}
	n := &Node{
		kind:      KindTranspose,
		children:  []NodeID{x},
		shape:     shape,
		trainable: g.anyTrainable([]NodeID{x}),
	}
	return g.add(n), nil
}

// Reshape adds a zero-copy view of x with an explicit target shape. The
// target's element count must equal the source's.
func (g *Graph) Reshape(x NodeID, target tensor.Shape) (NodeID, error) {
	if err := g.checkChildren(x); err != nil {
		return 0, err
	}
	shape, err := tensor.ReshapeShape(g.nodes[x].shape, target)
	if err != nil {
		return 0, err
	}
	n := &Node{
		kind:      KindReshape,
		children:  []NodeID{x},
		shape:     shape,
		trainable: g.anyTrainable([]NodeID{x}),
	}
	return g.add(n), nil
}

// Timestep adds a zero-copy view selecting one timestep slice of x: axes 2
// and 3 collapse to 1 and the view starts at step · slice-elements into the
// child's storage.
func (g *Graph) Timestep(x NodeID, step int) (NodeID, error) {
	if err := g.checkChildren(x); err != nil {
		return 0, err
	}
	shape, err := tensor.TimestepShape(g.nodes[x].shape, step)
	if err != nil {
		return 0, err
	}
	n := &Node{
		kind:      KindTimestep,
		children:  []NodeID{x},
		shape:     shape,
		offset:    step * shape.Elements(),
		trainable: g.anyTrainable([]NodeID{x}),
	}
	return g.add(n), nil
}

// Dropout adds a stochastic node dropping each element of x with
// probability p during training forward passes, scaling survivors by
// 1/(1−p). In inference mode it is the identity. The mask is created
// lazily at the first training forward, seeded from the backend seed and
// the node's stable id.
func (g *Graph) Dropout(x NodeID, p float32) (NodeID, error) {
	if err := g.checkChildren(x); err != nil {
		return 0, err
	}
	if p < 0 || p >= 1 {
		return 0, errors.Errorf("dropout probability %v outside [0,1)", p)
	}
	n := &Node{
		kind:      KindDropout,
		children:  []NodeID{x},
		shape:     g.nodes[x].shape,
		p:         p,
		trainable: g.anyTrainable([]NodeID{x}),
	}
	id := g.add(n)
	n.dropSeed = g.backend.Seed() ^ (uint64(id)+1)*0x9E3779B97F4A7C15
	return id, nil
}

// binary adds an elementwise two-child node over equal shapes.
func (g *Graph) binary(kind OpKind, a, b NodeID) (NodeID, error) {
	if err := g.checkChildren(a, b); err != nil {
		return 0, err
	}
	if g.nodes[a].shape != g.nodes[b].shape {
		return 0, errors.Wrapf(ErrShapeMismatch, "operand shapes differ: %s vs %s",
			g.nodes[a].shape, g.nodes[b].shape)
	}
	n := &Node{
		kind:      kind,
		children:  []NodeID{a, b},
		shape:     g.nodes[a].shape,
		trainable: g.anyTrainable([]NodeID{a, b}),
	}
	return g.add(n), nil
}

// Plus adds val = a + b elementwise. One operand may broadcast over the
// other across size-1 axes, so a row bias adds to every row of a matrix.
func (g *Graph) Plus(a, b NodeID) (NodeID, error) {
	if err := g.checkChildren(a, b); err != nil {
		return 0, err
	}
	sa, sb := g.nodes[a].shape, g.nodes[b].shape
	var shape tensor.Shape
	switch {
	case tensor.BroadcastableTo(sb, sa):
		shape = sa
	case tensor.BroadcastableTo(sa, sb):
		shape = sb
	default:
		return 0, errors.Wrapf(ErrShapeMismatch, "cannot broadcast %s with %s", sa, sb)
	}
	n := &Node{
		kind:      KindPlus,
		children:  []NodeID{a, b},
		shape:     shape,
		trainable: g.anyTrainable([]NodeID{a, b}),
	}
	return g.add(n), nil
}

// Mult adds val = a ⊙ b elementwise.
func (g *Graph) Mult(a, b NodeID) (NodeID, error) { return g.binary(KindMult, a, b) }

// Dot adds the 2-D matrix product val = a·b. The backend's clip value
// clamps operand magnitudes inside the MatMul kernel.
func (g *Graph) Dot(a, b NodeID) (NodeID, error) {
	if err := g.checkChildren(a, b); err != nil {
		return 0, err
	}
	shape, err := tensor.DotShape(g.nodes[a].shape, g.nodes[b].shape)
	if err != nil {
		return 0, err
	}
	n := &Node{
		kind:      KindDot,
		children:  []NodeID{a, b},
		shape:     shape,
		trainable: g.anyTrainable([]NodeID{a, b}),
	}
	return g.add(n), nil
}
