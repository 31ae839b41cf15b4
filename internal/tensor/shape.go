package tensor

import (
	"fmt"

	"github.com/pkg/errors"
)

// Rank is the fixed rank of every shape. Unused trailing axes are 1.
const Rank = 4

// AxisAll selects every axis for reduction-style operators.
const AxisAll = -1

// Shape is the fixed-rank dimension vector of a tensor. It is a value type:
// copies are independent and comparison with == is valid.
type Shape [Rank]int

// NewShape builds a Shape from up to four dimensions, padding missing trailing
// axes with 1. Dimensions must be positive.
func NewShape(dims ...int) (Shape, error) {
	if len(dims) == 0 || len(dims) > Rank {
		return Shape{}, errors.Wrapf(ErrShapeMismatch, "shape needs 1 to %d axes, got %d", Rank, len(dims))
	}
	s := Shape{1, 1, 1, 1}
	for i, d := range dims {
		if d <= 0 {
			return Shape{}, errors.Wrapf(ErrShapeMismatch, "axis %d has non-positive size %d", i, d)
		}
		s[i] = d
	}
	return s, nil
}

// Elements returns the total number of elements, the product of all axes.
func (s Shape) Elements() int {
	return s[0] * s[1] * s[2] * s[3]
}

// Rows returns the size of axis 0.
func (s Shape) Rows() int { return s[0] }

// Cols returns the size of axis 1.
func (s Shape) Cols() int { return s[1] }

// Set returns a copy of the shape with one axis replaced.
func (s Shape) Set(axis, size int) Shape {
	s[axis] = size
	return s
}

// Equal reports whether two shapes have identical axes.
func (s Shape) Equal(other Shape) bool {
	return s == other
}

// Matrix reports whether the shape is two-dimensional, i.e. axes 2 and 3
// are unused. Matrix-shaped tensors are the operands of Transpose, Dot and
// the softmax family.
func (s Shape) Matrix() bool {
	return s[2] == 1 && s[3] == 1
}

// String renders the shape as "[a b c d]".
func (s Shape) String() string {
	return fmt.Sprintf("[%d %d %d %d]", s[0], s[1], s[2], s[3])
}

// ReduceShape computes the output shape of a reduction over the given axis.
// AxisAll collapses every axis to 1, producing a scalar-shaped result.
func ReduceShape(in Shape, axis int) (Shape, error) {
	if axis == AxisAll {
		return Shape{1, 1, 1, 1}, nil
	}
	if axis < 0 || axis >= Rank {
		return Shape{}, errors.Wrapf(ErrShapeMismatch, "reduction axis %d outside [0,%d)", axis, Rank)
	}
	return in.Set(axis, 1), nil
}

// TransposeShape swaps axes 0 and 1. The input must be matrix-shaped.
func TransposeShape(in Shape) (Shape, error) {
	if !in.Matrix() {
		return Shape{}, errors.Wrapf(ErrShapeMismatch, "transpose needs a matrix shape, got %s", in)
	}
	return Shape{in[1], in[0], 1, 1}, nil
}

// RowsShape computes the output shape of a row gather: axis 0 becomes the
// number of selected rows, the remaining axes are unchanged.
func RowsShape(in Shape, count int) (Shape, error) {
	if count <= 0 {
		return Shape{}, errors.Wrapf(ErrShapeMismatch, "row gather needs at least one index")
	}
	return in.Set(0, count), nil
}

// ReshapeShape validates an explicit reshape target against its source. The
// element counts must agree; the target is returned unchanged.
func ReshapeShape(in, target Shape) (Shape, error) {
	if in.Elements() != target.Elements() {
		return Shape{}, errors.Wrapf(ErrShapeMismatch, "cannot reshape %s (%d elements) to %s (%d elements)",
			in, in.Elements(), target, target.Elements())
	}
	return target, nil
}

// TimestepShape computes the per-timestep view shape: axes 2 and 3 collapse
// to 1. The step index must address a whole slice inside the source.
func TimestepShape(in Shape, step int) (Shape, error) {
	out := Shape{in[0], in[1], 1, 1}
	if step < 0 || (step+1)*out.Elements() > in.Elements() {
		return Shape{}, errors.Wrapf(ErrIndexOutOfRange, "timestep %d outside source %s", step, in)
	}
	return out, nil
}

// DotShape computes the output shape of a 2-D matrix product a·b.
func DotShape(a, b Shape) (Shape, error) {
	if !a.Matrix() || !b.Matrix() {
		return Shape{}, errors.Wrapf(ErrShapeMismatch, "dot needs matrix shapes, got %s and %s", a, b)
	}
	if a.Cols() != b.Rows() {
		return Shape{}, errors.Wrapf(ErrShapeMismatch, "dot inner axes differ: %s vs %s", a, b)
	}
	return Shape{a.Rows(), b.Cols(), 1, 1}, nil
}

// BroadcastableTo reports whether a tensor of shape `from` can broadcast into
// shape `to`: every axis is either equal or 1 in `from`. Used by the
// reduction backward kernels, where the adjoint of a Sum/Mean broadcasts back
// over the reduced axes.
func BroadcastableTo(from, to Shape) bool {
	for i := 0; i < Rank; i++ {
		if from[i] != to[i] && from[i] != 1 {
			return false
		}
	}
	return true
}
