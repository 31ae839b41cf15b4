// Copyright 2025 Weft ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for tensor shapes and buffers in the
// Weft ML framework.
//
// The package re-exports the core value types used throughout Weft:
//   - Shape: fixed rank-4 dimension vector with derivation helpers
//   - Tensor: flat typed buffer, either owning or aliasing storage
//   - DataType: element type tag (Float32, Float16, Int32)
//
// Example:
//
//	s, _ := tensor.NewShape(2, 3)
//	t := tensor.New(s, tensor.Float32)
//	copy(t.Float32(), []float32{1, 2, 3, 4, 5, 6})
package tensor

import (
	"github.com/weft-ml/weft/internal/tensor"
)

// Rank is the fixed number of axes every shape carries.
const Rank = tensor.Rank

// AxisAll selects every axis in a reduction.
const AxisAll = tensor.AxisAll

// DataType represents the underlying element type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float16 DataType = tensor.Float16
	Int32   DataType = tensor.Int32
)

// Shape represents the dimensions of a tensor, always stored at rank 4 with
// trailing axes padded to 1.
type Shape = tensor.Shape

// Tensor is a flat element buffer paired with a shape and data type.
type Tensor = tensor.Tensor

// Sentinel errors. Wrapped errors compare true with errors.Is.
var (
	ErrShapeMismatch   = tensor.ErrShapeMismatch
	ErrIndexOutOfRange = tensor.ErrIndexOutOfRange
)

// NewShape builds a Shape from up to Rank leading dimensions, padding the rest
// with 1.
func NewShape(dims ...int) (Shape, error) {
	return tensor.NewShape(dims...)
}

// New allocates a zero-filled owning tensor.
func New(shape Shape, dtype DataType) *Tensor {
	return tensor.New(shape, dtype)
}

// Alias creates a non-owning view over src starting at offsetElements with the
// given shape. The view shares storage with src.
func Alias(src *Tensor, offsetElements int, shape Shape) (*Tensor, error) {
	return tensor.Alias(src, offsetElements, shape)
}

// Shape derivation helpers.

// ReduceShape returns the shape after summing over axis (or AxisAll).
func ReduceShape(in Shape, axis int) (Shape, error) {
	return tensor.ReduceShape(in, axis)
}

// TransposeShape swaps the two leading axes of a matrix shape.
func TransposeShape(in Shape) (Shape, error) {
	return tensor.TransposeShape(in)
}

// RowsShape returns the shape of a row-gather result with count rows.
func RowsShape(in Shape, count int) (Shape, error) {
	return tensor.RowsShape(in, count)
}

// ReshapeShape validates that target holds the same number of elements as in.
func ReshapeShape(in, target Shape) (Shape, error) {
	return tensor.ReshapeShape(in, target)
}

// TimestepShape returns the per-step slice shape of a time-major tensor.
func TimestepShape(in Shape, step int) (Shape, error) {
	return tensor.TimestepShape(in, step)
}

// DotShape returns the matrix product shape of a and b.
func DotShape(a, b Shape) (Shape, error) {
	return tensor.DotShape(a, b)
}

// BroadcastableTo reports whether from broadcasts to to, axis by axis.
func BroadcastableTo(from, to Shape) bool {
	return tensor.BroadcastableTo(from, to)
}
