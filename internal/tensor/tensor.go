package tensor

import (
	"fmt"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/x448/float16"
)

// Tensor is a shaped, typed, row-major buffer. It is the unit of storage for
// node values and gradients.
//
// A tensor is in one of two ownership modes:
//   - owning: the buffer was allocated for this tensor (through a backend's
//     Alloc) and is released through the same backend's Free;
//   - aliasing: the buffer points into another tensor's storage at an element
//     offset. An alias never allocates and never frees.
//
// An alias is only valid while its source buffer is alive and unmoved; view
// nodes therefore re-derive their aliases from the source's current storage
// on every access instead of caching them.
type Tensor struct {
	shape Shape
	dtype DataType
	data  []byte
	alias bool
}

// New allocates a zero-filled owning tensor. Backends call this from Alloc so
// they can account for the memory; graph code allocates through a backend,
// not here.
func New(shape Shape, dtype DataType) *Tensor {
	return &Tensor{
		shape: shape,
		dtype: dtype,
		data:  make([]byte, shape.Elements()*dtype.Size()),
	}
}

// Alias builds an aliasing tensor over src's storage, starting at the given
// element offset and reinterpreted with the given shape. The window must lie
// entirely inside src.
func Alias(src *Tensor, offsetElements int, shape Shape) (*Tensor, error) {
	es := src.dtype.Size()
	lo := offsetElements * es
	hi := lo + shape.Elements()*es
	if offsetElements < 0 || hi > len(src.data) {
		return nil, errors.Wrapf(ErrIndexOutOfRange,
			"alias [%d:%d) outside source of %d bytes", lo, hi, len(src.data))
	}
	return &Tensor{
		shape: shape,
		dtype: src.dtype,
		data:  src.data[lo:hi:hi],
		alias: true,
	}, nil
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape { return t.shape }

// DType returns the tensor's element type.
func (t *Tensor) DType() DataType { return t.dtype }

// Elements returns the total number of elements.
func (t *Tensor) Elements() int { return t.shape.Elements() }

// ByteSize returns the buffer size in bytes.
func (t *Tensor) ByteSize() int { return len(t.data) }

// IsAlias reports whether this tensor borrows another tensor's storage.
func (t *Tensor) IsAlias() bool { return t.alias }

// Data returns the raw byte buffer.
func (t *Tensor) Data() []byte { return t.data }

// Float32 interprets the buffer as []float32.
// Panics if the tensor's dtype is not Float32.
func (t *Tensor) Float32() []float32 {
	if t.dtype != Float32 {
		panic(fmt.Sprintf("tensor dtype is %s, not float32", t.dtype))
	}
	if len(t.data) == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&t.data[0])), t.Elements())
}

// Float16 interprets the buffer as []float16.Float16.
// Panics if the tensor's dtype is not Float16.
func (t *Tensor) Float16() []float16.Float16 {
	if t.dtype != Float16 {
		panic(fmt.Sprintf("tensor dtype is %s, not float16", t.dtype))
	}
	if len(t.data) == 0 {
		return nil
	}
	return unsafe.Slice((*float16.Float16)(unsafe.Pointer(&t.data[0])), t.Elements())
}

// Int32 interprets the buffer as []int32.
// Panics if the tensor's dtype is not Int32.
func (t *Tensor) Int32() []int32 {
	if t.dtype != Int32 {
		panic(fmt.Sprintf("tensor dtype is %s, not int32", t.dtype))
	}
	if len(t.data) == 0 {
		return nil
	}
	return unsafe.Slice((*int32)(unsafe.Pointer(&t.data[0])), t.Elements())
}

// String renders a short description, e.g. "float32[2 3 1 1]".
func (t *Tensor) String() string {
	mode := ""
	if t.alias {
		mode = " (alias)"
	}
	return fmt.Sprintf("%s%s%s", t.dtype, t.shape, mode)
}
