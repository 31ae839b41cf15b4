package cpu

import (
	"github.com/pkg/errors"
	"github.com/x448/float16"

	"github.com/weft-ml/weft/internal/tensor"
)

// Cast converts between element types. Float16 is a storage type: casts go
// through float32.
func (b *Backend) Cast(dst, src *tensor.Tensor) error {
	if dst.Elements() != src.Elements() {
		return errors.Errorf("cpu: cast element counts differ: %s vs %s", dst.Shape(), src.Shape())
	}

	switch {
	case dst.DType() == src.DType():
		copy(dst.Data(), src.Data())
	case dst.DType() == tensor.Float16 && src.DType() == tensor.Float32:
		d, s := dst.Float16(), src.Float32()
		for i := range d {
			d[i] = float16.Fromfloat32(s[i])
		}
	case dst.DType() == tensor.Float32 && src.DType() == tensor.Float16:
		d, s := dst.Float32(), src.Float16()
		for i := range d {
			d[i] = s[i].Float32()
		}
	case dst.DType() == tensor.Int32 && src.DType() == tensor.Float32:
		d, s := dst.Int32(), src.Float32()
		for i := range d {
			d[i] = int32(s[i])
		}
	case dst.DType() == tensor.Float32 && src.DType() == tensor.Int32:
		d, s := dst.Float32(), src.Int32()
		for i := range d {
			d[i] = float32(s[i])
		}
	default:
		return errors.Errorf("cpu: unsupported cast %s -> %s", src.DType(), dst.DType())
	}
	return nil
}
