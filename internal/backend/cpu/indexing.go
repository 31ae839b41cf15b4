package cpu

import (
	"github.com/pkg/errors"

	"github.com/weft-ml/weft/internal/tensor"
)

// rowWidth is the number of elements in one axis-0 row.
func rowWidth(s tensor.Shape) int {
	return s[1] * s[2] * s[3]
}

// CopyRows gathers rows: out row i = in row indices[i]. Indices outside in's
// rows fail with ErrIndexOutOfRange; this is the first point the indices can
// be checked against actual data.
func (b *Backend) CopyRows(out, in *tensor.Tensor, indices []int) error {
	if err := wantFloat32(out, in); err != nil {
		return err
	}
	w := rowWidth(in.Shape())
	rows := in.Shape().Rows()
	o, x := out.Float32(), in.Float32()
	for i, idx := range indices {
		if idx < 0 || idx >= rows {
			return errors.Wrapf(tensor.ErrIndexOutOfRange, "row %d outside source with %d rows", idx, rows)
		}
		copy(o[i*w:(i+1)*w], x[idx*w:(idx+1)*w])
	}
	return nil
}

// PasteRows scatter-adds rows: out row indices[i] += in row i. Repeated
// indices accumulate, which is what makes the gather backward correct when
// the same row is selected more than once.
func (b *Backend) PasteRows(out, in *tensor.Tensor, indices []int) error {
	if err := wantFloat32(out, in); err != nil {
		return err
	}
	w := rowWidth(out.Shape())
	rows := out.Shape().Rows()
	o, x := out.Float32(), in.Float32()
	for i, idx := range indices {
		if idx < 0 || idx >= rows {
			return errors.Wrapf(tensor.ErrIndexOutOfRange, "row %d outside destination with %d rows", idx, rows)
		}
		dst := o[idx*w : (idx+1)*w]
		src := x[i*w : (i+1)*w]
		for j := range dst {
			dst[j] += src[j]
		}
	}
	return nil
}
