package cpu

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/weft-ml/weft/internal/tensor"
)

// asGeneral wraps a matrix-shaped tensor as a blas32 operand. When clip > 0
// the data is copied and clamped to [-clip, clip] first; the global clip is
// a numerical-stability knob applied uniformly to every MatMul operand.
func asGeneral(t *tensor.Tensor, clip float32) blas32.General {
	data := t.Float32()
	if clip > 0 {
		clamped := make([]float32, len(data))
		for i, v := range data {
			switch {
			case v > clip:
				v = clip
			case v < -clip:
				v = -clip
			}
			clamped[i] = v
		}
		data = clamped
	}
	return blas32.General{
		Rows:   t.Shape().Rows(),
		Cols:   t.Shape().Cols(),
		Stride: t.Shape().Cols(),
		Data:   data,
	}
}

// MatMul computes out = a·b (out += a·b when acc), optionally transposing
// either operand. Operands must be matrix-shaped; shape agreement was checked
// at node construction.
func (b *Backend) MatMul(out, a, c *tensor.Tensor, transA, transB, acc bool) error {
	if err := wantFloat32(out, a, c); err != nil {
		return err
	}
	if !out.Shape().Matrix() || !a.Shape().Matrix() || !c.Shape().Matrix() {
		return errors.Errorf("cpu: matmul needs matrix shapes, got %s, %s, %s",
			out.Shape(), a.Shape(), c.Shape())
	}

	tA, tB := blas.NoTrans, blas.NoTrans
	if transA {
		tA = blas.Trans
	}
	if transB {
		tB = blas.Trans
	}
	var beta float32
	if acc {
		beta = 1
	}

	clip := b.Clip()
	blas32.Gemm(tA, tB, 1, asGeneral(a, clip), asGeneral(c, clip), beta, asGeneral(out, 0))
	return nil
}

// Transpose computes out = inᵗ (out += inᵗ when acc) for matrix-shaped
// tensors.
func (b *Backend) Transpose(out, in *tensor.Tensor, acc bool) error {
	if err := wantFloat32(out, in); err != nil {
		return err
	}
	rows, cols := in.Shape().Rows(), in.Shape().Cols()
	o, x := out.Float32(), in.Float32()
	if acc {
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				o[c*rows+r] += x[r*cols+c]
			}
		}
		return nil
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			o[c*rows+r] = x[r*cols+c]
		}
	}
	return nil
}
