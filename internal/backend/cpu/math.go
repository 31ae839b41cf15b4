package cpu

import (
	"math"

	"github.com/pkg/errors"

	"github.com/weft-ml/weft/internal/backend"
	"github.com/weft-ml/weft/internal/tensor"
)

func wantFloat32(ts ...*tensor.Tensor) error {
	for _, t := range ts {
		if t.DType() != tensor.Float32 {
			return errors.Errorf("cpu: kernel needs float32, got %s", t.DType())
		}
	}
	return nil
}

// Fill sets every element of t to v.
func (b *Backend) Fill(t *tensor.Tensor, v float32) error {
	if err := wantFloat32(t); err != nil {
		return err
	}
	data := t.Float32()
	return b.pfor(len(data), func(s, e int) error {
		for i := s; i < e; i++ {
			data[i] = v
		}
		return nil
	})
}

// Copy copies src into dst elementwise.
func (b *Backend) Copy(dst, src *tensor.Tensor) error {
	if dst.Elements() != src.Elements() {
		return errors.Errorf("cpu: copy element counts differ: %s vs %s", dst.Shape(), src.Shape())
	}
	if dst.DType() != src.DType() {
		return errors.Errorf("cpu: copy dtypes differ: %s vs %s", dst.DType(), src.DType())
	}
	copy(dst.Data(), src.Data())
	return nil
}

// Element computes out = op(in) elementwise.
func (b *Backend) Element(op backend.ElementOp, out, in *tensor.Tensor) error {
	if err := wantFloat32(out, in); err != nil {
		return err
	}
	if out.Elements() != in.Elements() {
		return errors.Errorf("cpu: element shapes differ: %s vs %s", out.Shape(), in.Shape())
	}
	o, x := out.Float32(), in.Float32()

	var f func(float32) float32
	switch op {
	case backend.ElSigmoid:
		f = func(v float32) float32 { return float32(1 / (1 + math.Exp(-float64(v)))) }
	case backend.ElTanh:
		f = func(v float32) float32 { return float32(math.Tanh(float64(v))) }
	case backend.ElReLU:
		f = func(v float32) float32 {
			if v > 0 {
				return v
			}
			return 0
		}
	case backend.ElLog:
		f = func(v float32) float32 { return float32(math.Log(float64(v))) }
	case backend.ElExp:
		f = func(v float32) float32 { return float32(math.Exp(float64(v))) }
	case backend.ElNeg:
		f = func(v float32) float32 { return -v }
	default:
		return errors.Errorf("cpu: unknown element op %v", op)
	}

	return b.pfor(len(o), func(s, e int) error {
		for i := s; i < e; i++ {
			o[i] = f(x[i])
		}
		return nil
	})
}

// ElementGrad accumulates grad += adj ⊙ op'(ref). The reference tensor is
// the op's output for sigmoid and tanh, the op's input for relu, log and
// exp; neg ignores it.
func (b *Backend) ElementGrad(op backend.ElementOp, grad, adj, ref *tensor.Tensor) error {
	if err := wantFloat32(grad, adj); err != nil {
		return err
	}
	g, a := grad.Float32(), adj.Float32()

	var r []float32
	if op != backend.ElNeg {
		if err := wantFloat32(ref); err != nil {
			return err
		}
		r = ref.Float32()
	}

	var d func(i int) float32
	switch op {
	case backend.ElSigmoid:
		d = func(i int) float32 { return r[i] * (1 - r[i]) }
	case backend.ElTanh:
		d = func(i int) float32 { return 1 - r[i]*r[i] }
	case backend.ElReLU:
		d = func(i int) float32 {
			if r[i] > 0 {
				return 1
			}
			return 0
		}
	case backend.ElLog:
		d = func(i int) float32 { return 1 / r[i] }
	case backend.ElExp:
		d = func(i int) float32 { return float32(math.Exp(float64(r[i]))) }
	case backend.ElNeg:
		d = func(int) float32 { return -1 }
	default:
		return errors.Errorf("cpu: unknown element op %v", op)
	}

	return b.pfor(len(g), func(s, e int) error {
		for i := s; i < e; i++ {
			g[i] += a[i] * d(i)
		}
		return nil
	})
}

// Mul computes out = a ⊙ b elementwise.
func (b *Backend) Mul(out, x, y *tensor.Tensor) error {
	if err := wantFloat32(out, x, y); err != nil {
		return err
	}
	o, a, c := out.Float32(), x.Float32(), y.Float32()
	return b.pfor(len(o), func(s, e int) error {
		for i := s; i < e; i++ {
			o[i] = a[i] * c[i]
		}
		return nil
	})
}

// MulAcc accumulates out += a ⊙ b elementwise.
func (b *Backend) MulAcc(out, x, y *tensor.Tensor) error {
	if err := wantFloat32(out, x, y); err != nil {
		return err
	}
	o, a, c := out.Float32(), x.Float32(), y.Float32()
	return b.pfor(len(o), func(s, e int) error {
		for i := s; i < e; i++ {
			o[i] += a[i] * c[i]
		}
		return nil
	})
}
