package cpu

import (
	"math"

	"github.com/pkg/errors"

	"github.com/weft-ml/weft/internal/tensor"
)

// Softmax computes a row-wise softmax. A non-nil mask (same shape, values
// 0 or 1) zeroes masked positions before normalization; a fully masked row
// yields zeros rather than NaN.
func (b *Backend) Softmax(out, in, mask *tensor.Tensor) error {
	if err := wantFloat32(out, in); err != nil {
		return err
	}
	if mask != nil {
		if err := wantFloat32(mask); err != nil {
			return err
		}
		if mask.Elements() != in.Elements() {
			return errors.Errorf("cpu: softmax mask shape %s does not match input %s",
				mask.Shape(), in.Shape())
		}
	}

	rows := in.Shape().Rows()
	cols := in.Elements() / rows
	o, x := out.Float32(), in.Float32()
	var m []float32
	if mask != nil {
		m = mask.Float32()
	}

	return b.pfor(rows, func(s, e int) error {
		for r := s; r < e; r++ {
			row := x[r*cols : (r+1)*cols]
			dst := o[r*cols : (r+1)*cols]

			maxv := float32(math.Inf(-1))
			for c, v := range row {
				if m != nil && m[r*cols+c] == 0 {
					continue
				}
				if v > maxv {
					maxv = v
				}
			}

			var sum float32
			for c, v := range row {
				if m != nil && m[r*cols+c] == 0 {
					dst[c] = 0
					continue
				}
				ev := float32(math.Exp(float64(v - maxv)))
				dst[c] = ev
				sum += ev
			}

			if sum == 0 {
				continue // fully masked row stays zero
			}
			inv := 1 / sum
			for c := range dst {
				dst[c] *= inv
			}
		}
		return nil
	})
}

// SoftmaxGrad accumulates the softmax Jacobian-vector product per row:
// grad += val ⊙ (adj − (valᵗ·adj)).
func (b *Backend) SoftmaxGrad(grad, adj, val *tensor.Tensor) error {
	if err := wantFloat32(grad, adj, val); err != nil {
		return err
	}
	rows := val.Shape().Rows()
	cols := val.Elements() / rows
	g, a, v := grad.Float32(), adj.Float32(), val.Float32()

	return b.pfor(rows, func(s, e int) error {
		for r := s; r < e; r++ {
			base := r * cols
			var dot float32
			for c := 0; c < cols; c++ {
				dot += v[base+c] * a[base+c]
			}
			for c := 0; c < cols; c++ {
				g[base+c] += v[base+c] * (a[base+c] - dot)
			}
		}
		return nil
	})
}

// LogSoftmax computes a row-wise log-softmax.
func (b *Backend) LogSoftmax(out, in *tensor.Tensor) error {
	if err := wantFloat32(out, in); err != nil {
		return err
	}
	rows := in.Shape().Rows()
	cols := in.Elements() / rows
	o, x := out.Float32(), in.Float32()

	return b.pfor(rows, func(s, e int) error {
		for r := s; r < e; r++ {
			row := x[r*cols : (r+1)*cols]
			dst := o[r*cols : (r+1)*cols]

			maxv := row[0]
			for _, v := range row[1:] {
				if v > maxv {
					maxv = v
				}
			}
			var sum float64
			for _, v := range row {
				sum += math.Exp(float64(v - maxv))
			}
			lse := maxv + float32(math.Log(sum))
			for c, v := range row {
				dst[c] = v - lse
			}
		}
		return nil
	})
}

// LogSoftmaxGrad accumulates grad += adj − exp(val)·(Σ adj) per row.
func (b *Backend) LogSoftmaxGrad(grad, adj, val *tensor.Tensor) error {
	if err := wantFloat32(grad, adj, val); err != nil {
		return err
	}
	rows := val.Shape().Rows()
	cols := val.Elements() / rows
	g, a, v := grad.Float32(), adj.Float32(), val.Float32()

	return b.pfor(rows, func(s, e int) error {
		for r := s; r < e; r++ {
			base := r * cols
			var sum float32
			for c := 0; c < cols; c++ {
				sum += a[base+c]
			}
			for c := 0; c < cols; c++ {
				g[base+c] += a[base+c] - float32(math.Exp(float64(v[base+c])))*sum
			}
		}
		return nil
	})
}
