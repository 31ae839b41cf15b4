package cpu

import (
	"github.com/pkg/errors"

	"github.com/weft-ml/weft/internal/tensor"
)

// collapseIndex maps a full 4-axis index onto a reduced shape: axes the
// reduced shape collapses to 1 contribute 0.
func collapseIndex(i0, i1, i2, i3 int, s tensor.Shape) int {
	if s[0] == 1 {
		i0 = 0
	}
	if s[1] == 1 {
		i1 = 0
	}
	if s[2] == 1 {
		i2 = 0
	}
	if s[3] == 1 {
		i3 = 0
	}
	return ((i0*s[1]+i1)*s[2]+i2)*s[3] + i3
}

// Reduce computes out = scale · Σ in over the axes out collapses to 1.
func (b *Backend) Reduce(out, in *tensor.Tensor, scale float32) error {
	if err := wantFloat32(out, in); err != nil {
		return err
	}
	os, is := out.Shape(), in.Shape()
	if !tensor.BroadcastableTo(os, is) {
		return errors.Errorf("cpu: cannot reduce %s into %s", is, os)
	}
	o, x := out.Float32(), in.Float32()
	for i := range o {
		o[i] = 0
	}

	idx := 0
	for i0 := 0; i0 < is[0]; i0++ {
		for i1 := 0; i1 < is[1]; i1++ {
			for i2 := 0; i2 < is[2]; i2++ {
				for i3 := 0; i3 < is[3]; i3++ {
					o[collapseIndex(i0, i1, i2, i3, os)] += x[idx] * scale
					idx++
				}
			}
		}
	}
	return nil
}

// AddBroadcast accumulates out += scale · broadcast(in), broadcasting in's
// size-1 axes over out.
func (b *Backend) AddBroadcast(out, in *tensor.Tensor, scale float32) error {
	if err := wantFloat32(out, in); err != nil {
		return err
	}
	os, is := out.Shape(), in.Shape()
	if !tensor.BroadcastableTo(is, os) {
		return errors.Errorf("cpu: cannot broadcast %s into %s", is, os)
	}
	o, x := out.Float32(), in.Float32()

	idx := 0
	for i0 := 0; i0 < os[0]; i0++ {
		for i1 := 0; i1 < os[1]; i1++ {
			for i2 := 0; i2 < os[2]; i2++ {
				for i3 := 0; i3 < os[3]; i3++ {
					o[idx] += x[collapseIndex(i0, i1, i2, i3, is)] * scale
					idx++
				}
			}
		}
	}
	return nil
}
