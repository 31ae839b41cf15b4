package cpu

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/weft-ml/weft/internal/tensor"
)

// Bernoulli fills mask with an inverted-dropout mask: each element becomes
// 1/keep with probability keep, else 0. The stream is deterministic in the
// seed, so the same (seed, size) pair always yields the same mask.
func (b *Backend) Bernoulli(mask *tensor.Tensor, keep float32, seed uint64) error {
	if err := wantFloat32(mask); err != nil {
		return err
	}
	if keep <= 0 || keep > 1 {
		return errors.Errorf("cpu: bernoulli keep probability %v outside (0,1]", keep)
	}
	rng := rand.New(rand.NewSource(int64(seed)))
	scale := 1 / keep
	m := mask.Float32()
	for i := range m {
		if rng.Float32() < keep {
			m[i] = scale
		} else {
			m[i] = 0
		}
	}
	return nil
}
