package cpu

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weft-ml/weft/internal/backend"
	"github.com/weft-ml/weft/internal/tensor"
)

func newBackend() *Backend {
	return New(backend.DeviceID{Type: backend.CPU}, 42)
}

func alloc(t *testing.T, b *Backend, vals []float32, dims ...int) *tensor.Tensor {
	t.Helper()
	s, err := tensor.NewShape(dims...)
	require.NoError(t, err)
	x, err := b.Alloc(s, tensor.Float32)
	require.NoError(t, err)
	copy(x.Float32(), vals)
	return x
}

func TestElement_Sigmoid(t *testing.T) {
	b := newBackend()
	in := alloc(t, b, []float32{0, 2, -2}, 3)
	out := alloc(t, b, nil, 3)

	require.NoError(t, b.Element(backend.ElSigmoid, out, in))
	assert.InDelta(t, 0.5, out.Float32()[0], 1e-6)
	assert.InDelta(t, 1/(1+math.Exp(-2)), out.Float32()[1], 1e-6)
	assert.InDelta(t, 1/(1+math.Exp(2)), out.Float32()[2], 1e-6)
}

func TestElementGrad_Accumulates(t *testing.T) {
	b := newBackend()
	grad := alloc(t, b, []float32{10, 10}, 2)
	adj := alloc(t, b, []float32{1, 1}, 2)
	ref := alloc(t, b, []float32{3, -3}, 2) // relu references the input

	require.NoError(t, b.ElementGrad(backend.ElReLU, grad, adj, ref))
	assert.Equal(t, float32(11), grad.Float32()[0])
	assert.Equal(t, float32(10), grad.Float32()[1])
}

func TestReduce_AxisAndAll(t *testing.T) {
	b := newBackend()
	in := alloc(t, b, []float32{1, 2, 3, 4, 5, 6}, 2, 3)

	rowSum := alloc(t, b, nil, 2, 1)
	require.NoError(t, b.Reduce(rowSum, in, 1))
	assert.Equal(t, []float32{6, 15}, rowSum.Float32())

	total := alloc(t, b, nil, 1)
	require.NoError(t, b.Reduce(total, in, 1))
	assert.Equal(t, float32(21), total.Float32()[0])

	// Mean-style scaling.
	mean := alloc(t, b, nil, 1)
	require.NoError(t, b.Reduce(mean, in, 1.0/6))
	assert.InDelta(t, 3.5, mean.Float32()[0], 1e-6)
}

func TestAddBroadcast(t *testing.T) {
	b := newBackend()
	out := alloc(t, b, []float32{1, 1, 1, 1, 1, 1}, 2, 3)
	adj := alloc(t, b, []float32{10, 20}, 2, 1)

	require.NoError(t, b.AddBroadcast(out, adj, 0.5))
	assert.Equal(t, []float32{6, 6, 6, 11, 11, 11}, out.Float32())
}

func TestSoftmax_RowsSumToOne(t *testing.T) {
	b := newBackend()
	in := alloc(t, b, []float32{1, 2, 3, -1, 0, 1}, 2, 3)
	out := alloc(t, b, nil, 2, 3)

	require.NoError(t, b.Softmax(out, in, nil))
	o := out.Float32()
	for r := 0; r < 2; r++ {
		var sum float32
		for c := 0; c < 3; c++ {
			sum += o[r*3+c]
		}
		assert.InDelta(t, 1.0, sum, 1e-5)
	}
}

func TestSoftmax_Masked(t *testing.T) {
	b := newBackend()
	in := alloc(t, b, []float32{1, 2, 3, 1, 2, 3}, 2, 3)
	mask := alloc(t, b, []float32{1, 0, 1, 0, 0, 0}, 2, 3)
	out := alloc(t, b, nil, 2, 3)

	require.NoError(t, b.Softmax(out, in, mask))
	o := out.Float32()

	// Masked position zeroed, remaining row still sums to 1.
	assert.Zero(t, o[1])
	assert.InDelta(t, 1.0, o[0]+o[2], 1e-5)

	// Fully masked row is all zeros, not NaN.
	for c := 3; c < 6; c++ {
		assert.Zero(t, o[c])
	}
}

func TestLogSoftmax_MatchesSoftmax(t *testing.T) {
	b := newBackend()
	in := alloc(t, b, []float32{0.5, -1, 2}, 1, 3)
	sm := alloc(t, b, nil, 1, 3)
	lsm := alloc(t, b, nil, 1, 3)

	require.NoError(t, b.Softmax(sm, in, nil))
	require.NoError(t, b.LogSoftmax(lsm, in))
	for i := range sm.Float32() {
		assert.InDelta(t, math.Log(float64(sm.Float32()[i])), float64(lsm.Float32()[i]), 1e-5)
	}
}

func TestCopyRows_And_PasteRowsAccumulate(t *testing.T) {
	b := newBackend()
	in := alloc(t, b, []float32{1, 2, 3, 4, 5, 6}, 3, 2)
	out := alloc(t, b, nil, 3, 2)

	require.NoError(t, b.CopyRows(out, in, []int{2, 2, 0}))
	assert.Equal(t, []float32{5, 6, 5, 6, 1, 2}, out.Float32())

	grad := alloc(t, b, nil, 3, 2)
	adj := alloc(t, b, []float32{1, 1, 1, 1, 1, 1}, 3, 2)
	require.NoError(t, b.PasteRows(grad, adj, []int{2, 2, 0}))
	// Row 2 was gathered twice: its gradient must be 2, not 1.
	assert.Equal(t, []float32{1, 1, 0, 0, 2, 2}, grad.Float32())
}

func TestCopyRows_OutOfRange(t *testing.T) {
	b := newBackend()
	in := alloc(t, b, []float32{1, 2}, 2, 1)
	out := alloc(t, b, nil, 1, 1)

	err := b.CopyRows(out, in, []int{2})
	require.ErrorIs(t, err, tensor.ErrIndexOutOfRange)
}

func TestMatMul(t *testing.T) {
	b := newBackend()
	a := alloc(t, b, []float32{1, 2, 3, 4, 5, 6}, 2, 3)
	c := alloc(t, b, []float32{1, 0, 0, 1, 1, 1}, 3, 2)
	out := alloc(t, b, nil, 2, 2)

	require.NoError(t, b.MatMul(out, a, c, false, false, false))
	assert.Equal(t, []float32{4, 5, 10, 11}, out.Float32())
}

func TestMatMul_TransposedAccumulate(t *testing.T) {
	b := newBackend()
	a := alloc(t, b, []float32{1, 2, 3, 4}, 2, 2)
	c := alloc(t, b, []float32{1, 0, 0, 1}, 2, 2)
	out := alloc(t, b, []float32{100, 100, 100, 100}, 2, 2)

	// out += aᵗ·c
	require.NoError(t, b.MatMul(out, a, c, true, false, true))
	assert.Equal(t, []float32{101, 103, 102, 104}, out.Float32())
}

func TestMatMul_ClipClampsOperands(t *testing.T) {
	b := newBackend()
	a := alloc(t, b, []float32{10}, 1, 1)
	c := alloc(t, b, []float32{-10}, 1, 1)
	out := alloc(t, b, nil, 1, 1)

	b.SetClip(1)
	require.NoError(t, b.MatMul(out, a, c, false, false, false))
	assert.Equal(t, float32(-1), out.Float32()[0])

	b.SetClip(0)
	require.NoError(t, b.MatMul(out, a, c, false, false, false))
	assert.Equal(t, float32(-100), out.Float32()[0])
}

func TestTranspose(t *testing.T) {
	b := newBackend()
	in := alloc(t, b, []float32{1, 2, 3, 4, 5, 6}, 2, 3)
	out := alloc(t, b, nil, 3, 2)

	require.NoError(t, b.Transpose(out, in, false))
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, out.Float32())
}

func TestBernoulli_DeterministicInSeed(t *testing.T) {
	b := newBackend()
	s, _ := tensor.NewShape(1000)
	m1, _ := b.Alloc(s, tensor.Float32)
	m2, _ := b.Alloc(s, tensor.Float32)

	require.NoError(t, b.Bernoulli(m1, 0.7, 99))
	require.NoError(t, b.Bernoulli(m2, 0.7, 99))
	assert.Equal(t, m1.Float32(), m2.Float32())

	m3, _ := b.Alloc(s, tensor.Float32)
	require.NoError(t, b.Bernoulli(m3, 0.7, 100))
	assert.NotEqual(t, m1.Float32(), m3.Float32())

	// Values are 0 or 1/keep only.
	for _, v := range m1.Float32() {
		assert.True(t, v == 0 || v == 1/float32(0.7))
	}
}

func TestCast_Float16RoundTrip(t *testing.T) {
	b := newBackend()
	src := alloc(t, b, []float32{1.5, -0.25, 3}, 3)
	s := src.Shape()

	half, _ := b.Alloc(s, tensor.Float16)
	back, _ := b.Alloc(s, tensor.Float32)
	require.NoError(t, b.Cast(half, src))
	require.NoError(t, b.Cast(back, half))

	for i, v := range src.Float32() {
		assert.InDelta(t, v, back.Float32()[i], 1e-2)
	}
}

func TestAllocAccounting(t *testing.T) {
	b := newBackend()
	s, _ := tensor.NewShape(4, 4)
	x, err := b.Alloc(s, tensor.Float32)
	require.NoError(t, err)
	assert.Equal(t, uint64(64), b.AllocBytes())

	b.Free(x)
	assert.Zero(t, b.AllocBytes())
}
