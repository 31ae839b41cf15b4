package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weft-ml/weft/internal/backend"
	"github.com/weft-ml/weft/internal/backend/cpu"
	"github.com/weft-ml/weft/internal/graph"
	"github.com/weft-ml/weft/internal/tensor"
)

func newGraph() *graph.Graph {
	return graph.New(cpu.New(backend.DeviceID{Type: backend.CPU}, 42))
}

func shape(t *testing.T, dims ...int) tensor.Shape {
	t.Helper()
	s, err := tensor.NewShape(dims...)
	require.NoError(t, err)
	return s
}

// A 2×3 input through ReLU then Sum over axis 1: forward produces a 2×1
// result equal to the sum of positive entries per row; backward routes
// gradient 1 to every originally-positive entry and 0 elsewhere.
func TestScenario_ReLUThenRowSum(t *testing.T) {
	g := newGraph()
	x, err := g.Param(shape(t, 2, 3), []float32{1, -2, 3, -4, 5, -6})
	require.NoError(t, err)
	h, err := g.ReLU(x)
	require.NoError(t, err)
	s, err := g.Sum(h, 1)
	require.NoError(t, err)

	require.NoError(t, g.Forward(s))
	require.NoError(t, g.Backend().Synchronize())

	val, err := g.Val(s)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 1, 1, 1}, val.Shape())
	assert.Equal(t, []float32{4, 5}, val.Float32())

	require.NoError(t, g.Backward(s))
	grad, err := g.Grad(x)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 1, 0, 1, 0}, grad.Float32())
}

func TestMean_EqualsSumOverCount(t *testing.T) {
	g := newGraph()
	data := []float32{1, 2, 3, 4, 5, 6}
	x, err := g.Param(shape(t, 2, 3), data)
	require.NoError(t, err)
	m, err := g.Mean(x, tensor.AxisAll)
	require.NoError(t, err)
	s, err := g.Sum(x, tensor.AxisAll)
	require.NoError(t, err)

	require.NoError(t, g.Forward(m, s))

	mv, err := g.Val(m)
	require.NoError(t, err)
	sv, err := g.Val(s)
	require.NoError(t, err)
	assert.InDelta(t, sv.Float32()[0]/6, mv.Float32()[0], 1e-6)

	// Gradient scale is exactly 1/count.
	require.NoError(t, g.Backward(m, s))
	grad, err := g.Grad(x)
	require.NoError(t, err)
	for _, v := range grad.Float32() {
		// 1/6 from the mean plus 1 from the sum.
		assert.InDelta(t, 1.0/6+1, v, 1e-6)
	}
}

// A child feeding two parents must collect contributions from both.
func TestDAG_SharedChildAccumulates(t *testing.T) {
	g := newGraph()
	x, err := g.Param(shape(t, 2, 2), []float32{1, 2, 3, 4})
	require.NoError(t, err)
	a, err := g.Neg(x)
	require.NoError(t, err)
	b, err := g.Neg(x)
	require.NoError(t, err)
	sum, err := g.Plus(a, b)
	require.NoError(t, err)
	loss, err := g.Sum(sum, tensor.AxisAll)
	require.NoError(t, err)

	require.NoError(t, g.Forward(loss))
	require.NoError(t, g.Backward(loss))

	grad, err := g.Grad(x)
	require.NoError(t, err)
	for _, v := range grad.Float32() {
		assert.Equal(t, float32(-2), v)
	}
}

func TestPlusMultDot_Forward(t *testing.T) {
	g := newGraph()
	a, err := g.Param(shape(t, 2, 2), []float32{1, 2, 3, 4})
	require.NoError(t, err)
	b, err := g.Const(shape(t, 2, 2), []float32{5, 6, 7, 8})
	require.NoError(t, err)

	plus, err := g.Plus(a, b)
	require.NoError(t, err)
	mult, err := g.Mult(a, b)
	require.NoError(t, err)
	dot, err := g.Dot(a, b)
	require.NoError(t, err)

	require.NoError(t, g.Forward(plus, mult, dot))

	pv, _ := g.Val(plus)
	assert.Equal(t, []float32{6, 8, 10, 12}, pv.Float32())
	mv, _ := g.Val(mult)
	assert.Equal(t, []float32{5, 12, 21, 32}, mv.Float32())
	dv, _ := g.Val(dot)
	assert.Equal(t, []float32{19, 22, 43, 50}, dv.Float32())
}

func TestRows_RepeatedIndicesSumGradients(t *testing.T) {
	g := newGraph()
	x, err := g.Param(shape(t, 4, 2), []float32{0, 1, 2, 3, 4, 5, 6, 7})
	require.NoError(t, err)
	// Gather row 2 twice.
	r, err := g.Rows(x, []int{2, 2})
	require.NoError(t, err)
	loss, err := g.Sum(r, tensor.AxisAll)
	require.NoError(t, err)

	require.NoError(t, g.Forward(loss))
	rv, err := g.Val(r)
	require.NoError(t, err)
	assert.Equal(t, []float32{4, 5, 4, 5}, rv.Float32())

	require.NoError(t, g.Backward(loss))
	grad, err := g.Grad(x)
	require.NoError(t, err)
	// grad[2] must be 2, not 1.
	assert.Equal(t, []float32{0, 0, 0, 0, 2, 2, 0, 0}, grad.Float32())
}

func TestRows_OutOfRangeFailsAtForward(t *testing.T) {
	g := newGraph()
	x, err := g.Param(shape(t, 2, 2), []float32{1, 2, 3, 4})
	require.NoError(t, err)
	r, err := g.Rows(x, []int{5})
	require.NoError(t, err) // construction cannot know the failure yet

	err = g.Forward(r)
	require.ErrorIs(t, err, graph.ErrIndexOutOfRange)

	_, err = g.Rows(x, []int{-1})
	require.ErrorIs(t, err, graph.ErrIndexOutOfRange)
}

func TestTranspose_RoundTrip(t *testing.T) {
	g := newGraph()
	x, err := g.Param(shape(t, 2, 3), []float32{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	xt, err := g.Transpose(x)
	require.NoError(t, err)

	require.NoError(t, g.Forward(xt))
	v, err := g.Val(xt)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{3, 2, 1, 1}, v.Shape())
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, v.Float32())
}

func TestConstruction_ShapeMismatchIsFatal(t *testing.T) {
	g := newGraph()
	a, err := g.Param(shape(t, 2, 3), nil)
	require.NoError(t, err)
	b, err := g.Param(shape(t, 3, 2), nil)
	require.NoError(t, err)

	before := g.Len()
	_, err = g.Plus(a, b)
	require.ErrorIs(t, err, graph.ErrShapeMismatch)
	_, err = g.Reshape(a, shape(t, 4, 2))
	require.ErrorIs(t, err, graph.ErrShapeMismatch)
	_, err = g.Dot(a, a)
	require.ErrorIs(t, err, graph.ErrShapeMismatch)
	// Failed constructions never enter the arena.
	assert.Equal(t, before, g.Len())

	_, err = g.Dot(a, b)
	require.NoError(t, err)
}

func TestUsageOrder_Violations(t *testing.T) {
	g := newGraph()
	x, err := g.Param(shape(t, 2, 2), []float32{1, 2, 3, 4})
	require.NoError(t, err)
	y, err := g.Tanh(x)
	require.NoError(t, err)

	// Value read before any forward pass.
	_, err = g.Val(y)
	require.ErrorIs(t, err, graph.ErrUsageOrder)

	// Backward without a matching forward.
	err = g.Backward(y)
	require.ErrorIs(t, err, graph.ErrUsageOrder)

	require.NoError(t, g.Forward(y))

	// Gradient read before backward.
	_, err = g.Grad(x)
	require.ErrorIs(t, err, graph.ErrUsageOrder)

	require.NoError(t, g.Backward(y))
	_, err = g.Grad(x)
	require.NoError(t, err)
}

func TestTrainability_ConstSubgraphSkipsGradients(t *testing.T) {
	g := newGraph()
	c, err := g.Const(shape(t, 2, 2), []float32{1, 2, 3, 4})
	require.NoError(t, err)
	y, err := g.Sigmoid(c)
	require.NoError(t, err)

	n, err := g.Node(y)
	require.NoError(t, err)
	assert.False(t, n.Trainable())

	require.NoError(t, g.Forward(y))
	require.NoError(t, g.Backward(y))

	// Non-trainable nodes never expose gradients.
	_, err = g.Grad(c)
	require.ErrorIs(t, err, graph.ErrUsageOrder)
}

func TestIntrospection_TagsAndColors(t *testing.T) {
	g := newGraph()
	x, _ := g.Param(shape(t, 2, 2), nil)
	r, _ := g.ReLU(x)
	s, _ := g.Sum(r, tensor.AxisAll)
	v, _ := g.Reshape(s, shape(t, 1))

	for id, want := range map[graph.NodeID][2]string{
		x: {"param", "green"},
		r: {"ReLU", "yellow"},
		s: {"sum", "orange"},
		v: {"reshape", "grey"},
	} {
		n, err := g.Node(id)
		require.NoError(t, err)
		assert.Equal(t, want[0], n.Type())
		assert.Equal(t, want[1], n.Color())
	}
}

func TestRelease_FreesBuffers(t *testing.T) {
	g := newGraph()
	x, err := g.Param(shape(t, 8, 8), nil)
	require.NoError(t, err)
	y, err := g.Tanh(x)
	require.NoError(t, err)
	require.NoError(t, g.Forward(y))
	require.NoError(t, g.Backward(y))

	assert.NotZero(t, g.Backend().AllocBytes())
	g.Release()
	assert.Zero(t, g.Backend().AllocBytes())

	// Lifecycle state resets too.
	_, err = g.Val(y)
	require.ErrorIs(t, err, graph.ErrUsageOrder)
}
