package graph_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weft-ml/weft/internal/graph"
	"github.com/weft-ml/weft/internal/tensor"
)

// gradCheck verifies the analytic backward of an operator against a central
// finite-difference approximation of its forward. The loss functional is
// Σ(op(x) ⊙ w) for a fixed random weighting w, so every output element
// contributes a distinct term and degenerate zero-gradients (softmax rows
// summing to one) cannot mask a wrong backward.
func gradCheck(t *testing.T, dims []int, build func(g *graph.Graph, x graph.NodeID) graph.NodeID, positive bool) {
	t.Helper()
	const (
		eps = 1e-2
		tol = 2e-2
	)
	rng := rand.New(rand.NewSource(7))

	g := newGraph()
	s := shape(t, dims...)
	data := make([]float32, s.Elements())
	for i := range data {
		if positive {
			data[i] = 0.5 + rng.Float32() // keep log inputs away from 0
		} else {
			data[i] = rng.Float32()*2 - 1
			if data[i] > -0.1 && data[i] < 0.1 {
				data[i] += 0.2 // keep relu inputs away from the kink
			}
		}
	}

	x, err := g.Param(s, data)
	require.NoError(t, err)
	y := build(g, x)

	yn, err := g.Node(y)
	require.NoError(t, err)
	w := make([]float32, yn.Shape().Elements())
	for i := range w {
		w[i] = rng.Float32() + 0.5
	}
	wc, err := g.Const(yn.Shape(), w)
	require.NoError(t, err)
	m, err := g.Mult(y, wc)
	require.NoError(t, err)
	loss, err := g.Sum(m, tensor.AxisAll)
	require.NoError(t, err)

	require.NoError(t, g.Forward(loss))
	require.NoError(t, g.Backward(loss))

	gradT, err := g.Grad(x)
	require.NoError(t, err)
	analytic := append([]float32(nil), gradT.Float32()...)

	eval := func() float32 {
		require.NoError(t, g.Forward(loss))
		v, err := g.Val(loss)
		require.NoError(t, err)
		return v.Float32()[0]
	}

	xv, err := g.Val(x)
	require.NoError(t, err)
	for i := range data {
		orig := xv.Float32()[i]
		xv.Float32()[i] = orig + eps
		plus := eval()
		xv.Float32()[i] = orig - eps
		minus := eval()
		xv.Float32()[i] = orig

		numeric := (plus - minus) / (2 * eps)
		assert.InDelta(t, numeric, analytic[i], tol, "element %d: analytic %v vs numeric %v",
			i, analytic[i], numeric)
	}
}

func must(t *testing.T) func(id graph.NodeID, err error) graph.NodeID {
	t.Helper()
	return func(id graph.NodeID, err error) graph.NodeID {
		require.NoError(t, err)
		return id
	}
}

func TestGradCheck_Sigmoid(t *testing.T) {
	gradCheck(t, []int{2, 3}, func(g *graph.Graph, x graph.NodeID) graph.NodeID {
		return must(t)(g.Sigmoid(x))
	}, false)
}

func TestGradCheck_Tanh(t *testing.T) {
	gradCheck(t, []int{2, 3}, func(g *graph.Graph, x graph.NodeID) graph.NodeID {
		return must(t)(g.Tanh(x))
	}, false)
}

func TestGradCheck_ReLU(t *testing.T) {
	gradCheck(t, []int{2, 3}, func(g *graph.Graph, x graph.NodeID) graph.NodeID {
		return must(t)(g.ReLU(x))
	}, false)
}

func TestGradCheck_Log(t *testing.T) {
	gradCheck(t, []int{2, 3}, func(g *graph.Graph, x graph.NodeID) graph.NodeID {
		return must(t)(g.Log(x))
	}, true)
}

func TestGradCheck_Exp(t *testing.T) {
	gradCheck(t, []int{2, 3}, func(g *graph.Graph, x graph.NodeID) graph.NodeID {
		return must(t)(g.Exp(x))
	}, false)
}

func TestGradCheck_Neg(t *testing.T) {
	gradCheck(t, []int{2, 3}, func(g *graph.Graph, x graph.NodeID) graph.NodeID {
		return must(t)(g.Neg(x))
	}, false)
}

func TestGradCheck_SumAxis(t *testing.T) {
	gradCheck(t, []int{2, 3}, func(g *graph.Graph, x graph.NodeID) graph.NodeID {
		return must(t)(g.Sum(x, 1))
	}, false)
}

func TestGradCheck_SumAll(t *testing.T) {
	gradCheck(t, []int{2, 3}, func(g *graph.Graph, x graph.NodeID) graph.NodeID {
		return must(t)(g.Sum(x, tensor.AxisAll))
	}, false)
}

func TestGradCheck_MeanAxis(t *testing.T) {
	gradCheck(t, []int{2, 3}, func(g *graph.Graph, x graph.NodeID) graph.NodeID {
		return must(t)(g.Mean(x, 0))
	}, false)
}

func TestGradCheck_Softmax(t *testing.T) {
	gradCheck(t, []int{2, 4}, func(g *graph.Graph, x graph.NodeID) graph.NodeID {
		return must(t)(g.Softmax(x))
	}, false)
}

func TestGradCheck_SoftmaxMasked(t *testing.T) {
	gradCheck(t, []int{2, 4}, func(g *graph.Graph, x graph.NodeID) graph.NodeID {
		s, err := tensor.NewShape(2, 4)
		require.NoError(t, err)
		mask := must(t)(g.Const(s, []float32{1, 1, 0, 1, 0, 1, 1, 1}))
		return must(t)(g.SoftmaxMasked(x, mask))
	}, false)
}

func TestGradCheck_LogSoftmax(t *testing.T) {
	gradCheck(t, []int{2, 4}, func(g *graph.Graph, x graph.NodeID) graph.NodeID {
		return must(t)(g.LogSoftmax(x))
	}, false)
}

func TestGradCheck_RowsRepeated(t *testing.T) {
	gradCheck(t, []int{3, 2}, func(g *graph.Graph, x graph.NodeID) graph.NodeID {
		return must(t)(g.Rows(x, []int{2, 0, 2}))
	}, false)
}

func TestGradCheck_Transpose(t *testing.T) {
	gradCheck(t, []int{2, 3}, func(g *graph.Graph, x graph.NodeID) graph.NodeID {
		return must(t)(g.Transpose(x))
	}, false)
}

func TestGradCheck_Reshape(t *testing.T) {
	gradCheck(t, []int{2, 3}, func(g *graph.Graph, x graph.NodeID) graph.NodeID {
		s, err := tensor.NewShape(3, 2)
		require.NoError(t, err)
		return must(t)(g.Reshape(x, s))
	}, false)
}

func TestGradCheck_Timestep(t *testing.T) {
	gradCheck(t, []int{2, 2, 3}, func(g *graph.Graph, x graph.NodeID) graph.NodeID {
		return must(t)(g.Timestep(x, 1))
	}, false)
}

func TestGradCheck_Plus(t *testing.T) {
	gradCheck(t, []int{2, 3}, func(g *graph.Graph, x graph.NodeID) graph.NodeID {
		return must(t)(g.Plus(x, x))
	}, false)
}

func TestGradCheck_PlusBroadcast(t *testing.T) {
	// x is a row bias broadcast over every row of a fixed matrix.
	gradCheck(t, []int{1, 4}, func(g *graph.Graph, x graph.NodeID) graph.NodeID {
		s, err := tensor.NewShape(3, 4)
		require.NoError(t, err)
		c := must(t)(g.Const(s, []float32{
			1, -1, 0.5, 2,
			-0.5, 1, 0.25, -2,
			2, 0.75, -1, 0.5,
		}))
		return must(t)(g.Plus(c, x))
	}, false)
}

func TestGradCheck_Mult(t *testing.T) {
	gradCheck(t, []int{2, 3}, func(g *graph.Graph, x graph.NodeID) graph.NodeID {
		return must(t)(g.Mult(x, x))
	}, false)
}

func TestGradCheck_Dot(t *testing.T) {
	gradCheck(t, []int{2, 3}, func(g *graph.Graph, x graph.NodeID) graph.NodeID {
		s, err := tensor.NewShape(3, 2)
		require.NoError(t, err)
		w := must(t)(g.Const(s, []float32{1, -1, 0.5, 2, -0.5, 1}))
		return must(t)(g.Dot(x, w))
	}, false)
}

func TestGradCheck_Composite(t *testing.T) {
	// tanh → transpose → softmax chains several backward rules together.
	gradCheck(t, []int{2, 3}, func(g *graph.Graph, x graph.NodeID) graph.NodeID {
		h := must(t)(g.Tanh(x))
		ht := must(t)(g.Transpose(h))
		return must(t)(g.Softmax(ht))
	}, false)
}
