package graph

// Sum and Mean share their kernels; Mean additionally scales by 1/count,
// where count = source-elements / result-elements, in both directions.

func reduceForward(scaled bool) func(*Graph, *Node) error {
	return func(g *Graph, n *Node) error {
		child := g.nodes[n.children[0]]
		x, err := g.valOf(child)
		if err != nil {
			return err
		}
		val, err := g.valOf(n)
		if err != nil {
			return err
		}
		scale := float32(1)
		if scaled {
			scale = 1 / float32(child.shape.Elements()/n.shape.Elements())
		}
		return g.backend.Reduce(val, x, scale)
	}
}

func reduceBackward(scaled bool) func(*Graph, *Node) error {
	return func(g *Graph, n *Node) error {
		child := g.nodes[n.children[0]]
		if !child.trainable {
			return nil
		}
		childGrad, err := g.gradOf(child)
		if err != nil {
			return err
		}
		adj, err := g.gradOf(n)
		if err != nil {
			return err
		}
		scale := float32(1)
		if scaled {
			scale = 1 / float32(child.shape.Elements()/n.shape.Elements())
		}
		return g.backend.AddBroadcast(childGrad, adj, scale)
	}
}

func init() {
	RegisterOp(KindSum, OpSpec{
		Tag:      "sum",
		Color:    "orange",
		Forward:  reduceForward(false),
		Backward: reduceBackward(false),
	})
	RegisterOp(KindMean, OpSpec{
		Tag:      "mean",
		Color:    "orange",
		Forward:  reduceForward(true),
		Backward: reduceBackward(true),
	})
}
