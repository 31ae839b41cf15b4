package graph

import "github.com/weft-ml/weft/internal/tensor"

func init() {
	RegisterOp(KindDropout, OpSpec{
		Tag:   "dropout",
		Color: "yellow",
		Forward: func(g *Graph, n *Node) error {
			x, err := g.valOf(g.nodes[n.children[0]])
			if err != nil {
				return err
			}
			val, err := g.valOf(n)
			if err != nil {
				return err
			}
			if g.inference || n.p == 0 {
				return g.backend.Copy(val, x)
			}

			// The mask buffer is created at the first training forward, not
			// at construction, and refilled per call: each pass draws a
			// fresh mask, deterministically derived from the node's stable
			// seed and a call counter.
			if n.mask == nil {
				if n.mask, err = g.backend.Alloc(n.shape, tensor.Float32); err != nil {
					return err
				}
			}
			keep := 1 - n.p
			if err := g.backend.Bernoulli(n.mask, keep, n.dropSeed+n.dropCalls); err != nil {
				return err
			}
			n.dropCalls++
			return g.backend.Mul(val, n.mask, x)
		},
		Backward: func(g *Graph, n *Node) error {
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
			// Identity when the last forward passed through unchanged.
			if g.inference || n.p == 0 || n.mask == nil {
				return g.backend.AddBroadcast(childGrad, adj, 1)
			}
			return g.backend.MulAcc(childGrad, adj, n.mask)
		},
	})
}
