package graph

import "github.com/weft-ml/weft/internal/tensor"

func init() {
	RegisterOp(KindSoftmax, OpSpec{
		Tag:   "softmax",
		Color: "yellow",
		Forward: func(g *Graph, n *Node) error {
			x, err := g.valOf(g.nodes[n.children[0]])
			if err != nil {
				return err
			}
			var mask *tensor.Tensor
			if len(n.children) > 1 {
				if mask, err = g.valOf(g.nodes[n.children[1]]); err != nil {
					return err
				}
			}
			val, err := g.valOf(n)
			if err != nil {
				return err
			}
			return g.backend.Softmax(val, x, mask)
		},
		// J·dy = p ⊙ (dy − p·dy) per row. The value is already masked, so
		// the same formula holds with and without a mask child; no gradient
		// flows into the mask.
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
			val, err := g.valOf(n)
			if err != nil {
				return err
			}
			return g.backend.SoftmaxGrad(childGrad, adj, val)
		},
	})

	RegisterOp(KindLogSoftmax, OpSpec{
		Tag:   "logsoftmax",
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
			return g.backend.LogSoftmax(val, x)
		},
		// J·dy = dy − exp(p)·Σdy per row.
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
			val, err := g.valOf(n)
			if err != nil {
				return err
			}
			return g.backend.LogSoftmaxGrad(childGrad, adj, val)
		},
	})
}
