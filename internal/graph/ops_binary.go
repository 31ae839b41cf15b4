package graph

import "github.com/weft-ml/weft/internal/tensor"

// childGradAndAdj resolves the buffers a binary backward needs for one
// child, or (nil, nil) when the child is non-trainable.
func (g *Graph) childGradAndAdj(n *Node, child *Node) (grad, adj *tensor.Tensor, err error) {
	if !child.trainable {
		return nil, nil, nil
	}
	if grad, err = g.gradOf(child); err != nil {
		return nil, nil, err
	}
	if adj, err = g.gradOf(n); err != nil {
		return nil, nil, err
	}
	return grad, adj, nil
}

func init() {
	RegisterOp(KindPlus, OpSpec{
		Tag:   "+",
		Color: "yellow",
		Forward: func(g *Graph, n *Node) error {
			a, err := g.valOf(g.nodes[n.children[0]])
			if err != nil {
				return err
			}
			b, err := g.valOf(g.nodes[n.children[1]])
			if err != nil {
				return err
			}
			val, err := g.valOf(n)
			if err != nil {
				return err
			}
			if err := g.backend.Fill(val, 0); err != nil {
				return err
			}
			if err := g.backend.AddBroadcast(val, a, 1); err != nil {
				return err
			}
			return g.backend.AddBroadcast(val, b, 1)
		},
		Backward: func(g *Graph, n *Node) error {
			for _, c := range n.children {
				child := g.nodes[c]
				grad, adj, err := g.childGradAndAdj(n, child)
				if err != nil {
					return err
				}
				if grad == nil {
					continue
				}
				if child.shape == n.shape {
					if err := g.backend.AddBroadcast(grad, adj, 1); err != nil {
						return err
					}
					continue
				}
				// Broadcast child: collapse the adjoint over the
				// broadcast axes before accumulating.
				scratch, err := g.backend.Alloc(child.shape, tensor.Float32)
				if err != nil {
					return err
				}
				if err := g.backend.Reduce(scratch, adj, 1); err != nil {
					g.backend.Free(scratch)
					return err
				}
				err = g.backend.AddBroadcast(grad, scratch, 1)
				g.backend.Free(scratch)
				if err != nil {
					return err
				}
			}
			return nil
		},
	})

	RegisterOp(KindMult, OpSpec{
		Tag:   "×",
		Color: "yellow",
		Forward: func(g *Graph, n *Node) error {
			a, err := g.valOf(g.nodes[n.children[0]])
			if err != nil {
				return err
			}
			b, err := g.valOf(g.nodes[n.children[1]])
			if err != nil {
				return err
			}
			val, err := g.valOf(n)
			if err != nil {
				return err
			}
			return g.backend.Mul(val, a, b)
		},
		// grad_a += adj ⊙ b, grad_b += adj ⊙ a.
		Backward: func(g *Graph, n *Node) error {
			for i, c := range n.children {
				grad, adj, err := g.childGradAndAdj(n, g.nodes[c])
				if err != nil {
					return err
				}
				if grad == nil {
					continue
				}
				other, err := g.valOf(g.nodes[n.children[1-i]])
				if err != nil {
					return err
				}
				if err := g.backend.MulAcc(grad, adj, other); err != nil {
					return err
				}
			}
			return nil
		},
	})

	RegisterOp(KindDot, OpSpec{
		Tag:   "•",
		Color: "orange",
		Forward: func(g *Graph, n *Node) error {
			a, err := g.valOf(g.nodes[n.children[0]])
			if err != nil {
				return err
			}
			b, err := g.valOf(g.nodes[n.children[1]])
			if err != nil {
				return err
			}
			val, err := g.valOf(n)
			if err != nil {
				return err
			}
			return g.backend.MatMul(val, a, b, false, false, false)
		},
		// grad_a += adj·bᵗ, grad_b += aᵗ·adj.
		Backward: func(g *Graph, n *Node) error {
			na, nb := g.nodes[n.children[0]], g.nodes[n.children[1]]
			adj, err := g.gradOf(n)
			if err != nil {
				return err
			}
			if na.trainable {
				gradA, err := g.gradOf(na)
				if err != nil {
					return err
				}
				bVal, err := g.valOf(nb)
				if err != nil {
					return err
				}
				if err := g.backend.MatMul(gradA, adj, bVal, false, true, true); err != nil {
					return err
				}
			}
			if nb.trainable {
				gradB, err := g.gradOf(nb)
				if err != nil {
					return err
				}
				aVal, err := g.valOf(na)
				if err != nil {
					return err
				}
				if err := g.backend.MatMul(gradB, aVal, adj, true, false, true); err != nil {
					return err
				}
			}
			return nil
		},
	})
}
