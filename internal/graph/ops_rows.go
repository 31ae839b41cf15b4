package graph

func init() {
	RegisterOp(KindRows, OpSpec{
		Tag:   "rows",
		Color: "orange",
		Forward: func(g *Graph, n *Node) error {
			x, err := g.valOf(g.nodes[n.children[0]])
			if err != nil {
				return err
			}
			val, err := g.valOf(n)
			if err != nil {
				return err
			}
			return g.backend.CopyRows(val, x, n.indices)
		},
		// Scatter-add: repeated indices must sum their contributions.
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
			return g.backend.PasteRows(childGrad, adj, n.indices)
		},
	})

	RegisterOp(KindTranspose, OpSpec{
		Tag:   "transpose",
		Color: "orange",
		Forward: func(g *Graph, n *Node) error {
			x, err := g.valOf(g.nodes[n.children[0]])
			if err != nil {
				return err
			}
			val, err := g.valOf(n)
			if err != nil {
				return err
			}
			return g.backend.Transpose(val, x, false)
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
			return g.backend.Transpose(childGrad, adj, true)
		},
	})
}
