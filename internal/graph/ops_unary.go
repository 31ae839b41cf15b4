package graph

import (
	"github.com/weft-ml/weft/internal/backend"
	"github.com/weft-ml/weft/internal/tensor"
)

// The elementwise nonlinearities share one forward/backward pair
// parameterized by the kernel's ElementOp. The backward reference tensor
// differs per op: sigmoid and tanh differentiate through their own output,
// relu, log and exp through their input, neg through nothing.

type refKind int

const (
	refVal refKind = iota
	refChild
	refNone
)

func elementForward(op backend.ElementOp) func(*Graph, *Node) error {
	return func(g *Graph, n *Node) error {
		x, err := g.valOf(g.nodes[n.children[0]])
		if err != nil {
			return err
		}
		val, err := g.valOf(n)
		if err != nil {
			return err
		}
		return g.backend.Element(op, val, x)
	}
}

func elementBackward(op backend.ElementOp, ref refKind) func(*Graph, *Node) error {
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
		var r *tensor.Tensor
		switch ref {
		case refVal:
			if r, err = g.valOf(n); err != nil {
				return err
			}
		case refChild:
			if r, err = g.valOf(child); err != nil {
				return err
			}
		}
		return g.backend.ElementGrad(op, childGrad, adj, r)
	}
}

func registerElement(kind OpKind, tag string, op backend.ElementOp, ref refKind) {
	RegisterOp(kind, OpSpec{
		Tag:      tag,
		Color:    "yellow",
		Forward:  elementForward(op),
		Backward: elementBackward(op, ref),
	})
}

func init() {
	registerElement(KindLogit, "logit", backend.ElSigmoid, refVal)
	registerElement(KindTanh, "tanh", backend.ElTanh, refVal)
	registerElement(KindReLU, "ReLU", backend.ElReLU, refChild)
	registerElement(KindLog, "log", backend.ElLog, refChild)
	registerElement(KindExp, "exp", backend.ElExp, refChild)
	registerElement(KindNeg, "-", backend.ElNeg, refNone)
}
