package graph

import (
	"github.com/pkg/errors"
)

// ensureOrder computes (or returns the cached) topological order for a root
// set. Arena insertion order already places every child before its parents,
// so the topological order is the reachable subset of ascending ids. One
// consistent order is cached per root set and shared by forward and
// backward: recomputing per pass could silently yield incomplete gradients
// if construction continued between the passes.
func (g *Graph) ensureOrder(roots []NodeID) ([]NodeID, error) {
	if len(roots) == 0 {
		return nil, errors.Wrap(ErrUsageOrder, "no roots supplied")
	}
	if g.order != nil && sameRoots(g.orderRoots, roots) {
		return g.order, nil
	}

	reachable := make([]bool, len(g.nodes))
	stack := make([]NodeID, 0, len(roots))
	for _, r := range roots {
		if r < 0 || int(r) >= len(g.nodes) {
			return nil, errors.Wrapf(ErrIndexOutOfRange, "root %d outside arena of %d nodes", r, len(g.nodes))
		}
		stack = append(stack, r)
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if reachable[id] {
			continue
		}
		reachable[id] = true
		stack = append(stack, g.nodes[id].children...)
	}

	order := make([]NodeID, 0, len(g.nodes))
	for id := range g.nodes {
		if reachable[id] {
			order = append(order, NodeID(id))
		}
	}
	g.order = order
	g.orderRoots = append([]NodeID(nil), roots...)
	return order, nil
}

func sameRoots(a, b []NodeID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Forward evaluates every node reachable from the roots in dependency
// order: each child is valued before any of its parents. Results may be
// read through Val after the backend's Synchronize.
func (g *Graph) Forward(roots ...NodeID) error {
	order, err := g.ensureOrder(roots)
	if err != nil {
		return err
	}

	for _, id := range order {
		n := g.nodes[id]
		for _, c := range n.children {
			if g.nodes[c].state < stateValued {
				return errors.Wrapf(ErrUsageOrder, "node %d (%s) evaluated before child %d",
					id, n.spec.Tag, c)
			}
		}
		if err := g.ensureVal(n); err != nil {
			return err
		}
		if n.spec.Forward != nil {
			if err := n.spec.Forward(g, n); err != nil {
				return errors.Wrapf(err, "forward of node %d (%s)", id, n.spec.Tag)
			}
		}
		if n.state < stateValued {
			n.state = stateValued
		}
	}
	return nil
}

// Backward accumulates gradients from the roots toward the leaves. The
// roots' adjoints are seeded with ones; every trainable node's gradient is
// zeroed before accumulation begins, and each node's backward runs only
// after all of its parents have contributed — guaranteed by walking the
// cached order in reverse. Requires a completed Forward over the same
// roots.
func (g *Graph) Backward(roots ...NodeID) error {
	if g.order == nil || !sameRoots(g.orderRoots, roots) {
		return errors.Wrap(ErrUsageOrder, "backward without a matching forward pass")
	}

	// Zero/allocate gradients ascending so owning buffers exist before any
	// view derives an alias into them.
	for _, id := range g.order {
		n := g.nodes[id]
		if n.state < stateValued {
			return errors.Wrapf(ErrUsageOrder, "backward over unvalued node %d (%s)", id, n.spec.Tag)
		}
		if err := g.ensureGrad(n); err != nil {
			return err
		}
	}

	// Seed the root adjoints with ones.
	for _, r := range roots {
		n := g.nodes[r]
		if !n.trainable {
			continue
		}
		adj, err := g.gradOf(n)
		if err != nil {
			return err
		}
		if err := g.backend.Fill(adj, 1); err != nil {
			return err
		}
	}

	for i := len(g.order) - 1; i >= 0; i-- {
		n := g.nodes[g.order[i]]
		if !n.trainable {
			continue
		}
		if n.spec.Backward != nil {
			if err := n.spec.Backward(g, n); err != nil {
				return errors.Wrapf(err, "backward of node %d (%s)", n.id, n.spec.Tag)
			}
		}
		n.state = stateGradded
	}
	return nil
}
