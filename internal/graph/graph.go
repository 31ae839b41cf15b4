// Package graph implements the expression-graph core: a dynamically built
// DAG of tensor-valued nodes, each carrying its own forward and backward
// computation, dispatched through a device backend.
//
// Nodes live in an arena indexed by NodeID and are created bottom-up through
// the construction methods on Graph (Param, Sigmoid, Sum, Dot, ...). A
// forward pass walks the reachable nodes in dependency order; a backward
// pass walks them in reverse, accumulating gradients into children. View
// nodes (Reshape, Timestep) are zero-copy: their buffers alias the child's
// storage and are re-derived on every access.
//
//	be, _ := backend.FromConfig("cpu", 42)
//	g := graph.New(be)
//	x, _ := g.Param(shape, data)
//	h, _ := g.Tanh(x)
//	loss, _ := g.Mean(h, tensor.AxisAll)
//	_ = g.Forward(loss)
//	_ = g.Backward(loss)
//	grad, _ := g.Grad(x)
package graph

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/weft-ml/weft/internal/backend"
	"github.com/weft-ml/weft/internal/tensor"
)

// Graph is an arena of nodes forming one differentiable program. A single
// goroutine drives construction and the forward/backward walk; kernels may
// run asynchronously on the device and are complete only after the
// backend's Synchronize.
type Graph struct {
	backend   backend.Backend
	nodes     []*Node
	buildID   string
	inference bool

	// Topological order cached per root set; arena insertion order already
	// satisfies children-before-parents, so the order is the reachable
	// subset of ascending ids.
	order      []NodeID
	orderRoots []NodeID
}

// New creates an empty graph executing on the given backend.
func New(be backend.Backend) *Graph {
	g := &Graph{
		backend: be,
		buildID: uuid.NewString(),
	}
	klog.V(1).Infof("graph %s: created on %s", g.buildID, be.DeviceID())
	return g
}

// Backend returns the compute backend every node dispatches through.
func (g *Graph) Backend() backend.Backend { return g.backend }

// BuildID returns the unique identifier stamped on this graph build.
func (g *Graph) BuildID() string { return g.buildID }

// SetInference toggles inference mode: stochastic nodes (dropout) become
// the identity.
func (g *Graph) SetInference(inference bool) { g.inference = inference }

// Inference reports whether the graph runs in inference mode.
func (g *Graph) Inference() bool { return g.inference }

// Len returns the number of nodes in the arena.
func (g *Graph) Len() int { return len(g.nodes) }

// Node returns the node for a handle.
func (g *Graph) Node(id NodeID) (*Node, error) {
	if id < 0 || int(id) >= len(g.nodes) {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "node %d outside arena of %d nodes", id, len(g.nodes))
	}
	return g.nodes[id], nil
}

// add appends a constructed node to the arena. The invalidated order cache
// forces the next Forward to recompute reachability.
func (g *Graph) add(n *Node) NodeID {
	n.id = NodeID(len(g.nodes))
	n.spec = opSpec(n.kind)
	g.nodes = append(g.nodes, n)
	g.order = nil
	g.orderRoots = nil
	return n.id
}

// anyTrainable reports whether any of the children requires gradients.
func (g *Graph) anyTrainable(children []NodeID) bool {
	for _, c := range children {
		if g.nodes[c].trainable {
			return true
		}
	}
	return false
}

// checkChildren validates child handles at construction time.
func (g *Graph) checkChildren(children ...NodeID) error {
	for _, c := range children {
		if c < 0 || int(c) >= len(g.nodes) {
			return errors.Wrapf(ErrIndexOutOfRange, "child %d outside arena of %d nodes", c, len(g.nodes))
		}
	}
	return nil
}

// valOf returns the node's value buffer. For view nodes the alias is
// re-derived from the child's current storage on every call: the child may
// have reallocated since the last access, and a cached alias would dangle.
func (g *Graph) valOf(n *Node) (*tensor.Tensor, error) {
	if n.spec.View {
		src, err := g.valOf(g.nodes[n.children[0]])
		if err != nil {
			return nil, err
		}
		return tensor.Alias(src, n.offset, n.shape)
	}
	if n.val == nil {
		return nil, errors.Wrapf(ErrUsageOrder, "node %d (%s) has no value buffer", n.id, n.spec.Tag)
	}
	return n.val, nil
}

// gradOf returns the node's gradient buffer, re-deriving view aliases the
// same way as valOf. Accumulation through a view therefore lands directly
// in the child's gradient storage; no separate add step exists.
func (g *Graph) gradOf(n *Node) (*tensor.Tensor, error) {
	if n.spec.View {
		src, err := g.gradOf(g.nodes[n.children[0]])
		if err != nil {
			return nil, err
		}
		return tensor.Alias(src, n.offset, n.shape)
	}
	if n.grad == nil {
		return nil, errors.Wrapf(ErrUsageOrder, "node %d (%s) has no gradient buffer", n.id, n.spec.Tag)
	}
	return n.grad, nil
}

// ensureVal allocates the node's value buffer on first use. Views return a
// zero-size allocation: their buffer is always derived from the child.
func (g *Graph) ensureVal(n *Node) error {
	if n.spec.View || n.val != nil {
		return nil
	}
	t, err := g.backend.Alloc(n.shape, tensor.Float32)
	if err != nil {
		return err
	}
	n.val = t
	return nil
}

// ensureGrad allocates and zeroes the node's gradient buffer. Gradients are
// lazy: only trainable, non-view nodes ever own one.
func (g *Graph) ensureGrad(n *Node) error {
	if n.spec.View || !n.trainable {
		return nil
	}
	if n.grad == nil {
		t, err := g.backend.Alloc(n.shape, tensor.Float32)
		if err != nil {
			return err
		}
		n.grad = t
	}
	return g.backend.Fill(n.grad, 0)
}

// Val returns a node's value buffer. Valid only after a completed forward
// pass; reading mid-pass or before one is a usage-order violation.
func (g *Graph) Val(id NodeID) (*tensor.Tensor, error) {
	n, err := g.Node(id)
	if err != nil {
		return nil, err
	}
	if n.state < stateValued {
		return nil, errors.Wrapf(ErrUsageOrder, "value of node %d (%s) read before forward", id, n.spec.Tag)
	}
	return g.valOf(n)
}

// Grad returns a node's accumulated gradient buffer. Valid only after a
// completed backward pass.
func (g *Graph) Grad(id NodeID) (*tensor.Tensor, error) {
	n, err := g.Node(id)
	if err != nil {
		return nil, err
	}
	if n.state < stateGradded {
		return nil, errors.Wrapf(ErrUsageOrder, "gradient of node %d (%s) read before backward", id, n.spec.Tag)
	}
	if !n.trainable {
		return nil, errors.Wrapf(ErrUsageOrder, "node %d (%s) is not trainable", id, n.spec.Tag)
	}
	return g.gradOf(n)
}

// Release frees every buffer owned by the graph's nodes through the backend
// and resets node lifecycle state. The arena itself stays usable for a
// rebuild.
func (g *Graph) Release() {
	for _, n := range g.nodes {
		g.backend.Free(n.val)
		g.backend.Free(n.grad)
		g.backend.Free(n.mask)
		n.val, n.grad, n.mask = nil, nil, nil
		n.state = stateConstructed
	}
	g.order = nil
	g.orderRoots = nil
	klog.V(1).Infof("graph %s: released", g.buildID)
}

// MemoryStats reports the live buffer bytes held on the graph's backend.
func (g *Graph) MemoryStats() string {
	return fmt.Sprintf("graph %s: %d nodes, %s live on %s",
		g.buildID, len(g.nodes), humanize.Bytes(g.backend.AllocBytes()), g.backend.DeviceID())
}
