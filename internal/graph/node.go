package graph

import (
	"github.com/weft-ml/weft/internal/tensor"
)

// NodeID is a handle into the graph's node arena. Children are held as
// handles rather than pointers: the graph is a DAG in which one node may
// feed several parents, and arena indices sidestep cyclic-ownership and
// use-after-free concerns entirely.
type NodeID int

type nodeState int

const (
	stateConstructed nodeState = iota
	stateValued
	stateGradded
)

// Node is the graph's unit: one tensor-valued operation with its children,
// its value and gradient buffers, and the per-operator parameters captured
// at construction. Shape is computed exactly once, at construction, and
// never re-derived.
//
// Owning nodes allocate value/gradient buffers lazily through the backend.
// View nodes (reshape, timestep) allocate nothing: their buffers are
// re-derived aliases into the child's current storage on every access.
type Node struct {
	id        NodeID
	kind      OpKind
	spec      *OpSpec
	children  []NodeID
	shape     tensor.Shape
	trainable bool
	state     nodeState

	val  *tensor.Tensor
	grad *tensor.Tensor

	// Per-operator parameters.
	axis    int     // reduction axis, AxisAll for all axes
	offset  int     // element offset into child storage, views only
	indices []int   // row-gather indices
	p       float32 // dropout probability

	// Dropout state: the mask buffer is created lazily at the first
	// training forward; the seed is derived from the backend seed and the
	// node's stable id, not its address, so reruns reproduce.
	mask      *tensor.Tensor
	dropSeed  uint64
	dropCalls uint64
}

// ID returns the node's arena handle.
func (n *Node) ID() NodeID { return n.id }

// Kind returns the node's operator kind.
func (n *Node) Kind() OpKind { return n.kind }

// Type returns the node's type tag, a string identifier used for graph
// introspection and debugging.
func (n *Node) Type() string { return n.spec.Tag }

// Color returns the node's visualization grouping hint.
func (n *Node) Color() string { return n.spec.Color }

// Shape returns the node's output shape.
func (n *Node) Shape() tensor.Shape { return n.shape }

// Trainable reports whether gradient accumulation is required for this node.
// Optimizers use it to filter which gradients to consume.
func (n *Node) Trainable() bool { return n.trainable }

// Children returns the node's child handles.
func (n *Node) Children() []NodeID { return n.children }

// IsView reports whether the node aliases a child's storage instead of
// owning buffers.
func (n *Node) IsView() bool { return n.spec.View }
