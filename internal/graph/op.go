package graph

import "fmt"

// OpKind tags an operator variant. The set is closed but extensible: a new
// kind registers an OpSpec through RegisterOp and gets dispatched by the
// same generic node lifecycle, with no changes to the walker.
type OpKind uint8

// Operator kinds.
const (
	KindParam OpKind = iota
	KindConst
	KindLogit
	KindTanh
	KindReLU
	KindLog
	KindExp
	KindNeg
	KindSum
	KindMean
	KindSoftmax
	KindLogSoftmax
	KindRows
	KindTranspose
	KindReshape
	KindTimestep
	KindDropout
	KindPlus
	KindMult
	KindDot
)

// OpSpec is the per-kind function table plugged into the generic node
// lifecycle: forward and backward ops plus the introspection surface.
type OpSpec struct {
	// Tag is the node type string exposed for graph introspection.
	Tag string

	// Color is the visualization grouping hint. Not computational.
	Color string

	// View marks zero-copy operators: no allocation, no compute; value and
	// gradient buffers alias the child's storage.
	View bool

	// Forward computes n's value from its already-valued children. Nil for
	// leaves and views.
	Forward func(g *Graph, n *Node) error

	// Backward accumulates n's (fully collected) gradient into each
	// trainable child's gradient buffer. Accumulation only, never
	// overwrite: a child may receive contributions from several parents.
	// Nil for leaves and views.
	Backward func(g *Graph, n *Node) error
}

var opRegistry = map[OpKind]*OpSpec{}

// RegisterOp installs the spec for an operator kind. Called from package
// init; a duplicate registration panics.
func RegisterOp(kind OpKind, spec OpSpec) {
	if _, dup := opRegistry[kind]; dup {
		panic(fmt.Sprintf("graph: duplicate op registration for kind %d", kind))
	}
	opRegistry[kind] = &spec
}

func opSpec(kind OpKind) *OpSpec {
	spec, ok := opRegistry[kind]
	if !ok {
		panic(fmt.Sprintf("graph: no op registered for kind %d", kind))
	}
	return spec
}
