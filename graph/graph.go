// Copyright 2025 Weft ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package graph provides the public expression-graph API of the Weft ML
// framework: reverse-mode automatic differentiation over a growing DAG of
// tensor operations.
//
// Nodes are addressed by integer NodeID handles. Build the graph with the
// construction methods (Param, Const, Sigmoid, Dot, ...), run Forward to
// populate values, then Backward to accumulate gradients into every trainable
// node:
//
//	be, _ := backend.FromConfig("cpu", 42)
//	g := graph.New(be)
//
//	x, _ := g.Param(shape, data)
//	h, _ := g.Tanh(x)
//	loss, _ := g.Sum(h, tensor.AxisAll)
//
//	if err := g.Forward(loss); err != nil { ... }
//	if err := g.Backward(loss); err != nil { ... }
//	grad, _ := g.Grad(x)
package graph

import (
	"github.com/weft-ml/weft/backend"
	"github.com/weft-ml/weft/internal/graph"
)

// Graph is an expression DAG bound to one backend.
type Graph = graph.Graph

// NodeID is a stable handle into a graph's node arena.
type NodeID = graph.NodeID

// Node is one operation in the DAG. Obtained via Graph.Node for inspection.
type Node = graph.Node

// Sentinel errors. Wrapped errors compare true with errors.Is.
var (
	ErrShapeMismatch   = graph.ErrShapeMismatch
	ErrIndexOutOfRange = graph.ErrIndexOutOfRange
	ErrUsageOrder      = graph.ErrUsageOrder
)

// New creates an empty graph evaluating on be.
func New(be backend.Backend) *Graph {
	return graph.New(be)
}
