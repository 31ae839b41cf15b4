package graph

import (
	"fmt"
	"strings"
)

// Graphviz renders the DAG in dot format for debugging and visualization,
// using each node's type tag and color hint. Edges point from child to
// parent, the direction values flow.
func (g *Graph) Graphviz() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "digraph ExpressionGraph {\n")
	fmt.Fprintf(&sb, "  // build %s\n", g.buildID)
	fmt.Fprintf(&sb, "  rankdir=BT;\n")
	for _, n := range g.nodes {
		shape := "box"
		if n.trainable {
			shape = "box3d"
		}
		fmt.Fprintf(&sb, "  n%d [label=%q, shape=%s, style=filled, fillcolor=%q];\n",
			n.id, fmt.Sprintf("%s %s", n.spec.Tag, n.shape), shape, n.spec.Color)
	}
	for _, n := range g.nodes {
		for _, c := range n.children {
			fmt.Fprintf(&sb, "  n%d -> n%d;\n", c, n.id)
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}
