package graph

// Leaves are the graph's inputs: their value buffers are populated at
// construction, so forward is a no-op, and nothing lies below them for
// backward to reach.

func init() {
	RegisterOp(KindParam, OpSpec{
		Tag:   "param",
		Color: "green",
	})
	RegisterOp(KindConst, OpSpec{
		Tag:   "const",
		Color: "white",
	})
}
