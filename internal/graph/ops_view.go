package graph

// Reshape and Timestep are zero-copy views: no allocation, no compute.
// valOf/gradOf re-derive their buffers from the child's current storage at
// a fixed element offset on every access, so forward and backward have
// nothing to do — gradient accumulation through a view lands directly in
// the child's buffer. The trade-off: an alias is only valid while the child
// has not reallocated, which is why it is never cached.

func init() {
	RegisterOp(KindReshape, OpSpec{
		Tag:   "reshape",
		Color: "grey",
		View:  true,
	})
	RegisterOp(KindTimestep, OpSpec{
		Tag:   "step",
		Color: "grey",
		View:  true,
	})
}
