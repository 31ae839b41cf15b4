package tensor

import "errors"

// Sentinel errors for the shape algebra and buffer layer. Callers match them
// with errors.Is; higher layers add context with github.com/pkg/errors.
var (
	// ErrShapeMismatch reports an impossible shape: a reshape whose element
	// count differs from its source, an invalid axis, or a non-positive
	// dimension. Always fatal at construction time.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrIndexOutOfRange reports a row index outside the source tensor, or an
	// alias that would extend past its source buffer.
	ErrIndexOutOfRange = errors.New("index out of range")
)
