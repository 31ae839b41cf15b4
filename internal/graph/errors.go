package graph

import (
	"errors"

	"github.com/weft-ml/weft/internal/tensor"
)

// Re-exported shape-layer sentinels, so graph callers match every
// construction failure through one package.
var (
	ErrShapeMismatch   = tensor.ErrShapeMismatch
	ErrIndexOutOfRange = tensor.ErrIndexOutOfRange
)

// ErrUsageOrder reports a forward/backward/read invoked out of dependency
// order: reading a value before a forward pass, or backward without a
// matching forward.
var ErrUsageOrder = errors.New("usage order violation")
