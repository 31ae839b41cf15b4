// Copyright 2025 Weft ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure-Go CPU backend for the Weft ML framework.
//
// Importing the package registers the backend, so a blank import is enough
// when resolving devices through backend.FromConfig:
//
//	import _ "github.com/weft-ml/weft/backend/cpu"
package cpu

import (
	"github.com/weft-ml/weft/backend"
	internalcpu "github.com/weft-ml/weft/internal/backend/cpu"
)

// Backend is the CPU implementation of backend.Backend. Element-wise kernels
// parallelize across cores for large tensors; matrix products go through
// gonum's BLAS bindings.
type Backend = internalcpu.Backend

var _ backend.Backend = (*Backend)(nil)

// New creates a CPU backend for the given device with a deterministic random
// seed.
func New(id backend.DeviceID, seed uint64) *Backend {
	return internalcpu.New(id, seed)
}
