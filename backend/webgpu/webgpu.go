// Copyright 2025 Weft ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the GPU backend for the Weft ML framework, built on
// WebGPU compute shaders.
//
// Element-wise kernels run on the device; the remaining kernels fall back to
// the CPU implementation until their shaders land. New returns an error
// wrapping backend.ErrDevice when no adapter is available, so callers can
// degrade to the CPU:
//
//	gpu, err := webgpu.New(backend.DeviceID{Type: backend.WebGPU}, 42)
//	if err != nil {
//	    be, _ = backend.FromConfig("cpu", 42)
//	}
//	defer gpu.Release()
package webgpu

import (
	"github.com/weft-ml/weft/backend"
	internalwebgpu "github.com/weft-ml/weft/internal/backend/webgpu"
)

// Backend is the WebGPU implementation of backend.Backend.
type Backend = internalwebgpu.Backend

var _ backend.Backend = (*Backend)(nil)

// New creates a WebGPU backend on the given device. The returned backend must
// be Released when no longer needed.
func New(id backend.DeviceID, seed uint64) (*Backend, error) {
	return internalwebgpu.New(id, seed)
}
