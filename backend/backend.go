// Copyright 2025 Weft ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package backend provides the public device abstraction for the Weft ML
// framework.
//
// A Backend owns tensor memory on one device and implements the kernel set the
// expression graph evaluates with. Concrete backends register themselves at
// init time; import them for side effects and resolve one via FromConfig:
//
//	import (
//	    "github.com/weft-ml/weft/backend"
//	    _ "github.com/weft-ml/weft/backend/cpu"
//	    _ "github.com/weft-ml/weft/backend/webgpu"
//	)
//
//	be, err := backend.FromConfig("webgpu:0", 42)
package backend

import (
	"github.com/weft-ml/weft/internal/backend"
)

// DeviceType identifies a class of compute device.
type DeviceType = backend.DeviceType

// Device type constants.
const (
	CPU    DeviceType = backend.CPU
	WebGPU DeviceType = backend.WebGPU
)

// DeviceID names one device: a type plus an ordinal.
type DeviceID = backend.DeviceID

// Backend is the per-device allocation and kernel interface.
type Backend = backend.Backend

// Kernels is the compute surface every backend implements.
type Kernels = backend.Kernels

// ElementOp selects a pointwise function for Element and ElementGrad.
type ElementOp = backend.ElementOp

// Element operation constants.
const (
	ElSigmoid ElementOp = backend.ElSigmoid
	ElTanh    ElementOp = backend.ElTanh
	ElReLU    ElementOp = backend.ElReLU
	ElLog     ElementOp = backend.ElLog
	ElExp     ElementOp = backend.ElExp
	ElNeg     ElementOp = backend.ElNeg
)

// ErrDevice is the sentinel wrapped by device resolution failures.
var ErrDevice = backend.ErrDevice

// EnvVar is the environment variable consulted when FromConfig receives an
// empty string.
const EnvVar = backend.EnvVar

// Constructor builds a backend for a device.
type Constructor = backend.Constructor

// Register installs a backend constructor for a device type. It is meant to be
// called from package init.
func Register(dt DeviceType, ctor Constructor) {
	backend.Register(dt, ctor)
}

// ByDeviceID resolves a registered backend for id.
func ByDeviceID(id DeviceID, seed uint64) (Backend, error) {
	return backend.ByDeviceID(id, seed)
}

// FromConfig resolves a backend from a "type" or "type:ordinal" string, or
// from the WEFT_BACKEND environment variable when config is empty.
func FromConfig(config string, seed uint64) (Backend, error) {
	return backend.FromConfig(config, seed)
}
