package backend

import "errors"

// ErrDevice reports a device selection, initialization or synchronization
// failure. Fatal and surfaced to the caller; compute failures are not assumed
// transient at this layer, so there is no retry.
var ErrDevice = errors.New("device error")
