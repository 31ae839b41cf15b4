package backend

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Constructor builds a backend for one device of its registered type.
type Constructor func(id DeviceID, seed uint64) (Backend, error)

// EnvVar is the environment variable consulted by FromConfig when it is
// called with an empty config string. Format: "cpu", "webgpu" or "webgpu:1".
const EnvVar = "WEFT_BACKEND"

var (
	registryMu sync.RWMutex
	registry   = map[DeviceType]Constructor{}
)

// Register installs a constructor for a device type. Backends call this from
// their package init; registering the same type twice panics, since that is
// always a programming error.
func Register(dt DeviceType, ctor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[dt]; dup {
		panic("backend: duplicate registration for device type " + dt.String())
	}
	registry[dt] = ctor
	klog.V(1).Infof("backend: registered device type %q", dt)
}

// ByDeviceID resolves a device handle and seed to a concrete backend.
// Unknown device types fail with ErrDevice.
func ByDeviceID(id DeviceID, seed uint64) (Backend, error) {
	registryMu.RLock()
	ctor, ok := registry[id.Type]
	registryMu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrDevice,
			"no backend registered for device %s (missing import of its package?)", id)
	}
	be, err := ctor(id, seed)
	if err != nil {
		return nil, err
	}
	klog.V(1).Infof("backend: resolved %s (seed=%d)", id, seed)
	return be, nil
}

// FromConfig parses a config string of the form "<type>" or "<type>:<ordinal>"
// and resolves it through ByDeviceID. An empty config falls back to the
// WEFT_BACKEND environment variable, then to "cpu".
func FromConfig(config string, seed uint64) (Backend, error) {
	if config == "" {
		config = os.Getenv(EnvVar)
	}
	if config == "" {
		config = "cpu"
	}

	name := config
	ordinal := 0
	if idx := strings.Index(config, ":"); idx != -1 {
		name = config[:idx]
		n, err := strconv.Atoi(config[idx+1:])
		if err != nil {
			return nil, errors.Wrapf(ErrDevice, "bad device ordinal in config %q", config)
		}
		ordinal = n
	}

	var dt DeviceType
	switch name {
	case "cpu":
		dt = CPU
	case "webgpu":
		dt = WebGPU
	default:
		return nil, errors.Wrapf(ErrDevice, "unknown device type %q in config %q", name, config)
	}
	return ByDeviceID(DeviceID{Type: dt, Ordinal: ordinal}, seed)
}
