package remotedram

import (
	"context"
	"sync"
)

// DriverName is the driver identifier spec §6 assigns this driver
// in the kvstore registry.
const DriverName = "remote_dram"

// OpenFunc is the shape a driver identifier is registered under, the
// closest local analogue of "registered in the kvstore registry at
// module load" available without an external registry package to plug
// into (spec §6).
type OpenFunc func(ctx context.Context, cfg Config) (*Driver, error)

var (
	registryMu sync.Mutex
	registry   = map[string]OpenFunc{}
)

func init() {
	registry[DriverName] = Open
}

// Lookup returns the OpenFunc registered for name, if any.
func Lookup(name string) (OpenFunc, bool) {
	registryMu.Lock()
	defer registryMu.Unlock()
	fn, ok := registry[name]
	return fn, ok
}
