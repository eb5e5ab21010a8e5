package destination

import (
	"fmt"
	"sort"
	"sync"
)

// Factory constructs a destination from its validated per-variant settings.
type Factory func(name string, settings map[string]interface{}) (Destination, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register adds a destination variant under a configuration tag. Registering
// the same tag twice panics; variants are wired once at startup.
func Register(kind string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[kind]; dup {
		panic(fmt.Sprintf("destination: duplicate registration for %q", kind))
	}
	registry[kind] = factory
}

// New builds a destination of the given kind. Unknown kinds are configuration
// errors surfaced before any submission happens.
func New(kind, name string, settings map[string]interface{}) (Destination, error) {
	registryMu.RLock()
	factory, ok := registry[kind]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown destination type %q (known: %v)", kind, Kinds())
	}
	return factory(name, settings)
}

// Kinds lists the registered variant tags in sorted order.
func Kinds() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	kinds := make([]string, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
