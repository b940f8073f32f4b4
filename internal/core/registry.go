package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[string]DriverDefinition)
	registryMu sync.RWMutex
)

// RegisterDriver adds a source driver to the registry.
// Panics if a driver with the same name is already registered.
func RegisterDriver(def DriverDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Name]; exists {
		panic(fmt.Sprintf("source driver already registered: %s", def.Info.Name))
	}
	if def.Info.Label == "" {
		def.Info.Label = def.Info.Name
	}

	registry[def.Info.Name] = def
}

// GetDriver returns a driver definition by name.
// Returns false if not found.
func GetDriver(name string) (DriverDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[name]
	return def, ok
}

// Drivers returns all registered drivers sorted by name.
func Drivers() []DriverInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]DriverInfo, 0, len(registry))
	for _, def := range registry {
		result = append(result, def.Info)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result
}

// OpenSource opens a source with the named driver.
func OpenSource(ctx context.Context, name string, params OpenParams) (Source, error) {
	def, ok := GetDriver(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, name)
	}
	return def.Open(ctx, params)
}

// ClearDrivers removes all registered drivers.
// Primarily useful for testing.
func ClearDrivers() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]DriverDefinition)
}
