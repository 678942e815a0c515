package datasource

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// AdapterInfo describes a compiled-in store adapter.
type AdapterInfo struct {
	Type        string `json:"type"` // value of store.type
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
}

// Factory opens a discoverer from the generic settings map built by the config layer.
type Factory func(ctx context.Context, settings map[string]any, logger *zap.Logger) (SchemaDiscoverer, error)

// Adapter pairs an adapter's description with its factory.
type Adapter struct {
	Info    AdapterInfo
	Factory Factory
}

var (
	adaptersMu sync.RWMutex
	adapters   = make(map[string]Adapter)
)

// Register makes an adapter available under Info.Type. Adapters call it from init;
// a later registration for the same type replaces the earlier one.
func Register(a Adapter) {
	adaptersMu.Lock()
	defer adaptersMu.Unlock()
	adapters[a.Info.Type] = a
}

// RegisteredAdapters lists the compiled-in adapters ordered by type.
func RegisteredAdapters() []AdapterInfo {
	adaptersMu.RLock()
	defer adaptersMu.RUnlock()

	infos := make([]AdapterInfo, 0, len(adapters))
	for _, a := range adapters {
		infos = append(infos, a.Info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Type < infos[j].Type })
	return infos
}

// IsRegistered reports whether an adapter exists for storeType.
func IsRegistered(storeType string) bool {
	_, ok := lookup(storeType)
	return ok
}

func lookup(storeType string) (Adapter, bool) {
	adaptersMu.RLock()
	defer adaptersMu.RUnlock()
	a, ok := adapters[storeType]
	return a, ok
}
