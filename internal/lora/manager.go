package lora

import (
	"sort"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"inferd/internal/catalog"
	"inferd/internal/runtime"
)

// cacheKey identifies one adapter attachment on one base model.
type cacheKey struct {
	baseModel string
	adapterID int64
}

// Manager tracks which LoRA adapters are resident in the runtime per base
// model and serializes all load/unload traffic.
type Manager struct {
	mu       sync.Mutex
	cache    map[cacheKey]string // (base model, adapter id) -> runtime adapter name
	catalog  *catalog.Catalog
	rt       *runtime.Gateway
	basePath string
	pub      EventPublisher
	log      zerolog.Logger
}

// CachedAdapters lists cache entries as "<base_model>/<adapter_id>" keys in
// stable order. Intended for status reporting.
func (m *Manager) CachedAdapters() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.cache))
	for k := range m.cache {
		out = append(out, k.baseModel+"/"+strconv.FormatInt(k.adapterID, 10))
	}
	sort.Strings(out)
	return out
}
