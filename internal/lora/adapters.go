package lora

import (
	"context"
	"strconv"
)

// runtimeAdapterName is the name an adapter is registered under in the
// runtime. Stable across processes so a restarted gateway can re-resolve.
func runtimeAdapterName(adapterID int64) string {
	return "adapter_" + strconv.FormatInt(adapterID, 10)
}

// LoadAdaptersForInference resolves the given adapter ids within the model's
// scope and makes each resident on the model's base model, reusing cached
// attachments. All requested ids must resolve to active adapters of modelID;
// a partial match is rejected wholesale before any load is issued.
//
// The returned runtime adapter names are what the caller hands to the
// inference call. Their order is implementation-defined and need not match
// the input id order.
func (m *Manager) LoadAdaptersForInference(ctx context.Context, modelID int64, adapterIDs []int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mdl, ok := m.catalog.Model(modelID)
	if !ok {
		return nil, ErrModelNotFound(modelID)
	}
	bm, ok := m.catalog.BaseModel(mdl.BaseModelID)
	if !ok {
		return nil, ErrBaseModelNotFound(mdl.BaseModelID)
	}

	adapters := m.catalog.AdaptersForModel(modelID, adapterIDs)
	if len(adapters) != len(adapterIDs) {
		return nil, adaptersNotFoundError{modelID: modelID, requested: len(adapterIDs), resolved: len(adapters)}
	}

	names := make([]string, 0, len(adapters))
	for _, a := range adapters {
		key := cacheKey{baseModel: bm.Name, adapterID: a.ID}
		if name, hit := m.cache[key]; hit {
			adapterCacheHits.Inc()
			names = append(names, name)
			continue
		}
		adapterCacheMisses.Inc()
		name := runtimeAdapterName(a.ID)
		if err := m.rt.LoadLoRAAdapter(ctx, bm.Name, name, m.AdapterPath(a.ID)); err != nil {
			// Not cached on failure; the next call retries the load.
			return nil, ErrLoadFailure("adapter "+strconv.FormatInt(a.ID, 10), err)
		}
		m.cache[key] = name
		adapterLoadsTotal.Inc()
		m.pub.Publish(Event{Name: "adapter_loaded", BaseModel: bm.Name, AdapterID: a.ID})
		names = append(names, name)
	}
	return names, nil
}

// UnloadAdapter evicts the cache entry for (model's base model, adapterID)
// and asks the runtime to detach the adapter. Best-effort: a missing model,
// missing cache entry, or runtime refusal leaves no observable change beyond
// the eviction, and none of them is reported as a failure.
func (m *Manager) UnloadAdapter(ctx context.Context, modelID, adapterID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mdl, ok := m.catalog.Model(modelID)
	if !ok {
		return
	}
	bm, ok := m.catalog.BaseModel(mdl.BaseModelID)
	if !ok {
		return
	}
	key := cacheKey{baseModel: bm.Name, adapterID: adapterID}
	name, cached := m.cache[key]
	if !cached {
		return
	}
	if err := m.rt.UnloadLoRAAdapter(ctx, bm.Name, name); err != nil {
		m.log.Warn().Int64("adapter", adapterID).Err(err).Msg("runtime unload failed; evicting cache entry anyway")
	}
	delete(m.cache, key)
	m.pub.Publish(Event{Name: "adapter_unloaded", BaseModel: bm.Name, AdapterID: adapterID})
}
