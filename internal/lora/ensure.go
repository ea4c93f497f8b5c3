package lora

import "context"

// EnsureBaseModelLoaded makes the base model resident in the runtime if it is
// not already, persisting the residency flag, and returns the canonical model
// name. Repeat calls for a loaded model are cheap no-ops.
func (m *Manager) EnsureBaseModelLoaded(ctx context.Context, baseModelID int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bm, ok := m.catalog.BaseModel(baseModelID)
	if !ok {
		return "", ErrBaseModelNotFound(baseModelID)
	}
	if bm.IsLoaded {
		return bm.Name, nil
	}
	if err := m.rt.LoadBaseModel(ctx, bm.Name, bm.WeightsRef); err != nil {
		return "", ErrLoadFailure("base model "+bm.Name, err)
	}
	m.catalog.SetBaseModelLoaded(bm.ID, true)
	baseModelLoadsTotal.Inc()
	m.pub.Publish(Event{Name: "base_model_loaded", BaseModel: bm.Name})
	return bm.Name, nil
}
