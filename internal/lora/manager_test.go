package lora

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"inferd/internal/catalog"
	"inferd/internal/runtime"
	"inferd/pkg/types"
)

// fakeRuntime records every call so tests can assert exact load traffic.
type fakeRuntime struct {
	baseLoads    []string
	adapterLoads []string
	unloads      []string
	failLoads    bool
}

func (f *fakeRuntime) LoadBaseModel(ctx context.Context, name, weightsRef string) error {
	if f.failLoads {
		return errors.New("runtime refused")
	}
	f.baseLoads = append(f.baseLoads, name)
	return nil
}

func (f *fakeRuntime) LoadLoRAAdapter(ctx context.Context, baseModel, adapterName, weightsPath string) error {
	if f.failLoads {
		return errors.New("runtime refused")
	}
	f.adapterLoads = append(f.adapterLoads, adapterName)
	return nil
}

func (f *fakeRuntime) UnloadLoRAAdapter(ctx context.Context, baseModel, adapterName string) error {
	f.unloads = append(f.unloads, adapterName)
	return nil
}

func (f *fakeRuntime) Infer(ctx context.Context, p runtime.InferParams) (string, error) {
	return "", nil
}

func (f *fakeRuntime) InferStream(ctx context.Context, p runtime.InferParams, onToken func(string) error) error {
	return nil
}

type fixture struct {
	mgr     *Manager
	rt      *fakeRuntime
	cat     *catalog.Catalog
	pub     *MemoryPublisher
	base    types.BaseModel
	model   types.Model
	active  types.Adapter
	dormant types.Adapter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cat := catalog.New()
	base := cat.AddBaseModel(types.BaseModel{Name: "llama-3-8b", WeightsRef: "/weights/llama-3-8b"})
	model := cat.AddModel(types.Model{TenantID: 1, Name: "support-bot", BaseModelID: base.ID})
	active := cat.AddAdapter(types.Adapter{ModelID: model.ID, Name: "tone", Active: true})
	dormant := cat.AddAdapter(types.Adapter{ModelID: model.ID, Name: "legacy", Active: false})

	rt := &fakeRuntime{}
	pub := NewMemoryPublisher()
	mgr := NewWithConfig(ManagerConfig{
		Catalog:         cat,
		Runtime:         runtime.NewGateway(rt, zerolog.Nop()),
		AdapterBasePath: t.TempDir(),
		Publisher:       pub,
		Logger:          zerolog.Nop(),
	})
	return &fixture{mgr: mgr, rt: rt, cat: cat, pub: pub, base: base, model: model, active: active, dormant: dormant}
}

func TestEnsureBaseModelLoadedIdempotent(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	name, err := fx.mgr.EnsureBaseModelLoaded(ctx, fx.base.ID)
	if err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	if name != "llama-3-8b" {
		t.Fatalf("unexpected model name %q", name)
	}
	name, err = fx.mgr.EnsureBaseModelLoaded(ctx, fx.base.ID)
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if name != "llama-3-8b" {
		t.Fatalf("unexpected model name on repeat %q", name)
	}
	if len(fx.rt.baseLoads) != 1 {
		t.Fatalf("expected exactly 1 runtime load, got %d", len(fx.rt.baseLoads))
	}
	bm, _ := fx.cat.BaseModel(fx.base.ID)
	if !bm.IsLoaded {
		t.Fatalf("residency flag not persisted")
	}
}

func TestEnsureBaseModelLoadedUnknown(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.mgr.EnsureBaseModelLoaded(context.Background(), 999)
	if !IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestLoadAdaptersCacheIdempotent(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	ids := []int64{fx.active.ID}

	first, err := fx.mgr.LoadAdaptersForInference(ctx, fx.model.ID, ids)
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	second, err := fx.mgr.LoadAdaptersForInference(ctx, fx.model.ID, ids)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if len(fx.rt.adapterLoads) != 1 {
		t.Fatalf("expected exactly 1 runtime adapter load, got %d", len(fx.rt.adapterLoads))
	}
	if len(first) != 1 || len(second) != 1 || first[0] != second[0] {
		t.Fatalf("names differ across calls: %v vs %v", first, second)
	}
	want := runtimeAdapterName(fx.active.ID)
	if first[0] != want {
		t.Fatalf("adapter name %q, want %q", first[0], want)
	}
}

func TestLoadAdaptersPartialMatchRejectedWholesale(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.mgr.LoadAdaptersForInference(context.Background(), fx.model.ID, []int64{fx.active.ID, 4242})
	if !IsAdaptersNotFound(err) {
		t.Fatalf("expected adapters-not-found, got %v", err)
	}
	if len(fx.rt.adapterLoads) != 0 {
		t.Fatalf("partial match must not issue any load, got %d", len(fx.rt.adapterLoads))
	}
	if got := fx.mgr.CachedAdapters(); len(got) != 0 {
		t.Fatalf("partial match polluted cache: %v", got)
	}
}

func TestLoadAdaptersInactiveNotResolvable(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.mgr.LoadAdaptersForInference(context.Background(), fx.model.ID, []int64{fx.dormant.ID})
	if !IsAdaptersNotFound(err) {
		t.Fatalf("expected adapters-not-found for inactive adapter, got %v", err)
	}
}

func TestLoadAdaptersUnknownModel(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.mgr.LoadAdaptersForInference(context.Background(), 999, []int64{fx.active.ID})
	if !IsNotFound(err) {
		t.Fatalf("expected not-found for unknown model, got %v", err)
	}
}

func TestLoadAdapterFailureNotCached(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	ids := []int64{fx.active.ID}

	fx.rt.failLoads = true
	if _, err := fx.mgr.LoadAdaptersForInference(ctx, fx.model.ID, ids); !IsLoadFailure(err) {
		t.Fatalf("expected load-failure, got %v", err)
	}
	if got := fx.mgr.CachedAdapters(); len(got) != 0 {
		t.Fatalf("failed load was cached: %v", got)
	}

	// Recovered runtime: the next call retries the load.
	fx.rt.failLoads = false
	names, err := fx.mgr.LoadAdaptersForInference(ctx, fx.model.ID, ids)
	if err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if len(names) != 1 || len(fx.rt.adapterLoads) != 1 {
		t.Fatalf("retry did not reload: names=%v loads=%d", names, len(fx.rt.adapterLoads))
	}
}

func TestUnloadAdapterEvictsCache(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	if _, err := fx.mgr.LoadAdaptersForInference(ctx, fx.model.ID, []int64{fx.active.ID}); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := fx.mgr.CachedAdapters(); len(got) != 1 {
		t.Fatalf("expected 1 cache entry, got %v", got)
	}

	fx.mgr.UnloadAdapter(ctx, fx.model.ID, fx.active.ID)
	if got := fx.mgr.CachedAdapters(); len(got) != 0 {
		t.Fatalf("cache entry survived unload: %v", got)
	}
	if len(fx.rt.unloads) != 1 || fx.rt.unloads[0] != runtimeAdapterName(fx.active.ID) {
		t.Fatalf("runtime unload traffic: %v", fx.rt.unloads)
	}

	// Repeat and unknown-model unloads are silent no-ops.
	fx.mgr.UnloadAdapter(ctx, fx.model.ID, fx.active.ID)
	fx.mgr.UnloadAdapter(ctx, 999, fx.active.ID)
	if len(fx.rt.unloads) != 1 {
		t.Fatalf("no-op unload hit the runtime: %v", fx.rt.unloads)
	}
}

func TestEventsPublished(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	if _, err := fx.mgr.EnsureBaseModelLoaded(ctx, fx.base.ID); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if _, err := fx.mgr.LoadAdaptersForInference(ctx, fx.model.ID, []int64{fx.active.ID}); err != nil {
		t.Fatalf("load: %v", err)
	}
	fx.mgr.UnloadAdapter(ctx, fx.model.ID, fx.active.ID)

	events := fx.pub.Events()
	want := []string{"base_model_loaded", "adapter_loaded", "adapter_unloaded"}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), events)
	}
	for i, name := range want {
		if events[i].Name != name {
			t.Fatalf("event %d = %q, want %q", i, events[i].Name, name)
		}
	}
}

func TestSaveAdapterCopiesWeights(t *testing.T) {
	fx := newFixture(t)

	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "adapter_model.bin"), []byte("weights"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	target, err := fx.mgr.SaveAdapter(fx.active.ID, src)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if target != fx.mgr.AdapterPath(fx.active.ID) {
		t.Fatalf("target %q, want %q", target, fx.mgr.AdapterPath(fx.active.ID))
	}
	b, err := os.ReadFile(filepath.Join(target, "adapter_model.bin"))
	if err != nil {
		t.Fatalf("read managed copy: %v", err)
	}
	if string(b) != "weights" {
		t.Fatalf("managed copy content %q", b)
	}

	// Replacing with a new source drops the previous tree.
	src2 := t.TempDir()
	if err := os.WriteFile(filepath.Join(src2, "other.bin"), []byte("v2"), 0o644); err != nil {
		t.Fatalf("write second source: %v", err)
	}
	if _, err := fx.mgr.SaveAdapter(fx.active.ID, src2); err != nil {
		t.Fatalf("re-save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(target, "adapter_model.bin")); !os.IsNotExist(err) {
		t.Fatalf("stale weights survived replacement")
	}
}

func TestSaveAdapterMissingSourceIsNoop(t *testing.T) {
	fx := newFixture(t)
	target, err := fx.mgr.SaveAdapter(fx.active.ID, filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("save with missing source: %v", err)
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Fatalf("missing source created a managed tree")
	}
}
