// Package lora provides the adapter cache and hot-swap loader for LoRA
// adapters. It is structured into small files by concern:
//
//   - manager.go: core Manager type, constructor, cache introspection.
//   - config.go: ManagerConfig and package defaults.
//   - errors.go: error types and helpers (IsNotFound, IsAdaptersNotFound,
//     IsLoadFailure).
//   - ensure.go: EnsureBaseModelLoaded lifecycle.
//   - adapters.go: LoadAdaptersForInference and UnloadAdapter.
//   - weights.go: managed adapter weights directory (SaveAdapter,
//     AdapterPath).
//   - events.go: lifecycle event publishing.
//   - metrics.go: prometheus counters for cache traffic and runtime loads.
//
// All cache read-modify-write sequences run under one manager-wide mutex, so
// a single caller at a time may mutate the cache or issue a load/unload
// against the runtime. Adapter churn is rare next to inference volume; the
// coarse lock keeps load idempotence simple. Per-key locking would be a
// non-breaking upgrade.
package lora
