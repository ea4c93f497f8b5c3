package runtime

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Gateway is a state-tracking wrapper around a Runtime. It records which base
// models the runtime currently has resident and which adapters are attached
// to each, so callers can consult residency without a round trip.
type Gateway struct {
	rt  Runtime
	log zerolog.Logger

	mu sync.RWMutex
	// base model name -> weights reference
	loadedModels map[string]string
	// base model name -> adapter name -> weights path
	loadedAdapters map[string]map[string]string
}

func NewGateway(rt Runtime, log zerolog.Logger) *Gateway {
	return &Gateway{
		rt:             rt,
		log:            log.With().Str("component", "runtime").Logger(),
		loadedModels:   make(map[string]string),
		loadedAdapters: make(map[string]map[string]string),
	}
}

// LoadBaseModel delegates to the runtime and records residency on success.
func (g *Gateway) LoadBaseModel(ctx context.Context, name, weightsRef string) error {
	if err := g.rt.LoadBaseModel(ctx, name, weightsRef); err != nil {
		g.log.Error().Str("model", name).Err(err).Msg("base model load failed")
		return err
	}
	g.mu.Lock()
	g.loadedModels[name] = weightsRef
	g.mu.Unlock()
	g.log.Info().Str("model", name).Msg("base model loaded")
	return nil
}

// LoadLoRAAdapter delegates to the runtime and records the attachment.
func (g *Gateway) LoadLoRAAdapter(ctx context.Context, baseModel, adapterName, weightsPath string) error {
	if err := g.rt.LoadLoRAAdapter(ctx, baseModel, adapterName, weightsPath); err != nil {
		g.log.Error().Str("model", baseModel).Str("adapter", adapterName).Err(err).Msg("adapter load failed")
		return err
	}
	g.mu.Lock()
	if g.loadedAdapters[baseModel] == nil {
		g.loadedAdapters[baseModel] = make(map[string]string)
	}
	g.loadedAdapters[baseModel][adapterName] = weightsPath
	g.mu.Unlock()
	g.log.Info().Str("model", baseModel).Str("adapter", adapterName).Msg("adapter loaded")
	return nil
}

// UnloadLoRAAdapter delegates to the runtime and drops the attachment record.
func (g *Gateway) UnloadLoRAAdapter(ctx context.Context, baseModel, adapterName string) error {
	err := g.rt.UnloadLoRAAdapter(ctx, baseModel, adapterName)
	if err != nil {
		g.log.Warn().Str("model", baseModel).Str("adapter", adapterName).Err(err).Msg("adapter unload failed")
		return err
	}
	g.mu.Lock()
	if m := g.loadedAdapters[baseModel]; m != nil {
		delete(m, adapterName)
	}
	g.mu.Unlock()
	return nil
}

func (g *Gateway) Infer(ctx context.Context, p InferParams) (string, error) {
	return g.rt.Infer(ctx, p)
}

func (g *Gateway) InferStream(ctx context.Context, p InferParams, onToken func(string) error) error {
	return g.rt.InferStream(ctx, p, onToken)
}

// IsModelLoaded reports whether a base model is recorded as resident.
func (g *Gateway) IsModelLoaded(name string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.loadedModels[name]
	return ok
}

// LoadedModels lists resident base model names in stable order.
func (g *Gateway) LoadedModels() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, 0, len(g.loadedModels))
	for name := range g.loadedModels {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
