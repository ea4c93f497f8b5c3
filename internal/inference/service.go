// Package inference composes prompt construction, adapter resolution, and
// runtime dispatch for single-shot and streaming generation.
package inference

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"inferd/internal/catalog"
	"inferd/internal/embed"
	"inferd/internal/lora"
	"inferd/internal/runtime"
	"inferd/internal/vectorstore"
	"inferd/pkg/types"
)

const (
	defaultTopK        = 3
	defaultTemperature = 0.7
	defaultMaxTokens   = 1000
)

// Service is the inference orchestrator.
type Service struct {
	catalog  *catalog.Catalog
	store    vectorstore.Store
	embedder embed.Embedder
	lora     *lora.Manager
	rt       *runtime.Gateway
	log      zerolog.Logger
}

func NewService(cat *catalog.Catalog, store vectorstore.Store, embedder embed.Embedder, mgr *lora.Manager, rt *runtime.Gateway, log zerolog.Logger) *Service {
	return &Service{
		catalog:  cat,
		store:    store,
		embedder: embedder,
		lora:     mgr,
		rt:       rt,
		log:      log.With().Str("component", "inference").Logger(),
	}
}

// prepared is everything resolved before a generation dispatch.
type prepared struct {
	params  runtime.InferParams
	context string
}

// prepare resolves the model within the tenant's scope, assembles the
// prompt, ensures the base model is resident, and resolves any adapters.
// A model belonging to another tenant is reported as not found.
func (s *Service) prepare(ctx context.Context, req types.InferRequest) (prepared, error) {
	var p prepared
	if strings.TrimSpace(req.Input) == "" {
		return p, errors.New("empty input")
	}
	mdl, ok := s.catalog.ModelForTenant(req.TenantID, req.ModelID)
	if !ok {
		return p, lora.ErrModelNotFound(req.ModelID)
	}

	var systemPrompt string
	if tpl, ok := s.catalog.DefaultTemplate(req.TenantID); ok {
		systemPrompt = buildSystemPrompt(tpl)
	}

	// RAG retrieval only when explicitly requested.
	if req.UseRAG {
		ctxText, err := s.retrieveContext(ctx, req.TenantID, req.Input, req.TopK)
		if err != nil {
			return p, err
		}
		p.context = ctxText
	}

	modelName, err := s.lora.EnsureBaseModelLoaded(ctx, mdl.BaseModelID)
	if err != nil {
		return p, err
	}

	var adapterNames []string
	if len(req.AdapterIDs) > 0 {
		adapterNames, err = s.lora.LoadAdaptersForInference(ctx, mdl.ID, req.AdapterIDs)
		if err != nil {
			return p, err
		}
	}

	temperature := req.Temperature
	if temperature == 0 {
		temperature = defaultTemperature
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	p.params = runtime.InferParams{
		Model:        modelName,
		Prompt:       buildPrompt(systemPrompt, p.context, req.Input),
		AdapterNames: adapterNames,
		Temperature:  temperature,
		MaxTokens:    maxTokens,
	}
	return p, nil
}

// retrieveContext embeds the query and joins the topK nearest chunk texts.
func (s *Service) retrieveContext(ctx context.Context, tenantID int64, query string, topK int) (string, error) {
	if topK <= 0 {
		topK = defaultTopK
	}
	vectors, err := s.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return "", err
	}
	if len(vectors) == 0 {
		return "", nil
	}
	results, err := s.store.Search(ctx, tenantID, vectors[0], topK, nil)
	if err != nil {
		return "", err
	}
	texts := make([]string, 0, len(results))
	for _, r := range results {
		texts = append(texts, r.Text)
	}
	return strings.Join(texts, "\n\n"), nil
}

// Infer runs a blocking generation and returns the structured result.
func (s *Service) Infer(ctx context.Context, req types.InferRequest) (*types.InferResponse, error) {
	p, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	result, err := s.rt.Infer(ctx, p.params)
	if err != nil {
		return nil, err
	}
	resp := &types.InferResponse{
		Result:       result,
		ModelID:      req.ModelID,
		AdaptersUsed: p.params.AdapterNames,
	}
	if resp.AdaptersUsed == nil {
		resp.AdaptersUsed = []string{}
	}
	if req.UseRAG {
		resp.Context = p.context
	}
	return resp, nil
}

// InferStream streams text increments through onToken. No buffering is added
// beyond what the runtime provides; canceling ctx stops the pull.
func (s *Service) InferStream(ctx context.Context, req types.InferRequest, onToken func(string) error) error {
	p, err := s.prepare(ctx, req)
	if err != nil {
		return err
	}
	return s.rt.InferStream(ctx, p.params, onToken)
}
