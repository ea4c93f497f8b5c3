// Package httpapi exposes the gateway over HTTP: document ingestion, adapter
// registration, similarity search and inference, plus health and metrics.
// Every tenant-scoped route resolves the tenant from the X-Tenant-ID header;
// tenant ids supplied in request bodies are ignored.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"inferd/internal/catalog"
	"inferd/internal/embed"
	"inferd/internal/inference"
	"inferd/internal/ingest"
	"inferd/internal/lora"
	"inferd/internal/runtime"
	"inferd/internal/vectorstore"
	"inferd/pkg/types"
)

const tenantHeader = "X-Tenant-ID"

// Server bundles the handler dependencies.
type Server struct {
	Catalog   *catalog.Catalog
	Queue     *ingest.Queue
	Inference *inference.Service
	Lora      *lora.Manager
	Runtime   *runtime.Gateway
	Store     vectorstore.Store
	Embedder  embed.Embedder
	Log       zerolog.Logger

	startedAt time.Time
}

// NewMux builds the chi router with the full middleware stack.
func NewMux(s *Server) http.Handler {
	s.startedAt = time.Now()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(s.Log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", tenantHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealthz)
	r.Get("/status", s.handleStatus)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/documents", s.handleEnqueueDocument)
		r.Get("/documents/{id}", s.handleDocumentStatus)
		r.Delete("/documents/{id}", s.handleDeleteDocumentChunks)
		r.Post("/infer", s.handleInfer)
		r.Post("/adapters", s.handleRegisterAdapter)
		r.Delete("/adapters/{modelID}/{adapterID}", s.handleUnloadAdapter)
		r.Post("/search", s.handleSearch)
		r.Get("/search", s.handleSearchGet)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// tenantID resolves the caller's tenant from the request header.
func tenantID(r *http.Request) (int64, bool) {
	raw := r.Header.Get(tenantHeader)
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func pathID(r *http.Request, key string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	writeJSON(w, http.StatusOK, types.StatusResponse{
		LoadedModels:   s.Runtime.LoadedModels(),
		CachedAdapters: s.Lora.CachedAdapters(),
		QueueLen:       s.Queue.Len(),
		UptimeSeconds:  int64(now.Sub(s.startedAt).Seconds()),
		ServerTimeUnix: now.Unix(),
	})
}

func (s *Server) handleEnqueueDocument(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "missing or invalid "+tenantHeader+" header")
		return
	}
	var req types.EnqueueDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	doc, ok := s.Catalog.DocumentForTenant(tenant, req.DocumentID)
	if !ok {
		writeJSONError(w, http.StatusNotFound, "document not found: "+strconv.FormatInt(req.DocumentID, 10))
		return
	}
	s.Catalog.SetDocumentStatus(doc.ID, types.DocPending)
	job := ingest.NewJob(doc)
	pos := s.Queue.Enqueue(job)
	writeJSON(w, http.StatusAccepted, types.EnqueueDocumentResponse{
		JobID:    job.ID,
		Status:   string(types.DocPending),
		QueueLen: pos,
	})
}

func (s *Server) handleDocumentStatus(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "missing or invalid "+tenantHeader+" header")
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid document id")
		return
	}
	doc, ok := s.Catalog.DocumentForTenant(tenant, id)
	if !ok {
		writeJSONError(w, http.StatusNotFound, "document not found: "+strconv.FormatInt(id, 10))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocumentChunks(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "missing or invalid "+tenantHeader+" header")
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid document id")
		return
	}
	doc, ok := s.Catalog.DocumentForTenant(tenant, id)
	if !ok {
		writeJSONError(w, http.StatusNotFound, "document not found: "+strconv.FormatInt(id, 10))
		return
	}
	if err := s.Store.DeleteDocumentChunks(r.Context(), tenant, doc.ID); err != nil {
		writeJSONError(w, http.StatusBadGateway, "delete chunks: "+err.Error())
		return
	}
	s.Catalog.ResetDocumentChunks(doc.ID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleInfer(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "missing or invalid "+tenantHeader+" header")
		return
	}
	var req types.InferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	req.TenantID = tenant

	if req.Stream {
		s.streamInfer(w, r, req)
		return
	}

	resp, err := s.Inference.Infer(r.Context(), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// streamInfer writes one NDJSON object per token, then a terminal done line.
func (s *Server) streamInfer(w http.ResponseWriter, r *http.Request, req types.InferRequest) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "streaming unsupported by connection")
		return
	}
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(w)
	err := s.Inference.InferStream(r.Context(), req, func(token string) error {
		if err := enc.Encode(map[string]string{"token": token}); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		// Headers already sent; surface the error in-band.
		_ = enc.Encode(map[string]string{"error": err.Error()})
		flusher.Flush()
		return
	}
	_ = enc.Encode(map[string]bool{"done": true})
	flusher.Flush()
}

func (s *Server) handleRegisterAdapter(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantID(r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "missing or invalid "+tenantHeader+" header")
		return
	}
	var req types.RegisterAdapterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.Name == "" {
		writeJSONError(w, http.StatusBadRequest, "adapter name is required")
		return
	}
	if _, ok := s.Catalog.ModelForTenant(tenant, req.ModelID); !ok {
		writeJSONError(w, http.StatusNotFound, "model not found: "+strconv.FormatInt(req.ModelID, 10))
		return
	}
	a := s.Catalog.AddAdapter(types.Adapter{
		ModelID:     req.ModelID,
		Name:        req.Name,
		WeightsPath: req.WeightsPath,
		Active:      true,
	})
	target, err := s.Lora.SaveAdapter(a.ID, req.WeightsPath)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "save adapter weights: "+err.Error())
		return
	}
	s.Catalog.SetAdapterWeightsPath(a.ID, target)
	a.WeightsPath = target
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) handleUnloadAdapter(w http.ResponseWriter, r *http.Request) {
	modelID, ok := pathID(r, "modelID")
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid model id")
		return
	}
	adapterID, ok := pathID(r, "adapterID")
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid adapter id")
		return
	}
	s.Lora.UnloadAdapter(r.Context(), modelID, adapterID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "unloaded"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req types.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	s.search(w, r, req)
}

// handleSearchGet is the query-parameter form: /v1/search?q=...&top_k=3.
func (s *Server) handleSearchGet(w http.ResponseWriter, r *http.Request) {
	req := types.SearchRequest{Query: r.URL.Query().Get("q")}
	if raw := r.URL.Query().Get("top_k"); raw != "" {
		k, err := strconv.Atoi(raw)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid top_k")
			return
		}
		req.TopK = k
	}
	s.search(w, r, req)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request, req types.SearchRequest) {
	tenant, ok := tenantID(r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "missing or invalid "+tenantHeader+" header")
		return
	}
	if req.Query == "" {
		writeJSONError(w, http.StatusBadRequest, "query is required")
		return
	}
	topK := req.TopK
	if topK <= 0 {
		topK = 3
	}
	vecs, err := s.Embedder.EmbedTexts(r.Context(), []string{req.Query})
	if err != nil {
		writeJSONError(w, http.StatusBadGateway, "embed query: "+err.Error())
		return
	}
	if len(vecs) == 0 {
		writeJSON(w, http.StatusOK, types.SearchResponse{Results: []types.SearchResult{}})
		return
	}
	results, err := s.Store.Search(r.Context(), tenant, vecs[0], topK, req.Filters)
	if err != nil {
		writeJSONError(w, http.StatusBadGateway, "search: "+err.Error())
		return
	}
	if results == nil {
		results = []types.SearchResult{}
	}
	writeJSON(w, http.StatusOK, types.SearchResponse{Results: results})
}
