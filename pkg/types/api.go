package types

// InferRequest is the inference request payload.
type InferRequest struct {
	// Tenant performing the request. Set by the route layer, not the client.
	TenantID int64 `json:"tenant_id"`
	// Fine-tuned model id, resolved within the tenant's scope.
	// example: 42
	ModelID int64 `json:"model_id"`
	// Required user input to generate a completion for.
	// example: Summarize our refund policy.
	Input string `json:"input"`
	// Optional adapter ids to compose with the base model.
	AdapterIDs []int64 `json:"adapter_ids,omitempty"`
	// If true, retrieve top-k context chunks and prepend them to the prompt.
	UseRAG bool `json:"use_rag,omitempty"`
	// Number of context chunks to retrieve when UseRAG is set. Default 3.
	TopK int `json:"top_k,omitempty"`
	// Sampling temperature (higher = more random).
	// example: 0.7
	Temperature float64 `json:"temperature,omitempty"`
	// Maximum number of new tokens to generate.
	// example: 1000
	MaxTokens int `json:"max_tokens,omitempty"`
	// If true, stream results as NDJSON token lines.
	Stream bool `json:"stream,omitempty"`
}

// InferResponse is the non-streaming inference result.
type InferResponse struct {
	Result string `json:"result"`
	// Retrieved context, present only when RAG was requested.
	Context string `json:"context,omitempty"`
	ModelID int64  `json:"model_id"`
	// Runtime adapter names applied to this generation.
	AdaptersUsed []string `json:"adapters_used"`
}

// EnqueueDocumentRequest queues a document for (re-)ingestion.
type EnqueueDocumentRequest struct {
	TenantID   int64 `json:"tenant_id"`
	DocumentID int64 `json:"document_id"`
}

// EnqueueDocumentResponse acknowledges a queued ingestion job.
type EnqueueDocumentResponse struct {
	JobID    string `json:"job_id"`
	Status   string `json:"status"`
	QueueLen int    `json:"queue_len"`
}

// RegisterAdapterRequest registers LoRA weights for a model.
type RegisterAdapterRequest struct {
	TenantID int64  `json:"tenant_id"`
	ModelID  int64  `json:"model_id"`
	Name     string `json:"name"`
	// Source path of the trained weights; copied into the managed location.
	WeightsPath string `json:"weights_path"`
}

// SearchRequest runs a tenant-scoped similarity search.
type SearchRequest struct {
	TenantID int64  `json:"tenant_id"`
	Query    string `json:"query"`
	TopK     int    `json:"top_k,omitempty"`
	// Additional equality filters merged with the mandatory tenant filter.
	Filters map[string]string `json:"filters,omitempty"`
}

// SearchResponse wraps ranked search hits.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: model not found: 42
	Error string `json:"error"`
	// HTTP status code.
	// example: 404
	Code int `json:"code"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Base models currently resident in the runtime.
	LoadedModels []string `json:"loaded_models"`
	// Adapter cache entries keyed by "<base_model>/<adapter_id>".
	CachedAdapters []string `json:"cached_adapters"`
	// Ingestion queue depth at the time of the call.
	QueueLen int `json:"queue_len"`
	// Uptime of the server in seconds.
	UptimeSeconds int64 `json:"uptime_seconds"`
	// Server time in unix seconds.
	ServerTimeUnix int64 `json:"server_time_unix"`
}
