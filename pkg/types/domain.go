package types

import "time"

// DocumentStatus is the lifecycle state of a document's ingestion.
type DocumentStatus string

const (
	DocPending    DocumentStatus = "pending"
	DocProcessing DocumentStatus = "processing"
	DocReady      DocumentStatus = "ready"
	DocFailed     DocumentStatus = "failed"
)

// BaseModel is a process-wide registry entry for a shared foundation model.
// Base models are shared across tenants; only the load bookkeeping mutates.
type BaseModel struct {
	// Stable identifier for the base model.
	// example: 1
	ID int64 `json:"id" yaml:"id" toml:"id"`
	// Canonical runtime name, unique across the registry.
	// example: Qwen2.5-7B
	Name string `json:"name" yaml:"name" toml:"name"`
	// Backing weights reference (hub id or local path).
	// example: Qwen/Qwen2.5-7B-Instruct
	WeightsRef string `json:"weights_ref" yaml:"weights_ref" toml:"weights_ref"`
	// Whether the runtime currently has this model resident.
	IsLoaded bool `json:"is_loaded" yaml:"is_loaded" toml:"is_loaded"`
	// When the load completed, if loaded.
	LoadedAt time.Time `json:"loaded_at,omitzero" yaml:"loaded_at,omitempty" toml:"loaded_at,omitempty"`
}

// Model is a tenant-scoped fine-tuned model referencing one base model.
type Model struct {
	ID          int64  `json:"id" yaml:"id" toml:"id"`
	TenantID    int64  `json:"tenant_id" yaml:"tenant_id" toml:"tenant_id"`
	Name        string `json:"name" yaml:"name" toml:"name"`
	BaseModelID int64  `json:"base_model_id" yaml:"base_model_id" toml:"base_model_id"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
}

// Adapter is a LoRA weight set attached to a fine-tuned model.
// Weights live under a filesystem path managed by the adapter manager.
type Adapter struct {
	ID          int64  `json:"id" yaml:"id" toml:"id"`
	ModelID     int64  `json:"model_id" yaml:"model_id" toml:"model_id"`
	Name        string `json:"name" yaml:"name" toml:"name"`
	WeightsPath string `json:"weights_path" yaml:"weights_path" toml:"weights_path"`
	Version     int    `json:"version" yaml:"version" toml:"version"`
	// Inactive adapters are not resolvable for inference.
	Active bool `json:"active" yaml:"active" toml:"active"`
}

// PromptTemplate holds the per-tenant system prompt sections.
// Empty sections contribute nothing to the assembled prompt.
type PromptTemplate struct {
	ID           int64  `json:"id" yaml:"id" toml:"id"`
	TenantID     int64  `json:"tenant_id" yaml:"tenant_id" toml:"tenant_id"`
	Name         string `json:"name" yaml:"name" toml:"name"`
	AgentRole    string `json:"agent_role,omitempty" yaml:"agent_role,omitempty" toml:"agent_role,omitempty"`
	Rules        string `json:"rules,omitempty" yaml:"rules,omitempty" toml:"rules,omitempty"`
	BusinessInfo string `json:"business_info,omitempty" yaml:"business_info,omitempty" toml:"business_info,omitempty"`
	IsDefault    bool   `json:"is_default" yaml:"is_default" toml:"is_default"`
}

// Document is a tenant-scoped content unit tracked through ingestion.
// Version increases monotonically; it never resets on re-upload.
type Document struct {
	ID       int64  `json:"id" yaml:"id" toml:"id"`
	TenantID int64  `json:"tenant_id" yaml:"tenant_id" toml:"tenant_id"`
	Name     string `json:"name" yaml:"name" toml:"name"`
	// Format tag selecting the document loader (e.g. txt, pdf, csv, url).
	FileType string `json:"file_type" yaml:"file_type" toml:"file_type"`
	// Exactly one of FilePath / SourceURL is set depending on FileType.
	FilePath   string         `json:"file_path,omitempty" yaml:"file_path,omitempty" toml:"file_path,omitempty"`
	SourceURL  string         `json:"source_url,omitempty" yaml:"source_url,omitempty" toml:"source_url,omitempty"`
	Status     DocumentStatus `json:"status" yaml:"status" toml:"status"`
	ChunkCount int            `json:"chunk_count" yaml:"chunk_count" toml:"chunk_count"`
	Version    int            `json:"version" yaml:"version" toml:"version"`
	UpdatedAt  time.Time      `json:"updated_at,omitzero" yaml:"updated_at,omitempty" toml:"updated_at,omitempty"`
}

// Chunk is a contiguous span of extracted text belonging to one document
// version, plus the metadata the vector store persists alongside it.
type Chunk struct {
	TenantID   int64 `json:"tenant_id"`
	DocumentID int64 `json:"document_id"`
	// Running ordinal across every unit loaded for the document.
	Index int `json:"chunk_index"`
	// Version of the document this chunk was committed under.
	Version int `json:"chunk_version"`
	// SHA-256 hex digest of Text; the change-detection key.
	ContentHash string            `json:"content_hash"`
	Text        string            `json:"text"`
	Source      string            `json:"source"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// SearchResult is one ranked hit from a similarity search.
type SearchResult struct {
	Text       string            `json:"text"`
	Source     string            `json:"source"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Score      float32           `json:"score"`
	DocumentID int64             `json:"document_id"`
	Version    int               `json:"chunk_version"`
}

// DocumentStats summarizes what the vector store holds for one document.
type DocumentStats struct {
	ChunkCount    int `json:"chunk_count"`
	LatestVersion int `json:"latest_version"`
}
