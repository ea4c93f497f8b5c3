// Package vectorstore wraps the similarity-search backend behind a
// tenant-scoped gateway. Every query and mutation carries a mandatory
// exact-match tenant term; no operation returns or mutates rows outside the
// caller's declared tenant.
package vectorstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"inferd/pkg/types"
)

// ChunkRecord pairs a chunk with its embedding for insertion. Keeping the
// embedding on the record avoids any positional alignment between separate
// chunk and vector slices.
type ChunkRecord struct {
	types.Chunk
	Embedding []float32
}

// Store is the vector store capability the core consumes.
type Store interface {
	// EnsureSchema provisions the collection. Idempotent: provisioning an
	// existing collection is a no-op, never an error.
	EnsureSchema(ctx context.Context) error
	// InsertChunks persists the records and returns their storage ids.
	InsertChunks(ctx context.Context, records []ChunkRecord) ([]string, error)
	// Search returns the topK nearest chunks for the tenant. filters are
	// additional exact-match terms merged conjunctively with the tenant term.
	Search(ctx context.Context, tenantID int64, embedding []float32, topK int, filters map[string]string) ([]types.SearchResult, error)
	// DocumentStats reports chunk count and latest version for a document.
	// Zero values for an unknown document, not an error.
	DocumentStats(ctx context.Context, tenantID, documentID int64) (types.DocumentStats, error)
	// DocumentHashes returns the content hashes stored for a document across
	// all versions.
	DocumentHashes(ctx context.Context, tenantID, documentID int64) (map[string]struct{}, error)
	// DeleteDocumentChunks removes every chunk of a document.
	DeleteDocumentChunks(ctx context.Context, tenantID, documentID int64) error
}

// ComputeContentHash is the change-detection key for chunk text: the SHA-256
// hex digest of the UTF-8 bytes. Deterministic across calls and processes.
func ComputeContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
