package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"inferd/pkg/types"
)

// Qdrant is a minimal REST client to a Qdrant collection holding the chunk
// schema: tenant_id, document_id, chunk_index, chunk_version, content_hash,
// text, source, metadata, plus the embedding vector (cosine distance).
type Qdrant struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	client     *http.Client
}

var _ Store = (*Qdrant)(nil)

type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	Dimension  int
	Timeout    time.Duration
}

func NewQdrant(cfg QdrantConfig) *Qdrant {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	collection := cfg.Collection
	if collection == "" {
		collection = "rag_vectors"
	}
	return &Qdrant{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: collection,
		dimension:  cfg.Dimension,
		client:     &http.Client{Timeout: timeout},
	}
}

// EnsureSchema creates the collection if missing. Qdrant answers 200 for a
// create of an already-existing collection with the same schema, so the call
// is idempotent.
func (s *Qdrant) EnsureSchema(ctx context.Context) error {
	body := map[string]any{
		"vectors": map[string]any{
			"size":     s.dimension,
			"distance": "Cosine",
		},
	}
	return s.do(ctx, http.MethodPut, fmt.Sprintf("%s/collections/%s", s.url, s.collection), body, nil)
}

// pointID derives a stable point id from the chunk identity, so a re-insert
// of the same (tenant, document, version, hash) overwrites rather than
// duplicates.
func pointID(rec ChunkRecord) string {
	key := fmt.Sprintf("%d/%d/%d/%s", rec.TenantID, rec.DocumentID, rec.Version, rec.ContentHash)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}

func (s *Qdrant) InsertChunks(ctx context.Context, records []ChunkRecord) ([]string, error) {
	if len(records) == 0 {
		return nil, nil
	}
	points := make([]map[string]any, len(records))
	ids := make([]string, len(records))
	for i, rec := range records {
		id := pointID(rec)
		ids[i] = id
		points[i] = map[string]any{
			"id":     id,
			"vector": rec.Embedding,
			"payload": map[string]any{
				"tenant_id":     rec.TenantID,
				"document_id":   rec.DocumentID,
				"chunk_index":   rec.Index,
				"chunk_version": rec.Version,
				"content_hash":  rec.ContentHash,
				"text":          rec.Text,
				"source":        rec.Source,
				"metadata":      rec.Metadata,
			},
		}
	}
	body := map[string]any{"points": points}
	url := fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, s.collection)
	if err := s.do(ctx, http.MethodPut, url, body, nil); err != nil {
		return nil, err
	}
	return ids, nil
}

// tenantFilter builds the mandatory tenant term plus any extra exact-match
// terms as a conjunctive Qdrant filter.
func tenantFilter(tenantID int64, extra map[string]any) map[string]any {
	must := []map[string]any{
		{"key": "tenant_id", "match": map[string]any{"value": tenantID}},
	}
	for k, v := range extra {
		must = append(must, map[string]any{"key": k, "match": map[string]any{"value": v}})
	}
	return map[string]any{"must": must}
}

func documentFilter(tenantID, documentID int64) map[string]any {
	return tenantFilter(tenantID, map[string]any{"document_id": documentID})
}

func (s *Qdrant) Search(ctx context.Context, tenantID int64, embedding []float32, topK int, filters map[string]string) ([]types.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	extra := make(map[string]any, len(filters))
	for k, v := range filters {
		// Numeric payload fields need numeric match values.
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && (k == "document_id" || k == "chunk_version" || k == "chunk_index") {
			extra[k] = n
		} else {
			extra[k] = v
		}
	}
	req := map[string]any{
		"vector":       embedding,
		"limit":        topK,
		"with_payload": true,
		"filter":       tenantFilter(tenantID, extra),
	}
	var resp struct {
		Result []struct {
			Score   float32        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", s.url, s.collection)
	if err := s.do(ctx, http.MethodPost, url, req, &resp); err != nil {
		return nil, err
	}
	out := make([]types.SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		res := types.SearchResult{Score: r.Score}
		if v, ok := r.Payload["text"].(string); ok {
			res.Text = v
		}
		if v, ok := r.Payload["source"].(string); ok {
			res.Source = v
		}
		if v, ok := r.Payload["document_id"].(float64); ok {
			res.DocumentID = int64(v)
		}
		if v, ok := r.Payload["chunk_version"].(float64); ok {
			res.Version = int(v)
		}
		if md, ok := r.Payload["metadata"].(map[string]any); ok {
			res.Metadata = make(map[string]string, len(md))
			for k, v := range md {
				if sv, ok := v.(string); ok {
					res.Metadata[k] = sv
				}
			}
		}
		out = append(out, res)
	}
	return out, nil
}

// scroll pages through every point of a document, collecting the requested
// payload handling via visit.
func (s *Qdrant) scroll(ctx context.Context, tenantID, documentID int64, visit func(payload map[string]any)) error {
	url := fmt.Sprintf("%s/collections/%s/points/scroll", s.url, s.collection)
	var offset any
	for {
		req := map[string]any{
			"filter":       documentFilter(tenantID, documentID),
			"limit":        256,
			"with_payload": true,
		}
		if offset != nil {
			req["offset"] = offset
		}
		var resp struct {
			Result struct {
				Points []struct {
					Payload map[string]any `json:"payload"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}
		if err := s.do(ctx, http.MethodPost, url, req, &resp); err != nil {
			return err
		}
		for _, p := range resp.Result.Points {
			visit(p.Payload)
		}
		if resp.Result.NextPageOffset == nil {
			return nil
		}
		offset = resp.Result.NextPageOffset
	}
}

func (s *Qdrant) DocumentStats(ctx context.Context, tenantID, documentID int64) (types.DocumentStats, error) {
	var stats types.DocumentStats
	err := s.scroll(ctx, tenantID, documentID, func(payload map[string]any) {
		stats.ChunkCount++
		if v, ok := payload["chunk_version"].(float64); ok && int(v) > stats.LatestVersion {
			stats.LatestVersion = int(v)
		}
	})
	if err != nil {
		return types.DocumentStats{}, err
	}
	return stats, nil
}

func (s *Qdrant) DocumentHashes(ctx context.Context, tenantID, documentID int64) (map[string]struct{}, error) {
	hashes := make(map[string]struct{})
	err := s.scroll(ctx, tenantID, documentID, func(payload map[string]any) {
		if h, ok := payload["content_hash"].(string); ok {
			hashes[h] = struct{}{}
		}
	})
	if err != nil {
		return nil, err
	}
	return hashes, nil
}

func (s *Qdrant) DeleteDocumentChunks(ctx context.Context, tenantID, documentID int64) error {
	url := fmt.Sprintf("%s/collections/%s/points/delete?wait=true", s.url, s.collection)
	body := map[string]any{"filter": documentFilter(tenantID, documentID)}
	return s.do(ctx, http.MethodPost, url, body, nil)
}

func (s *Qdrant) do(ctx context.Context, method, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("qdrant %s %s failed: %s: %s", method, url, resp.Status, b)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
