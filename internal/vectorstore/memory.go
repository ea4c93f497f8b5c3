package vectorstore

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"inferd/pkg/types"
)

// Memory is a brute-force in-memory store. It backs tests and single-process
// deployments without a vector database.
type Memory struct {
	mu   sync.RWMutex
	rows []ChunkRecord
	ids  []string
	next int64
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory { return &Memory{} }

func (s *Memory) EnsureSchema(ctx context.Context) error { return nil }

func (s *Memory) InsertChunks(ctx context.Context, records []ChunkRecord) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		s.next++
		id := strconv.FormatInt(s.next, 10)
		s.rows = append(s.rows, rec)
		s.ids = append(s.ids, id)
		ids = append(ids, id)
	}
	return ids, nil
}

// matchFilters applies the extra exact-match terms to a row's payload fields.
func matchFilters(rec ChunkRecord, filters map[string]string) bool {
	for k, v := range filters {
		switch k {
		case "document_id":
			if strconv.FormatInt(rec.DocumentID, 10) != v {
				return false
			}
		case "chunk_version":
			if strconv.Itoa(rec.Version) != v {
				return false
			}
		case "source":
			if rec.Source != v {
				return false
			}
		default:
			if rec.Metadata[k] != v {
				return false
			}
		}
	}
	return true
}

func (s *Memory) Search(ctx context.Context, tenantID int64, embedding []float32, topK int, filters map[string]string) ([]types.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		rec   ChunkRecord
		score float32
	}
	var hits []scored
	for _, rec := range s.rows {
		if rec.TenantID != tenantID {
			continue
		}
		if !matchFilters(rec, filters) {
			continue
		}
		hits = append(hits, scored{rec: rec, score: dot(rec.Embedding, embedding)})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if topK > len(hits) {
		topK = len(hits)
	}
	out := make([]types.SearchResult, 0, topK)
	for _, h := range hits[:topK] {
		out = append(out, types.SearchResult{
			Text:       h.rec.Text,
			Source:     h.rec.Source,
			Metadata:   h.rec.Metadata,
			Score:      h.score,
			DocumentID: h.rec.DocumentID,
			Version:    h.rec.Version,
		})
	}
	return out, nil
}

func (s *Memory) DocumentStats(ctx context.Context, tenantID, documentID int64) (types.DocumentStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stats types.DocumentStats
	for _, rec := range s.rows {
		if rec.TenantID != tenantID || rec.DocumentID != documentID {
			continue
		}
		stats.ChunkCount++
		if rec.Version > stats.LatestVersion {
			stats.LatestVersion = rec.Version
		}
	}
	return stats, nil
}

func (s *Memory) DocumentHashes(ctx context.Context, tenantID, documentID int64) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hashes := make(map[string]struct{})
	for _, rec := range s.rows {
		if rec.TenantID != tenantID || rec.DocumentID != documentID {
			continue
		}
		hashes[rec.ContentHash] = struct{}{}
	}
	return hashes, nil
}

func (s *Memory) DeleteDocumentChunks(ctx context.Context, tenantID, documentID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	keptRows := s.rows[:0]
	keptIDs := s.ids[:0]
	for i, rec := range s.rows {
		if rec.TenantID == tenantID && rec.DocumentID == documentID {
			continue
		}
		keptRows = append(keptRows, rec)
		keptIDs = append(keptIDs, s.ids[i])
	}
	s.rows = keptRows
	s.ids = keptIDs
	return nil
}

func dot(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
