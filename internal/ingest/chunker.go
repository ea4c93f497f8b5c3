package ingest

import (
	"strconv"
	"strings"

	"inferd/pkg/types"
)

// Chunker splits loaded units into ordered text segments on a sliding word
// window with overlap. The chunk index runs across every unit of the
// document, so ordinals stay unique within one ingestion pass.
type Chunker struct {
	chunkWords   int
	overlapWords int
}

const (
	defaultChunkWords   = 4096
	defaultOverlapWords = 50
)

func NewChunker(chunkWords, overlapWords int) *Chunker {
	if chunkWords <= 0 {
		chunkWords = defaultChunkWords
	}
	if overlapWords <= 0 || overlapWords >= chunkWords {
		overlapWords = defaultOverlapWords
	}
	// The default overlap can still exceed a small explicit window.
	if overlapWords >= chunkWords {
		overlapWords = chunkWords / 2
	}
	return &Chunker{chunkWords: chunkWords, overlapWords: overlapWords}
}

// Chunk segments the units for one (tenant, document) pair. Content hashes
// are not filled in here; the worker computes them right before the diff.
func (c *Chunker) Chunk(units []Unit, tenantID, documentID int64) []types.Chunk {
	var chunks []types.Chunk
	for unitIdx, u := range units {
		words := strings.Fields(u.Text)
		if len(words) == 0 {
			continue
		}
		for start := 0; start < len(words); {
			end := start + c.chunkWords
			if end > len(words) {
				end = len(words)
			}
			md := make(map[string]string, len(u.Metadata)+1)
			for k, v := range u.Metadata {
				md[k] = v
			}
			md["doc_index"] = strconv.Itoa(unitIdx)
			chunks = append(chunks, types.Chunk{
				TenantID:   tenantID,
				DocumentID: documentID,
				Index:      len(chunks),
				Text:       strings.Join(words[start:end], " "),
				Source:     u.Source,
				Metadata:   md,
			})
			if end == len(words) {
				break
			}
			start = end - c.overlapWords
		}
	}
	return chunks
}
