package ingest

import (
	"time"

	"github.com/google/uuid"

	"inferd/pkg/types"
)

// Job is the ephemeral queue entry for one document ingestion. It is created
// on enqueue, consumed exactly once by the worker loop, and never persisted.
type Job struct {
	ID         string
	TenantID   int64
	DocumentID int64
	FileType   string
	FilePath   string
	SourceURL  string
	EnqueuedAt time.Time
}

// NewJob builds a job from a document row.
func NewJob(doc types.Document) Job {
	return Job{
		ID:         uuid.NewString(),
		TenantID:   doc.TenantID,
		DocumentID: doc.ID,
		FileType:   doc.FileType,
		FilePath:   doc.FilePath,
		SourceURL:  doc.SourceURL,
		EnqueuedAt: time.Now().UTC(),
	}
}

// sourceRef returns the loader input: the file path for file-backed formats,
// the URL otherwise.
func (j Job) sourceRef() string {
	if j.FilePath != "" {
		return j.FilePath
	}
	return j.SourceURL
}
