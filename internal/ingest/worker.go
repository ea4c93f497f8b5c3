package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"

	"inferd/internal/catalog"
	"inferd/internal/embed"
	"inferd/internal/vectorstore"
	"inferd/pkg/types"
)

const (
	defaultBatchSize    = 10
	defaultDrainWait    = 1 * time.Second
	defaultIdlePause    = 100 * time.Millisecond
	defaultEmbedWorkers = 4
)

// WorkerConfig carries the worker's collaborators and tuning. Zero tuning
// values select package defaults.
type WorkerConfig struct {
	Queue    *Queue
	Catalog  *catalog.Catalog
	Store    vectorstore.Store
	Embedder embed.Embedder
	Loaders  *LoaderRegistry
	Chunker  *Chunker
	Logger   zerolog.Logger

	BatchSize    int
	DrainWait    time.Duration
	IdlePause    time.Duration
	EmbedWorkers int
}

// Worker is the single logical consumer of the ingestion queue. Batches are
// drained sequentially but processed fully concurrently; embedding work is
// offloaded to a bounded pool so a large batch cannot monopolize the loop.
type Worker struct {
	queue    *Queue
	catalog  *catalog.Catalog
	store    vectorstore.Store
	embedder embed.Embedder
	loaders  *LoaderRegistry
	chunker  *Chunker
	pool     *ants.Pool
	log      zerolog.Logger

	batchSize int
	drainWait time.Duration
	idlePause time.Duration
}

func NewWorker(cfg WorkerConfig) (*Worker, error) {
	w := &Worker{
		queue:     cfg.Queue,
		catalog:   cfg.Catalog,
		store:     cfg.Store,
		embedder:  cfg.Embedder,
		loaders:   cfg.Loaders,
		chunker:   cfg.Chunker,
		log:       cfg.Logger.With().Str("component", "ingest").Logger(),
		batchSize: cfg.BatchSize,
		drainWait: cfg.DrainWait,
		idlePause: cfg.IdlePause,
	}
	if w.loaders == nil {
		w.loaders = DefaultLoaders()
	}
	if w.chunker == nil {
		w.chunker = NewChunker(0, 0)
	}
	if w.batchSize <= 0 {
		w.batchSize = defaultBatchSize
	}
	if w.drainWait <= 0 {
		w.drainWait = defaultDrainWait
	}
	if w.idlePause <= 0 {
		w.idlePause = defaultIdlePause
	}
	workers := cfg.EmbedWorkers
	if workers <= 0 {
		workers = defaultEmbedWorkers
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}
	w.pool = pool
	return w, nil
}

// Release frees the embedding pool. The worker must not be used afterwards.
func (w *Worker) Release() {
	if w.pool != nil {
		w.pool.Release()
	}
}

// Run drives the consumer loop until ctx is canceled. Transient per-item
// errors never stop the loop; they are absorbed at the document boundary.
func (w *Worker) Run(ctx context.Context) {
	w.log.Info().Int("batch_size", w.batchSize).Msg("ingestion worker started")
	for {
		if ctx.Err() != nil {
			w.log.Info().Msg("ingestion worker stopped")
			return
		}
		batch := w.drain(ctx)
		if len(batch) > 0 {
			w.processBatch(ctx, batch)
		}
		// Brief pause between batches avoids a tight spin on an empty queue.
		select {
		case <-time.After(w.idlePause):
		case <-ctx.Done():
		}
	}
}

// drain pulls up to batchSize jobs, stopping early at the first timed-out
// wait. Partial batches are normal.
func (w *Worker) drain(ctx context.Context) []Job {
	var batch []Job
	for len(batch) < w.batchSize {
		j, ok := w.queue.Dequeue(ctx, w.drainWait)
		if !ok {
			break
		}
		batch = append(batch, j)
	}
	return batch
}

// processBatch fans out all batch members and waits for every completion.
// One member's failure never aborts its siblings.
func (w *Worker) processBatch(ctx context.Context, batch []Job) {
	var wg sync.WaitGroup
	for _, job := range batch {
		wg.Add(1)
		go func(j Job) {
			defer wg.Done()
			w.processDocument(ctx, j)
		}(job)
	}
	wg.Wait()
}

// processDocument runs one job to a terminal document status. Every error
// path marks the document failed and stops there; nothing propagates back to
// the batch or the loop.
func (w *Worker) processDocument(ctx context.Context, job Job) {
	log := w.log.With().Str("job", job.ID).Int64("tenant", job.TenantID).Int64("document", job.DocumentID).Logger()
	w.catalog.SetDocumentStatus(job.DocumentID, types.DocProcessing)

	fail := func(stage string, err error) {
		log.Error().Str("stage", stage).Err(err).Msg("document ingestion failed")
		w.catalog.SetDocumentStatus(job.DocumentID, types.DocFailed)
		documentsProcessed.WithLabelValues("failed").Inc()
	}

	units, err := w.loaders.Load(ctx, job.FileType, job.sourceRef())
	if err != nil {
		fail("load", err)
		return
	}

	stats, err := w.store.DocumentStats(ctx, job.TenantID, job.DocumentID)
	if err != nil {
		fail("stats", err)
		return
	}

	chunks := w.chunker.Chunk(units, job.TenantID, job.DocumentID)
	for i := range chunks {
		chunks[i].ContentHash = vectorstore.ComputeContentHash(chunks[i].Text)
	}

	existing := map[string]struct{}{}
	if stats.ChunkCount > 0 {
		existing, err = w.store.DocumentHashes(ctx, job.TenantID, job.DocumentID)
		if err != nil {
			fail("hashes", err)
			return
		}
	}

	// The delta: chunks whose hash the store has never seen for this document.
	var changed []types.Chunk
	for _, c := range chunks {
		if _, seen := existing[c.ContentHash]; seen {
			chunksUnchanged.Inc()
			continue
		}
		changed = append(changed, c)
	}

	if len(changed) == 0 {
		// True no-op re-ingestion: no version bump, no store mutation.
		w.catalog.SetDocumentStatus(job.DocumentID, types.DocReady)
		documentsProcessed.WithLabelValues("ready").Inc()
		log.Info().Int("chunks", len(chunks)).Msg("no changes detected, skipping")
		return
	}

	version := stats.LatestVersion + 1

	texts := make([]string, len(changed))
	for i, c := range changed {
		texts[i] = c.Text
	}
	vectors, err := w.embedBatch(ctx, texts)
	if err != nil {
		fail("embed", err)
		return
	}

	records := make([]vectorstore.ChunkRecord, len(changed))
	for i, c := range changed {
		c.Version = version
		records[i] = vectorstore.ChunkRecord{Chunk: c, Embedding: vectors[i]}
	}
	if _, err := w.store.InsertChunks(ctx, records); err != nil {
		fail("insert", err)
		return
	}

	w.catalog.CommitDocumentVersion(job.DocumentID, len(changed), version)
	documentsProcessed.WithLabelValues("ready").Inc()
	chunksEmbedded.Add(float64(len(changed)))
	log.Info().
		Int("new_chunks", len(changed)).
		Int("total_chunks", len(chunks)).
		Int("version", version).
		Msg("document processed")
}

// embedBatch runs the whole batch as one embedding call on the bounded pool,
// keeping slow backends from stalling the consumer loop itself.
func (w *Worker) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	type result struct {
		vectors [][]float32
		err     error
	}
	ch := make(chan result, 1)
	if err := w.pool.Submit(func() {
		vectors, err := w.embedder.EmbedTexts(ctx, texts)
		ch <- result{vectors: vectors, err: err}
	}); err != nil {
		return nil, err
	}
	select {
	case r := <-ch:
		if r.err != nil {
			return nil, r.err
		}
		if len(r.vectors) != len(texts) {
			return nil, errVectorCountMismatch(len(texts), len(r.vectors))
		}
		return r.vectors, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
