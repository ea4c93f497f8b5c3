// Package ingest implements the asynchronous document ingestion pipeline:
// an in-memory job queue fed by the route layer, a single consumer loop that
// drains jobs in small batches, and per-document processing that chunks,
// hash-diffs, embeds, and commits only the delta against the vector store.
//
// Files by concern:
//
//   - queue.go: unbounded job queue; enqueue never blocks the producer.
//   - job.go: the ephemeral queue entry.
//   - loader.go: pluggable document loader registry (txt and url built in).
//   - chunker.go: word-window splitter with overlap.
//   - worker.go: consumer loop, batch fan-out, per-document processing.
//   - metrics.go: prometheus counters for pipeline throughput.
//
// Delivery is at-most-once: jobs live only in process memory, and a crash
// between dequeue and completion loses the job. Failed documents surface
// through their persisted status, never back into the loop.
package ingest
