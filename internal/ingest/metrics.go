package ingest

import "github.com/prometheus/client_golang/prometheus"

var (
	documentsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inferd",
			Subsystem: "ingest",
			Name:      "documents_processed_total",
			Help:      "Documents taken to a terminal status by the worker loop",
		},
		[]string{"outcome"}, // ready | failed
	)

	chunksEmbedded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "inferd",
		Subsystem: "ingest",
		Name:      "chunks_embedded_total",
		Help:      "New or changed chunks embedded and inserted",
	})

	chunksUnchanged = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "inferd",
		Subsystem: "ingest",
		Name:      "chunks_unchanged_total",
		Help:      "Chunks skipped because their content hash was already stored",
	})

	queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "inferd",
		Subsystem: "ingest",
		Name:      "queue_depth",
		Help:      "Jobs waiting in the ingestion queue",
	})
)

func init() {
	prometheus.MustRegister(documentsProcessed, chunksEmbedded, chunksUnchanged, queueDepth)
}
