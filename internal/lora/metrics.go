package lora

import "github.com/prometheus/client_golang/prometheus"

var (
	adapterCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "inferd",
		Subsystem: "lora",
		Name:      "adapter_cache_hits_total",
		Help:      "Adapter resolutions served from the cache",
	})

	adapterCacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "inferd",
		Subsystem: "lora",
		Name:      "adapter_cache_misses_total",
		Help:      "Adapter resolutions requiring a runtime load",
	})

	adapterLoadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "inferd",
		Subsystem: "lora",
		Name:      "adapter_loads_total",
		Help:      "Successful adapter loads issued to the runtime",
	})

	baseModelLoadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "inferd",
		Subsystem: "lora",
		Name:      "base_model_loads_total",
		Help:      "Successful base model loads issued to the runtime",
	})
)

func init() {
	prometheus.MustRegister(adapterCacheHits, adapterCacheMisses, adapterLoadsTotal, baseModelLoadsTotal)
}
