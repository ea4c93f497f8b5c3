package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"inferd/internal/catalog"
	"inferd/internal/config"
	"inferd/internal/embed"
	"inferd/internal/httpapi"
	"inferd/internal/inference"
	"inferd/internal/ingest"
	"inferd/internal/lora"
	"inferd/internal/runtime"
	"inferd/internal/vectorstore"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	// .env is optional; real environment wins over file values.
	_ = godotenv.Load()

	cfgPath := flag.String("config", envOr("INFERD_CONFIG", ""), "Optional config file (.yaml/.json/.toml); flags override file values")
	addr := flag.String("addr", envOr("INFERD_ADDR", ":8080"), "HTTP listen address")
	catalogPath := flag.String("catalog", envOr("INFERD_CATALOG", ""), "Optional catalog seed file (.yaml/.json/.toml)")
	adapterDir := flag.String("adapter-dir", envOr("INFERD_ADAPTER_DIR", "./adapters"), "Directory for managed adapter weights")
	runtimeURL := flag.String("runtime-url", envOr("INFERD_RUNTIME_URL", "http://localhost:8000"), "Model runtime base URL (vLLM-compatible)")
	vectorURL := flag.String("vector-url", envOr("INFERD_VECTOR_URL", ""), "Qdrant base URL (empty selects the in-memory store)")
	vectorCollection := flag.String("vector-collection", envOr("INFERD_VECTOR_COLLECTION", "chunks"), "Qdrant collection name")
	embedURL := flag.String("embed-url", envOr("INFERD_EMBED_URL", ""), "Embeddings endpoint base URL (OpenAI-compatible)")
	embedModel := flag.String("embed-model", envOr("INFERD_EMBED_MODEL", ""), "Embedding model name")
	debug := flag.Bool("debug", os.Getenv("INFERD_DEBUG") != "", "Enable debug logging")
	flag.Parse()

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if *debug {
		log = log.Level(zerolog.DebugLevel)
	} else {
		log = log.Level(zerolog.InfoLevel)
	}

	var cfg config.Config
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *cfgPath).Msg("load config")
		}
		cfg = loaded
	}
	// Flags and env override file values.
	cfg.Addr = *addr
	if *catalogPath != "" {
		cfg.CatalogPath = *catalogPath
	}
	cfg.AdapterBasePath = *adapterDir
	cfg.RuntimeURL = *runtimeURL
	if *vectorURL != "" {
		cfg.VectorURL = *vectorURL
	}
	cfg.VectorCollection = *vectorCollection
	if *embedURL != "" {
		cfg.EmbedURL = *embedURL
	}
	if *embedModel != "" {
		cfg.EmbedModel = *embedModel
	}
	if cfg.RuntimeKey == "" {
		cfg.RuntimeKey = os.Getenv("INFERD_RUNTIME_KEY")
	}
	if cfg.VectorKey == "" {
		cfg.VectorKey = os.Getenv("INFERD_VECTOR_KEY")
	}
	if cfg.EmbedKey == "" {
		cfg.EmbedKey = os.Getenv("INFERD_EMBED_KEY")
	}

	cat := catalog.New()
	if cfg.CatalogPath != "" {
		loaded, err := catalog.LoadFile(cfg.CatalogPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.CatalogPath).Msg("load catalog")
		}
		cat = loaded
	}

	rt := runtime.NewGateway(runtime.NewVLLMClient(runtime.VLLMConfig{
		BaseURL: cfg.RuntimeURL,
		APIKey:  cfg.RuntimeKey,
	}), log)

	var store vectorstore.Store
	if cfg.VectorURL != "" {
		store = vectorstore.NewQdrant(vectorstore.QdrantConfig{
			URL:        cfg.VectorURL,
			APIKey:     cfg.VectorKey,
			Collection: cfg.VectorCollection,
			Dimension:  cfg.EmbedDim,
		})
	} else {
		log.Warn().Msg("no vector store URL configured, using in-memory store")
		store = vectorstore.NewMemory()
	}
	{
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := store.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("provision vector collection")
		}
		cancel()
	}

	// The embedder dials out lazily so the gateway starts without the
	// embeddings backend being reachable.
	embedder := embed.NewLazy(func() (embed.Embedder, error) {
		return embed.NewClient(embed.Config{
			BaseURL:   cfg.EmbedURL,
			APIKey:    cfg.EmbedKey,
			Model:     cfg.EmbedModel,
			Dimension: cfg.EmbedDim,
		})
	})

	mgr := lora.NewWithConfig(lora.ManagerConfig{
		Catalog:         cat,
		Runtime:         rt,
		AdapterBasePath: cfg.AdapterBasePath,
		Logger:          log,
	})
	svc := inference.NewService(cat, store, embedder, mgr, rt, log)

	queue := ingest.NewQueue()
	worker, err := ingest.NewWorker(ingest.WorkerConfig{
		Queue:        queue,
		Catalog:      cat,
		Store:        store,
		Embedder:     embedder,
		Logger:       log,
		BatchSize:    cfg.IngestBatchSize,
		DrainWait:    cfg.IngestDrainWait.Std(),
		EmbedWorkers: cfg.EmbedWorkers,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("create ingest worker")
	}
	workerCtx, stopWorker := context.WithCancel(context.Background())
	go worker.Run(workerCtx)

	handler := httpapi.NewMux(&httpapi.Server{
		Catalog:   cat,
		Queue:     queue,
		Inference: svc,
		Lora:      mgr,
		Runtime:   rt,
		Store:     store,
		Embedder:  embedder,
		Log:       log,
	})
	srv := &http.Server{Addr: cfg.Addr, Handler: handler}

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("inferd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown")
	}
	stopWorker()
	worker.Release()
}
