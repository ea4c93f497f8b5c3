package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the gateway.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr            string `json:"addr" yaml:"addr" toml:"addr"`
	CatalogPath     string `json:"catalog_path" yaml:"catalog_path" toml:"catalog_path"`
	AdapterBasePath string `json:"adapter_base_path" yaml:"adapter_base_path" toml:"adapter_base_path"`

	// Model runtime (vLLM-style HTTP server).
	RuntimeURL string `json:"runtime_url" yaml:"runtime_url" toml:"runtime_url"`
	RuntimeKey string `json:"runtime_key" yaml:"runtime_key" toml:"runtime_key"`

	// Vector store (Qdrant REST).
	VectorURL        string `json:"vector_url" yaml:"vector_url" toml:"vector_url"`
	VectorKey        string `json:"vector_key" yaml:"vector_key" toml:"vector_key"`
	VectorCollection string `json:"vector_collection" yaml:"vector_collection" toml:"vector_collection"`

	// Embedding backend (OpenAI-compatible).
	EmbedURL   string `json:"embed_url" yaml:"embed_url" toml:"embed_url"`
	EmbedKey   string `json:"embed_key" yaml:"embed_key" toml:"embed_key"`
	EmbedModel string `json:"embed_model" yaml:"embed_model" toml:"embed_model"`
	EmbedDim   int    `json:"embed_dim" yaml:"embed_dim" toml:"embed_dim"`

	// Ingestion tuning. Zero selects package defaults.
	IngestBatchSize int      `json:"ingest_batch_size" yaml:"ingest_batch_size" toml:"ingest_batch_size"`
	IngestDrainWait Duration `json:"ingest_drain_wait" yaml:"ingest_drain_wait" toml:"ingest_drain_wait"`
	EmbedWorkers    int      `json:"embed_workers" yaml:"embed_workers" toml:"embed_workers"`
}

// Duration parses "2s"/"500ms" forms from any of the supported file formats.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalText(b []byte) error {
	parsed, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		// Bare numbers are taken as nanoseconds, matching time.Duration.
		var n int64
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("invalid duration %s", b)
		}
		*d = Duration(n)
		return nil
	}
	return d.UnmarshalText([]byte(s))
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.UnmarshalText([]byte(value.Value))
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
