package lora

import (
	"github.com/rs/zerolog"

	"inferd/internal/catalog"
	"inferd/internal/runtime"
)

// defaultAdapterBasePath is used when ManagerConfig.AdapterBasePath is unset.
const defaultAdapterBasePath = "./adapters"

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	Catalog *catalog.Catalog
	Runtime *runtime.Gateway
	// Directory holding managed adapter weights (adapter_<id> subdirs).
	AdapterBasePath string
	Publisher       EventPublisher
	Logger          zerolog.Logger
}

// NewWithConfig constructs a Manager from ManagerConfig.
func NewWithConfig(cfg ManagerConfig) *Manager {
	m := &Manager{
		catalog:  cfg.Catalog,
		rt:       cfg.Runtime,
		cache:    make(map[cacheKey]string),
		basePath: cfg.AdapterBasePath,
		pub:      cfg.Publisher,
		log:      cfg.Logger.With().Str("component", "lora").Logger(),
	}
	if m.basePath == "" {
		m.basePath = defaultAdapterBasePath
	}
	if m.pub == nil {
		m.pub = noopPublisher{}
	}
	return m
}
