package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"inferd/internal/common/fsutil"
	"inferd/pkg/types"
)

// fileSchema is the on-disk shape of a catalog seed file.
type fileSchema struct {
	BaseModels []types.BaseModel      `json:"base_models" yaml:"base_models" toml:"base_models"`
	Models     []types.Model          `json:"models" yaml:"models" toml:"models"`
	Adapters   []types.Adapter        `json:"adapters" yaml:"adapters" toml:"adapters"`
	Documents  []types.Document       `json:"documents" yaml:"documents" toml:"documents"`
	Templates  []types.PromptTemplate `json:"prompt_templates" yaml:"prompt_templates" toml:"prompt_templates"`
}

// LoadFile builds a catalog from a seed file. Supported extensions follow the
// config loader: .yaml/.yml, .json, .toml.
func LoadFile(path string) (*Catalog, error) {
	expanded, err := fsutil.ExpandHome(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(expanded)
	if err != nil {
		return nil, err
	}
	var fs fileSchema
	switch ext := strings.ToLower(filepath.Ext(expanded)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fs); err != nil {
			return nil, err
		}
	case ".json":
		if err := json.Unmarshal(b, &fs); err != nil {
			return nil, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &fs); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported catalog extension: %s", ext)
	}

	c := New()
	for _, bm := range fs.BaseModels {
		c.AddBaseModel(bm)
	}
	for _, m := range fs.Models {
		c.AddModel(m)
	}
	for _, a := range fs.Adapters {
		c.AddAdapter(a)
	}
	for _, d := range fs.Documents {
		c.AddDocument(d)
	}
	for _, t := range fs.Templates {
		c.AddTemplate(t)
	}
	return c, nil
}
