// Package catalog holds the process-local registry of base models, fine-tuned
// models, adapters, documents, and prompt templates. It stands in for the
// database layer, which is an external collaborator of the core: lookups are
// tenant-scoped where the row itself is tenant-owned, and mutation is limited
// to the bookkeeping the core performs (document lifecycle, load flags,
// adapter registration).
package catalog

import (
	"sync"
	"time"

	"inferd/pkg/types"
)

type Catalog struct {
	mu         sync.RWMutex
	baseModels map[int64]types.BaseModel
	models     map[int64]types.Model
	adapters   map[int64]types.Adapter
	documents  map[int64]types.Document
	templates  map[int64]types.PromptTemplate
	nextID     int64
}

func New() *Catalog {
	return &Catalog{
		baseModels: make(map[int64]types.BaseModel),
		models:     make(map[int64]types.Model),
		adapters:   make(map[int64]types.Adapter),
		documents:  make(map[int64]types.Document),
		templates:  make(map[int64]types.PromptTemplate),
	}
}

func (c *Catalog) allocID() int64 {
	c.nextID++
	return c.nextID
}

// bumpID keeps the id allocator ahead of explicitly assigned ids.
func (c *Catalog) bumpID(id int64) {
	if id > c.nextID {
		c.nextID = id
	}
}

// AddBaseModel registers a base model, assigning an id when unset.
func (c *Catalog) AddBaseModel(bm types.BaseModel) types.BaseModel {
	c.mu.Lock()
	defer c.mu.Unlock()
	if bm.ID == 0 {
		bm.ID = c.allocID()
	}
	c.bumpID(bm.ID)
	c.baseModels[bm.ID] = bm
	return bm
}

func (c *Catalog) AddModel(m types.Model) types.Model {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m.ID == 0 {
		m.ID = c.allocID()
	}
	c.bumpID(m.ID)
	c.models[m.ID] = m
	return m
}

func (c *Catalog) AddAdapter(a types.Adapter) types.Adapter {
	c.mu.Lock()
	defer c.mu.Unlock()
	if a.ID == 0 {
		a.ID = c.allocID()
	}
	c.bumpID(a.ID)
	if a.Version == 0 {
		a.Version = 1
	}
	c.adapters[a.ID] = a
	return a
}

func (c *Catalog) AddDocument(d types.Document) types.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d.ID == 0 {
		d.ID = c.allocID()
	}
	c.bumpID(d.ID)
	if d.Status == "" {
		d.Status = types.DocPending
	}
	c.documents[d.ID] = d
	return d
}

func (c *Catalog) AddTemplate(t types.PromptTemplate) types.PromptTemplate {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.ID == 0 {
		t.ID = c.allocID()
	}
	c.bumpID(t.ID)
	c.templates[t.ID] = t
	return t
}

// BaseModel returns the base model by id.
func (c *Catalog) BaseModel(id int64) (types.BaseModel, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	bm, ok := c.baseModels[id]
	return bm, ok
}

// Model returns the fine-tuned model by id regardless of tenant.
func (c *Catalog) Model(id int64) (types.Model, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.models[id]
	return m, ok
}

// ModelForTenant resolves a model within the tenant's scope. A model owned by
// another tenant is reported as absent, never leaked.
func (c *Catalog) ModelForTenant(tenantID, modelID int64) (types.Model, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.models[modelID]
	if !ok || m.TenantID != tenantID {
		return types.Model{}, false
	}
	return m, true
}

// AdaptersForModel returns the active adapters among ids that belong to
// modelID. Ids that are missing, inactive, or attached to a different model
// are simply absent from the result; the caller decides whether a partial
// match is an error.
func (c *Catalog) AdaptersForModel(modelID int64, ids []int64) []types.Adapter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]types.Adapter, 0, len(ids))
	for _, id := range ids {
		a, ok := c.adapters[id]
		if !ok || a.ModelID != modelID || !a.Active {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Document returns the document by id regardless of tenant.
func (c *Catalog) Document(id int64) (types.Document, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.documents[id]
	return d, ok
}

// DocumentForTenant resolves a document within the tenant's scope.
func (c *Catalog) DocumentForTenant(tenantID, docID int64) (types.Document, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.documents[docID]
	if !ok || d.TenantID != tenantID {
		return types.Document{}, false
	}
	return d, true
}

// SetDocumentStatus transitions a document's lifecycle state.
func (c *Catalog) SetDocumentStatus(id int64, status types.DocumentStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.documents[id]
	if !ok {
		return
	}
	d.Status = status
	d.UpdatedAt = time.Now().UTC()
	c.documents[id] = d
}

// CommitDocumentVersion records a successful delta commit: status ready,
// chunk count grown by the delta, version advanced.
func (c *Catalog) CommitDocumentVersion(id int64, addedChunks, version int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.documents[id]
	if !ok {
		return
	}
	d.Status = types.DocReady
	d.ChunkCount += addedChunks
	d.Version = version
	d.UpdatedAt = time.Now().UTC()
	c.documents[id] = d
}

// ResetDocumentChunks clears a document's chunk bookkeeping after its stored
// chunks were deleted. The document goes back to pending so a re-ingestion
// starts from version 1.
func (c *Catalog) ResetDocumentChunks(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.documents[id]
	if !ok {
		return
	}
	d.Status = types.DocPending
	d.ChunkCount = 0
	d.Version = 0
	d.UpdatedAt = time.Now().UTC()
	c.documents[id] = d
}

// SetBaseModelLoaded persists the runtime residency flag.
func (c *Catalog) SetBaseModelLoaded(id int64, loaded bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	bm, ok := c.baseModels[id]
	if !ok {
		return
	}
	bm.IsLoaded = loaded
	if loaded {
		bm.LoadedAt = time.Now().UTC()
	} else {
		bm.LoadedAt = time.Time{}
	}
	c.baseModels[id] = bm
}

// SetAdapterWeightsPath records the managed weights location for an adapter.
func (c *Catalog) SetAdapterWeightsPath(id int64, path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.adapters[id]
	if !ok {
		return
	}
	a.WeightsPath = path
	c.adapters[id] = a
}

// DefaultTemplate returns the tenant's default prompt template, if any.
func (c *Catalog) DefaultTemplate(tenantID int64) (types.PromptTemplate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.templates {
		if t.TenantID == tenantID && t.IsDefault {
			return t, true
		}
	}
	return types.PromptTemplate{}, false
}
