package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"inferd/pkg/types"
)

func TestModelForTenantScoping(t *testing.T) {
	c := New()
	m := c.AddModel(types.Model{TenantID: 1, Name: "support"})

	if _, ok := c.ModelForTenant(1, m.ID); !ok {
		t.Fatal("owner cannot see its own model")
	}
	if _, ok := c.ModelForTenant(2, m.ID); ok {
		t.Fatal("foreign tenant resolved another tenant's model")
	}
	if _, ok := c.ModelForTenant(1, 999); ok {
		t.Fatal("unknown id resolved")
	}
}

func TestDocumentForTenantScoping(t *testing.T) {
	c := New()
	d := c.AddDocument(types.Document{TenantID: 1, Name: "doc"})
	if d.Status != types.DocPending {
		t.Fatalf("new document status %q, want pending", d.Status)
	}
	if _, ok := c.DocumentForTenant(2, d.ID); ok {
		t.Fatal("foreign tenant resolved another tenant's document")
	}
}

func TestAdaptersForModelResolution(t *testing.T) {
	c := New()
	m := c.AddModel(types.Model{TenantID: 1})
	other := c.AddModel(types.Model{TenantID: 1})
	a1 := c.AddAdapter(types.Adapter{ModelID: m.ID, Name: "a", Active: true})
	a2 := c.AddAdapter(types.Adapter{ModelID: m.ID, Name: "b", Active: true})
	inactive := c.AddAdapter(types.Adapter{ModelID: m.ID, Name: "c", Active: false})
	foreign := c.AddAdapter(types.Adapter{ModelID: other.ID, Name: "d", Active: true})

	got := c.AdaptersForModel(m.ID, []int64{a1.ID, a2.ID})
	if len(got) != 2 {
		t.Fatalf("resolved %d adapters, want 2", len(got))
	}
	// Inactive, foreign-model, and unknown ids all drop out.
	for _, bad := range []int64{inactive.ID, foreign.ID, 999} {
		if got := c.AdaptersForModel(m.ID, []int64{a1.ID, bad}); len(got) != 1 {
			t.Fatalf("id %d resolved %d adapters, want 1", bad, len(got))
		}
	}
}

func TestAdapterVersionDefaults(t *testing.T) {
	c := New()
	a := c.AddAdapter(types.Adapter{Name: "x", Active: true})
	if a.Version != 1 {
		t.Fatalf("adapter version %d, want 1", a.Version)
	}
}

func TestDocumentLifecycle(t *testing.T) {
	c := New()
	d := c.AddDocument(types.Document{TenantID: 1})

	c.SetDocumentStatus(d.ID, types.DocProcessing)
	got, _ := c.Document(d.ID)
	if got.Status != types.DocProcessing {
		t.Fatalf("status %q", got.Status)
	}

	c.CommitDocumentVersion(d.ID, 5, 1)
	got, _ = c.Document(d.ID)
	if got.Status != types.DocReady || got.ChunkCount != 5 || got.Version != 1 {
		t.Fatalf("after commit: %+v", got)
	}

	c.CommitDocumentVersion(d.ID, 2, 2)
	got, _ = c.Document(d.ID)
	if got.ChunkCount != 7 || got.Version != 2 {
		t.Fatalf("after second commit: %+v", got)
	}

	c.ResetDocumentChunks(d.ID)
	got, _ = c.Document(d.ID)
	if got.Status != types.DocPending || got.ChunkCount != 0 || got.Version != 0 {
		t.Fatalf("after reset: %+v", got)
	}
}

func TestDefaultTemplatePerTenant(t *testing.T) {
	c := New()
	c.AddTemplate(types.PromptTemplate{TenantID: 1, Name: "old", IsDefault: false})
	want := c.AddTemplate(types.PromptTemplate{TenantID: 1, Name: "current", IsDefault: true})
	c.AddTemplate(types.PromptTemplate{TenantID: 2, Name: "other", IsDefault: true})

	got, ok := c.DefaultTemplate(1)
	if !ok || got.ID != want.ID {
		t.Fatalf("default template = %+v, ok=%v", got, ok)
	}
	if _, ok := c.DefaultTemplate(3); ok {
		t.Fatal("tenant without templates resolved a default")
	}
}

func TestExplicitIDsKeepAllocatorAhead(t *testing.T) {
	c := New()
	c.AddModel(types.Model{ID: 40, TenantID: 1})
	m := c.AddModel(types.Model{TenantID: 1})
	if m.ID <= 40 {
		t.Fatalf("allocator reused id space: %d", m.ID)
	}
}

func TestLoadFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	seed := `
base_models:
  - id: 1
    name: qwen2.5-7b
    weights_ref: Qwen/Qwen2.5-7B
models:
  - id: 2
    tenant_id: 1
    name: support
    base_model_id: 1
adapters:
  - id: 3
    model_id: 2
    name: tone
    version: 1
    active: true
documents:
  - id: 4
    tenant_id: 1
    name: faq
    file_type: txt
    file_path: /data/faq.txt
prompt_templates:
  - id: 5
    tenant_id: 1
    agent_role: You are helpful.
    is_default: true
`
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := c.BaseModel(1); !ok {
		t.Fatal("base model missing")
	}
	if _, ok := c.ModelForTenant(1, 2); !ok {
		t.Fatal("model missing")
	}
	if got := c.AdaptersForModel(2, []int64{3}); len(got) != 1 {
		t.Fatalf("adapter resolution: %v", got)
	}
	if _, ok := c.DocumentForTenant(1, 4); !ok {
		t.Fatal("document missing")
	}
	if tpl, ok := c.DefaultTemplate(1); !ok || tpl.AgentRole != "You are helpful." {
		t.Fatalf("template: %+v ok=%v", tpl, ok)
	}
}

func TestLoadFileUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.ini")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}
