package embed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func embeddingResponse(vectors ...[]float32) map[string]any {
	data := make([]map[string]any, len(vectors))
	for i, v := range vectors {
		data[i] = map[string]any{"embedding": v}
	}
	return map[string]any{"data": data}
}

func TestEmbedTextsBatch(t *testing.T) {
	var gotBody struct {
		Input []string `json:"input"`
		Model string   `json:"model"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("path %q", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(embeddingResponse([]float32{1, 2}, []float32{3, 4}))
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	vectors, err := c.EmbedTexts(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(vectors) != 2 || vectors[1][1] != 4 {
		t.Fatalf("vectors %v", vectors)
	}
	if len(gotBody.Input) != 2 {
		t.Fatalf("batch not sent in one request: %v", gotBody.Input)
	}
	if gotBody.Model != "BAAI/bge-large-en-v1.5" {
		t.Fatalf("default model %q", gotBody.Model)
	}
	// Dimension discovered from the first response.
	if c.Dimension() != 2 {
		t.Fatalf("dimension %d", c.Dimension())
	}
}

func TestEmbedTextsRetriesOn429(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(embeddingResponse([]float32{1}))
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	vectors, err := c.EmbedTexts(context.Background(), []string{"a"})
	if err != nil {
		t.Fatalf("embed after retry: %v", err)
	}
	if len(vectors) != 1 || calls.Load() != 2 {
		t.Fatalf("vectors=%v calls=%d", vectors, calls.Load())
	}
}

func TestEmbedTextsConcurrentDimensionDiscovery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(embeddingResponse([]float32{1, 2, 3}))
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	// The worker fans out parallel batches; discovery of the vector size
	// must be safe against simultaneous embeds and Dimension reads.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.EmbedTexts(context.Background(), []string{"x"}); err != nil {
				t.Errorf("embed: %v", err)
			}
			_ = c.Dimension()
		}()
	}
	wg.Wait()
	if c.Dimension() != 3 {
		t.Fatalf("dimension %d", c.Dimension())
	}
}

func TestEmbedTextsCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(embeddingResponse([]float32{1}))
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := c.EmbedTexts(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatal("expected mismatch error")
	}
}

func TestEmbedTextsClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad model", http.StatusBadRequest)
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := c.EmbedTexts(context.Background(), []string{"a"}); err == nil {
		t.Fatal("expected error for 400")
	}
	if calls.Load() != 1 {
		t.Fatalf("4xx retried %d times", calls.Load())
	}
}

func TestEmbedTextsEmptyInput(t *testing.T) {
	c, err := NewClient(Config{BaseURL: "http://unused"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	vectors, err := c.EmbedTexts(context.Background(), nil)
	if err != nil || vectors != nil {
		t.Fatalf("empty input: %v %v", vectors, err)
	}
}

func TestLazyConstructsOnce(t *testing.T) {
	var built atomic.Int32
	l := NewLazy(func() (Embedder, error) {
		built.Add(1)
		return fakeEmbedder{}, nil
	})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for i := 0; i < 3; i++ {
		if _, err := l.EmbedTexts(ctx, []string{"x"}); err != nil {
			t.Fatalf("embed: %v", err)
		}
	}
	if built.Load() != 1 {
		t.Fatalf("constructed %d times", built.Load())
	}
	if l.Dimension() != 7 {
		t.Fatalf("dimension %d", l.Dimension())
	}
}

func TestLazyConstructionFailureSurfaces(t *testing.T) {
	wantErr := errors.New("no backend configured")
	l := NewLazy(func() (Embedder, error) { return nil, wantErr })
	if _, err := l.EmbedTexts(context.Background(), []string{"x"}); !errors.Is(err, wantErr) {
		t.Fatalf("err %v", err)
	}
	if l.Dimension() != 0 {
		t.Fatalf("dimension on failure %d", l.Dimension())
	}
}

type fakeEmbedder struct{}

func (fakeEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = make([]float32, 7)
	}
	return out, nil
}

func (fakeEmbedder) Dimension() int { return 7 }
