package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestVLLMLoadBaseModelPayload(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewVLLMClient(VLLMConfig{BaseURL: srv.URL})
	if err := c.LoadBaseModel(context.Background(), "qwen2.5-7b", "Qwen/Qwen2.5-7B"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if gotPath != "/v1/models/load" {
		t.Fatalf("path %q", gotPath)
	}
	if gotBody["model"] != "qwen2.5-7b" || gotBody["model_path"] != "Qwen/Qwen2.5-7B" {
		t.Fatalf("payload %v", gotBody)
	}
	if gotBody["enable_lora"] != true {
		t.Fatalf("lora not enabled in payload: %v", gotBody)
	}
}

func TestVLLMInferSendsAdapterHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/completions" {
			t.Errorf("path %q", r.URL.Path)
		}
		if got := r.Header.Get("X-LoRA-Adapters"); got != "adapter_1,adapter_2" {
			t.Errorf("adapter header %q", got)
		}
		var body map[string]any
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &body)
		if body["stream"] != false {
			t.Errorf("stream flag %v", body["stream"])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"text": "hello"}},
		})
	}))
	defer srv.Close()

	c := NewVLLMClient(VLLMConfig{BaseURL: srv.URL})
	out, err := c.Infer(context.Background(), InferParams{
		Model:        "qwen2.5-7b",
		Prompt:       "hi",
		AdapterNames: []string{"adapter_1", "adapter_2"},
	})
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	if out != "hello" {
		t.Fatalf("result %q", out)
	}
}

func TestVLLMInferHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not resident", http.StatusConflict)
	}))
	defer srv.Close()

	c := NewVLLMClient(VLLMConfig{BaseURL: srv.URL})
	_, err := c.Infer(context.Background(), InferParams{Model: "x", Prompt: "hi"})
	if err == nil || !strings.Contains(err.Error(), "model not resident") {
		t.Fatalf("expected surfaced body, got %v", err)
	}
}

func TestVLLMInferStreamParsesSSE(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, frag := range []string{"Hel", "lo ", "world"} {
			fmt.Fprintf(w, "data: {\"choices\":[{\"text\":%q}]}\n\n", frag)
			flusher.Flush()
		}
		// Delta-style fragment and noise lines must also be handled.
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"!\"}}]}\n\n")
		fmt.Fprint(w, ": keepalive\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	}))
	defer srv.Close()

	c := NewVLLMClient(VLLMConfig{BaseURL: srv.URL})
	var sb strings.Builder
	err := c.InferStream(context.Background(), InferParams{Model: "x", Prompt: "hi"}, func(tok string) error {
		sb.WriteString(tok)
		return nil
	})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if sb.String() != "Hello world!" {
		t.Fatalf("assembled %q", sb.String())
	}
}

func TestVLLMInferStreamCallbackErrorStops(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		for i := 0; i < 100; i++ {
			fmt.Fprintf(w, "data: {\"choices\":[{\"text\":\"t%d\"}]}\n\n", i)
			flusher.Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	c := NewVLLMClient(VLLMConfig{BaseURL: srv.URL})
	wantErr := fmt.Errorf("consumer gone")
	calls := 0
	err := c.InferStream(context.Background(), InferParams{Model: "x", Prompt: "hi"}, func(string) error {
		calls++
		return wantErr
	})
	if err != wantErr {
		t.Fatalf("expected callback error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("callback ran %d times after erroring", calls)
	}
}
