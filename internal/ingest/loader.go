package ingest

import (
	"context"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Unit is one loaded content unit: extracted text plus where it came from.
// A loader may yield several units for one document (pages, sheets, frames).
type Unit struct {
	Text     string
	Source   string
	Metadata map[string]string
}

// Loader extracts text from one document format.
type Loader interface {
	Load(ctx context.Context, ref string) ([]Unit, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, ref string) ([]Unit, error)

func (f LoaderFunc) Load(ctx context.Context, ref string) ([]Unit, error) { return f(ctx, ref) }

// LoaderRegistry maps format tags to loaders. Unknown tags load to zero
// units rather than erroring, so a misconfigured format produces an empty
// document, not a crash.
type LoaderRegistry struct {
	mu sync.RWMutex
	m  map[string]Loader
}

func NewLoaderRegistry() *LoaderRegistry {
	return &LoaderRegistry{m: make(map[string]Loader)}
}

// Register installs (or replaces) the loader for a format tag.
func (r *LoaderRegistry) Register(tag string, l Loader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[strings.ToLower(tag)] = l
}

// Load dispatches to the registered loader for tag.
func (r *LoaderRegistry) Load(ctx context.Context, tag, ref string) ([]Unit, error) {
	r.mu.RLock()
	l, ok := r.m[strings.ToLower(tag)]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return l.Load(ctx, ref)
}

// DefaultLoaders returns a registry with the built-in loaders: plain text
// files and web pages. Richer formats (pdf, csv, pptx) are pluggable and out
// of scope for the core.
func DefaultLoaders() *LoaderRegistry {
	r := NewLoaderRegistry()
	r.Register("txt", LoaderFunc(loadTextFile))
	r.Register("url", NewURLLoader(15 * time.Second))
	return r
}

func loadTextFile(ctx context.Context, path string) ([]Unit, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(string(b))
	if text == "" {
		return nil, nil
	}
	return []Unit{{Text: text, Source: path}}, nil
}

// URLLoader fetches a page and strips markup down to text.
type URLLoader struct {
	client *http.Client
}

func NewURLLoader(timeout time.Duration) *URLLoader {
	return &URLLoader{client: &http.Client{Timeout: timeout}}
}

var (
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

func (l *URLLoader) Load(ctx context.Context, url string) ([]Unit, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		// Non-200 pages contribute nothing, mirroring the lenient file-type
		// handling: an unreachable page is zero chunks, not a hard failure.
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, err
	}
	text := tagPattern.ReplaceAllString(string(body), " ")
	text = strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
	if text == "" {
		return nil, nil
	}
	return []Unit{{Text: text, Source: url}}, nil
}
