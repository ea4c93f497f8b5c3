// Package embed provides the embedding backend the ingestion pipeline and
// the inference orchestrator share.
package embed

import (
	"context"
	"sync"
)

// Embedder generates vector embeddings from text. Implementations must be
// safe for concurrent use.
type Embedder interface {
	// EmbedTexts embeds a batch, returning vectors in input order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension reports the vector size once known (0 before first use for
	// backends that discover it lazily).
	Dimension() int
}

// Lazy defers construction of an Embedder until first use, then reuses the
// single instance. It replaces ambient singleton state with an injected
// dependency that still pays its initialization cost only when embedding is
// actually needed.
type Lazy struct {
	construct func() (Embedder, error)

	once sync.Once
	inst Embedder
	err  error
}

var _ Embedder = (*Lazy)(nil)

func NewLazy(construct func() (Embedder, error)) *Lazy {
	return &Lazy{construct: construct}
}

func (l *Lazy) get() (Embedder, error) {
	l.once.Do(func() {
		l.inst, l.err = l.construct()
	})
	return l.inst, l.err
}

func (l *Lazy) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e, err := l.get()
	if err != nil {
		return nil, err
	}
	return e.EmbedTexts(ctx, texts)
}

func (l *Lazy) Dimension() int {
	e, err := l.get()
	if err != nil {
		return 0
	}
	return e.Dimension()
}
