// Package runtime wraps the external model runtime the gateway delegates to.
// The Runtime interface mirrors the runtime server's control surface (model
// load, adapter hot-swap, completion); the Gateway adds the in-process
// bookkeeping of what is currently resident.
package runtime

import "context"

// InferParams captures one generation request passed to the runtime.
type InferParams struct {
	Model  string
	Prompt string
	// Runtime adapter names to compose with the base model, if any.
	AdapterNames []string
	Temperature  float64
	MaxTokens    int
}

// Runtime abstracts the inference server (e.g. a vLLM-style HTTP endpoint).
// Implementations must return when the context is canceled.
type Runtime interface {
	// LoadBaseModel makes the named base model resident.
	LoadBaseModel(ctx context.Context, name, weightsRef string) error
	// LoadLoRAAdapter attaches an adapter to a resident base model.
	LoadLoRAAdapter(ctx context.Context, baseModel, adapterName, weightsPath string) error
	// UnloadLoRAAdapter detaches an adapter. Unloading an absent adapter is
	// not an error.
	UnloadLoRAAdapter(ctx context.Context, baseModel, adapterName string) error
	// Infer runs a blocking completion and returns the full text.
	Infer(ctx context.Context, p InferParams) (string, error)
	// InferStream streams text increments through onToken. A non-nil error
	// from onToken stops the stream and is returned unchanged.
	InferStream(ctx context.Context, p InferParams, onToken func(string) error) error
}
