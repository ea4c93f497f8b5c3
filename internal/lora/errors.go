package lora

import "strconv"

// notFoundError signals a missing model, base model, or adapter row.
type notFoundError struct {
	kind string
	id   int64
}

func (e notFoundError) Error() string {
	return e.kind + " not found: " + strconv.FormatInt(e.id, 10)
}

// ErrModelNotFound returns an error for a missing fine-tuned model id.
func ErrModelNotFound(id int64) error { return notFoundError{kind: "model", id: id} }

// ErrBaseModelNotFound returns an error for a missing base model id.
func ErrBaseModelNotFound(id int64) error { return notFoundError{kind: "base model", id: id} }

// IsNotFound reports whether the error indicates a missing row.
func IsNotFound(err error) bool {
	_, ok := err.(notFoundError)
	return ok
}

// adaptersNotFoundError signals that the requested adapter ids did not all
// resolve within the model's scope. Partial matches are rejected wholesale.
type adaptersNotFoundError struct {
	modelID   int64
	requested int
	resolved  int
}

func (e adaptersNotFoundError) Error() string {
	return "some adapters not found for model " + strconv.FormatInt(e.modelID, 10) +
		": requested " + strconv.Itoa(e.requested) + ", resolved " + strconv.Itoa(e.resolved)
}

// IsAdaptersNotFound reports whether the error indicates a partial or empty
// adapter resolution.
func IsAdaptersNotFound(err error) bool {
	_, ok := err.(adaptersNotFoundError)
	return ok
}

// loadFailureError signals that the runtime refused or errored on a load.
// State is not mutated when this is returned.
type loadFailureError struct {
	what string
	err  error
}

func (e loadFailureError) Error() string { return "failed to load " + e.what + ": " + e.err.Error() }
func (e loadFailureError) Unwrap() error { return e.err }

// ErrLoadFailure wraps a runtime load error for the named subject.
func ErrLoadFailure(what string, err error) error { return loadFailureError{what: what, err: err} }

// IsLoadFailure reports whether the error indicates a runtime load failure.
func IsLoadFailure(err error) bool {
	_, ok := err.(loadFailureError)
	return ok
}
