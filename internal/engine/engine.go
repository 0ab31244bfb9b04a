// Package engine abstracts the external language-model capabilities the core
// depends on: text generation and text embedding. Concrete providers live in
// internal/ollama (local) and internal/groq (cloud, generation only).
package engine

import (
	"context"
	"errors"
	"fmt"
)

// Message is a chat message passed to the generation capability.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Engine is the capability surface the pipeline and query engine consume.
type Engine interface {
	// Generate sends messages to the given model and returns the response
	// text. Treated as fallible and slow; callers must pass a context.
	Generate(ctx context.Context, model string, messages []Message) (string, error)

	// Embed returns the embedding vector for the given text. The same model
	// must be used for indexing and querying within one corpus lifetime.
	Embed(ctx context.Context, model string, text string) ([]float32, error)

	// IsRunning reports whether the provider is reachable.
	IsRunning(ctx context.Context) bool
}

// Kind classifies a capability failure.
type Kind string

const (
	// KindTimeout covers deadline and cancellation failures.
	KindTimeout Kind = "timeout"
	// KindTransport covers network-level failures reaching the provider.
	KindTransport Kind = "transport"
	// KindProvider covers semantic failures the provider reported
	// (bad request, rate limit, malformed response). Not retryable.
	KindProvider Kind = "provider"
)

// CapabilityError is the typed failure for embed and generate calls.
type CapabilityError struct {
	Op   string // "generate" or "embed"
	Kind Kind
	Err  error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%s capability %s: %v", e.Op, e.Kind, e.Err)
}

func (e *CapabilityError) Unwrap() error { return e.Err }

// WrapError builds a CapabilityError, classifying ctx-related failures as
// timeouts. Passing an existing CapabilityError returns it unchanged.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var ce *CapabilityError
	if errors.As(err, &ce) {
		return err
	}
	kind := KindTransport
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		kind = KindTimeout
	}
	return &CapabilityError{Op: op, Kind: kind, Err: err}
}

// ProviderError builds a non-retryable CapabilityError.
func ProviderError(op string, err error) error {
	return &CapabilityError{Op: op, Kind: KindProvider, Err: err}
}

// IsTransient reports whether the error is worth a single retry: timeouts
// and transport failures are, provider errors are not.
func IsTransient(err error) bool {
	var ce *CapabilityError
	if !errors.As(err, &ce) {
		return false
	}
	return ce.Kind == KindTimeout || ce.Kind == KindTransport
}

// ErrorKind extracts the Kind from an error chain, or "" if it carries no
// CapabilityError.
func ErrorKind(err error) Kind {
	var ce *CapabilityError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}
