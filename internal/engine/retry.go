package engine

import (
	"context"
	"time"
)

const (
	defaultCallTimeout = 30 * time.Second
	retryBackoff       = 500 * time.Millisecond
)

// Compile-time check that Retrying implements Engine.
var _ Engine = (*Retrying)(nil)

// Retrying wraps an Engine so every call carries a timeout and transient
// failures get exactly one retry. Provider errors (bad prompt, rate limit)
// are returned as-is; retry policy beyond this single attempt belongs to the
// caller.
type Retrying struct {
	inner   Engine
	timeout time.Duration
}

// WithRetry wraps eng with per-call timeouts and a single bounded retry.
// A timeout <= 0 uses the default (30s).
func WithRetry(eng Engine, timeout time.Duration) *Retrying {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &Retrying{inner: eng, timeout: timeout}
}

func (r *Retrying) Generate(ctx context.Context, model string, messages []Message) (string, error) {
	var out string
	err := r.attempt(ctx, func(callCtx context.Context) error {
		var genErr error
		out, genErr = r.inner.Generate(callCtx, model, messages)
		return genErr
	})
	return out, err
}

func (r *Retrying) Embed(ctx context.Context, model string, text string) ([]float32, error) {
	var vec []float32
	err := r.attempt(ctx, func(callCtx context.Context) error {
		var embErr error
		vec, embErr = r.inner.Embed(callCtx, model, text)
		return embErr
	})
	return vec, err
}

func (r *Retrying) IsRunning(ctx context.Context) bool {
	return r.inner.IsRunning(ctx)
}

func (r *Retrying) attempt(ctx context.Context, call func(context.Context) error) error {
	err := r.once(ctx, call)
	if err == nil || !IsTransient(err) {
		return err
	}
	// One retry for transient failures, unless the parent context is done.
	select {
	case <-ctx.Done():
		return err
	case <-time.After(retryBackoff):
	}
	return r.once(ctx, call)
}

func (r *Retrying) once(ctx context.Context, call func(context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return call(callCtx)
}
