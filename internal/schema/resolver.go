// Package schema resolves fully-qualified model names to JSON Schema
// documents. The pipeline treats resolution as an external boundary: the
// default implementation shells out to the TypeScript schema compiler,
// and a memoizing wrapper keeps repeated references cheap.
package schema

import (
	"context"
	"fmt"
)

// Resolver produces the JSON Schema for a fully-qualified model name.
// Resolution failures are fatal to a synthesis run.
type Resolver interface {
	Resolve(ctx context.Context, modelName string) (map[string]any, error)
}

// ResolutionError reports a model name the resolver could not produce a
// schema for.
type ResolutionError struct {
	Model string
	Cause error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("schema: resolve %s: %v", e.Model, e.Cause)
}

func (e *ResolutionError) Unwrap() error { return e.Cause }

// Cached memoizes successful resolutions by model name so each distinct
// name is compiled at most once per run. It is not safe for concurrent
// use; the synthesis pipeline is single-threaded.
type Cached struct {
	inner Resolver
	memo  map[string]map[string]any
}

// NewCached wraps a resolver with per-name memoization. Wrapping an
// already cached resolver returns it unchanged.
func NewCached(inner Resolver) *Cached {
	if c, ok := inner.(*Cached); ok {
		return c
	}
	return &Cached{inner: inner, memo: make(map[string]map[string]any)}
}

// Resolve returns the memoized schema for modelName, consulting the
// wrapped resolver on first use. Errors are not memoized.
func (c *Cached) Resolve(ctx context.Context, modelName string) (map[string]any, error) {
	if s, ok := c.memo[modelName]; ok {
		return s, nil
	}
	s, err := c.inner.Resolve(ctx, modelName)
	if err != nil {
		return nil, err
	}
	c.memo[modelName] = s
	return s, nil
}
