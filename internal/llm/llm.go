// Package llm talks to hosted language models for interview question
// generation and answer scoring.
package llm

import (
	"context"
	"errors"
)

// Client completes a single prompt and returns the raw model text.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ErrUnusableResponse marks model output that could not be parsed into the
// expected shape.
var ErrUnusableResponse = errors.New("llm response unusable")
