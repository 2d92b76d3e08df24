package api

import (
	"context"
	"errors"

	"github.com/ShayCichocki/fable/pkg/models"
)

// CompletionRequest is one text-completion call.
type CompletionRequest struct {
	// Prompt is the full prompt text.
	Prompt string
	// Model is the target model identifier.
	Model string
	// Sampling holds the sampling parameters for this call.
	Sampling models.SamplingParams
}

// Completer is the text-completion service consumed by the pipeline phases.
// Implementations must be safe for concurrent use.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// ErrEmptyCompletion is returned when the service produced no text. It is
// retried like any other service failure.
var ErrEmptyCompletion = errors.New("completion service returned empty output")
