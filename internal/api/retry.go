package api

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Default retry settings for completion calls.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 2 * time.Second
)

// RetryingCompleter wraps a Completer with bounded exponential backoff.
// Every call site (decomposition, outline, writing) goes through the same
// policy; exhausting the attempts surfaces the last error to the caller.
type RetryingCompleter struct {
	inner       Completer
	maxAttempts int
	baseDelay   time.Duration
}

// NewRetryingCompleter wraps inner with the retry policy. maxAttempts < 1
// and baseDelay <= 0 fall back to the defaults.
func NewRetryingCompleter(inner Completer, maxAttempts int, baseDelay time.Duration) *RetryingCompleter {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	return &RetryingCompleter{
		inner:       inner,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
	}
}

// Complete calls the wrapped service, retrying failures with exponential
// backoff. Context cancellation aborts immediately, between attempts and
// during the backoff wait.
func (r *RetryingCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, err := r.inner.Complete(ctx, req)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		if attempt < r.maxAttempts {
			delay := r.baseDelay << (attempt - 1)
			log.Printf("[api] completion attempt %d/%d failed: %v (retrying in %s)",
				attempt, r.maxAttempts, err, delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}

	return "", fmt.Errorf("completion failed after %d attempts: %w", r.maxAttempts, lastErr)
}
