package services

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"email-writer-backend/pkg/logging"
)

// Provider sends a prompt to a generative-language API and returns the
// generated text. Transport failures come back as *ProviderUnavailableError,
// unreadable payloads as *MalformedResponseError.
type Provider interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	Name() string
	Model() string
}

// RetryPolicy bounds retries of transient transport failures.
// MaxRetries of 0 means a single attempt.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	base := time.Duration(attempt*attempt) * p.Backoff
	if base <= 0 {
		return 0
	}
	jitter := time.Duration(rand.Int64N(int64(base/2) + 1))
	return base + jitter
}

// withRetry runs fn until it succeeds, fails with a non-retryable error, or
// the policy is exhausted. Only retryable *ProviderUnavailableError values
// trigger another attempt.
func withRetry(ctx context.Context, policy RetryPolicy, logger *logging.Logger, fn func(ctx context.Context) (string, error)) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := policy.delay(attempt)
			logger.Warn("retrying provider request", "attempt", attempt+1, "backoff", backoff, "error", lastErr)
			select {
			case <-ctx.Done():
				return "", lastErr
			case <-time.After(backoff):
			}
		}

		text, err := fn(ctx)
		if err == nil {
			return text, nil
		}
		lastErr = err

		var unavailable *ProviderUnavailableError
		if !errors.As(err, &unavailable) || !unavailable.Retryable() || ctx.Err() != nil {
			return "", err
		}
	}

	return "", lastErr
}
