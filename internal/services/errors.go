package services

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorPrefix starts every reply that stands in for an unreadable provider response.
const ErrorPrefix = "Error processing response: "

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

// ProviderUnavailableError is a transport-tier failure: the exchange with the
// provider did not complete with a 2xx status.
type ProviderUnavailableError struct {
	StatusCode int // 0 when no HTTP response was received
	Body       string
	Err        error
}

func (e *ProviderUnavailableError) Error() string {
	if e.StatusCode > 0 {
		if e.Body != "" {
			return fmt.Sprintf("provider returned HTTP %d: %s", e.StatusCode, e.Body)
		}
		return fmt.Sprintf("provider returned HTTP %d", e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("provider unavailable: %v", e.Err)
	}
	return "provider unavailable"
}

func (e *ProviderUnavailableError) Unwrap() error { return e.Err }

// Retryable reports whether another attempt could succeed.
func (e *ProviderUnavailableError) Retryable() bool {
	return e.StatusCode == 0 ||
		e.StatusCode >= http.StatusInternalServerError ||
		e.StatusCode == http.StatusTooManyRequests
}

// MalformedResponseError is a payload-tier failure: the provider answered but
// the reply text could not be read from the body.
type MalformedResponseError struct {
	Message string
	Err     error
}

func (e *MalformedResponseError) Error() string { return e.Message }

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// Outcome labels err for logs and metrics.
func Outcome(err error) string {
	var (
		validation  *ValidationError
		unavailable *ProviderUnavailableError
		malformed   *MalformedResponseError
	)
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &validation):
		return "invalid"
	case errors.As(err, &malformed):
		return "malformed"
	case errors.As(err, &unavailable):
		return "unavailable"
	default:
		return "error"
	}
}
