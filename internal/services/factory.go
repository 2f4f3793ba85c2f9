package services

import (
	"context"
	"fmt"

	"email-writer-backend/internal/config"
	"email-writer-backend/pkg/logging"
)

// NewProvider builds the provider selected by cfg.GeminiTransport. The
// returned close func releases SDK resources and is always non-nil.
func NewProvider(ctx context.Context, cfg *config.Config, logger *logging.Logger) (Provider, func() error, error) {
	retry := RetryPolicy{MaxRetries: cfg.GeminiMaxRetries, Backoff: cfg.GeminiRetryBackoff}

	switch cfg.GeminiTransport {
	case config.TransportREST:
		p, err := NewGeminiRESTProvider(GeminiRESTConfig{
			BaseURL:    cfg.GeminiAPIURL,
			APIVersion: cfg.GeminiAPIVersion,
			Model:      cfg.GeminiModel,
			APIKey:     cfg.GeminiAPIKey,
			Timeout:    cfg.GeminiTimeout,
			Retry:      retry,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return p, func() error { return nil }, nil

	case config.TransportSDK:
		p, err := NewGeminiSDKProvider(ctx, GeminiSDKConfig{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			Timeout: cfg.GeminiTimeout,
			Retry:   retry,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown gemini transport %q", cfg.GeminiTransport)
}
