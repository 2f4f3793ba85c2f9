package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"email-writer-backend/internal/models"
	"email-writer-backend/internal/observability/metrics"
	"email-writer-backend/pkg/logging"
)

// ReplyService turns an email into a generated reply. It keeps no state
// between calls.
type ReplyService struct {
	provider Provider
	metrics  *metrics.ReplyMetrics
	logger   *logging.Logger
}

func NewReplyService(provider Provider, m *metrics.ReplyMetrics, logger *logging.Logger) *ReplyService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ReplyService{
		provider: provider,
		metrics:  m,
		logger:   logger,
	}
}

// Generate returns the typed result. Failures come back as
// *ValidationError, *ProviderUnavailableError or *MalformedResponseError.
func (s *ReplyService) Generate(ctx context.Context, req models.ReplyRequest) (*models.ReplyResponse, error) {
	if strings.TrimSpace(req.EmailContent) == "" {
		return nil, &ValidationError{Fields: map[string]string{
			"emailContent": "Email content is required",
		}}
	}

	tone := ResolveTone(req.Tone)
	prompt := BuildReplyPrompt(req)

	start := time.Now()
	text, err := s.provider.GenerateText(ctx, prompt)
	elapsed := time.Since(start)

	outcome := Outcome(err)
	s.metrics.ObserveProvider(s.provider.Name(), outcome, elapsed.Seconds())

	attrs := []any{
		"transport", s.provider.Name(),
		"model", s.provider.Model(),
		"tone", tone,
		"prompt_chars", len(prompt),
		"latency_ms", elapsed.Milliseconds(),
		"outcome", outcome,
	}
	if err != nil {
		s.logger.Warn("reply generation failed", append(attrs, "error", err)...)
		return nil, err
	}
	s.logger.Info("reply generated", attrs...)

	return &models.ReplyResponse{
		Reply: text,
		Tone:  tone,
		Model: s.provider.Model(),
	}, nil
}

// GenerateReply returns the reply as plain text. An unreadable provider
// response is not an error here: it becomes ErrorPrefix plus the reason.
// Transport and validation failures are still returned as errors.
func (s *ReplyService) GenerateReply(ctx context.Context, req models.ReplyRequest) (string, error) {
	resp, err := s.Generate(ctx, req)
	if err != nil {
		var malformed *MalformedResponseError
		if errors.As(err, &malformed) {
			return ErrorPrefix + malformed.Error(), nil
		}
		return "", err
	}
	return resp.Reply, nil
}
