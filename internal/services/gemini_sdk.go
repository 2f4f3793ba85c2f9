package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"email-writer-backend/pkg/logging"
)

type GeminiSDKConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	Retry   RetryPolicy
}

// GeminiSDKProvider generates text through the official genai client.
type GeminiSDKProvider struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	modelID string
	timeout time.Duration
	retry   RetryPolicy
	logger  *logging.Logger
}

func NewGeminiSDKProvider(ctx context.Context, cfg GeminiSDKConfig, logger *logging.Logger) (*GeminiSDKProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini api key is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("gemini model is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiSDKProvider{
		client:  client,
		model:   client.GenerativeModel(cfg.Model),
		modelID: cfg.Model,
		timeout: cfg.Timeout,
		retry:   cfg.Retry,
		logger:  logger,
	}, nil
}

func (p *GeminiSDKProvider) Name() string  { return "sdk" }
func (p *GeminiSDKProvider) Model() string { return p.modelID }

func (p *GeminiSDKProvider) Close() error {
	return p.client.Close()
}

func (p *GeminiSDKProvider) GenerateText(ctx context.Context, prompt string) (string, error) {
	return withRetry(ctx, p.retry, p.logger, func(ctx context.Context) (string, error) {
		if p.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, p.timeout)
			defer cancel()
		}

		resp, err := p.model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return "", classifySDKError(err)
		}
		return firstCandidateText(resp)
	})
}

// classifySDKError splits genai failures into the payload tier (blocked
// content) and the transport tier (everything else).
func classifySDKError(err error) error {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return &MalformedResponseError{Message: blocked.Error(), Err: err}
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &ProviderUnavailableError{StatusCode: apiErr.Code, Body: truncate(apiErr.Message, maxErrorBodyLen), Err: err}
	}
	return &ProviderUnavailableError{Err: err}
}

// firstCandidateText mirrors extractReplyText for the SDK's typed response.
func firstCandidateText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &MalformedResponseError{Message: "response contains no candidates"}
	}

	cand := resp.Candidates[0]
	if cand.Content == nil {
		return "", &MalformedResponseError{Message: fmt.Sprintf("candidates[0] has no content (finishReason=%s)", cand.FinishReason)}
	}
	if len(cand.Content.Parts) == 0 {
		return "", &MalformedResponseError{Message: "candidates[0].content has no parts"}
	}

	text, ok := cand.Content.Parts[0].(genai.Text)
	if !ok {
		return "", &MalformedResponseError{Message: fmt.Sprintf("candidates[0].content.parts[0] is %T, not text", cand.Content.Parts[0])}
	}
	return string(text), nil
}
