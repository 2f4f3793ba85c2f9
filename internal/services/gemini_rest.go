package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"email-writer-backend/pkg/logging"
)

const (
	maxResponseBytes = 10 << 20
	maxErrorBodyLen  = 512
)

type GeminiRESTConfig struct {
	BaseURL    string
	APIVersion string
	Model      string
	APIKey     string
	Timeout    time.Duration
	Retry      RetryPolicy

	// HTTPClient overrides the pooled client built from Timeout.
	HTTPClient *http.Client
}

// GeminiRESTProvider calls the generateContent REST endpoint directly, with
// the API key passed as the "key" query parameter.
type GeminiRESTProvider struct {
	client   *http.Client
	model    string
	endpoint string // includes the API key; never log it
	safeURL  string
	retry    RetryPolicy
	logger   *logging.Logger
}

func NewGeminiRESTProvider(cfg GeminiRESTConfig, logger *logging.Logger) (*GeminiRESTProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini api key is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("gemini model is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	base := strings.TrimRight(cfg.BaseURL, "/")
	u, err := url.Parse(fmt.Sprintf("%s/%s/models/%s:generateContent", base, cfg.APIVersion, cfg.Model))
	if err != nil {
		return nil, fmt.Errorf("invalid gemini endpoint: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid gemini base URL %q", cfg.BaseURL)
	}
	safeURL := u.String()

	q := u.Query()
	q.Set("key", cfg.APIKey)
	u.RawQuery = q.Encode()

	client := cfg.HTTPClient
	if client == nil {
		client = newHTTPClient(cfg.Timeout)
	}

	return &GeminiRESTProvider{
		client:   client,
		model:    cfg.Model,
		endpoint: u.String(),
		safeURL:  safeURL,
		retry:    cfg.Retry,
		logger:   logger,
	}, nil
}

func (p *GeminiRESTProvider) Name() string  { return "rest" }
func (p *GeminiRESTProvider) Model() string { return p.model }

func (p *GeminiRESTProvider) GenerateText(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateContentRequest{
		Contents: []requestContent{{Parts: []requestPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("encode gemini request: %w", err)
	}

	return withRetry(ctx, p.retry, p.logger, func(ctx context.Context) (string, error) {
		return p.post(ctx, body)
	})
}

func (p *GeminiRESTProvider) post(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build gemini request: %w", p.redact(err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", &ProviderUnavailableError{Err: p.redact(err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &ProviderUnavailableError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read response body: %w", p.redact(err))}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &ProviderUnavailableError{StatusCode: resp.StatusCode, Body: truncate(string(raw), maxErrorBodyLen)}
	}

	return extractReplyText(raw)
}

// redact swaps the keyed endpoint in *url.Error for one without the key.
func (p *GeminiRESTProvider) redact(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return &url.Error{Op: ue.Op, URL: p.safeURL, Err: ue.Err}
	}
	return err
}

type generateContentRequest struct {
	Contents []requestContent `json:"contents"`
}

type requestContent struct {
	Parts []requestPart `json:"parts"`
}

type requestPart struct {
	Text string `json:"text"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content *struct {
			Parts []struct {
				Text *string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// extractReplyText reads candidates[0].content.parts[0].text from a
// generateContent response body.
func extractReplyText(raw []byte) (string, error) {
	var resp generateContentResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", &MalformedResponseError{Message: err.Error(), Err: err}
	}

	if len(resp.Candidates) == 0 {
		msg := "response contains no candidates"
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			msg += "; prompt blocked: " + resp.PromptFeedback.BlockReason
		}
		return "", &MalformedResponseError{Message: msg}
	}

	cand := resp.Candidates[0]
	if cand.Content == nil {
		msg := "candidates[0] has no content"
		if cand.FinishReason != "" {
			msg += " (finishReason=" + cand.FinishReason + ")"
		}
		return "", &MalformedResponseError{Message: msg}
	}
	if len(cand.Content.Parts) == 0 {
		return "", &MalformedResponseError{Message: "candidates[0].content has no parts"}
	}
	if cand.Content.Parts[0].Text == nil {
		return "", &MalformedResponseError{Message: "candidates[0].content.parts[0] has no text"}
	}

	return *cand.Content.Parts[0].Text, nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
