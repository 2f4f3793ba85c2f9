package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"email-writer-backend/internal/models"
	"email-writer-backend/internal/observability/metrics"
	"email-writer-backend/internal/services"
	"email-writer-backend/pkg/logging"
)

const maxRequestBytes = 1 << 20

type replyGenerator interface {
	Generate(ctx context.Context, req models.ReplyRequest) (*models.ReplyResponse, error)
	GenerateReply(ctx context.Context, req models.ReplyRequest) (string, error)
}

type ReplyHandler struct {
	replyService replyGenerator
	metrics      *metrics.ReplyMetrics
	logger       *logging.Logger
}

func NewReplyHandler(replyService replyGenerator, m *metrics.ReplyMetrics, logger *logging.Logger) *ReplyHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ReplyHandler{replyService: replyService, metrics: m, logger: logger}
}

// GenerateText answers with the reply as text/plain. A provider response
// that could not be read still yields 200 with an "Error processing
// response: ..." body.
func (h *ReplyHandler) GenerateText(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r, "legacy")
	if !ok {
		return
	}

	reply, err := h.replyService.GenerateReply(r.Context(), req)
	if err != nil {
		h.metrics.ObserveRequest("legacy", services.Outcome(err))
		handleServiceError(w, r, err)
		return
	}

	outcome := "success"
	if strings.HasPrefix(reply, services.ErrorPrefix) {
		outcome = "malformed"
	}
	h.metrics.ObserveRequest("legacy", outcome)
	if err := writeText(w, http.StatusOK, reply); err != nil {
		h.logger.Debug("write reply failed", "endpoint", "legacy", "request_id", r.Header.Get("X-Request-ID"), "error", err)
	}
}

// Generate answers with a typed JSON result, and distinct error codes for
// bad input, unreadable provider output and provider outages.
func (h *ReplyHandler) Generate(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r, "v1")
	if !ok {
		return
	}

	resp, err := h.replyService.Generate(r.Context(), req)
	h.metrics.ObserveRequest("v1", services.Outcome(err))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Debug("write reply failed", "endpoint", "v1", "request_id", r.Header.Get("X-Request-ID"), "error", err)
	}
}

func (h *ReplyHandler) decode(w http.ResponseWriter, r *http.Request, endpoint string) (models.ReplyRequest, bool) {
	var req models.ReplyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		h.metrics.ObserveRequest(endpoint, "invalid")
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return req, false
	}
	return req, true
}
