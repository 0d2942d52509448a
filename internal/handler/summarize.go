package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/briefly/briefly/internal/auth"
	"github.com/briefly/briefly/internal/handler/dto"
	"github.com/briefly/briefly/internal/quota"
	"github.com/briefly/briefly/internal/service"
	"github.com/briefly/briefly/internal/summarizer"
)

// SummarizeHandler handles HTTP requests for summarization.
type SummarizeHandler struct {
	svc    *service.SummaryService
	logger *slog.Logger
}

// NewSummarizeHandler creates a new SummarizeHandler.
func NewSummarizeHandler(svc *service.SummaryService, logger *slog.Logger) *SummarizeHandler {
	return &SummarizeHandler{
		svc:    svc,
		logger: logger,
	}
}

// Summarize handles POST /api/v1/summarize.
// Requires an authenticated identity in the request context.
func (h *SummarizeHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		h.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing API key")
		return
	}

	var req dto.SummarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	result, err := h.svc.Summarize(r.Context(), service.SummarizeInput{
		UserID:   identity.UserID,
		Content:  req.Content,
		MaxWords: req.MaxLength,
		MinWords: req.MinLength,
	})
	if result != nil {
		setQuotaHeaders(w, result.Admission)
	}
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("summary_created",
		"user_id", identity.UserID,
		"plan", string(identity.Plan),
		"content_bytes", len(req.Content),
		"requests_today", result.Admission.User.RequestsToday,
	)

	writeJSON(w, http.StatusOK, dto.SummarizeResponse{
		UserID:  identity.UserID,
		Plan:    string(identity.Plan),
		Summary: result.Summary,
	})
}

// setQuotaHeaders sets standard rate limit headers from an admission
// decision. Unlimited plans carry no limit header.
func setQuotaHeaders(w http.ResponseWriter, admission *quota.Result) {
	if admission == nil {
		return
	}
	if admission.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(admission.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(admission.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(admission.ResetAt.Unix(), 10))
	}
	if admission.RetryAfter > 0 {
		secs := int(admission.RetryAfter.Seconds())
		if secs < 1 {
			secs = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
}

func (h *SummarizeHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quota.ErrRateLimited):
		h.writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Only one request per second is allowed.")
	case errors.Is(err, quota.ErrQuotaExceeded):
		h.writeError(w, http.StatusTooManyRequests, "QUOTA_EXCEEDED", "Daily request limit reached. Upgrade to pro for unlimited requests.")
	case errors.Is(err, quota.ErrUserNotFound):
		h.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing API key")
	case errors.Is(err, service.ErrEmptyContent):
		h.writeError(w, http.StatusBadRequest, "EMPTY_CONTENT", "Content must not be empty")
	case errors.Is(err, service.ErrContentTooLong):
		h.writeError(w, http.StatusBadRequest, "CONTENT_TOO_LONG", "Content exceeds maximum length")
	case errors.Is(err, service.ErrInvalidBounds):
		h.writeError(w, http.StatusBadRequest, "INVALID_BOUNDS", "Summary length bounds are invalid")
	case errors.Is(err, summarizer.ErrSummarization):
		h.writeError(w, http.StatusBadGateway, "SUMMARIZATION_FAILED", "Summarization failed. The request still counted against your quota.")
	default:
		h.logger.Error("internal_error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// writeError writes an error response.
func (h *SummarizeHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
