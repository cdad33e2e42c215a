package handler

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	apimw "github.com/subwatch/reminder-dispatch/internal/api/middleware"
	"github.com/subwatch/reminder-dispatch/internal/domain"
)

// ServiceName identifies this process in health payloads.
const ServiceName = "reminder-dispatch"

// Runner is the slice of the dispatch service the handler needs.
type Runner interface {
	RunAll(ctx context.Context) (domain.DispatchResult, error)
}

// DispatchHandler exposes the batch trigger endpoint. POST runs the
// batch; GET on the same route answers with a static health payload so
// external cron services can probe the URL they are configured with.
type DispatchHandler struct {
	runner Runner
	secret string
	logger *zap.Logger
}

func NewDispatchHandler(runner Runner, secret string, logger *zap.Logger) *DispatchHandler {
	return &DispatchHandler{runner: runner, secret: secret, logger: logger}
}

type dispatchResponse struct {
	Success   bool                  `json:"success"`
	Timestamp string                `json:"timestamp"`
	Results   domain.DispatchResult `json:"results"`
}

type dispatchErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Trigger handles POST /api/notifications/dispatch.
//
// Authentication compares a bearer-style shared secret; the check is
// skipped entirely when no secret is configured (local development).
func (h *DispatchHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		respondJSON(w, http.StatusUnauthorized, dispatchErrorResponse{
			Success: false,
			Error:   domain.ErrUnauthorized.Error(),
		})
		return
	}

	result, err := h.runner.RunAll(r.Context())
	if err != nil {
		h.logger.Error("dispatch run failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		respondJSON(w, http.StatusInternalServerError, dispatchErrorResponse{
			Success: false,
			Error:   "dispatch run failed",
			Details: err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, dispatchResponse{
		Success:   true,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Results:   result,
	})
}

// Health handles GET on the dispatch route and GET /health.
func (h *DispatchHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   ServiceName,
	})
}

func (h *DispatchHandler) authorized(r *http.Request) bool {
	if h.secret == "" {
		return true
	}
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) == 1
}
