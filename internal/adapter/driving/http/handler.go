package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ericfisherdev/assetsync/internal/application"
	"github.com/ericfisherdev/assetsync/internal/domain/model"
	"github.com/ericfisherdev/assetsync/internal/domain/port/driven"
)

const (
	maxWebhookBody  = 5 << 20
	defaultRunLimit = 50
	maxRunLimit     = 500
	eventHeader     = "X-GitHub-Event"
)

// PushSyncer applies a verified push notification.
type PushSyncer interface {
	SyncPush(ctx context.Context, event model.PushEvent) (model.SyncReport, error)
}

// Handler is the HTTP driving adapter that serves the trigger endpoints and
// the read-only API.
type Handler struct {
	signature *application.SignatureVerifier
	bearer    *application.BearerVerifier
	syncer    PushSyncer
	sweeper   application.Sweeper
	runStore  driven.SyncRunStore
	metrics   http.Handler
	logger    *slog.Logger
}

// NewHandler creates a Handler with all required dependencies. metrics may
// be nil, in which case /metrics is not served.
func NewHandler(
	signature *application.SignatureVerifier,
	bearer *application.BearerVerifier,
	syncer PushSyncer,
	sweeper application.Sweeper,
	runStore driven.SyncRunStore,
	metrics http.Handler,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		signature: signature,
		bearer:    bearer,
		syncer:    syncer,
		sweeper:   sweeper,
		runStore:  runStore,
		metrics:   metrics,
		logger:    logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /refresh-from-webhook", h.RefreshFromWebhook)
	mux.HandleFunc("GET /refresh-from-compare", h.RefreshFromCompare)
	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("GET /api/v1/sync/runs", h.ListSyncRuns)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics)
	}

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// RefreshFromWebhook verifies a signed push notification and applies it.
func (h *Handler) RefreshFromWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		h.logger.Error("failed to read webhook body", "error", err)
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	if err := h.signature.Verify(body, r.Header.Get(application.SignatureHeader)); err != nil {
		h.logger.Warn("rejecting webhook", "reason", err)
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	switch event := r.Header.Get(eventHeader); event {
	case "", "push":
	case "ping":
		writeJSON(w, http.StatusOK, SyncReportResponse{Status: "pong", Message: "pong"})
		return
	default:
		h.logger.Info("ignoring webhook event", "event", event)
		writeJSON(w, http.StatusOK, SyncReportResponse{
			Status:  string(model.RunNoop),
			Message: "Event " + event + " is not synced",
		})
		return
	}

	var payload pushPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.logger.Warn("failed to parse webhook payload", "error", err)
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	// The pass runs to completion even if the sender hangs up.
	report, err := h.syncer.SyncPush(context.WithoutCancel(r.Context()), payload.toModel())
	if err != nil {
		if isClientError(err) {
			h.logger.Warn("rejecting push", "repo", payload.Repository.FullName, "error", err)
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("push sync failed", "repo", payload.Repository.FullName, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toSyncReportResponse(report))
}

// RefreshFromCompare runs a compare sweep over the whole catalog.
func (h *Handler) RefreshFromCompare(w http.ResponseWriter, r *http.Request) {
	if err := h.bearer.Verify(r.Header.Get("Authorization")); err != nil {
		h.logger.Warn("rejecting compare trigger", "reason", err)
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	reports := h.sweeper.SweepCompare(r.Context())

	resp := make([]SyncReportResponse, 0, len(reports))
	for _, report := range reports {
		resp = append(resp, toSyncReportResponse(report))
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListSyncRuns returns the most recent synchronization passes, newest first.
func (h *Handler) ListSyncRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxRunLimit)
	}

	runs, err := h.runStore.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list sync runs", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]SyncRunResponse, 0, len(runs))
	for _, run := range runs {
		resp = append(resp, toSyncRunResponse(run))
	}

	writeJSON(w, http.StatusOK, resp)
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// isClientError reports whether a sync error means the request itself
// cannot be served: malformed payload or a repository outside the catalog.
func isClientError(err error) bool {
	return errors.Is(err, application.ErrMalformedPayload) ||
		errors.Is(err, application.ErrMissingRepository) ||
		errors.Is(err, model.ErrUnknownRepository) ||
		errors.Is(err, model.ErrMissingDestination)
}
