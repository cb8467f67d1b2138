package analytics

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shoptrack/shoptrack/internal/platform/httpx"
)

// ReconcileEnqueuer defers a summary rebuild to the background worker.
type ReconcileEnqueuer interface {
	EnqueueReconcile(ctx context.Context, tenantID string) error
}

// Handler wires HTTP endpoints for the analytics module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	enqueuer ReconcileEnqueuer
}

// NewHandler constructs analytics handler. A nil enqueuer makes reconcile
// run synchronously inside the request.
func NewHandler(logger *slog.Logger, service *Service, enqueuer ReconcileEnqueuer) *Handler {
	return &Handler{logger: logger, service: service, enqueuer: enqueuer}
}

// MountRoutes registers analytics routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/summary", h.handleSummary)
	r.Post("/reconcile", h.handleReconcile)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	tenantID := httpx.TenantFromContext(r.Context())
	summary, err := h.service.Dashboard(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("dashboard read failed",
			slog.String("tenant_id", tenantID), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) handleReconcile(w http.ResponseWriter, r *http.Request) {
	tenantID := httpx.TenantFromContext(r.Context())

	if h.enqueuer != nil {
		if err := h.enqueuer.EnqueueReconcile(r.Context(), tenantID); err != nil {
			h.logger.Error("enqueue reconcile",
				slog.String("tenant_id", tenantID), slog.Any("error", err))
			httpx.Problem(w, http.StatusServiceUnavailable, "Queue Unavailable", "")
			return
		}
		httpx.JSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
		return
	}

	summary, err := h.service.Reconcile(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("reconcile failed",
			slog.String("tenant_id", tenantID), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}
