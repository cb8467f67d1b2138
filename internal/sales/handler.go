package sales

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/shoptrack/shoptrack/internal/platform/db"
	"github.com/shoptrack/shoptrack/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the sales module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs sales handler.
func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate) *Handler {
	return &Handler{logger: logger, service: service, validate: validate}
}

// MountRoutes registers sales routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleRecord)
	r.Delete("/", h.handleClear)
}

type salePage struct {
	Sales      []Sale `json:"sales"`
	NextCursor string `json:"nextCursor,omitempty"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	tenantID := httpx.TenantFromContext(r.Context())
	q := r.URL.Query()
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	sales, next, err := h.service.ListPage(r.Context(), tenantID, pageSize, q.Get("cursor"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	if sales == nil {
		sales = []Sale{}
	}
	httpx.JSON(w, http.StatusOK, salePage{Sales: sales, NextCursor: next})
}

func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	tenantID := httpx.TenantFromContext(r.Context())
	var req RecordSaleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Request", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	sale, err := h.service.RecordSale(r.Context(), tenantID, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sale)
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	tenantID := httpx.TenantFromContext(r.Context())
	if err := h.service.ClearSales(r.Context(), tenantID); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var vErr ValidationError
	var stockErr InsufficientStockError
	switch {
	case errors.As(err, &vErr):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", vErr.Error())
	case errors.As(err, &stockErr):
		httpx.JSON(w, http.StatusUnprocessableEntity, struct {
			httpx.ProblemDetail
			ProductID string `json:"productId"`
			Available int64  `json:"available"`
			Requested int64  `json:"requested"`
		}{
			ProblemDetail: httpx.ProblemDetail{
				Title:  "Insufficient Stock",
				Status: http.StatusUnprocessableEntity,
				Detail: stockErr.Error(),
			},
			ProductID: stockErr.ProductID,
			Available: stockErr.Available,
			Requested: stockErr.Requested,
		})
	case errors.Is(err, db.ErrTxConflict):
		httpx.Problem(w, http.StatusConflict, "Transaction Conflict", "concurrent modification, retry the request")
	case httpx.Mapped(err):
		httpx.RespondError(w, err)
	default:
		h.logger.Error("sales request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
