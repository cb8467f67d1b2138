package catalog

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

// Handler wires HTTP endpoints for the catalog module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs catalog handler.
func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate) *Handler {
	return &Handler{logger: logger, service: service, validate: validate}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleAdd)
	r.Get("/low-stock", h.handleLowStock)
	r.Get("/export.csv", h.handleExport)
	r.Post("/import", h.handleImport)
	r.Get("/{productID}", h.handleGet)
	r.Put("/{productID}", h.handleUpdate)
	r.Delete("/{productID}", h.handleDelete)
}

type productPage struct {
	Products   []Product `json:"products"`
	NextCursor string    `json:"nextCursor,omitempty"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	tenantID := httpx.TenantFromContext(r.Context())
	q := r.URL.Query()
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	products, next, err := h.service.ListPage(r.Context(), tenantID, pageSize, q.Get("cursor"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	if products == nil {
		products = []Product{}
	}
	httpx.JSON(w, http.StatusOK, productPage{Products: products, NextCursor: next})
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	tenantID := httpx.TenantFromContext(r.Context())
	var input ProductInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Request", err.Error())
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	product, err := h.service.AddProduct(r.Context(), tenantID, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, product)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	tenantID := httpx.TenantFromContext(r.Context())
	product, err := h.service.GetProduct(r.Context(), tenantID, chi.URLParam(r, "productID"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	tenantID := httpx.TenantFromContext(r.Context())
	var input ProductInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Request", err.Error())
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), tenantID, chi.URLParam(r, "productID"), input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	tenantID := httpx.TenantFromContext(r.Context())
	if err := h.service.DeleteProduct(r.Context(), tenantID, chi.URLParam(r, "productID")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleLowStock(w http.ResponseWriter, r *http.Request) {
	tenantID := httpx.TenantFromContext(r.Context())
	products, err := h.service.ListLowStock(r.Context(), tenantID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if products == nil {
		products = []Product{}
	}
	httpx.JSON(w, http.StatusOK, products)
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	tenantID := httpx.TenantFromContext(r.Context())
	inputs, err := ParseCSV(r.Body)
	if err != nil {
		h.respondError(w, err)
		return
	}

	products, err := h.service.BulkImport(r.Context(), tenantID, inputs)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]int{"imported": len(products)})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	tenantID := httpx.TenantFromContext(r.Context())
	products, err := h.service.ListAll(r.Context(), tenantID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="inventory.csv"`)
	if err := WriteCSV(w, products); err != nil {
		h.logger.Error("write csv export", slog.Any("error", err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var vErr ValidationError
	switch {
	case errors.As(err, &vErr):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", vErr.Error())
	case errors.Is(err, db.ErrTxConflict):
		httpx.Problem(w, http.StatusConflict, "Transaction Conflict", "concurrent modification, retry the request")
	case httpx.Mapped(err):
		httpx.RespondError(w, err)
	default:
		h.logger.Error("catalog request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
