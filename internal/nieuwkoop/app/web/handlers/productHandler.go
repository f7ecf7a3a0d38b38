package handlers

import (
	"context"
	"errors"
	"net/http"

	"bloommarbella_api/internal/nieuwkoop/business/models"
	"bloommarbella_api/internal/nieuwkoop/business/services/catalog"
	"bloommarbella_api/pkg/logger"

	"github.com/gorilla/mux"
)

type CatalogService interface {
	GetProductsWithRealtimeData(ctx context.Context, filter models.CatalogFilter) (models.ProductPage, error)
	GetFilterCounts(ctx context.Context, filter models.CatalogFilter) (models.FilterCounts, error)
	GetProductBySlug(ctx context.Context, slug, role string) (models.CatalogProduct, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type ProductHandler struct {
	catalog CatalogService
	db      Pinger
	log     logger.Logger
}

func NewProductHandler(catalog CatalogService, db Pinger, log logger.Logger) *ProductHandler {
	return &ProductHandler{catalog: catalog, db: db, log: log}
}

func (h *ProductHandler) Ping(ctx context.Context) error {
	if h.db == nil {
		return nil
	}
	return h.db.Ping(ctx)
}

func (h *ProductHandler) GetProductsHandler(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, h.log, http.StatusBadRequest, err.Error())
		return
	}
	filter.Role = r.Header.Get(RoleHeader)

	page, err := h.catalog.GetProductsWithRealtimeData(r.Context(), filter)
	if err != nil {
		h.fail(w, err, "Failed to fetch products")
		return
	}
	writeJSON(w, h.log, http.StatusOK, page)
}

func (h *ProductHandler) GetFiltersHandler(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, h.log, http.StatusBadRequest, err.Error())
		return
	}
	filter.Role = r.Header.Get(RoleHeader)

	counts, err := h.catalog.GetFilterCounts(r.Context(), filter)
	if err != nil {
		h.fail(w, err, "Failed to fetch filter counts")
		return
	}
	writeJSON(w, h.log, http.StatusOK, counts)
}

func (h *ProductHandler) GetProductBySlugHandler(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]
	product, err := h.catalog.GetProductBySlug(r.Context(), slug, r.Header.Get(RoleHeader))
	if err != nil {
		h.fail(w, err, "Failed to fetch product")
		return
	}
	writeJSON(w, h.log, http.StatusOK, product)
}

func (h *ProductHandler) fail(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, models.ErrInvalidFilter):
		writeError(w, h.log, http.StatusBadRequest, err.Error())
	case catalog.IsNotFound(err):
		writeError(w, h.log, http.StatusNotFound, "product not found")
	default:
		h.log.Error("%s: %v", msg, err)
		writeError(w, h.log, http.StatusInternalServerError, msg)
	}
}
