package handlers

import (
	"context"
	"net/http"

	"bloommarbella_api/internal/nieuwkoop/business/services/catalog"
	"bloommarbella_api/internal/nieuwkoop/business/services/realtime"
	"bloommarbella_api/pkg/logger"

	"github.com/gorilla/mux"
)

type PriceStockReader interface {
	GetRealtimePriceStock(ctx context.Context, sku string) (realtime.Entry, error)
	Stats() realtime.Stats
}

type RealtimeHandler struct {
	cache PriceStockReader
	log   logger.Logger
}

func NewRealtimeHandler(cache PriceStockReader, log logger.Logger) *RealtimeHandler {
	return &RealtimeHandler{cache: cache, log: log}
}

func (h *RealtimeHandler) Ping(context.Context) error { return nil }

type realtimeResponse struct {
	SKU string `json:"sku"`
	realtime.Entry
}

func (h *RealtimeHandler) GetRealtimeHandler(w http.ResponseWriter, r *http.Request) {
	sku := mux.Vars(r)["sku"]
	entry, err := h.cache.GetRealtimePriceStock(r.Context(), sku)
	if err != nil {
		if catalog.IsNotFound(err) {
			writeError(w, h.log, http.StatusNotFound, "product not found")
			return
		}
		h.log.Error("Failed to resolve realtime data for %s: %v", sku, err)
		writeError(w, h.log, http.StatusInternalServerError, "Failed to fetch realtime data")
		return
	}
	writeJSON(w, h.log, http.StatusOK, realtimeResponse{SKU: sku, Entry: entry})
}

func (h *RealtimeHandler) GetStatsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.log, http.StatusOK, h.cache.Stats())
}
