package web

import (
	"context"
	"fmt"
	"net/http"

	"bloommarbella_api/internal/nieuwkoop/app/web/handlers"
	"bloommarbella_api/metrics"
	"bloommarbella_api/pkg/logger"
	"bloommarbella_api/pkg/middleware"

	"github.com/gorilla/mux"
)

// SetupRoutes собирает роутер из переданных обработчиков.
// ProductHandler обязателен, остальные подключаются при наличии.
func SetupRoutes(ctx context.Context, log logger.Logger, hs ...handlers.Handler) (*mux.Router, error) {
	var (
		productHandler  *handlers.ProductHandler
		realtimeHandler *handlers.RealtimeHandler
		syncHandler     *handlers.SyncHandler
		healthHandler   *handlers.HealthHandler
	)
	for _, handler := range hs {
		switch h := handler.(type) {
		case *handlers.ProductHandler:
			productHandler = h
		case *handlers.RealtimeHandler:
			realtimeHandler = h
		case *handlers.SyncHandler:
			syncHandler = h
		case *handlers.HealthHandler:
			healthHandler = h
		default:
			log.Warn("Unknown handler type: %T", h)
		}
	}

	if productHandler == nil {
		return nil, fmt.Errorf("ProductHandler not provided")
	}
	for _, handler := range hs {
		if err := handler.Ping(ctx); err != nil {
			return nil, fmt.Errorf("handler %T is not ready: %w", handler, err)
		}
	}

	router := mux.NewRouter()
	router.Use(middleware.PrometheusMiddleware)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/products", productHandler.GetProductsHandler).Methods(http.MethodGet)
	api.HandleFunc("/products/filters", productHandler.GetFiltersHandler).Methods(http.MethodGet)
	api.HandleFunc("/products/{slug}", productHandler.GetProductBySlugHandler).Methods(http.MethodGet)

	if realtimeHandler != nil {
		api.HandleFunc("/realtime/stats", realtimeHandler.GetStatsHandler).Methods(http.MethodGet)
		api.HandleFunc("/realtime/{sku}", realtimeHandler.GetRealtimeHandler).Methods(http.MethodGet)
	}
	if syncHandler != nil {
		api.HandleFunc("/admin/sync", syncHandler.TriggerSyncHandler).Methods(http.MethodPost)
		api.HandleFunc("/admin/sync/status", syncHandler.GetSyncStatusHandler).Methods(http.MethodGet)
	}
	if healthHandler != nil {
		router.HandleFunc("/healthz", healthHandler.HealthHandler).Methods(http.MethodGet)
	}
	router.Handle("/metrics", metrics.MetricsHandler()).Methods(http.MethodGet)

	return router, nil
}
