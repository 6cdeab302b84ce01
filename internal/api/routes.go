package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Chart routes
	api.HandleFunc("/charts/{symbol}", handler.GetChart).Methods("GET")
	api.HandleFunc("/charts/{symbol}/svg", handler.GetChartSVG).Methods("GET")
	api.HandleFunc("/charts/{symbol}/hit", handler.HitTest).Methods("GET")
	api.HandleFunc("/charts/{symbol}/ws", handler.ChartSession).Methods("GET")

	// Price ingestion
	api.HandleFunc("/prices/{symbol}", handler.IngestPrices).Methods("POST")

	return r
}
