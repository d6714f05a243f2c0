package main

import (
	"net/http"

	httphandlers "fintrack/internal/interfaces/http"
	"fintrack/internal/shared/config"
	"fintrack/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", httphandlers.HandleHealth)

	// Sources and their schedules
	mux.HandleFunc("/api/sources/{$}", deps.SourceHandler.HandleSources)
	mux.HandleFunc("/api/sources/{id}", deps.SourceHandler.HandleSourceByID)
	mux.HandleFunc("/api/sources/{id}/obligations", deps.SourceHandler.HandleListObligations)
	mux.HandleFunc("/api/sources/{id}/obligations/generate", deps.SourceHandler.HandleGenerateObligations)

	// Payments
	mux.HandleFunc("/api/sources/{id}/payments", deps.PaymentHandler.HandlePayForPeriod)
	mux.HandleFunc("/api/obligations/{id}/payments", deps.PaymentHandler.HandlePayObligation)

	// Transactions
	mux.HandleFunc("/api/transactions/{$}", deps.TransactionHandler.HandleTransactions)
	mux.HandleFunc("/api/transactions/{id}", deps.TransactionHandler.HandleTransactionByID)

	// Apply global middleware
	handler := middleware.Logging(middleware.CORS(cfg.Server.AllowedOrigins)(mux))
	if cfg.Telemetry.Enabled {
		handler = middleware.Telemetry(cfg.Telemetry.ServiceName)(middleware.Tracing(handler))
	}

	return handler
}
