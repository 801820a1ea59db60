package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/dcwatch/dcwatch/internal/api/handlers"
	"github.com/dcwatch/dcwatch/internal/api/ws"
	"github.com/dcwatch/dcwatch/pkg/logger"
)

// Handlers bundles every endpoint group the router mounts.
type Handlers struct {
	Trades    *handlers.TradesHandler
	Analytics *handlers.AnalyticsHandler
	Backtest  *handlers.BacktestHandler
	Runs      *handlers.RunsHandler
}

// NewRouter creates and configures the HTTP router. The hub may be nil
// when the WebSocket channel is not wired (tests, one-shot commands).
func NewRouter(h Handlers, hub *ws.Hub, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// API v1
	api := r.PathPrefix("/api/v1").Subrouter()

	// Trades
	api.HandleFunc("/trades", h.Trades.List).Methods("GET")
	api.HandleFunc("/trades/latest", h.Trades.Latest).Methods("GET")

	// Derived datasets
	api.HandleFunc("/leaderboard", h.Analytics.Leaderboard).Methods("GET")
	api.HandleFunc("/signals", h.Analytics.Signals).Methods("GET")
	api.HandleFunc("/top-picks", h.Analytics.TopPicks).Methods("GET")
	api.HandleFunc("/committee", h.Analytics.Committee).Methods("GET")
	api.HandleFunc("/committee/summary", h.Analytics.CommitteeSummary).Methods("GET")
	api.HandleFunc("/backtest", h.Backtest.Latest).Methods("GET")

	// Operational
	api.HandleFunc("/runs", h.Runs.List).Methods("GET")
	api.HandleFunc("/stats", h.Runs.Stats).Methods("GET")

	// Run-completed broadcasts
	if hub != nil {
		api.HandleFunc("/ws", hub.Handle).Methods("GET")
	}

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "dcwatch-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
