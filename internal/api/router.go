package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/api/handlers"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/pkg/logger"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(segmentHandler *handlers.SegmentHandler, opportunityHandler *handlers.OpportunityHandler, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// API v1
	api := r.PathPrefix("/api").Subrouter()

	// Segment endpoints
	api.HandleFunc("/segments", segmentHandler.List).Methods("GET")
	api.HandleFunc("/segments/{id:[0-9]+}", segmentHandler.Get).Methods("GET")
	api.HandleFunc("/segments/{id:[0-9]+}/metrics", segmentHandler.Metrics).Methods("GET")
	api.HandleFunc("/segments/{id:[0-9]+}/chart", segmentHandler.Chart).Methods("GET")
	api.HandleFunc("/dashboard", segmentHandler.Dashboard).Methods("GET")

	// Opportunity endpoints
	api.HandleFunc("/opportunities", opportunityHandler.List).Methods("GET")

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
		"service": "oportuna-api",
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
