package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/radezheng/marco/internal/api/handlers"
	"github.com/radezheng/marco/pkg/logger"
)

// Handlers bundles the endpoint handlers wired by the router
type Handlers struct {
	Snapshot *handlers.SnapshotHandler
	Series   *handlers.SeriesHandler
	Sector   *handlers.SectorHandler
	Ingest   *handlers.IngestHandler
	Jobs     *handlers.JobsHandler
	Hub      *Hub
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 路由表只在这个函数里
func NewRouter(h Handlers, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// API v1
	api := r.PathPrefix("/api").Subrouter()

	// Macro snapshot + series
	api.HandleFunc("/snapshot", h.Snapshot.Get).Methods("GET")
	api.HandleFunc("/observations/{key}", h.Series.Get).Methods("GET")

	// CN sector rotation
	api.HandleFunc("/sectors/overview", h.Sector.GetOverview).Methods("GET")
	api.HandleFunc("/sectors/matrix", h.Sector.GetMatrix).Methods("GET")
	api.HandleFunc("/sectors/{code}/breadth", h.Sector.GetBreadth).Methods("GET")

	// Pipeline control
	api.HandleFunc("/ingest/run", h.Ingest.Run).Methods("POST")
	api.HandleFunc("/scheduler/jobs", h.Jobs.List).Methods("GET")

	// Realtime push
	api.HandleFunc("/ws", h.Hub.HandleWS).Methods("GET")

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
		"service": "marco-api",
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
