// Package api provides HTTP routing and handlers for the REST API.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rental-sync-manager/backend/internal/api/handlers"
	"github.com/rental-sync-manager/backend/internal/api/middleware"
	"github.com/rental-sync-manager/backend/internal/events"
	"github.com/rental-sync-manager/backend/internal/metrics"
	"github.com/rental-sync-manager/backend/internal/storage"
	"github.com/rental-sync-manager/backend/internal/sync"
)

// Repositories bundles the data access objects the API serves from.
type Repositories struct {
	Properties *storage.PropertyRepository
	Sources    *storage.CalendarSourceRepository
	Bookings   *storage.BookingRepository
	Conflicts  *storage.ConflictRepository
	Actions    *storage.SyncActionRepository
	Logs       *storage.SyncLogRepository
}

// NewRouter creates and configures the HTTP router with all API routes.
func NewRouter(db *storage.DB, repos Repositories, hub *events.Hub, scheduler *sync.Scheduler, staticDir string) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.Logging)
	r.Use(middleware.ErrorRecovery)

	r.Handle("/metrics", metrics.Handler()).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Health and status endpoints
	api.HandleFunc("/health", handlers.HealthCheck(db)).Methods("GET")
	api.HandleFunc("/status", handlers.Status(db, hub)).Methods("GET")

	// WebSocket endpoint
	api.HandleFunc("/ws", handlers.WebSocketUpgrade(hub)).Methods("GET")

	// Property endpoints
	api.HandleFunc("/properties", handlers.ListProperties(repos.Properties)).Methods("GET")
	api.HandleFunc("/properties", handlers.CreateProperty(repos.Properties)).Methods("POST")
	api.HandleFunc("/properties/{id}", handlers.GetProperty(repos.Properties)).Methods("GET")
	api.HandleFunc("/properties/{id}/sync", handlers.TriggerPropertySync(repos.Properties, scheduler)).Methods("POST")

	// Calendar source endpoints
	api.HandleFunc("/properties/{id}/sources", handlers.ListPropertySources(repos.Sources)).Methods("GET")
	api.HandleFunc("/sources", handlers.CreateSource(repos.Sources, repos.Properties)).Methods("POST")
	api.HandleFunc("/sources/{id}", handlers.GetSource(repos.Sources)).Methods("GET")
	api.HandleFunc("/sources/{id}", handlers.UpdateSource(repos.Sources)).Methods("PUT")
	api.HandleFunc("/sources/{id}", handlers.DeleteSource(repos.Sources)).Methods("DELETE")
	api.HandleFunc("/sources/{id}/logs", handlers.ListSourceLogs(repos.Logs)).Methods("GET")

	// Booking endpoints
	api.HandleFunc("/properties/{id}/bookings", handlers.ListPropertyBookings(repos.Bookings)).Methods("GET")
	api.HandleFunc("/properties/{id}/bookings", handlers.CreateManualBooking(repos.Bookings, repos.Properties)).Methods("POST")
	api.HandleFunc("/bookings/{id}/cancel", handlers.CancelBooking(repos.Bookings)).Methods("POST")

	// Conflict endpoints
	api.HandleFunc("/properties/{id}/conflicts", handlers.ListPropertyConflicts(repos.Conflicts)).Methods("GET")
	api.HandleFunc("/properties/{id}/conflicts/summary", handlers.ConflictSummary(repos.Conflicts)).Methods("GET")
	api.HandleFunc("/conflicts/{id}/resolve", handlers.ResolveConflict(repos.Conflicts)).Methods("POST")

	// Sync action endpoints
	api.HandleFunc("/properties/{id}/actions", handlers.ListPropertyActions(repos.Actions)).Methods("GET")
	api.HandleFunc("/actions/{id}/status", handlers.UpdateActionStatus(repos.Actions)).Methods("PUT")

	// Serve static frontend files
	r.PathPrefix("/").Handler(http.FileServer(http.Dir(staticDir)))

	return r
}
