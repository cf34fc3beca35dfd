// Package handlers provides HTTP request handlers for the API endpoints.
package handlers

import (
	"net/http"

	"github.com/rental-sync-manager/backend/internal/api/middleware"
	"github.com/rental-sync-manager/backend/internal/events"
	"github.com/rental-sync-manager/backend/internal/storage"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status      string `json:"status"`
	DBConnected bool   `json:"db_connected"`
}

// HealthCheck returns a handler that performs a health check.
func HealthCheck(db *storage.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbConnected := db.Ping() == nil

		status := "healthy"
		code := http.StatusOK
		if !dbConnected {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		middleware.WriteJSON(w, code, HealthResponse{
			Status:      status,
			DBConnected: dbConnected,
		})
	}
}

// StatusResponse represents the system status response.
type StatusResponse struct {
	Properties          int `json:"properties"`
	CalendarSources     int `json:"calendar_sources"`
	ConfirmedBookings   int `json:"confirmed_bookings"`
	UnresolvedConflicts int `json:"unresolved_conflicts"`
	PendingActions      int `json:"pending_actions"`
	ConnectedClients    int `json:"connected_clients"`
}

// Status returns a handler that provides system status information.
func Status(db *storage.DB, hub *events.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var response StatusResponse

		db.GetContext(ctx, &response.Properties, "SELECT COUNT(*) FROM properties")
		db.GetContext(ctx, &response.CalendarSources, "SELECT COUNT(*) FROM calendar_sources")
		db.GetContext(ctx, &response.ConfirmedBookings, "SELECT COUNT(*) FROM bookings WHERE status = 'confirmed'")
		db.GetContext(ctx, &response.UnresolvedConflicts, "SELECT COUNT(*) FROM booking_conflicts WHERE resolved = 0")
		db.GetContext(ctx, &response.PendingActions, "SELECT COUNT(*) FROM sync_actions WHERE status = 'pending'")

		if hub != nil {
			response.ConnectedClients = hub.ClientCount()
		}

		middleware.WriteJSON(w, http.StatusOK, response)
	}
}
