package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rental-sync-manager/backend/internal/api/middleware"
	"github.com/rental-sync-manager/backend/internal/storage"
	"github.com/rental-sync-manager/backend/internal/storage/models"
	"github.com/rental-sync-manager/backend/internal/sync"
)

type CreatePropertyRequest struct {
	Name string `json:"name"`
}

// ListProperties returns all properties.
func ListProperties(properties *storage.PropertyRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := properties.List(r.Context())
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query properties")
			return
		}
		if list == nil {
			list = []models.Property{}
		}
		middleware.WriteJSON(w, http.StatusOK, list)
	}
}

// CreateProperty adds a new property.
func CreateProperty(properties *storage.PropertyRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreatePropertyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}
		if req.Name == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Name is required")
			return
		}

		property := &models.Property{Name: req.Name}
		if err := properties.Create(r.Context(), property); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to create property")
			return
		}

		middleware.WriteJSON(w, http.StatusCreated, property)
	}
}

// GetProperty returns a single property by ID.
func GetProperty(properties *storage.PropertyRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		property, err := properties.GetByID(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query property")
			return
		}
		if property == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Property not found")
			return
		}
		middleware.WriteJSON(w, http.StatusOK, property)
	}
}

// TriggerPropertySync runs a full sync pass for a property immediately.
// Returns 409 if a sync for the property is already running.
func TriggerPropertySync(properties *storage.PropertyRepository, scheduler *sync.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		property, err := properties.GetByID(r.Context(), id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query property")
			return
		}
		if property == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Property not found")
			return
		}

		summary, err := scheduler.RunNow(r.Context(), id)
		if errors.Is(err, sync.ErrSyncInProgress) {
			middleware.WriteError(w, http.StatusConflict, middleware.ErrConflict, "A sync for this property is already running")
			return
		}
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Sync failed")
			return
		}

		middleware.WriteJSON(w, http.StatusOK, summary)
	}
}
