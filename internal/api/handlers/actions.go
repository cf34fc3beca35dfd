package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rental-sync-manager/backend/internal/api/middleware"
	"github.com/rental-sync-manager/backend/internal/storage"
	"github.com/rental-sync-manager/backend/internal/storage/models"
)

type UpdateActionRequest struct {
	Status string `json:"status"`
}

// ListPropertyActions returns a property's sync actions, optionally
// filtered with ?status=pending|completed|dismissed.
func ListPropertyActions(actions *storage.SyncActionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := r.URL.Query().Get("status")
		switch status {
		case "", models.ActionStatusPending, models.ActionStatusCompleted, models.ActionStatusDismissed:
		default:
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Unknown action status")
			return
		}

		list, err := actions.ListByProperty(r.Context(), mux.Vars(r)["id"], status)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query sync actions")
			return
		}
		if list == nil {
			list = []models.SyncAction{}
		}

		middleware.WriteJSON(w, http.StatusOK, list)
	}
}

// UpdateActionStatus marks a sync action completed or dismissed.
func UpdateActionStatus(actions *storage.SyncActionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		var req UpdateActionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}
		if req.Status != models.ActionStatusCompleted && req.Status != models.ActionStatusDismissed {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Status must be completed or dismissed")
			return
		}

		action, err := actions.GetByID(r.Context(), id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query sync action")
			return
		}
		if action == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Sync action not found")
			return
		}
		if action.Status != models.ActionStatusPending {
			middleware.WriteError(w, http.StatusConflict, middleware.ErrConflict, "Only pending actions can be transitioned")
			return
		}

		if err := actions.UpdateStatus(r.Context(), id, req.Status); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to update sync action")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
