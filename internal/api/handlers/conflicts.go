package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rental-sync-manager/backend/internal/api/middleware"
	"github.com/rental-sync-manager/backend/internal/storage"
	"github.com/rental-sync-manager/backend/internal/storage/models"
)

type ResolveConflictRequest struct {
	Notes string `json:"notes"`
}

// ListPropertyConflicts returns a property's conflicts. Pass ?unresolved=true
// to restrict to open ones.
func ListPropertyConflicts(conflicts *storage.ConflictRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		propertyID := mux.Vars(r)["id"]

		var list []models.Conflict
		var err error
		if r.URL.Query().Get("unresolved") == "true" {
			list, err = conflicts.ListUnresolvedByProperty(r.Context(), propertyID)
		} else {
			list, err = conflicts.ListByProperty(r.Context(), propertyID)
		}
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query conflicts")
			return
		}
		if list == nil {
			list = []models.Conflict{}
		}

		middleware.WriteJSON(w, http.StatusOK, list)
	}
}

// ConflictSummary returns aggregate unresolved conflict counts for a
// property.
func ConflictSummary(conflicts *storage.ConflictRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := conflicts.Summary(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to summarize conflicts")
			return
		}
		middleware.WriteJSON(w, http.StatusOK, summary)
	}
}

// ResolveConflict marks a conflict as manually resolved.
func ResolveConflict(conflicts *storage.ConflictRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		var req ResolveConflictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}
		if req.Notes == "" {
			req.Notes = "resolved by operator"
		}

		if err := conflicts.Resolve(r.Context(), id, req.Notes); err != nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Unresolved conflict not found")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
