package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/rental-sync-manager/backend/internal/api/middleware"
	"github.com/rental-sync-manager/backend/internal/storage"
	"github.com/rental-sync-manager/backend/internal/storage/models"
)

type CreateSourceRequest struct {
	PropertyID  string `json:"property_id"`
	Platform    string `json:"platform"`
	FeedURL     string `json:"feed_url"`
	SyncEnabled bool   `json:"sync_enabled"`
}

// validateSourceRequest checks platform and feed URL sanity.
func validateSourceRequest(platform, feedURL string) string {
	switch platform {
	case models.PlatformAirbnb, models.PlatformBooking, models.PlatformManual:
	default:
		return "Platform must be one of: airbnb, booking, manual"
	}

	parsed, err := url.Parse(feedURL)
	if err != nil || !strings.HasPrefix(parsed.Scheme, "http") || parsed.Host == "" {
		return "Feed URL must be a valid http(s) URL"
	}
	return ""
}

// ListPropertySources returns a property's calendar sources.
func ListPropertySources(sources *storage.CalendarSourceRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := sources.ListByProperty(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query calendar sources")
			return
		}
		if list == nil {
			list = []models.CalendarSource{}
		}
		middleware.WriteJSON(w, http.StatusOK, list)
	}
}

// CreateSource attaches a new calendar source to a property.
func CreateSource(sources *storage.CalendarSourceRepository, properties *storage.PropertyRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateSourceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		if msg := validateSourceRequest(req.Platform, req.FeedURL); msg != "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, msg)
			return
		}

		property, err := properties.GetByID(r.Context(), req.PropertyID)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query property")
			return
		}
		if property == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Property not found")
			return
		}

		source := &models.CalendarSource{
			PropertyID:  req.PropertyID,
			Platform:    req.Platform,
			FeedURL:     req.FeedURL,
			SyncEnabled: req.SyncEnabled,
		}
		if err := sources.Create(r.Context(), source); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to create calendar source")
			return
		}

		middleware.WriteJSON(w, http.StatusCreated, source)
	}
}

// GetSource returns a single calendar source by ID.
func GetSource(sources *storage.CalendarSourceRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		source, err := sources.GetByID(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query calendar source")
			return
		}
		if source == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Calendar source not found")
			return
		}
		middleware.WriteJSON(w, http.StatusOK, source)
	}
}

// UpdateSource updates an existing calendar source.
func UpdateSource(sources *storage.CalendarSourceRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		var req CreateSourceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		if msg := validateSourceRequest(req.Platform, req.FeedURL); msg != "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, msg)
			return
		}

		source, err := sources.GetByID(r.Context(), id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query calendar source")
			return
		}
		if source == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Calendar source not found")
			return
		}

		source.Platform = req.Platform
		source.FeedURL = req.FeedURL
		source.SyncEnabled = req.SyncEnabled

		if err := sources.Update(r.Context(), source); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to update calendar source")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// DeleteSource removes a calendar source.
func DeleteSource(sources *storage.CalendarSourceRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sources.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Calendar source not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ListSourceLogs returns the recent sync history of a calendar source.
func ListSourceLogs(logs *storage.SyncLogRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		list, err := logs.ListBySource(r.Context(), mux.Vars(r)["id"], limit)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query sync logs")
			return
		}
		if list == nil {
			list = []models.SyncLog{}
		}
		middleware.WriteJSON(w, http.StatusOK, list)
	}
}
