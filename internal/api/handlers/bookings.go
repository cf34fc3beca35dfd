package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/rental-sync-manager/backend/internal/api/middleware"
	"github.com/rental-sync-manager/backend/internal/storage"
	"github.com/rental-sync-manager/backend/internal/storage/models"
)

const dateLayout = "2006-01-02"

type CreateBookingRequest struct {
	GuestName string `json:"guest_name"`
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out"`
}

// ListPropertyBookings returns a property's bookings, optionally filtered
// by status.
func ListPropertyBookings(bookings *storage.BookingRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		propertyID := mux.Vars(r)["id"]
		status := r.URL.Query().Get("status")

		list, err := bookings.ListByProperty(r.Context(), propertyID)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query bookings")
			return
		}

		if status != "" {
			filtered := make([]models.Booking, 0, len(list))
			for _, b := range list {
				if b.Status == status {
					filtered = append(filtered, b)
				}
			}
			list = filtered
		}
		if list == nil {
			list = []models.Booking{}
		}

		middleware.WriteJSON(w, http.StatusOK, list)
	}
}

// CreateManualBooking records a direct booking entered by the host. Manual
// bookings participate in conflict detection but are never touched by feed
// reconciliation.
func CreateManualBooking(bookings *storage.BookingRepository, properties *storage.PropertyRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		propertyID := mux.Vars(r)["id"]

		var req CreateBookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		checkIn, err := time.ParseInLocation(dateLayout, req.CheckIn, time.UTC)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "check_in must be a YYYY-MM-DD date")
			return
		}
		checkOut, err := time.ParseInLocation(dateLayout, req.CheckOut, time.UTC)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "check_out must be a YYYY-MM-DD date")
			return
		}
		if !checkIn.Before(checkOut) {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "check_in must be before check_out")
			return
		}
		if req.GuestName == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "guest_name is required")
			return
		}

		property, err := properties.GetByID(r.Context(), propertyID)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query property")
			return
		}
		if property == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Property not found")
			return
		}

		booking := &models.Booking{
			PropertyID: propertyID,
			Platform:   models.PlatformManual,
			GuestName:  req.GuestName,
			CheckIn:    checkIn,
			CheckOut:   checkOut,
			Status:     models.BookingStatusConfirmed,
		}
		if err := bookings.Create(r.Context(), bookings.DB(), booking); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to create booking")
			return
		}

		middleware.WriteJSON(w, http.StatusCreated, booking)
	}
}

// CancelBooking cancels a manual booking. Feed-owned bookings are cancelled
// by their platform, not through the API.
func CancelBooking(bookings *storage.BookingRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		booking, err := bookings.GetByID(r.Context(), id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query booking")
			return
		}
		if booking == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Booking not found")
			return
		}
		if !booking.IsManual() {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Only manual bookings can be cancelled here")
			return
		}

		if err := bookings.UpdateStatus(r.Context(), bookings.DB(), id, models.BookingStatusCancelled); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to cancel booking")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
