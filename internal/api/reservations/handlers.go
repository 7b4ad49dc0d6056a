// internal/api/reservations/handlers.go
package reservations

import (
	"database/sql"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pistareserva/courtbook/internal/api/apiutil"
	"github.com/pistareserva/courtbook/internal/booking"
	"github.com/pistareserva/courtbook/internal/db"
)

var (
	engine   *booking.Engine
	archiver *booking.Archiver
	initOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(e *booking.Engine, a *booking.Archiver) {
	if e == nil || a == nil {
		return
	}
	initOnce.Do(func() {
		engine = e
		archiver = a
	})
}

type createRequest struct {
	CourtID    int64  `json:"court_id"`
	TimeslotID int64  `json:"timeslot_id"`
	Date       string `json:"date"`
}

type reservationResponse struct {
	ID         int64  `json:"id"`
	UserID     int64  `json:"user_id"`
	CourtID    int64  `json:"court_id"`
	TimeslotID int64  `json:"timeslot_id"`
	Date       string `json:"date"`
	CreatedAt  string `json:"created_at"`
}

// POST /api/v1/reservations
func HandleCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if engine == nil {
		logger.Error().Msg("Booking engine not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	user, ok := apiutil.RequireUser(w, r)
	if !ok {
		return
	}

	var req createRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	date, err := apiutil.ParseDateField(req.Date, "date")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	if req.CourtID <= 0 || req.TimeslotID <= 0 {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid_body", "court_id and timeslot_id are required")
		return
	}

	reservation, err := engine.Submit(r.Context(), booking.SubmitParams{
		UserID:     user.ID,
		CourtID:    req.CourtID,
		TimeslotID: req.TimeslotID,
		Date:       date,
	})
	if err != nil {
		writeSubmitError(w, r, err)
		return
	}

	apiutil.WriteJSON(w, http.StatusCreated, toResponse(reservation))
}

// writeSubmitError maps admission outcomes to responses: policy rejections
// carry their code so the client can render an exact message.
func writeSubmitError(w http.ResponseWriter, r *http.Request, err error) {
	if rejection, ok := booking.AsRejection(err); ok {
		status := http.StatusUnprocessableEntity
		switch rejection.Code {
		case booking.RejectSlotAlreadyBooked, booking.RejectHouseholdDailyLimit:
			status = http.StatusConflict
		case booking.RejectMismatchedSlot:
			status = http.StatusBadRequest
		}
		apiutil.WriteError(w, status, string(rejection.Code), rejection.Error())
		return
	}
	if errors.Is(err, sql.ErrNoRows) {
		apiutil.WriteError(w, http.StatusNotFound, "not_found", "court or timeslot not found")
		return
	}
	log.Ctx(r.Context()).Error().Err(err).Msg("Failed to submit reservation")
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// DELETE /api/v1/reservations/{id}
func HandleCancel(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if archiver == nil {
		logger.Error().Msg("Cancellation archiver not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	user, ok := apiutil.RequireUser(w, r)
	if !ok {
		return
	}

	reservationID, err := apiutil.ParsePositiveInt64Field(r.PathValue("id"), "id")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid_path", err.Error())
		return
	}

	if err := archiver.Cancel(r.Context(), reservationID, *user); err != nil {
		if errors.Is(err, booking.ErrForbidden) {
			apiutil.WriteError(w, http.StatusForbidden, "forbidden", "only the owner or staff may cancel")
			return
		}
		logger.Error().Err(err).Int64("reservation_id", reservationID).Msg("Failed to cancel reservation")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/reservations
func HandleListMine(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if engine == nil {
		logger.Error().Msg("Booking engine not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	user, ok := apiutil.RequireUser(w, r)
	if !ok {
		return
	}

	reservations, err := engine.ListUserReservations(r.Context(), user.ID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list reservations")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	results := make([]reservationResponse, len(reservations))
	for i, reservation := range reservations {
		results[i] = toResponse(reservation)
	}
	apiutil.WriteJSON(w, http.StatusOK, map[string]any{"reservations": results})
}

// GET /api/v1/courts/{id}/occupied-slots?date=YYYY-MM-DD
func HandleOccupiedSlots(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if engine == nil {
		logger.Error().Msg("Booking engine not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	courtID, err := apiutil.ParsePositiveInt64Field(r.PathValue("id"), "id")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid_path", err.Error())
		return
	}
	date, err := apiutil.ParseDateField(r.URL.Query().Get("date"), "date")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}

	occupied, err := engine.ListOccupiedSlots(r.Context(), courtID, date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "not_found", "court not found")
			return
		}
		logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to list occupied slots")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if occupied == nil {
		occupied = []int64{}
	}

	apiutil.WriteJSON(w, http.StatusOK, map[string]any{"timeslot_ids": occupied})
}

// GET /api/v1/cancelled-reservations
func HandleListCancelled(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if archiver == nil {
		logger.Error().Msg("Cancellation archiver not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if _, ok := apiutil.RequireStaff(w, r); !ok {
		return
	}

	archive, err := archiver.Archive(r.Context())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list cancellation archive")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	type cancelledResponse struct {
		ID          int64  `json:"id"`
		UserID      int64  `json:"user_id"`
		CourtID     int64  `json:"court_id"`
		TimeslotID  int64  `json:"timeslot_id"`
		Date        string `json:"date"`
		CreatedAt   string `json:"created_at"`
		CancelledAt string `json:"cancelled_at"`
	}
	results := make([]cancelledResponse, len(archive))
	for i, rc := range archive {
		results[i] = cancelledResponse{
			ID:          rc.ID,
			UserID:      rc.UserID,
			CourtID:     rc.CourtID,
			TimeslotID:  rc.TimeslotID,
			Date:        rc.Date,
			CreatedAt:   rc.CreatedAt.UTC().Format(time.RFC3339),
			CancelledAt: rc.CancelledAt.UTC().Format(time.RFC3339),
		}
	}
	apiutil.WriteJSON(w, http.StatusOK, map[string]any{"cancelled": results})
}

func toResponse(reservation db.Reservation) reservationResponse {
	return reservationResponse{
		ID:         reservation.ID,
		UserID:     reservation.UserID,
		CourtID:    reservation.CourtID,
		TimeslotID: reservation.TimeslotID,
		Date:       reservation.Date,
		CreatedAt:  reservation.CreatedAt.UTC().Format(time.RFC3339),
	}
}
