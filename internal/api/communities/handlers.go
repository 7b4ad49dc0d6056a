// internal/api/communities/handlers.go
package communities

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/pistareserva/courtbook/internal/api/apiutil"
	"github.com/pistareserva/courtbook/internal/db"
)

var (
	database *db.DB
	initOnce sync.Once
)

func InitHandlers(d *db.DB) {
	if d == nil {
		return
	}
	initOnce.Do(func() {
		database = d
	})
}

// GET /api/v1/households?join_code=...
//
// Used during signup to let a resident pick their household after entering
// the community's join code. Public by necessity: callers have no account
// yet.
func HandleHouseholdsByJoinCode(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if database == nil {
		logger.Error().Msg("Communities handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	joinCode := strings.TrimSpace(r.URL.Query().Get("join_code"))
	if joinCode == "" {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid_query", "join_code is required")
		return
	}

	community, err := database.Queries.GetCommunityByJoinCode(r.Context(), joinCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "not_found", "unknown join code")
			return
		}
		logger.Error().Err(err).Msg("Failed to look up community by join code")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	households, err := database.Queries.ListHouseholdsByJoinCode(r.Context(), joinCode)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list households")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	type household struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	results := make([]household, len(households))
	for i, h := range households {
		results[i] = household{ID: h.ID, Name: h.Name}
	}

	apiutil.WriteJSON(w, http.StatusOK, map[string]any{
		"community_id":   community.ID,
		"community_name": community.Name,
		"households":     results,
	})
}

// GET /api/v1/communities/{id}/courts
func HandleListCourts(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if database == nil {
		logger.Error().Msg("Communities handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if _, ok := apiutil.RequireUser(w, r); !ok {
		return
	}

	communityID, err := apiutil.ParsePositiveInt64Field(r.PathValue("id"), "id")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid_path", err.Error())
		return
	}

	courts, err := database.Queries.ListCourtsByCommunity(r.Context(), communityID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list courts")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	type court struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	results := make([]court, len(courts))
	for i, c := range courts {
		results[i] = court{ID: c.ID, Name: c.Name}
	}
	apiutil.WriteJSON(w, http.StatusOK, map[string]any{"courts": results})
}

// GET /api/v1/courts/{id}/timeslots
func HandleListTimeSlots(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if database == nil {
		logger.Error().Msg("Communities handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if _, ok := apiutil.RequireUser(w, r); !ok {
		return
	}

	courtID, err := apiutil.ParsePositiveInt64Field(r.PathValue("id"), "id")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid_path", err.Error())
		return
	}

	slots, err := database.Queries.ListTimeSlotsByCourt(r.Context(), courtID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list time slots")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	type slot struct {
		ID        int64  `json:"id"`
		Label     string `json:"label"`
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
	}
	results := make([]slot, len(slots))
	for i, s := range slots {
		results[i] = slot{ID: s.ID, Label: s.Label, StartTime: s.StartTime, EndTime: s.EndTime}
	}
	apiutil.WriteJSON(w, http.StatusOK, map[string]any{"timeslots": results})
}
