// internal/api/statsapi/handlers.go
package statsapi

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pistareserva/courtbook/internal/api/apiutil"
	"github.com/pistareserva/courtbook/internal/db"
	"github.com/pistareserva/courtbook/internal/stats"
)

// defaultRangeDays is the report window used when the caller does not
// provide one.
const defaultRangeDays = 30

// defaultLastMinuteHours matches the cutoff the facility treats as a
// last-minute cancellation.
const defaultLastMinuteHours = 24.0

var (
	service  *stats.Service
	initOnce sync.Once
)

func InitHandlers(s *stats.Service) {
	if s == nil {
		return
	}
	initOnce.Do(func() {
		service = s
	})
}

// GET /api/v1/stats/summary?from=YYYY-MM-DD&to=YYYY-MM-DD
//
// Staff only. Returns the full reporting bundle for the range in one call.
func HandleSummary(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if service == nil {
		logger.Error().Msg("Stats service not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if _, ok := apiutil.RequireStaff(w, r); !ok {
		return
	}

	rng, err := parseRange(r)
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}
	limit := parseLimit(r)

	ctx := r.Context()
	occupancy, err := service.OccupancyByCourt(ctx, rng)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to compute court occupancy")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	cancellations, err := service.Cancellations(ctx, rng)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to compute cancellation rate")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	lastMinute, err := service.LastMinute(ctx, rng, defaultLastMinuteHours)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to compute last-minute cancellations")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	invitationKPIs, err := service.Invitations(ctx, rng)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to compute invitation figures")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	topUsers, err := service.TopUsers(ctx, rng, limit)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to compute top users")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	popularSlots, err := service.PopularSlots(ctx, rng)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to compute popular slots")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	leadDays, err := service.AverageLeadDays(ctx, rng)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to compute booking lead time")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	apiutil.WriteJSON(w, http.StatusOK, map[string]any{
		"from":             rng.From.Format(db.DateLayout),
		"to":               rng.To.Format(db.DateLayout),
		"occupancy":        occupancy,
		"cancellations":    cancellations,
		"last_minute":      lastMinute,
		"invitations":      invitationKPIs,
		"top_users":        topUsers,
		"popular_slots":    popularSlots,
		"average_lead_days": leadDays,
	})
}

// GET /api/v1/stats/occupancy
func HandleOccupancy(w http.ResponseWriter, r *http.Request) {
	handleRangeReport(w, r, func(rng stats.Range) (any, error) {
		occupancy, err := service.OccupancyByCourt(r.Context(), rng)
		return map[string]any{"occupancy": occupancy}, err
	})
}

// GET /api/v1/stats/cancellations
func HandleCancellations(w http.ResponseWriter, r *http.Request) {
	handleRangeReport(w, r, func(rng stats.Range) (any, error) {
		rate, err := service.Cancellations(r.Context(), rng)
		if err != nil {
			return nil, err
		}
		lastMinute, err := service.LastMinute(r.Context(), rng, defaultLastMinuteHours)
		if err != nil {
			return nil, err
		}
		return map[string]any{"cancellations": rate, "last_minute": lastMinute}, nil
	})
}

// GET /api/v1/stats/top-users
func HandleTopUsers(w http.ResponseWriter, r *http.Request) {
	handleRangeReport(w, r, func(rng stats.Range) (any, error) {
		users, err := service.TopUsers(r.Context(), rng, parseLimit(r))
		return map[string]any{"top_users": users}, err
	})
}

func handleRangeReport(w http.ResponseWriter, r *http.Request, report func(stats.Range) (any, error)) {
	logger := log.Ctx(r.Context())
	if service == nil {
		logger.Error().Msg("Stats service not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if _, ok := apiutil.RequireStaff(w, r); !ok {
		return
	}

	rng, err := parseRange(r)
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}

	body, err := report(rng)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to compute report")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, body)
}

// parseRange reads from/to query params, defaulting to the trailing
// defaultRangeDays window ending today.
func parseRange(r *http.Request) (stats.Range, error) {
	now := time.Now()
	rng := stats.Range{
		From: now.AddDate(0, 0, -(defaultRangeDays - 1)),
		To:   now,
	}

	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err := apiutil.ParseDateField(raw, "from")
		if err != nil {
			return stats.Range{}, err
		}
		rng.From = from
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		to, err := apiutil.ParseDateField(raw, "to")
		if err != nil {
			return stats.Range{}, err
		}
		rng.To = to
	}
	if rng.To.Before(rng.From) {
		return stats.Range{}, apiutil.FieldError{Field: "to", Reason: "must not precede from"}
	}
	return rng, nil
}

func parseLimit(r *http.Request) int64 {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}
