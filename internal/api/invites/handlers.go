// internal/api/invites/handlers.go
package invites

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/pistareserva/courtbook/internal/api/apiutil"
	"github.com/pistareserva/courtbook/internal/invitations"
	"github.com/pistareserva/courtbook/internal/ratelimit"
)

var (
	manager  *invitations.Manager
	limiter  *ratelimit.Limiter
	initOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(m *invitations.Manager, l *ratelimit.Limiter) {
	if m == nil {
		return
	}
	initOnce.Do(func() {
		manager = m
		limiter = l
	})
}

// inviteRequest tolerates both the structured guest list and the legacy
// parallel email/name lists some clients still send. It is normalized into
// canonical entries before reaching the manager.
type inviteRequest struct {
	Guests []guestPayload `json:"guests"`
	Emails []string       `json:"emails"`
	Names  []string       `json:"names"`
}

type guestPayload struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (req inviteRequest) entries() []invitations.GuestEntry {
	entries := make([]invitations.GuestEntry, 0, len(req.Guests)+len(req.Emails))
	for _, guest := range req.Guests {
		entries = append(entries, invitations.GuestEntry{Email: guest.Email, Name: guest.Name})
	}
	for i, email := range req.Emails {
		entry := invitations.GuestEntry{Email: email}
		if i < len(req.Names) {
			entry.Name = req.Names[i]
		}
		entries = append(entries, entry)
	}
	return entries
}

type entryResult struct {
	Email   string `json:"email"`
	Outcome string `json:"outcome"`
	Reason  string `json:"reason,omitempty"`
}

// POST /api/v1/reservations/{id}/invitations
func HandleInvite(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if manager == nil {
		logger.Error().Msg("Invitation manager not initialized")
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

	var req inviteRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	entries := req.entries()
	if len(entries) == 0 {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid_body", "at least one guest is required")
		return
	}

	result, err := manager.Invite(r.Context(), reservationID, *user, entries)
	if err != nil {
		var limitErr *invitations.GuestLimitError
		switch {
		case errors.As(err, &limitErr):
			apiutil.WriteError(w, http.StatusConflict, "guest_limit_exceeded", limitErr.Error())
		case errors.Is(err, invitations.ErrForbidden):
			apiutil.WriteError(w, http.StatusForbidden, "forbidden", "only the reservation owner may invite")
		default:
			logger.Error().Err(err).Int64("reservation_id", reservationID).Msg("Failed to process invite batch")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}

	results := make([]entryResult, len(result.Entries))
	for i, entry := range result.Entries {
		results[i] = entryResult{Email: entry.Email, Outcome: string(entry.Outcome), Reason: entry.Reason}
	}
	apiutil.WriteJSON(w, http.StatusOK, map[string]any{"results": results})
}

// GET /api/v1/invitations/{token}/accept
func HandleAccept(w http.ResponseWriter, r *http.Request) {
	handleRespond(w, r, true)
}

// GET /api/v1/invitations/{token}/reject
func HandleReject(w http.ResponseWriter, r *http.Request) {
	handleRespond(w, r, false)
}

// handleRespond is deliberately unauthenticated: token possession is the
// credential. Attempts are rate limited per client to slow token guessing.
func handleRespond(w http.ResponseWriter, r *http.Request, accept bool) {
	logger := log.Ctx(r.Context())
	if manager == nil {
		logger.Error().Msg("Invitation manager not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if limiter != nil {
		if result := limiter.Allow(clientIP(r)); !result.Allowed {
			logger.Warn().Msg("Invitation response rate limited")
			w.Header().Set("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())+1))
			apiutil.WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many attempts, try again later")
			return
		}
	}

	token := strings.TrimSpace(r.PathValue("token"))
	if token == "" {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid_path", "token is required")
		return
	}

	if err := manager.Respond(r.Context(), token, accept); err != nil {
		if errors.Is(err, invitations.ErrTokenNotFound) {
			apiutil.WriteError(w, http.StatusNotFound, "not_found", "invitation not found")
			return
		}
		logger.Error().Err(err).Msg("Failed to record invitation response")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	status := "rejected"
	if accept {
		status = "accepted"
	}
	apiutil.WriteJSON(w, http.StatusOK, map[string]string{"status": status})
}

// DELETE /api/v1/invitations/{id}
func HandleRevoke(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if manager == nil {
		logger.Error().Msg("Invitation manager not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	user, ok := apiutil.RequireUser(w, r)
	if !ok {
		return
	}

	invitationID, err := apiutil.ParsePositiveInt64Field(r.PathValue("id"), "id")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid_path", err.Error())
		return
	}

	if err := manager.Revoke(r.Context(), invitationID, *user); err != nil {
		if errors.Is(err, invitations.ErrForbidden) {
			apiutil.WriteError(w, http.StatusForbidden, "forbidden", "only the owner or staff may revoke")
			return
		}
		logger.Error().Err(err).Int64("invitation_id", invitationID).Msg("Failed to revoke invitation")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/frequent-guests
func HandleListFrequentGuests(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if manager == nil {
		logger.Error().Msg("Invitation manager not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	user, ok := apiutil.RequireUser(w, r)
	if !ok {
		return
	}

	summaries, err := manager.ListFrequentGuests(r.Context(), user.ID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list frequent guests")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	guests := make([]guestPayload, len(summaries))
	for i, summary := range summaries {
		guests[i] = guestPayload{Email: summary.Email, Name: summary.Name}
	}
	apiutil.WriteJSON(w, http.StatusOK, map[string]any{"guests": guests})
}

// DELETE /api/v1/frequent-guests/{email}
func HandleRemoveFrequentGuest(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if manager == nil {
		logger.Error().Msg("Invitation manager not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	user, ok := apiutil.RequireUser(w, r)
	if !ok {
		return
	}

	guestEmail := strings.TrimSpace(r.PathValue("email"))
	if guestEmail == "" {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid_path", "email is required")
		return
	}

	if err := manager.RemoveFrequentGuest(r.Context(), user.ID, guestEmail); err != nil {
		logger.Error().Err(err).Msg("Failed to remove frequent guest")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/guest-matches?email=...
func HandleUpcomingMatches(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if manager == nil {
		logger.Error().Msg("Invitation manager not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	guestEmail := strings.TrimSpace(r.URL.Query().Get("email"))
	if guestEmail == "" {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid_query", "email is required")
		return
	}

	rows, err := manager.ListUpcomingMatches(r.Context(), guestEmail)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list upcoming matches")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	type match struct {
		Date      string `json:"date"`
		CourtName string `json:"court_name"`
		SlotLabel string `json:"slot_label"`
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
		HostName  string `json:"host_name"`
	}
	matches := make([]match, len(rows))
	for i, row := range rows {
		matches[i] = match{
			Date:      row.Date,
			CourtName: row.CourtName,
			SlotLabel: row.SlotLabel,
			StartTime: row.SlotStart,
			EndTime:   row.SlotEnd,
			HostName:  row.HostName,
		}
	}
	apiutil.WriteJSON(w, http.StatusOK, map[string]any{"matches": matches})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
