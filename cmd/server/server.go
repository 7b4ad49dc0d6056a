// cmd/server/server.go
package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/pistareserva/courtbook/internal/api"
	"github.com/pistareserva/courtbook/internal/api/communities"
	"github.com/pistareserva/courtbook/internal/api/identity"
	"github.com/pistareserva/courtbook/internal/api/invites"
	"github.com/pistareserva/courtbook/internal/api/reservations"
	"github.com/pistareserva/courtbook/internal/api/statsapi"
	"github.com/pistareserva/courtbook/internal/booking"
	"github.com/pistareserva/courtbook/internal/config"
	"github.com/pistareserva/courtbook/internal/db"
	"github.com/pistareserva/courtbook/internal/invitations"
	"github.com/pistareserva/courtbook/internal/ratelimit"
	"github.com/pistareserva/courtbook/internal/stats"
)

func newServer(
	cfg *config.Config,
	database *db.DB,
	engine *booking.Engine,
	archiver *booking.Archiver,
	manager *invitations.Manager,
	reports *stats.Service,
) *http.Server {
	reservations.InitHandlers(engine, archiver)
	invites.InitHandlers(manager, ratelimit.New(ratelimit.DefaultConfig()))
	statsapi.InitHandlers(reports)
	communities.InitHandlers(database)

	router := http.NewServeMux()
	registerRoutes(router)

	provider := &identity.HeaderProvider{Queries: database.Queries}
	handler := api.ChainMiddleware(
		router,
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
		api.WithIdentity(provider),
	)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Reservations
	mux.HandleFunc("POST /api/v1/reservations", reservations.HandleCreate)
	mux.HandleFunc("GET /api/v1/reservations", reservations.HandleListMine)
	mux.HandleFunc("DELETE /api/v1/reservations/{id}", reservations.HandleCancel)
	mux.HandleFunc("GET /api/v1/cancelled-reservations", reservations.HandleListCancelled)
	mux.HandleFunc("GET /api/v1/courts/{id}/occupied-slots", reservations.HandleOccupiedSlots)

	// Invitations and the guest address book
	mux.HandleFunc("POST /api/v1/reservations/{id}/invitations", invites.HandleInvite)
	mux.HandleFunc("GET /api/v1/invitations/{token}/accept", invites.HandleAccept)
	mux.HandleFunc("GET /api/v1/invitations/{token}/reject", invites.HandleReject)
	mux.HandleFunc("DELETE /api/v1/invitations/{id}", invites.HandleRevoke)
	mux.HandleFunc("GET /api/v1/frequent-guests", invites.HandleListFrequentGuests)
	mux.HandleFunc("DELETE /api/v1/frequent-guests/{email}", invites.HandleRemoveFrequentGuest)
	mux.HandleFunc("GET /api/v1/guest-matches", invites.HandleUpcomingMatches)

	// Community directory
	mux.HandleFunc("GET /api/v1/households", communities.HandleHouseholdsByJoinCode)
	mux.HandleFunc("GET /api/v1/communities/{id}/courts", communities.HandleListCourts)
	mux.HandleFunc("GET /api/v1/courts/{id}/timeslots", communities.HandleListTimeSlots)

	// Reporting, staff only
	mux.HandleFunc("GET /api/v1/stats/summary", statsapi.HandleSummary)
	mux.HandleFunc("GET /api/v1/stats/occupancy", statsapi.HandleOccupancy)
	mux.HandleFunc("GET /api/v1/stats/cancellations", statsapi.HandleCancellations)
	mux.HandleFunc("GET /api/v1/stats/top-users", statsapi.HandleTopUsers)
}
