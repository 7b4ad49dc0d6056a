// internal/api/invites/handlers_test.go
package invites

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pistareserva/courtbook/internal/api/identity"
	"github.com/pistareserva/courtbook/internal/db"
	"github.com/pistareserva/courtbook/internal/invitations"
	"github.com/pistareserva/courtbook/internal/ratelimit"
	"github.com/pistareserva/courtbook/internal/testutil"
)

// Handlers share package globals guarded by sync.Once, so the suite runs
// against one environment.
func TestInvitationHandlers(t *testing.T) {
	database := testutil.NewTestDB(t)
	fixture := testutil.NewFixture(t, database)

	manager, err := invitations.NewManager(database, nil, "https://courts.example.com", nil)
	if err != nil {
		t.Fatalf("create manager: %v", err)
	}
	limiter := ratelimit.New(&ratelimit.Config{MaxPerWindow: 5, Window: time.Minute})
	InitHandlers(manager, limiter)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/reservations/{id}/invitations", HandleInvite)
	mux.HandleFunc("GET /api/v1/invitations/{token}/accept", HandleAccept)
	mux.HandleFunc("GET /api/v1/invitations/{token}/reject", HandleReject)
	mux.HandleFunc("DELETE /api/v1/invitations/{id}", HandleRevoke)
	mux.HandleFunc("GET /api/v1/frequent-guests", HandleListFrequentGuests)

	reservation, err := database.Queries.CreateReservation(context.Background(), db.CreateReservationParams{
		UserID:     fixture.Resident.ID,
		CourtID:    fixture.Court.ID,
		TimeslotID: fixture.Slots[0].ID,
		Date:       "2024-06-11",
		CreatedAt:  time.Now(),
	})
	if err != nil {
		t.Fatalf("seed reservation: %v", err)
	}

	do := func(t *testing.T, user *db.User, method, target, body string) *httptest.ResponseRecorder {
		t.Helper()
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		if user != nil {
			req = req.WithContext(identity.ContextWithUser(req.Context(), user))
		}
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec
	}

	inviteTarget := fmt.Sprintf("/api/v1/reservations/%d/invitations", reservation.ID)

	t.Run("invite batch with structured guests", func(t *testing.T) {
		body := `{"guests":[{"email":"a@example.com","name":"Ana"},{"email":"b@example.com"}]}`
		rec := do(t, &fixture.Resident, http.MethodPost, inviteTarget, body)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp struct {
			Results []struct {
				Email   string `json:"email"`
				Outcome string `json:"outcome"`
			} `json:"results"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(resp.Results) != 2 || resp.Results[0].Outcome != "created" {
			t.Fatalf("unexpected results: %+v", resp.Results)
		}
	})

	t.Run("invite accepts legacy parallel lists", func(t *testing.T) {
		body := `{"emails":["c@example.com"],"names":["Carmen"]}`
		rec := do(t, &fixture.Resident, http.MethodPost, inviteTarget, body)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		invitation, err := database.Queries.GetInvitationForReservationEmail(context.Background(),
			db.InvitationForReservationEmailParams{ReservationID: reservation.ID, Email: "c@example.com"})
		if err != nil {
			t.Fatalf("load invitation: %v", err)
		}
		if invitation.Name != "Carmen" {
			t.Fatalf("expected legacy name carried over, got %q", invitation.Name)
		}
	})

	t.Run("batch over the cap maps to 409", func(t *testing.T) {
		body := `{"guests":[{"email":"d@example.com"}]}`
		rec := do(t, &fixture.Resident, http.MethodPost, inviteTarget, body)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("accept link flips the invitation", func(t *testing.T) {
		invitation, err := database.Queries.GetInvitationForReservationEmail(context.Background(),
			db.InvitationForReservationEmailParams{ReservationID: reservation.ID, Email: "a@example.com"})
		if err != nil {
			t.Fatalf("load invitation: %v", err)
		}

		rec := do(t, nil, http.MethodGet, "/api/v1/invitations/"+invitation.Token+"/accept", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		reloaded, err := database.Queries.GetInvitation(context.Background(), invitation.ID)
		if err != nil {
			t.Fatalf("reload invitation: %v", err)
		}
		if reloaded.Status != db.InvitationStatusAccepted {
			t.Fatalf("expected accepted, got %s", reloaded.Status)
		}
	})

	t.Run("unknown token maps to 404", func(t *testing.T) {
		rec := do(t, nil, http.MethodGet, "/api/v1/invitations/bogus/reject", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("respond attempts are rate limited", func(t *testing.T) {
		var last int
		for i := 0; i < 10; i++ {
			rec := do(t, nil, http.MethodGet, "/api/v1/invitations/guess/accept", "")
			last = rec.Code
		}
		if last != http.StatusTooManyRequests {
			t.Fatalf("expected 429 after repeated attempts, got %d", last)
		}
	})

	t.Run("frequent guests reflect the invites", func(t *testing.T) {
		rec := do(t, &fixture.Resident, http.MethodGet, "/api/v1/frequent-guests", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp struct {
			Guests []struct {
				Email string `json:"email"`
			} `json:"guests"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(resp.Guests) != 3 {
			t.Fatalf("expected 3 address-book entries, got %+v", resp.Guests)
		}
	})

	t.Run("revoke by owner", func(t *testing.T) {
		invitation, err := database.Queries.GetInvitationForReservationEmail(context.Background(),
			db.InvitationForReservationEmailParams{ReservationID: reservation.ID, Email: "b@example.com"})
		if err != nil {
			t.Fatalf("load invitation: %v", err)
		}
		rec := do(t, &fixture.Resident, http.MethodDelete, fmt.Sprintf("/api/v1/invitations/%d", invitation.ID), "")
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}
