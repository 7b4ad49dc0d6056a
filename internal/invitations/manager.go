// internal/invitations/manager.go

// Package invitations implements the guest invitation lifecycle for booked
// matches: tokenized invites, accept/reject transitions, revocation, and the
// per-user frequent-guest address book.
package invitations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pistareserva/courtbook/internal/db"
	"github.com/pistareserva/courtbook/internal/email"
)

// MaxGuestsPerReservation bounds invitations in pending or accepted state
// for one reservation.
const MaxGuestsPerReservation = 3

var (
	// ErrForbidden is returned when the actor may not manage invitations
	// for the reservation.
	ErrForbidden = errors.New("actor may not manage invitations for this reservation")
	// ErrTokenNotFound is returned for unknown invitation tokens.
	ErrTokenNotFound = errors.New("invitation token not found")
)

// GuestLimitError rejects a whole invite batch that would exceed the cap.
type GuestLimitError struct {
	Existing int64
	Batch    int
}

func (e *GuestLimitError) Error() string {
	return fmt.Sprintf("guest limit exceeded: %d active invitations plus %d requested exceeds %d",
		e.Existing, e.Batch, MaxGuestsPerReservation)
}

// Clock interface for testing time-dependent behavior.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// GuestEntry is the canonical invite shape. The request layer normalizes
// legacy payloads into it before they reach the manager.
type GuestEntry struct {
	Email string
	Name  string
}

type EntryOutcome string

const (
	OutcomeCreated EntryOutcome = "created"
	OutcomeUpdated EntryOutcome = "updated"
	OutcomeSkipped EntryOutcome = "skipped"
	OutcomeErrored EntryOutcome = "errored"
)

// EntryResult is the per-guest outcome of an invite batch. One bad entry
// does not void the others.
type EntryResult struct {
	Email   string
	Outcome EntryOutcome
	Reason  string
}

type BatchResult struct {
	Entries []EntryResult
}

type GuestSummary struct {
	Email string
	Name  string
}

// Manager drives the invitation state machine.
type Manager struct {
	db      *db.DB
	sender  email.EmailSender
	clock   Clock
	baseURL string
}

// NewManager creates an invitation manager. A nil sender disables outbound
// notifications; a nil clock uses system time.
func NewManager(database *db.DB, sender email.EmailSender, baseURL string, clock Clock) (*Manager, error) {
	if database == nil {
		return nil, errors.New("invitation manager requires a database")
	}
	if clock == nil {
		clock = realClock{}
	}
	return &Manager{db: database, sender: sender, clock: clock, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Invite upserts invitations for a batch of guests on behalf of the
// reservation owner. The whole batch is refused when existing active
// invitations plus the batch size would exceed the guest cap; otherwise each
// entry is processed as its own atomic upsert and failures are reported
// per entry.
func (m *Manager) Invite(ctx context.Context, reservationID int64, actor db.User, entries []GuestEntry) (BatchResult, error) {
	logger := log.Ctx(ctx).With().
		Str("component", "invitation_manager").
		Int64("reservation_id", reservationID).
		Int64("actor_id", actor.ID).
		Logger()

	reservation, err := m.db.Queries.GetReservation(ctx, reservationID)
	if err != nil {
		return BatchResult{}, fmt.Errorf("load reservation %d: %w", reservationID, err)
	}
	if reservation.UserID != actor.ID {
		return BatchResult{}, ErrForbidden
	}

	batch := normalizeEntries(entries)
	active, err := m.db.Queries.CountActiveInvitations(ctx, reservationID)
	if err != nil {
		return BatchResult{}, fmt.Errorf("count invitations: %w", err)
	}
	if active+int64(countInvitable(batch)) > MaxGuestsPerReservation {
		return BatchResult{}, &GuestLimitError{Existing: active, Batch: countInvitable(batch)}
	}

	match, err := m.loadMatchDetails(ctx, reservation, actor)
	if err != nil {
		return BatchResult{}, err
	}

	result := BatchResult{Entries: make([]EntryResult, 0, len(batch))}
	for _, entry := range batch {
		if entry.Email == "" {
			result.Entries = append(result.Entries, EntryResult{Outcome: OutcomeSkipped, Reason: "missing email"})
			continue
		}
		outcome, err := m.inviteOne(ctx, reservation, actor, entry, match)
		if err != nil {
			logger.Error().Err(err).Str("guest_email", entry.Email).Msg("Failed to process guest entry")
			result.Entries = append(result.Entries, EntryResult{Email: entry.Email, Outcome: OutcomeErrored, Reason: err.Error()})
			continue
		}
		result.Entries = append(result.Entries, EntryResult{Email: entry.Email, Outcome: outcome})
	}

	logger.Info().Int("entries", len(result.Entries)).Msg("Invite batch processed")
	return result, nil
}

// inviteOne upserts the invitation and address-book rows for a single guest.
func (m *Manager) inviteOne(ctx context.Context, reservation db.Reservation, actor db.User, entry GuestEntry, match matchDetails) (EntryOutcome, error) {
	existing, err := m.db.Queries.GetInvitationForReservationEmail(ctx, db.InvitationForReservationEmailParams{
		ReservationID: reservation.ID,
		Email:         entry.Email,
	})
	hasExisting := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("look up invitation: %w", err)
	}

	name, err := m.resolveGuestName(ctx, actor.ID, entry, existing, hasExisting)
	if err != nil {
		return "", err
	}

	now := m.clock.Now()
	if _, err := m.db.Queries.UpsertExternalGuest(ctx, db.UpsertExternalGuestParams{
		OwnerUserID: actor.ID,
		Email:       entry.Email,
		Name:        name,
		CreatedAt:   now,
	}); err != nil {
		return "", fmt.Errorf("upsert external guest: %w", err)
	}

	if hasExisting {
		if existing.Name != name {
			if err := m.db.Queries.UpdateInvitationName(ctx, db.UpdateInvitationNameParams{ID: existing.ID, Name: name}); err != nil {
				return "", fmt.Errorf("update invitation name: %w", err)
			}
		}
		// Token and status stay untouched on re-invite.
		return OutcomeUpdated, nil
	}

	token, err := newToken()
	if err != nil {
		return "", err
	}

	invitedUser := sql.NullInt64{}
	if account, err := m.db.Queries.GetUserByEmail(ctx, entry.Email); err == nil {
		invitedUser = sql.NullInt64{Int64: account.ID, Valid: true}
	} else if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("look up invited user: %w", err)
	}

	invitation, err := m.db.Queries.CreateInvitation(ctx, db.CreateInvitationParams{
		ReservationID: reservation.ID,
		InvitedUserID: invitedUser,
		Email:         entry.Email,
		Name:          name,
		Token:         token,
		CreatedAt:     now,
	})
	if err != nil {
		// A concurrent invite for the same email won the insert race;
		// observe the winner's row instead of failing.
		if db.IsUniqueViolation(err) {
			return OutcomeUpdated, nil
		}
		return "", fmt.Errorf("insert invitation: %w", err)
	}

	m.sendInvitationEmail(ctx, invitation, actor, match)
	return OutcomeCreated, nil
}

// resolveGuestName picks the display name by priority: explicit entry name,
// then the name on the existing invitation, then the address book, then the
// email local part.
func (m *Manager) resolveGuestName(ctx context.Context, ownerID int64, entry GuestEntry, existing db.Invitation, hasExisting bool) (string, error) {
	if entry.Name != "" {
		return entry.Name, nil
	}
	if hasExisting && existing.Name != "" {
		return existing.Name, nil
	}
	guest, err := m.db.Queries.GetExternalGuest(ctx, db.ExternalGuestParams{OwnerUserID: ownerID, Email: entry.Email})
	if err == nil && guest.Name != "" {
		return guest.Name, nil
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("look up external guest: %w", err)
	}
	local, _, _ := strings.Cut(entry.Email, "@")
	return local, nil
}

// Respond flips an invitation's state via its token. Repeating the same
// outcome is a no-op success; switching between accepted and rejected is
// permitted so guests can change their answer from the email links.
func (m *Manager) Respond(ctx context.Context, token string, accept bool) error {
	invitation, err := m.db.Queries.GetInvitationByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTokenNotFound
		}
		return fmt.Errorf("look up invitation token: %w", err)
	}

	status := db.InvitationStatusRejected
	if accept {
		status = db.InvitationStatusAccepted
	}
	if invitation.Status == status {
		return nil
	}

	if err := m.db.Queries.UpdateInvitationStatus(ctx, db.UpdateInvitationStatusParams{ID: invitation.ID, Status: status}); err != nil {
		return fmt.Errorf("update invitation status: %w", err)
	}

	log.Ctx(ctx).Info().
		Str("component", "invitation_manager").
		Int64("invitation_id", invitation.ID).
		Str("status", status).
		Msg("Invitation response recorded")
	return nil
}

// Revoke deletes an invitation on behalf of the reservation owner or staff.
// The guest's address-book entry is intentionally retained.
func (m *Manager) Revoke(ctx context.Context, invitationID int64, actor db.User) error {
	invitation, err := m.db.Queries.GetInvitation(ctx, invitationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("load invitation %d: %w", invitationID, err)
	}

	reservation, err := m.db.Queries.GetReservation(ctx, invitation.ReservationID)
	if err != nil {
		return fmt.Errorf("load reservation %d: %w", invitation.ReservationID, err)
	}
	if reservation.UserID != actor.ID && !actor.IsStaff {
		return ErrForbidden
	}

	if _, err := m.db.Queries.DeleteInvitation(ctx, invitationID); err != nil {
		return fmt.Errorf("delete invitation: %w", err)
	}
	return nil
}

// ListFrequentGuests returns the user's address book of previously invited
// guests, for pre-populating invite forms.
func (m *Manager) ListFrequentGuests(ctx context.Context, userID int64) ([]GuestSummary, error) {
	guests, err := m.db.Queries.ListExternalGuests(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list external guests: %w", err)
	}
	summaries := make([]GuestSummary, len(guests))
	for i, guest := range guests {
		summaries[i] = GuestSummary{Email: guest.Email, Name: guest.Name}
	}
	return summaries, nil
}

// RemoveFrequentGuest deletes one address-book entry. Invitations already
// sent to that guest are unaffected.
func (m *Manager) RemoveFrequentGuest(ctx context.Context, userID int64, guestEmail string) error {
	_, err := m.db.Queries.DeleteExternalGuest(ctx, db.ExternalGuestParams{
		OwnerUserID: userID,
		Email:       normalizeEmail(guestEmail),
	})
	if err != nil {
		return fmt.Errorf("delete external guest: %w", err)
	}
	return nil
}

// ListUpcomingMatches returns a guest's accepted invitations for today or
// later.
func (m *Manager) ListUpcomingMatches(ctx context.Context, guestEmail string) ([]db.UpcomingInvitationRow, error) {
	today := m.clock.Now().Format(db.DateLayout)
	return m.db.Queries.ListUpcomingInvitationsByEmail(ctx, normalizeEmail(guestEmail), today)
}

type matchDetails struct {
	hostName  string
	courtName string
	slotLabel string
	date      string
}

func (m *Manager) loadMatchDetails(ctx context.Context, reservation db.Reservation, actor db.User) (matchDetails, error) {
	court, err := m.db.Queries.GetCourt(ctx, reservation.CourtID)
	if err != nil {
		return matchDetails{}, fmt.Errorf("load court %d: %w", reservation.CourtID, err)
	}
	slot, err := m.db.Queries.GetTimeSlot(ctx, reservation.TimeslotID)
	if err != nil {
		return matchDetails{}, fmt.Errorf("load timeslot %d: %w", reservation.TimeslotID, err)
	}
	return matchDetails{
		hostName:  actor.Name,
		courtName: court.Name,
		slotLabel: slot.Label,
		date:      reservation.Date,
	}, nil
}

// sendInvitationEmail dispatches the tokenized accept/reject links as a
// fire-and-forget side effect; delivery failures never roll back the
// invitation row.
func (m *Manager) sendInvitationEmail(ctx context.Context, invitation db.Invitation, actor db.User, match matchDetails) {
	if m.sender == nil {
		return
	}
	logger := log.Ctx(ctx).With().Int64("invitation_id", invitation.ID).Logger()
	email.SendInvitationEmail(m.sender, invitation.Email, email.InvitationEmail{
		GuestName: invitation.Name,
		HostName:  match.hostName,
		CourtName: match.courtName,
		Date:      match.date,
		SlotLabel: match.slotLabel,
		AcceptURL: fmt.Sprintf("%s/api/v1/invitations/%s/accept", m.baseURL, invitation.Token),
		RejectURL: fmt.Sprintf("%s/api/v1/invitations/%s/reject", m.baseURL, invitation.Token),
	}, &logger)
}

// normalizeEntries lowercases and trims emails and drops duplicate emails
// within the batch, keeping the first occurrence.
func normalizeEntries(entries []GuestEntry) []GuestEntry {
	seen := make(map[string]struct{}, len(entries))
	normalized := make([]GuestEntry, 0, len(entries))
	for _, entry := range entries {
		entry.Email = normalizeEmail(entry.Email)
		entry.Name = strings.TrimSpace(entry.Name)
		if entry.Email != "" {
			if _, dup := seen[entry.Email]; dup {
				continue
			}
			seen[entry.Email] = struct{}{}
		}
		normalized = append(normalized, entry)
	}
	return normalized
}

func countInvitable(entries []GuestEntry) int {
	n := 0
	for _, entry := range entries {
		if entry.Email != "" {
			n++
		}
	}
	return n
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
