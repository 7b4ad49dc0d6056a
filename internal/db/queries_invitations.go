// internal/db/queries_invitations.go
package db

import (
	"context"
	"database/sql"
	"time"
)

type CreateInvitationParams struct {
	ReservationID int64
	InvitedUserID sql.NullInt64
	Email         string
	Name          string
	Token         string
	CreatedAt     time.Time
}

func (q *Queries) CreateInvitation(ctx context.Context, arg CreateInvitationParams) (Invitation, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO invitations (reservation_id, invited_user_id, email, name, token, status, created_at)
		VALUES (?, ?, ?, ?, ?, 'pending', ?)
		RETURNING id, reservation_id, invited_user_id, email, name, token, status, created_at`,
		arg.ReservationID, arg.InvitedUserID, arg.Email, arg.Name, arg.Token, arg.CreatedAt,
	)
	return scanInvitation(row)
}

func (q *Queries) GetInvitation(ctx context.Context, id int64) (Invitation, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, reservation_id, invited_user_id, email, name, token, status, created_at
		FROM invitations WHERE id = ?`, id,
	)
	return scanInvitation(row)
}

func (q *Queries) GetInvitationByToken(ctx context.Context, token string) (Invitation, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, reservation_id, invited_user_id, email, name, token, status, created_at
		FROM invitations WHERE token = ?`, token,
	)
	return scanInvitation(row)
}

type InvitationForReservationEmailParams struct {
	ReservationID int64
	Email         string
}

func (q *Queries) GetInvitationForReservationEmail(ctx context.Context, arg InvitationForReservationEmailParams) (Invitation, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, reservation_id, invited_user_id, email, name, token, status, created_at
		FROM invitations WHERE reservation_id = ? AND email = ?`,
		arg.ReservationID, arg.Email,
	)
	return scanInvitation(row)
}

// CountActiveInvitations counts invitations still holding a guest spot, i.e.
// pending or accepted ones.
func (q *Queries) CountActiveInvitations(ctx context.Context, reservationID int64) (int64, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM invitations
		WHERE reservation_id = ? AND status IN ('pending', 'accepted')`,
		reservationID,
	)
	var count int64
	err := row.Scan(&count)
	return count, err
}

type UpdateInvitationNameParams struct {
	ID   int64
	Name string
}

func (q *Queries) UpdateInvitationName(ctx context.Context, arg UpdateInvitationNameParams) error {
	_, err := q.db.ExecContext(ctx, `UPDATE invitations SET name = ? WHERE id = ?`, arg.Name, arg.ID)
	return err
}

type UpdateInvitationStatusParams struct {
	ID     int64
	Status string
}

func (q *Queries) UpdateInvitationStatus(ctx context.Context, arg UpdateInvitationStatusParams) error {
	_, err := q.db.ExecContext(ctx, `UPDATE invitations SET status = ? WHERE id = ?`, arg.Status, arg.ID)
	return err
}

func (q *Queries) DeleteInvitation(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, `DELETE FROM invitations WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (q *Queries) ListInvitationsForReservation(ctx context.Context, reservationID int64) ([]Invitation, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, reservation_id, invited_user_id, email, name, token, status, created_at
		FROM invitations WHERE reservation_id = ? ORDER BY created_at, id`,
		reservationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInvitations(rows)
}

func (q *Queries) ListAcceptedInvitationsForReservation(ctx context.Context, reservationID int64) ([]Invitation, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, reservation_id, invited_user_id, email, name, token, status, created_at
		FROM invitations
		WHERE reservation_id = ? AND status = 'accepted'
		ORDER BY created_at, id`,
		reservationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInvitations(rows)
}

type UpcomingInvitationRow struct {
	Invitation
	Date      string
	CourtName string
	SlotLabel string
	SlotStart string
	SlotEnd   string
	HostName  string
}

// ListUpcomingInvitationsByEmail returns a guest's accepted invitations for
// today or later, joined with match details.
func (q *Queries) ListUpcomingInvitationsByEmail(ctx context.Context, email, fromDate string) ([]UpcomingInvitationRow, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT i.id, i.reservation_id, i.invited_user_id, i.email, i.name, i.token, i.status, i.created_at,
		       r.date, c.name, s.label, s.start_time, s.end_time, u.name
		FROM invitations i
		JOIN reservations r ON r.id = i.reservation_id
		JOIN courts c ON c.id = r.court_id
		JOIN timeslots s ON s.id = r.timeslot_id
		JOIN users u ON u.id = r.user_id
		WHERE i.email = ? AND i.status = 'accepted' AND r.date >= ?
		ORDER BY r.date, s.start_time`,
		email, fromDate,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var upcoming []UpcomingInvitationRow
	for rows.Next() {
		var u UpcomingInvitationRow
		if err := rows.Scan(
			&u.ID, &u.ReservationID, &u.InvitedUserID, &u.Email, &u.Name, &u.Token, &u.Status, &u.CreatedAt,
			&u.Date, &u.CourtName, &u.SlotLabel, &u.SlotStart, &u.SlotEnd, &u.HostName,
		); err != nil {
			return nil, err
		}
		upcoming = append(upcoming, u)
	}
	return upcoming, rows.Err()
}

func collectInvitations(rows *sql.Rows) ([]Invitation, error) {
	var invitations []Invitation
	for rows.Next() {
		var inv Invitation
		if err := rows.Scan(&inv.ID, &inv.ReservationID, &inv.InvitedUserID, &inv.Email, &inv.Name, &inv.Token, &inv.Status, &inv.CreatedAt); err != nil {
			return nil, err
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

func scanInvitation(row *sql.Row) (Invitation, error) {
	var inv Invitation
	err := row.Scan(&inv.ID, &inv.ReservationID, &inv.InvitedUserID, &inv.Email, &inv.Name, &inv.Token, &inv.Status, &inv.CreatedAt)
	return inv, err
}
