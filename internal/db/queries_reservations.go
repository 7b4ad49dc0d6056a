// internal/db/queries_reservations.go
package db

import (
	"context"
	"time"
)

type CreateReservationParams struct {
	UserID     int64
	CourtID    int64
	TimeslotID int64
	Date       string
	CreatedAt  time.Time
}

func (q *Queries) CreateReservation(ctx context.Context, arg CreateReservationParams) (Reservation, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO reservations (user_id, court_id, timeslot_id, date, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id, user_id, court_id, timeslot_id, date, created_at`,
		arg.UserID, arg.CourtID, arg.TimeslotID, arg.Date, arg.CreatedAt,
	)
	var r Reservation
	err := row.Scan(&r.ID, &r.UserID, &r.CourtID, &r.TimeslotID, &r.Date, &r.CreatedAt)
	return r, err
}

func (q *Queries) GetReservation(ctx context.Context, id int64) (Reservation, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, user_id, court_id, timeslot_id, date, created_at
		FROM reservations WHERE id = ?`, id,
	)
	var r Reservation
	err := row.Scan(&r.ID, &r.UserID, &r.CourtID, &r.TimeslotID, &r.Date, &r.CreatedAt)
	return r, err
}

// DeleteReservation removes a reservation and reports how many rows were
// deleted, so callers can detect an already-removed reservation.
func (q *Queries) DeleteReservation(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type HouseholdReservationsOnDateParams struct {
	HouseholdID int64
	Date        string
}

// CountHouseholdReservationsOnDate counts active reservations held by any
// member of a household on a given date, across all courts.
func (q *Queries) CountHouseholdReservationsOnDate(ctx context.Context, arg HouseholdReservationsOnDateParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM reservations r
		JOIN users u ON u.id = r.user_id
		WHERE u.household_id = ? AND r.date = ?`,
		arg.HouseholdID, arg.Date,
	)
	var count int64
	err := row.Scan(&count)
	return count, err
}

type SlotReservationExistsParams struct {
	CourtID    int64
	TimeslotID int64
	Date       string
}

// SlotReservationExists reports whether an active reservation already holds
// the (court, timeslot, date) triple.
func (q *Queries) SlotReservationExists(ctx context.Context, arg SlotReservationExistsParams) (bool, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM reservations
			WHERE court_id = ? AND timeslot_id = ? AND date = ?
		)`,
		arg.CourtID, arg.TimeslotID, arg.Date,
	)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

type OccupiedTimeSlotsParams struct {
	CourtID int64
	Date    string
}

// ListOccupiedTimeSlotIDs returns the timeslot ids already reserved for a
// court on a date, for calendar rendering.
func (q *Queries) ListOccupiedTimeSlotIDs(ctx context.Context, arg OccupiedTimeSlotsParams) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT r.timeslot_id
		FROM reservations r
		JOIN timeslots s ON s.id = r.timeslot_id
		WHERE r.court_id = ? AND r.date = ?
		ORDER BY s.start_time`,
		arg.CourtID, arg.Date,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type CreateCancelledReservationParams struct {
	UserID      int64
	CourtID     int64
	TimeslotID  int64
	Date        string
	CreatedAt   time.Time
	CancelledAt time.Time
}

func (q *Queries) CreateCancelledReservation(ctx context.Context, arg CreateCancelledReservationParams) (ReservationCancelled, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO reservations_cancelled (user_id, court_id, timeslot_id, date, created_at, cancelled_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id, user_id, court_id, timeslot_id, date, created_at, cancelled_at`,
		arg.UserID, arg.CourtID, arg.TimeslotID, arg.Date, arg.CreatedAt, arg.CancelledAt,
	)
	var rc ReservationCancelled
	err := row.Scan(&rc.ID, &rc.UserID, &rc.CourtID, &rc.TimeslotID, &rc.Date, &rc.CreatedAt, &rc.CancelledAt)
	return rc, err
}

func (q *Queries) ListCancelledReservations(ctx context.Context) ([]ReservationCancelled, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, user_id, court_id, timeslot_id, date, created_at, cancelled_at
		FROM reservations_cancelled ORDER BY cancelled_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cancelled []ReservationCancelled
	for rows.Next() {
		var rc ReservationCancelled
		if err := rows.Scan(&rc.ID, &rc.UserID, &rc.CourtID, &rc.TimeslotID, &rc.Date, &rc.CreatedAt, &rc.CancelledAt); err != nil {
			return nil, err
		}
		cancelled = append(cancelled, rc)
	}
	return cancelled, rows.Err()
}

func (q *Queries) ListReservationsForUser(ctx context.Context, userID int64) ([]Reservation, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, user_id, court_id, timeslot_id, date, created_at
		FROM reservations WHERE user_id = ? ORDER BY date, timeslot_id`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []Reservation
	for rows.Next() {
		var r Reservation
		if err := rows.Scan(&r.ID, &r.UserID, &r.CourtID, &r.TimeslotID, &r.Date, &r.CreatedAt); err != nil {
			return nil, err
		}
		reservations = append(reservations, r)
	}
	return reservations, rows.Err()
}

type ReservationDetailRow struct {
	Reservation
	OwnerEmail string
	OwnerName  string
	CourtName  string
	SlotLabel  string
	SlotStart  string
	SlotEnd    string
}

// ListReservationsOnDate returns reservations for a date joined with owner,
// court, and slot details, used by the reminder job.
func (q *Queries) ListReservationsOnDate(ctx context.Context, date string) ([]ReservationDetailRow, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT r.id, r.user_id, r.court_id, r.timeslot_id, r.date, r.created_at,
		       u.email, u.name, c.name, s.label, s.start_time, s.end_time
		FROM reservations r
		JOIN users u ON u.id = r.user_id
		JOIN courts c ON c.id = r.court_id
		JOIN timeslots s ON s.id = r.timeslot_id
		WHERE r.date = ?
		ORDER BY s.start_time`, date,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []ReservationDetailRow
	for rows.Next() {
		var d ReservationDetailRow
		if err := rows.Scan(
			&d.ID, &d.UserID, &d.CourtID, &d.TimeslotID, &d.Date, &d.CreatedAt,
			&d.OwnerEmail, &d.OwnerName, &d.CourtName, &d.SlotLabel, &d.SlotStart, &d.SlotEnd,
		); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}
