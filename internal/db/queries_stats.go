// internal/db/queries_stats.go
package db

import "context"

type DateRangeParams struct {
	FromDate string
	ToDate   string
}

func (q *Queries) CountReservationsBetween(ctx context.Context, arg DateRangeParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM reservations WHERE date BETWEEN ? AND ?`,
		arg.FromDate, arg.ToDate,
	)
	var count int64
	err := row.Scan(&count)
	return count, err
}

func (q *Queries) CountCancelledBetween(ctx context.Context, arg DateRangeParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM reservations_cancelled WHERE date BETWEEN ? AND ?`,
		arg.FromDate, arg.ToDate,
	)
	var count int64
	err := row.Scan(&count)
	return count, err
}

type LastMinuteCancellationsParams struct {
	FromDate string
	ToDate   string
	MaxHours float64
}

// CountLastMinuteCancellations counts archive rows whose cancellation
// happened within MaxHours of the reserved day.
func (q *Queries) CountLastMinuteCancellations(ctx context.Context, arg LastMinuteCancellationsParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM reservations_cancelled
		WHERE date BETWEEN ? AND ?
		  AND (julianday(date) - julianday(cancelled_at)) * 24.0 <= ?`,
		arg.FromDate, arg.ToDate, arg.MaxHours,
	)
	var count int64
	err := row.Scan(&count)
	return count, err
}

type CourtReservationCountRow struct {
	CourtID   int64
	CourtName string
	SlotCount int64
	Total     int64
}

// ReservationCountsByCourt returns per-court reservation totals in the range
// together with each court's slot count, so occupancy can be derived.
func (q *Queries) ReservationCountsByCourt(ctx context.Context, arg DateRangeParams) ([]CourtReservationCountRow, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT c.id, c.name,
		       (SELECT COUNT(*) FROM timeslots s WHERE s.court_id = c.id),
		       (SELECT COUNT(*) FROM reservations r WHERE r.court_id = c.id AND r.date BETWEEN ? AND ?)
		FROM courts c
		ORDER BY 4 DESC, c.name`,
		arg.FromDate, arg.ToDate,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []CourtReservationCountRow
	for rows.Next() {
		var c CourtReservationCountRow
		if err := rows.Scan(&c.CourtID, &c.CourtName, &c.SlotCount, &c.Total); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

type TopUsersParams struct {
	FromDate string
	ToDate   string
	Limit    int64
}

type UserReservationCountRow struct {
	Email string
	Name  string
	Total int64
}

func (q *Queries) TopUsersByReservations(ctx context.Context, arg TopUsersParams) ([]UserReservationCountRow, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT u.email, u.name, COUNT(*) AS total
		FROM reservations r
		JOIN users u ON u.id = r.user_id
		WHERE r.date BETWEEN ? AND ?
		GROUP BY u.id
		ORDER BY total DESC, u.email
		LIMIT ?`,
		arg.FromDate, arg.ToDate, arg.Limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var top []UserReservationCountRow
	for rows.Next() {
		var u UserReservationCountRow
		if err := rows.Scan(&u.Email, &u.Name, &u.Total); err != nil {
			return nil, err
		}
		top = append(top, u)
	}
	return top, rows.Err()
}

type TimeSlotReservationCountRow struct {
	StartTime string
	EndTime   string
	Total     int64
}

func (q *Queries) ReservationCountsByTimeSlot(ctx context.Context, arg DateRangeParams) ([]TimeSlotReservationCountRow, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT s.start_time, s.end_time, COUNT(*) AS total
		FROM reservations r
		JOIN timeslots s ON s.id = r.timeslot_id
		WHERE r.date BETWEEN ? AND ?
		GROUP BY s.start_time, s.end_time
		ORDER BY total DESC, s.start_time`,
		arg.FromDate, arg.ToDate,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []TimeSlotReservationCountRow
	for rows.Next() {
		var c TimeSlotReservationCountRow
		if err := rows.Scan(&c.StartTime, &c.EndTime, &c.Total); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

type InvitationCountsRow struct {
	Sent     int64
	Accepted int64
}

// InvitationCountsBetween counts invitations sent and accepted for
// reservations falling in the date range.
func (q *Queries) InvitationCountsBetween(ctx context.Context, arg DateRangeParams) (InvitationCountsRow, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN i.status = 'accepted' THEN 1 ELSE 0 END), 0)
		FROM invitations i
		JOIN reservations r ON r.id = i.reservation_id
		WHERE r.date BETWEEN ? AND ?`,
		arg.FromDate, arg.ToDate,
	)
	var counts InvitationCountsRow
	err := row.Scan(&counts.Sent, &counts.Accepted)
	return counts, err
}

// AverageLeadDays returns the mean number of days between booking time and
// the reserved day, for reservations in the range.
func (q *Queries) AverageLeadDays(ctx context.Context, arg DateRangeParams) (float64, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT COALESCE(AVG(julianday(date) - julianday(created_at)), 0)
		FROM reservations WHERE date BETWEEN ? AND ?`,
		arg.FromDate, arg.ToDate,
	)
	var avg float64
	err := row.Scan(&avg)
	return avg, err
}
