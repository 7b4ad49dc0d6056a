// internal/db/queries_communities.go
package db

import (
	"context"
	"database/sql"
)

type CreateCommunityParams struct {
	Name           string
	Address        string
	JoinCode       string
	OpeningTime    string
	MaxHorizonDays int64
}

func (q *Queries) CreateCommunity(ctx context.Context, arg CreateCommunityParams) (Community, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO communities (name, address, join_code, opening_time, max_horizon_days)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id, name, address, join_code, opening_time, max_horizon_days, created_at`,
		arg.Name, arg.Address, arg.JoinCode, arg.OpeningTime, arg.MaxHorizonDays,
	)
	return scanCommunity(row)
}

func (q *Queries) GetCommunity(ctx context.Context, id int64) (Community, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, name, address, join_code, opening_time, max_horizon_days, created_at
		FROM communities WHERE id = ?`, id,
	)
	return scanCommunity(row)
}

func (q *Queries) GetCommunityByJoinCode(ctx context.Context, joinCode string) (Community, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, name, address, join_code, opening_time, max_horizon_days, created_at
		FROM communities WHERE join_code = ?`, joinCode,
	)
	return scanCommunity(row)
}

func scanCommunity(row *sql.Row) (Community, error) {
	var c Community
	err := row.Scan(&c.ID, &c.Name, &c.Address, &c.JoinCode, &c.OpeningTime, &c.MaxHorizonDays, &c.CreatedAt)
	return c, err
}

type CreateCourtParams struct {
	CommunityID    int64
	Name           string
	Address        string
	OpeningTime    sql.NullString
	MaxHorizonDays sql.NullInt64
}

func (q *Queries) CreateCourt(ctx context.Context, arg CreateCourtParams) (Court, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO courts (community_id, name, address, opening_time, max_horizon_days)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id, community_id, name, address, opening_time, max_horizon_days, created_at`,
		arg.CommunityID, arg.Name, arg.Address, arg.OpeningTime, arg.MaxHorizonDays,
	)
	return scanCourt(row)
}

func (q *Queries) GetCourt(ctx context.Context, id int64) (Court, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, community_id, name, address, opening_time, max_horizon_days, created_at
		FROM courts WHERE id = ?`, id,
	)
	return scanCourt(row)
}

func (q *Queries) ListCourtsByCommunity(ctx context.Context, communityID int64) ([]Court, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, community_id, name, address, opening_time, max_horizon_days, created_at
		FROM courts WHERE community_id = ? ORDER BY name`, communityID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courts []Court
	for rows.Next() {
		var c Court
		if err := rows.Scan(&c.ID, &c.CommunityID, &c.Name, &c.Address, &c.OpeningTime, &c.MaxHorizonDays, &c.CreatedAt); err != nil {
			return nil, err
		}
		courts = append(courts, c)
	}
	return courts, rows.Err()
}

func scanCourt(row *sql.Row) (Court, error) {
	var c Court
	err := row.Scan(&c.ID, &c.CommunityID, &c.Name, &c.Address, &c.OpeningTime, &c.MaxHorizonDays, &c.CreatedAt)
	return c, err
}

type CreateTimeSlotParams struct {
	CourtID   int64
	Label     string
	StartTime string
	EndTime   string
}

func (q *Queries) CreateTimeSlot(ctx context.Context, arg CreateTimeSlotParams) (TimeSlot, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO timeslots (court_id, label, start_time, end_time)
		VALUES (?, ?, ?, ?)
		RETURNING id, court_id, label, start_time, end_time`,
		arg.CourtID, arg.Label, arg.StartTime, arg.EndTime,
	)
	var s TimeSlot
	err := row.Scan(&s.ID, &s.CourtID, &s.Label, &s.StartTime, &s.EndTime)
	return s, err
}

func (q *Queries) GetTimeSlot(ctx context.Context, id int64) (TimeSlot, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, court_id, label, start_time, end_time
		FROM timeslots WHERE id = ?`, id,
	)
	var s TimeSlot
	err := row.Scan(&s.ID, &s.CourtID, &s.Label, &s.StartTime, &s.EndTime)
	return s, err
}

func (q *Queries) ListTimeSlotsByCourt(ctx context.Context, courtID int64) ([]TimeSlot, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, court_id, label, start_time, end_time
		FROM timeslots WHERE court_id = ? ORDER BY start_time`, courtID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []TimeSlot
	for rows.Next() {
		var s TimeSlot
		if err := rows.Scan(&s.ID, &s.CourtID, &s.Label, &s.StartTime, &s.EndTime); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

type CreateHouseholdParams struct {
	CommunityID int64
	Name        string
}

func (q *Queries) CreateHousehold(ctx context.Context, arg CreateHouseholdParams) (Household, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO households (community_id, name)
		VALUES (?, ?)
		RETURNING id, community_id, name, created_at`,
		arg.CommunityID, arg.Name,
	)
	var h Household
	err := row.Scan(&h.ID, &h.CommunityID, &h.Name, &h.CreatedAt)
	return h, err
}

// ListHouseholdsByJoinCode resolves a community from its join code and
// returns its households, for registration flows.
func (q *Queries) ListHouseholdsByJoinCode(ctx context.Context, joinCode string) ([]Household, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT h.id, h.community_id, h.name, h.created_at
		FROM households h
		JOIN communities c ON c.id = h.community_id
		WHERE c.join_code = ?
		ORDER BY h.name`, joinCode,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var households []Household
	for rows.Next() {
		var h Household
		if err := rows.Scan(&h.ID, &h.CommunityID, &h.Name, &h.CreatedAt); err != nil {
			return nil, err
		}
		households = append(households, h)
	}
	return households, rows.Err()
}
