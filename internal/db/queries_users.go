// internal/db/queries_users.go
package db

import (
	"context"
	"database/sql"
)

type CreateUserParams struct {
	Email       string
	Name        string
	HouseholdID sql.NullInt64
	CommunityID sql.NullInt64
	IsStaff     bool
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO users (email, name, household_id, community_id, is_staff)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id, email, name, household_id, community_id, is_staff, terms_accepted_at, created_at`,
		arg.Email, arg.Name, arg.HouseholdID, arg.CommunityID, arg.IsStaff,
	)
	return scanUser(row)
}

func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, email, name, household_id, community_id, is_staff, terms_accepted_at, created_at
		FROM users WHERE id = ?`, id,
	)
	return scanUser(row)
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, email, name, household_id, community_id, is_staff, terms_accepted_at, created_at
		FROM users WHERE email = ?`, email,
	)
	return scanUser(row)
}

func scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.HouseholdID, &u.CommunityID, &u.IsStaff, &u.TermsAcceptedAt, &u.CreatedAt)
	return u, err
}
