// internal/db/queries_guests.go
package db

import (
	"context"
	"time"
)

type UpsertExternalGuestParams struct {
	OwnerUserID int64
	Email       string
	Name        string
	CreatedAt   time.Time
}

// UpsertExternalGuest inserts or refreshes the address-book entry for
// (owner, email). The stored name follows the most recent invite.
func (q *Queries) UpsertExternalGuest(ctx context.Context, arg UpsertExternalGuestParams) (ExternalGuest, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO external_guests (owner_user_id, email, name, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (owner_user_id, email) DO UPDATE SET name = excluded.name
		RETURNING id, owner_user_id, email, name, created_at`,
		arg.OwnerUserID, arg.Email, arg.Name, arg.CreatedAt,
	)
	var g ExternalGuest
	err := row.Scan(&g.ID, &g.OwnerUserID, &g.Email, &g.Name, &g.CreatedAt)
	return g, err
}

type ExternalGuestParams struct {
	OwnerUserID int64
	Email       string
}

func (q *Queries) GetExternalGuest(ctx context.Context, arg ExternalGuestParams) (ExternalGuest, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, owner_user_id, email, name, created_at
		FROM external_guests WHERE owner_user_id = ? AND email = ?`,
		arg.OwnerUserID, arg.Email,
	)
	var g ExternalGuest
	err := row.Scan(&g.ID, &g.OwnerUserID, &g.Email, &g.Name, &g.CreatedAt)
	return g, err
}

func (q *Queries) ListExternalGuests(ctx context.Context, ownerUserID int64) ([]ExternalGuest, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, owner_user_id, email, name, created_at
		FROM external_guests WHERE owner_user_id = ? ORDER BY name, email`,
		ownerUserID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var guests []ExternalGuest
	for rows.Next() {
		var g ExternalGuest
		if err := rows.Scan(&g.ID, &g.OwnerUserID, &g.Email, &g.Name, &g.CreatedAt); err != nil {
			return nil, err
		}
		guests = append(guests, g)
	}
	return guests, rows.Err()
}

func (q *Queries) DeleteExternalGuest(ctx context.Context, arg ExternalGuestParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, `
		DELETE FROM external_guests WHERE owner_user_id = ? AND email = ?`,
		arg.OwnerUserID, arg.Email,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
