// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/pistareserva/courtbook/internal/db"
)

// Fixture is a seeded community with one court, its time slots, a household,
// and a resident, enough for most reservation scenarios.
type Fixture struct {
	Community db.Community
	Court     db.Court
	Slots     []db.TimeSlot
	Household db.Household
	Resident  db.User
}

// NewFixture seeds a standard scenario: a community opening at 08:00 with a
// two-day horizon, one court inheriting the community policy, three morning
// slots, and a resident in a household.
func NewFixture(t *testing.T, database *db.DB) *Fixture {
	t.Helper()
	ctx := context.Background()

	community, err := database.Queries.CreateCommunity(ctx, db.CreateCommunityParams{
		Name:           "Los Olivos",
		Address:        "Calle Mayor 1",
		JoinCode:       "OLIVOS-2024",
		OpeningTime:    "08:00",
		MaxHorizonDays: 2,
	})
	if err != nil {
		t.Fatalf("seed community: %v", err)
	}

	court, err := database.Queries.CreateCourt(ctx, db.CreateCourtParams{
		CommunityID: community.ID,
		Name:        "Pista Central",
		Address:     community.Address,
	})
	if err != nil {
		t.Fatalf("seed court: %v", err)
	}

	starts := []string{"09:00", "10:30", "12:00"}
	ends := []string{"10:30", "12:00", "13:30"}
	slots := make([]db.TimeSlot, len(starts))
	for i := range starts {
		slot, err := database.Queries.CreateTimeSlot(ctx, db.CreateTimeSlotParams{
			CourtID:   court.ID,
			Label:     fmt.Sprintf("%s - %s", starts[i], ends[i]),
			StartTime: starts[i],
			EndTime:   ends[i],
		})
		if err != nil {
			t.Fatalf("seed timeslot: %v", err)
		}
		slots[i] = slot
	}

	household, err := database.Queries.CreateHousehold(ctx, db.CreateHouseholdParams{
		CommunityID: community.ID,
		Name:        "Portal 3, 2A",
	})
	if err != nil {
		t.Fatalf("seed household: %v", err)
	}

	resident := SeedUser(t, database, SeedUserParams{
		Email:       "resident@example.com",
		Name:        "Ana Torres",
		HouseholdID: household.ID,
		CommunityID: community.ID,
	})

	return &Fixture{
		Community: community,
		Court:     court,
		Slots:     slots,
		Household: household,
		Resident:  resident,
	}
}

type SeedUserParams struct {
	Email       string
	Name        string
	HouseholdID int64
	CommunityID int64
	IsStaff     bool
}

// SeedUser creates a user. Zero HouseholdID or CommunityID leaves the field
// NULL.
func SeedUser(t *testing.T, database *db.DB, params SeedUserParams) db.User {
	t.Helper()

	arg := db.CreateUserParams{
		Email:   params.Email,
		Name:    params.Name,
		IsStaff: params.IsStaff,
	}
	if params.HouseholdID != 0 {
		arg.HouseholdID = sql.NullInt64{Int64: params.HouseholdID, Valid: true}
	}
	if params.CommunityID != 0 {
		arg.CommunityID = sql.NullInt64{Int64: params.CommunityID, Valid: true}
	}

	user, err := database.Queries.CreateUser(context.Background(), arg)
	if err != nil {
		t.Fatalf("seed user %s: %v", params.Email, err)
	}
	return user
}
