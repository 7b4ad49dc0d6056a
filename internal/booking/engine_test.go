// internal/booking/engine_test.go
package booking

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pistareserva/courtbook/internal/db"
	"github.com/pistareserva/courtbook/internal/testutil"
)

type mockClock struct {
	now time.Time
}

func (c *mockClock) Now() time.Time { return c.now }

// clockAt parses "2006-01-02 15:04" into a local time.
func clockAt(t *testing.T, value string) *mockClock {
	t.Helper()
	now, err := time.ParseInLocation("2006-01-02 15:04", value, time.Local)
	if err != nil {
		t.Fatalf("parse clock %q: %v", value, err)
	}
	return &mockClock{now: now}
}

func dateAt(t *testing.T, value string) time.Time {
	t.Helper()
	date, err := time.ParseInLocation(db.DateLayout, value, time.Local)
	if err != nil {
		t.Fatalf("parse date %q: %v", value, err)
	}
	return date
}

func newTestEngine(t *testing.T, clock Clock) (*Engine, *db.DB, *testutil.Fixture) {
	t.Helper()
	database := testutil.NewTestDB(t)
	fixture := testutil.NewFixture(t, database)
	engine, err := NewEngine(database, clock)
	if err != nil {
		t.Fatalf("create engine: %v", err)
	}
	return engine, database, fixture
}

func expectRejection(t *testing.T, err error, code RejectionCode) *Rejection {
	t.Helper()
	rejection, ok := AsRejection(err)
	if !ok {
		t.Fatalf("expected rejection %s, got %v", code, err)
	}
	if rejection.Code != code {
		t.Fatalf("expected rejection %s, got %s", code, rejection.Code)
	}
	return rejection
}

func TestSubmitAdmitsValidRequest(t *testing.T) {
	engine, _, fixture := newTestEngine(t, clockAt(t, "2024-06-10 12:00"))

	reservation, err := engine.Submit(context.Background(), SubmitParams{
		UserID:     fixture.Resident.ID,
		CourtID:    fixture.Court.ID,
		TimeslotID: fixture.Slots[0].ID,
		Date:       dateAt(t, "2024-06-11"),
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if reservation.ID == 0 {
		t.Fatal("expected persisted reservation id")
	}
	if reservation.Date != "2024-06-11" {
		t.Fatalf("expected date 2024-06-11, got %s", reservation.Date)
	}
}

func TestSubmitRejectsMismatchedSlot(t *testing.T) {
	engine, database, fixture := newTestEngine(t, clockAt(t, "2024-06-10 12:00"))
	ctx := context.Background()

	otherCourt, err := database.Queries.CreateCourt(ctx, db.CreateCourtParams{
		CommunityID: fixture.Community.ID,
		Name:        "Pista Norte",
	})
	if err != nil {
		t.Fatalf("create court: %v", err)
	}

	_, err = engine.Submit(ctx, SubmitParams{
		UserID:     fixture.Resident.ID,
		CourtID:    otherCourt.ID,
		TimeslotID: fixture.Slots[0].ID,
		Date:       dateAt(t, "2024-06-11"),
	})
	expectRejection(t, err, RejectMismatchedSlot)
}

func TestSubmitRejectsUserWithoutHousehold(t *testing.T) {
	engine, database, fixture := newTestEngine(t, clockAt(t, "2024-06-10 12:00"))

	loner := testutil.SeedUser(t, database, testutil.SeedUserParams{
		Email:       "loner@example.com",
		Name:        "Sin Vivienda",
		CommunityID: fixture.Community.ID,
	})

	_, err := engine.Submit(context.Background(), SubmitParams{
		UserID:     loner.ID,
		CourtID:    fixture.Court.ID,
		TimeslotID: fixture.Slots[0].ID,
		Date:       dateAt(t, "2024-06-11"),
	})
	expectRejection(t, err, RejectNoHousehold)
}

func TestSubmitRejectsPastDate(t *testing.T) {
	engine, _, fixture := newTestEngine(t, clockAt(t, "2024-06-10 12:00"))

	_, err := engine.Submit(context.Background(), SubmitParams{
		UserID:     fixture.Resident.ID,
		CourtID:    fixture.Court.ID,
		TimeslotID: fixture.Slots[0].ID,
		Date:       dateAt(t, "2024-06-09"),
	})
	expectRejection(t, err, RejectPastDate)
}

func TestSubmitRejectsBeyondHorizon(t *testing.T) {
	engine, _, fixture := newTestEngine(t, clockAt(t, "2024-06-10 12:00"))

	// Fixture horizon is 2 days; 3 days out is unreachable.
	_, err := engine.Submit(context.Background(), SubmitParams{
		UserID:     fixture.Resident.ID,
		CourtID:    fixture.Court.ID,
		TimeslotID: fixture.Slots[0].ID,
		Date:       dateAt(t, "2024-06-13"),
	})
	rejection := expectRejection(t, err, RejectBeyondHorizon)
	if rejection.MaxHorizonDays != 2 {
		t.Fatalf("expected horizon 2 in rejection, got %d", rejection.MaxHorizonDays)
	}
}

func TestSubmitHorizonDayUnlocksAtOpeningTime(t *testing.T) {
	// The farthest bookable day opens at 08:00. One minute before, the
	// request is refused; at 08:00 sharp it is admitted.
	engine, _, fixture := newTestEngine(t, clockAt(t, "2024-06-10 07:59"))
	ctx := context.Background()
	horizonDay := dateAt(t, "2024-06-12")

	_, err := engine.Submit(ctx, SubmitParams{
		UserID:     fixture.Resident.ID,
		CourtID:    fixture.Court.ID,
		TimeslotID: fixture.Slots[0].ID,
		Date:       horizonDay,
	})
	rejection := expectRejection(t, err, RejectHorizonNotOpen)
	if rejection.OpensAt != "08:00" {
		t.Fatalf("expected opens-at 08:00, got %s", rejection.OpensAt)
	}

	engine2, err := NewEngine(engineDB(engine), clockAt(t, "2024-06-10 08:00"))
	if err != nil {
		t.Fatalf("create engine: %v", err)
	}
	if _, err := engine2.Submit(ctx, SubmitParams{
		UserID:     fixture.Resident.ID,
		CourtID:    fixture.Court.ID,
		TimeslotID: fixture.Slots[0].ID,
		Date:       horizonDay,
	}); err != nil {
		t.Fatalf("submit at opening time: %v", err)
	}
}

// engineDB exposes the engine's database to rebuild engines with a shifted
// clock against the same state.
func engineDB(e *Engine) *db.DB { return e.db }

func TestSubmitRejectsSecondHouseholdReservationSameDay(t *testing.T) {
	engine, database, fixture := newTestEngine(t, clockAt(t, "2024-06-10 12:00"))
	ctx := context.Background()

	sibling := testutil.SeedUser(t, database, testutil.SeedUserParams{
		Email:       "sibling@example.com",
		Name:        "Luis Torres",
		HouseholdID: fixture.Household.ID,
		CommunityID: fixture.Community.ID,
	})

	if _, err := engine.Submit(ctx, SubmitParams{
		UserID:     fixture.Resident.ID,
		CourtID:    fixture.Court.ID,
		TimeslotID: fixture.Slots[0].ID,
		Date:       dateAt(t, "2024-06-11"),
	}); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	// Same household, different member, different slot, same day.
	_, err := engine.Submit(ctx, SubmitParams{
		UserID:     sibling.ID,
		CourtID:    fixture.Court.ID,
		TimeslotID: fixture.Slots[1].ID,
		Date:       dateAt(t, "2024-06-11"),
	})
	expectRejection(t, err, RejectHouseholdDailyLimit)

	// The next day is fine.
	if _, err := engine.Submit(ctx, SubmitParams{
		UserID:     sibling.ID,
		CourtID:    fixture.Court.ID,
		TimeslotID: fixture.Slots[1].ID,
		Date:       dateAt(t, "2024-06-12"),
	}); err != nil {
		t.Fatalf("submit next day: %v", err)
	}
}

func TestSubmitRejectsOccupiedSlot(t *testing.T) {
	engine, database, fixture := newTestEngine(t, clockAt(t, "2024-06-10 12:00"))
	ctx := context.Background()

	otherHousehold, err := database.Queries.CreateHousehold(ctx, db.CreateHouseholdParams{
		CommunityID: fixture.Community.ID,
		Name:        "Portal 1, 1B",
	})
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	neighbor := testutil.SeedUser(t, database, testutil.SeedUserParams{
		Email:       "neighbor@example.com",
		Name:        "Marta Gil",
		HouseholdID: otherHousehold.ID,
		CommunityID: fixture.Community.ID,
	})

	if _, err := engine.Submit(ctx, SubmitParams{
		UserID:     fixture.Resident.ID,
		CourtID:    fixture.Court.ID,
		TimeslotID: fixture.Slots[0].ID,
		Date:       dateAt(t, "2024-06-11"),
	}); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	_, err = engine.Submit(ctx, SubmitParams{
		UserID:     neighbor.ID,
		CourtID:    fixture.Court.ID,
		TimeslotID: fixture.Slots[0].ID,
		Date:       dateAt(t, "2024-06-11"),
	})
	expectRejection(t, err, RejectSlotAlreadyBooked)
}

func TestSubmitUsesCourtPolicyOverride(t *testing.T) {
	engine, database, fixture := newTestEngine(t, clockAt(t, "2024-06-10 12:00"))
	ctx := context.Background()

	// A court with a wider horizon than its community.
	relaxed, err := database.Queries.CreateCourt(ctx, db.CreateCourtParams{
		CommunityID:    fixture.Community.ID,
		Name:           "Pista Sur",
		OpeningTime:    nullString("10:00"),
		MaxHorizonDays: nullInt64(7),
	})
	if err != nil {
		t.Fatalf("create court: %v", err)
	}
	slot, err := database.Queries.CreateTimeSlot(ctx, db.CreateTimeSlotParams{
		CourtID:   relaxed.ID,
		Label:     "18:00 - 19:30",
		StartTime: "18:00",
		EndTime:   "19:30",
	})
	if err != nil {
		t.Fatalf("create timeslot: %v", err)
	}

	// Five days out exceeds the community horizon but not the court's.
	if _, err := engine.Submit(ctx, SubmitParams{
		UserID:     fixture.Resident.ID,
		CourtID:    relaxed.ID,
		TimeslotID: slot.ID,
		Date:       dateAt(t, "2024-06-15"),
	}); err != nil {
		t.Fatalf("submit within court horizon: %v", err)
	}
}

func nullString(s string) sql.NullString { return sql.NullString{String: s, Valid: true} }
func nullInt64(n int64) sql.NullInt64    { return sql.NullInt64{Int64: n, Valid: true} }

func TestListOccupiedSlots(t *testing.T) {
	engine, _, fixture := newTestEngine(t, clockAt(t, "2024-06-10 12:00"))
	ctx := context.Background()

	if _, err := engine.Submit(ctx, SubmitParams{
		UserID:     fixture.Resident.ID,
		CourtID:    fixture.Court.ID,
		TimeslotID: fixture.Slots[1].ID,
		Date:       dateAt(t, "2024-06-11"),
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	occupied, err := engine.ListOccupiedSlots(ctx, fixture.Court.ID, dateAt(t, "2024-06-11"))
	if err != nil {
		t.Fatalf("list occupied: %v", err)
	}
	if len(occupied) != 1 || occupied[0] != fixture.Slots[1].ID {
		t.Fatalf("expected occupied slot %d, got %v", fixture.Slots[1].ID, occupied)
	}

	empty, err := engine.ListOccupiedSlots(ctx, fixture.Court.ID, dateAt(t, "2024-06-12"))
	if err != nil {
		t.Fatalf("list occupied: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no occupied slots, got %v", empty)
	}
}

func TestCheckHorizonAcrossSpringForward(t *testing.T) {
	madrid, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		t.Skipf("timezone database unavailable: %v", err)
	}
	policy := Policy{OpeningTime: "08:00", MaxHorizonDays: 2}

	// Clocks jump forward on 2024-03-31, so the 29th to April 1st spans
	// only 71 wall-clock hours but three calendar days.
	now := time.Date(2024, time.March, 29, 10, 0, 0, 0, madrid)

	rejection, err := checkHorizon(now, time.Date(2024, time.April, 1, 0, 0, 0, 0, madrid), policy)
	if err != nil {
		t.Fatalf("checkHorizon: %v", err)
	}
	if rejection == nil || rejection.Code != RejectBeyondHorizon {
		t.Fatalf("expected %s for a three-day distance, got %+v", RejectBeyondHorizon, rejection)
	}

	// The farthest bookable day is still the farthest day, gated by the
	// opening time, not evaluated one day short.
	farthest := time.Date(2024, time.March, 31, 0, 0, 0, 0, madrid)

	rejection, err = checkHorizon(time.Date(2024, time.March, 29, 7, 30, 0, 0, madrid), farthest, policy)
	if err != nil {
		t.Fatalf("checkHorizon: %v", err)
	}
	if rejection == nil || rejection.Code != RejectHorizonNotOpen {
		t.Fatalf("expected %s before opening time, got %+v", RejectHorizonNotOpen, rejection)
	}

	rejection, err = checkHorizon(now, farthest, policy)
	if err != nil {
		t.Fatalf("checkHorizon: %v", err)
	}
	if rejection != nil {
		t.Fatalf("expected admission after opening time, got %+v", rejection)
	}
}

func TestSubmitConcurrentSameSlotSingleWinner(t *testing.T) {
	engine, database, fixture := newTestEngine(t, clockAt(t, "2024-06-10 12:00"))
	ctx := context.Background()

	const contenders = 4
	users := make([]db.User, contenders)
	users[0] = fixture.Resident
	for i := 1; i < contenders; i++ {
		household, err := database.Queries.CreateHousehold(ctx, db.CreateHouseholdParams{
			CommunityID: fixture.Community.ID,
			Name:        fmt.Sprintf("Portal 5, %dB", i),
		})
		if err != nil {
			t.Fatalf("create household: %v", err)
		}
		users[i] = testutil.SeedUser(t, database, testutil.SeedUserParams{
			Email:       fmt.Sprintf("vecino%d@example.com", i),
			Name:        fmt.Sprintf("Vecino %d", i),
			HouseholdID: household.ID,
			CommunityID: fixture.Community.ID,
		})
	}

	date := dateAt(t, "2024-06-11")
	errs := make([]error, contenders)
	var wg sync.WaitGroup
	for i := range users {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = engine.Submit(ctx, SubmitParams{
				UserID:     users[i].ID,
				CourtID:    fixture.Court.ID,
				TimeslotID: fixture.Slots[0].ID,
				Date:       date,
			})
		}(i)
	}
	wg.Wait()

	admitted := 0
	for _, err := range errs {
		if err == nil {
			admitted++
			continue
		}
		expectRejection(t, err, RejectSlotAlreadyBooked)
	}
	if admitted != 1 {
		t.Fatalf("expected exactly one admitted reservation, got %d", admitted)
	}

	occupied, err := engine.ListOccupiedSlots(ctx, fixture.Court.ID, date)
	if err != nil {
		t.Fatalf("list occupied: %v", err)
	}
	if len(occupied) != 1 || occupied[0] != fixture.Slots[0].ID {
		t.Fatalf("expected a single reservation for slot %d, got %v", fixture.Slots[0].ID, occupied)
	}
}
