// internal/booking/engine.go

// Package booking implements the reservation admission engine: the ordered
// policy checks that decide whether a court booking request is admitted, the
// cancellation-to-archive transition, and the occupied-slot calendar lookup.
package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pistareserva/courtbook/internal/db"
)

type Engine struct {
	db    *db.DB
	clock Clock
}

// NewEngine creates an admission engine. A nil clock uses system time.
func NewEngine(database *db.DB, clock Clock) (*Engine, error) {
	if database == nil {
		return nil, errors.New("booking engine requires a database")
	}
	if clock == nil {
		clock = realClock{}
	}
	return &Engine{db: database, clock: clock}, nil
}

type SubmitParams struct {
	UserID     int64
	CourtID    int64
	TimeslotID int64
	Date       time.Time
}

// Submit validates a reservation request and atomically creates it. Policy
// outcomes come back as *Rejection; anything else is a genuine failure.
//
// Checks run in order and short-circuit: slot/court match, household
// membership, date window (past, beyond horizon, horizon not open yet),
// household daily cap, then slot conflict. The conflict check and the insert
// run in one transaction, with the storage UNIQUE constraint on
// (court, timeslot, date) as the backstop for concurrent winners.
func (e *Engine) Submit(ctx context.Context, params SubmitParams) (db.Reservation, error) {
	logger := log.Ctx(ctx).With().
		Str("component", "booking_engine").
		Int64("user_id", params.UserID).
		Int64("court_id", params.CourtID).
		Int64("timeslot_id", params.TimeslotID).
		Str("date", params.Date.Format(db.DateLayout)).
		Logger()

	slot, err := e.db.Queries.GetTimeSlot(ctx, params.TimeslotID)
	if err != nil {
		return db.Reservation{}, fmt.Errorf("load timeslot %d: %w", params.TimeslotID, err)
	}
	if slot.CourtID != params.CourtID {
		return db.Reservation{}, &Rejection{Code: RejectMismatchedSlot}
	}

	user, err := e.db.Queries.GetUserByID(ctx, params.UserID)
	if err != nil {
		return db.Reservation{}, fmt.Errorf("load user %d: %w", params.UserID, err)
	}
	if !user.HouseholdID.Valid {
		return db.Reservation{}, &Rejection{Code: RejectNoHousehold}
	}

	court, err := e.db.Queries.GetCourt(ctx, params.CourtID)
	if err != nil {
		return db.Reservation{}, fmt.Errorf("load court %d: %w", params.CourtID, err)
	}
	community, err := e.db.Queries.GetCommunity(ctx, court.CommunityID)
	if err != nil {
		return db.Reservation{}, fmt.Errorf("load community %d: %w", court.CommunityID, err)
	}
	policy, err := ResolvePolicy(court, community)
	if err != nil {
		return db.Reservation{}, err
	}

	now := e.clock.Now()
	if rejection, err := checkHorizon(now, params.Date, policy); err != nil {
		return db.Reservation{}, err
	} else if rejection != nil {
		logger.Debug().Str("rejection", string(rejection.Code)).Msg("Reservation rejected by horizon policy")
		return db.Reservation{}, rejection
	}

	date := params.Date.Format(db.DateLayout)
	var reservation db.Reservation
	err = e.db.RunInTx(ctx, func(txdb *db.DB) error {
		held, err := txdb.Queries.CountHouseholdReservationsOnDate(ctx, db.HouseholdReservationsOnDateParams{
			HouseholdID: user.HouseholdID.Int64,
			Date:        date,
		})
		if err != nil {
			return fmt.Errorf("count household reservations: %w", err)
		}
		if held > 0 {
			return &Rejection{Code: RejectHouseholdDailyLimit}
		}

		taken, err := txdb.Queries.SlotReservationExists(ctx, db.SlotReservationExistsParams{
			CourtID:    params.CourtID,
			TimeslotID: params.TimeslotID,
			Date:       date,
		})
		if err != nil {
			return fmt.Errorf("check slot conflict: %w", err)
		}
		if taken {
			return &Rejection{Code: RejectSlotAlreadyBooked}
		}

		reservation, err = txdb.Queries.CreateReservation(ctx, db.CreateReservationParams{
			UserID:     params.UserID,
			CourtID:    params.CourtID,
			TimeslotID: params.TimeslotID,
			Date:       date,
			CreatedAt:  now,
		})
		if err != nil {
			// A concurrent winner inserted between the check and our
			// insert; surface the same rejection as the explicit check.
			if db.IsUniqueViolation(err) {
				return &Rejection{Code: RejectSlotAlreadyBooked}
			}
			return fmt.Errorf("insert reservation: %w", err)
		}
		return nil
	})
	if err != nil {
		return db.Reservation{}, err
	}

	logger.Info().Int64("reservation_id", reservation.ID).Msg("Reservation created")
	return reservation, nil
}

// checkHorizon evaluates the rolling booking window: past dates are refused,
// dates beyond the horizon are refused, and the farthest bookable day only
// unlocks at the policy's opening time.
func checkHorizon(now, date time.Time, policy Policy) (*Rejection, error) {
	horizonDays := calendarDays(now, date)

	switch {
	case horizonDays < 0:
		return &Rejection{Code: RejectPastDate}, nil
	case horizonDays > policy.MaxHorizonDays:
		return &Rejection{Code: RejectBeyondHorizon, MaxHorizonDays: policy.MaxHorizonDays}, nil
	case horizonDays == policy.MaxHorizonDays:
		opensAt, err := minuteOfDay(policy.OpeningTime)
		if err != nil {
			return nil, fmt.Errorf("policy opening time: %w", err)
		}
		if now.Hour()*60+now.Minute() < opensAt {
			return &Rejection{Code: RejectHorizonNotOpen, OpensAt: policy.OpeningTime}, nil
		}
	}
	return nil, nil
}

// calendarDays counts whole calendar days from a to b. Both dates are
// normalized to UTC midnights first so daylight-saving transitions inside
// the window cannot shorten the count.
func calendarDays(a, b time.Time) int64 {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int64(bu.Sub(au).Hours() / 24)
}

// ListOccupiedSlots returns the timeslot ids already reserved for a court on
// a date, for calendar rendering.
func (e *Engine) ListOccupiedSlots(ctx context.Context, courtID int64, date time.Time) ([]int64, error) {
	if _, err := e.db.Queries.GetCourt(ctx, courtID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("court %d: %w", courtID, err)
		}
		return nil, fmt.Errorf("load court %d: %w", courtID, err)
	}
	return e.db.Queries.ListOccupiedTimeSlotIDs(ctx, db.OccupiedTimeSlotsParams{
		CourtID: courtID,
		Date:    date.Format(db.DateLayout),
	})
}

// ListUserReservations returns a user's reservations from today forward.
func (e *Engine) ListUserReservations(ctx context.Context, userID int64) ([]db.Reservation, error) {
	reservations, err := e.db.Queries.ListReservationsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list reservations for user %d: %w", userID, err)
	}
	today := e.clock.Now().Format(db.DateLayout)
	upcoming := reservations[:0]
	for _, r := range reservations {
		if r.Date >= today {
			upcoming = append(upcoming, r)
		}
	}
	return upcoming, nil
}
