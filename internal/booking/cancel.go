// internal/booking/cancel.go
package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/pistareserva/courtbook/internal/db"
)

// errAlreadyCancelled signals that another cancel won the race inside the
// transaction; the caller treats it as success.
var errAlreadyCancelled = errors.New("reservation already cancelled")

// Archiver moves reservations from active to the cancelled archive.
type Archiver struct {
	db    *db.DB
	clock Clock
}

// NewArchiver creates a cancellation archiver. A nil clock uses system time.
func NewArchiver(database *db.DB, clock Clock) (*Archiver, error) {
	if database == nil {
		return nil, errors.New("cancellation archiver requires a database")
	}
	if clock == nil {
		clock = realClock{}
	}
	return &Archiver{db: database, clock: clock}, nil
}

// Cancel archives and deletes a reservation in one transaction. Only the
// owner or staff may cancel. Retrying a cancel whose reservation is already
// gone succeeds without writing a second archive row.
func (a *Archiver) Cancel(ctx context.Context, reservationID int64, actor db.User) error {
	logger := log.Ctx(ctx).With().
		Str("component", "cancellation_archiver").
		Int64("reservation_id", reservationID).
		Int64("actor_id", actor.ID).
		Logger()

	reservation, err := a.db.Queries.GetReservation(ctx, reservationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Debug().Msg("Reservation already cancelled")
			return nil
		}
		return fmt.Errorf("load reservation %d: %w", reservationID, err)
	}

	if reservation.UserID != actor.ID && !actor.IsStaff {
		return ErrForbidden
	}

	cancelledAt := a.clock.Now()
	err = a.db.RunInTx(ctx, func(txdb *db.DB) error {
		deleted, err := txdb.Queries.DeleteReservation(ctx, reservation.ID)
		if err != nil {
			return fmt.Errorf("delete reservation: %w", err)
		}
		if deleted == 0 {
			return errAlreadyCancelled
		}

		_, err = txdb.Queries.CreateCancelledReservation(ctx, db.CreateCancelledReservationParams{
			UserID:      reservation.UserID,
			CourtID:     reservation.CourtID,
			TimeslotID:  reservation.TimeslotID,
			Date:        reservation.Date,
			CreatedAt:   reservation.CreatedAt,
			CancelledAt: cancelledAt,
		})
		if err != nil {
			return fmt.Errorf("insert cancelled reservation: %w", err)
		}
		return nil
	})
	if errors.Is(err, errAlreadyCancelled) {
		logger.Debug().Msg("Reservation already cancelled")
		return nil
	}
	if err != nil {
		return err
	}

	logger.Info().Time("cancelled_at", cancelledAt).Msg("Reservation cancelled and archived")
	return nil
}

// Archive returns the cancellation archive, newest first. Staff only; the
// caller enforces that.
func (a *Archiver) Archive(ctx context.Context) ([]db.ReservationCancelled, error) {
	return a.db.Queries.ListCancelledReservations(ctx)
}
