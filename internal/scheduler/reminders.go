// internal/scheduler/reminders.go
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pistareserva/courtbook/internal/db"
	"github.com/pistareserva/courtbook/internal/email"
)

const reminderJobTimeout = 2 * time.Minute

// RegisterReminderJob schedules the daily match reminder: owners and
// accepted guests of tomorrow's reservations each get an email.
func RegisterReminderJob(svc *Service, database *db.DB, sender email.EmailSender, cronExpr string) error {
	if svc == nil || database == nil {
		return fmt.Errorf("reminder job requires scheduler and database")
	}

	jobName := "match_reminders"
	jobLogger := log.With().
		Str("component", "match_reminders_job").
		Str("job_name", jobName).
		Logger()

	_, err := svc.AddJob(jobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), reminderJobTimeout)
		defer cancel()
		ctx = jobLogger.WithContext(ctx)

		if sender == nil {
			jobLogger.Debug().Msg("Reminder job skipped: email sender not configured")
			return
		}

		tomorrow := time.Now().AddDate(0, 0, 1).Format(db.DateLayout)
		reservations, err := database.Queries.ListReservationsOnDate(ctx, tomorrow)
		if err != nil {
			jobLogger.Error().Err(err).Msg("Failed to load reservations for reminder job")
			return
		}
		if len(reservations) == 0 {
			return
		}
		jobLogger.Info().Int("reservation_count", len(reservations)).Str("date", tomorrow).Msg("Sending match reminders")

		for _, reservation := range reservations {
			resLogger := jobLogger.With().Int64("reservation_id", reservation.ID).Logger()

			email.SendReminderEmail(sender, reservation.OwnerEmail, email.ReminderEmail{
				RecipientName: reservation.OwnerName,
				CourtName:     reservation.CourtName,
				Date:          reservation.Date,
				SlotLabel:     reservation.SlotLabel,
			}, &resLogger)

			guests, err := database.Queries.ListAcceptedInvitationsForReservation(ctx, reservation.ID)
			if err != nil {
				resLogger.Error().Err(err).Msg("Failed to load accepted guests for reminder")
				continue
			}
			for _, guest := range guests {
				email.SendReminderEmail(sender, guest.Email, email.ReminderEmail{
					RecipientName: guest.Name,
					CourtName:     reservation.CourtName,
					Date:          reservation.Date,
					SlotLabel:     reservation.SlotLabel,
				}, &resLogger)
			}
		}
	})
	return err
}
