// internal/email/invitation.go
package email

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const sendTimeout = 5 * time.Second

// SendInvitationEmail dispatches an invitation asynchronously. Delivery
// failures are logged and swallowed; they never surface to the caller.
func SendInvitationEmail(sender EmailSender, recipient string, details InvitationEmail, logger *zerolog.Logger) {
	if sender == nil {
		return
	}
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return
	}

	message := BuildInvitationEmail(details)
	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := sender.Send(sendCtx, recipient, message.Subject, message.Body); err != nil && logger != nil {
			logger.Error().Err(err).Str("recipient", recipient).Msg("Failed to send invitation email")
		}
	}()
}

// SendReminderEmail dispatches a match reminder asynchronously.
func SendReminderEmail(sender EmailSender, recipient string, details ReminderEmail, logger *zerolog.Logger) {
	if sender == nil {
		return
	}
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return
	}

	message := BuildReminderEmail(details)
	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := sender.Send(sendCtx, recipient, message.Subject, message.Body); err != nil && logger != nil {
			logger.Error().Err(err).Str("recipient", recipient).Msg("Failed to send reminder email")
		}
	}()
}
