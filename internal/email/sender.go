package email

import (
	"context"

	"github.com/rs/zerolog/log"
)

// EmailSender provides a testable abstraction over SES delivery.
type EmailSender interface {
	Send(ctx context.Context, recipient, subject, body string) error
	SendFrom(ctx context.Context, recipient, subject, body, sender string) error
}

// LogSender logs outgoing email instead of delivering it. Used in
// development when no SES credentials are configured.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, recipient, subject, body string) error {
	return LogSender{}.SendFrom(ctx, recipient, subject, body, "")
}

func (LogSender) SendFrom(ctx context.Context, recipient, subject, body, sender string) error {
	log.Ctx(ctx).Info().
		Str("recipient", recipient).
		Str("subject", subject).
		Msg("Email delivery skipped (log sender)")
	return nil
}
