// internal/email/templates.go
package email

import (
	"fmt"
	"strings"
)

// Message is a rendered plain-text email.
type Message struct {
	Subject string
	Body    string
}

// InvitationEmail carries the details rendered into a guest invitation,
// including the tokenized accept/reject links.
type InvitationEmail struct {
	GuestName string
	HostName  string
	CourtName string
	Date      string
	SlotLabel string
	AcceptURL string
	RejectURL string
}

// BuildInvitationEmail renders the invite sent to a guest when an
// invitation row is first created.
func BuildInvitationEmail(details InvitationEmail) Message {
	guest := strings.TrimSpace(details.GuestName)
	if guest == "" {
		guest = "there"
	}
	host := strings.TrimSpace(details.HostName)
	if host == "" {
		host = "A neighbor"
	}
	court := strings.TrimSpace(details.CourtName)
	if court == "" {
		court = "the court"
	}

	lines := []string{
		fmt.Sprintf("Hi %s,", guest),
		"",
		fmt.Sprintf("%s has invited you to a match.", host),
		"",
		fmt.Sprintf("Court: %s", court),
		fmt.Sprintf("Date: %s", details.Date),
		fmt.Sprintf("Time: %s", details.SlotLabel),
		"",
		fmt.Sprintf("Accept: %s", details.AcceptURL),
		fmt.Sprintf("Decline: %s", details.RejectURL),
	}

	return Message{
		Subject: fmt.Sprintf("%s invited you to play at %s", host, court),
		Body:    strings.Join(lines, "\n"),
	}
}

// ReminderEmail carries the details rendered into the day-before match
// reminder sent to owners and accepted guests.
type ReminderEmail struct {
	RecipientName string
	CourtName     string
	Date          string
	SlotLabel     string
}

func BuildReminderEmail(details ReminderEmail) Message {
	recipient := strings.TrimSpace(details.RecipientName)
	if recipient == "" {
		recipient = "there"
	}
	court := strings.TrimSpace(details.CourtName)
	if court == "" {
		court = "the court"
	}

	lines := []string{
		fmt.Sprintf("Hi %s,", recipient),
		"",
		"You have a match coming up.",
		"",
		fmt.Sprintf("Court: %s", court),
		fmt.Sprintf("Date: %s", details.Date),
		fmt.Sprintf("Time: %s", details.SlotLabel),
	}

	return Message{
		Subject: fmt.Sprintf("Match reminder - %s", court),
		Body:    strings.Join(lines, "\n"),
	}
}
