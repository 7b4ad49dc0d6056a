// internal/db/models.go
package db

import (
	"database/sql"
	"time"
)

// DateLayout is the storage format for reservation dates.
const DateLayout = "2006-01-02"

// ClockLayout is the storage format for times of day (slot boundaries,
// policy opening times).
const ClockLayout = "15:04"

// Invitation status values.
const (
	InvitationStatusPending  = "pending"
	InvitationStatusAccepted = "accepted"
	InvitationStatusRejected = "rejected"
)

type Community struct {
	ID             int64
	Name           string
	Address        string
	JoinCode       string
	OpeningTime    string
	MaxHorizonDays int64
	CreatedAt      time.Time
}

type Court struct {
	ID          int64
	CommunityID int64
	Name        string
	Address     string
	// Policy override; invalid means fall back to the community.
	OpeningTime    sql.NullString
	MaxHorizonDays sql.NullInt64
	CreatedAt      time.Time
}

type TimeSlot struct {
	ID        int64
	CourtID   int64
	Label     string
	StartTime string
	EndTime   string
}

type Household struct {
	ID          int64
	CommunityID int64
	Name        string
	CreatedAt   time.Time
}

type User struct {
	ID              int64
	Email           string
	Name            string
	HouseholdID     sql.NullInt64
	CommunityID     sql.NullInt64
	IsStaff         bool
	TermsAcceptedAt sql.NullTime
	CreatedAt       time.Time
}

type Reservation struct {
	ID         int64
	UserID     int64
	CourtID    int64
	TimeslotID int64
	Date       string
	CreatedAt  time.Time
}

type ReservationCancelled struct {
	ID          int64
	UserID      int64
	CourtID     int64
	TimeslotID  int64
	Date        string
	CreatedAt   time.Time
	CancelledAt time.Time
}

type Invitation struct {
	ID            int64
	ReservationID int64
	InvitedUserID sql.NullInt64
	Email         string
	Name          string
	Token         string
	Status        string
	CreatedAt     time.Time
}

type ExternalGuest struct {
	ID          int64
	OwnerUserID int64
	Email       string
	Name        string
	CreatedAt   time.Time
}
