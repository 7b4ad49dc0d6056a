// internal/booking/errors.go
package booking

import (
	"errors"
	"fmt"
)

// ErrForbidden is returned when an actor is neither the reservation owner
// nor staff.
var ErrForbidden = errors.New("actor may not modify this reservation")

// ErrNoPolicy is returned when neither the court nor its community defines
// an admission policy.
var ErrNoPolicy = errors.New("no admission policy configured for court or community")

// RejectionCode identifies why a reservation request was not admitted.
type RejectionCode string

const (
	RejectMismatchedSlot      RejectionCode = "mismatched_slot"
	RejectNoHousehold         RejectionCode = "no_household"
	RejectPastDate            RejectionCode = "past_date"
	RejectBeyondHorizon       RejectionCode = "beyond_horizon"
	RejectHorizonNotOpen      RejectionCode = "horizon_not_open"
	RejectHouseholdDailyLimit RejectionCode = "household_daily_limit"
	RejectSlotAlreadyBooked   RejectionCode = "slot_already_booked"
)

// Rejection is a policy outcome, not a failure: callers render an exact
// user-facing message from the code and its parameters.
type Rejection struct {
	Code RejectionCode
	// MaxHorizonDays is set for beyond_horizon rejections.
	MaxHorizonDays int64
	// OpensAt is set for horizon_not_open rejections ("15:04").
	OpensAt string
}

func (r *Rejection) Error() string {
	switch r.Code {
	case RejectMismatchedSlot:
		return "time slot does not belong to the requested court"
	case RejectNoHousehold:
		return "user must belong to a household to reserve"
	case RejectPastDate:
		return "reservations cannot be made for past dates"
	case RejectBeyondHorizon:
		return fmt.Sprintf("reservations open at most %d days ahead", r.MaxHorizonDays)
	case RejectHorizonNotOpen:
		return fmt.Sprintf("bookings for that day open at %s", r.OpensAt)
	case RejectHouseholdDailyLimit:
		return "household already holds a reservation on that date"
	case RejectSlotAlreadyBooked:
		return "slot is already booked"
	}
	return string(r.Code)
}

// AsRejection unwraps err into a Rejection if it is one.
func AsRejection(err error) (*Rejection, bool) {
	var rejection *Rejection
	if errors.As(err, &rejection) {
		return rejection, true
	}
	return nil, false
}
