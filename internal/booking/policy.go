// internal/booking/policy.go
package booking

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pistareserva/courtbook/internal/db"
)

// Policy is the effective admission policy for one court: the furthest
// bookable day offset and the time of day the farthest day unlocks.
type Policy struct {
	OpeningTime    string // "15:04"
	MaxHorizonDays int64
}

// ResolvePolicy returns the court's own policy when both override fields are
// set, otherwise the community default. Courts carry overrides only as a
// pair; a half-set override falls back entirely.
func ResolvePolicy(court db.Court, community db.Community) (Policy, error) {
	if court.OpeningTime.Valid && court.MaxHorizonDays.Valid {
		return Policy{
			OpeningTime:    court.OpeningTime.String,
			MaxHorizonDays: court.MaxHorizonDays.Int64,
		}, nil
	}
	if community.OpeningTime == "" {
		return Policy{}, ErrNoPolicy
	}
	return Policy{
		OpeningTime:    community.OpeningTime,
		MaxHorizonDays: community.MaxHorizonDays,
	}, nil
}

// minuteOfDay parses an "HH:MM" clock string into minutes since midnight.
func minuteOfDay(clock string) (int, error) {
	parts := strings.SplitN(clock, ":", 3)
	if len(parts) < 2 {
		return 0, fmt.Errorf("invalid clock time %q", clock)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid clock time %q", clock)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid clock time %q", clock)
	}
	return hour*60 + minute, nil
}
