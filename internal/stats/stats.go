// internal/stats/stats.go

// Package stats aggregates read-only reporting figures over reservations,
// the cancellation archive, and invitations. Nothing here mutates state.
package stats

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/pistareserva/courtbook/internal/db"
)

const defaultTopUsers = 10

type Service struct {
	db *db.DB
}

func NewService(database *db.DB) (*Service, error) {
	if database == nil {
		return nil, errors.New("stats service requires a database")
	}
	return &Service{db: database}, nil
}

// Range is an inclusive calendar-day window.
type Range struct {
	From time.Time
	To   time.Time
}

func (r Range) params() db.DateRangeParams {
	return db.DateRangeParams{
		FromDate: r.From.Format(db.DateLayout),
		ToDate:   r.To.Format(db.DateLayout),
	}
}

// days counts calendar days in the window, inclusive. Endpoints are
// normalized to UTC midnights so daylight-saving transitions inside the
// window cannot shorten the count.
func (r Range) days() int64 {
	from := time.Date(r.From.Year(), r.From.Month(), r.From.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(r.To.Year(), r.To.Month(), r.To.Day(), 0, 0, 0, 0, time.UTC)
	d := int64(to.Sub(from).Hours()/24) + 1
	if d < 1 {
		return 1
	}
	return d
}

type CourtOccupancy struct {
	CourtName    string  `json:"court_name"`
	Reservations int64   `json:"reservations"`
	OccupancyPct float64 `json:"occupancy_pct"`
}

// OccupancyByCourt reports the share of available slots booked per court in
// the range.
func (s *Service) OccupancyByCourt(ctx context.Context, r Range) ([]CourtOccupancy, error) {
	counts, err := s.db.Queries.ReservationCountsByCourt(ctx, r.params())
	if err != nil {
		return nil, fmt.Errorf("reservation counts by court: %w", err)
	}

	days := r.days()
	occupancy := make([]CourtOccupancy, len(counts))
	for i, count := range counts {
		var pct float64
		if total := count.SlotCount * days; total > 0 {
			pct = roundPct(float64(count.Total) / float64(total) * 100)
		}
		occupancy[i] = CourtOccupancy{
			CourtName:    count.CourtName,
			Reservations: count.Total,
			OccupancyPct: pct,
		}
	}
	return occupancy, nil
}

type CancellationRate struct {
	Active    int64   `json:"active"`
	Cancelled int64   `json:"cancelled"`
	RatePct   float64 `json:"rate_pct"`
}

// Cancellations reports how many reservations in the range were cancelled
// relative to those that stayed active.
func (s *Service) Cancellations(ctx context.Context, r Range) (CancellationRate, error) {
	active, err := s.db.Queries.CountReservationsBetween(ctx, r.params())
	if err != nil {
		return CancellationRate{}, fmt.Errorf("count reservations: %w", err)
	}
	cancelled, err := s.db.Queries.CountCancelledBetween(ctx, r.params())
	if err != nil {
		return CancellationRate{}, fmt.Errorf("count cancelled: %w", err)
	}

	rate := CancellationRate{Active: active, Cancelled: cancelled}
	if sum := active + cancelled; sum > 0 {
		rate.RatePct = roundPct(float64(cancelled) / float64(sum) * 100)
	}
	return rate, nil
}

type LastMinuteCancellations struct {
	LastMinute int64   `json:"last_minute"`
	Total      int64   `json:"total"`
	RatioPct   float64 `json:"ratio_pct"`
}

// LastMinute reports cancellations made within maxHours of the reserved day.
func (s *Service) LastMinute(ctx context.Context, r Range, maxHours float64) (LastMinuteCancellations, error) {
	total, err := s.db.Queries.CountCancelledBetween(ctx, r.params())
	if err != nil {
		return LastMinuteCancellations{}, fmt.Errorf("count cancelled: %w", err)
	}
	if total == 0 {
		return LastMinuteCancellations{}, nil
	}

	p := r.params()
	lastMinute, err := s.db.Queries.CountLastMinuteCancellations(ctx, db.LastMinuteCancellationsParams{
		FromDate: p.FromDate,
		ToDate:   p.ToDate,
		MaxHours: maxHours,
	})
	if err != nil {
		return LastMinuteCancellations{}, fmt.Errorf("count last-minute cancellations: %w", err)
	}

	return LastMinuteCancellations{
		LastMinute: lastMinute,
		Total:      total,
		RatioPct:   roundPct(float64(lastMinute) / float64(total) * 100),
	}, nil
}

type InvitationKPIs struct {
	Sent          int64   `json:"sent"`
	Accepted      int64   `json:"accepted"`
	AcceptancePct float64 `json:"acceptance_pct"`
}

// Invitations reports invitation volume and acceptance for matches in the
// range.
func (s *Service) Invitations(ctx context.Context, r Range) (InvitationKPIs, error) {
	counts, err := s.db.Queries.InvitationCountsBetween(ctx, r.params())
	if err != nil {
		return InvitationKPIs{}, fmt.Errorf("invitation counts: %w", err)
	}

	kpis := InvitationKPIs{Sent: counts.Sent, Accepted: counts.Accepted}
	if counts.Sent > 0 {
		kpis.AcceptancePct = roundPct(float64(counts.Accepted) / float64(counts.Sent) * 100)
	}
	return kpis, nil
}

type ActiveUser struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	Reservations int64  `json:"reservations"`
}

// TopUsers ranks the most active reservation holders in the range.
func (s *Service) TopUsers(ctx context.Context, r Range, limit int64) ([]ActiveUser, error) {
	if limit <= 0 {
		limit = defaultTopUsers
	}
	p := r.params()
	rows, err := s.db.Queries.TopUsersByReservations(ctx, db.TopUsersParams{
		FromDate: p.FromDate,
		ToDate:   p.ToDate,
		Limit:    limit,
	})
	if err != nil {
		return nil, fmt.Errorf("top users: %w", err)
	}

	users := make([]ActiveUser, len(rows))
	for i, row := range rows {
		users[i] = ActiveUser{Email: row.Email, Name: row.Name, Reservations: row.Total}
	}
	return users, nil
}

type SlotPopularity struct {
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	Reservations int64  `json:"reservations"`
}

// PopularSlots ranks time-of-day slots by reservation volume in the range.
func (s *Service) PopularSlots(ctx context.Context, r Range) ([]SlotPopularity, error) {
	rows, err := s.db.Queries.ReservationCountsByTimeSlot(ctx, r.params())
	if err != nil {
		return nil, fmt.Errorf("reservation counts by slot: %w", err)
	}

	slots := make([]SlotPopularity, len(rows))
	for i, row := range rows {
		slots[i] = SlotPopularity{StartTime: row.StartTime, EndTime: row.EndTime, Reservations: row.Total}
	}
	return slots, nil
}

// AverageLeadDays reports the mean booking lead time in days.
func (s *Service) AverageLeadDays(ctx context.Context, r Range) (float64, error) {
	avg, err := s.db.Queries.AverageLeadDays(ctx, r.params())
	if err != nil {
		return 0, fmt.Errorf("average lead days: %w", err)
	}
	return math.Round(avg*100) / 100, nil
}

func roundPct(pct float64) float64 {
	return math.Round(pct*10) / 10
}
