package suggest

import (
	"context"
	"fmt"
	"time"

	"refzone/assignment-service/internal/model"
)

// Workload ceilings applied as hard exclusions per generation batch.
const (
	dailyAssignmentCap  = 4
	weeklyAssignmentCap = 15
)

// CandidatePool computes the referees eligible at all for a generation
// batch. Unlike the per-pair conflict checks, lookup failures here
// propagate: an incomplete candidate pool would silently bias every
// downstream suggestion.
type CandidatePool struct {
	referees     RefereeReader
	assignments  AssignmentReader
	availability AvailabilityReader
}

// NewCandidatePool wires the pool to its read ports.
func NewCandidatePool(referees RefereeReader, assignments AssignmentReader, availability AvailabilityReader) *CandidatePool {
	return &CandidatePool{referees: referees, assignments: assignments, availability: availability}
}

// EligibleReferees applies one exclusion set uniformly across the batch:
// referees already assigned to a requested game, referees at the daily cap
// on any date in the batch, referees at the weekly cap, referees with an
// unavailability window overlapping a requested game, and referees not
// generally available.
//
// The weekly cap is an approximation carried over from the original
// behavior: it is computed once from the batch's minimum game date
// (Sunday-start week), so batches spanning multiple weeks are judged
// against the earliest week only.
func (p *CandidatePool) EligibleReferees(ctx context.Context, games []model.Game) ([]model.Referee, error) {
	if len(games) == 0 {
		return nil, nil
	}

	referees, err := p.referees.ListReferees(ctx)
	if err != nil {
		return nil, fmt.Errorf("list referees: %w", err)
	}

	gameIDs := make([]string, len(games))
	for i, g := range games {
		gameIDs[i] = g.ID
	}
	assigned, err := p.assignments.ActiveRefereeIDsForGames(ctx, gameIDs)
	if err != nil {
		return nil, fmt.Errorf("assigned referees: %w", err)
	}

	atDailyCap := make(map[string]bool)
	for _, date := range batchDates(games) {
		counts, err := p.assignments.ActiveCountsOn(ctx, date)
		if err != nil {
			return nil, fmt.Errorf("daily workload on %s: %w", date.Format("2006-01-02"), err)
		}
		for id, n := range counts {
			if n >= dailyAssignmentCap {
				atDailyCap[id] = true
			}
		}
	}

	weekStart, weekEnd := weekBounds(minDate(games))
	weekCounts, err := p.assignments.ActiveCountsBetween(ctx, weekStart, weekEnd)
	if err != nil {
		return nil, fmt.Errorf("weekly workload: %w", err)
	}

	unavailable, err := p.availability.UnavailableRefereeIDs(ctx, games)
	if err != nil {
		return nil, fmt.Errorf("unavailability windows: %w", err)
	}

	eligible := make([]model.Referee, 0, len(referees))
	for _, r := range referees {
		if !r.IsAvailable {
			continue
		}
		if assigned[r.ID] || atDailyCap[r.ID] || unavailable[r.ID] {
			continue
		}
		if weekCounts[r.ID] >= weeklyAssignmentCap {
			continue
		}
		eligible = append(eligible, r)
	}
	return eligible, nil
}

// batchDates returns the distinct calendar dates in the batch, in first-seen
// order.
func batchDates(games []model.Game) []time.Time {
	seen := make(map[string]bool)
	var dates []time.Time
	for _, g := range games {
		key := g.Date.Format("2006-01-02")
		if !seen[key] {
			seen[key] = true
			dates = append(dates, g.Date)
		}
	}
	return dates
}

func minDate(games []model.Game) time.Time {
	min := games[0].Date
	for _, g := range games[1:] {
		if g.Date.Before(min) {
			min = g.Date
		}
	}
	return min
}

// weekBounds returns the Sunday-start week containing d, inclusive on both
// ends.
func weekBounds(d time.Time) (time.Time, time.Time) {
	start := d.AddDate(0, 0, -int(d.Weekday()))
	return start, start.AddDate(0, 0, 6)
}
