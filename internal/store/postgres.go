// Package store implements the suggestion engine's storage ports on
// PostgreSQL via pgx. Games, referees and availability windows are owned by
// the scheduling and roster subsystems and are only read here; assignments
// are inserted on acceptance and the suggestions table is fully owned.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"refzone/assignment-service/internal/model"
)

// nonTerminal is the assignment status set that counts toward workload and
// conflict checks.
const nonTerminal = `('pending','accepted','completed')`

// Store is the pgx-backed implementation of every port in the suggest
// package.
type Store struct {
	pool *pgxpool.Pool
}

// New returns a Store over the given pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// ─── Games and referees ───────────────────────────────────────────────────────

// GamesByIDs returns the games matching ids; unknown ids are skipped.
func (s *Store) GamesByIDs(ctx context.Context, ids []string) ([]model.Game, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, game_date, to_char(game_time, 'HH24:MI'), venue, postal_code, level
		 FROM games
		 WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("gamesByIDs query: %w", err)
	}
	defer rows.Close()

	var games []model.Game
	for rows.Next() {
		var g model.Game
		if err := rows.Scan(&g.ID, &g.Date, &g.StartTime, &g.Venue, &g.PostalCode, &g.Level); err != nil {
			return nil, fmt.Errorf("gamesByIDs scan: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// ListReferees returns the full roster, including referees not generally
// available; the candidate pool applies that filter itself.
func (s *Store) ListReferees(ctx context.Context) ([]model.Referee, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, postal_code, level, is_available FROM referees`,
	)
	if err != nil {
		return nil, fmt.Errorf("listReferees query: %w", err)
	}
	defer rows.Close()

	var referees []model.Referee
	for rows.Next() {
		var r model.Referee
		if err := rows.Scan(&r.ID, &r.Name, &r.PostalCode, &r.Level, &r.IsAvailable); err != nil {
			return nil, fmt.Errorf("listReferees scan: %w", err)
		}
		referees = append(referees, r)
	}
	return referees, rows.Err()
}

// ─── Assignments ─────────────────────────────────────────────────────────────

// ActiveRefereeIDsForGames returns referees holding a non-terminal
// assignment to any of the given games.
func (s *Store) ActiveRefereeIDsForGames(ctx context.Context, gameIDs []string) (map[string]bool, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT referee_id FROM assignments
		 WHERE game_id = ANY($1) AND status IN `+nonTerminal,
		gameIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("activeRefereeIDsForGames query: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("activeRefereeIDsForGames scan: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// ActiveCountsOn returns per-referee non-terminal assignment counts for
// games on the given date.
func (s *Store) ActiveCountsOn(ctx context.Context, date time.Time) (map[string]int, error) {
	return s.activeCounts(ctx,
		`SELECT a.referee_id, COUNT(*)
		 FROM assignments a
		 JOIN games g ON g.id = a.game_id
		 WHERE g.game_date = $1::date AND a.status IN `+nonTerminal+`
		 GROUP BY a.referee_id`,
		date,
	)
}

// ActiveCountsBetween returns per-referee non-terminal assignment counts for
// games dated within [from, to] inclusive.
func (s *Store) ActiveCountsBetween(ctx context.Context, from, to time.Time) (map[string]int, error) {
	return s.activeCounts(ctx,
		`SELECT a.referee_id, COUNT(*)
		 FROM assignments a
		 JOIN games g ON g.id = a.game_id
		 WHERE g.game_date BETWEEN $1::date AND $2::date AND a.status IN `+nonTerminal+`
		 GROUP BY a.referee_id`,
		from, to,
	)
}

func (s *Store) activeCounts(ctx context.Context, query string, args ...any) (map[string]int, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("activeCounts query: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("activeCounts scan: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// BookingsOn returns one referee's non-terminal assignments on a date,
// joined with each game's time and venue postal code.
func (s *Store) BookingsOn(ctx context.Context, refereeID string, date time.Time) ([]model.Booking, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT a.game_id, a.referee_id, a.status,
		        g.game_date, to_char(g.game_time, 'HH24:MI'), g.postal_code
		 FROM assignments a
		 JOIN games g ON g.id = a.game_id
		 WHERE a.referee_id = $1 AND g.game_date = $2::date AND a.status IN `+nonTerminal,
		refereeID, date,
	)
	if err != nil {
		return nil, fmt.Errorf("bookingsOn query: %w", err)
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.GameID, &b.RefereeID, &b.Status, &b.GameDate, &b.GameTime, &b.PostalCode); err != nil {
			return nil, fmt.Errorf("bookingsOn scan: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// ─── Availability ────────────────────────────────────────────────────────────

// WindowsOn returns the windows a referee declared for a date.
func (s *Store) WindowsOn(ctx context.Context, refereeID string, date time.Time) ([]model.AvailabilityWindow, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT referee_id, date, to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'),
		        is_available, reason
		 FROM referee_availability
		 WHERE referee_id = $1 AND date = $2::date`,
		refereeID, date,
	)
	if err != nil {
		return nil, fmt.Errorf("windowsOn query: %w", err)
	}
	defer rows.Close()

	var windows []model.AvailabilityWindow
	for rows.Next() {
		var w model.AvailabilityWindow
		if err := rows.Scan(&w.RefereeID, &w.Date, &w.StartTime, &w.EndTime, &w.IsAvailable, &w.Reason); err != nil {
			return nil, fmt.Errorf("windowsOn scan: %w", err)
		}
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

// UnavailableRefereeIDs returns referees with an explicit unavailability
// window overlapping any given game's assumed interval. The window rows are
// fetched per batch date and the minute-level overlap is computed here.
func (s *Store) UnavailableRefereeIDs(ctx context.Context, games []model.Game) (map[string]bool, error) {
	dates := make([]time.Time, 0, len(games))
	seen := make(map[string]bool)
	for _, g := range games {
		key := g.Date.Format("2006-01-02")
		if !seen[key] {
			seen[key] = true
			dates = append(dates, g.Date)
		}
	}

	rows, err := s.pool.Query(ctx,
		`SELECT referee_id, date, to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI')
		 FROM referee_availability
		 WHERE is_available = false AND date = ANY($1)`,
		dates,
	)
	if err != nil {
		return nil, fmt.Errorf("unavailableRefereeIDs query: %w", err)
	}
	defer rows.Close()

	type window struct {
		refereeID  string
		date       time.Time
		start, end int
	}
	var windows []window
	for rows.Next() {
		var w window
		var startStr, endStr string
		if err := rows.Scan(&w.refereeID, &w.date, &startStr, &endStr); err != nil {
			return nil, fmt.Errorf("unavailableRefereeIDs scan: %w", err)
		}
		var okS, okE bool
		w.start, okS = model.ParseClock(startStr)
		w.end, okE = model.ParseClock(endStr)
		if okS && okE {
			windows = append(windows, w)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("unavailableRefereeIDs rows: %w", err)
	}

	unavailable := make(map[string]bool)
	for _, g := range games {
		gameStart, ok := model.ParseClock(g.StartTime)
		if !ok {
			continue
		}
		gameEnd := gameStart + int(model.GameDuration.Minutes())
		for _, w := range windows {
			if !model.SameDate(w.date, g.Date) {
				continue
			}
			if gameStart < w.end && w.start < gameEnd {
				unavailable[w.refereeID] = true
			}
		}
	}
	return unavailable, nil
}

// ─── Ratings ─────────────────────────────────────────────────────────────────

// CompletedRatedSince returns completed assignments with a recorded rating
// whose game date is on or after since.
func (s *Store) CompletedRatedSince(ctx context.Context, refereeID string, since time.Time) ([]model.RatedAssignment, error) {
	return s.ratedAssignments(ctx,
		`SELECT a.game_id, g.level, a.rating, g.game_date
		 FROM assignments a
		 JOIN games g ON g.id = a.game_id
		 WHERE a.referee_id = $1 AND a.status = 'completed'
		   AND a.rating IS NOT NULL AND g.game_date >= $2::date`,
		refereeID, since,
	)
}

// CompletedAtLevelSince returns completed assignments at the given level
// (rated or not) whose game date is on or after since.
func (s *Store) CompletedAtLevelSince(ctx context.Context, refereeID, level string, since time.Time) ([]model.RatedAssignment, error) {
	return s.ratedAssignments(ctx,
		`SELECT a.game_id, g.level, a.rating, g.game_date
		 FROM assignments a
		 JOIN games g ON g.id = a.game_id
		 WHERE a.referee_id = $1 AND a.status = 'completed'
		   AND g.level = $2 AND g.game_date >= $3::date`,
		refereeID, level, since,
	)
}

func (s *Store) ratedAssignments(ctx context.Context, query string, args ...any) ([]model.RatedAssignment, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ratedAssignments query: %w", err)
	}
	defer rows.Close()

	var rated []model.RatedAssignment
	for rows.Next() {
		var a model.RatedAssignment
		if err := rows.Scan(&a.GameID, &a.Level, &a.Rating, &a.GameDate); err != nil {
			return nil, fmt.Errorf("ratedAssignments scan: %w", err)
		}
		rated = append(rated, a)
	}
	return rated, rows.Err()
}
