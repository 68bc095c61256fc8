package suggest

import (
	"context"
	"fmt"
	"log/slog"

	"refzone/assignment-service/internal/model"
)

// Conflict check thresholds.
const (
	backToBackWindowMin  = 45 // minutes between start times
	dailyWorkloadWarnAt  = 3  // warn at this many games in one day
	levelMismatchWarnGap = 2  // ordinal levels apart
)

// ConflictResult is the outcome of a per-pair conflict check. HardConflict
// excludes the pair from suggestion generation entirely; it is reserved for
// pair-level exclusions the batch-level CandidatePool cannot see, and the
// current checks only ever produce warnings. Warnings reduce confidence but
// keep the pair in play.
type ConflictResult struct {
	HardConflict bool
	Warnings     []string
}

// ConflictChecker evaluates soft scheduling warnings for one (game, referee)
// pair against the referee's existing bookings that day.
type ConflictChecker struct {
	assignments AssignmentReader
	logger      *slog.Logger
}

// NewConflictChecker wires the checker to its assignment port.
func NewConflictChecker(assignments AssignmentReader, logger *slog.Logger) *ConflictChecker {
	return &ConflictChecker{assignments: assignments, logger: logger}
}

// Check returns the conflict result for a pair. Lookup failures fail open:
// a single bad data point must never abort suggestion generation for the
// whole batch, so the pair proceeds with no warnings and the failure is
// logged.
func (c *ConflictChecker) Check(ctx context.Context, game model.Game, ref model.Referee) ConflictResult {
	bookings, err := c.assignments.BookingsOn(ctx, ref.ID, game.Date)
	if err != nil {
		c.logger.Warn("conflict check lookup failed, proceeding without warnings",
			"refereeId", ref.ID, "gameId", game.ID, "err", err)
		return ConflictResult{}
	}

	var warnings []string

	gameStart, gameTimeOK := model.ParseClock(game.StartTime)
	if gameTimeOK {
		for _, b := range bookings {
			if b.GameID == game.ID {
				continue
			}
			otherStart, ok := model.ParseClock(b.GameTime)
			if !ok {
				continue
			}
			if abs(otherStart-gameStart) <= backToBackWindowMin {
				warnings = append(warnings, "back-to-back game within 45 minutes")
				break
			}
		}
	}

	if n := len(bookings); n >= dailyWorkloadWarnAt {
		warnings = append(warnings, fmt.Sprintf("high daily workload (%d games that day)", n))
	}

	for _, b := range bookings {
		if b.GameID != game.ID && b.PostalCode != "" && game.PostalCode != "" && b.PostalCode != game.PostalCode {
			warnings = append(warnings, "multiple venue locations in one day")
			break
		}
	}

	refRank := model.LevelRank(ref.Level)
	gameRank := model.LevelRank(game.Level)
	if refRank > 0 && gameRank > 0 {
		switch {
		case refRank-gameRank >= levelMismatchWarnGap:
			warnings = append(warnings, "overqualified for this game level")
		case gameRank-refRank >= levelMismatchWarnGap:
			warnings = append(warnings, "may need more experience for this game level")
		}
	}

	return ConflictResult{Warnings: warnings}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
