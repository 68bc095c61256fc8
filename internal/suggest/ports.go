package suggest

import (
	"context"
	"time"

	"refzone/assignment-service/internal/model"
)

// Narrow read ports over data owned by other subsystems. The scoring
// components take these instead of a connection pool so they can be unit
// tested against in-memory fakes.

// GameReader loads games requested for a generation batch.
type GameReader interface {
	// GamesByIDs returns the games matching ids; unknown ids are skipped.
	GamesByIDs(ctx context.Context, ids []string) ([]model.Game, error)
}

// RefereeReader loads the referee roster.
type RefereeReader interface {
	ListReferees(ctx context.Context) ([]model.Referee, error)
}

// AssignmentReader reads existing assignments for workload and conflict
// checks. Only non-terminal assignments (pending, accepted, completed) are
// ever returned or counted.
type AssignmentReader interface {
	// ActiveRefereeIDsForGames returns the ids of referees holding a
	// non-terminal assignment to any of the given games.
	ActiveRefereeIDsForGames(ctx context.Context, gameIDs []string) (map[string]bool, error)

	// ActiveCountsOn returns per-referee non-terminal assignment counts for
	// games on the given date.
	ActiveCountsOn(ctx context.Context, date time.Time) (map[string]int, error)

	// ActiveCountsBetween returns per-referee non-terminal assignment counts
	// for games dated within [from, to] inclusive.
	ActiveCountsBetween(ctx context.Context, from, to time.Time) (map[string]int, error)

	// BookingsOn returns one referee's non-terminal assignments on a date,
	// joined with each game's time and venue postal code.
	BookingsOn(ctx context.Context, refereeID string, date time.Time) ([]model.Booking, error)
}

// AvailabilityReader reads declared availability windows.
type AvailabilityReader interface {
	// WindowsOn returns the windows a referee declared for a date.
	WindowsOn(ctx context.Context, refereeID string, date time.Time) ([]model.AvailabilityWindow, error)

	// UnavailableRefereeIDs returns referees with an explicit unavailability
	// window overlapping any of the given games' assumed intervals.
	UnavailableRefereeIDs(ctx context.Context, games []model.Game) (map[string]bool, error)
}

// RatingReader reads a referee's completed-assignment ratings.
type RatingReader interface {
	// CompletedRatedSince returns completed assignments with a recorded
	// rating whose game date is on or after since.
	CompletedRatedSince(ctx context.Context, refereeID string, since time.Time) ([]model.RatedAssignment, error)

	// CompletedAtLevelSince returns completed assignments at the given level
	// (rated or not) whose game date is on or after since.
	CompletedAtLevelSince(ctx context.Context, refereeID, level string, since time.Time) ([]model.RatedAssignment, error)
}

// SuggestionRepo persists suggestions and drives their state machine.
type SuggestionRepo interface {
	InsertSuggestion(ctx context.Context, s model.Suggestion) error

	// GetSuggestion returns a suggestion by id, or ErrNotFound.
	GetSuggestion(ctx context.Context, id string) (model.Suggestion, error)

	// ListSuggestions returns a filtered page plus the unpaginated total.
	ListSuggestions(ctx context.Context, f ListFilter) ([]SuggestionRow, int, error)

	// AcceptPending atomically creates the assignment and marks the pending
	// suggestion accepted. Returns ErrNotFound when the suggestion is absent
	// or not pending, ErrGameAssigned when the game already holds a
	// non-terminal assignment. Partial application is never observable.
	AcceptPending(ctx context.Context, suggestionID, actor string) (model.Suggestion, model.Assignment, error)

	// RejectPending marks a pending suggestion rejected. Returns ErrNotFound
	// when the guarded update affects zero rows.
	RejectPending(ctx context.Context, suggestionID, actor, reason string) (model.Suggestion, error)

	// DeleteProcessedBefore removes accepted/rejected suggestions processed
	// before the cutoff, returning the number deleted.
	DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// ListFilter narrows a suggestion listing. Zero values mean "no filter".
type ListFilter struct {
	Status        string
	GameID        string
	RefereeID     string
	StartDate     *time.Time // bounds on the joined game date
	EndDate       *time.Time
	MinConfidence *float64
	Page          int // 1-based
	Limit         int
}

// SuggestionRow is a suggestion joined with game and referee display
// attributes for listings.
type SuggestionRow struct {
	model.Suggestion
	GameDate    time.Time `json:"game_date"`
	GameTime    string    `json:"game_time"`
	GameVenue   string    `json:"game_venue"`
	GameLevel   string    `json:"game_level"`
	RefereeName string    `json:"referee_name"`
}
