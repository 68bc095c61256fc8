// Package model holds the domain records shared by the suggestion engine,
// the store and the HTTP layer. Games, referees and availability windows are
// owned by other subsystems and are read-only here; assignments are written
// only on suggestion acceptance.
package model

import (
	"strconv"
	"strings"
	"time"
)

// GameDuration is the assumed length of a game for all overlap checks.
const GameDuration = 2 * time.Hour

// Game is a scheduled match as seen by the scoring engine. Immutable here.
type Game struct {
	ID         string    `json:"id"`
	Date       time.Time `json:"date"`       // calendar date, midnight UTC
	StartTime  string    `json:"start_time"` // "HH:MM", 24h clock
	Venue      string    `json:"venue"`
	PostalCode string    `json:"postal_code"`
	Level      string    `json:"level"`
}

// Referee is a roster entry. Read-only to this service.
type Referee struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PostalCode  string `json:"postal_code"`
	Level       string `json:"level"`
	IsAvailable bool   `json:"is_available"` // general availability flag
}

// AvailabilityWindow is a declared (un)availability interval for one referee
// on one date. Used only for overlap checks.
type AvailabilityWindow struct {
	RefereeID   string    `json:"referee_id"`
	Date        time.Time `json:"date"`
	StartTime   string    `json:"start_time"` // "HH:MM"
	EndTime     string    `json:"end_time"`   // "HH:MM"
	IsAvailable bool      `json:"is_available"`
	Reason      *string   `json:"reason,omitempty"`
}

// AssignmentStatus mirrors the assignment_status enum in PostgreSQL.
type AssignmentStatus string

const (
	AssignmentPending   AssignmentStatus = "pending"
	AssignmentAccepted  AssignmentStatus = "accepted"
	AssignmentCompleted AssignmentStatus = "completed"
	AssignmentRejected  AssignmentStatus = "rejected"
	AssignmentCancelled AssignmentStatus = "cancelled"
)

// NonTerminalAssignmentStatuses are the statuses that count toward workload
// and conflict checks. Rejected and cancelled assignments never do.
var NonTerminalAssignmentStatuses = []AssignmentStatus{
	AssignmentPending, AssignmentAccepted, AssignmentCompleted,
}

// Assignment is the terminal artifact of an accepted suggestion. Once
// created, ownership transfers to the scheduling subsystem.
type Assignment struct {
	ID         string           `json:"id"`
	GameID     string           `json:"game_id"`
	RefereeID  string           `json:"referee_id"`
	AssignedBy string           `json:"assigned_by"`
	Status     AssignmentStatus `json:"status"`
	CreatedAt  time.Time        `json:"created_at"`
}

// Booking is an existing non-terminal assignment joined with the display
// attributes of its game, as needed by per-pair conflict checks.
type Booking struct {
	GameID     string
	RefereeID  string
	Status     AssignmentStatus
	GameDate   time.Time
	GameTime   string // "HH:MM"
	PostalCode string
}

// RatedAssignment is a completed assignment with its optional 1-5 rating,
// used for performance scoring and historical pattern analysis.
type RatedAssignment struct {
	GameID   string
	Level    string
	Rating   *int // nil when no rating was recorded
	GameDate time.Time
}

// SuggestionStatus mirrors the suggestion_status enum in PostgreSQL.
type SuggestionStatus string

const (
	SuggestionPending  SuggestionStatus = "pending"
	SuggestionAccepted SuggestionStatus = "accepted"
	SuggestionRejected SuggestionStatus = "rejected"
)

// Suggestion is a scored (game, referee) pairing awaiting a human decision.
// Status moves pending → accepted or pending → rejected, never back.
type Suggestion struct {
	ID                string           `json:"id"`
	GameID            string           `json:"game_id"`
	RefereeID         string           `json:"referee_id"`
	ProximityScore    float64          `json:"proximity_score"`
	AvailabilityScore float64          `json:"availability_score"`
	ExperienceScore   float64          `json:"experience_score"`
	PerformanceScore  float64          `json:"performance_score"`
	HistoricalBonus   float64          `json:"historical_bonus"`
	Confidence        float64          `json:"confidence_score"`
	Reasoning         string           `json:"reasoning"`
	Status            SuggestionStatus `json:"status"`
	RejectionReason   *string          `json:"rejection_reason,omitempty"`
	ProcessedBy       *string          `json:"processed_by,omitempty"`
	ProcessedAt       *time.Time       `json:"processed_at,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
}

// Weights are the caller-supplied factor weights. They are not required to
// sum to 1 and the aggregator does not renormalize.
type Weights struct {
	Proximity    float64 `json:"proximity_weight"`
	Availability float64 `json:"availability_weight"`
	Experience   float64 `json:"experience_weight"`
	Performance  float64 `json:"performance_weight"`
}

// DefaultWeights returns the standard factor weighting.
func DefaultWeights() Weights {
	return Weights{Proximity: 0.3, Availability: 0.4, Experience: 0.2, Performance: 0.1}
}

// Valid reports whether every weight lies in [0,1].
func (w Weights) Valid() bool {
	for _, v := range []float64{w.Proximity, w.Availability, w.Experience, w.Performance} {
		if v < 0 || v > 1 {
			return false
		}
	}
	return true
}

// Referee levels, lowest to highest.
const (
	LevelRookie = "ROOKIE"
	LevelJunior = "JUNIOR"
	LevelSenior = "SENIOR"
	LevelElite  = "ELITE"
)

var levelRanks = map[string]int{
	LevelRookie: 1,
	LevelJunior: 2,
	LevelSenior: 3,
	LevelElite:  4,
}

// LevelRank maps a level name to its ordinal (1-4). Unknown levels return 0.
func LevelRank(level string) int {
	return levelRanks[strings.ToUpper(strings.TrimSpace(level))]
}

// ParseClock parses an "HH:MM" or "HH:MM:SS" clock value into minutes since
// midnight. It returns false for anything it cannot parse.
func ParseClock(s string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// SameDate reports whether two timestamps fall on the same calendar date.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
