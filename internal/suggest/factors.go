package suggest

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"refzone/assignment-service/internal/model"
)

// Neutral fallback scores. Each scorer is total: whatever the input, the
// result is in [0,1], with lookup failures converted to these defaults at
// the scorer's adapter method rather than buried in the pure core.
const (
	proximityUnknown      = 0.5
	availabilityNoInfo    = 0.7
	availabilityUnknown   = 0.5
	performanceNewReferee = 0.7
)

// Performance scoring windows.
const (
	performanceLookback = 6 * 30 * 24 * time.Hour // trailing 6 months
	minRatedAssignments = 3
	perfBonusPerGame    = 1.0 / 100
	perfBonusCap        = 0.1
	maxRating           = 5.0
)

// FactorScorers computes the four per-pair factor scores. The pure scoring
// math lives in the package-level functions; the methods are thin adapters
// that fetch inputs and apply the documented fallback on lookup failure.
type FactorScorers struct {
	availability AvailabilityReader
	ratings      RatingReader
	logger       *slog.Logger
	now          func() time.Time
}

// NewFactorScorers wires the scorers to their read ports.
func NewFactorScorers(availability AvailabilityReader, ratings RatingReader, logger *slog.Logger) *FactorScorers {
	return &FactorScorers{
		availability: availability,
		ratings:      ratings,
		logger:       logger,
		now:          time.Now,
	}
}

// Proximity returns the postal proximity score for a pair.
func (f *FactorScorers) Proximity(game model.Game, ref model.Referee) float64 {
	return ProximityScore(game.PostalCode, ref.PostalCode)
}

// Availability returns the declared-window availability score, falling back
// to 0.5 when the lookup fails.
func (f *FactorScorers) Availability(ctx context.Context, game model.Game, ref model.Referee) float64 {
	windows, err := f.availability.WindowsOn(ctx, ref.ID, game.Date)
	if err != nil {
		f.logger.Warn("availability lookup failed, using neutral score",
			"refereeId", ref.ID, "gameId", game.ID, "err", err)
		return availabilityUnknown
	}
	return AvailabilityScore(windows, game)
}

// Experience returns the level-match score for a pair.
func (f *FactorScorers) Experience(game model.Game, ref model.Referee) float64 {
	return ExperienceScore(ref.Level, game.Level)
}

// Performance returns the trailing-6-month rating score, falling back to the
// new-referee default when the lookup fails.
func (f *FactorScorers) Performance(ctx context.Context, ref model.Referee) float64 {
	rated, err := f.ratings.CompletedRatedSince(ctx, ref.ID, f.now().Add(-performanceLookback))
	if err != nil {
		f.logger.Warn("rating lookup failed, using new-referee score",
			"refereeId", ref.ID, "err", err)
		return performanceNewReferee
	}
	return PerformanceScore(rated)
}

// ProximityScore scores how close two postal codes are by comparing their
// forward sortation areas (first three characters). This is an ordinal
// proxy, not physical distance.
//
//	missing code        → 0.5
//	equal FSA           → 0.95
//	1 mismatch          → 0.8
//	2 mismatches        → 0.6
//	3 mismatches        → 0.4
//	anything else       → 0.3
func ProximityScore(gamePostal, refPostal string) float64 {
	a := normalizeFSA(gamePostal)
	b := normalizeFSA(refPostal)
	if a == "" || b == "" {
		return proximityUnknown
	}
	if a == b {
		return 0.95
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	mismatches := 0
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			mismatches++
		}
	}
	switch mismatches {
	case 1:
		return 0.8
	case 2:
		return 0.6
	case 3:
		return 0.4
	default:
		return 0.3
	}
}

func normalizeFSA(postal string) string {
	s := strings.ToUpper(strings.Join(strings.Fields(postal), ""))
	if len(s) > 3 {
		s = s[:3]
	}
	return s
}

// AvailabilityScore scores a game against a referee's declared windows for
// the game's date.
//
//	no windows recorded               → 0.7
//	game inside an available window   → 1.0
//	partial overlap with one          → 0.8
//	no available window overlaps      → 0.3
//
// Windows marked unavailable are skipped, not zeroed. An unparsable game
// time scores 0.5, same as a failed lookup.
func AvailabilityScore(windows []model.AvailabilityWindow, game model.Game) float64 {
	if len(windows) == 0 {
		return availabilityNoInfo
	}
	gameStart, ok := model.ParseClock(game.StartTime)
	if !ok {
		return availabilityUnknown
	}
	gameEnd := gameStart + int(model.GameDuration.Minutes())

	overlapping := false
	for _, w := range windows {
		if !w.IsAvailable {
			continue
		}
		start, okS := model.ParseClock(w.StartTime)
		end, okE := model.ParseClock(w.EndTime)
		if !okS || !okE {
			continue
		}
		if start <= gameStart && gameEnd <= end {
			return 1.0
		}
		if intervalsOverlap(gameStart, gameEnd, start, end) {
			overlapping = true
		}
	}
	if overlapping {
		return 0.8
	}
	return 0.3
}

// ExperienceScore scores the referee's level against the game's level.
//
//	exact match          → 1.0
//	one level above      → 0.9
//	two or more above    → 0.7
//	one level below      → 0.8
//	two or more below    → 0.4
//	unknown level(s)     → 0.6
func ExperienceScore(refLevel, gameLevel string) float64 {
	r := model.LevelRank(refLevel)
	g := model.LevelRank(gameLevel)
	if r == 0 || g == 0 {
		return 0.6
	}
	switch diff := r - g; {
	case diff == 0:
		return 1.0
	case diff == 1:
		return 0.9
	case diff >= 2:
		return 0.7
	case diff == -1:
		return 0.8
	default:
		return 0.4
	}
}

// PerformanceScore scores the average rating over a referee's recently
// completed, rated assignments. Fewer than three rated assignments fall back
// to the new-referee default. A small bonus rewards volume, capped at 0.1.
func PerformanceScore(rated []model.RatedAssignment) float64 {
	var sum, count float64
	for _, a := range rated {
		if a.Rating == nil {
			continue
		}
		sum += float64(*a.Rating)
		count++
	}
	if count < minRatedAssignments {
		return performanceNewReferee
	}
	base := sum / count / maxRating
	if base > 1 {
		base = 1
	}
	bonus := count * perfBonusPerGame
	if bonus > perfBonusCap {
		bonus = perfBonusCap
	}
	score := base + bonus
	if score > 1 {
		score = 1
	}
	return score
}

// intervalsOverlap reports whether [aStart,aEnd) and [bStart,bEnd) intersect.
func intervalsOverlap(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}
