package suggest

import (
	"context"
	"log/slog"
	"time"

	"refzone/assignment-service/internal/model"
)

// Historical pattern constants.
const (
	historyLookback     = 365 * 24 * time.Hour // trailing 1 year
	minHistorySamples   = 5
	successRating       = 4 // rating at or above this counts as a success
	historyRateBaseline = 0.7
	freqBonusPerGame    = 1.0 / 50
	freqBonusCap        = 0.2
)

// HistoricalPatternAnalyzer computes a bonus term from the referee's past
// success at the game's level.
type HistoricalPatternAnalyzer struct {
	ratings RatingReader
	logger  *slog.Logger
	now     func() time.Time
}

// NewHistoricalPatternAnalyzer wires the analyzer to its rating port.
func NewHistoricalPatternAnalyzer(ratings RatingReader, logger *slog.Logger) *HistoricalPatternAnalyzer {
	return &HistoricalPatternAnalyzer{ratings: ratings, logger: logger, now: time.Now}
}

// Bonus returns the historical bonus in [0,1] for a pair, falling back to 0
// when the lookup fails.
func (h *HistoricalPatternAnalyzer) Bonus(ctx context.Context, game model.Game, ref model.Referee) float64 {
	rows, err := h.ratings.CompletedAtLevelSince(ctx, ref.ID, game.Level, h.now().Add(-historyLookback))
	if err != nil {
		h.logger.Warn("history lookup failed, skipping bonus",
			"refereeId", ref.ID, "gameId", game.ID, "err", err)
		return 0
	}
	return HistoricalBonus(rows)
}

// HistoricalBonus computes the bonus from same-level completed assignments.
// Success is a rating of 4 or above. Fewer than five rated assignments yield
// no bonus. The success-rate term can be negative (rate below 0.7) but the
// final bonus is clamped to [0,1].
func HistoricalBonus(rows []model.RatedAssignment) float64 {
	var successes, rated float64
	for _, a := range rows {
		if a.Rating == nil {
			continue
		}
		rated++
		if *a.Rating >= successRating {
			successes++
		}
	}
	if rated < minHistorySamples {
		return 0
	}
	base := successes/rated - historyRateBaseline
	freq := float64(len(rows)) * freqBonusPerGame
	if freq > freqBonusCap {
		freq = freqBonusCap
	}
	bonus := base + freq
	if bonus < 0 {
		return 0
	}
	if bonus > 1 {
		return 1
	}
	return bonus
}
