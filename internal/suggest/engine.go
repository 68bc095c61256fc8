package suggest

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"refzone/assignment-service/internal/model"
)

// DefaultSuggestionLimit caps a generation batch at the top 50 suggestions
// overall, not per game.
const DefaultSuggestionLimit = 50

// Engine scores every (game, referee) pair and returns a ranked, size-capped
// suggestion list. Scoring is fanned out across a bounded worker pool; each
// pair is independent and read-only.
type Engine struct {
	conflicts *ConflictChecker
	scorers   *FactorScorers
	history   *HistoricalPatternAnalyzer
	workers   int
	limit     int
	logger    *slog.Logger
	now       func() time.Time
}

// NewEngine assembles the engine from its scoring components.
func NewEngine(conflicts *ConflictChecker, scorers *FactorScorers, history *HistoricalPatternAnalyzer, workers, limit int, logger *slog.Logger) *Engine {
	if workers < 1 {
		workers = 1
	}
	if limit < 1 {
		limit = DefaultSuggestionLimit
	}
	return &Engine{
		conflicts: conflicts,
		scorers:   scorers,
		history:   history,
		workers:   workers,
		limit:     limit,
		logger:    logger,
		now:       time.Now,
	}
}

type pair struct {
	game model.Game
	ref  model.Referee
}

// Generate evaluates every pair, skipping those with a hard conflict, and
// returns suggestions sorted by confidence descending and truncated to the
// engine's limit. Ties keep generation order (games in request order crossed
// with referees in pool order): the sort is stable over pair index.
//
// Cancellation aborts remaining pair evaluations; already-computed results
// are discarded and the context error is returned.
func (e *Engine) Generate(ctx context.Context, games []model.Game, referees []model.Referee, w model.Weights) ([]model.Suggestion, error) {
	pairs := make([]pair, 0, len(games)*len(referees))
	for _, g := range games {
		for _, r := range referees {
			pairs = append(pairs, pair{game: g, ref: r})
		}
	}

	// Results are indexed by pair so the later stable sort preserves
	// generation order for equal confidence.
	results := make([]*model.Suggestion, len(pairs))

	var wg sync.WaitGroup
	sem := make(chan struct{}, e.workers)
	for i := range pairs {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()
			if ctx.Err() != nil {
				return
			}
			results[idx] = e.evaluate(ctx, pairs[idx].game, pairs[idx].ref, w)
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("generation cancelled: %w", err)
	}

	suggestions := make([]model.Suggestion, 0, len(results))
	for _, s := range results {
		if s != nil {
			suggestions = append(suggestions, *s)
		}
	}
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence > suggestions[j].Confidence
	})
	if len(suggestions) > e.limit {
		suggestions = suggestions[:e.limit]
	}

	e.logger.Info("suggestion batch scored",
		"pairs", len(pairs), "kept", len(suggestions), "games", len(games), "referees", len(referees))
	return suggestions, nil
}

// evaluate scores one pair, returning nil when a hard conflict excludes it.
func (e *Engine) evaluate(ctx context.Context, game model.Game, ref model.Referee, w model.Weights) *model.Suggestion {
	conflict := e.conflicts.Check(ctx, game, ref)
	if conflict.HardConflict {
		return nil
	}

	scores := FactorScores{
		Proximity:    e.scorers.Proximity(game, ref),
		Availability: e.scorers.Availability(ctx, game, ref),
		Experience:   e.scorers.Experience(game, ref),
		Performance:  e.scorers.Performance(ctx, ref),
	}
	bonus := e.history.Bonus(ctx, game, ref)
	confidence, reasoning := Aggregate(scores, w, bonus, conflict.Warnings)

	return &model.Suggestion{
		ID:                uuid.NewString(),
		GameID:            game.ID,
		RefereeID:         ref.ID,
		ProximityScore:    scores.Proximity,
		AvailabilityScore: scores.Availability,
		ExperienceScore:   scores.Experience,
		PerformanceScore:  scores.Performance,
		HistoricalBonus:   bonus,
		Confidence:        confidence,
		Reasoning:         reasoning,
		Status:            model.SuggestionPending,
		CreatedAt:         e.now().UTC(),
	}
}
