// Package suggest contains the referee suggestion engine: conflict checks,
// factor scoring, ranking, and the accept/reject lifecycle that turns a
// suggestion into an assignment.
// It is transport-agnostic below the Handler type and talks to storage only
// through the ports in ports.go.
package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"refzone/assignment-service/internal/metrics"
	"refzone/assignment-service/internal/model"
)

// Redis channels for downstream consumers (gateway SSE, notifications).
const (
	eventGenerated = "EVENT_SUGGESTIONS_GENERATED"
	eventAccepted  = "EVENT_SUGGESTION_ACCEPTED"
	eventRejected  = "EVENT_SUGGESTION_REJECTED"
)

const maxRejectionReasonLen = 500

// Service orchestrates candidate pooling, pair scoring, suggestion
// persistence, and the pending → accepted/rejected state machine.
type Service struct {
	games      GameReader
	candidates *CandidatePool
	engine     *Engine
	repo       SuggestionRepo
	rdb        *redis.Client // nil disables event publishing
	logger     *slog.Logger
	now        func() time.Time
}

// NewService returns a configured Service.
func NewService(games GameReader, candidates *CandidatePool, engine *Engine, repo SuggestionRepo, rdb *redis.Client, logger *slog.Logger) *Service {
	return &Service{
		games:      games,
		candidates: candidates,
		engine:     engine,
		repo:       repo,
		rdb:        rdb,
		logger:     logger,
		now:        time.Now,
	}
}

// GenerateSuggestions scores every eligible (game, referee) pair for the
// requested games and persists the ranked top suggestions. Returns
// ErrNoGames / ErrNoCandidates when there is nothing to score.
//
// Persistence is per suggestion row, not transactional across the batch: the
// call either returns every suggestion it computed or fails with an error.
func (s *Service) GenerateSuggestions(ctx context.Context, gameIDs []string, w model.Weights) ([]model.Suggestion, error) {
	if len(gameIDs) == 0 {
		return nil, &ValidationError{Msg: "game_ids is required"}
	}
	if !w.Valid() {
		return nil, &ValidationError{Msg: "factor weights must be between 0 and 1"}
	}

	started := s.now()

	games, err := s.games.GamesByIDs(ctx, gameIDs)
	if err != nil {
		return nil, fmt.Errorf("load games: %w", err)
	}
	if len(games) == 0 {
		return nil, ErrNoGames
	}

	referees, err := s.candidates.EligibleReferees(ctx, games)
	if err != nil {
		return nil, fmt.Errorf("candidate pool: %w", err)
	}
	if len(referees) == 0 {
		return nil, ErrNoCandidates
	}

	suggestions, err := s.engine.Generate(ctx, games, referees, w)
	if err != nil {
		return nil, err
	}

	for _, sg := range suggestions {
		if err := s.repo.InsertSuggestion(ctx, sg); err != nil {
			return nil, fmt.Errorf("persist suggestion for game %s: %w", sg.GameID, err)
		}
	}

	metrics.SuggestionsGenerated.Add(float64(len(suggestions)))
	metrics.GenerationDuration.Observe(s.now().Sub(started).Seconds())

	s.publish(ctx, eventGenerated, map[string]any{
		"type":      eventGenerated,
		"gameIds":   gameIDs,
		"generated": len(suggestions),
	})
	s.logger.Info("suggestions generated",
		"games", len(games), "candidates", len(referees), "suggestions", len(suggestions))
	return suggestions, nil
}

// Get returns one suggestion by id, or ErrNotFound.
func (s *Service) Get(ctx context.Context, suggestionID string) (model.Suggestion, error) {
	return s.repo.GetSuggestion(ctx, suggestionID)
}

// ListSuggestions returns a filtered, paginated listing joined with game and
// referee display attributes. Page defaults to 1 and limit to 20 (max 100).
func (s *Service) ListSuggestions(ctx context.Context, f ListFilter) ([]SuggestionRow, int, error) {
	if f.Status != "" {
		switch model.SuggestionStatus(f.Status) {
		case model.SuggestionPending, model.SuggestionAccepted, model.SuggestionRejected:
		default:
			return nil, 0, &ValidationError{Msg: fmt.Sprintf("unknown status %q", f.Status)}
		}
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	rows, total, err := s.repo.ListSuggestions(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("list suggestions: %w", err)
	}
	return rows, total, nil
}

// Accept converts a pending suggestion into an assignment. The insert and
// the status update happen in one transaction; the storage layer holds the
// uniqueness guard that makes concurrent accepts for the same game resolve
// to exactly one winner. Returns ErrNotFound when the suggestion is absent
// or already processed, ErrGameAssigned when the game is taken.
func (s *Service) Accept(ctx context.Context, suggestionID, actor string) (model.Suggestion, model.Assignment, error) {
	if actor == "" {
		return model.Suggestion{}, model.Assignment{}, &ValidationError{Msg: "acting user is required"}
	}

	sg, asg, err := s.repo.AcceptPending(ctx, suggestionID, actor)
	if err != nil {
		if errors.Is(err, ErrGameAssigned) {
			metrics.AcceptConflicts.Inc()
		}
		return model.Suggestion{}, model.Assignment{}, err
	}

	metrics.SuggestionsAccepted.Inc()
	s.publish(ctx, eventAccepted, map[string]any{
		"type":         eventAccepted,
		"suggestionId": sg.ID,
		"gameId":       sg.GameID,
		"refereeId":    sg.RefereeID,
		"assignmentId": asg.ID,
		"acceptedBy":   actor,
	})
	s.logger.Info("suggestion accepted",
		"suggestionId", sg.ID, "gameId", sg.GameID, "refereeId", sg.RefereeID, "actor", actor)
	return sg, asg, nil
}

// Reject marks a pending suggestion rejected with an optional reason. The
// update is guarded on pending status, so rejecting an already-processed
// suggestion returns ErrNotFound rather than a duplicate state change.
func (s *Service) Reject(ctx context.Context, suggestionID, actor, reason string) (model.Suggestion, error) {
	if actor == "" {
		return model.Suggestion{}, &ValidationError{Msg: "acting user is required"}
	}
	if len(reason) > maxRejectionReasonLen {
		return model.Suggestion{}, &ValidationError{Msg: "rejection reason must be 500 characters or fewer"}
	}

	sg, err := s.repo.RejectPending(ctx, suggestionID, actor, reason)
	if err != nil {
		return model.Suggestion{}, err
	}

	metrics.SuggestionsRejected.Inc()
	s.publish(ctx, eventRejected, map[string]any{
		"type":         eventRejected,
		"suggestionId": sg.ID,
		"gameId":       sg.GameID,
		"refereeId":    sg.RefereeID,
		"rejectedBy":   actor,
	})
	s.logger.Info("suggestion rejected", "suggestionId", sg.ID, "actor", actor)
	return sg, nil
}

// publish sends a domain event to Redis. Non-fatal: failures are logged and
// the state change stands.
func (s *Service) publish(ctx context.Context, channel string, payload map[string]any) {
	if s.rdb == nil {
		return
	}
	body, _ := json.Marshal(payload)
	if err := s.rdb.Publish(ctx, channel, body).Err(); err != nil {
		s.logger.Warn("publish failed", "channel", channel, "err", err)
	}
}
