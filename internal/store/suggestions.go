package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"refzone/assignment-service/internal/model"
	"refzone/assignment-service/internal/suggest"
)

const uniqueViolation = "23505"

const suggestionColumns = `id, game_id, referee_id,
	proximity_score, availability_score, experience_score, performance_score,
	historical_bonus, confidence_score, reasoning,
	status, rejection_reason, processed_by, processed_at, created_at`

func scanSuggestion(row pgx.Row) (model.Suggestion, error) {
	var s model.Suggestion
	err := row.Scan(
		&s.ID, &s.GameID, &s.RefereeID,
		&s.ProximityScore, &s.AvailabilityScore, &s.ExperienceScore, &s.PerformanceScore,
		&s.HistoricalBonus, &s.Confidence, &s.Reasoning,
		&s.Status, &s.RejectionReason, &s.ProcessedBy, &s.ProcessedAt, &s.CreatedAt,
	)
	return s, err
}

// InsertSuggestion persists one freshly generated suggestion.
func (s *Store) InsertSuggestion(ctx context.Context, sg model.Suggestion) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO assignment_suggestions
		   (id, game_id, referee_id,
		    proximity_score, availability_score, experience_score, performance_score,
		    historical_bonus, confidence_score, reasoning, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		sg.ID, sg.GameID, sg.RefereeID,
		sg.ProximityScore, sg.AvailabilityScore, sg.ExperienceScore, sg.PerformanceScore,
		sg.HistoricalBonus, sg.Confidence, sg.Reasoning, sg.Status, sg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insertSuggestion: %w", err)
	}
	return nil
}

// GetSuggestion returns a suggestion by id, or suggest.ErrNotFound.
func (s *Store) GetSuggestion(ctx context.Context, id string) (model.Suggestion, error) {
	sg, err := scanSuggestion(s.pool.QueryRow(ctx,
		`SELECT `+suggestionColumns+` FROM assignment_suggestions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Suggestion{}, suggest.ErrNotFound
	}
	if err != nil {
		return model.Suggestion{}, fmt.Errorf("getSuggestion: %w", err)
	}
	return sg, nil
}

// ListSuggestions returns a filtered page joined with game and referee
// display attributes, plus the unpaginated total.
func (s *Store) ListSuggestions(ctx context.Context, f suggest.ListFilter) ([]suggest.SuggestionRow, int, error) {
	where := []string{"1=1"}
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Status != "" {
		where = append(where, "s.status = "+arg(f.Status)+"::suggestion_status")
	}
	if f.GameID != "" {
		where = append(where, "s.game_id = "+arg(f.GameID))
	}
	if f.RefereeID != "" {
		where = append(where, "s.referee_id = "+arg(f.RefereeID))
	}
	if f.StartDate != nil {
		where = append(where, "g.game_date >= "+arg(*f.StartDate)+"::date")
	}
	if f.EndDate != nil {
		where = append(where, "g.game_date <= "+arg(*f.EndDate)+"::date")
	}
	if f.MinConfidence != nil {
		where = append(where, "s.confidence_score >= "+arg(*f.MinConfidence))
	}

	base := ` FROM assignment_suggestions s
		 JOIN games g ON g.id = s.game_id
		 JOIN referees r ON r.id = s.referee_id
		 WHERE ` + strings.Join(where, " AND ")

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*)`+base, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("listSuggestions count: %w", err)
	}

	query := `SELECT s.id, s.game_id, s.referee_id,
		s.proximity_score, s.availability_score, s.experience_score, s.performance_score,
		s.historical_bonus, s.confidence_score, s.reasoning,
		s.status, s.rejection_reason, s.processed_by, s.processed_at, s.created_at,
		g.game_date, to_char(g.game_time, 'HH24:MI'), g.venue, g.level, r.name` +
		base + `
		 ORDER BY s.confidence_score DESC, s.created_at DESC
		 LIMIT ` + arg(f.Limit) + ` OFFSET ` + arg((f.Page-1)*f.Limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listSuggestions query: %w", err)
	}
	defer rows.Close()

	results := make([]suggest.SuggestionRow, 0)
	for rows.Next() {
		var r suggest.SuggestionRow
		if err := rows.Scan(
			&r.ID, &r.GameID, &r.RefereeID,
			&r.ProximityScore, &r.AvailabilityScore, &r.ExperienceScore, &r.PerformanceScore,
			&r.HistoricalBonus, &r.Confidence, &r.Reasoning,
			&r.Status, &r.RejectionReason, &r.ProcessedBy, &r.ProcessedAt, &r.CreatedAt,
			&r.GameDate, &r.GameTime, &r.GameVenue, &r.GameLevel, &r.RefereeName,
		); err != nil {
			return nil, 0, fmt.Errorf("listSuggestions scan: %w", err)
		}
		results = append(results, r)
	}
	return results, total, rows.Err()
}

// AcceptPending atomically creates the assignment and marks the pending
// suggestion accepted. The suggestion row is locked first; the partial
// unique index on assignments (one non-terminal row per game) closes the
// race between concurrent accepts for the same game, so a duplicate insert
// surfaces as suggest.ErrGameAssigned and the whole transaction rolls back.
func (s *Store) AcceptPending(ctx context.Context, suggestionID, actor string) (model.Suggestion, model.Assignment, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return model.Suggestion{}, model.Assignment{}, fmt.Errorf("acceptPending begin: %w", err)
	}
	defer tx.Rollback(ctx)

	sg, err := scanSuggestion(tx.QueryRow(ctx,
		`SELECT `+suggestionColumns+` FROM assignment_suggestions WHERE id = $1 FOR UPDATE`,
		suggestionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Suggestion{}, model.Assignment{}, suggest.ErrNotFound
	}
	if err != nil {
		return model.Suggestion{}, model.Assignment{}, fmt.Errorf("acceptPending load: %w", err)
	}
	if sg.Status != model.SuggestionPending {
		return model.Suggestion{}, model.Assignment{}, suggest.ErrNotFound
	}

	var taken bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM assignments WHERE game_id = $1 AND status IN `+nonTerminal+`)`,
		sg.GameID,
	).Scan(&taken)
	if err != nil {
		return model.Suggestion{}, model.Assignment{}, fmt.Errorf("acceptPending guard: %w", err)
	}
	if taken {
		return model.Suggestion{}, model.Assignment{}, suggest.ErrGameAssigned
	}

	asg := model.Assignment{
		GameID:     sg.GameID,
		RefereeID:  sg.RefereeID,
		AssignedBy: actor,
		Status:     model.AssignmentPending,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO assignments (game_id, referee_id, assigned_by, status)
		 VALUES ($1, $2, $3, 'pending')
		 RETURNING id, created_at`,
		asg.GameID, asg.RefereeID, actor,
	).Scan(&asg.ID, &asg.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.Suggestion{}, model.Assignment{}, suggest.ErrGameAssigned
		}
		return model.Suggestion{}, model.Assignment{}, fmt.Errorf("acceptPending insert: %w", err)
	}

	err = tx.QueryRow(ctx,
		`UPDATE assignment_suggestions
		 SET status = 'accepted', processed_by = $2, processed_at = NOW()
		 WHERE id = $1
		 RETURNING processed_at`,
		suggestionID, actor,
	).Scan(&sg.ProcessedAt)
	if err != nil {
		return model.Suggestion{}, model.Assignment{}, fmt.Errorf("acceptPending update: %w", err)
	}
	sg.Status = model.SuggestionAccepted
	sg.ProcessedBy = &actor

	if err := tx.Commit(ctx); err != nil {
		return model.Suggestion{}, model.Assignment{}, fmt.Errorf("acceptPending commit: %w", err)
	}
	return sg, asg, nil
}

// RejectPending marks a pending suggestion rejected. The update is guarded
// on pending status: zero affected rows covers both "never existed" and
// "already processed" and maps to suggest.ErrNotFound.
func (s *Store) RejectPending(ctx context.Context, suggestionID, actor, reason string) (model.Suggestion, error) {
	sg, err := scanSuggestion(s.pool.QueryRow(ctx,
		`UPDATE assignment_suggestions
		 SET status = 'rejected',
		     rejection_reason = NULLIF($2, ''),
		     processed_by = $3,
		     processed_at = NOW()
		 WHERE id = $1 AND status = 'pending'
		 RETURNING `+suggestionColumns,
		suggestionID, reason, actor))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Suggestion{}, suggest.ErrNotFound
	}
	if err != nil {
		return model.Suggestion{}, fmt.Errorf("rejectPending: %w", err)
	}
	return sg, nil
}

// DeleteProcessedBefore removes accepted/rejected suggestions processed
// before the cutoff, returning the number deleted.
func (s *Store) DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM assignment_suggestions
		 WHERE status != 'pending' AND processed_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleteProcessedBefore: %w", err)
	}
	return tag.RowsAffected(), nil
}
