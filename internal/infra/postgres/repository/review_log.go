package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jambprep/jamb-mastery/internal/domain/entities"
	"github.com/jambprep/jamb-mastery/internal/infra/postgres"
)

// ReviewLogRepository stores the append-only answer history.
type ReviewLogRepository struct {
	db postgres.DBTX
}

// NewReviewLogRepository creates a new ReviewLogRepository with the provided database handle.
func NewReviewLogRepository(db postgres.DBTX) *ReviewLogRepository {
	return &ReviewLogRepository{db: db}
}

// Append stores one review event.
func (r *ReviewLogRepository) Append(ctx context.Context, event *entities.ReviewEvent) error {
	query := `
		INSERT INTO review_events (
			id, student_id, question_id, is_correct, time_spent_seconds,
			quality, ease_factor, interval_days, answered_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		event.ID,
		event.StudentID,
		event.QuestionID,
		event.IsCorrect,
		event.TimeSpentSeconds,
		int(event.Quality),
		event.EaseFactor,
		event.IntervalDays,
		event.AnsweredAt,
	)
	if err != nil {
		return fmt.Errorf("append review event: %w", err)
	}

	return nil
}

// ListRecent returns the latest events of a student, newest first.
func (r *ReviewLogRepository) ListRecent(ctx context.Context, studentID string, limit int) ([]*entities.ReviewEvent, error) {
	query := `
		SELECT id, student_id, question_id, is_correct, time_spent_seconds,
		       quality, ease_factor, interval_days, answered_at
		FROM review_events
		WHERE student_id = $1
		ORDER BY answered_at DESC, id
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, studentID, limit)
	if err != nil {
		return nil, fmt.Errorf("list review events: %w", err)
	}

	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entities.ReviewEvent, error) {
		var (
			e       entities.ReviewEvent
			quality int16
		)
		err := row.Scan(
			&e.ID, &e.StudentID, &e.QuestionID, &e.IsCorrect, &e.TimeSpentSeconds,
			&quality, &e.EaseFactor, &e.IntervalDays, &e.AnsweredAt,
		)
		e.Quality = entities.Quality(quality)
		e.AnsweredAt = e.AnsweredAt.UTC()
		return &e, err
	})
	if err != nil {
		return nil, fmt.Errorf("list review events: %w", err)
	}

	return events, nil
}
