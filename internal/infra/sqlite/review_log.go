package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jambprep/jamb-mastery/internal/domain/entities"
)

type reviewRow struct {
	ID               string  `db:"id"`
	StudentID        string  `db:"student_id"`
	QuestionID       string  `db:"question_id"`
	IsCorrect        bool    `db:"is_correct"`
	TimeSpentSeconds float64 `db:"time_spent_seconds"`
	Quality          int     `db:"quality"`
	EaseFactor       float64 `db:"ease_factor"`
	IntervalDays     int     `db:"interval_days"`
	AnsweredAt       string  `db:"answered_at"`
}

// ReviewLogRepository stores the answer history in SQLite.
type ReviewLogRepository struct {
	db *sqlx.DB
}

func NewReviewLogRepository(db *sqlx.DB) *ReviewLogRepository {
	return &ReviewLogRepository{db: db}
}

func (r *ReviewLogRepository) Append(ctx context.Context, event *entities.ReviewEvent) error {
	row := reviewRow{
		ID:               event.ID,
		StudentID:        event.StudentID,
		QuestionID:       event.QuestionID,
		IsCorrect:        event.IsCorrect,
		TimeSpentSeconds: event.TimeSpentSeconds,
		Quality:          int(event.Quality),
		EaseFactor:       event.EaseFactor,
		IntervalDays:     event.IntervalDays,
		AnsweredAt:       formatTime(event.AnsweredAt),
	}

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO review_events (
			id, student_id, question_id, is_correct, time_spent_seconds,
			quality, ease_factor, interval_days, answered_at
		) VALUES (
			:id, :student_id, :question_id, :is_correct, :time_spent_seconds,
			:quality, :ease_factor, :interval_days, :answered_at
		)`, row)
	if err != nil {
		return fmt.Errorf("append review event: %w", err)
	}
	return nil
}

func (r *ReviewLogRepository) ListRecent(ctx context.Context, studentID string, limit int) ([]*entities.ReviewEvent, error) {
	var rows []reviewRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, student_id, question_id, is_correct, time_spent_seconds,
		       quality, ease_factor, interval_days, answered_at
		FROM review_events
		WHERE student_id = ?
		ORDER BY answered_at DESC, id
		LIMIT ?`,
		studentID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list review events: %w", err)
	}

	events := make([]*entities.ReviewEvent, 0, len(rows))
	for _, row := range rows {
		at, err := parseTime(row.AnsweredAt)
		if err != nil {
			return nil, err
		}
		events = append(events, &entities.ReviewEvent{
			ID:               row.ID,
			StudentID:        row.StudentID,
			QuestionID:       row.QuestionID,
			IsCorrect:        row.IsCorrect,
			TimeSpentSeconds: row.TimeSpentSeconds,
			Quality:          entities.Quality(row.Quality),
			EaseFactor:       row.EaseFactor,
			IntervalDays:     row.IntervalDays,
			AnsweredAt:       at,
		})
	}
	return events, nil
}
