package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jambprep/jamb-mastery/internal/domain/entities"
)

type masteryRow struct {
	StudentID          string         `db:"student_id"`
	QuestionID         string         `db:"question_id"`
	ConsecutiveCorrect int            `db:"consecutive_correct"`
	EaseFactor         float64        `db:"ease_factor"`
	IntervalDays       int            `db:"interval_days"`
	NextReviewDate     string         `db:"next_review_date"`
	ReviewCount        int            `db:"review_count"`
	LastQuality        int            `db:"last_quality"`
	LastReviewedAt     sql.NullString `db:"last_reviewed_at"`
}

func (r masteryRow) toEntity() (*entities.MasteryRecord, error) {
	next, err := parseTime(r.NextReviewDate)
	if err != nil {
		return nil, err
	}

	record := &entities.MasteryRecord{
		StudentID:          r.StudentID,
		QuestionID:         r.QuestionID,
		ConsecutiveCorrect: r.ConsecutiveCorrect,
		EaseFactor:         r.EaseFactor,
		IntervalDays:       r.IntervalDays,
		NextReviewDate:     next,
		ReviewCount:        r.ReviewCount,
		LastQuality:        entities.Quality(r.LastQuality),
	}
	if r.LastReviewedAt.Valid {
		at, err := parseTime(r.LastReviewedAt.String)
		if err != nil {
			return nil, err
		}
		record.LastReviewedAt = &at
	}

	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("invalid stored record: %w", err)
	}
	return record, nil
}

// MasteryRepository stores mastery records in SQLite.
type MasteryRepository struct {
	db *sqlx.DB
}

func NewMasteryRepository(db *sqlx.DB) *MasteryRepository {
	return &MasteryRepository{db: db}
}

const masteryColumns = `student_id, question_id, consecutive_correct, ease_factor, interval_days,
	next_review_date, review_count, last_quality, last_reviewed_at`

func (r *MasteryRepository) Get(ctx context.Context, studentID, questionID string) (*entities.MasteryRecord, error) {
	var row masteryRow
	err := r.db.GetContext(ctx, &row,
		`SELECT `+masteryColumns+` FROM question_mastery WHERE student_id = ? AND question_id = ?`,
		studentID, questionID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrMasteryNotFound
		}
		return nil, fmt.Errorf("get mastery: %w", err)
	}
	return row.toEntity()
}

func (r *MasteryRepository) Upsert(ctx context.Context, record *entities.MasteryRecord) error {
	var lastReviewed sql.NullString
	if record.LastReviewedAt != nil {
		lastReviewed = sql.NullString{String: formatTime(*record.LastReviewedAt), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO question_mastery (`+masteryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (student_id, question_id) DO UPDATE SET
			consecutive_correct = excluded.consecutive_correct,
			ease_factor = excluded.ease_factor,
			interval_days = excluded.interval_days,
			next_review_date = excluded.next_review_date,
			review_count = excluded.review_count,
			last_quality = excluded.last_quality,
			last_reviewed_at = excluded.last_reviewed_at`,
		record.StudentID,
		record.QuestionID,
		record.ConsecutiveCorrect,
		record.EaseFactor,
		record.IntervalDays,
		formatTime(record.NextReviewDate),
		record.ReviewCount,
		int(record.LastQuality),
		lastReviewed,
	)
	if err != nil {
		return fmt.Errorf("upsert mastery: %w", err)
	}
	return nil
}

func (r *MasteryRepository) ListByStudent(ctx context.Context, studentID string) ([]*entities.MasteryRecord, error) {
	var rows []masteryRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+masteryColumns+` FROM question_mastery WHERE student_id = ?`, studentID)
	if err != nil {
		return nil, fmt.Errorf("list mastery: %w", err)
	}

	records := make([]*entities.MasteryRecord, 0, len(rows))
	for _, row := range rows {
		record, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}
