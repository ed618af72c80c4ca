package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jambprep/jamb-mastery/internal/domain/entities"
	"github.com/jambprep/jamb-mastery/internal/infra/postgres"
)

// MasteryRepository provides access to question mastery records in the database.
type MasteryRepository struct {
	db postgres.DBTX
}

// NewMasteryRepository creates a new MasteryRepository with the provided database handle.
func NewMasteryRepository(db postgres.DBTX) *MasteryRepository {
	return &MasteryRepository{db: db}
}

const masteryColumns = `
	student_id, question_id, consecutive_correct, ease_factor, interval_days,
	next_review_date, review_count, last_quality, last_reviewed_at`

// Upsert creates or overwrites the record of a (student, question) pair.
func (r *MasteryRepository) Upsert(ctx context.Context, record *entities.MasteryRecord) error {
	query := `
		INSERT INTO question_mastery (` + masteryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (student_id, question_id) DO UPDATE SET
			consecutive_correct = EXCLUDED.consecutive_correct,
			ease_factor = EXCLUDED.ease_factor,
			interval_days = EXCLUDED.interval_days,
			next_review_date = EXCLUDED.next_review_date,
			review_count = EXCLUDED.review_count,
			last_quality = EXCLUDED.last_quality,
			last_reviewed_at = EXCLUDED.last_reviewed_at
	`

	_, err := r.db.Exec(
		ctx,
		query,
		record.StudentID,
		record.QuestionID,
		record.ConsecutiveCorrect,
		record.EaseFactor,
		record.IntervalDays,
		record.NextReviewDate,
		record.ReviewCount,
		int(record.LastQuality),
		record.LastReviewedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert mastery: %w", err)
	}

	return nil
}

// Get retrieves the record of a (student, question) pair.
func (r *MasteryRepository) Get(ctx context.Context, studentID, questionID string) (*entities.MasteryRecord, error) {
	query := `SELECT ` + masteryColumns + `
		FROM question_mastery
		WHERE student_id = $1 AND question_id = $2
	`

	record, err := scanMastery(r.db.QueryRow(ctx, query, studentID, questionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrMasteryNotFound
		}
		return nil, fmt.Errorf("get mastery: %w", err)
	}

	return record, nil
}

// ListByStudent returns all records of a student.
func (r *MasteryRepository) ListByStudent(ctx context.Context, studentID string) ([]*entities.MasteryRecord, error) {
	query := `SELECT ` + masteryColumns + `
		FROM question_mastery
		WHERE student_id = $1
	`

	rows, err := r.db.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("list mastery: %w", err)
	}
	defer rows.Close()

	var records []*entities.MasteryRecord
	for rows.Next() {
		record, err := scanMastery(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mastery: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list mastery: %w", err)
	}

	return records, nil
}

func scanMastery(row pgx.Row) (*entities.MasteryRecord, error) {
	var (
		record  entities.MasteryRecord
		quality int16
	)

	err := row.Scan(
		&record.StudentID,
		&record.QuestionID,
		&record.ConsecutiveCorrect,
		&record.EaseFactor,
		&record.IntervalDays,
		&record.NextReviewDate,
		&record.ReviewCount,
		&quality,
		&record.LastReviewedAt,
	)
	if err != nil {
		return nil, err
	}

	record.LastQuality = entities.Quality(quality)
	record.NextReviewDate = record.NextReviewDate.UTC()
	if record.LastReviewedAt != nil {
		at := record.LastReviewedAt.UTC()
		record.LastReviewedAt = &at
	}

	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("invalid stored record: %w", err)
	}

	return &record, nil
}
