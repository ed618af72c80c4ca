package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jambprep/jamb-mastery/internal/domain/entities"
	"github.com/jambprep/jamb-mastery/internal/infra/postgres"
)

// StudentRepository provides access to bot students in the database.
type StudentRepository struct {
	db postgres.DBTX
}

// NewStudentRepository creates a new StudentRepository with the provided database handle.
func NewStudentRepository(db postgres.DBTX) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, telegram_id, chat_id, bank_id, reminders_enabled, created_at`

// Save inserts a new student or updates an existing one.
func (r *StudentRepository) Save(ctx context.Context, student *entities.Student) error {
	query := `
		INSERT INTO students (` + studentColumns + `)
		VALUES ($1, NULLIF($2::bigint, 0), $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			telegram_id = EXCLUDED.telegram_id,
			chat_id = EXCLUDED.chat_id,
			bank_id = EXCLUDED.bank_id,
			reminders_enabled = EXCLUDED.reminders_enabled
	`

	_, err := r.db.Exec(ctx, query,
		student.ID,
		student.TelegramID,
		student.ChatID,
		student.BankID,
		student.RemindersEnabled,
		student.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save student: %w", err)
	}

	return nil
}

// GetByID retrieves a student by ID.
func (r *StudentRepository) GetByID(ctx context.Context, studentID string) (*entities.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`
	return r.getOne(ctx, query, studentID)
}

// GetByTelegramID retrieves the student bound to a Telegram user.
func (r *StudentRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*entities.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE telegram_id = $1`
	return r.getOne(ctx, query, telegramID)
}

func (r *StudentRepository) getOne(ctx context.Context, query string, arg any) (*entities.Student, error) {
	student, err := scanStudent(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrStudentNotFound
		}
		return nil, fmt.Errorf("get student: %w", err)
	}
	return student, nil
}

// ListWithReminders returns a page of students that opted into due digests.
func (r *StudentRepository) ListWithReminders(ctx context.Context, limit, offset int) ([]*entities.Student, error) {
	query := `SELECT ` + studentColumns + `
		FROM students
		WHERE reminders_enabled
		ORDER BY id
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list students with reminders: %w", err)
	}
	defer rows.Close()

	var students []*entities.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, s)
	}

	return students, rows.Err()
}

func scanStudent(row pgx.Row) (*entities.Student, error) {
	var (
		s          entities.Student
		telegramID *int64
	)
	if err := row.Scan(&s.ID, &telegramID, &s.ChatID, &s.BankID, &s.RemindersEnabled, &s.CreatedAt); err != nil {
		return nil, err
	}
	if telegramID != nil {
		s.TelegramID = *telegramID
	}
	s.CreatedAt = s.CreatedAt.UTC()
	return &s, nil
}
