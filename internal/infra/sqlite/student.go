package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jambprep/jamb-mastery/internal/domain/entities"
)

type studentRow struct {
	ID               string        `db:"id"`
	TelegramID       sql.NullInt64 `db:"telegram_id"`
	ChatID           int64         `db:"chat_id"`
	BankID           string        `db:"bank_id"`
	RemindersEnabled bool          `db:"reminders_enabled"`
	CreatedAt        string        `db:"created_at"`
}

func (r studentRow) toEntity() (*entities.Student, error) {
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &entities.Student{
		ID:               r.ID,
		TelegramID:       r.TelegramID.Int64,
		ChatID:           r.ChatID,
		BankID:           r.BankID,
		RemindersEnabled: r.RemindersEnabled,
		CreatedAt:        created,
	}, nil
}

// StudentRepository stores bot students in SQLite.
type StudentRepository struct {
	db *sqlx.DB
}

func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, telegram_id, chat_id, bank_id, reminders_enabled, created_at`

func (r *StudentRepository) Save(ctx context.Context, student *entities.Student) error {
	telegramID := sql.NullInt64{Int64: student.TelegramID, Valid: student.TelegramID != 0}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO students (`+studentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			telegram_id = excluded.telegram_id,
			chat_id = excluded.chat_id,
			bank_id = excluded.bank_id,
			reminders_enabled = excluded.reminders_enabled`,
		student.ID, telegramID, student.ChatID, student.BankID, student.RemindersEnabled, formatTime(student.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("save student: %w", err)
	}
	return nil
}

func (r *StudentRepository) GetByID(ctx context.Context, studentID string) (*entities.Student, error) {
	return r.getOne(ctx, `SELECT `+studentColumns+` FROM students WHERE id = ?`, studentID)
}

func (r *StudentRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*entities.Student, error) {
	return r.getOne(ctx, `SELECT `+studentColumns+` FROM students WHERE telegram_id = ?`, telegramID)
}

func (r *StudentRepository) getOne(ctx context.Context, query string, arg any) (*entities.Student, error) {
	var row studentRow
	if err := r.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrStudentNotFound
		}
		return nil, fmt.Errorf("get student: %w", err)
	}
	return row.toEntity()
}

func (r *StudentRepository) ListWithReminders(ctx context.Context, limit, offset int) ([]*entities.Student, error) {
	var rows []studentRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+studentColumns+`
		FROM students
		WHERE reminders_enabled
		ORDER BY id
		LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list students with reminders: %w", err)
	}

	students := make([]*entities.Student, 0, len(rows))
	for _, row := range rows {
		s, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, nil
}
