package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jambprep/jamb-mastery/internal/domain/entities"
)

type questionRow struct {
	ID              string `db:"id"`
	BankID          string `db:"bank_id"`
	Subject         string `db:"subject"`
	Body            string `db:"body"`
	Options         string `db:"options"` // JSON array
	AnswerIndex     int    `db:"answer_index"`
	ExpectedSeconds int    `db:"expected_seconds"`
	Position        int    `db:"position"`
	CreatedAt       string `db:"created_at"`
}

func (r questionRow) toEntity() (*entities.Question, error) {
	q := &entities.Question{
		ID:              r.ID,
		BankID:          r.BankID,
		Subject:         r.Subject,
		Body:            r.Body,
		AnswerIndex:     r.AnswerIndex,
		ExpectedSeconds: r.ExpectedSeconds,
		Position:        r.Position,
	}
	if err := json.Unmarshal([]byte(r.Options), &q.Options); err != nil {
		return nil, fmt.Errorf("decode options of %s: %w", r.ID, err)
	}

	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return nil, err
	}
	q.CreatedAt = created
	return q, nil
}

// QuestionRepository stores question banks in SQLite.
type QuestionRepository struct {
	db *sqlx.DB
}

func NewQuestionRepository(db *sqlx.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

const questionColumns = `id, bank_id, subject, body, options, answer_index, expected_seconds, position, created_at`

func (r *QuestionRepository) ListByBank(ctx context.Context, bankID string) ([]*entities.Question, error) {
	var rows []questionRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+questionColumns+`
		FROM questions
		WHERE ? = '' OR bank_id = ?
		ORDER BY bank_id, position, id`,
		bankID, bankID,
	)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	questions := make([]*entities.Question, 0, len(rows))
	for _, row := range rows {
		q, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func (r *QuestionRepository) GetByID(ctx context.Context, questionID string) (*entities.Question, error) {
	var row questionRow
	err := r.db.GetContext(ctx, &row, `SELECT `+questionColumns+` FROM questions WHERE id = ?`, questionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrQuestionNotFound
		}
		return nil, fmt.Errorf("get question: %w", err)
	}
	return row.toEntity()
}

func (r *QuestionRepository) ListBanks(ctx context.Context) ([]*entities.Bank, error) {
	var rows []struct {
		ID    string `db:"bank_id"`
		Count int    `db:"question_count"`
	}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT bank_id, COUNT(*) AS question_count
		FROM questions
		GROUP BY bank_id
		ORDER BY bank_id`)
	if err != nil {
		return nil, fmt.Errorf("list banks: %w", err)
	}

	banks := make([]*entities.Bank, 0, len(rows))
	for _, row := range rows {
		banks = append(banks, &entities.Bank{ID: row.ID, QuestionCount: row.Count})
	}
	return banks, nil
}

// SaveQuestions inserts or replaces questions in a single transaction.
func (r *QuestionRepository) SaveQuestions(ctx context.Context, questions []*entities.Question) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO questions (`+questionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			bank_id = excluded.bank_id,
			subject = excluded.subject,
			body = excluded.body,
			options = excluded.options,
			answer_index = excluded.answer_index,
			expected_seconds = excluded.expected_seconds,
			position = excluded.position`)
	if err != nil {
		return fmt.Errorf("prepare save questions: %w", err)
	}
	defer stmt.Close()

	for _, q := range questions {
		options, err := json.Marshal(q.Options)
		if err != nil {
			return fmt.Errorf("encode options of %s: %w", q.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			q.ID, q.BankID, q.Subject, q.Body, string(options),
			q.AnswerIndex, q.ExpectedSeconds, q.Position, formatTime(q.CreatedAt),
		); err != nil {
			return fmt.Errorf("save question %s: %w", q.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
