package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jambprep/jamb-mastery/internal/domain/entities"
	"github.com/jambprep/jamb-mastery/internal/infra/postgres"
)

// QuestionRepository provides access to question banks in the database.
type QuestionRepository struct {
	db postgres.DBTX
}

// NewQuestionRepository creates a new QuestionRepository with the provided database handle.
func NewQuestionRepository(db postgres.DBTX) *QuestionRepository {
	return &QuestionRepository{db: db}
}

const questionColumns = `id, bank_id, subject, body, options, answer_index, expected_seconds, position, created_at`

// ListByBank returns the questions of a bank in bank order. An empty bankID returns every question.
func (r *QuestionRepository) ListByBank(ctx context.Context, bankID string) ([]*entities.Question, error) {
	query := `SELECT ` + questionColumns + `
		FROM questions
		WHERE $1::text = '' OR bank_id = $1
		ORDER BY bank_id, position, id
	`

	rows, err := r.db.Query(ctx, query, bankID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var questions []*entities.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	return questions, nil
}

// GetByID retrieves a question by ID.
func (r *QuestionRepository) GetByID(ctx context.Context, questionID string) (*entities.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE id = $1`

	q, err := scanQuestion(r.db.QueryRow(ctx, query, questionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrQuestionNotFound
		}
		return nil, fmt.Errorf("get question: %w", err)
	}

	return q, nil
}

// ListBanks returns every bank with its question count.
func (r *QuestionRepository) ListBanks(ctx context.Context) ([]*entities.Bank, error) {
	query := `
		SELECT bank_id, COUNT(*)
		FROM questions
		GROUP BY bank_id
		ORDER BY bank_id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list banks: %w", err)
	}

	banks, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entities.Bank, error) {
		var b entities.Bank
		err := row.Scan(&b.ID, &b.QuestionCount)
		return &b, err
	})
	if err != nil {
		return nil, fmt.Errorf("list banks: %w", err)
	}

	return banks, nil
}

// SaveQuestions inserts or replaces questions in a single transaction.
func (r *QuestionRepository) SaveQuestions(ctx context.Context, questions []*entities.Question) error {
	query := `
		INSERT INTO questions (` + questionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			bank_id = EXCLUDED.bank_id,
			subject = EXCLUDED.subject,
			body = EXCLUDED.body,
			options = EXCLUDED.options,
			answer_index = EXCLUDED.answer_index,
			expected_seconds = EXCLUDED.expected_seconds,
			position = EXCLUDED.position
	`

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, q := range questions {
			batch.Queue(query,
				q.ID, q.BankID, q.Subject, q.Body, q.Options,
				q.AnswerIndex, q.ExpectedSeconds, q.Position, q.CreatedAt,
			)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("save questions: %w", err)
	}

	return nil
}

func scanQuestion(row pgx.Row) (*entities.Question, error) {
	var q entities.Question
	err := row.Scan(
		&q.ID,
		&q.BankID,
		&q.Subject,
		&q.Body,
		&q.Options,
		&q.AnswerIndex,
		&q.ExpectedSeconds,
		&q.Position,
		&q.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	q.CreatedAt = q.CreatedAt.UTC()
	return &q, nil
}
