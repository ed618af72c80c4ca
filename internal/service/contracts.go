package service

import (
	"context"

	"github.com/jambprep/jamb-mastery/internal/domain/entities"
)

// MasteryRepository persists one mastery record per (student, question) pair.
type MasteryRepository interface {
	// Get returns entities.ErrMasteryNotFound when the pair was never answered.
	Get(ctx context.Context, studentID, questionID string) (*entities.MasteryRecord, error)
	// Upsert overwrites the record keyed by its pair.
	Upsert(ctx context.Context, record *entities.MasteryRecord) error
	// ListByStudent returns every record of the student in no particular order.
	ListByStudent(ctx context.Context, studentID string) ([]*entities.MasteryRecord, error)
}

// QuestionRepository reads and stores question banks.
type QuestionRepository interface {
	// ListByBank returns the questions of a bank in bank order. An empty bankID lists every bank.
	ListByBank(ctx context.Context, bankID string) ([]*entities.Question, error)
	GetByID(ctx context.Context, questionID string) (*entities.Question, error)
	ListBanks(ctx context.Context) ([]*entities.Bank, error)
	SaveQuestions(ctx context.Context, questions []*entities.Question) error
}

// ReviewLogRepository keeps the append-only answer history.
type ReviewLogRepository interface {
	Append(ctx context.Context, event *entities.ReviewEvent) error
	ListRecent(ctx context.Context, studentID string, limit int) ([]*entities.ReviewEvent, error)
}

// StudentRepository manages bot students.
type StudentRepository interface {
	Save(ctx context.Context, student *entities.Student) error
	GetByID(ctx context.Context, studentID string) (*entities.Student, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*entities.Student, error)
	ListWithReminders(ctx context.Context, limit, offset int) ([]*entities.Student, error)
}

// DueNotifier delivers due-question digests to students.
type DueNotifier interface {
	SendDueDigest(ctx context.Context, digest entities.DueDigest) error
}
