package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/jambprep/jamb-mastery/internal/domain/entities"
)

// StudentService manages bot students and their preferences.
type StudentService struct {
	students  StudentRepository
	questions QuestionRepository
	logger    *zap.Logger
}

func NewStudentService(students StudentRepository, questions QuestionRepository, logger *zap.Logger) *StudentService {
	return &StudentService{students: students, questions: questions, logger: logger}
}

// EnsureTelegramStudent returns the student bound to a Telegram user, creating it on first contact.
func (s *StudentService) EnsureTelegramStudent(ctx context.Context, telegramID, chatID int64) (*entities.Student, error) {
	student, err := s.students.GetByTelegramID(ctx, telegramID)
	if err == nil {
		if student.ChatID == chatID {
			return student, nil
		}
		student.ChatID = chatID
		if err := s.students.Save(ctx, student); err != nil {
			return nil, persistenceError("update student chat", err)
		}
		return student, nil
	}
	if !errors.Is(err, entities.ErrStudentNotFound) {
		return nil, persistenceError("get student", err)
	}

	student = entities.NewTelegramStudent(telegramID, chatID)
	if err := s.students.Save(ctx, student); err != nil {
		return nil, persistenceError("save student", err)
	}

	s.logger.Info("student registered",
		zap.String("student_id", student.ID),
		zap.Int64("telegram_id", telegramID),
	)

	return student, nil
}

// Get returns a student by id.
func (s *StudentService) Get(ctx context.Context, studentID string) (*entities.Student, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, entities.ErrStudentNotFound) {
			return nil, err
		}
		return nil, persistenceError("get student", err)
	}
	return student, nil
}

// ListBanks returns the available question banks.
func (s *StudentService) ListBanks(ctx context.Context) ([]*entities.Bank, error) {
	banks, err := s.questions.ListBanks(ctx)
	if err != nil {
		return nil, persistenceError("list banks", err)
	}
	return banks, nil
}

// SelectBank sets the question bank the student reviews from.
func (s *StudentService) SelectBank(ctx context.Context, studentID, bankID string) error {
	banks, err := s.ListBanks(ctx)
	if err != nil {
		return err
	}

	known := false
	for _, b := range banks {
		if b.ID == bankID {
			known = true
			break
		}
	}
	if !known {
		return entities.NewValidationError("bank_id", "unknown bank %q", bankID)
	}

	student, err := s.Get(ctx, studentID)
	if err != nil {
		return err
	}

	student.BankID = bankID
	if err := s.students.Save(ctx, student); err != nil {
		return persistenceError("save student", err)
	}
	return nil
}

// ToggleReminders flips the due digest flag and returns the new value.
func (s *StudentService) ToggleReminders(ctx context.Context, studentID string) (bool, error) {
	student, err := s.Get(ctx, studentID)
	if err != nil {
		return false, err
	}

	student.RemindersEnabled = !student.RemindersEnabled
	if err := s.students.Save(ctx, student); err != nil {
		return false, persistenceError("save student", err)
	}

	s.logger.Info("reminders toggled",
		zap.String("student_id", studentID),
		zap.Bool("enabled", student.RemindersEnabled),
	)

	return student.RemindersEnabled, nil
}
