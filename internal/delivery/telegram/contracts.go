package telegram

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jambprep/jamb-mastery/internal/domain/entities"
	"github.com/jambprep/jamb-mastery/internal/service"
)

// BotAPI is the subset of *tgbotapi.BotAPI the bot uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type StudentService interface {
	EnsureTelegramStudent(ctx context.Context, telegramID, chatID int64) (*entities.Student, error)
	ListBanks(ctx context.Context) ([]*entities.Bank, error)
	SelectBank(ctx context.Context, studentID, bankID string) error
	ToggleReminders(ctx context.Context, studentID string) (bool, error)
}

type MasteryService interface {
	RecordAnswer(ctx context.Context, studentID, questionID string, isCorrect bool, timeSpentSeconds float64) (*entities.MasteryRecord, error)
	GetDueQuestions(ctx context.Context, studentID, bankID string, limit int) ([]*entities.Question, error)
	GetMasterySummary(ctx context.Context, studentID string, now time.Time) (*service.MasterySummary, error)
}

type SessionStorage interface {
	Store(chatID int64, session *entities.ReviewSession)
	Get(chatID int64) (*entities.ReviewSession, bool)
	Delete(chatID int64)
	Update(chatID int64, fn func(session *entities.ReviewSession)) bool
}
