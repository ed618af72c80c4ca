package entities

import (
	"time"

	"github.com/google/uuid"
)

// Student is a learner known to the bot.
type Student struct {
	ID               string // uuid shared with the rest of the portal
	TelegramID       int64
	ChatID           int64
	BankID           string // selected question bank, "" when none
	RemindersEnabled bool
	CreatedAt        time.Time
}

// NewTelegramStudent creates a student for a Telegram user with a fresh id.
func NewTelegramStudent(telegramID, chatID int64) *Student {
	return &Student{
		ID:               uuid.NewString(),
		TelegramID:       telegramID,
		ChatID:           chatID,
		RemindersEnabled: true,
		CreatedAt:        time.Now().UTC(),
	}
}

// ReviewEvent is an immutable log entry for one recorded answer.
type ReviewEvent struct {
	ID               string
	StudentID        string
	QuestionID       string
	IsCorrect        bool
	TimeSpentSeconds float64
	Quality          Quality
	EaseFactor       float64 // ease after the answer
	IntervalDays     int     // interval after the answer
	AnsweredAt       time.Time
}

// NewReviewEvent builds the log entry for an answer that produced record.
func NewReviewEvent(record *MasteryRecord, isCorrect bool, timeSpentSeconds float64, answeredAt time.Time) *ReviewEvent {
	return &ReviewEvent{
		ID:               uuid.NewString(),
		StudentID:        record.StudentID,
		QuestionID:       record.QuestionID,
		IsCorrect:        isCorrect,
		TimeSpentSeconds: timeSpentSeconds,
		Quality:          record.LastQuality,
		EaseFactor:       record.EaseFactor,
		IntervalDays:     record.IntervalDays,
		AnsweredAt:       answeredAt.UTC(),
	}
}

// DueDigest is the payload of a due-questions reminder.
type DueDigest struct {
	StudentID string
	ChatID    int64
	BankID    string
	DueCount  int
}
