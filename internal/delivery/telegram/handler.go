// Package telegram is the review bot: students pick a question bank, answer
// their due questions from inline keyboards and get a daily digest.
package telegram

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/jambprep/jamb-mastery/internal/domain/entities"
)

const defaultReviewSize = 10

type Handler struct {
	bot        BotAPI
	logger     *zap.Logger
	students   StudentService
	mastery    MasteryService
	sessions   SessionStorage
	reviewSize int

	now func() time.Time
}

func NewHandler(
	bot BotAPI,
	logger *zap.Logger,
	students StudentService,
	mastery MasteryService,
	sessions SessionStorage,
	reviewSize int,
) *Handler {
	if reviewSize <= 0 {
		reviewSize = defaultReviewSize
	}

	return &Handler{
		bot:        bot,
		logger:     logger,
		students:   students,
		mastery:    mastery,
		sessions:   sessions,
		reviewSize: reviewSize,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Commands lists the bot commands for the Telegram menu.
func Commands() []tgbotapi.BotCommand {
	return []tgbotapi.BotCommand{
		{Command: "start", Description: "Start the bot"},
		{Command: "banks", Description: "Choose a question bank"},
		{Command: "review", Description: "Answer the questions due now"},
		{Command: "progress", Description: "Show your mastery"},
		{Command: "reminders", Description: "Turn the daily digest on or off"},
		{Command: "help", Description: "Help"},
	}
}

func (h *Handler) Run(ctx context.Context) error {
	h.logger.Info("telegram handler started")
	defer h.logger.Info("telegram handler stopped")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := h.bot.GetUpdatesChan(u)
	defer h.bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			h.handleUpdate(ctx, update)
		}
	}
}

func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		h.logger.Debug("callback received",
			zap.Int64("user_id", update.CallbackQuery.From.ID),
			zap.String("data", update.CallbackQuery.Data),
		)
		h.handleCallback(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil || update.Message.From == nil {
		h.logger.Debug("update without message and callback")
		return
	}

	chatID := update.Message.Chat.ID
	h.logger.Debug("update received",
		zap.Int64("chat_id", chatID),
		zap.String("text", update.Message.Text),
	)

	student, err := h.students.EnsureTelegramStudent(ctx, update.Message.From.ID, chatID)
	if err != nil {
		h.logger.Error("failed to ensure student",
			zap.Int64("user_id", update.Message.From.ID),
			zap.Error(err),
		)
		h.sendError(chatID, msgInternalError)
		return
	}

	if !update.Message.IsCommand() {
		_ = h.send(newHTMLMessage(chatID, msgUseCommands))
		return
	}

	var fn HandlerFunc
	switch update.Message.Command() {
	case "start":
		fn = h.handleStart()
	case "help":
		fn = h.handleHelp()
	case "banks":
		fn = h.handleBanks()
	case "review":
		fn = h.handleReview(student)
	case "progress":
		fn = h.handleProgress(student)
	case "reminders":
		fn = h.handleReminders(student)
	default:
		_ = h.send(newHTMLMessage(chatID, msgUnknownCommand))
		return
	}

	_ = h.withErrorHandling(fn)(ctx, chatID)
}

func (h *Handler) sendError(chatID int64, text string) {
	_ = h.send(newHTMLMessage(chatID, text))
}

// send delivers c and logs failures.
func (h *Handler) send(c tgbotapi.Chattable) error {
	if _, err := h.bot.Send(c); err != nil {
		h.logger.Error("failed to send telegram message", zap.Error(err))
		return err
	}
	return nil
}

// request performs calls that return no message, like answering a callback.
func (h *Handler) request(c tgbotapi.Chattable) {
	if _, err := h.bot.Request(c); err != nil {
		h.logger.Debug("telegram request failed", zap.Error(err))
	}
}

func (h *Handler) studentFor(ctx context.Context, from *tgbotapi.User, chatID int64) (*entities.Student, error) {
	return h.students.EnsureTelegramStudent(ctx, from.ID, chatID)
}
