package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/jambprep/jamb-mastery/internal/domain/entities"
)

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	// Remove the user's "clock".
	defer h.request(tgbotapi.NewCallback(cb.ID, ""))

	if cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID

	student, err := h.studentFor(ctx, cb.From, chatID)
	if err != nil {
		h.logger.Error("failed to ensure student",
			zap.Int64("user_id", cb.From.ID),
			zap.Error(err),
		)
		h.sendError(chatID, msgInternalError)
		return
	}

	cd := decodeCallback(cb.Data)

	var fn HandlerFunc
	switch cd.Action {
	case actionAnswer:
		ans, err := parseAnswerCallback(cd)
		if err != nil {
			h.logger.Warn("invalid callback", zap.String("data", cb.Data), zap.Error(err))
			return
		}
		fn = h.handleAnswer(ans, messageID)
	case actionBank:
		fn = h.handleSelectBank(student, bankFromCallback(cd), messageID)
	case actionReview:
		fn = h.handleReview(student)
	case actionProgress:
		fn = h.refreshProgress(student, messageID)
	case actionReminders:
		fn = h.handleReminders(student)
	default:
		h.logger.Debug("unknown callback", zap.String("data", cb.Data))
		return
	}

	_ = h.withErrorHandling(fn)(ctx, chatID)
}

// handleSelectBank stores the chosen bank and replaces the bank list with a confirmation.
func (h *Handler) handleSelectBank(student *entities.Student, bankID string, messageID int) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		if err := h.students.SelectBank(ctx, student.ID, bankID); err != nil {
			if entities.IsValidationError(err) {
				return h.send(newHTMLMessage(chatID, msgUnknownBank))
			}
			return err
		}

		edit := newHTMLEdit(chatID, messageID, buildBankSelectedMessage(bankID))
		kb := buildReviewKeyboard()
		edit.ReplyMarkup = &kb
		h.request(edit)
		return nil
	}
}
