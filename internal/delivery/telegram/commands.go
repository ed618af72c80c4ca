package telegram

import (
	"context"

	"go.uber.org/zap"

	"github.com/jambprep/jamb-mastery/internal/domain/entities"
)

// handleStart greets the student and offers the bank list.
func (h *Handler) handleStart() HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		if err := h.send(newHTMLMessage(chatID, msgWelcome)); err != nil {
			return err
		}
		return h.handleBanks()(ctx, chatID)
	}
}

func (h *Handler) handleHelp() HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		return h.send(newHTMLMessage(chatID, msgHelp))
	}
}

// handleBanks lists the question banks as buttons.
func (h *Handler) handleBanks() HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		banks, err := h.students.ListBanks(ctx)
		if err != nil {
			return err
		}

		if len(banks) == 0 {
			return h.send(newHTMLMessage(chatID, msgNoBanks))
		}

		kb, skipped := buildBanksKeyboard(banks)
		if skipped > 0 {
			h.logger.Warn("banks left out of keyboard, id too long",
				zap.Int("skipped", skipped),
			)
		}

		msg := newHTMLMessage(chatID, msgChooseBank)
		msg.ReplyMarkup = kb
		return h.send(msg)
	}
}

// handleReminders flips the daily digest.
func (h *Handler) handleReminders(student *entities.Student) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		enabled, err := h.students.ToggleReminders(ctx, student.ID)
		if err != nil {
			return err
		}

		text := msgRemindersOff
		if enabled {
			text = msgRemindersOn
		}
		return h.send(newHTMLMessage(chatID, text))
	}
}
