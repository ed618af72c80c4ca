package telegram

import (
	"context"

	"github.com/jambprep/jamb-mastery/internal/domain/entities"
)

func (h *Handler) handleProgress(student *entities.Student) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		text, err := h.renderProgress(ctx, student.ID)
		if err != nil {
			return err
		}

		msg := newHTMLMessage(chatID, text)
		msg.ReplyMarkup = buildProgressKeyboard()
		return h.send(msg)
	}
}

// refreshProgress redraws the progress message in place.
func (h *Handler) refreshProgress(student *entities.Student, messageID int) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		text, err := h.renderProgress(ctx, student.ID)
		if err != nil {
			return err
		}

		edit := newHTMLEdit(chatID, messageID, text)
		kb := buildProgressKeyboard()
		edit.ReplyMarkup = &kb

		// Telegram rejects edits that change nothing; that is not worth reporting.
		h.request(edit)
		return nil
	}
}

func (h *Handler) renderProgress(ctx context.Context, studentID string) (string, error) {
	summary, err := h.mastery.GetMasterySummary(ctx, studentID, h.now())
	if err != nil {
		return "", err
	}
	return buildProgressMessage(summary), nil
}
