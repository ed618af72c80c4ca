package telegram

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/jambprep/jamb-mastery/internal/domain/entities"
	"github.com/jambprep/jamb-mastery/internal/storage"
)

// Notifier sends due digests. Each chat keeps only its latest digest: the
// previous one is deleted once the new one is out.
type Notifier struct {
	bot       BotAPI
	reminders *storage.ReminderStorage
	logger    *zap.Logger

	now func() time.Time
}

func NewNotifier(bot BotAPI, reminders *storage.ReminderStorage, logger *zap.Logger) *Notifier {
	return &Notifier{
		bot:       bot,
		reminders: reminders,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SendDueDigest implements service.DueNotifier.
func (n *Notifier) SendDueDigest(ctx context.Context, d entities.DueDigest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := newHTMLMessage(d.ChatID, buildDueDigestMessage(d))
	msg.ReplyMarkup = buildDigestKeyboard()

	sent, err := n.bot.Send(msg)
	if err != nil {
		return fmt.Errorf("send due digest: %w", err)
	}

	prev, hadPrev := n.reminders.UpsertAndGetPrev(d.ChatID, sent.MessageID, n.now())
	if hadPrev && prev.MessageID != sent.MessageID {
		if _, err := n.bot.Request(tgbotapi.NewDeleteMessage(d.ChatID, prev.MessageID)); err != nil {
			n.logger.Debug("failed to delete previous digest",
				zap.Int64("chat_id", d.ChatID),
				zap.Int("message_id", prev.MessageID),
				zap.Error(err),
			)
		}
	}

	return nil
}
