package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jambprep/jamb-mastery/internal/domain/entities"
)

const answerButtonsPerRow = 5

// buildAnswerKeyboard builds one lettered button per option of the question on screen.
func buildAnswerKeyboard(sessionID int64, index, options int) tgbotapi.InlineKeyboardMarkup {
	var (
		rows [][]tgbotapi.InlineKeyboardButton
		row  []tgbotapi.InlineKeyboardButton
	)
	for i := 0; i < options; i++ {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(optionLabel(i), buildAnswerCallback(sessionID, index, i)))
		if len(row) == answerButtonsPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// buildBanksKeyboard builds one button per bank. Banks whose id is too long
// for callback data are left out.
func buildBanksKeyboard(banks []*entities.Bank) (tgbotapi.InlineKeyboardMarkup, int) {
	var rows [][]tgbotapi.InlineKeyboardButton
	skipped := 0
	for _, b := range banks {
		data, ok := buildBankCallback(b.ID)
		if !ok {
			skipped++
			continue
		}
		label := b.ID + " (" + formatQuestions(b.QuestionCount) + ")"
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(label, data)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), skipped
}

// buildReviewKeyboard offers to start a review.
func buildReviewKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📝 Start review", buildReviewCallback()),
		),
	)
}

// buildReviewResultKeyboard builds keyboard for the review summary screen.
func buildReviewResultKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Review again", buildReviewCallback()),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 My progress", buildProgressCallback()),
		),
	)
}

// buildProgressKeyboard builds keyboard for progress screen.
func buildProgressKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Refresh", buildProgressCallback()),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📝 Start review", buildReviewCallback()),
		),
	)
}

// buildDigestKeyboard builds keyboard attached to the due digest.
func buildDigestKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📝 Start review", buildReviewCallback()),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔕 Turn off digest", buildRemindersCallback()),
		),
	)
}
