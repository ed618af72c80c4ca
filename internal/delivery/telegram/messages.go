// messages.go contains message templates and formatting functions for Telegram.

package telegram

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jambprep/jamb-mastery/internal/domain/entities"
	"github.com/jambprep/jamb-mastery/internal/service"
)

const (
	msgWelcome = "<b>Welcome to JAMB Prep!</b>\n\n" +
		"Practise past questions and the bot schedules each one for review " +
		"right before you are likely to forget it.\n\n" +
		"Pick a question bank to begin."
	msgHelp = "<b>Commands</b>\n\n" +
		"/banks — choose a question bank\n" +
		"/review — answer the questions due now\n" +
		"/progress — see your mastery\n" +
		"/reminders — turn the daily digest on or off\n\n" +
		"Answer quickly and correctly and a question comes back less often. " +
		"Miss it and it returns tomorrow."
	msgUnknownCommand  = "Unknown command. Send /help to see what I can do."
	msgUseCommands     = "Send /review to practise or /help for the list of commands."
	msgInternalError   = "Something went wrong. Please try again later."
	msgNoBanks         = "No question banks are loaded yet."
	msgUnknownBank     = "That bank is no longer available. Send /banks to pick another."
	msgChooseBank      = "<b>Choose a question bank</b>"
	msgChooseBankFirst = "Choose a question bank first."
	msgNoQuestions     = "This bank has no questions yet."
	msgStaleAnswer     = "This question is no longer active."
	msgRemindersOn     = "🔔 Daily digest is on. I will tell you when questions are due."
	msgRemindersOff    = "🔕 Daily digest is off."
)

var optionLetters = []string{"A", "B", "C", "D", "E", "F", "G", "H"}

// optionLabel returns the letter shown for option i.
func optionLabel(i int) string {
	if i < len(optionLetters) {
		return optionLetters[i]
	}
	return strconv.Itoa(i + 1)
}

func buildBankSelectedMessage(bankID string) string {
	return fmt.Sprintf("✅ Bank <b>%s</b> selected. Send /review to start.", escape(bankID))
}

func buildReviewStartMessage(bankID string, count int) string {
	return fmt.Sprintf("📝 <b>Review: %s</b>\n%d questions, most overdue first.", escape(bankID), count)
}

func buildQuestionMessage(q *entities.Question, number, total int) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "<b>Question %d/%d</b>", number, total)
	if q.Subject != "" {
		fmt.Fprintf(&sb, " · %s", escape(q.Subject))
	}
	sb.WriteString("\n\n")
	sb.WriteString(escape(q.Body))
	sb.WriteString("\n")

	for i, opt := range q.Options {
		fmt.Fprintf(&sb, "\n<b>%s.</b> %s", optionLabel(i), escape(opt))
	}

	return sb.String()
}

func buildAnswerFeedback(q *entities.Question, option int, record *entities.MasteryRecord, number, total int) string {
	var sb strings.Builder
	sb.WriteString(buildQuestionMessage(q, number, total))
	sb.WriteString("\n\n")

	if q.IsCorrect(option) {
		sb.WriteString("✅ <b>Correct!</b>")
	} else {
		fmt.Fprintf(&sb, "❌ <b>Wrong.</b> The answer is <b>%s. %s</b>",
			optionLabel(q.AnswerIndex), escape(q.CorrectOption()))
	}

	fmt.Fprintf(&sb, "\nNext review in %s (%s).", formatDays(record.IntervalDays), levelTitle(record.Level()))
	return sb.String()
}

func buildReviewSummaryMessage(correct, total int) string {
	return fmt.Sprintf("🏁 <b>Review finished</b>\n\nCorrect: %d / %d\n\n%s",
		correct, total, buildProgressBar(correct, total, 10))
}

func buildProgressMessage(s *service.MasterySummary) string {
	var sb strings.Builder

	sb.WriteString("<b>📊 Your mastery</b>\n\n")
	sb.WriteString(buildProgressBar(s.ByLevel[entities.LevelMastered], s.Tracked, 20))
	sb.WriteString("\n\n")

	for _, level := range entities.AllLevels {
		fmt.Fprintf(&sb, "%s <b>%s:</b> %d\n", levelIcon(level), levelTitle(level), s.ByLevel[level])
	}

	fmt.Fprintf(&sb, "\n📚 <b>Questions seen:</b> %d\n", s.Tracked)
	fmt.Fprintf(&sb, "⏰ <b>Due now:</b> %d\n", s.DueNow)
	fmt.Fprintf(&sb, "✍️ <b>Answers given:</b> %d\n", s.Reviews)
	if s.Tracked > 0 {
		fmt.Fprintf(&sb, "🎚 <b>Average ease:</b> %.2f\n", s.AverageEase)
	}

	return sb.String()
}

func buildDueDigestMessage(d entities.DueDigest) string {
	text := fmt.Sprintf("⏰ <b>%s due for review</b>", formatQuestions(d.DueCount))
	if d.BankID != "" {
		text += fmt.Sprintf(" in <b>%s</b>", escape(d.BankID))
	}
	return text + ".\n\nA short review now keeps them fresh."
}

func levelTitle(level entities.MasteryLevel) string {
	switch level {
	case entities.LevelMastered:
		return "Mastered"
	case entities.LevelFamiliar:
		return "Familiar"
	case entities.LevelLearning:
		return "Learning"
	default:
		return "New"
	}
}

func levelIcon(level entities.MasteryLevel) string {
	switch level {
	case entities.LevelMastered:
		return "🏆"
	case entities.LevelFamiliar:
		return "✅"
	case entities.LevelLearning:
		return "📖"
	default:
		return "🆕"
	}
}

func formatDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

func formatQuestions(n int) string {
	if n == 1 {
		return "1 question"
	}
	return fmt.Sprintf("%d questions", n)
}
