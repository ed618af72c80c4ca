package telegram

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jambprep/jamb-mastery/internal/domain/entities"
)

// handleReview starts a session over the student's due queue, replacing any
// unfinished one in the chat.
func (h *Handler) handleReview(student *entities.Student) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		if student.BankID == "" {
			if err := h.send(newHTMLMessage(chatID, msgChooseBankFirst)); err != nil {
				return err
			}
			return h.handleBanks()(ctx, chatID)
		}

		questions, err := h.mastery.GetDueQuestions(ctx, student.ID, student.BankID, h.reviewSize)
		if err != nil {
			return err
		}
		if len(questions) == 0 {
			return h.send(newHTMLMessage(chatID, msgNoQuestions))
		}

		if err := h.send(newHTMLMessage(chatID, buildReviewStartMessage(student.BankID, len(questions)))); err != nil {
			return err
		}

		now := h.now()
		session := entities.NewReviewSession(student.ID, questions, now)
		session.ID = now.UnixNano()
		h.sessions.Store(chatID, session)

		h.logger.Debug("review started",
			zap.String("student_id", student.ID),
			zap.String("bank_id", student.BankID),
			zap.Int("questions", len(questions)),
		)

		return h.sendQuestion(chatID, session.ID, questions[0], 0, len(questions))
	}
}

func (h *Handler) sendQuestion(chatID, sessionID int64, q *entities.Question, index, total int) error {
	msg := newHTMLMessage(chatID, buildQuestionMessage(q, index+1, total))
	msg.ReplyMarkup = buildAnswerKeyboard(sessionID, index, len(q.Options))
	return h.send(msg)
}

// answerOutcome is what an answer callback changed in the session.
type answerOutcome struct {
	studentID string
	question  *entities.Question
	index     int
	elapsed   float64

	next     *entities.Question // nil when the session is finished
	total    int
	correct  int
	finished bool
}

// handleAnswer grades the chosen option, records it and shows the next question.
// Buttons of an old session or an already answered question are ignored.
func (h *Handler) handleAnswer(ans answerCallback, messageID int) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		var (
			out   answerOutcome
			stale = true
		)

		h.sessions.Update(chatID, func(s *entities.ReviewSession) {
			if s.ID != ans.SessionID || s.Current != ans.Index || s.Finished() {
				return
			}
			stale = false

			now := h.now()
			q := s.CurrentQuestion()
			out.studentID = s.StudentID
			out.question = q
			out.index = s.Current
			out.elapsed = s.Elapsed(now)

			s.Advance(q.IsCorrect(ans.Option), now)

			out.next = s.CurrentQuestion()
			out.total = s.Total()
			out.correct = s.Correct
			out.finished = s.Finished()
		})

		if stale {
			return h.send(newHTMLMessage(chatID, msgStaleAnswer))
		}

		isCorrect := out.question.IsCorrect(ans.Option)
		record, err := h.mastery.RecordAnswer(ctx, out.studentID, out.question.ID, isCorrect, out.elapsed)
		if err != nil {
			return fmt.Errorf("record answer: %w", err)
		}

		h.request(newHTMLEdit(chatID, messageID,
			buildAnswerFeedback(out.question, ans.Option, record, out.index+1, out.total)))

		if !out.finished {
			return h.sendQuestion(chatID, ans.SessionID, out.next, out.index+1, out.total)
		}

		h.sessions.Delete(chatID)

		h.logger.Debug("review finished",
			zap.String("student_id", out.studentID),
			zap.Int("correct", out.correct),
			zap.Int("total", out.total),
		)

		msg := newHTMLMessage(chatID, buildReviewSummaryMessage(out.correct, out.total))
		msg.ReplyMarkup = buildReviewResultKeyboard()
		return h.send(msg)
	}
}
