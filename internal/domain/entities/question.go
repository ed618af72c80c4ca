package entities

import "time"

// Question is one multiple-choice item of a question bank.
type Question struct {
	ID              string
	BankID          string
	Subject         string   // JAMB subject, e.g. "Mathematics"
	Body            string   // question text
	Options         []string // answer options in display order
	AnswerIndex     int      // index of the correct option
	ExpectedSeconds int      // average time a student needs, 0 when unknown
	Position        int      // order inside the bank
	CreatedAt       time.Time
}

// IsCorrect reports whether the selected option is the right one.
func (q *Question) IsCorrect(selected int) bool {
	return selected == q.AnswerIndex
}

// CorrectOption returns the text of the right option, or "" when the answer index is out of range.
func (q *Question) CorrectOption() string {
	if q.AnswerIndex < 0 || q.AnswerIndex >= len(q.Options) {
		return ""
	}
	return q.Options[q.AnswerIndex]
}

// Validate checks that the question can be shown and graded.
func (q *Question) Validate() error {
	switch {
	case q.ID == "":
		return NewValidationError("id", "must not be empty")
	case q.BankID == "":
		return NewValidationError("bank_id", "must not be empty")
	case q.Body == "":
		return NewValidationError("body", "must not be empty")
	case len(q.Options) < 2:
		return NewValidationError("options", "need at least 2 options, got %d", len(q.Options))
	case q.AnswerIndex < 0 || q.AnswerIndex >= len(q.Options):
		return NewValidationError("answer_index", "out of range: %d", q.AnswerIndex)
	case q.ExpectedSeconds < 0:
		return NewValidationError("expected_seconds", "must not be negative")
	}
	return nil
}

// Bank summarises a question bank.
type Bank struct {
	ID            string
	QuestionCount int
}
