// Package entities contains domain entities used across the application.
package entities

import (
	"time"
)

// MasteryLevel is a display band derived from the correct-answer streak.
type MasteryLevel string

const (
	LevelNew      MasteryLevel = "new"      // no correct answer since the last miss
	LevelLearning MasteryLevel = "learning" // 1-2 correct in a row
	LevelFamiliar MasteryLevel = "familiar" // 3-4 correct in a row
	LevelMastered MasteryLevel = "mastered" // 5 or more correct in a row
)

// AllLevels lists the mastery levels in advancing order.
var AllLevels = []MasteryLevel{LevelNew, LevelLearning, LevelFamiliar, LevelMastered}

// LevelFor maps a streak onto its mastery band.
func LevelFor(consecutiveCorrect int) MasteryLevel {
	switch {
	case consecutiveCorrect >= 5:
		return LevelMastered
	case consecutiveCorrect >= 3:
		return LevelFamiliar
	case consecutiveCorrect >= 1:
		return LevelLearning
	default:
		return LevelNew
	}
}

// MasteryRecord stores the spaced repetition state of one student for one question.
type MasteryRecord struct {
	StudentID  string // opaque student identifier
	QuestionID string // opaque question identifier

	// Scheduling fields.
	ConsecutiveCorrect int       // correct answers in a row since the last miss
	EaseFactor         float64   // SM-2 ease, never below MinEaseFactor
	IntervalDays       int       // days until the next review, at least 1
	NextReviewDate     time.Time // when the question becomes due

	// Bookkeeping, not used by scheduling.
	ReviewCount    int
	LastQuality    Quality
	LastReviewedAt *time.Time // nil until the first answer
}

// DefaultMasteryRecord returns the implicit record of a question the student never answered.
// It is due since the Unix epoch, so unseen questions rank as the most overdue.
func DefaultMasteryRecord(studentID, questionID string) *MasteryRecord {
	return &MasteryRecord{
		StudentID:          studentID,
		QuestionID:         questionID,
		ConsecutiveCorrect: 0,
		EaseFactor:         DefaultEaseFactor,
		IntervalDays:       firstInterval,
		NextReviewDate:     time.Unix(0, 0).UTC(),
	}
}

// Level returns the derived mastery band.
func (r *MasteryRecord) Level() MasteryLevel {
	return LevelFor(r.ConsecutiveCorrect)
}

// IsNew reports whether the record has never been answered.
func (r *MasteryRecord) IsNew() bool {
	return r.LastReviewedAt == nil && r.ReviewCount == 0
}

// Overdue returns how far past its due date the record is. Negative when not yet due.
func (r *MasteryRecord) Overdue(now time.Time) time.Duration {
	return now.Sub(r.NextReviewDate)
}

// IsDue reports whether the record is strictly past its review date.
func (r *MasteryRecord) IsDue(now time.Time) bool {
	return r.Overdue(now) > 0
}

// RegisterAnswer updates the streak for an answer. It must run before ScheduleNext.
func (r *MasteryRecord) RegisterAnswer(isCorrect bool) {
	if isCorrect {
		r.ConsecutiveCorrect++
		return
	}
	r.ConsecutiveCorrect = 0
}

// Apply stores a computed schedule on the record.
func (r *MasteryRecord) Apply(s Schedule, quality Quality, reviewedAt time.Time) {
	r.EaseFactor = s.EaseFactor
	r.IntervalDays = s.IntervalDays
	r.NextReviewDate = s.NextReviewDate
	r.LastQuality = quality
	r.ReviewCount++

	at := reviewedAt.UTC()
	r.LastReviewedAt = &at
}

// Validate checks the record invariants. Used when records are read back from a store.
func (r *MasteryRecord) Validate() error {
	switch {
	case r.StudentID == "":
		return NewValidationError("student_id", "must not be empty")
	case r.QuestionID == "":
		return NewValidationError("question_id", "must not be empty")
	case r.ConsecutiveCorrect < 0:
		return NewValidationError("consecutive_correct", "must not be negative, got %d", r.ConsecutiveCorrect)
	case r.EaseFactor < MinEaseFactor:
		return NewValidationError("ease_factor", "must be at least %.1f, got %v", MinEaseFactor, r.EaseFactor)
	case r.IntervalDays < 1:
		return NewValidationError("interval_days", "must be at least 1, got %d", r.IntervalDays)
	}
	return nil
}
