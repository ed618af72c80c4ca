package entities

import "time"

// ReviewSession is one run through a student's due queue in the bot.
// It tracks which question is on screen and when it was shown, so the
// time spent on an answer can be measured.
type ReviewSession struct {
	ID        int64     // unique per session, embedded in answer callbacks to spot stale buttons
	StudentID string    // student taking the review
	Questions []*Question
	Current   int       // index of the question on screen
	ShownAt   time.Time // when the current question was sent
	Correct   int       // correct answers so far
	StartedAt time.Time
}

// NewReviewSession starts a session over the given queue.
func NewReviewSession(studentID string, questions []*Question, now time.Time) *ReviewSession {
	return &ReviewSession{
		StudentID: studentID,
		Questions: questions,
		ShownAt:   now,
		StartedAt: now,
	}
}

// CurrentQuestion returns the question on screen, or nil when the session is finished.
func (s *ReviewSession) CurrentQuestion() *Question {
	if s.Finished() {
		return nil
	}
	return s.Questions[s.Current]
}

// Elapsed returns the seconds spent on the current question.
func (s *ReviewSession) Elapsed(now time.Time) float64 {
	d := now.Sub(s.ShownAt).Seconds()
	if d < 0 {
		return 0
	}
	return d
}

// Advance records the outcome of the current question and moves on.
func (s *ReviewSession) Advance(isCorrect bool, now time.Time) {
	if isCorrect {
		s.Correct++
	}
	s.Current++
	s.ShownAt = now
}

// Finished reports whether every question was answered.
func (s *ReviewSession) Finished() bool {
	return s.Current >= len(s.Questions)
}

// Total returns the number of questions in the session.
func (s *ReviewSession) Total() int {
	return len(s.Questions)
}
