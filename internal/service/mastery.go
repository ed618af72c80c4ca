package service

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jambprep/jamb-mastery/internal/domain/entities"
)

const (
	defaultExpectedSeconds = 60
	defaultDueLimit        = 20
	defaultMaxDueLimit     = 100
)

// MasteryOptions tunes the mastery service.
type MasteryOptions struct {
	DefaultExpectedSeconds float64 // used when a question has no expected time
	DueLimit               int     // due queue size when the caller passes no limit
	MaxDueLimit            int     // upper bound for any requested limit
	UnseenLast             bool    // see Prioritizer.UnseenLast
}

func (o MasteryOptions) withDefaults() MasteryOptions {
	if o.DefaultExpectedSeconds <= 0 {
		o.DefaultExpectedSeconds = defaultExpectedSeconds
	}
	if o.DueLimit <= 0 {
		o.DueLimit = defaultDueLimit
	}
	if o.MaxDueLimit <= 0 {
		o.MaxDueLimit = defaultMaxDueLimit
	}
	if o.DueLimit > o.MaxDueLimit {
		o.DueLimit = o.MaxDueLimit
	}
	return o
}

// MasteryService records answers and builds due queues.
type MasteryService struct {
	mastery   MasteryRepository
	questions QuestionRepository
	reviews   ReviewLogRepository
	opts      MasteryOptions
	logger    *zap.Logger

	now func() time.Time
}

// NewMasteryService creates a new MasteryService. reviews may be nil, in which
// case answers are not logged.
func NewMasteryService(
	mastery MasteryRepository,
	questions QuestionRepository,
	reviews ReviewLogRepository,
	opts MasteryOptions,
	logger *zap.Logger,
) *MasteryService {
	return &MasteryService{
		mastery:   mastery,
		questions: questions,
		reviews:   reviews,
		opts:      opts.withDefaults(),
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RecordAnswer applies one answer to the student's mastery of a question and
// returns the stored record.
//
// Concurrent answers for the same pair are not serialized: the last write wins.
func (s *MasteryService) RecordAnswer(
	ctx context.Context,
	studentID, questionID string,
	isCorrect bool,
	timeSpentSeconds float64,
) (*entities.MasteryRecord, error) {
	if err := validateIDs(studentID, questionID); err != nil {
		return nil, err
	}
	if math.IsNaN(timeSpentSeconds) || math.IsInf(timeSpentSeconds, 0) || timeSpentSeconds < 0 {
		return nil, entities.NewValidationError("time_spent_seconds", "must be a finite non-negative number, got %v", timeSpentSeconds)
	}

	record, err := s.mastery.Get(ctx, studentID, questionID)
	switch {
	case errors.Is(err, entities.ErrMasteryNotFound):
		record = entities.DefaultMasteryRecord(studentID, questionID)
	case err != nil:
		return nil, persistenceError("get mastery", err)
	}

	expected, err := s.expectedSeconds(ctx, questionID)
	if err != nil {
		return nil, err
	}

	quality, err := entities.EvaluateQuality(isCorrect, timeSpentSeconds, expected)
	if err != nil {
		return nil, err
	}

	now := s.now()
	record.RegisterAnswer(isCorrect)

	schedule, err := entities.ScheduleNext(*record, quality, now)
	if err != nil {
		return nil, err
	}
	record.Apply(schedule, quality, now)

	if err := s.mastery.Upsert(ctx, record); err != nil {
		return nil, persistenceError("upsert mastery", err)
	}

	s.logReview(ctx, record, isCorrect, timeSpentSeconds, now)

	s.logger.Debug("answer recorded",
		zap.String("student_id", studentID),
		zap.String("question_id", questionID),
		zap.Bool("correct", isCorrect),
		zap.Int("quality", int(quality)),
		zap.Int("interval_days", record.IntervalDays),
		zap.Float64("ease_factor", record.EaseFactor),
	)

	return record, nil
}

// expectedSeconds returns the question's own expected time, or the configured default
// when the question is unknown or has none.
func (s *MasteryService) expectedSeconds(ctx context.Context, questionID string) (float64, error) {
	q, err := s.questions.GetByID(ctx, questionID)
	switch {
	case errors.Is(err, entities.ErrQuestionNotFound):
		return s.opts.DefaultExpectedSeconds, nil
	case err != nil:
		return 0, persistenceError("get question", err)
	case q.ExpectedSeconds > 0:
		return float64(q.ExpectedSeconds), nil
	default:
		return s.opts.DefaultExpectedSeconds, nil
	}
}

func (s *MasteryService) logReview(
	ctx context.Context,
	record *entities.MasteryRecord,
	isCorrect bool,
	timeSpentSeconds float64,
	answeredAt time.Time,
) {
	if s.reviews == nil {
		return
	}

	event := entities.NewReviewEvent(record, isCorrect, timeSpentSeconds, answeredAt)
	if err := s.reviews.Append(ctx, event); err != nil {
		s.logger.Warn("failed to append review event",
			zap.String("student_id", record.StudentID),
			zap.String("question_id", record.QuestionID),
			zap.Error(err),
		)
	}
}

// GetDueQuestions returns the student's review queue for a bank, most overdue first.
// A non-positive limit uses the configured default. It never writes.
func (s *MasteryService) GetDueQuestions(
	ctx context.Context,
	studentID, bankID string,
	limit int,
) ([]*entities.Question, error) {
	if studentID == "" {
		return nil, entities.NewValidationError("student_id", "must not be empty")
	}

	questions, byQuestion, err := s.loadBank(ctx, studentID, bankID)
	if err != nil {
		return nil, err
	}

	p := Prioritizer{UnseenLast: s.opts.UnseenLast}
	return p.Prioritize(questions, byQuestion, s.now(), s.dueLimit(limit)), nil
}

// loadBank reads the bank's questions and the student's records, keyed by question id.
func (s *MasteryService) loadBank(
	ctx context.Context,
	studentID, bankID string,
) ([]*entities.Question, map[string]*entities.MasteryRecord, error) {
	var (
		questions []*entities.Question
		records   []*entities.MasteryRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		questions, err = s.questions.ListByBank(gctx, bankID)
		if err != nil {
			return persistenceError("list questions", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		records, err = s.mastery.ListByStudent(gctx, studentID)
		if err != nil {
			return persistenceError("list mastery", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	byQuestion := make(map[string]*entities.MasteryRecord, len(records))
	for _, r := range records {
		byQuestion[r.QuestionID] = r
	}
	return questions, byQuestion, nil
}

func (s *MasteryService) dueLimit(limit int) int {
	if limit <= 0 {
		return s.opts.DueLimit
	}
	return min(limit, s.opts.MaxDueLimit)
}

// GetRecord returns the stored record, or the default record when the student never
// answered the question. The default record is not persisted.
func (s *MasteryService) GetRecord(ctx context.Context, studentID, questionID string) (*entities.MasteryRecord, error) {
	if err := validateIDs(studentID, questionID); err != nil {
		return nil, err
	}

	record, err := s.mastery.Get(ctx, studentID, questionID)
	switch {
	case errors.Is(err, entities.ErrMasteryNotFound):
		return entities.DefaultMasteryRecord(studentID, questionID), nil
	case err != nil:
		return nil, persistenceError("get mastery", err)
	}
	return record, nil
}

// MasterySummary aggregates a student's records.
type MasterySummary struct {
	StudentID   string
	Tracked     int // questions with a record
	ByLevel     map[entities.MasteryLevel]int
	DueNow      int     // tracked questions past their review date
	Reviews     int     // answers recorded over all questions
	AverageEase float64 // 0 when nothing is tracked
}

// GetMasterySummary counts the student's records per mastery level.
func (s *MasteryService) GetMasterySummary(ctx context.Context, studentID string, now time.Time) (*MasterySummary, error) {
	if studentID == "" {
		return nil, entities.NewValidationError("student_id", "must not be empty")
	}

	records, err := s.mastery.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, persistenceError("list mastery", err)
	}

	summary := &MasterySummary{
		StudentID: studentID,
		Tracked:   len(records),
		ByLevel:   make(map[entities.MasteryLevel]int, len(entities.AllLevels)),
	}
	for _, level := range entities.AllLevels {
		summary.ByLevel[level] = 0
	}

	var easeSum float64
	for _, r := range records {
		summary.ByLevel[r.Level()]++
		summary.Reviews += r.ReviewCount
		easeSum += r.EaseFactor
		if r.IsDue(now) {
			summary.DueNow++
		}
	}
	if len(records) > 0 {
		summary.AverageEase = easeSum / float64(len(records))
	}

	return summary, nil
}

// CountDue returns how many tracked questions of the student in bankID are past their
// review date. An empty bankID counts every bank.
func (s *MasteryService) CountDue(ctx context.Context, studentID, bankID string, now time.Time) (int, error) {
	if bankID == "" {
		summary, err := s.GetMasterySummary(ctx, studentID, now)
		if err != nil {
			return 0, err
		}
		return summary.DueNow, nil
	}

	if studentID == "" {
		return 0, entities.NewValidationError("student_id", "must not be empty")
	}

	questions, byQuestion, err := s.loadBank(ctx, studentID, bankID)
	if err != nil {
		return 0, err
	}

	due := 0
	for _, q := range questions {
		if rec, ok := byQuestion[q.ID]; ok && rec.IsDue(now) {
			due++
		}
	}
	return due, nil
}

// ListReviews returns the student's latest answers, newest first.
func (s *MasteryService) ListReviews(ctx context.Context, studentID string, limit int) ([]*entities.ReviewEvent, error) {
	if studentID == "" {
		return nil, entities.NewValidationError("student_id", "must not be empty")
	}
	if s.reviews == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = s.opts.DueLimit
	}

	events, err := s.reviews.ListRecent(ctx, studentID, min(limit, s.opts.MaxDueLimit))
	if err != nil {
		return nil, persistenceError("list reviews", err)
	}
	return events, nil
}

func validateIDs(studentID, questionID string) error {
	if studentID == "" {
		return entities.NewValidationError("student_id", "must not be empty")
	}
	if questionID == "" {
		return entities.NewValidationError("question_id", "must not be empty")
	}
	return nil
}
