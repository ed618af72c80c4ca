package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jambprep/jamb-mastery/internal/domain/entities"
)

var day0 = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

var errStoreDown = errors.New("connection refused")

type masteryFixture struct {
	mastery   *fakeMasteryRepo
	questions *fakeQuestionRepo
	reviews   *fakeReviewLog
	svc       *MasteryService
}

func newMasteryFixture(t *testing.T, opts MasteryOptions, records ...*entities.MasteryRecord) *masteryFixture {
	t.Helper()

	f := &masteryFixture{
		mastery: newFakeMasteryRepo(records...),
		questions: &fakeQuestionRepo{questions: []*entities.Question{
			{ID: "q1", BankID: "maths", Body: "2+2", Options: []string{"3", "4"}, AnswerIndex: 1, ExpectedSeconds: 30, Position: 1},
			{ID: "q2", BankID: "maths", Body: "3+3", Options: []string{"6", "7"}, AnswerIndex: 0, Position: 2},
			{ID: "q3", BankID: "maths", Body: "4+4", Options: []string{"8", "9"}, AnswerIndex: 0, ExpectedSeconds: 45, Position: 3},
			{ID: "e1", BankID: "english", Body: "synonym of big", Options: []string{"large", "tiny"}, AnswerIndex: 0, Position: 1},
		}},
		reviews: &fakeReviewLog{},
	}
	f.svc = NewMasteryService(f.mastery, f.questions, f.reviews, opts, zap.NewNop())
	f.svc.now = fixedClock(day0)
	return f
}

func TestRecordAnswer_FirstCorrectAnswer(t *testing.T) {
	f := newMasteryFixture(t, MasteryOptions{})

	rec, err := f.svc.RecordAnswer(context.Background(), "s1", "q1", true, 10)
	require.NoError(t, err)

	assert.Equal(t, 1, rec.ConsecutiveCorrect)
	assert.InDelta(t, 2.6, rec.EaseFactor, 1e-9)
	assert.Equal(t, 6, rec.IntervalDays)
	assert.Equal(t, day0.AddDate(0, 0, 6), rec.NextReviewDate)
	assert.Equal(t, entities.QualityPerfect, rec.LastQuality)
	assert.Equal(t, 1, rec.ReviewCount)

	stored := f.mastery.snapshot()["s1|q1"]
	assert.Equal(t, *rec, stored)

	require.Len(t, f.reviews.events, 1)
	ev := f.reviews.events[0]
	assert.Equal(t, "s1", ev.StudentID)
	assert.Equal(t, "q1", ev.QuestionID)
	assert.Equal(t, entities.QualityPerfect, ev.Quality)
	assert.Equal(t, 6, ev.IntervalDays)
	assert.NotEmpty(t, ev.ID)
}

// Two correct answers six days apart on a 30 second question.
func TestRecordAnswer_WalkthroughScenario(t *testing.T) {
	f := newMasteryFixture(t, MasteryOptions{})
	ctx := context.Background()

	rec, err := f.svc.RecordAnswer(ctx, "student-1", "q1", true, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.ConsecutiveCorrect)
	assert.Equal(t, 6, rec.IntervalDays)
	assert.InDelta(t, 2.6, rec.EaseFactor, 1e-9)

	later := day0.AddDate(0, 0, 6)
	f.svc.now = fixedClock(later)

	rec, err = f.svc.RecordAnswer(ctx, "student-1", "q1", true, 24)
	require.NoError(t, err)
	assert.Equal(t, entities.QualityHesitant, rec.LastQuality)
	assert.Equal(t, 2, rec.ConsecutiveCorrect)
	assert.InDelta(t, 2.6, rec.EaseFactor, 1e-9)
	assert.Equal(t, 16, rec.IntervalDays)
	assert.Equal(t, later.AddDate(0, 0, 16), rec.NextReviewDate)
}

func TestRecordAnswer_IncorrectResetsStreak(t *testing.T) {
	existing := &entities.MasteryRecord{
		StudentID: "s1", QuestionID: "q1",
		ConsecutiveCorrect: 4, EaseFactor: 2.5, IntervalDays: 20,
		NextReviewDate: day0.Add(-time.Hour), ReviewCount: 4,
	}
	f := newMasteryFixture(t, MasteryOptions{}, existing)

	rec, err := f.svc.RecordAnswer(context.Background(), "s1", "q1", false, 5)
	require.NoError(t, err)

	assert.Equal(t, 0, rec.ConsecutiveCorrect)
	assert.Equal(t, 1, rec.IntervalDays)
	assert.InDelta(t, 1.7, rec.EaseFactor, 1e-9)
	assert.Equal(t, entities.QualityBlackout, rec.LastQuality)
	assert.Equal(t, 5, rec.ReviewCount)
	assert.Equal(t, day0.AddDate(0, 0, 1), rec.NextReviewDate)
}

func TestRecordAnswer_EaseNeverDropsBelowFloor(t *testing.T) {
	f := newMasteryFixture(t, MasteryOptions{})

	for i := 0; i < 10; i++ {
		rec, err := f.svc.RecordAnswer(context.Background(), "s1", "q1", false, 1)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, rec.EaseFactor, entities.MinEaseFactor)
		assert.Equal(t, 1, rec.IntervalDays)
	}
	assert.Equal(t, entities.MinEaseFactor, f.mastery.snapshot()["s1|q1"].EaseFactor)
}

func TestRecordAnswer_ExpectedSeconds(t *testing.T) {
	tests := []struct {
		name       string
		questionID string
		opts       MasteryOptions
		spent      float64
		want       entities.Quality
	}{
		{"question time", "q1", MasteryOptions{}, 20, entities.QualityHesitant},
		{"default time when question has none", "q2", MasteryOptions{}, 29, entities.QualityPerfect},
		{"default time when question is unknown", "missing", MasteryOptions{}, 45, entities.QualityHesitant},
		{"configured default", "q2", MasteryOptions{DefaultExpectedSeconds: 20}, 15, entities.QualityHesitant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newMasteryFixture(t, tt.opts)

			rec, err := f.svc.RecordAnswer(context.Background(), "s1", tt.questionID, true, tt.spent)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.LastQuality)
		})
	}
}

func TestRecordAnswer_InvalidInputTouchesNoStore(t *testing.T) {
	tests := []struct {
		name       string
		studentID  string
		questionID string
		spent      float64
		field      string
	}{
		{"empty student", "", "q1", 10, "student_id"},
		{"empty question", "s1", "", 10, "question_id"},
		{"negative time", "s1", "q1", -3, "time_spent_seconds"},
		{"nan time", "s1", "q1", math.NaN(), "time_spent_seconds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newMasteryFixture(t, MasteryOptions{})

			_, err := f.svc.RecordAnswer(context.Background(), tt.studentID, tt.questionID, true, tt.spent)
			require.Error(t, err)

			var vErr *entities.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
			assert.Zero(t, f.mastery.gets)
			assert.Zero(t, f.mastery.upserts)
		})
	}
}

func TestRecordAnswer_PersistenceFailures(t *testing.T) {
	t.Run("read", func(t *testing.T) {
		f := newMasteryFixture(t, MasteryOptions{})
		f.mastery.getErr = errStoreDown

		_, err := f.svc.RecordAnswer(context.Background(), "s1", "q1", true, 10)
		require.ErrorIs(t, err, ErrPersistenceUnavailable)
		assert.ErrorIs(t, err, errStoreDown)
		assert.Zero(t, f.mastery.upserts)
	})

	t.Run("question lookup", func(t *testing.T) {
		f := newMasteryFixture(t, MasteryOptions{})
		f.questions.getErr = errStoreDown

		_, err := f.svc.RecordAnswer(context.Background(), "s1", "q1", true, 10)
		require.ErrorIs(t, err, ErrPersistenceUnavailable)
		assert.Zero(t, f.mastery.upserts)
	})

	t.Run("write", func(t *testing.T) {
		f := newMasteryFixture(t, MasteryOptions{})
		f.mastery.upsertErr = errStoreDown

		_, err := f.svc.RecordAnswer(context.Background(), "s1", "q1", true, 10)
		require.ErrorIs(t, err, ErrPersistenceUnavailable)
		assert.Empty(t, f.reviews.events)
	})

	t.Run("review log is best effort", func(t *testing.T) {
		f := newMasteryFixture(t, MasteryOptions{})
		f.reviews.appendErr = errStoreDown

		rec, err := f.svc.RecordAnswer(context.Background(), "s1", "q1", true, 10)
		require.NoError(t, err)
		assert.Equal(t, 6, rec.IntervalDays)
	})
}

func TestGetDueQuestions_OrdersByOverdue(t *testing.T) {
	f := newMasteryFixture(t, MasteryOptions{},
		&entities.MasteryRecord{StudentID: "s1", QuestionID: "q1", EaseFactor: 2.5, IntervalDays: 1, NextReviewDate: day0.Add(-1 * time.Hour)},
		&entities.MasteryRecord{StudentID: "s1", QuestionID: "q2", EaseFactor: 2.5, IntervalDays: 6, NextReviewDate: day0.Add(48 * time.Hour)},
		&entities.MasteryRecord{StudentID: "s1", QuestionID: "q3", EaseFactor: 2.5, IntervalDays: 1, NextReviewDate: day0.Add(-72 * time.Hour)},
		&entities.MasteryRecord{StudentID: "other", QuestionID: "e1", EaseFactor: 2.5, IntervalDays: 1, NextReviewDate: day0.Add(240 * time.Hour)},
	)
	before := f.mastery.snapshot()

	got, err := f.svc.GetDueQuestions(context.Background(), "s1", "", 0)
	require.NoError(t, err)

	// e1 is unseen by s1, so it is due since the epoch.
	assert.Equal(t, []string{"e1", "q3", "q1", "q2"}, questionIDs(got))
	assert.Equal(t, before, f.mastery.snapshot())
	assert.Zero(t, f.mastery.upserts)
}

func TestGetDueQuestions_BankAndLimit(t *testing.T) {
	f := newMasteryFixture(t, MasteryOptions{DueLimit: 2, MaxDueLimit: 3})
	ctx := context.Background()

	got, err := f.svc.GetDueQuestions(ctx, "s1", "maths", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"q1", "q2"}, questionIDs(got))

	got, err = f.svc.GetDueQuestions(ctx, "s1", "maths", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"q1"}, questionIDs(got))

	got, err = f.svc.GetDueQuestions(ctx, "s1", "", 50)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = f.svc.GetDueQuestions(ctx, "s1", "physics", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetDueQuestions_UnseenLast(t *testing.T) {
	f := newMasteryFixture(t, MasteryOptions{UnseenLast: true},
		&entities.MasteryRecord{StudentID: "s1", QuestionID: "q3", EaseFactor: 2.5, IntervalDays: 6, NextReviewDate: day0.Add(24 * time.Hour)},
	)

	got, err := f.svc.GetDueQuestions(context.Background(), "s1", "maths", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"q3", "q1", "q2"}, questionIDs(got))
}

func TestGetDueQuestions_Failures(t *testing.T) {
	f := newMasteryFixture(t, MasteryOptions{})

	_, err := f.svc.GetDueQuestions(context.Background(), "", "maths", 5)
	assert.True(t, entities.IsValidationError(err))

	f.mastery.listErr = errStoreDown
	_, err = f.svc.GetDueQuestions(context.Background(), "s1", "maths", 5)
	assert.ErrorIs(t, err, ErrPersistenceUnavailable)

	f.mastery.listErr = nil
	f.questions.listErr = errStoreDown
	_, err = f.svc.GetDueQuestions(context.Background(), "s1", "maths", 5)
	assert.ErrorIs(t, err, ErrPersistenceUnavailable)
}

func TestGetDueQuestions_RepeatableWithoutRecords(t *testing.T) {
	f := newMasteryFixture(t, MasteryOptions{})
	ctx := context.Background()

	first, err := f.svc.GetDueQuestions(ctx, "newcomer", "", 0)
	require.NoError(t, err)
	second, err := f.svc.GetDueQuestions(ctx, "newcomer", "", 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"q1", "q2", "q3", "e1"}, questionIDs(first))
	assert.Equal(t, questionIDs(first), questionIDs(second))
	assert.Zero(t, f.mastery.upserts)
	assert.Empty(t, f.mastery.snapshot())
}

func TestGetRecord_DefaultIsNotPersisted(t *testing.T) {
	f := newMasteryFixture(t, MasteryOptions{})

	rec, err := f.svc.GetRecord(context.Background(), "s1", "q1")
	require.NoError(t, err)
	assert.Equal(t, entities.DefaultMasteryRecord("s1", "q1"), rec)
	assert.Zero(t, f.mastery.upserts)
}

func TestGetMasterySummary(t *testing.T) {
	f := newMasteryFixture(t, MasteryOptions{},
		&entities.MasteryRecord{StudentID: "s1", QuestionID: "q1", ConsecutiveCorrect: 0, EaseFactor: 1.7, IntervalDays: 1, NextReviewDate: day0.Add(-time.Hour), ReviewCount: 3},
		&entities.MasteryRecord{StudentID: "s1", QuestionID: "q2", ConsecutiveCorrect: 2, EaseFactor: 2.6, IntervalDays: 16, NextReviewDate: day0.Add(time.Hour), ReviewCount: 2},
		&entities.MasteryRecord{StudentID: "s1", QuestionID: "q3", ConsecutiveCorrect: 6, EaseFactor: 2.8, IntervalDays: 90, NextReviewDate: day0.Add(-24 * time.Hour), ReviewCount: 6},
	)

	summary, err := f.svc.GetMasterySummary(context.Background(), "s1", day0)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Tracked)
	assert.Equal(t, 2, summary.DueNow)
	assert.Equal(t, 11, summary.Reviews)
	assert.InDelta(t, (1.7+2.6+2.8)/3, summary.AverageEase, 1e-9)
	assert.Equal(t, map[entities.MasteryLevel]int{
		entities.LevelNew:      1,
		entities.LevelLearning: 1,
		entities.LevelFamiliar: 0,
		entities.LevelMastered: 1,
	}, summary.ByLevel)

	due, err := f.svc.CountDue(context.Background(), "s1", "", day0)
	require.NoError(t, err)
	assert.Equal(t, 2, due)
}

func TestCountDue_ByBank(t *testing.T) {
	f := newMasteryFixture(t, MasteryOptions{},
		&entities.MasteryRecord{StudentID: "s1", QuestionID: "q1", EaseFactor: 2.5, IntervalDays: 1, NextReviewDate: day0.Add(-time.Hour)},
		&entities.MasteryRecord{StudentID: "s1", QuestionID: "q2", EaseFactor: 2.5, IntervalDays: 6, NextReviewDate: day0.Add(time.Hour)},
		&entities.MasteryRecord{StudentID: "s1", QuestionID: "e1", EaseFactor: 2.5, IntervalDays: 1, NextReviewDate: day0.Add(-48 * time.Hour)},
	)
	ctx := context.Background()

	tests := []struct {
		bank string
		want int
	}{
		{"maths", 1},
		{"english", 1},
		{"physics", 0},
		{"", 2},
	}
	for _, tt := range tests {
		due, err := f.svc.CountDue(ctx, "s1", tt.bank, day0)
		require.NoError(t, err)
		assert.Equal(t, tt.want, due, "bank %q", tt.bank)
	}

	_, err := f.svc.CountDue(ctx, "", "maths", day0)
	assert.True(t, entities.IsValidationError(err))

	f.questions.listErr = errStoreDown
	_, err = f.svc.CountDue(ctx, "s1", "maths", day0)
	assert.ErrorIs(t, err, ErrPersistenceUnavailable)
}

func TestListReviews(t *testing.T) {
	f := newMasteryFixture(t, MasteryOptions{})
	ctx := context.Background()

	for _, id := range []string{"q1", "q2", "q3"} {
		_, err := f.svc.RecordAnswer(ctx, "s1", id, true, 5)
		require.NoError(t, err)
	}

	events, err := f.svc.ListReviews(ctx, "s1", 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "q3", events[0].QuestionID)
	assert.Equal(t, "q2", events[1].QuestionID)
}

func questionIDs(qs []*entities.Question) []string {
	ids := make([]string, len(qs))
	for i, q := range qs {
		ids[i] = q.ID
	}
	return ids
}
