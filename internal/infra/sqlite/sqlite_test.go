package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jambprep/jamb-mastery/internal/domain/entities"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

var reviewedAt = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func TestOpen_SchemaIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, initializeSchema(context.Background(), db))
}

func TestFormatTime_SortsAsText(t *testing.T) {
	a := formatTime(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC))
	b := formatTime(time.Date(2025, 3, 1, 8, 0, 0, 500, time.UTC))
	c := formatTime(time.Date(2025, 3, 1, 8, 0, 1, 0, time.UTC))
	assert.Less(t, a, b)
	assert.Less(t, b, c)

	epoch, err := parseTime(formatTime(time.Unix(0, 0)))
	require.NoError(t, err)
	assert.True(t, epoch.Equal(time.Unix(0, 0)))
	assert.Equal(t, time.UTC, epoch.Location())
}

func TestMasteryRepository(t *testing.T) {
	repo := NewMasteryRepository(openTestDB(t))
	ctx := context.Background()

	_, err := repo.Get(ctx, "s1", "q1")
	require.ErrorIs(t, err, entities.ErrMasteryNotFound)

	rec := &entities.MasteryRecord{
		StudentID: "s1", QuestionID: "q1",
		ConsecutiveCorrect: 1, EaseFactor: 2.6, IntervalDays: 6,
		NextReviewDate: reviewedAt.AddDate(0, 0, 6),
		ReviewCount:    1, LastQuality: entities.QualityPerfect, LastReviewedAt: &reviewedAt,
	}
	require.NoError(t, repo.Upsert(ctx, rec))

	got, err := repo.Get(ctx, "s1", "q1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	rec.ConsecutiveCorrect = 0
	rec.EaseFactor = entities.MinEaseFactor
	rec.IntervalDays = 1
	require.NoError(t, repo.Upsert(ctx, rec))

	got, err = repo.Get(ctx, "s1", "q1")
	require.NoError(t, err)
	assert.Equal(t, 0, got.ConsecutiveCorrect)
	assert.Equal(t, entities.MinEaseFactor, got.EaseFactor)

	def := entities.DefaultMasteryRecord("s1", "q2")
	require.NoError(t, repo.Upsert(ctx, def))
	require.NoError(t, repo.Upsert(ctx, entities.DefaultMasteryRecord("s2", "q1")))

	got, err = repo.Get(ctx, "s1", "q2")
	require.NoError(t, err)
	assert.Equal(t, def, got)

	list, err := repo.ListByStudent(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestMasteryRepository_CheckConstraints(t *testing.T) {
	repo := NewMasteryRepository(openTestDB(t))

	err := repo.Upsert(context.Background(), &entities.MasteryRecord{
		StudentID: "s1", QuestionID: "q1", EaseFactor: 1.1, IntervalDays: 1, NextReviewDate: reviewedAt,
	})
	assert.Error(t, err)
}

func TestQuestionRepository(t *testing.T) {
	repo := NewQuestionRepository(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.SaveQuestions(ctx, []*entities.Question{
		{ID: "m2", BankID: "maths", Body: "3+3", Options: []string{"6", "7"}, Position: 2, CreatedAt: reviewedAt},
		{ID: "m1", BankID: "maths", Body: "2+2", Options: []string{"3", "4"}, AnswerIndex: 1, ExpectedSeconds: 30, Position: 1, CreatedAt: reviewedAt},
		{ID: "e1", BankID: "english", Subject: "English", Body: "big", Options: []string{"large", "small"}, Position: 1, CreatedAt: reviewedAt},
	}))

	maths, err := repo.ListByBank(ctx, "maths")
	require.NoError(t, err)
	require.Len(t, maths, 2)
	assert.Equal(t, "m1", maths[0].ID)
	assert.Equal(t, []string{"3", "4"}, maths[0].Options)

	all, err := repo.ListByBank(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "e1", all[0].ID)

	q, err := repo.GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 30, q.ExpectedSeconds)
	assert.Equal(t, reviewedAt, q.CreatedAt)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, entities.ErrQuestionNotFound)

	// Saving again replaces the question.
	require.NoError(t, repo.SaveQuestions(ctx, []*entities.Question{
		{ID: "m1", BankID: "maths", Body: "2+2=?", Options: []string{"4", "5"}, Position: 1, CreatedAt: reviewedAt},
	}))
	q, err = repo.GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "2+2=?", q.Body)

	banks, err := repo.ListBanks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []*entities.Bank{{ID: "english", QuestionCount: 1}, {ID: "maths", QuestionCount: 2}}, banks)
}

func TestStudentRepository(t *testing.T) {
	repo := NewStudentRepository(openTestDB(t))
	ctx := context.Background()

	st := &entities.Student{ID: "st-1", TelegramID: 42, ChatID: 4200, RemindersEnabled: true, CreatedAt: reviewedAt}
	require.NoError(t, repo.Save(ctx, st))

	got, err := repo.GetByTelegramID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, st, got)

	st.BankID = "maths"
	st.RemindersEnabled = false
	require.NoError(t, repo.Save(ctx, st))
	require.NoError(t, repo.Save(ctx, &entities.Student{ID: "st-2", TelegramID: 43, RemindersEnabled: true, CreatedAt: reviewedAt}))
	require.NoError(t, repo.Save(ctx, &entities.Student{ID: "st-3", RemindersEnabled: true, CreatedAt: reviewedAt}))

	got, err = repo.GetByID(ctx, "st-1")
	require.NoError(t, err)
	assert.Equal(t, "maths", got.BankID)

	list, err := repo.ListWithReminders(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "st-2", list[0].ID)

	page, err := repo.ListWithReminders(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "st-3", page[0].ID)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, entities.ErrStudentNotFound)
}

func TestReviewLogRepository(t *testing.T) {
	repo := NewReviewLogRepository(openTestDB(t))
	ctx := context.Background()

	for i, qid := range []string{"q1", "q2", "q3"} {
		rec := &entities.MasteryRecord{StudentID: "s1", QuestionID: qid, EaseFactor: 2.5, IntervalDays: 1, LastQuality: entities.QualityHesitant}
		require.NoError(t, repo.Append(ctx, entities.NewReviewEvent(rec, true, 12.5, reviewedAt.Add(time.Duration(i)*time.Minute))))
	}

	events, err := repo.ListRecent(ctx, "s1", 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "q3", events[0].QuestionID)
	assert.Equal(t, "q2", events[1].QuestionID)
	assert.Equal(t, entities.QualityHesitant, events[0].Quality)
	assert.Equal(t, 12.5, events[0].TimeSpentSeconds)
	assert.Equal(t, reviewedAt.Add(2*time.Minute), events[0].AnsweredAt)

	none, err := repo.ListRecent(ctx, "nobody", 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}
