package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jambprep/jamb-mastery/internal/domain/entities"
)

func newStudentFixture() (*StudentService, *fakeStudentRepo) {
	students := newFakeStudentRepo()
	questions := &fakeQuestionRepo{questions: []*entities.Question{
		{ID: "q1", BankID: "maths"},
		{ID: "e1", BankID: "english"},
	}}
	return NewStudentService(students, questions, zap.NewNop()), students
}

func TestEnsureTelegramStudent(t *testing.T) {
	svc, repo := newStudentFixture()
	ctx := context.Background()

	first, err := svc.EnsureTelegramStudent(ctx, 42, 1000)
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.True(t, first.RemindersEnabled)

	again, err := svc.EnsureTelegramStudent(ctx, 42, 1000)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Len(t, repo.students, 1)

	moved, err := svc.EnsureTelegramStudent(ctx, 42, 2000)
	require.NoError(t, err)
	assert.Equal(t, first.ID, moved.ID)
	assert.Equal(t, int64(2000), repo.students[first.ID].ChatID)
}

func TestEnsureTelegramStudent_SaveFails(t *testing.T) {
	svc, repo := newStudentFixture()
	repo.saveErr = errStoreDown

	_, err := svc.EnsureTelegramStudent(context.Background(), 42, 1000)
	assert.ErrorIs(t, err, ErrPersistenceUnavailable)
}

func TestSelectBank(t *testing.T) {
	svc, repo := newStudentFixture()
	ctx := context.Background()

	st, err := svc.EnsureTelegramStudent(ctx, 7, 7)
	require.NoError(t, err)

	require.NoError(t, svc.SelectBank(ctx, st.ID, "english"))
	assert.Equal(t, "english", repo.students[st.ID].BankID)

	err = svc.SelectBank(ctx, st.ID, "physics")
	assert.True(t, entities.IsValidationError(err))
	assert.Equal(t, "english", repo.students[st.ID].BankID)

	err = svc.SelectBank(ctx, "nobody", "maths")
	assert.ErrorIs(t, err, entities.ErrStudentNotFound)
}

func TestToggleReminders(t *testing.T) {
	svc, _ := newStudentFixture()
	ctx := context.Background()

	st, err := svc.EnsureTelegramStudent(ctx, 7, 7)
	require.NoError(t, err)

	enabled, err := svc.ToggleReminders(ctx, st.ID)
	require.NoError(t, err)
	assert.False(t, enabled)

	enabled, err = svc.ToggleReminders(ctx, st.ID)
	require.NoError(t, err)
	assert.True(t, enabled)
}
