package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jambprep/jamb-mastery/internal/domain/entities"
)

type fakeMasteryRepo struct {
	mu      sync.Mutex
	records map[string]entities.MasteryRecord

	getErr    error
	upsertErr error
	listErr   error

	gets    int
	upserts int
}

func newFakeMasteryRepo(records ...*entities.MasteryRecord) *fakeMasteryRepo {
	r := &fakeMasteryRepo{records: make(map[string]entities.MasteryRecord)}
	for _, rec := range records {
		r.records[rec.StudentID+"|"+rec.QuestionID] = *rec
	}
	return r
}

func (r *fakeMasteryRepo) Get(_ context.Context, studentID, questionID string) (*entities.MasteryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++

	if r.getErr != nil {
		return nil, r.getErr
	}
	rec, ok := r.records[studentID+"|"+questionID]
	if !ok {
		return nil, entities.ErrMasteryNotFound
	}
	return &rec, nil
}

func (r *fakeMasteryRepo) Upsert(_ context.Context, record *entities.MasteryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts++

	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.records[record.StudentID+"|"+record.QuestionID] = *record
	return nil
}

func (r *fakeMasteryRepo) ListByStudent(_ context.Context, studentID string) ([]*entities.MasteryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*entities.MasteryRecord
	for _, rec := range r.records {
		if rec.StudentID == studentID {
			out = append(out, &rec)
		}
	}
	return out, nil
}

func (r *fakeMasteryRepo) snapshot() map[string]entities.MasteryRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]entities.MasteryRecord, len(r.records))
	for k, v := range r.records {
		out[k] = v
	}
	return out
}

type fakeQuestionRepo struct {
	mu        sync.Mutex
	questions []*entities.Question

	listErr error
	getErr  error
}

func (r *fakeQuestionRepo) ListByBank(_ context.Context, bankID string) ([]*entities.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*entities.Question
	for _, q := range r.questions {
		if bankID == "" || q.BankID == bankID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (r *fakeQuestionRepo) GetByID(_ context.Context, questionID string) (*entities.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.getErr != nil {
		return nil, r.getErr
	}
	for _, q := range r.questions {
		if q.ID == questionID {
			return q, nil
		}
	}
	return nil, entities.ErrQuestionNotFound
}

func (r *fakeQuestionRepo) ListBanks(_ context.Context) ([]*entities.Bank, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.listErr != nil {
		return nil, r.listErr
	}
	counts := map[string]int{}
	for _, q := range r.questions {
		counts[q.BankID]++
	}
	var out []*entities.Bank
	for id, n := range counts {
		out = append(out, &entities.Bank{ID: id, QuestionCount: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeQuestionRepo) SaveQuestions(_ context.Context, questions []*entities.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.questions = append(r.questions, questions...)
	return nil
}

type fakeReviewLog struct {
	mu        sync.Mutex
	events    []*entities.ReviewEvent
	appendErr error
}

func (r *fakeReviewLog) Append(_ context.Context, event *entities.ReviewEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.appendErr != nil {
		return r.appendErr
	}
	r.events = append(r.events, event)
	return nil
}

func (r *fakeReviewLog) ListRecent(_ context.Context, studentID string, limit int) ([]*entities.ReviewEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entities.ReviewEvent
	for i := len(r.events) - 1; i >= 0 && len(out) < limit; i-- {
		if r.events[i].StudentID == studentID {
			out = append(out, r.events[i])
		}
	}
	return out, nil
}

type fakeStudentRepo struct {
	mu       sync.Mutex
	students map[string]entities.Student
	saveErr  error
	listErr  error
}

func newFakeStudentRepo(students ...*entities.Student) *fakeStudentRepo {
	r := &fakeStudentRepo{students: make(map[string]entities.Student)}
	for _, s := range students {
		r.students[s.ID] = *s
	}
	return r
}

func (r *fakeStudentRepo) Save(_ context.Context, student *entities.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.saveErr != nil {
		return r.saveErr
	}
	r.students[student.ID] = *student
	return nil
}

func (r *fakeStudentRepo) GetByID(_ context.Context, studentID string) (*entities.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.students[studentID]
	if !ok {
		return nil, entities.ErrStudentNotFound
	}
	return &s, nil
}

func (r *fakeStudentRepo) GetByTelegramID(_ context.Context, telegramID int64) (*entities.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.students {
		if s.TelegramID == telegramID {
			return &s, nil
		}
	}
	return nil, entities.ErrStudentNotFound
}

func (r *fakeStudentRepo) ListWithReminders(_ context.Context, limit, offset int) ([]*entities.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.listErr != nil {
		return nil, r.listErr
	}
	var all []*entities.Student
	for _, s := range r.students {
		if s.RemindersEnabled {
			all = append(all, &s)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	if offset >= len(all) {
		return nil, nil
	}
	return all[offset:min(offset+limit, len(all))], nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	digests []entities.DueDigest
	failFor string
}

func (n *fakeNotifier) SendDueDigest(_ context.Context, digest entities.DueDigest) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if digest.StudentID == n.failFor {
		return context.DeadlineExceeded
	}
	n.digests = append(n.digests, digest)
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
