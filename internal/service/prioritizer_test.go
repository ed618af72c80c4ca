package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jambprep/jamb-mastery/internal/domain/entities"
)

func dueAt(questionID string, next time.Time) *entities.MasteryRecord {
	return &entities.MasteryRecord{StudentID: "s", QuestionID: questionID, EaseFactor: 2.5, IntervalDays: 1, NextReviewDate: next}
}

func questionsOf(ids ...string) []*entities.Question {
	out := make([]*entities.Question, len(ids))
	for i, id := range ids {
		out[i] = &entities.Question{ID: id}
	}
	return out
}

func TestPrioritize(t *testing.T) {
	now := day0

	tests := []struct {
		name    string
		ids     []string
		mastery map[string]*entities.MasteryRecord
		limit   int
		want    []string
	}{
		{
			name:  "overdue before not yet due",
			ids:   []string{"a", "b", "c"},
			limit: 0,
			mastery: map[string]*entities.MasteryRecord{
				"a": dueAt("a", now.Add(time.Hour)),
				"b": dueAt("b", now.Add(-time.Minute)),
				"c": dueAt("c", now.Add(-48*time.Hour)),
			},
			want: []string{"c", "b", "a"},
		},
		{
			name: "not yet due sorted by soonest",
			ids:  []string{"a", "b", "c"},
			mastery: map[string]*entities.MasteryRecord{
				"a": dueAt("a", now.Add(72*time.Hour)),
				"b": dueAt("b", now.Add(time.Hour)),
				"c": dueAt("c", now),
			},
			want: []string{"c", "b", "a"},
		},
		{
			name: "unseen questions are the most overdue",
			ids:  []string{"a", "b"},
			mastery: map[string]*entities.MasteryRecord{
				"a": dueAt("a", now.Add(-365*24*time.Hour)),
			},
			want: []string{"b", "a"},
		},
		{
			name: "ties keep input order",
			ids:  []string{"d", "a", "c", "b"},
			mastery: map[string]*entities.MasteryRecord{
				"a": dueAt("a", now.Add(-time.Hour)),
				"b": dueAt("b", now.Add(-time.Hour)),
			},
			want: []string{"d", "c", "a", "b"},
		},
		{
			name:  "truncated to limit",
			ids:   []string{"a", "b", "c"},
			limit: 2,
			mastery: map[string]*entities.MasteryRecord{
				"a": dueAt("a", now.Add(time.Hour)),
				"b": dueAt("b", now.Add(-time.Hour)),
				"c": dueAt("c", now.Add(-2*time.Hour)),
			},
			want: []string{"c", "b"},
		},
		{
			name:  "limit larger than input",
			ids:   []string{"a"},
			limit: 10,
			want:  []string{"a"},
		},
		{
			name: "empty input",
			ids:  []string{},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Prioritize(questionsOf(tt.ids...), tt.mastery, now, tt.limit)
			assert.Equal(t, tt.want, questionIDs(got))
		})
	}
}

func TestPrioritize_DoesNotReorderInput(t *testing.T) {
	in := questionsOf("a", "b")
	mastery := map[string]*entities.MasteryRecord{"a": dueAt("a", day0.Add(time.Hour))}

	out := Prioritize(in, mastery, day0, 0)

	assert.Equal(t, []string{"b", "a"}, questionIDs(out))
	assert.Equal(t, []string{"a", "b"}, questionIDs(in))
}

func TestPrioritizer_UnseenLast(t *testing.T) {
	p := Prioritizer{UnseenLast: true}
	mastery := map[string]*entities.MasteryRecord{
		"a": dueAt("a", day0.Add(time.Hour)),
		"c": dueAt("c", day0.Add(-time.Hour)),
	}

	got := p.Prioritize(questionsOf("u1", "a", "u2", "c"), mastery, day0, 0)
	assert.Equal(t, []string{"c", "a", "u1", "u2"}, questionIDs(got))

	got = p.Prioritize(questionsOf("u1", "a", "u2", "c"), mastery, day0, 3)
	assert.Equal(t, []string{"c", "a", "u1"}, questionIDs(got))
}

func TestPrioritizer_UnseenLastNilRecord(t *testing.T) {
	p := Prioritizer{UnseenLast: true}
	mastery := map[string]*entities.MasteryRecord{
		"a": dueAt("a", day0.Add(time.Hour)),
		"n": nil,
	}

	got := p.Prioritize(questionsOf("n", "a"), mastery, day0, 0)
	assert.Equal(t, []string{"a", "n"}, questionIDs(got))
}
