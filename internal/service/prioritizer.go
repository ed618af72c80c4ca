package service

import (
	"sort"
	"time"

	"github.com/jambprep/jamb-mastery/internal/domain/entities"
)

// Prioritizer orders questions by how overdue they are for one student.
type Prioritizer struct {
	// UnseenLast places questions without a mastery record after all reviewed ones.
	// By default they get the epoch due date of the default record and come first.
	UnseenLast bool
}

// Prioritize orders questions with the default policy. See Prioritizer.Prioritize.
func Prioritize(
	questions []*entities.Question,
	mastery map[string]*entities.MasteryRecord,
	now time.Time,
	limit int,
) []*entities.Question {
	return Prioritizer{}.Prioritize(questions, mastery, now, limit)
}

// Prioritize returns a new slice with overdue questions first, most overdue first,
// followed by the rest in order of how soon they become due. Ties keep the input order.
// The result is cut to limit; limit <= 0 keeps every question.
func (p Prioritizer) Prioritize(
	questions []*entities.Question,
	mastery map[string]*entities.MasteryRecord,
	now time.Time,
	limit int,
) []*entities.Question {
	type ranked struct {
		question *entities.Question
		overdue  time.Duration
		unseen   bool
	}

	items := make([]ranked, 0, len(questions))
	for _, q := range questions {
		rec, ok := mastery[q.ID]
		unseen := !ok || rec == nil
		if unseen {
			rec = entities.DefaultMasteryRecord("", q.ID)
		}
		items = append(items, ranked{
			question: q,
			overdue:  rec.Overdue(now),
			unseen:   unseen,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if p.UnseenLast && a.unseen != b.unseen {
			return !a.unseen
		}

		aDue, bDue := a.overdue > 0, b.overdue > 0
		if aDue != bDue {
			return aDue
		}
		return a.overdue > b.overdue
	})

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	out := make([]*entities.Question, len(items))
	for i, it := range items {
		out[i] = it.question
	}
	return out
}
