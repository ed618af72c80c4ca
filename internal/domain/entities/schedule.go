package entities

import (
	"math"
	"time"
)

const (
	DefaultEaseFactor = 2.5 // ease of a record that was never reviewed
	MinEaseFactor     = 1.3 // hard floor for the ease factor

	firstInterval  = 1 // days, used after a miss or on the first attempt
	secondInterval = 6 // days, used after the first correct answer in a row
)

// Schedule is the outcome of one scheduling step.
type Schedule struct {
	EaseFactor     float64
	IntervalDays   int
	NextReviewDate time.Time
}

// NextEaseFactor applies the SM-2 ease update for the given quality, never going below MinEaseFactor.
func NextEaseFactor(ease float64, quality Quality) float64 {
	miss := float64(QualityPerfect - quality)
	next := ease + (0.1 - miss*(0.08+miss*0.02))
	return math.Max(MinEaseFactor, next)
}

// ScheduleNext computes the next ease factor, interval and due date for a record.
//
// The record's ConsecutiveCorrect must already reflect the answer being scheduled:
// callers increment it on a correct answer and reset it on a miss before calling
// (see MasteryRecord.RegisterAnswer). The interval is picked from that streak:
//   - 0 → 1 day
//   - 1 → 6 days
//   - 2 and more → previous interval × new ease, rounded
//
// The due date is now plus the interval in calendar days (UTC).
func ScheduleNext(record MasteryRecord, quality Quality, now time.Time) (Schedule, error) {
	if !quality.Valid() {
		return Schedule{}, NewValidationError("quality", "must be between 0 and 5, got %d", quality)
	}
	if record.ConsecutiveCorrect < 0 {
		return Schedule{}, NewValidationError("consecutive_correct", "must not be negative, got %d", record.ConsecutiveCorrect)
	}

	ease := record.EaseFactor
	if ease < MinEaseFactor {
		ease = MinEaseFactor
	}
	newEase := NextEaseFactor(ease, quality)

	var interval int
	switch record.ConsecutiveCorrect {
	case 0:
		interval = firstInterval
	case 1:
		interval = secondInterval
	default:
		prev := max(record.IntervalDays, 1)
		interval = int(math.Round(float64(prev) * newEase))
	}
	interval = max(interval, 1)

	return Schedule{
		EaseFactor:     newEase,
		IntervalDays:   interval,
		NextReviewDate: now.UTC().AddDate(0, 0, interval),
	}, nil
}
