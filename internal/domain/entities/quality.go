package entities

import "math"

// Quality is a 0-5 recall score as used by SuperMemo-2.
type Quality int

const (
	QualityBlackout          Quality = 0 // wrong answer, nothing recalled
	QualityIncorrect         Quality = 1 // wrong, but remembered once the answer was shown
	QualityIncorrectFamiliar Quality = 2 // wrong, but the answer felt familiar
	QualityDifficult         Quality = 3 // correct, recalled with difficulty
	QualityHesitant          Quality = 4 // correct after some hesitation
	QualityPerfect           Quality = 5 // correct and fast
)

// fastRatio is the share of the expected time under which a correct answer counts as perfect.
const fastRatio = 0.5

// Valid reports whether q lies on the 0-5 scale.
func (q Quality) Valid() bool {
	return q >= QualityBlackout && q <= QualityPerfect
}

// EvaluateQuality converts a raw answer outcome into a recall quality.
//
// Incorrect answers always score 0. Correct answers score 5 when answered in under
// half of the expected time, 4 when under the expected time and 3 otherwise.
// Scores 1 and 2 are never produced here; they are reserved for manual grading.
func EvaluateQuality(isCorrect bool, timeSpentSeconds, averageExpectedSeconds float64) (Quality, error) {
	if math.IsNaN(timeSpentSeconds) || math.IsInf(timeSpentSeconds, 0) || timeSpentSeconds < 0 {
		return 0, NewValidationError("time_spent_seconds", "must be a finite non-negative number, got %v", timeSpentSeconds)
	}
	if math.IsNaN(averageExpectedSeconds) || math.IsInf(averageExpectedSeconds, 0) || averageExpectedSeconds <= 0 {
		return 0, NewValidationError("expected_seconds", "must be a finite positive number, got %v", averageExpectedSeconds)
	}

	switch {
	case !isCorrect:
		return QualityBlackout, nil
	case timeSpentSeconds < fastRatio*averageExpectedSeconds:
		return QualityPerfect, nil
	case timeSpentSeconds < averageExpectedSeconds:
		return QualityHesitant, nil
	default:
		return QualityDifficult, nil
	}
}
