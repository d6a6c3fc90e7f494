package app

import (
	"time"

	"school-quiz-service/internal/domain"
)

// Scoring constants. Flat policy: +2 correct, -1 wrong. Timed policy:
// +100 correct plus the speed bonus captured when the answer was recorded
// (up to 60), -50 wrong. Unanswered contributes 0 under both policies and
// the total is never clamped to a minimum.
const (
	flatCorrectPoints  = 2
	flatWrongPenalty   = 1
	timedCorrectPoints = 100
	timedWrongPenalty  = 50
	maxSpeedBonus      = 60
)

// computeResult scores a completed answer sheet against the shuffled
// question order it was produced with.
func computeResult(participant string, group domain.QuizGroup, questions []domain.Question, answers []domain.AnswerState, completedAt time.Time) domain.AttemptResult {
	result := domain.AttemptResult{
		Participant: participant,
		GroupID:     group.ID,
		Total:       len(questions),
		CompletedAt: completedAt,
	}

	policy := group.Policy()
	for i, q := range questions {
		if i >= len(answers) {
			break
		}
		answer := answers[i]
		switch {
		case !answer.Answered():
			result.NotAnswered++
		case answer.Selected == q.CorrectOption:
			result.Correct++
			if policy == domain.ScoringTimed {
				result.Score += timedCorrectPoints + answer.Bonus
			} else {
				result.Score += flatCorrectPoints
			}
		default:
			result.Wrong++
			if policy == domain.ScoringTimed {
				result.Score -= timedWrongPenalty
			} else {
				result.Score -= flatWrongPenalty
			}
		}
	}
	return result
}

// speedBonus converts remaining budget into the timed-policy bonus,
// scaled so a full budget earns maxSpeedBonus and an exhausted one earns 0.
func speedBonus(remainingSeconds, budgetSeconds int) int {
	if budgetSeconds <= 0 || remainingSeconds <= 0 {
		return 0
	}
	bonus := maxSpeedBonus * remainingSeconds / budgetSeconds
	if bonus > maxSpeedBonus {
		bonus = maxSpeedBonus
	}
	return bonus
}
