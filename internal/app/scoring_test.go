package app

import (
	"testing"
	"time"

	"school-quiz-service/internal/domain"
)

func fiveQuestionGroup(policy domain.ScoringPolicy) domain.QuizGroup {
	correct := []string{"a", "b", "c", "d", "a"}
	questions := make([]domain.Question, len(correct))
	for i, c := range correct {
		questions[i] = domain.Question{
			ID:            string(rune('p' + i)),
			CorrectOption: c,
			Options: []domain.Option{
				{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"},
			},
		}
	}
	return domain.QuizGroup{
		ID:              "science-2026",
		DurationSeconds: 60,
		Scoring:         policy,
		Questions:       questions,
	}
}

// Flat policy worked example: answers [a,b,c,x,unanswered] against
// correct [a,b,c,d,a] give 3 correct (+6), 1 wrong (-1), 1 unanswered (0).
func TestComputeResultFlatPolicy(t *testing.T) {
	group := fiveQuestionGroup(domain.ScoringFlat)
	answers := []domain.AnswerState{
		{Selected: "a"},
		{Selected: "b"},
		{Selected: "c"},
		{Selected: "b"}, // wrong
		{},              // unanswered
	}

	result := computeResult("Greenwood School", group, group.Questions, answers, time.Now())

	if result.Total != 5 || result.Correct != 3 || result.Wrong != 1 || result.NotAnswered != 1 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	if result.Score != 5 {
		t.Fatalf("expected score 5, got %d", result.Score)
	}
}

func TestComputeResultTimedPolicy(t *testing.T) {
	group := fiveQuestionGroup(domain.ScoringTimed)
	answers := []domain.AnswerState{
		{Selected: "a", Bonus: 55},
		{Selected: "b", Bonus: 40},
		{Selected: "c"}, // answered with budget exhausted, no bonus
		{Selected: "b"}, // wrong
		{},
	}

	result := computeResult("Greenwood School", group, group.Questions, answers, time.Now())

	// 100+55 + 100+40 + 100 - 50 = 345
	if result.Score != 345 {
		t.Fatalf("expected score 345, got %d", result.Score)
	}
	if result.Correct != 3 || result.Wrong != 1 || result.NotAnswered != 1 {
		t.Fatalf("unexpected counts: %+v", result)
	}
}

func TestComputeResultScoreCanGoNegative(t *testing.T) {
	group := fiveQuestionGroup(domain.ScoringFlat)
	answers := []domain.AnswerState{
		{Selected: "b"}, {Selected: "a"}, {Selected: "a"}, {Selected: "a"}, {Selected: "b"},
	}

	result := computeResult("s", group, group.Questions, answers, time.Now())
	if result.Score != -5 {
		t.Fatalf("expected score -5 (no clamping), got %d", result.Score)
	}
}

func TestSpeedBonus(t *testing.T) {
	cases := []struct {
		remaining, budget, want int
	}{
		{60, 60, 60},
		{30, 60, 30},
		{0, 60, 0},
		{-1, 60, 0},
		{10, 0, 0},
		{45, 60, 45},
	}
	for _, c := range cases {
		if got := speedBonus(c.remaining, c.budget); got != c.want {
			t.Fatalf("speedBonus(%d, %d) = %d, want %d", c.remaining, c.budget, got, c.want)
		}
	}
}
