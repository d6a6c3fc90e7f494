package app

import (
	"fmt"
	"testing"

	"school-quiz-service/internal/domain"
)

func questionSet(n int) []domain.Question {
	questions := make([]domain.Question, n)
	for i := range questions {
		questions[i] = domain.Question{ID: fmt.Sprintf("q%d", i)}
	}
	return questions
}

func orderOf(questions []domain.Question) string {
	var order string
	for _, q := range questions {
		order += q.ID + ","
	}
	return order
}

func TestShuffleIsDeterministicPerKey(t *testing.T) {
	questions := questionSet(10)

	first := ShuffleQuestions(questions, "Greenwood School")
	second := ShuffleQuestions(questions, "Greenwood School")

	if orderOf(first) != orderOf(second) {
		t.Fatalf("same key produced different orders:\n%s\n%s", orderOf(first), orderOf(second))
	}
}

func TestShuffleDiffersAcrossKeys(t *testing.T) {
	questions := questionSet(10)

	a := ShuffleQuestions(questions, "Greenwood School")
	b := ShuffleQuestions(questions, "Hillside College")

	if orderOf(a) == orderOf(b) {
		t.Fatalf("distinct keys produced identical order %s", orderOf(a))
	}
}

func TestShuffleDoesNotMutateInput(t *testing.T) {
	questions := questionSet(5)
	original := orderOf(questions)

	_ = ShuffleQuestions(questions, "anything")

	if orderOf(questions) != original {
		t.Fatalf("input slice mutated: %s", orderOf(questions))
	}
}

func TestShufflePreservesQuestionSet(t *testing.T) {
	questions := questionSet(8)
	shuffled := ShuffleQuestions(questions, "some-school")

	if len(shuffled) != len(questions) {
		t.Fatalf("expected %d questions, got %d", len(questions), len(shuffled))
	}
	seen := make(map[string]bool)
	for _, q := range shuffled {
		seen[q.ID] = true
	}
	for _, q := range questions {
		if !seen[q.ID] {
			t.Fatalf("question %s missing after shuffle", q.ID)
		}
	}
}
