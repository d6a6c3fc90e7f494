package app

import "school-quiz-service/internal/domain"

// Knuth's MMIX LCG constants; any full-period multiplier works,
// the only requirement is that expansion is deterministic per seed.
const (
	lcgMultiplier = 6364136223846793005
	lcgIncrement  = 1442695040888963407
)

// ShuffleQuestions returns a reproducible per-participant ordering of
// questions: the same seedKey always yields the same order, distinct keys
// (with high probability) yield different ones. Pure function, O(n).
func ShuffleQuestions(questions []domain.Question, seedKey string) []domain.Question {
	out := make([]domain.Question, len(questions))
	copy(out, questions)

	state := seedFromKey(seedKey)
	for i := len(out) - 1; i > 0; i-- {
		state = state*lcgMultiplier + lcgIncrement
		j := int(state % uint64(i+1))
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// seedFromKey derives the starting LCG state by summing the key's bytes.
func seedFromKey(key string) uint64 {
	var sum uint64
	for i := 0; i < len(key); i++ {
		sum += uint64(key[i])
	}
	if sum == 0 {
		sum = 1
	}
	return sum
}
