package memory

import (
	"context"
	"sync"

	"school-quiz-service/internal/domain"
)

// AttemptRepository stores finalized attempts in memory, enforcing the
// same (participant, group) uniqueness the postgres schema does.
type AttemptRepository struct {
	mu       sync.RWMutex
	attempts map[attemptKey]domain.AttemptResult
}

type attemptKey struct {
	participant string
	groupID     string
}

func NewAttemptRepository() *AttemptRepository {
	return &AttemptRepository{
		attempts: make(map[attemptKey]domain.AttemptResult),
	}
}

func (r *AttemptRepository) Exists(_ context.Context, participant, groupID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.attempts[attemptKey{participant, groupID}]
	return ok, nil
}

func (r *AttemptRepository) Insert(_ context.Context, result domain.AttemptResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := attemptKey{result.Participant, result.GroupID}
	if _, ok := r.attempts[key]; ok {
		return domain.ErrDuplicateAttempt
	}
	r.attempts[key] = result
	return nil
}

// List returns all stored attempts (admin/test convenience).
func (r *AttemptRepository) List(_ context.Context) ([]domain.AttemptResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.AttemptResult, 0, len(r.attempts))
	for _, attempt := range r.attempts {
		out = append(out, attempt)
	}
	return out, nil
}
