package memory

import (
	"context"
	"sort"
	"sync"

	"school-quiz-service/internal/domain"
)

// ResultRepository stores grading rows in memory, keyed by
// (index number, year).
type ResultRepository struct {
	mu      sync.RWMutex
	results map[resultKey]domain.Result
}

type resultKey struct {
	indexNo string
	year    int
}

func NewResultRepository() *ResultRepository {
	return &ResultRepository{
		results: make(map[resultKey]domain.Result),
	}
}

func (r *ResultRepository) ListByYear(_ context.Context, year int) ([]domain.Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Result
	for key, result := range r.results {
		if key.year == year {
			out = append(out, result)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IndexNo < out[j].IndexNo })
	return out, nil
}

func (r *ResultRepository) Upsert(_ context.Context, result domain.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[resultKey{result.IndexNo, result.Year}] = result
	return nil
}

// Get returns one row, or domain.ErrNotFound.
func (r *ResultRepository) Get(_ context.Context, indexNo string, year int) (domain.Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result, ok := r.results[resultKey{indexNo, year}]
	if !ok {
		return domain.Result{}, domain.ErrNotFound
	}
	return result, nil
}
