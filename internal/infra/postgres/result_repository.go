package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/uptrace/bun"

	"school-quiz-service/internal/domain"
)

// ResultRepository stores grading rows as JSONB keyed by (index_no, year).
type ResultRepository struct {
	db *bun.DB
}

func NewResultRepository(db *bun.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

func (r *ResultRepository) ListByYear(ctx context.Context, year int) ([]domain.Result, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT data FROM results WHERE year = ? ORDER BY index_no`, year)
	if err != nil {
		return nil, fmt.Errorf("%w: list results: %v", domain.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var results []domain.Result
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		var result domain.Result
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

func (r *ResultRepository) Upsert(ctx context.Context, result domain.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO results (index_no, year, data) VALUES (?, ?, ?::jsonb)
		 ON CONFLICT (index_no, year) DO UPDATE SET data = EXCLUDED.data`,
		result.IndexNo, result.Year, string(data),
	)
	if err != nil {
		return fmt.Errorf("%w: upsert result: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}
