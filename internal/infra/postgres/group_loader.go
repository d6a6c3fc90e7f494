package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"school-quiz-service/internal/domain"
)

// GroupLoader loads quiz group JSONB rows from Postgres.
type GroupLoader struct {
	pool *pgxpool.Pool
}

func NewGroupLoader(pool *pgxpool.Pool) *GroupLoader {
	return &GroupLoader{pool: pool}
}

func (l *GroupLoader) LoadGroups(ctx context.Context) ([]domain.QuizGroup, error) {
	rows, err := l.pool.Query(ctx, `SELECT data FROM quiz_groups ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load groups: %w", err)
	}
	defer rows.Close()

	var groups []domain.QuizGroup
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		var group domain.QuizGroup
		if err := json.Unmarshal(raw, &group); err != nil {
			return nil, fmt.Errorf("unmarshal group: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load groups: %w", err)
	}
	return groups, nil
}
