package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"school-quiz-service/internal/domain"
)

// uniqueViolation is the SQLSTATE for a unique constraint violation.
const uniqueViolation = "23505"

// AttemptRepository persists finalized attempts. The
// attempts_participant_group_unique constraint is what makes submission
// exactly-once; a violation surfaces as domain.ErrDuplicateAttempt.
type AttemptRepository struct {
	db *bun.DB
}

func NewAttemptRepository(db *bun.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

func (r *AttemptRepository) Exists(ctx context.Context, participant, groupID string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM attempts WHERE participant = ? AND group_id = ?`,
		participant, groupID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("%w: attempt lookup: %v", domain.ErrStorageUnavailable, err)
	}
	return count > 0, nil
}

func (r *AttemptRepository) Insert(ctx context.Context, result domain.AttemptResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO attempts (id, participant, group_id, data) VALUES (?, ?, ?, ?::jsonb)`,
		result.ID, result.Participant, result.GroupID, string(data),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateAttempt
		}
		return fmt.Errorf("%w: insert attempt: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// ListByGroup returns all stored attempts of one group (admin view).
func (r *AttemptRepository) ListByGroup(ctx context.Context, groupID string) ([]domain.AttemptResult, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT data FROM attempts WHERE group_id = ? ORDER BY created_at`, groupID)
	if err != nil {
		return nil, fmt.Errorf("%w: list attempts: %v", domain.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var attempts []domain.AttemptResult
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		var attempt domain.AttemptResult
		if err := json.Unmarshal(raw, &attempt); err != nil {
			return nil, fmt.Errorf("unmarshal attempt: %w", err)
		}
		attempts = append(attempts, attempt)
	}
	return attempts, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == uniqueViolation
}
