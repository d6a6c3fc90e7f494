package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"school-quiz-service/internal/domain"
)

// SnapshotStore persists session snapshots as JSON values keyed by
// participant identifier, with a TTL matching the restoration window so
// stale snapshots age out on their own. It is a write-through cache, not a
// transaction log: last write wins.
type SnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSnapshotStore(client *redis.Client, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{client: client, ttl: ttl}
}

func (s *SnapshotStore) Save(ctx context.Context, snapshot domain.SessionSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key(snapshot.Participant), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: save snapshot: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *SnapshotStore) Load(ctx context.Context, participant string) (domain.SessionSnapshot, bool, error) {
	data, err := s.client.Get(ctx, s.key(participant)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.SessionSnapshot{}, false, nil
	}
	if err != nil {
		return domain.SessionSnapshot{}, false, fmt.Errorf("%w: load snapshot: %v", domain.ErrStorageUnavailable, err)
	}
	var snapshot domain.SessionSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		// A corrupt snapshot is treated as absent rather than blocking the
		// participant from starting over.
		return domain.SessionSnapshot{}, false, nil
	}
	return snapshot, true, nil
}

func (s *SnapshotStore) Clear(ctx context.Context, participant string) error {
	if err := s.client.Del(ctx, s.key(participant)).Err(); err != nil {
		return fmt.Errorf("%w: clear snapshot: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *SnapshotStore) key(participant string) string {
	return "quiz:snapshot:" + participant
}
