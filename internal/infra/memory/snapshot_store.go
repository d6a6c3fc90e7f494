package memory

import (
	"context"
	"sync"

	"school-quiz-service/internal/domain"
)

// SnapshotStore is an in-memory implementation of app.SnapshotStore.
// One snapshot per participant; last write wins.
type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string]domain.SessionSnapshot
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		snapshots: make(map[string]domain.SessionSnapshot),
	}
}

func (s *SnapshotStore) Save(_ context.Context, snapshot domain.SessionSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snapshot.Participant] = snapshot
	return nil
}

func (s *SnapshotStore) Load(_ context.Context, participant string) (domain.SessionSnapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot, ok := s.snapshots[participant]
	return snapshot, ok, nil
}

func (s *SnapshotStore) Clear(_ context.Context, participant string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, participant)
	return nil
}
