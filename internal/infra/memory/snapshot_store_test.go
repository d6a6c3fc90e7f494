package memory

import (
	"context"
	"testing"
	"time"

	"school-quiz-service/internal/domain"
)

func TestSnapshotStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewSnapshotStore()

	snapshot := domain.SessionSnapshot{
		Participant: "Greenwood School",
		GroupID:     "science-2026",
		Answers:     []domain.AnswerState{{Selected: "a"}},
		Position:    1,
		StartedAt:   time.Now(),
	}
	if err := store.Save(ctx, snapshot); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, ok, err := store.Load(ctx, "Greenwood School")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if loaded.Position != 1 || loaded.Answers[0].Selected != "a" {
		t.Fatalf("snapshot mangled: %+v", loaded)
	}

	if err := store.Clear(ctx, "Greenwood School"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := store.Load(ctx, "Greenwood School"); ok {
		t.Fatalf("expected snapshot removed")
	}
}

func TestSnapshotStoreLastWriteWins(t *testing.T) {
	ctx := context.Background()
	store := NewSnapshotStore()

	_ = store.Save(ctx, domain.SessionSnapshot{Participant: "s", Position: 0})
	_ = store.Save(ctx, domain.SessionSnapshot{Participant: "s", Position: 3})

	loaded, ok, _ := store.Load(ctx, "s")
	if !ok || loaded.Position != 3 {
		t.Fatalf("expected last write to win, got %+v", loaded)
	}
}
