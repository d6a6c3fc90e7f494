package app

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"school-quiz-service/internal/domain"
)

// restoreWindowFactor bounds snapshot restoration: snapshots older than
// this multiple of the group duration are discarded silently.
const restoreWindowFactor = 2

// GroupRepository loads quiz group content (from cache/backing store).
type GroupRepository interface {
	GetByPassword(ctx context.Context, password string) (domain.QuizGroup, error)
	GetGroup(ctx context.Context, groupID string) (domain.QuizGroup, error)
}

// AttemptRepository persists finalized attempt results. Insert must surface
// domain.ErrDuplicateAttempt when a row already exists for the
// (participant, group) pair; that constraint, not the client-side Exists
// pre-check, is what makes submission exactly-once.
type AttemptRepository interface {
	Exists(ctx context.Context, participant, groupID string) (bool, error)
	Insert(ctx context.Context, result domain.AttemptResult) error
}

// SnapshotStore is the durable write-through store for in-progress
// sessions, keyed by participant identifier.
type SnapshotStore interface {
	Save(ctx context.Context, snapshot domain.SessionSnapshot) error
	Load(ctx context.Context, participant string) (domain.SessionSnapshot, bool, error)
	Clear(ctx context.Context, participant string) error
}

// AttemptService orchestrates quiz attempts: credential checks, session
// lifecycle, snapshot persistence/restoration and result submission.
type AttemptService struct {
	groups    GroupRepository
	attempts  AttemptRepository
	snapshots SnapshotStore

	mu        sync.Mutex
	sessions  map[string]*Session
	submitted map[string]domain.AttemptResult

	now   func() time.Time
	newID func() string
}

func NewAttemptService(groups GroupRepository, attempts AttemptRepository, snapshots SnapshotStore) *AttemptService {
	return &AttemptService{
		groups:    groups,
		attempts:  attempts,
		snapshots: snapshots,
		sessions:  make(map[string]*Session),
		submitted: make(map[string]domain.AttemptResult),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// NewAttemptServiceWithClock is test-only for deterministic timestamps.
func NewAttemptServiceWithClock(groups GroupRepository, attempts AttemptRepository, snapshots SnapshotStore, now func() time.Time) *AttemptService {
	s := NewAttemptService(groups, attempts, snapshots)
	s.now = now
	return s
}

// Start binds a participant to the quiz group matching the supplied
// credential and returns an in-progress session. The credential must match
// exactly one group (domain.ErrInvalidCredential otherwise) and no prior
// attempt may exist for the pair (domain.ErrDuplicateAttempt). A persisted
// snapshot younger than twice the group duration is rehydrated instead of
// starting fresh; older snapshots are discarded.
func (s *AttemptService) Start(ctx context.Context, participant, password string) (*Session, error) {
	group, err := s.groups.GetByPassword(ctx, password)
	if err != nil {
		return nil, err
	}

	// UX pre-check only; the storage uniqueness constraint is authoritative.
	exists, err := s.attempts.Exists(ctx, participant, group.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicateAttempt
	}

	session := s.restoreOrCreate(ctx, participant, group)

	s.mu.Lock()
	s.sessions[participant] = session
	delete(s.submitted, participant)
	s.mu.Unlock()

	s.persist(ctx, session)
	return session, nil
}

func (s *AttemptService) restoreOrCreate(ctx context.Context, participant string, group domain.QuizGroup) *Session {
	snapshot, ok, err := s.snapshots.Load(ctx, participant)
	if err != nil {
		log.Printf("snapshot load for %q failed, starting fresh: %v", participant, err)
		return newSession(participant, group, s.now)
	}
	if !ok || snapshot.GroupID != group.ID {
		return newSession(participant, group, s.now)
	}

	age := s.now().Sub(snapshot.StartedAt)
	if age > restoreWindowFactor*group.Duration() {
		if err := s.snapshots.Clear(ctx, participant); err != nil {
			log.Printf("stale snapshot clear for %q failed: %v", participant, err)
		}
		return newSession(participant, group, s.now)
	}
	return restoreSession(snapshot, group, s.now)
}

// Session returns the active session for a participant, if any.
func (s *AttemptService) Session(participant string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[participant]
	return session, ok
}

// Select records an answer for the participant's current question.
func (s *AttemptService) Select(ctx context.Context, participant, optionID string) error {
	session, ok := s.Session(participant)
	if !ok {
		return domain.ErrNoSession
	}
	if err := session.SelectOption(optionID); err != nil {
		return err
	}
	s.persist(ctx, session)
	return nil
}

// Clear resets the participant's current question to unanswered.
func (s *AttemptService) Clear(ctx context.Context, participant string) error {
	session, ok := s.Session(participant)
	if !ok {
		return domain.ErrNoSession
	}
	if err := session.ClearSelection(); err != nil {
		return err
	}
	s.persist(ctx, session)
	return nil
}

// Next advances the participant to the next question; advancing past the
// final question finishes the session and submits the result.
func (s *AttemptService) Next(ctx context.Context, participant string) (finished bool, err error) {
	session, ok := s.Session(participant)
	if !ok {
		return false, domain.ErrNoSession
	}
	finished, err = session.GoNext()
	if err != nil {
		return finished, err
	}
	s.persist(ctx, session)
	if finished {
		if _, err := s.Submit(ctx, participant); err != nil {
			return true, err
		}
	}
	return finished, nil
}

// Tick consumes one second of the participant's budget. An exhausted
// budget finishes the session and submits the result.
func (s *AttemptService) Tick(ctx context.Context, participant string) (remaining int, finished bool, err error) {
	session, ok := s.Session(participant)
	if !ok {
		return 0, false, domain.ErrNoSession
	}
	finished = session.Tick()
	s.persist(ctx, session)
	if finished {
		if _, err := s.Submit(ctx, participant); err != nil {
			return session.Remaining(), true, err
		}
	}
	return session.Remaining(), finished, nil
}

// Submit writes the finished session's result exactly once. It may be
// retried after a storage failure; a successful or duplicate submission
// settles the attempt and clears the snapshot.
func (s *AttemptService) Submit(ctx context.Context, participant string) (domain.AttemptResult, error) {
	s.mu.Lock()
	if result, done := s.submitted[participant]; done {
		s.mu.Unlock()
		return result, nil
	}
	session, ok := s.sessions[participant]
	s.mu.Unlock()
	if !ok {
		return domain.AttemptResult{}, domain.ErrNoSession
	}
	if session.State() != StateFinished {
		return domain.AttemptResult{}, domain.ErrNoSession
	}

	result := session.Result()
	result.ID = s.newID()

	if err := s.attempts.Insert(ctx, result); err != nil {
		if errors.Is(err, domain.ErrDuplicateAttempt) {
			// Another tab (or a retried submit) won the race; the stored
			// row is the truth.
			s.settle(ctx, participant, result)
			return result, domain.ErrDuplicateAttempt
		}
		return domain.AttemptResult{}, err
	}

	s.settle(ctx, participant, result)
	return result, nil
}

func (s *AttemptService) settle(ctx context.Context, participant string, result domain.AttemptResult) {
	s.mu.Lock()
	s.submitted[participant] = result
	s.mu.Unlock()
	if err := s.snapshots.Clear(ctx, participant); err != nil {
		log.Printf("snapshot clear for %q failed: %v", participant, err)
	}
}

// ReportEvent feeds a client-reported anti-cheat event into the session
// monitor and persists the updated state.
func (s *AttemptService) ReportEvent(ctx context.Context, participant string, kind EventKind) (compromised bool, err error) {
	session, ok := s.Session(participant)
	if !ok {
		return false, domain.ErrNoSession
	}
	compromised = session.Monitor().RecordEvent(kind)
	s.persist(ctx, session)
	return compromised, nil
}

// SetHidden toggles the privacy blur for a participant's session.
func (s *AttemptService) SetHidden(participant string, hidden bool) error {
	session, ok := s.Session(participant)
	if !ok {
		return domain.ErrNoSession
	}
	session.Monitor().SetHidden(hidden)
	return nil
}

// Reset clears all local state for a participant and returns them to
// NotStarted. It never resurrects a finished session.
func (s *AttemptService) Reset(ctx context.Context, participant string) error {
	s.mu.Lock()
	delete(s.sessions, participant)
	delete(s.submitted, participant)
	s.mu.Unlock()
	return s.snapshots.Clear(ctx, participant)
}

// persist writes the session snapshot through to durable storage on every
// mutation. Failures are logged, not surfaced: the session stays usable
// and the next mutation retries the write.
func (s *AttemptService) persist(ctx context.Context, session *Session) {
	if err := s.snapshots.Save(ctx, session.Snapshot()); err != nil {
		log.Printf("snapshot save for %q failed: %v", session.Participant(), err)
	}
}
