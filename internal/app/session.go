package app

import (
	"sync"
	"time"

	"school-quiz-service/internal/domain"
)

// SessionState enumerates the attempt lifecycle. InProgress carries a
// sub-position (current question index) that only ever moves forward.
type SessionState int

const (
	StateNotStarted SessionState = iota
	StatePasswordCheck
	StateInProgress
	StateFinished
)

// Session is one participant's timed attempt at one quiz group. All
// mutations are serialized through an internal lock; a finished session
// rejects further mutation.
type Session struct {
	mu          sync.Mutex
	participant string
	group       domain.QuizGroup
	questions   []domain.Question // shuffled per participant
	answers     []domain.AnswerState
	position    int
	startedAt   time.Time
	remaining   int // seconds
	state       SessionState
	monitor     *Monitor
	now         func() time.Time
}

func newSession(participant string, group domain.QuizGroup, now func() time.Time) *Session {
	questions := ShuffleQuestions(group.Questions, participant)
	return &Session{
		participant: participant,
		group:       group,
		questions:   questions,
		answers:     make([]domain.AnswerState, len(questions)),
		startedAt:   now(),
		remaining:   int(group.Duration().Seconds()),
		state:       StateInProgress,
		monitor:     NewMonitor(),
		now:         now,
	}
}

// restoreSession rehydrates a session from a persisted snapshot. The
// question order is recomputed (shuffling is deterministic per
// participant) and the remaining budget is recharged from true wall-clock
// elapsed time, so a reload never grants extra time.
func restoreSession(snapshot domain.SessionSnapshot, group domain.QuizGroup, now func() time.Time) *Session {
	questions := ShuffleQuestions(group.Questions, snapshot.Participant)

	answers := make([]domain.AnswerState, len(questions))
	copy(answers, snapshot.Answers)

	elapsed := int(now().Sub(snapshot.StartedAt).Seconds())
	remaining := int(group.Duration().Seconds()) - elapsed
	state := StateInProgress
	if snapshot.Finished || remaining <= 0 {
		remaining = 0
		state = StateFinished
	}

	position := snapshot.Position
	if position < 0 {
		position = 0
	}
	if position >= len(questions) && len(questions) > 0 {
		position = len(questions) - 1
	}

	return &Session{
		participant: snapshot.Participant,
		group:       group,
		questions:   questions,
		answers:     answers,
		position:    position,
		startedAt:   snapshot.StartedAt,
		remaining:   remaining,
		state:       state,
		monitor:     restoreMonitor(snapshot.CheatAttempts, snapshot.Compromised),
		now:         now,
	}
}

// Participant returns the owning participant identifier.
func (s *Session) Participant() string { return s.participant }

// Group returns the bound quiz group.
func (s *Session) Group() domain.QuizGroup { return s.group }

// Monitor returns the session's anti-cheat monitor.
func (s *Session) Monitor() *Monitor { return s.monitor }

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current returns the question at the current position and the position
// itself. The correct option is stripped; participants never see it.
func (s *Session) Current() (domain.Question, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.position >= len(s.questions) {
		return domain.Question{}, s.position, false
	}
	q := s.questions[s.position]
	q.CorrectOption = ""
	return q, s.position, true
}

// Remaining returns the remaining time budget in seconds.
func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// SelectOption records the given option for the current question. Allowed
// only while the session is in progress and budget remains.
func (s *Session) SelectOption(optionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateFinished {
		return domain.ErrSessionFinished
	}
	if s.remaining <= 0 {
		return domain.ErrSessionFinished
	}
	if s.position >= len(s.questions) {
		return domain.ErrNotFound
	}
	question := s.questions[s.position]
	found := false
	for _, opt := range question.Options {
		if opt.ID == optionID {
			found = true
			break
		}
	}
	if !found {
		return domain.ErrNotFound
	}

	budget := int(s.group.Duration().Seconds())
	s.answers[s.position] = domain.AnswerState{
		Selected:       optionID,
		ElapsedSeconds: budget - s.remaining,
		Bonus:          speedBonus(s.remaining, budget),
	}
	return nil
}

// ClearSelection resets the current question to unanswered without moving
// the position.
func (s *Session) ClearSelection() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateFinished || s.remaining <= 0 {
		return domain.ErrSessionFinished
	}
	if s.position >= len(s.questions) {
		return domain.ErrNotFound
	}
	s.answers[s.position] = domain.AnswerState{}
	return nil
}

// GoNext advances to the next question. On the final question the session
// transitions to Finished instead; going back is never possible.
func (s *Session) GoNext() (finished bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateFinished {
		return true, domain.ErrSessionFinished
	}
	if s.position >= len(s.questions)-1 {
		s.state = StateFinished
		s.remaining = 0
		return true, nil
	}
	s.position++
	return false, nil
}

// Tick consumes one second of budget; hitting zero finishes the session.
func (s *Session) Tick() (finished bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateFinished {
		return true
	}
	s.remaining--
	if s.remaining <= 0 {
		s.remaining = 0
		s.state = StateFinished
		return true
	}
	return false
}

// Snapshot captures the full session state for write-through persistence.
func (s *Session) Snapshot() domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	answers := make([]domain.AnswerState, len(s.answers))
	copy(answers, s.answers)
	return domain.SessionSnapshot{
		Participant:      s.participant,
		GroupID:          s.group.ID,
		Answers:          answers,
		Position:         s.position,
		StartedAt:        s.startedAt,
		RemainingSeconds: s.remaining,
		Finished:         s.state == StateFinished,
		CheatAttempts:    s.monitor.Attempts(),
		Compromised:      s.monitor.Compromised(),
	}
}

// Result scores the frozen answer sheet. Only meaningful once finished.
func (s *Session) Result() domain.AttemptResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return computeResult(s.participant, s.group, s.questions, s.answers, s.now())
}
