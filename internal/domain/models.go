package domain

import "time"

// ScoringPolicy selects how a finished attempt is scored.
type ScoringPolicy string

const (
	// ScoringFlat awards +2 per correct answer, -1 per wrong, 0 unanswered.
	ScoringFlat ScoringPolicy = "flat"
	// ScoringTimed awards +100 per correct answer plus a speed bonus of up
	// to 60 points, and -50 per wrong answer.
	ScoringTimed ScoringPolicy = "timed"
)

// Option is one of the four answer choices of a question.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question models an MCQ question. CorrectOption is empty until the
// question has been graded by an admin.
type Question struct {
	ID            string   `json:"id"`
	Prompt        string   `json:"prompt"`
	Options       []Option `json:"options"`
	CorrectOption string   `json:"correctOption"`
	ImageRef      string   `json:"imageRef,omitempty"`
	GroupID       string   `json:"groupId"`
}

// QuizGroup is a named, password-gated question pool with its own duration.
type QuizGroup struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Password        string        `json:"password"`
	DurationSeconds int           `json:"durationSeconds"` // defaults to 60 if zero
	Scoring         ScoringPolicy `json:"scoring"`         // defaults to flat if empty
	Questions       []Question    `json:"questions"`
}

// Duration returns the configured time budget, falling back to 60s.
func (g QuizGroup) Duration() time.Duration {
	if g.DurationSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(g.DurationSeconds) * time.Second
}

// Policy returns the configured scoring policy, falling back to flat.
func (g QuizGroup) Policy() ScoringPolicy {
	if g.Scoring == "" {
		return ScoringFlat
	}
	return g.Scoring
}

// AnswerState is the per-question answer record of one attempt. An empty
// Selected means the question is unanswered.
type AnswerState struct {
	Selected       string `json:"selected"`
	ElapsedSeconds int    `json:"elapsedSeconds"`
	Bonus          int    `json:"bonus"`
}

// Answered reports whether an option has been selected.
func (a AnswerState) Answered() bool { return a.Selected != "" }

// AttemptResult is the finalized outcome of one participant's attempt.
// At most one row may exist per (participant, group); the storage layer
// enforces this with a uniqueness constraint.
type AttemptResult struct {
	ID          string    `json:"id"`
	Participant string    `json:"participant"`
	GroupID     string    `json:"groupId"`
	Total       int       `json:"total"`
	Correct     int       `json:"correct"`
	Wrong       int       `json:"wrong"`
	NotAnswered int       `json:"notAnswered"`
	Score       int       `json:"score"`
	CompletedAt time.Time `json:"completedAt"`
}

// Stream is the subject track that determines an applicant's third subject
// and ranking peer group.
type Stream string

const (
	StreamMaths   Stream = "maths"
	StreamBiology Stream = "biology"
)

// Valid reports whether s is a known stream.
func (s Stream) Valid() bool { return s == StreamMaths || s == StreamBiology }

// Subject identifies one graded subject. SubjectAll is a pseudo-subject
// used to broadcast one set of grade ranges to every subject at once.
type Subject string

const (
	SubjectMaths     Subject = "maths"
	SubjectBiology   Subject = "biology"
	SubjectPhysics   Subject = "physics"
	SubjectChemistry Subject = "chemistry"
	SubjectAll       Subject = "all"
)

// Subjects lists the real (gradeable) subjects.
func Subjects() []Subject {
	return []Subject{SubjectMaths, SubjectBiology, SubjectPhysics, SubjectChemistry}
}

// StreamSubject returns the third subject for a stream.
func StreamSubject(s Stream) Subject {
	if s == StreamBiology {
		return SubjectBiology
	}
	return SubjectMaths
}

// Grade is a letter grade. The empty grade means "not graded" (absent mark).
type Grade string

const (
	GradeA    Grade = "A"
	GradeB    Grade = "B"
	GradeC    Grade = "C"
	GradeS    Grade = "S"
	GradeF    Grade = "F"
	GradeNone Grade = ""
)

// GradeRanges holds the four ascending thresholds separating F/S/C/B/A.
type GradeRanges struct {
	S float64 `json:"s"`
	C float64 `json:"c"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// Applicant identifies one exam candidate in one year.
type Applicant struct {
	IndexNo string `json:"indexNo"`
	Name    string `json:"name"`
	School  string `json:"school"`
	Stream  Stream `json:"stream"`
	Year    int    `json:"year"`
}

// Result is the derived per-applicant grading record. Marks are raw inputs;
// grades, ranges (the boundaries in effect when graded), z-score and rank
// are recomputed wholesale whenever boundaries change or marks are
// re-imported.
type Result struct {
	IndexNo string                  `json:"indexNo"`
	Year    int                     `json:"year"`
	Stream  Stream                  `json:"stream"`
	Marks   map[Subject]*float64    `json:"marks"`
	Grades  map[Subject]Grade       `json:"grades"`
	Ranges  map[Subject]GradeRanges `json:"ranges"`
	ZScore  float64                 `json:"zScore"`
	Rank    int                     `json:"rank"`
}

// Mark returns the raw mark for a subject, nil when absent.
func (r Result) Mark(s Subject) *float64 {
	if r.Marks == nil {
		return nil
	}
	return r.Marks[s]
}

// SessionSnapshot is the persisted form of an in-progress quiz session,
// keyed by participant identifier. Last write wins; only one session per
// participant is representable at a time.
type SessionSnapshot struct {
	Participant      string        `json:"participant"`
	GroupID          string        `json:"groupId"`
	Answers          []AnswerState `json:"answers"`
	Position         int           `json:"position"`
	StartedAt        time.Time     `json:"startedAt"`
	RemainingSeconds int           `json:"remainingSeconds"`
	Finished         bool          `json:"finished"`
	CheatAttempts    int           `json:"cheatAttempts"`
	Compromised      bool          `json:"compromised"`
}
