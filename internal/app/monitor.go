package app

import "sync"

// EventKind names a reported anti-cheat event.
type EventKind string

const (
	EventCopy        EventKind = "copy"
	EventCut         EventKind = "cut"
	EventPaste       EventKind = "paste"
	EventContextMenu EventKind = "contextmenu"
	EventSelectAll   EventKind = "selectall"
	EventPrint       EventKind = "print"
	EventSave        EventKind = "save"
	EventScreenshot  EventKind = "screenshot"
)

// knownEvents guards against clients inventing event kinds.
var knownEvents = map[EventKind]struct{}{
	EventCopy: {}, EventCut: {}, EventPaste: {}, EventContextMenu: {},
	EventSelectAll: {}, EventPrint: {}, EventSave: {}, EventScreenshot: {},
}

// Monitor tracks anti-cheat signals reported by the client while a session
// is in progress. It is advisory deterrence only: it runs on client-reported
// events, cannot stop determined circumvention, and must never be treated
// as a security boundary. Crossing into compromised replaces question text
// with a warning placeholder for the rest of the session; it does not end
// the session or zero the score.
type Monitor struct {
	mu          sync.Mutex
	attempts    int
	compromised bool
	blurred     bool
}

// NewMonitor returns a monitor with no recorded events.
func NewMonitor() *Monitor {
	return &Monitor{}
}

func restoreMonitor(attempts int, compromised bool) *Monitor {
	return &Monitor{attempts: attempts, compromised: compromised}
}

// RecordEvent counts one detected export attempt and reports whether the
// session is now compromised. Unknown kinds are ignored.
func (m *Monitor) RecordEvent(kind EventKind) bool {
	if _, ok := knownEvents[kind]; !ok {
		m.mu.Lock()
		defer m.mu.Unlock()
		return m.compromised
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts++
	m.compromised = true
	return m.compromised
}

// SetHidden toggles the transient privacy blur on focus/visibility loss;
// it clears automatically when focus returns.
func (m *Monitor) SetHidden(hidden bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blurred = hidden
}

// Attempts returns the number of recorded export attempts.
func (m *Monitor) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// Compromised reports whether any export attempt has been recorded.
func (m *Monitor) Compromised() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.compromised
}

// Blurred reports whether the privacy blur is currently active.
func (m *Monitor) Blurred() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.blurred
}
