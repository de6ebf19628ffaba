package session

import (
	"sync"
	"time"

	"github.com/harunnryd/speechlab/pkg/events"
)

// State is a ContinuousSession lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// TerminationKind names what ended a continuous session.
type TerminationKind int

const (
	TerminationNone TerminationKind = iota
	TerminationSessionStopped
	TerminationCanceled
	TerminationCallerCanceled
	TerminationStreamClosed
)

func (k TerminationKind) String() string {
	switch k {
	case TerminationSessionStopped:
		return "SessionStopped"
	case TerminationCanceled:
		return "Canceled"
	case TerminationCallerCanceled:
		return "CallerCanceled"
	case TerminationStreamClosed:
		return "StreamClosed"
	default:
		return "None"
	}
}

// TerminationReason is the single terminal signal of a continuous session.
// Cancellation is set only for TerminationCanceled.
type TerminationReason struct {
	Kind         TerminationKind
	Cancellation events.Cancellation
}

func (r TerminationReason) String() string {
	if r.Kind != TerminationCanceled {
		return r.Kind.String()
	}
	s := r.Kind.String() + ": " + r.Cancellation.Reason
	if r.Cancellation.ErrorDetails != "" {
		s += ": " + r.Cancellation.ErrorDetails
	}
	return s
}

// StateChange represents a state transition event.
type StateChange struct {
	FromState State
	ToState   State
	Timestamp time.Time
	Reason    string
}

// StateListener observes continuous session state changes.
type StateListener interface {
	OnStateChange(event StateChange)
}

// ContinuousSession tracks one streaming recognition: Idle, then Running
// while events arrive, then Stopped after exactly one terminal signal.
type ContinuousSession struct {
	mu          sync.RWMutex
	state       State
	partials    int
	finals      int
	startedAt   time.Time
	stoppedAt   time.Time
	termination TerminationReason
	listeners   []StateListener
	now         func() time.Time
}

func NewContinuousSession(now func() time.Time) *ContinuousSession {
	if now == nil {
		now = time.Now
	}
	return &ContinuousSession{state: StateIdle, now: now}
}

func (s *ContinuousSession) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Idle may stop directly when the stream never produced an event.
func transitionValid(from, to State) bool {
	validTransitions := map[State][]State{
		StateIdle:    {StateRunning, StateStopped},
		StateRunning: {StateStopped},
	}
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Start moves Idle to Running.
func (s *ContinuousSession) Start() error {
	return s.transition(StateRunning, "stream started", nil)
}

// Terminate records reason and moves to Stopped. A second call fails with
// InvalidTransitionError, so a session holds one terminal reason only.
func (s *ContinuousSession) Terminate(reason TerminationReason) error {
	return s.transition(StateStopped, reason.String(), func() {
		s.termination = reason
	})
}

func (s *ContinuousSession) transition(to State, reason string, apply func()) error {
	s.mu.Lock()
	if !transitionValid(s.state, to) {
		from := s.state
		s.mu.Unlock()
		return &InvalidTransitionError{From: from, To: to}
	}
	from := s.state
	s.state = to
	now := s.now()
	switch to {
	case StateRunning:
		s.startedAt = now
	case StateStopped:
		s.stoppedAt = now
	}
	if apply != nil {
		apply()
	}
	listeners := make([]StateListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	event := StateChange{FromState: from, ToState: to, Timestamp: now, Reason: reason}
	for _, l := range listeners {
		l.OnStateChange(event)
	}
	return nil
}

// RecordPartial counts an interim result; ignored unless Running.
func (s *ContinuousSession) RecordPartial() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		return false
	}
	s.partials++
	return true
}

// RecordFinal counts a confirmed result; ignored unless Running.
func (s *ContinuousSession) RecordFinal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		return false
	}
	s.finals++
	return true
}

func (s *ContinuousSession) Partials() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.partials
}

func (s *ContinuousSession) Finals() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.finals
}

// Termination returns the recorded terminal reason, zero until Stopped.
func (s *ContinuousSession) Termination() TerminationReason {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.termination
}

// Duration is the time spent Running.
func (s *ContinuousSession) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.startedAt.IsZero() || s.stoppedAt.IsZero() {
		return 0
	}
	return s.stoppedAt.Sub(s.startedAt)
}

// AddListener registers a listener for state change events.
func (s *ContinuousSession) AddListener(listener StateListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

// InvalidTransitionError represents an invalid state transition attempt.
type InvalidTransitionError struct {
	From State
	To   State
}

func (e *InvalidTransitionError) Error() string {
	return "invalid state transition from " + e.From.String() + " to " + e.To.String()
}
