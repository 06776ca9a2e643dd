package generate

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionState is the lifecycle state of one generation attempt.
type SessionState string

const (
	StateRunning   SessionState = "running"
	StateSucceeded SessionState = "succeeded"
	StateFailed    SessionState = "failed"
)

// Session is one end-to-end generation attempt from submission to terminal
// outcome. Its fields transition only through the controller's event
// handlers.
type Session struct {
	mu        sync.Mutex
	id        string
	request   GenerationRequest
	state     SessionState
	err       error
	startedAt time.Time
	endedAt   time.Time
	done      chan struct{}
}

func newSession(req GenerationRequest) *Session {
	return &Session{
		id:        uuid.NewString(),
		request:   req,
		state:     StateRunning,
		startedAt: time.Now().UTC(),
		done:      make(chan struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Request returns the immutable request that started the session.
func (s *Session) Request() GenerationRequest { return s.request }

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the terminal error, if the session failed.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// StartedAt returns the submission time.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// EndedAt returns the terminal time, zero while running.
func (s *Session) EndedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endedAt
}

// Done is closed once the session reaches a terminal state.
func (s *Session) Done() <-chan struct{} { return s.done }

// finish moves the session to a terminal state exactly once. It reports
// whether this call performed the transition, making terminal handling
// naturally idempotent across the error, transport-failure and abandon paths.
func (s *Session) finish(state SessionState, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		return false
	}
	s.state = state
	s.err = err
	s.endedAt = time.Now().UTC()
	close(s.done)
	return true
}
