package generate

import (
	"errors"
	"fmt"
)

// ErrSessionActive is returned by Submit while another session is still running.
var ErrSessionActive = errors.New("a generation session is already running")

// ErrAbandoned marks a session discarded by the user before a terminal event.
var ErrAbandoned = errors.New("session abandoned")

// ErrHandleRevoked is returned when dereferencing a revoked artifact handle.
var ErrHandleRevoked = errors.New("artifact handle revoked")

// ValidationError reports user input that fails the submission constraints.
// It never reaches the streaming channel.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// ChannelError is a structured error event received from the server. Its
// detail is surfaced to the user verbatim.
type ChannelError struct {
	Detail string
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("generation failed: %s", e.Detail)
}

// TransportError reports a broken or unreadable streaming connection. It is
// surfaced to the user as a generic failure message.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return "stream transport failure"
	}
	return fmt.Sprintf("stream transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError reports a terminal audio payload that could not be decoded.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return "audio payload decode failure"
	}
	return fmt.Sprintf("audio payload decode failure: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
