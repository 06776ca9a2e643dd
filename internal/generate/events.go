package generate

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ProgressEvent is one server-push message from the generation stream.
// The wire shape matches the service's SSE payloads.
type ProgressEvent struct {
	Progress  float64 `json:"progress"`
	Status    string  `json:"status"`
	Error     string  `json:"error,omitempty"`
	AudioData string  `json:"audio_data,omitempty"`
	Filename  string  `json:"filename,omitempty"`
	Duration  float64 `json:"duration,omitempty"`
	FileSize  int64   `json:"file_size,omitempty"`
}

// EventKind classifies a ProgressEvent for the controller's step dispatch.
type EventKind int

const (
	// KindProgress is an intermediate update.
	KindProgress EventKind = iota
	// KindError is a terminal structured error from the server.
	KindError
	// KindTerminal is the terminal success event carrying the audio payload.
	KindTerminal
)

func (k EventKind) String() string {
	switch k {
	case KindError:
		return "error"
	case KindTerminal:
		return "terminal"
	default:
		return "progress"
	}
}

// Kind decides the event's disposition. An error field always wins; success
// requires both 100% progress and a payload, everything else is intermediate.
func (e ProgressEvent) Kind() EventKind {
	if strings.TrimSpace(e.Error) != "" {
		return KindError
	}
	if e.Progress >= 100 && e.AudioData != "" {
		return KindTerminal
	}
	return KindProgress
}

// Terminal reports whether this event ends a session.
func (e ProgressEvent) Terminal() bool { return e.Kind() != KindProgress }

// ParseProgressEvent decodes one wire message.
func ParseProgressEvent(raw []byte) (ProgressEvent, error) {
	var ev ProgressEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return ProgressEvent{}, fmt.Errorf("invalid progress event: %w", err)
	}
	return ev, nil
}
