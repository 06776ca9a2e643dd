package generate

import (
	"math"
	"sync"
)

// SurfaceState is the presentation state of the progress surface.
type SurfaceState string

const (
	SurfaceHidden       SurfaceState = "hidden"
	SurfaceInitializing SurfaceState = "initializing"
	SurfaceUpdating     SurfaceState = "updating"
	SurfaceAwaitingAck  SurfaceState = "awaiting_ack"
)

// ProgressView receives presentation updates from the surface. Implementations
// render however they like (terminal line, test recorder, web push).
type ProgressView interface {
	// ShowInitializing presents the surface at 0% with the given label.
	ShowInitializing(label string)
	// ShowProgress presents a whole-unit percentage and status label.
	ShowProgress(percent int, label string)
	// ShowCompleted freezes the surface into its terminal success state and
	// reveals the acknowledgment control.
	ShowCompleted(message string)
	// Hide dismisses the surface.
	Hide()
}

// Surface is the progress-reporting state machine. It owns the transition
// table and forwards display updates to a ProgressView; the raw float percent
// remains the source of truth, rounding happens only for display.
type Surface struct {
	mu      sync.Mutex
	state   SurfaceState
	percent float64
	label   string
	view    ProgressView
	msgs    Messages
	onAck   func()
}

// NewSurface builds a hidden surface bound to view. A nil view is allowed and
// renders nowhere.
func NewSurface(view ProgressView, msgs Messages) *Surface {
	if view == nil {
		view = noopView{}
	}
	return &Surface{
		state: SurfaceHidden,
		view:  view,
		msgs:  msgs.merged(),
	}
}

// SetAckHook registers the controller callback fired on acknowledgment.
func (s *Surface) SetAckHook(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onAck = fn
}

// State returns the current presentation state.
func (s *Surface) State() SurfaceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Percent returns the raw backend percentage last applied.
func (s *Surface) Percent() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.percent
}

// Start resets the surface and presents it in the Initializing state.
func (s *Surface) Start() {
	s.mu.Lock()
	s.state = SurfaceInitializing
	s.percent = 0
	s.label = s.msgs.Initializing
	label := s.label
	s.mu.Unlock()
	s.view.ShowInitializing(label)
}

// Update applies an intermediate progress event. The label is replaced only
// when text is non-empty. Updates outside Initializing/Updating are ignored.
func (s *Surface) Update(percent float64, text string) {
	s.mu.Lock()
	if s.state != SurfaceInitializing && s.state != SurfaceUpdating {
		s.mu.Unlock()
		return
	}
	s.state = SurfaceUpdating
	s.percent = percent
	if text != "" {
		s.label = text
	}
	label := s.label
	s.mu.Unlock()
	s.view.ShowProgress(displayPercent(percent), label)
}

// CompleteSuccess freezes the surface and reveals the acknowledgment control.
func (s *Surface) CompleteSuccess() {
	s.mu.Lock()
	if s.state != SurfaceInitializing && s.state != SurfaceUpdating {
		s.mu.Unlock()
		return
	}
	s.state = SurfaceAwaitingAck
	message := s.msgs.Completed
	s.mu.Unlock()
	s.view.ShowCompleted(message)
}

// Acknowledge dismisses the surface after terminal success and fires the
// controller's post-success callback.
func (s *Surface) Acknowledge() {
	s.mu.Lock()
	if s.state != SurfaceAwaitingAck {
		s.mu.Unlock()
		return
	}
	s.state = SurfaceHidden
	hook := s.onAck
	s.mu.Unlock()
	s.view.Hide()
	if hook != nil {
		hook()
	}
}

// Abort dismisses the surface from any state. The caller publishes the error
// message through its notification channel.
func (s *Surface) Abort() {
	s.mu.Lock()
	was := s.state
	s.state = SurfaceHidden
	s.mu.Unlock()
	if was != SurfaceHidden {
		s.view.Hide()
	}
}

// displayPercent rounds for presentation and clamps into [0,100].
func displayPercent(p float64) int {
	n := int(math.Round(p))
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

type noopView struct{}

func (noopView) ShowInitializing(string)  {}
func (noopView) ShowProgress(int, string) {}
func (noopView) ShowCompleted(string)     {}
func (noopView) Hide()                    {}
