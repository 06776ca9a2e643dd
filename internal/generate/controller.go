package generate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/psilabvnorg/ttsgen/internal/audio"
	"github.com/psilabvnorg/ttsgen/internal/observability"
	"github.com/psilabvnorg/ttsgen/internal/reliability"
)

// Channel delivers the server-push progress sequence for one session. The
// sequence is lazy and non-restartable: Events closes after the terminal
// event or a transport failure, and Err reports the failure afterwards.
type Channel interface {
	Events() <-chan ProgressEvent
	Err() error
	Close() error
}

// ChannelOpener establishes a streaming channel for a validated request.
// Retrying is always a fresh Open; channels never reopen themselves.
type ChannelOpener interface {
	Open(ctx context.Context, req GenerationRequest) (Channel, error)
}

// Severity classifies inline user notifications.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Notifier publishes severity-classified inline messages.
type Notifier interface {
	Notify(severity Severity, text string)
}

// ResultBinder receives the acknowledged artifact for the playback and
// download surfaces.
type ResultBinder interface {
	BindResult(a *AudioArtifact) error
}

// UiBindings groups the presentation hooks handed to the controller at
// construction, so it stays testable without a live presentation surface.
type UiBindings struct {
	View     ProgressView
	Notifier Notifier
	Result   ResultBinder
}

// Controller owns one generation session at a time: it validates input,
// opens the streaming channel, drives the progress surface, materializes the
// terminal payload and decides the terminal disposition.
type Controller struct {
	opener   ChannelOpener
	ui       UiBindings
	surface  *Surface
	mat      *Materializer
	metrics  *observability.Metrics
	defaults Defaults
	msgs     Messages

	mu       sync.Mutex
	sess     *Session
	channel  Channel
	cancel   context.CancelFunc
	pending  *AudioArtifact // materialized, awaiting acknowledgment
	artifact *AudioArtifact // last acknowledged result
}

// NewController wires the collaborators together. metrics may be nil.
func NewController(opener ChannelOpener, ui UiBindings, mat *Materializer, metrics *observability.Metrics, defaults Defaults, msgs Messages) *Controller {
	if defaults == (Defaults{}) {
		defaults = DefaultFormValues()
	}
	c := &Controller{
		opener:   opener,
		ui:       ui,
		mat:      mat,
		metrics:  metrics,
		defaults: defaults,
		msgs:     msgs.merged(),
	}
	c.surface = NewSurface(ui.View, c.msgs)
	c.surface.SetAckHook(c.handleAck)
	return c
}

// ProgressSurface exposes the surface so the presentation layer can forward
// the user's acknowledgment.
func (c *Controller) ProgressSurface() *Surface { return c.surface }

// Session returns the most recent session, running or terminal.
func (c *Controller) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess
}

// Artifact returns the last acknowledged artifact, if any.
func (c *Controller) Artifact() *AudioArtifact {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.artifact
}

// Submit validates fields and starts a session. While a session is Running
// it refuses with ErrSessionActive and opens no second channel. A validation
// rejection publishes the reason and opens no channel either.
func (c *Controller) Submit(ctx context.Context, fields FormFields) (*Session, error) {
	req, err := ParseForm(fields, c.defaults)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			c.notify(SeverityError, verr.Reason)
		}
		return nil, err
	}

	c.mu.Lock()
	if c.sess != nil && c.sess.State() == StateRunning {
		c.mu.Unlock()
		c.notify(SeverityError, c.msgs.Busy)
		return nil, ErrSessionActive
	}
	sess := newSession(req)
	c.sess = sess
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.ActiveSession.Set(1)
	}
	c.surface.Start()

	runCtx, cancel := context.WithCancel(ctx)
	ch, err := c.opener.Open(runCtx, req)
	if err != nil {
		cancel()
		terr := &TransportError{Err: err}
		c.finish(sess, terr, c.msgs.GenericFailure)
		return nil, terr
	}

	c.mu.Lock()
	c.channel = ch
	c.cancel = cancel
	c.mu.Unlock()

	go c.consume(sess, ch)
	return sess, nil
}

// Wait blocks until the current session reaches a terminal state.
func (c *Controller) Wait(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	sess := c.sess
	c.mu.Unlock()
	if sess == nil {
		return nil, errors.New("no session submitted")
	}
	select {
	case <-ctx.Done():
		return sess, ctx.Err()
	case <-sess.Done():
		return sess, nil
	}
}

// Abandon closes the channel and discards the running session before a
// terminal event arrives. Any held artifact is revoked, the surface is
// dismissed and submission is re-enabled.
func (c *Controller) Abandon() {
	c.mu.Lock()
	sess := c.sess
	c.mu.Unlock()
	if sess == nil || !sess.finish(StateFailed, ErrAbandoned) {
		return
	}

	pending := c.teardown()
	if pending != nil {
		_ = pending.Handle().Revoke()
	}
	c.surface.Abort()
	c.notify(SeverityInfo, c.msgs.Abandoned)
	c.recordOutcome("abandoned")
}

// consume processes channel events strictly in arrival order. The terminal
// event is guaranteed to be the last one handled for the session.
func (c *Controller) consume(sess *Session, ch Channel) {
	for ev := range ch.Events() {
		if c.metrics != nil {
			c.metrics.StreamEvents.WithLabelValues(ev.Kind().String()).Inc()
		}
		switch ev.Kind() {
		case KindError:
			_ = ch.Close()
			c.finish(sess, &ChannelError{Detail: ev.Error}, ev.Error)
			return
		case KindTerminal:
			_ = ch.Close()
			c.complete(sess, ev)
			return
		default:
			c.surface.Update(ev.Progress, ev.Status)
		}
	}

	// Channel drained without a terminal event: the connection broke or was
	// abandoned. finish is a no-op if the session already ended.
	err := ch.Err()
	if err == nil {
		err = errors.New("stream closed before terminal event")
	}
	c.finish(sess, &TransportError{Err: err}, c.msgs.GenericFailure)
}

// complete handles the terminal success event: materialize the payload and
// park the artifact until the user acknowledges. A decode failure is
// indistinguishable in effect from a server error event.
func (c *Controller) complete(sess *Session, ev ProgressEvent) {
	art, err := c.mat.Materialize(ev.AudioData, ev.Filename)
	if err != nil {
		var derr *DecodeError
		if !errors.As(err, &derr) {
			err = &DecodeError{Err: err}
		}
		c.finish(sess, err, c.msgs.DecodeFailure)
		return
	}

	art.Duration = ev.Duration
	if ev.FileSize > 0 {
		art.Size = ev.FileSize
	}
	if art.Duration <= 0 {
		if info, perr := audio.Probe(art.Bytes); perr == nil {
			art.Duration = info.Duration.Seconds()
		}
	}

	c.mu.Lock()
	if sess.State() != StateRunning {
		c.mu.Unlock()
		_ = art.Handle().Revoke()
		return
	}
	c.pending = art
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.ArtifactBytes.Observe(float64(len(art.Bytes)))
	}
	c.surface.Update(ev.Progress, ev.Status)
	c.surface.CompleteSuccess()
}

// handleAck runs when the user acknowledges the completed surface: bind the
// artifact to the result surfaces, publish the success message with metrics
// and mark the session Succeeded.
func (c *Controller) handleAck() {
	c.mu.Lock()
	sess := c.sess
	art := c.pending
	c.pending = nil
	prev := c.artifact
	if sess == nil || art == nil {
		c.mu.Unlock()
		return
	}
	c.artifact = art
	c.mu.Unlock()

	if !sess.finish(StateSucceeded, nil) {
		return
	}
	c.releaseChannel()

	// The previous session's artifact is superseded; revoke before rebinding.
	if prev != nil {
		_ = prev.Handle().Revoke()
	}
	if c.ui.Result != nil {
		if err := c.ui.Result.BindResult(art); err != nil {
			log.Printf("generate: bind result: %v", err)
		}
	}

	c.notify(SeveritySuccess, successMessage(c.msgs.Success, art))
	c.recordOutcome("succeeded")
	if c.metrics != nil {
		c.metrics.ObserveGeneration(sess.EndedAt().Sub(sess.StartedAt()))
	}
}

// finish moves sess to Failed (once), dismisses the surface and publishes
// the error message. Used by every failure path: channel error, transport
// failure, decode failure and open failure.
func (c *Controller) finish(sess *Session, serr error, message string) {
	if !sess.finish(StateFailed, serr) {
		return
	}
	pending := c.teardown()
	if pending != nil {
		_ = pending.Handle().Revoke()
	}
	c.surface.Abort()
	if message == "" {
		message = c.msgs.GenericFailure
	}
	c.notify(SeverityError, message)
	c.recordOutcome(outcomeLabel(serr))
}

// teardown clears channel state and returns any unacknowledged artifact.
func (c *Controller) teardown() *AudioArtifact {
	c.mu.Lock()
	ch := c.channel
	cancel := c.cancel
	pending := c.pending
	c.channel = nil
	c.cancel = nil
	c.pending = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if ch != nil {
		_ = ch.Close()
	}
	return pending
}

func (c *Controller) releaseChannel() {
	c.mu.Lock()
	cancel := c.cancel
	c.channel = nil
	c.cancel = nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (c *Controller) notify(severity Severity, text string) {
	if c.ui.Notifier == nil || text == "" {
		return
	}
	c.ui.Notifier.Notify(severity, text)
}

func (c *Controller) recordOutcome(outcome string) {
	if c.metrics == nil {
		return
	}
	c.metrics.ActiveSession.Set(0)
	c.metrics.Sessions.WithLabelValues(outcome).Inc()
}

func outcomeLabel(err error) string {
	var (
		cerr *ChannelError
		terr *TransportError
		derr *DecodeError
	)
	switch {
	case errors.Is(err, ErrAbandoned):
		return "abandoned"
	case errors.As(err, &cerr):
		return "channel_error"
	case errors.As(err, &derr):
		return "decode_error"
	case errors.As(err, &terr):
		if reliability.IsTransientStreamErr(terr.Err) {
			return "transport_transient"
		}
		return "transport_error"
	default:
		return "failed"
	}
}

// successMessage composes the final status line: the base success string,
// then duration to one decimal and size in whole KB when known.
func successMessage(base string, art *AudioArtifact) string {
	msg := base
	if art.Duration > 0 {
		msg += fmt.Sprintf(" • duration: %.1fs", art.Duration)
	}
	if art.Size > 0 {
		msg += fmt.Sprintf(" • size: %.0fKB", float64(art.Size)/1024)
	}
	return msg
}
