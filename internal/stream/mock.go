package stream

import (
	"context"
	"time"

	"github.com/psilabvnorg/ttsgen/internal/generate"
)

// MockOpener replays a scripted event sequence without any network. Useful
// for tests and for exercising the UI offline.
type MockOpener struct {
	// Script is delivered in order; replay stops after the first terminal
	// event even if more entries follow.
	Script []generate.ProgressEvent
	// Interval paces the replay; zero replays as fast as the consumer reads.
	Interval time.Duration
	// OpenErr, when set, makes Open fail.
	OpenErr error
}

func (o *MockOpener) Open(ctx context.Context, _ generate.GenerationRequest) (generate.Channel, error) {
	if o.OpenErr != nil {
		return nil, o.OpenErr
	}
	ch := newChannel(0, nil)
	script := append([]generate.ProgressEvent(nil), o.Script...)
	go func() {
		for _, ev := range script {
			if o.Interval > 0 {
				select {
				case <-time.After(o.Interval):
				case <-ctx.Done():
					ch.finish(ctx.Err())
					return
				}
			}
			if !ch.deliver(ev) {
				ch.finish(nil)
				return
			}
			if ev.Terminal() {
				ch.finish(nil)
				return
			}
		}
		ch.finish(nil)
	}()
	return ch, nil
}
