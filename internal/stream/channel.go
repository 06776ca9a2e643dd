package stream

import (
	"fmt"
	"sync"
	"time"

	"github.com/psilabvnorg/ttsgen/internal/generate"
)

// channel is the event pipe shared by all transports. The transport's read
// goroutine is the only writer and the only closer of events; Close just
// tears down the underlying connection so the reader unblocks.
type channel struct {
	events chan generate.ProgressEvent
	closed chan struct{}
	kick   chan struct{}

	closeOnce sync.Once
	underlying func()

	mu  sync.Mutex
	err error
}

func newChannel(idle time.Duration, closeUnderlying func()) *channel {
	c := &channel{
		events:     make(chan generate.ProgressEvent, 16),
		closed:     make(chan struct{}),
		kick:       make(chan struct{}, 1),
		underlying: closeUnderlying,
	}
	if idle > 0 {
		go c.watchdog(idle)
	}
	return c
}

func (c *channel) Events() <-chan generate.ProgressEvent { return c.events }

func (c *channel) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close tears down the underlying connection. Idempotent; safe from any
// goroutine. The reader notices the dead connection and closes Events.
func (c *channel) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		if c.underlying != nil {
			c.underlying()
		}
	})
	return nil
}

// deliver hands an event to the consumer, giving up if the channel was
// closed underneath us.
func (c *channel) deliver(ev generate.ProgressEvent) bool {
	select {
	case c.kick <- struct{}{}:
	default:
	}
	select {
	case c.events <- ev:
		return true
	case <-c.closed:
		return false
	}
}

// finish records the transport error (first one wins) and ends the event
// sequence. Called exactly once, by the read goroutine.
func (c *channel) finish(err error) {
	c.mu.Lock()
	if c.err == nil {
		c.err = err
	}
	c.mu.Unlock()
	close(c.events)
	_ = c.Close()
}

// watchdog kills connections that stall without delivering any event.
func (c *channel) watchdog(idle time.Duration) {
	timer := time.NewTimer(idle)
	defer timer.Stop()
	for {
		select {
		case <-c.closed:
			return
		case <-c.kick:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(idle)
		case <-timer.C:
			c.mu.Lock()
			if c.err == nil {
				c.err = fmt.Errorf("no stream event for %s", idle)
			}
			c.mu.Unlock()
			_ = c.Close()
			return
		}
	}
}
