package notify

import (
	"sync"
	"time"

	"github.com/moyoez/edi-client/tool"
	"github.com/moyoez/edi-client/types"
)

// ClearDelay is how long a success or error message stays visible.
const ClearDelay = 5 * time.Second

// Channel is the single-slot status channel. It owns at most one pending
// auto-clear timer; posting a new message stops the previous timer and bumps
// the generation so a timer that already fired cannot clear the newer message.
type Channel struct {
	mu        sync.Mutex
	clock     tool.Clock
	delay     time.Duration
	current   types.StatusNotification
	timer     tool.Timer
	gen       uint64
	listeners []func(types.StatusNotification)
}

func NewChannel(clock tool.Clock) *Channel {
	if clock == nil {
		clock = tool.SystemClock
	}
	return &Channel{clock: clock, delay: ClearDelay}
}

// OnChange registers fn to run after every post and clear.
func (c *Channel) OnChange(fn func(types.StatusNotification)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Post replaces the live notification. Loading messages never auto-clear.
func (c *Channel) Post(kind types.StatusKind, message string) types.StatusNotification {
	c.mu.Lock()
	c.stopTimerLocked()
	c.gen++
	gen := c.gen
	c.current = types.StatusNotification{
		ID:        tool.GenerateRandomUUID(),
		Kind:      kind,
		Message:   message,
		CreatedAt: c.clock.Now(),
	}
	if kind == types.StatusSuccess || kind == types.StatusError {
		c.timer = c.clock.AfterFunc(c.delay, func() { c.expire(gen) })
	}
	n := c.current
	c.mu.Unlock()

	tool.DefaultLogger.Debugf("[Status] %s: %s", kind, message)
	c.emit(n)
	return n
}

// Clear drops the live notification and its timer.
func (c *Channel) Clear() {
	c.mu.Lock()
	c.stopTimerLocked()
	c.gen++
	wasEmpty := c.current.Empty()
	c.current = types.StatusNotification{}
	c.mu.Unlock()
	if !wasEmpty {
		c.emit(types.StatusNotification{})
	}
}

func (c *Channel) Current() types.StatusNotification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Channel) expire(gen uint64) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.current = types.StatusNotification{}
	c.mu.Unlock()
	c.emit(types.StatusNotification{})
}

func (c *Channel) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Channel) emit(n types.StatusNotification) {
	c.mu.Lock()
	listeners := append([]func(types.StatusNotification){}, c.listeners...)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn(n)
	}
}
