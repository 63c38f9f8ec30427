package timer

import (
	"sync"
	"time"
)

// TickInterval is the period of a running countdown.
const TickInterval = time.Second

// Tick is delivered to listeners once per elapsed second.
type Tick struct {
	Gen       uint64
	Remaining int
	Expired   bool
}

// Countdown runs at most one countdown at a time. Every Start and Cancel
// opens a new generation, and ticks carrying an older generation are dropped.
type Countdown struct {
	sched    Scheduler
	interval time.Duration
	listener func(Tick)

	mu        sync.Mutex
	gen       uint64
	remaining int
	running   bool
	handle    Handle
}

// NewCountdown returns an idle countdown. listener may be nil. It is invoked
// without the countdown's lock held, so it may call back into the countdown.
func NewCountdown(sched Scheduler, listener func(Tick)) *Countdown {
	if sched == nil {
		sched = TickerScheduler{}
	}
	return &Countdown{sched: sched, interval: TickInterval, listener: listener}
}

// Start begins a countdown of seconds, cancelling any prior one, and returns
// the generation its ticks will carry.
func (c *Countdown) Start(seconds int) uint64 {
	c.mu.Lock()
	c.stopLocked()
	c.gen++
	gen := c.gen
	c.remaining = seconds
	if seconds <= 0 {
		c.remaining = 0
		c.mu.Unlock()
		c.deliver(Tick{Gen: gen, Remaining: 0, Expired: true})
		return gen
	}
	c.running = true
	c.handle = c.sched.Schedule(c.interval, func() { c.tick(gen) })
	c.mu.Unlock()
	return gen
}

// Tick advances the active countdown by one second and returns the remaining
// seconds. It is a no-op on an idle countdown.
func (c *Countdown) Tick() int {
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()
	return c.tick(gen)
}

func (c *Countdown) tick(gen uint64) int {
	c.mu.Lock()
	if gen != c.gen || !c.running {
		rem := c.remaining
		c.mu.Unlock()
		return rem
	}
	c.remaining--
	ev := Tick{Gen: gen, Remaining: c.remaining}
	if c.remaining <= 0 {
		c.remaining = 0
		ev.Remaining = 0
		ev.Expired = true
		c.stopLocked()
	}
	c.mu.Unlock()
	c.deliver(ev)
	return ev.Remaining
}

// Cancel stops the countdown without emitting anything. Ticks already in
// flight for the cancelled generation are discarded.
func (c *Countdown) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.gen++
}

// IsCurrent reports whether gen is the live generation. Listeners that share
// state with Cancel callers use it to reject a tick that raced a cancel.
func (c *Countdown) IsCurrent(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.gen
}

// Remaining returns the seconds left on the current countdown.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Running reports whether a countdown is in progress.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Countdown) stopLocked() {
	if c.handle != nil {
		c.handle.Cancel()
		c.handle = nil
	}
	c.running = false
}

func (c *Countdown) deliver(ev Tick) {
	if c.listener != nil {
		c.listener(ev)
	}
}
