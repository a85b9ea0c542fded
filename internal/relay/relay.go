// Package relay drives the relay output, either manually or on a
// duty-cycle timer. The timer is a two-phase state machine advanced by a
// periodic poll; it holds no clock of its own, so tests drive it with
// explicit timestamps.
package relay

import (
	"sync"
	"time"

	"github.com/temcontrol/temcontrol/internal/gpio"
)

// Snapshot is a point-in-time view of the controller state. Value type,
// safe to use after the lock is released.
type Snapshot struct {
	Enabled      bool
	OnDuration   time.Duration
	OffDuration  time.Duration
	CurrentState bool
	LastToggle   time.Time
}

// Controller owns the relay line and the duty-cycle timer state. All
// methods are safe for concurrent use; the HTTP handlers mutate the timer
// while the poll loop advances it.
type Controller struct {
	mu  sync.Mutex
	out gpio.OutputLine

	enabled    bool
	onFor      time.Duration
	offFor     time.Duration
	state      bool
	lastToggle time.Time
}

// New creates a Controller driving the given output. The timer starts
// disabled with the output low.
func New(out gpio.OutputLine) *Controller {
	return &Controller{out: out}
}

// Poll advances the duty-cycle state machine. While enabled, the on-phase
// ends once OnDuration has elapsed since the last toggle, and the
// off-phase once OffDuration has. A zero duration means the phase ends on
// the very next poll. Disabled timers never transition.
func (c *Controller) Poll(now time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled {
		return nil
	}

	elapsed := now.Sub(c.lastToggle)
	switch {
	case c.state && elapsed >= c.onFor:
		return c.toggle(false, now)
	case !c.state && elapsed >= c.offFor:
		return c.toggle(true, now)
	}
	return nil
}

// Configure applies a timer update. Disabling forces the output low
// immediately, not lazily on the next poll. The phase clock restarts at
// now, so a freshly enabled timer runs a full phase before toggling.
func (c *Controller) Configure(now time.Time, enabled bool, onFor, offFor time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.enabled = enabled
	c.onFor = onFor
	c.offFor = offFor
	c.lastToggle = now

	if !enabled {
		// Always command the level, even if the state already reads
		// off: a manual override may have left the pin high behind
		// the timer's back.
		return c.toggle(false, now)
	}
	return nil
}

// SetManual disables the timer and drives the output directly. The timer
// must be off before the level changes, so the next poll cannot re-assert
// a stale phase.
func (c *Controller) SetManual(now time.Time, on bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.enabled = false
	return c.toggle(on, now)
}

// Snapshot returns a copy of the controller state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Enabled:      c.enabled,
		OnDuration:   c.onFor,
		OffDuration:  c.offFor,
		CurrentState: c.state,
		LastToggle:   c.lastToggle,
	}
}

// toggle commands the output and records the transition. Caller holds the
// lock. The state and timestamp are only updated if the hardware accepted
// the level, keeping CurrentState honest about the last commanded level.
func (c *Controller) toggle(on bool, now time.Time) error {
	if err := c.out.SetLevel(on); err != nil {
		return err
	}
	c.state = on
	c.lastToggle = now
	return nil
}
