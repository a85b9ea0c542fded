package sensor

import "runtime"

// Critical brackets the timing-critical protocol window. The sensor's
// pulses are tens of microseconds wide, so nothing may suspend the reading
// goroutine between the start signal and the last payload bit.
type Critical interface {
	Enter()
	Exit()
}

// osCritical pins the goroutine to its OS thread for the duration of the
// window. The host-side analog of disabling interrupts: it cannot stop the
// kernel preempting the thread, but it keeps the Go scheduler from
// migrating or descheduling the goroutine mid-protocol.
type osCritical struct{}

func (osCritical) Enter() { runtime.LockOSThread() }
func (osCritical) Exit()  { runtime.UnlockOSThread() }

// CountingCritical records Enter/Exit calls, for tests asserting that every
// decode path releases the section it acquired.
type CountingCritical struct {
	Enters int
	Exits  int
}

func (c *CountingCritical) Enter() { c.Enters++ }
func (c *CountingCritical) Exit()  { c.Exits++ }

// Balanced reports whether every Enter has a matching Exit.
func (c *CountingCritical) Balanced() bool {
	return c.Enters == c.Exits
}
