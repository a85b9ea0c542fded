package relay

import (
	"errors"
	"testing"
	"time"

	"github.com/temcontrol/temcontrol/internal/gpio"
)

var t0 = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

func TestDutyCycleSequence(t *testing.T) {
	out := &gpio.SimOutput{}
	c := New(out)

	// enabled, on=5s, off=3s, starting in the off-phase at t=0.
	if err := c.Configure(at(0), true, 5*time.Second, 3*time.Second); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	// t=2999ms: off-phase not elapsed, no transition.
	c.Poll(at(2999))
	if len(out.Levels) != 0 {
		t.Fatalf("poll at 2999ms: unexpected writes %v", out.Levels)
	}
	if s := c.Snapshot(); s.CurrentState {
		t.Error("poll at 2999ms: state should still be off")
	}

	// t=3000ms: off-phase elapsed, transition to on.
	c.Poll(at(3000))
	if last, ok := out.Last(); !ok || !last {
		t.Fatal("poll at 3000ms: expected pin driven high")
	}
	s := c.Snapshot()
	if !s.CurrentState {
		t.Error("poll at 3000ms: expected on-phase")
	}
	if !s.LastToggle.Equal(at(3000)) {
		t.Errorf("LastToggle: got %v, want %v", s.LastToggle, at(3000))
	}

	// t=7999ms: on-phase (5s) not elapsed since 3000ms.
	writes := len(out.Levels)
	c.Poll(at(7999))
	if len(out.Levels) != writes {
		t.Error("poll at 7999ms: unexpected transition")
	}

	// t=8000ms: on-phase elapsed, back to off.
	c.Poll(at(8000))
	if last, ok := out.Last(); !ok || last {
		t.Fatal("poll at 8000ms: expected pin driven low")
	}
	s = c.Snapshot()
	if s.CurrentState {
		t.Error("poll at 8000ms: expected off-phase")
	}
	if !s.LastToggle.Equal(at(8000)) {
		t.Errorf("LastToggle: got %v, want %v", s.LastToggle, at(8000))
	}
}

func TestDisabledTimerNeverTransitions(t *testing.T) {
	out := &gpio.SimOutput{}
	c := New(out)

	for ms := 0; ms < 10000; ms += 100 {
		c.Poll(at(ms))
	}
	if len(out.Levels) != 0 {
		t.Errorf("disabled timer drove the pin: %v", out.Levels)
	}
}

func TestDisableForcesLowImmediately(t *testing.T) {
	out := &gpio.SimOutput{}
	c := New(out)

	c.Configure(at(0), true, time.Second, time.Second)
	c.Poll(at(1000)) // into the on-phase
	if last, _ := out.Last(); !last {
		t.Fatal("expected on-phase before disable")
	}

	// Disable mid-phase: the pin must go low now, not on the next poll.
	if err := c.Configure(at(1500), false, time.Second, time.Second); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if last, ok := out.Last(); !ok || last {
		t.Fatal("disable must drive the pin low immediately")
	}
	s := c.Snapshot()
	if s.CurrentState {
		t.Error("disable must clear CurrentState immediately")
	}
	if s.Enabled {
		t.Error("timer should be disabled")
	}

	// Later polls must not re-assert anything.
	writes := len(out.Levels)
	c.Poll(at(5000))
	if len(out.Levels) != writes {
		t.Error("disabled timer transitioned on poll")
	}
}

func TestZeroDurationsToggleEveryPoll(t *testing.T) {
	out := &gpio.SimOutput{}
	c := New(out)

	c.Configure(at(0), true, 0, 0)
	out.Levels = nil

	c.Poll(at(100))
	c.Poll(at(200))
	c.Poll(at(300))

	want := []bool{true, false, true}
	if len(out.Levels) != len(want) {
		t.Fatalf("writes: got %v, want %v", out.Levels, want)
	}
	for i := range want {
		if out.Levels[i] != want[i] {
			t.Fatalf("writes: got %v, want %v", out.Levels, want)
		}
	}
}

func TestManualOverrideDisablesTimer(t *testing.T) {
	out := &gpio.SimOutput{}
	c := New(out)

	c.Configure(at(0), true, time.Second, time.Second)
	c.Poll(at(1000)) // on-phase

	if err := c.SetManual(at(1200), false); err != nil {
		t.Fatalf("SetManual: %v", err)
	}
	s := c.Snapshot()
	if s.Enabled {
		t.Error("manual override must disable the timer")
	}
	if s.CurrentState {
		t.Error("manual off must clear CurrentState")
	}
	if last, _ := out.Last(); last {
		t.Error("manual off must drive the pin low")
	}

	// The timer is off, so the old phase cannot be re-asserted.
	writes := len(out.Levels)
	c.Poll(at(10000))
	if len(out.Levels) != writes {
		t.Error("poll after manual override drove the pin")
	}
}

func TestManualOnUpdatesToggleTime(t *testing.T) {
	out := &gpio.SimOutput{}
	c := New(out)

	if err := c.SetManual(at(500), true); err != nil {
		t.Fatalf("SetManual: %v", err)
	}
	s := c.Snapshot()
	if !s.CurrentState {
		t.Error("expected CurrentState on")
	}
	if !s.LastToggle.Equal(at(500)) {
		t.Errorf("LastToggle: got %v, want %v", s.LastToggle, at(500))
	}
}

func TestConfigureRestampsPhaseClock(t *testing.T) {
	out := &gpio.SimOutput{}
	c := New(out)

	c.Configure(at(0), true, 5*time.Second, 3*time.Second)
	// Re-configure at t=2500: the off-phase restarts, so t=3000 is too
	// early to toggle.
	c.Configure(at(2500), true, 5*time.Second, 3*time.Second)
	out.Levels = nil

	c.Poll(at(3000))
	if len(out.Levels) != 0 {
		t.Error("phase clock was not restamped by Configure")
	}
	c.Poll(at(5500))
	if last, ok := out.Last(); !ok || !last {
		t.Error("expected toggle once the restarted off-phase elapsed")
	}
}

func TestGPIOErrorKeepsState(t *testing.T) {
	out := &gpio.SimOutput{Err: errors.New("gpio gone")}
	c := New(out)

	c.mu.Lock()
	c.enabled = true
	c.offFor = time.Second
	c.lastToggle = at(0)
	c.mu.Unlock()

	if err := c.Poll(at(1000)); err == nil {
		t.Fatal("expected poll error when the output fails")
	}
	// The commanded level never reached the hardware, so CurrentState
	// and LastToggle must not claim it did.
	s := c.Snapshot()
	if s.CurrentState {
		t.Error("CurrentState updated despite failed write")
	}
	if !s.LastToggle.Equal(at(0)) {
		t.Errorf("LastToggle moved despite failed write: %v", s.LastToggle)
	}
}
