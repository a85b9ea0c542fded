package sensor

import (
	"errors"
	"time"

	"github.com/temcontrol/temcontrol/internal/gpio"
)

// Decoder reads frames from the sensor over a single GPIO line. A Decoder
// is not safe for concurrent use: the line is exclusively owned by whichever
// read is in flight. Wrap it in a Sampler to serialize callers.
type Decoder struct {
	pin    gpio.Pin
	delay  func(micros int)
	settle func()
	crit   Critical
}

// New returns a Decoder using real wall-clock timing.
func New(pin gpio.Pin) *Decoder {
	return &Decoder{
		pin:    pin,
		delay:  busyDelayMicros,
		settle: func() { time.Sleep(settleDelay) },
		crit:   osCritical{},
	}
}

// NewWithTiming returns a Decoder with injected timing primitives, for
// tests driving a simulated pin on a virtual clock.
func NewWithTiming(pin gpio.Pin, delay func(micros int), settle func(), crit Critical) *Decoder {
	return &Decoder{pin: pin, delay: delay, settle: settle, crit: crit}
}

// Read performs one decode attempt and reports the outcome. It never
// returns an error: the caller always gets a tagged Reading, whatever the
// sensor did.
func (d *Decoder) Read() Reading {
	// Presence pre-check: release the line, let it settle, and see
	// whether it can be read at all. A fault here means there is nothing
	// to talk to, and no start signal is ever driven.
	if err := d.pin.SetDirection(gpio.Input); err != nil {
		return Reading{Outcome: OutcomeNotPresent}
	}
	d.settle()
	if _, err := d.pin.Level(); err != nil {
		return Reading{Outcome: OutcomeNotPresent}
	}

	frame, outcome := d.readFrame()
	if outcome != OutcomeOK {
		return Reading{Outcome: outcome}
	}

	// Checksum is the low 8 bits of the payload sum; byte arithmetic
	// wraps, so the masking is implicit.
	if frame[4] != frame[0]+frame[1]+frame[2]+frame[3] {
		return Reading{Outcome: OutcomeChecksum}
	}

	return Reading{
		Humidity:    float64(frame[0]) + float64(frame[1])*0.1,
		Temperature: float64(frame[2]) + float64(frame[3])*0.1,
		Outcome:     OutcomeOK,
	}
}

// readFrame runs the start signal, handshake and 40-bit payload inside the
// critical section. The deferred Exit guarantees the section is released on
// every path out, including the timeout returns.
func (d *Decoder) readFrame() (frame [5]byte, outcome Outcome) {
	d.crit.Enter()
	defer d.crit.Exit()

	d.sendStart()

	// Handshake: ack low, ready high, payload low. A timeout on the very
	// first wait means nothing answered the start signal at all, which
	// callers must be able to tell apart from a mid-read failure.
	if err := d.waitForLevel(false, timeoutIters); err != nil {
		return frame, OutcomeNotPresent
	}
	if err := d.waitForLevel(true, timeoutIters); err != nil {
		return frame, OutcomeTimeout
	}
	if err := d.waitForLevel(false, timeoutIters); err != nil {
		return frame, OutcomeTimeout
	}

	for i := range frame {
		b, err := d.readByte()
		if err != nil {
			return frame, OutcomeTimeout
		}
		frame[i] = b
	}
	return frame, OutcomeOK
}

// sendStart drives the host side of the handshake: hold the line low long
// enough for the sensor to notice, pulse it high, then release it so the
// sensor can drive the bus.
func (d *Decoder) sendStart() {
	d.pin.SetDirection(gpio.Output)
	d.pin.SetLevel(false)
	d.delay(startLowMicros)
	d.pin.SetLevel(true)
	d.delay(startHighMicros)
	d.pin.SetDirection(gpio.Input)
}

// readByte reads eight pulse-width-encoded bits, MSB first. A long high
// pulse encodes a 1, a short one a 0; probing the level 40us into the pulse
// separates the two.
func (d *Decoder) readByte() (byte, error) {
	var b byte
	for i := 0; i < 8; i++ {
		if err := d.waitForLevel(true, timeoutIters); err != nil {
			return 0, err
		}
		d.delay(bitProbeMicros)
		b <<= 1
		if lvl, _ := d.pin.Level(); lvl {
			b |= 1
		}
		if err := d.waitForLevel(false, timeoutIters); err != nil {
			return 0, err
		}
	}
	return b, nil
}

var errWaitTimeout = errors.New("sensor: wait for level timed out")

// waitForLevel busy-waits until the line reads target. The bound is an
// iteration count, not a wall-clock deadline: with the critical section
// held each iteration costs roughly one microsecond, and the protocol's
// timeout contract is defined in iterations.
func (d *Decoder) waitForLevel(target bool, maxIters int) error {
	for tries := 0; ; {
		lvl, err := d.pin.Level()
		if err == nil && lvl == target {
			return nil
		}
		tries++
		if tries > maxIters {
			return errWaitTimeout
		}
		d.delay(1)
	}
}

// busyDelayMicros spins for approximately the given number of microseconds.
// time.Sleep is useless at this scale: the scheduler's wakeup latency is
// larger than the pulses being measured.
func busyDelayMicros(micros int) {
	end := time.Now().Add(time.Duration(micros) * time.Microsecond)
	for time.Now().Before(end) {
	}
}
