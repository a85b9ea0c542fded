package sensor

import (
	"errors"
	"testing"
	"time"

	"github.com/temcontrol/temcontrol/internal/gpio"
)

// newSimDecoder wires a Decoder to a SimPin on the pin's virtual clock.
// The settle step is a no-op: the pre-check only samples the level once.
func newSimDecoder(pin *gpio.SimPin) (*Decoder, *CountingCritical) {
	crit := &CountingCritical{}
	dec := NewWithTiming(pin, pin.Delay, func() {}, crit)
	return dec, crit
}

func frameFor(humInt, humFrac, tempInt, tempFrac byte) [5]byte {
	return [5]byte{humInt, humFrac, tempInt, tempFrac, Checksum(humInt, humFrac, tempInt, tempFrac)}
}

func TestReadValidFrame(t *testing.T) {
	frame := frameFor(45, 2, 23, 7)
	pin := gpio.NewSimPin(FrameScript(frame))
	dec, crit := newSimDecoder(pin)

	r := dec.Read()
	if r.Outcome != OutcomeOK {
		t.Fatalf("outcome: got %s, want ok", r.Outcome)
	}
	if r.Humidity != 45.2 {
		t.Errorf("humidity: got %v, want 45.2", r.Humidity)
	}
	if r.Temperature != 23.7 {
		t.Errorf("temperature: got %v, want 23.7", r.Temperature)
	}
	if !crit.Balanced() {
		t.Errorf("critical section not balanced: %d enters, %d exits", crit.Enters, crit.Exits)
	}
}

func TestReadFrameTable(t *testing.T) {
	cases := []struct {
		name     string
		frame    [5]byte
		wantHum  float64
		wantTemp float64
	}{
		{"typical", frameFor(60, 5, 19, 0), 60.5, 19.0},
		{"zeroes", frameFor(0, 0, 0, 0), 0.0, 0.0},
		{"checksum wraps", frameFor(200, 9, 100, 9), 200.9, 100.9},
		{"max bytes", frameFor(255, 9, 255, 9), 255.9, 255.9},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pin := gpio.NewSimPin(FrameScript(tc.frame))
			dec, _ := newSimDecoder(pin)

			r := dec.Read()
			if r.Outcome != OutcomeOK {
				t.Fatalf("outcome: got %s, want ok", r.Outcome)
			}
			if r.Humidity != tc.wantHum {
				t.Errorf("humidity: got %v, want %v", r.Humidity, tc.wantHum)
			}
			if r.Temperature != tc.wantTemp {
				t.Errorf("temperature: got %v, want %v", r.Temperature, tc.wantTemp)
			}
		})
	}
}

func TestReadChecksumMismatch(t *testing.T) {
	frame := frameFor(45, 2, 23, 7)
	frame[4]++ // corrupt the checksum byte
	pin := gpio.NewSimPin(FrameScript(frame))
	dec, crit := newSimDecoder(pin)

	r := dec.Read()
	if r.Outcome != OutcomeChecksum {
		t.Fatalf("outcome: got %s, want checksum_mismatch", r.Outcome)
	}
	if r.Temperature != 0 || r.Humidity != 0 {
		t.Error("corrupted frame must not carry values")
	}
	if !crit.Balanced() {
		t.Error("critical section not balanced after checksum failure")
	}
}

// The same corrupted input must yield the same outcome every time.
func TestReadChecksumMismatchIdempotent(t *testing.T) {
	frame := frameFor(45, 2, 23, 7)
	frame[4] ^= 0xFF

	for i := 0; i < 3; i++ {
		pin := gpio.NewSimPin(FrameScript(frame))
		dec, _ := newSimDecoder(pin)
		if r := dec.Read(); r.Outcome != OutcomeChecksum {
			t.Fatalf("attempt %d: got %s, want checksum_mismatch", i, r.Outcome)
		}
	}
}

func TestReadCorruptPayloadByte(t *testing.T) {
	frame := frameFor(45, 2, 23, 7)
	frame[1] ^= 0x10 // payload bit flip, checksum byte untouched
	pin := gpio.NewSimPin(FrameScript(frame))
	dec, _ := newSimDecoder(pin)

	if r := dec.Read(); r.Outcome != OutcomeChecksum {
		t.Fatalf("outcome: got %s, want checksum_mismatch", r.Outcome)
	}
}

func TestReadPresenceFault(t *testing.T) {
	pin := gpio.NewSimPin(nil)
	pin.FaultErr = errors.New("line fault")
	dec, crit := newSimDecoder(pin)

	r := dec.Read()
	if r.Outcome != OutcomeNotPresent {
		t.Fatalf("outcome: got %s, want not_present", r.Outcome)
	}
	// The fault pre-check must abort before the start signal: no writes,
	// no output switch, no critical section.
	if len(pin.Writes) != 0 {
		t.Errorf("expected no writes, got %v", pin.Writes)
	}
	for _, d := range pin.DirChanges {
		if d == gpio.Output {
			t.Error("pin must never be switched to output on a fault pre-check")
		}
	}
	if crit.Enters != 0 {
		t.Errorf("critical section entered %d times, want 0", crit.Enters)
	}
}

func TestReadNoAckIsNotPresent(t *testing.T) {
	// Empty script: the released line just idles high, so the first
	// handshake wait (for the ack low) runs out of iterations.
	pin := gpio.NewSimPin(nil)
	dec, crit := newSimDecoder(pin)

	r := dec.Read()
	if r.Outcome != OutcomeNotPresent {
		t.Fatalf("outcome: got %s, want not_present", r.Outcome)
	}
	if !crit.Balanced() {
		t.Error("critical section not balanced after missing ack")
	}
	// The start signal was driven: low then high.
	if len(pin.Writes) != 2 || pin.Writes[0] != false || pin.Writes[1] != true {
		t.Errorf("start signal writes: got %v, want [false true]", pin.Writes)
	}
}

func TestReadMidHandshakeTimeout(t *testing.T) {
	// Ack arrives, then the line sticks low: the wait for the ready high
	// times out. This must classify as timeout, not not_present.
	pin := gpio.NewSimPin([]gpio.Segment{{High: false, Micros: 1 << 30}})
	dec, crit := newSimDecoder(pin)

	r := dec.Read()
	if r.Outcome != OutcomeTimeout {
		t.Fatalf("outcome: got %s, want timeout", r.Outcome)
	}
	if !crit.Balanced() {
		t.Error("critical section not balanced after handshake timeout")
	}
}

func TestReadPayloadStartTimeout(t *testing.T) {
	// Ack and ready arrive, then the line sticks high before the first
	// bit's low gap.
	pin := gpio.NewSimPin([]gpio.Segment{
		{High: false, Micros: simAckMicros},
		{High: true, Micros: 1 << 30},
	})
	dec, _ := newSimDecoder(pin)

	if r := dec.Read(); r.Outcome != OutcomeTimeout {
		t.Fatalf("outcome: got %s, want timeout", r.Outcome)
	}
}

func TestReadTruncatedPayloadTimeout(t *testing.T) {
	// A frame cut off after two bytes: the line idles high after the
	// script, so the next bit gap never arrives... the wait for low from
	// idle-high exceeds the iteration budget.
	frame := frameFor(45, 2, 23, 7)
	full := FrameScript(frame)
	truncated := full[:2+2*16] // handshake + 16 bit pairs
	pin := gpio.NewSimPin(truncated)
	dec, crit := newSimDecoder(pin)

	r := dec.Read()
	if r.Outcome != OutcomeTimeout {
		t.Fatalf("outcome: got %s, want timeout", r.Outcome)
	}
	if !crit.Balanced() {
		t.Error("critical section not balanced after truncated payload")
	}
}

func TestNotPresentDistinguishableFromTimeout(t *testing.T) {
	noSensor := gpio.NewSimPin(nil)
	decA, _ := newSimDecoder(noSensor)

	brokeDown := gpio.NewSimPin([]gpio.Segment{{High: false, Micros: 1 << 30}})
	decB, _ := newSimDecoder(brokeDown)

	a := decA.Read()
	b := decB.Read()
	if a.Outcome == b.Outcome {
		t.Fatalf("no-sensor and mid-read failure must differ, both got %s", a.Outcome)
	}
}

func TestStartSignalTiming(t *testing.T) {
	frame := frameFor(50, 0, 21, 3)
	pin := gpio.NewSimPin(FrameScript(frame))
	dec, _ := newSimDecoder(pin)

	dec.Read()

	// 18000us low plus 40us high before the release. The handshake waits
	// consume virtual time after that, so only check the lower bound of
	// the start window.
	if pin.Now() < 18040 {
		t.Errorf("start signal consumed %dus of virtual time, want >= 18040", pin.Now())
	}
}

func TestSamplerStampsTime(t *testing.T) {
	frame := frameFor(45, 2, 23, 7)
	pin := gpio.NewSimPin(FrameScript(frame))
	dec, _ := newSimDecoder(pin)

	at := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	s := NewSampler(dec, func() time.Time { return at })

	sample := s.Sample()
	if !sample.TakenAt.Equal(at) {
		t.Errorf("TakenAt: got %v, want %v", sample.TakenAt, at)
	}
	if sample.Outcome != OutcomeOK {
		t.Errorf("outcome: got %s, want ok", sample.Outcome)
	}
}

func TestOutcomeStrings(t *testing.T) {
	cases := map[Outcome]string{
		OutcomeOK:         "ok",
		OutcomeNotPresent: "not_present",
		OutcomeTimeout:    "timeout",
		OutcomeChecksum:   "checksum_mismatch",
		Outcome(99):       "unknown",
	}
	for o, want := range cases {
		if got := o.String(); got != want {
			t.Errorf("Outcome(%d).String(): got %q, want %q", int(o), got, want)
		}
	}
}
