// Package sensor decodes the one-wire temperature/humidity sensor protocol.
// A read is a microsecond-timed exchange over a single GPIO line: the host
// drives a start signal, the sensor answers with a handshake and a 40-bit
// payload whose bits are encoded in pulse widths. This package has no
// hardware dependencies beyond the gpio.Pin capability; timing is injectable
// for tests.
package sensor

import "time"

// Outcome classifies one decode attempt.
type Outcome int

const (
	// OutcomeOK means the frame was read and its checksum matched.
	OutcomeOK Outcome = iota
	// OutcomeNotPresent means no sensor answered: either the line could
	// not be read at all during the pre-check, or nothing acknowledged
	// the start signal.
	OutcomeNotPresent
	// OutcomeTimeout means the sensor answered but the protocol broke
	// down mid-read.
	OutcomeTimeout
	// OutcomeChecksum means a full frame arrived but its checksum byte
	// did not match the payload.
	OutcomeChecksum
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeNotPresent:
		return "not_present"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeChecksum:
		return "checksum_mismatch"
	default:
		return "unknown"
	}
}

// Reading is the result of one decode attempt. Temperature and Humidity are
// only meaningful when Outcome is OutcomeOK; both carry one decimal of
// precision by construction.
//
// The decode formula has no sign handling: sensor variants that put a sign
// bit in the temperature integer byte will read wrong below zero. Kept
// as-is to match the deployed firmware.
type Reading struct {
	Temperature float64
	Humidity    float64
	Outcome     Outcome
}

// OK reports whether the reading carries valid values.
func (r Reading) OK() bool {
	return r.Outcome == OutcomeOK
}

// Protocol timing. Timeouts are iteration counts of the 1us busy-wait
// loop, not wall-clock durations.
const (
	timeoutIters    = 10000
	startLowMicros  = 18000
	startHighMicros = 40
	bitProbeMicros  = 40

	// settleDelay lets the released line settle before the presence
	// pre-check samples it. One scheduler tick on the original firmware.
	settleDelay = 10 * time.Millisecond
)
