// Package gpio provides single-line GPIO access with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The simulated implementation replays scripted pulse trains for tests.
package gpio

// Direction is the configured direction of a bidirectional pin.
type Direction int

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

// Pin is a single bidirectional GPIO line. The one-wire sensor protocol
// needs both directions on the same line: the host drives the start signal,
// then releases the line to input so the sensor can drive it.
type Pin interface {
	// SetDirection switches the line between input and output.
	SetDirection(Direction) error

	// SetLevel drives the line high or low. Only meaningful while the
	// line is an output.
	SetLevel(high bool) error

	// Level returns the instantaneous logic level. An error means the
	// line could not be read at all (hardware fault), not a low level.
	Level() (bool, error)

	// EnablePullup enables the internal pull-up so the released line
	// idles high.
	EnablePullup() error

	// Close releases the line.
	Close() error
}

// OutputLine is a single output-only GPIO line (relay, LED).
type OutputLine interface {
	SetLevel(high bool) error
	Close() error
}

// Default BCM pin numbers, overridable via config.
const (
	DefaultPinSensor = 4  // one-wire temperature/humidity sensor
	DefaultPinRelay  = 17 // relay module
	DefaultPinLED    = 27 // connectivity LED
)
